package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
)

// Connect opens and pings a MySQL pool.
func Connect(ctx context.Context, dsn string, log logrus.FieldLogger) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.Info("mysql connected")
	return db, nil
}

// RunMigrations applies every *.sql file in dir in name order. A missing
// directory is not an error.
func RunMigrations(ctx context.Context, db *sql.DB, dir string, log logrus.FieldLogger) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	// 001 -> 002 -> 003
	sort.Strings(files)

	for _, file := range files {
		b, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		if err := execMigration(ctx, db, string(b)); err != nil {
			return fmt.Errorf("migration %s failed: %w", file, err)
		}
		log.WithField("file", file).Info("migration applied")
	}
	return nil
}

func execMigration(ctx context.Context, db *sql.DB, stmt string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := db.ExecContext(ctx, stmt)
	return err
}
