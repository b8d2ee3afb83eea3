package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"hav/internal/accounts"
	"hav/internal/ledger"
)

type Config struct {
	Port         string
	Env          string
	Network      string
	DSN          string
	JWTSecret    string
	JWTTTLHrs    int
	RoomFee      ledger.Wei
	Wallet       *ledger.Address
	DevAccounts  int
	DeployLog    string
	ExplorerLink string
	LogLevel     logrus.Level
}

// Load reads .env and the environment, exiting on invalid configuration.
func Load() *Config {
	_ = godotenv.Load()
	c, err := Parse()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logrus.WithFields(logrus.Fields{"env": c.Env, "port": c.Port, "network": c.Network}).Info("config loaded")
	return c
}

// Parse builds a Config from environment variables.
func Parse() (*Config, error) {
	ttl, err := strconv.Atoi(getEnv("JWT_TTL_HOURS", "24"))
	if err != nil || ttl <= 0 {
		ttl = 24
	}
	devAccounts, err := strconv.Atoi(getEnv("DEV_ACCOUNTS", "10"))
	if err != nil || devAccounts < 0 {
		return nil, fmt.Errorf("DEV_ACCOUNTS: want a non-negative integer, got %q", os.Getenv("DEV_ACCOUNTS"))
	}
	fee, err := ledger.ParseWei(getEnv("ROOM_FEE", "50000 gwei"))
	if err != nil {
		return nil, fmt.Errorf("ROOM_FEE: %w", err)
	}
	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	c := &Config{
		Port:         getEnv("PORT", "8080"),
		Env:          getEnv("ENV", "dev"),
		Network:      getEnv("NETWORK", accounts.DevelopmentNetwork),
		DSN:          os.Getenv("DB_DSN"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		JWTTTLHrs:    ttl,
		RoomFee:      fee,
		DevAccounts:  devAccounts,
		DeployLog:    getEnv("DEPLOY_LOG", "Deployment Address.txt"),
		ExplorerLink: getEnv("EXPLORER_LINK", "https://rinkeby.etherscan.io/address/"),
		LogLevel:     level,
	}
	if c.JWTSecret == "" {
		return nil, fmt.Errorf("missing env: JWT_SECRET")
	}

	if w := os.Getenv("WALLET_ADDRESS"); w != "" {
		addr, err := ledger.ParseAddress(w)
		if err != nil {
			return nil, fmt.Errorf("WALLET_ADDRESS: %w", err)
		}
		c.Wallet = &addr
	}
	if c.Network != accounts.DevelopmentNetwork && c.Wallet == nil {
		return nil, fmt.Errorf("missing env: WALLET_ADDRESS (required on network %q)", c.Network)
	}
	return c, nil
}

func (c *Config) Addr() string { return ":" + c.Port }

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
