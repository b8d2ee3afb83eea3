package deploy

import (
	"fmt"
	"os"
	"sync"

	"hav/internal/ledger"
)

// AddressLog appends "<title> => <link><address>" records to a text file.
type AddressLog struct {
	Path string
	Link string

	mu sync.Mutex
}

func NewAddressLog(path, link string) *AddressLog {
	return &AddressLog{Path: path, Link: link}
}

func (l *AddressLog) Append(title string, addr ledger.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open deployment log: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%s => %s%s\n\n", title, l.Link, addr); err != nil {
		f.Close()
		return fmt.Errorf("write deployment log: %w", err)
	}
	return f.Close()
}
