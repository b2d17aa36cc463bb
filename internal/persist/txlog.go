// Package persist is the durable sink for trades and holdings: plain
// delimited text, one record per line. Commas inside fields are not escaped;
// user ids containing commas will corrupt records.
package persist

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"stock_go/internal/domain"
)

// TxLog is the append-only transaction log. The mutex serializes writers so
// records from the trading path and the periodic dump never interleave
// mid-line.
type TxLog struct {
	mu   sync.Mutex
	path string
}

func NewTxLog(path string) *TxLog {
	return &TxLog{path: path}
}

// Append writes one complete record line. Each call opens, writes, and
// closes the file, so a crash loses at most the record being written.
func (l *TxLog) Append(rec *domain.TransactionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open transaction log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(rec.CSV() + "\n"); err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

// UserHistory returns the raw log lines for one user, oldest first.
// A missing log means no transactions yet, not an error.
func (l *TxLog) UserHistory(userID string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open transaction log: %w", err)
	}
	defer f.Close()

	prefix := userID + ","
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); strings.HasPrefix(line, prefix) {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read transaction log: %w", err)
	}
	return lines, nil
}
