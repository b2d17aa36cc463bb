package persist

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"stock_go/internal/domain"

	"github.com/shopspring/decimal"
)

// HoldingRecord is one parsed line of the holdings dump:
// userId,symbol,quantity,avgPrice.
type HoldingRecord struct {
	UserID   string
	Symbol   string
	Quantity int64
	AvgPrice decimal.Decimal
}

// HoldingsFile is the full-rewrite dump of every user's positions. Only
// holdings are persisted; cash balances are not, so a reloaded user starts
// back at the configured starting cash. Known asymmetry of the dump format.
type HoldingsFile struct {
	mu   sync.Mutex
	path string
}

func NewHoldingsFile(path string) *HoldingsFile {
	return &HoldingsFile{path: path}
}

// Save rewrites the dump from the given accounts. Rows are sorted by user id
// then symbol so consecutive dumps diff cleanly.
func (h *HoldingsFile) Save(accounts []*domain.Account) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var rows []string
	for _, acct := range accounts {
		for _, hold := range acct.Portfolio().Holdings() {
			rows = append(rows, strings.Join([]string{
				acct.UserID(),
				hold.Symbol,
				strconv.FormatInt(hold.Quantity, 10),
				hold.AvgPrice.String(),
			}, ","))
		}
	}
	sort.Strings(rows)

	f, err := os.Create(h.path)
	if err != nil {
		return fmt.Errorf("create holdings file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, row := range rows {
		if _, err := w.WriteString(row + "\n"); err != nil {
			return fmt.Errorf("write holdings file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush holdings file: %w", err)
	}
	return nil
}

// Load parses the dump, skipping malformed lines. A missing file yields no
// records and no error.
func (h *HoldingsFile) Load() ([]HoldingRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.Open(h.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open holdings file: %w", err)
	}
	defer f.Close()

	var records []HoldingRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), ",")
		if len(parts) < 4 {
			continue
		}
		qty, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || qty <= 0 {
			slog.Warn("skipping malformed holdings row", slog.String("row", scanner.Text()))
			continue
		}
		avg, err := decimal.NewFromString(parts[3])
		if err != nil {
			slog.Warn("skipping malformed holdings row", slog.String("row", scanner.Text()))
			continue
		}
		records = append(records, HoldingRecord{
			UserID:   parts[0],
			Symbol:   parts[1],
			Quantity: qty,
			AvgPrice: avg,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read holdings file: %w", err)
	}
	return records, nil
}
