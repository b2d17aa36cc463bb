package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionRecord is an immutable log entry for one executed trade.
// Quantity is signed: positive for buys, negative for sells.
type TransactionRecord struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Symbol    string          `json:"symbol"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewTransaction stamps a record with a fresh ID and the current time.
func NewTransaction(userID, symbol string, qty int64, price decimal.Decimal) *TransactionRecord {
	return &TransactionRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Symbol:    strings.ToUpper(symbol),
		Quantity:  qty,
		Price:     price,
		Timestamp: time.Now(),
	}
}

// CSV renders the durable log line: userId,symbol,signedQty,price,isoTimestamp.
// Fields are not escaped, so embedded commas in user ids would corrupt the
// record. Known limitation of the plain-text log format.
func (t *TransactionRecord) CSV() string {
	return strings.Join([]string{
		t.UserID,
		t.Symbol,
		strconv.FormatInt(t.Quantity, 10),
		t.Price.String(),
		t.Timestamp.Format(time.RFC3339),
	}, ",")
}
