// Package cli is the line-oriented command dispatcher: a top-level menu plus
// market> and account> sub-prompts. It only calls into the exchange and
// market; every error is printed and the loop keeps going.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"stock_go/internal/domain"
	"stock_go/internal/exchange"
	"stock_go/internal/market"
	"stock_go/internal/persist"

	"github.com/shopspring/decimal"
)

var unsafeIDChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

type Runner struct {
	in  *bufio.Scanner
	out io.Writer

	ex      *exchange.Exchange
	mkt     *market.Market
	txlog   *persist.TxLog
	dataDir string

	// saveState performs the holdings dump (menu option 4 and shutdown).
	saveState func() error
}

func New(in io.Reader, out io.Writer, ex *exchange.Exchange, mkt *market.Market, txlog *persist.TxLog, dataDir string, saveState func() error) *Runner {
	return &Runner{
		in:        bufio.NewScanner(in),
		out:       out,
		ex:        ex,
		mkt:       mkt,
		txlog:     txlog,
		dataDir:   dataDir,
		saveState: saveState,
	}
}

// Run drives the top-level menu until the user exits or input ends.
func (r *Runner) Run() {
	fmt.Fprintln(r.out, "Welcome to the simulated Stock Trading Platform!")
	fmt.Fprintln(r.out)

	for {
		fmt.Fprintln(r.out, "1) Register / Login  2) Market  3) My Account  4) Save State  5) Exit")
		fmt.Fprint(r.out, "Choose: ")
		line, ok := r.readLine()
		if !ok {
			return
		}
		switch line {
		case "1":
			r.loginMenu()
		case "2":
			r.marketMenu()
		case "3":
			r.accountMenu()
		case "4":
			if err := r.saveState(); err != nil {
				fmt.Fprintf(r.out, "Failed to save state: %v\n", err)
			} else {
				fmt.Fprintln(r.out, "Saved portfolios to file.")
			}
		case "5":
			return
		default:
			fmt.Fprintln(r.out, "Unknown option")
		}
	}
}

func (r *Runner) readLine() (string, bool) {
	if !r.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(r.in.Text()), true
}

func (r *Runner) loginMenu() {
	fmt.Fprint(r.out, "Enter your user id (email or name): ")
	uid, ok := r.readLine()
	if !ok || uid == "" {
		return
	}
	r.ex.Login(uid)
	fmt.Fprintf(r.out, "Logged in as: %s\n", uid)
}

func (r *Runner) marketMenu() {
	fmt.Fprintln(r.out, "Market - Live Prices:")
	for _, inst := range r.mkt.List() {
		fmt.Fprintf(r.out, "%s - %s : %s\n", inst.Symbol(), inst.Name(), inst.Price().StringFixed(2))
	}
	fmt.Fprintln(r.out, "Commands: [buy], [sell], [history], [detail], [back]")

	for {
		fmt.Fprint(r.out, "market> ")
		line, ok := r.readLine()
		if !ok {
			return
		}
		switch {
		case strings.EqualFold(line, "back"):
			return
		case strings.HasPrefix(line, "buy"):
			r.handleTrade(line, true)
		case strings.HasPrefix(line, "sell"):
			r.handleTrade(line, false)
		case strings.HasPrefix(line, "history"):
			r.handleHistory(line)
		case strings.HasPrefix(line, "detail"):
			r.handleDetail(line)
		default:
			fmt.Fprintln(r.out, "Unknown command")
		}
	}
}

// handleTrade parses "buy <userId> <symbol> <qty>" or the sell equivalent.
func (r *Runner) handleTrade(line string, isBuy bool) {
	verb := "sell"
	if isBuy {
		verb = "buy"
	}
	parts := strings.Fields(line)
	if len(parts) < 4 {
		fmt.Fprintf(r.out, "Usage: %s <userId> <symbol> <qty>\n", verb)
		return
	}
	uid, sym := parts[1], parts[2]

	qty, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		fmt.Fprintf(r.out, "Invalid quantity: %s\n", parts[3])
		return
	}

	var rec *domain.TransactionRecord
	if isBuy {
		rec, err = r.ex.Buy(uid, sym, qty)
	} else {
		rec, err = r.ex.Sell(uid, sym, qty)
	}
	if err != nil {
		r.printTradeError(err)
		return
	}

	total := rec.Price.Mul(decimal.NewFromInt(qty))
	if isBuy {
		fmt.Fprintf(r.out, "Bought %d of %s at %s each (total %s)\n", qty, rec.Symbol, rec.Price.StringFixed(2), total.StringFixed(2))
	} else {
		fmt.Fprintf(r.out, "Sold %d of %s at %s each (total %s)\n", qty, rec.Symbol, rec.Price.StringFixed(2), total.StringFixed(2))
	}
}

func (r *Runner) printTradeError(err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		fmt.Fprintln(r.out, "User not found. Please register/login first.")
	case errors.Is(err, domain.ErrSymbolNotFound):
		fmt.Fprintln(r.out, "Stock not found.")
	case errors.Is(err, domain.ErrInvalidQuantity):
		fmt.Fprintln(r.out, "Quantity must be a positive integer.")
	case errors.Is(err, domain.ErrInsufficientFunds):
		fmt.Fprintln(r.out, "Insufficient cash.")
	case errors.Is(err, domain.ErrInsufficientHoldings):
		fmt.Fprintln(r.out, "Not enough holdings to sell.")
	default:
		fmt.Fprintf(r.out, "Error: %v\n", err)
	}
}

func (r *Runner) handleHistory(line string) {
	parts := strings.Fields(line)
	if len(parts) < 2 {
		fmt.Fprintln(r.out, "Usage: history <symbol>")
		return
	}
	inst, ok := r.mkt.Lookup(parts[1])
	if !ok {
		fmt.Fprintf(r.out, "Stock not found: %s\n", parts[1])
		return
	}

	hist := inst.History()
	fmt.Fprintln(r.out, "Timestamp,Price")
	for _, p := range hist {
		fmt.Fprintf(r.out, "%s,%s\n", p.Time.Format(time.RFC3339), p.Price.StringFixed(4))
	}

	fmt.Fprint(r.out, "Save history to CSV file? (y/n): ")
	if ans, ok := r.readLine(); ok && strings.EqualFold(ans, "y") {
		fname := filepath.Join(r.dataDir, "price_history_"+inst.Symbol()+".csv")
		if err := writePriceHistory(fname, hist); err != nil {
			fmt.Fprintf(r.out, "Failed to save: %v\n", err)
			return
		}
		fmt.Fprintf(r.out, "Saved to %s\n", fname)
	}
}

func writePriceHistory(path string, hist []domain.PricePoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "timestamp,price")
	for _, p := range hist {
		fmt.Fprintf(w, "%s,%s\n", p.Time.Format(time.RFC3339), p.Price.String())
	}
	return w.Flush()
}

func (r *Runner) handleDetail(line string) {
	parts := strings.Fields(line)
	if len(parts) < 2 {
		fmt.Fprintln(r.out, "Usage: detail <symbol>")
		return
	}
	inst, ok := r.mkt.Lookup(parts[1])
	if !ok {
		fmt.Fprintf(r.out, "Stock not found: %s\n", parts[1])
		return
	}

	fmt.Fprintf(r.out, "%s - %s\nPrice: %s\n", inst.Symbol(), inst.Name(), inst.Price().StringFixed(2))
	fmt.Fprintln(r.out, "Recent history (last 10):")
	hist := inst.History()
	start := len(hist) - 10
	if start < 0 {
		start = 0
	}
	for _, p := range hist[start:] {
		fmt.Fprintf(r.out, "%s -> %s\n", p.Time.Format("15:04:05"), p.Price.StringFixed(4))
	}
}

func (r *Runner) accountMenu() {
	fmt.Fprint(r.out, "Enter your user id: ")
	uid, ok := r.readLine()
	if !ok {
		return
	}
	acct, found := r.ex.Account(uid)
	if !found {
		fmt.Fprintln(r.out, "User not found.")
		return
	}
	fmt.Fprintln(r.out, "Commands: [balance] [holdings] [history] [value] [export] [back]")

	for {
		fmt.Fprint(r.out, "account> ")
		line, ok := r.readLine()
		if !ok {
			return
		}
		switch {
		case strings.EqualFold(line, "back"):
			return
		case strings.EqualFold(line, "balance"):
			fmt.Fprintf(r.out, "Cash: %s\n", acct.Cash().StringFixed(2))
		case strings.EqualFold(line, "holdings"):
			r.showHoldings(acct)
		case strings.EqualFold(line, "history"):
			r.showTransactions(uid)
		case strings.EqualFold(line, "value"):
			value, err := r.ex.HoldingsValue(uid)
			if err != nil {
				fmt.Fprintf(r.out, "Error: %v\n", err)
				continue
			}
			fmt.Fprintf(r.out, "Total Value (cash + holdings): %s\n", acct.Cash().Add(value).StringFixed(2))
		case strings.EqualFold(line, "export"):
			r.exportSnapshots(acct)
		default:
			fmt.Fprintln(r.out, "Unknown command")
		}
	}
}

func (r *Runner) showHoldings(acct *domain.Account) {
	holdings := acct.Portfolio().Holdings()
	if len(holdings) == 0 {
		fmt.Fprintln(r.out, "No holdings.")
		return
	}
	fmt.Fprintln(r.out, "Symbol | Qty | AvgPrice | MarketPrice | MarketValue")
	for _, h := range holdings {
		var mp string
		value := "0.00"
		if inst, ok := r.mkt.Lookup(h.Symbol); ok {
			mp = inst.Price().StringFixed(2)
			value = inst.Price().Mul(decimal.NewFromInt(h.Quantity)).StringFixed(2)
		} else {
			mp = "0.00"
		}
		fmt.Fprintf(r.out, "%6s | %3d | %8s | %10s | %10s\n", h.Symbol, h.Quantity, h.AvgPrice.StringFixed(2), mp, value)
	}
}

func (r *Runner) showTransactions(uid string) {
	lines, err := r.txlog.UserHistory(uid)
	if err != nil {
		fmt.Fprintf(r.out, "Failed to read transactions: %v\n", err)
		return
	}
	if len(lines) == 0 {
		fmt.Fprintln(r.out, "No transactions recorded.")
		return
	}
	fmt.Fprintln(r.out, "user,symbol,qty,price,time")
	for _, line := range lines {
		fmt.Fprintln(r.out, line)
	}
}

func (r *Runner) exportSnapshots(acct *domain.Account) {
	snaps := acct.Portfolio().Valuations()
	if len(snaps) == 0 {
		fmt.Fprintln(r.out, "No snapshots yet. Wait for scheduled snapshots.")
		return
	}

	safe := unsafeIDChars.ReplaceAllString(acct.UserID(), "_")
	fname := filepath.Join(r.dataDir, "portfolio_snapshots_"+safe+".csv")

	f, err := os.Create(fname)
	if err != nil {
		fmt.Fprintf(r.out, "Failed to save snapshots: %v\n", err)
		return
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "time,value")
	for _, s := range snaps {
		fmt.Fprintf(w, "%s,%s\n", s.Time.Format(time.RFC3339), s.Value.String())
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(r.out, "Failed to save snapshots: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "Saved snapshots to %s\n", fname)
}
