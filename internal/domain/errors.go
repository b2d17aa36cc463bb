package domain

import "errors"

// Trading errors. All are recoverable at the command boundary: the handler
// prints a message and in-memory state stays untouched.
var (
	// ErrUserNotFound is returned when a user id has never logged in.
	ErrUserNotFound = errors.New("user not found")

	// ErrSymbolNotFound is returned when a symbol is not registered on the market.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrInvalidQuantity is returned for non-positive or unparsable quantities.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrInsufficientFunds is returned when a buy costs more than the account holds.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientHoldings is returned when a sell exceeds the held quantity.
	ErrInsufficientHoldings = errors.New("insufficient holdings")
)
