package ledger

import "errors"

var (
	// ErrInvalidAmount is returned when a requested amount is not a positive
	// finite number.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientFunds is returned when a fiat account cannot cover the
	// requested debit.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientCryptoBalance is returned when a crypto account cannot
	// cover the requested sell.
	ErrInsufficientCryptoBalance = errors.New("insufficient crypto balance")

	// ErrPriceUnavailable is returned when a rate or price is missing or not
	// strictly positive at operation time.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrUnknownSymbol is returned for a crypto asset outside the supported set.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrUnknownCurrency is returned for a fiat currency outside the supported set.
	ErrUnknownCurrency = errors.New("unknown currency")
)
