package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/ledger"
)

const (
	KindExchange    = "exchange"
	KindCryptoTrade = "crypto_trade"
)

// Transaction is the record of one applied ledger operation. Exchange
// transactions fill the From/To fields, crypto trades the Symbol/Side fields;
// the rate or price is the snapshot value the operation was executed at.
type Transaction struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Kind      string    `json:"kind"`

	FromCurrency ledger.Currency `json:"from_currency,omitempty"`
	ToCurrency   ledger.Currency `json:"to_currency,omitempty"`
	FromAmount   decimal.Decimal `json:"from_amount,omitempty"`
	ToAmount     decimal.Decimal `json:"to_amount,omitempty"`
	Rate         decimal.Decimal `json:"rate,omitempty"`

	Symbol       ledger.CryptoSymbol `json:"symbol,omitempty"`
	Side         ledger.Side         `json:"side,omitempty"`
	AmountUSD    decimal.Decimal     `json:"amount_usd,omitempty"`
	CryptoAmount decimal.Decimal     `json:"crypto_amount,omitempty"`
	Price        decimal.Decimal     `json:"price,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Journal records applied transactions for history views. Record failures are
// reported to the caller but must never have prevented the ledger update; the
// ledger is the source of truth, the journal is bookkeeping.
type Journal interface {
	Record(ctx context.Context, tx Transaction) error
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]Transaction, error)
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
