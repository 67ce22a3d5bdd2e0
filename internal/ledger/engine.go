package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Side is the direction of a crypto trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide validates a trade side.
func ParseSide(value string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(value))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	}
	return "", fmt.Errorf("side must be buy or sell, got %q", value)
}

// Feed supplies the current rate and price snapshots. Each call returns an
// internally consistent snapshot; the engine reads each table exactly once
// per operation.
type Feed interface {
	Rates() RateTable
	Prices() PriceTable
}

// ExchangeResult describes an applied fiat exchange. Ledger is the updated
// copy; the input ledger is never modified.
type ExchangeResult struct {
	Ledger       *Ledger
	FromCurrency Currency
	ToCurrency   Currency
	FromAmount   decimal.Decimal
	ToAmount     decimal.Decimal
	Rate         decimal.Decimal
}

// TradeResult describes an applied crypto trade. Ledger is the updated copy;
// the input ledger is never modified.
type TradeResult struct {
	Ledger       *Ledger
	Symbol       CryptoSymbol
	Side         Side
	AmountUSD    decimal.Decimal
	CryptoAmount decimal.Decimal
	Price        decimal.Decimal
}

// Engine applies balanced, all-or-nothing updates to a ledger using rate and
// price snapshots from a Feed. Operations are pure with respect to the input
// ledger: on any failure the caller's ledger is untouched.
type Engine struct {
	feed Feed
}

func NewEngine(feed Feed) *Engine {
	return &Engine{feed: feed}
}

// Exchange converts fromAmount of one fiat currency into another at the
// current rate snapshot. The credited amount is derived here, from the same
// snapshot used for the debit, and is kept at full precision; rounding is a
// presentation concern. A same-currency exchange is a net no-op.
func (e *Engine) Exchange(l *Ledger, from, to Currency, fromAmount decimal.Decimal) (*ExchangeResult, error) {
	if !fromAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	rates := e.feed.Rates()
	fromRate, ok := rates[from]
	if !ok || !fromRate.IsPositive() {
		return nil, fmt.Errorf("%w: no rate for %s", ErrPriceUnavailable, from)
	}
	toRate, ok := rates[to]
	if !ok || !toRate.IsPositive() {
		return nil, fmt.Errorf("%w: no rate for %s", ErrPriceUnavailable, to)
	}

	balance, ok := l.FiatBalance(from)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCurrency, from)
	}
	if _, ok := l.FiatBalance(to); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCurrency, to)
	}
	if balance.LessThan(fromAmount) {
		return nil, ErrInsufficientFunds
	}

	// rate[to]/rate[from]; a single division keeps the precision loss to one step.
	toAmount := fromAmount.Mul(toRate).Div(fromRate)

	updated := l.Clone()
	updated.fiatAccount(from).Balance = updated.fiatAccount(from).Balance.Sub(fromAmount)
	updated.fiatAccount(to).Balance = updated.fiatAccount(to).Balance.Add(toAmount)

	return &ExchangeResult{
		Ledger:       updated,
		FromCurrency: from,
		ToCurrency:   to,
		FromAmount:   fromAmount,
		ToAmount:     toAmount,
		Rate:         toRate.Div(fromRate),
	}, nil
}

// TradeCrypto buys or sells a crypto asset against the base fiat account for
// amountUSD worth, priced from the current snapshot at submit time. Both legs
// are applied together or not at all.
func (e *Engine) TradeCrypto(l *Ledger, symbol CryptoSymbol, side Side, amountUSD decimal.Decimal) (*TradeResult, error) {
	if !amountUSD.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if side != SideBuy && side != SideSell {
		return nil, fmt.Errorf("invalid side %q", side)
	}

	cryptoBalance, ok := l.CryptoBalance(symbol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	fiatBalance, ok := l.FiatBalance(BaseCurrency)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCurrency, BaseCurrency)
	}

	price, ok := e.feed.Prices()[symbol]
	if !ok || !price.IsPositive() {
		return nil, fmt.Errorf("%w: no price for %s", ErrPriceUnavailable, symbol)
	}
	cryptoAmount := amountUSD.Div(price)

	switch side {
	case SideBuy:
		if fiatBalance.LessThan(amountUSD) {
			return nil, ErrInsufficientFunds
		}
	case SideSell:
		if cryptoBalance.LessThan(cryptoAmount) {
			return nil, ErrInsufficientCryptoBalance
		}
	}

	updated := l.Clone()
	fiat := updated.fiatAccount(BaseCurrency)
	crypto := updated.cryptoAccount(symbol)
	if side == SideBuy {
		fiat.Balance = fiat.Balance.Sub(amountUSD)
		crypto.Balance = crypto.Balance.Add(cryptoAmount)
	} else {
		fiat.Balance = fiat.Balance.Add(amountUSD)
		crypto.Balance = crypto.Balance.Sub(cryptoAmount)
	}

	return &TradeResult{
		Ledger:       updated,
		Symbol:       symbol,
		Side:         side,
		AmountUSD:    amountUSD,
		CryptoAmount: cryptoAmount,
		Price:        price,
	}, nil
}

// Valuation is a ledger valued in the base currency at one snapshot.
type Valuation struct {
	FiatTotal   decimal.Decimal `json:"fiat_total"`
	CryptoTotal decimal.Decimal `json:"crypto_total"`
	Total       decimal.Decimal `json:"total"`
}

// Value computes the base-currency value of all holdings at the current
// snapshot. Assets whose rate or price is missing or non-positive cannot be
// valued and yield ErrPriceUnavailable.
func (e *Engine) Value(l *Ledger) (Valuation, error) {
	rates := e.feed.Rates()
	prices := e.feed.Prices()

	var v Valuation
	for _, acct := range l.Fiat {
		rate, ok := rates[acct.Currency]
		if !ok || !rate.IsPositive() {
			return Valuation{}, fmt.Errorf("%w: no rate for %s", ErrPriceUnavailable, acct.Currency)
		}
		v.FiatTotal = v.FiatTotal.Add(acct.Balance.Div(rate))
	}
	for _, acct := range l.Crypto {
		if acct.Balance.IsZero() {
			continue
		}
		price, ok := prices[acct.Symbol]
		if !ok || !price.IsPositive() {
			return Valuation{}, fmt.Errorf("%w: no price for %s", ErrPriceUnavailable, acct.Symbol)
		}
		v.CryptoTotal = v.CryptoTotal.Add(acct.Balance.Mul(price))
	}
	v.Total = v.FiatTotal.Add(v.CryptoTotal)
	return v, nil
}
