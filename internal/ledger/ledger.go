package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is a supported fiat currency code.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyJPY Currency = "JPY"
	CurrencyGBP Currency = "GBP"
)

// BaseCurrency is the reference currency all rates and crypto prices are
// expressed against.
const BaseCurrency = CurrencyUSD

// Currencies lists every supported fiat currency in display order.
var Currencies = []Currency{CurrencyUSD, CurrencyEUR, CurrencyJPY, CurrencyGBP}

// CryptoSymbol is a supported crypto asset code.
type CryptoSymbol string

const (
	SymbolBTC  CryptoSymbol = "BTC"
	SymbolETH  CryptoSymbol = "ETH"
	SymbolUSDT CryptoSymbol = "USDT"
	SymbolBNB  CryptoSymbol = "BNB"
	SymbolSOL  CryptoSymbol = "SOL"
	SymbolXRP  CryptoSymbol = "XRP"
	SymbolUSDC CryptoSymbol = "USDC"
	SymbolADA  CryptoSymbol = "ADA"
	SymbolAVAX CryptoSymbol = "AVAX"
	SymbolDOGE CryptoSymbol = "DOGE"
)

// CryptoSymbols lists every supported crypto asset in display order.
var CryptoSymbols = []CryptoSymbol{
	SymbolBTC, SymbolETH, SymbolUSDT, SymbolBNB, SymbolSOL,
	SymbolXRP, SymbolUSDC, SymbolADA, SymbolAVAX, SymbolDOGE,
}

// RateTable maps a fiat currency to its rate relative to BaseCurrency
// (rate[BaseCurrency] = 1).
type RateTable map[Currency]decimal.Decimal

// PriceTable maps a crypto asset to its price in BaseCurrency.
type PriceTable map[CryptoSymbol]decimal.Decimal

type FiatAccount struct {
	Currency Currency        `json:"currency"`
	Symbol   string          `json:"symbol"`
	Balance  decimal.Decimal `json:"balance"`
}

type CryptoAccount struct {
	Symbol  CryptoSymbol    `json:"symbol"`
	Name    string          `json:"name"`
	Unit    string          `json:"unit"`
	Balance decimal.Decimal `json:"balance"`
}

// Ledger holds the complete set of one user's fiat and crypto balances.
// It contains exactly one FiatAccount per Currency and one CryptoAccount per
// CryptoSymbol. A Ledger is owned by a single session and is only mutated
// through the Engine operations.
type Ledger struct {
	Fiat   []FiatAccount   `json:"fiat_accounts"`
	Crypto []CryptoAccount `json:"crypto_accounts"`
}

var currencySymbols = map[Currency]string{
	CurrencyUSD: "$",
	CurrencyEUR: "€",
	CurrencyJPY: "¥",
	CurrencyGBP: "£",
}

var cryptoNames = map[CryptoSymbol]string{
	SymbolBTC:  "Bitcoin",
	SymbolETH:  "Ethereum",
	SymbolUSDT: "Tether",
	SymbolBNB:  "BNB",
	SymbolSOL:  "Solana",
	SymbolXRP:  "XRP",
	SymbolUSDC: "USDC",
	SymbolADA:  "Cardano",
	SymbolAVAX: "Avalanche",
	SymbolDOGE: "Dogecoin",
}

// New returns a ledger seeded with the fixed starting allocation.
func New() *Ledger {
	l := &Ledger{
		Fiat:   make([]FiatAccount, 0, len(Currencies)),
		Crypto: make([]CryptoAccount, 0, len(CryptoSymbols)),
	}
	seed := map[Currency]decimal.Decimal{
		CurrencyUSD: decimal.RequireFromString("15000.75"),
		CurrencyEUR: decimal.RequireFromString("8500.50"),
		CurrencyJPY: decimal.NewFromInt(1250000),
		CurrencyGBP: decimal.RequireFromString("5000.25"),
	}
	for _, c := range Currencies {
		l.Fiat = append(l.Fiat, FiatAccount{
			Currency: c,
			Symbol:   currencySymbols[c],
			Balance:  seed[c],
		})
	}
	for _, s := range CryptoSymbols {
		balance := decimal.Zero
		if s == SymbolBTC {
			balance = decimal.RequireFromString("0.05")
		}
		l.Crypto = append(l.Crypto, CryptoAccount{
			Symbol:  s,
			Name:    cryptoNames[s],
			Unit:    string(s),
			Balance: balance,
		})
	}
	return l
}

// Clone returns a deep copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	if l == nil {
		return nil
	}
	c := &Ledger{
		Fiat:   make([]FiatAccount, len(l.Fiat)),
		Crypto: make([]CryptoAccount, len(l.Crypto)),
	}
	copy(c.Fiat, l.Fiat)
	copy(c.Crypto, l.Crypto)
	return c
}

func (l *Ledger) fiatAccount(c Currency) *FiatAccount {
	for i := range l.Fiat {
		if l.Fiat[i].Currency == c {
			return &l.Fiat[i]
		}
	}
	return nil
}

func (l *Ledger) cryptoAccount(s CryptoSymbol) *CryptoAccount {
	for i := range l.Crypto {
		if l.Crypto[i].Symbol == s {
			return &l.Crypto[i]
		}
	}
	return nil
}

// FiatBalance returns the balance of the account for the given currency.
func (l *Ledger) FiatBalance(c Currency) (decimal.Decimal, bool) {
	acct := l.fiatAccount(c)
	if acct == nil {
		return decimal.Zero, false
	}
	return acct.Balance, true
}

// CryptoBalance returns the balance of the account for the given symbol.
func (l *Ledger) CryptoBalance(s CryptoSymbol) (decimal.Decimal, bool) {
	acct := l.cryptoAccount(s)
	if acct == nil {
		return decimal.Zero, false
	}
	return acct.Balance, true
}

// ParseCurrency validates a fiat currency code.
func ParseCurrency(value string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(value)))
	for _, known := range Currencies {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, value)
}

// ParseCryptoSymbol validates a crypto asset code.
func ParseCryptoSymbol(value string) (CryptoSymbol, error) {
	s := CryptoSymbol(strings.ToUpper(strings.TrimSpace(value)))
	for _, known := range CryptoSymbols {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSymbol, value)
}
