package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewSeedsOneAccountPerAsset(t *testing.T) {
	l := New()

	if len(l.Fiat) != len(Currencies) {
		t.Fatalf("expected %d fiat accounts, got %d", len(Currencies), len(l.Fiat))
	}
	if len(l.Crypto) != len(CryptoSymbols) {
		t.Fatalf("expected %d crypto accounts, got %d", len(CryptoSymbols), len(l.Crypto))
	}

	seenFiat := map[Currency]bool{}
	for _, acct := range l.Fiat {
		if seenFiat[acct.Currency] {
			t.Fatalf("duplicate fiat account for %s", acct.Currency)
		}
		seenFiat[acct.Currency] = true
		if acct.Balance.IsNegative() {
			t.Fatalf("negative seed balance for %s", acct.Currency)
		}
		if acct.Symbol == "" {
			t.Fatalf("missing display symbol for %s", acct.Currency)
		}
	}

	seenCrypto := map[CryptoSymbol]bool{}
	for _, acct := range l.Crypto {
		if seenCrypto[acct.Symbol] {
			t.Fatalf("duplicate crypto account for %s", acct.Symbol)
		}
		seenCrypto[acct.Symbol] = true
		if acct.Name == "" {
			t.Fatalf("missing display name for %s", acct.Symbol)
		}
	}

	usd, _ := l.FiatBalance(CurrencyUSD)
	if !usd.Equal(decimal.RequireFromString("15000.75")) {
		t.Fatalf("unexpected USD seed %s", usd)
	}
	btc, _ := l.CryptoBalance(SymbolBTC)
	if !btc.Equal(decimal.RequireFromString("0.05")) {
		t.Fatalf("unexpected BTC seed %s", btc)
	}
	eth, _ := l.CryptoBalance(SymbolETH)
	if !eth.IsZero() {
		t.Fatalf("expected zero ETH seed, got %s", eth)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	l := New()
	c := l.Clone()

	c.fiatAccount(CurrencyUSD).Balance = decimal.Zero
	c.cryptoAccount(SymbolBTC).Balance = decimal.NewFromInt(42)

	usd, _ := l.FiatBalance(CurrencyUSD)
	if !usd.Equal(decimal.RequireFromString("15000.75")) {
		t.Fatalf("clone mutation leaked into original: %s", usd)
	}
	btc, _ := l.CryptoBalance(SymbolBTC)
	if !btc.Equal(decimal.RequireFromString("0.05")) {
		t.Fatalf("clone mutation leaked into original: %s", btc)
	}
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency(" eur ")
	if err != nil || c != CurrencyEUR {
		t.Fatalf("expected EUR, got %v %v", c, err)
	}
	if _, err := ParseCurrency("CHF"); err == nil {
		t.Fatalf("expected error for unsupported currency")
	}
}

func TestParseCryptoSymbol(t *testing.T) {
	s, err := ParseCryptoSymbol("doge")
	if err != nil || s != SymbolDOGE {
		t.Fatalf("expected DOGE, got %v %v", s, err)
	}
	if _, err := ParseCryptoSymbol("SHIB"); err == nil {
		t.Fatalf("expected error for unsupported symbol")
	}
}

func TestParseSide(t *testing.T) {
	side, err := ParseSide("Buy")
	if err != nil || side != SideBuy {
		t.Fatalf("expected buy, got %v %v", side, err)
	}
	if _, err := ParseSide("hold"); err == nil {
		t.Fatalf("expected error for invalid side")
	}
}
