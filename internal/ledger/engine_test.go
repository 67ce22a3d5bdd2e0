package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

type stubFeed struct {
	rates  RateTable
	prices PriceTable
}

func (f *stubFeed) Rates() RateTable   { return f.rates }
func (f *stubFeed) Prices() PriceTable { return f.prices }

func testFeed() *stubFeed {
	return &stubFeed{
		rates: RateTable{
			CurrencyUSD: decimal.NewFromInt(1),
			CurrencyEUR: decimal.RequireFromString("0.92"),
			CurrencyGBP: decimal.RequireFromString("0.79"),
			CurrencyJPY: decimal.RequireFromString("157.0"),
		},
		prices: PriceTable{
			SymbolBTC: decimal.RequireFromString("97540.50"),
			SymbolETH: decimal.RequireFromString("3650.20"),
		},
	}
}

var epsilon = decimal.RequireFromString("0.000001")

func assertDecimalEqual(t *testing.T, want, got decimal.Decimal) {
	t.Helper()
	if !want.Sub(got).Abs().LessThan(epsilon) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func assertLedgerUnchanged(t *testing.T, before, after *Ledger) {
	t.Helper()
	for _, acct := range before.Fiat {
		got, _ := after.FiatBalance(acct.Currency)
		if !got.Equal(acct.Balance) {
			t.Fatalf("fiat %s changed: %s -> %s", acct.Currency, acct.Balance, got)
		}
	}
	for _, acct := range before.Crypto {
		got, _ := after.CryptoBalance(acct.Symbol)
		if !got.Equal(acct.Balance) {
			t.Fatalf("crypto %s changed: %s -> %s", acct.Symbol, acct.Balance, got)
		}
	}
}

func baseValue(l *Ledger, rates RateTable) decimal.Decimal {
	total := decimal.Zero
	for _, acct := range l.Fiat {
		total = total.Add(acct.Balance.Div(rates[acct.Currency]))
	}
	return total
}

func TestExchangeDebitsAndCredits(t *testing.T) {
	engine := NewEngine(testFeed())
	l := New()

	res, err := engine.Exchange(l, CurrencyUSD, CurrencyEUR, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}

	usd, _ := res.Ledger.FiatBalance(CurrencyUSD)
	assertDecimalEqual(t, decimal.RequireFromString("14900.75"), usd)

	eur, _ := res.Ledger.FiatBalance(CurrencyEUR)
	assertDecimalEqual(t, decimal.RequireFromString("8592.50"), eur)
	assertDecimalEqual(t, decimal.RequireFromString("92"), res.ToAmount)
}

func TestExchangeConservesBaseValue(t *testing.T) {
	feed := testFeed()
	engine := NewEngine(feed)
	l := New()
	before := baseValue(l, feed.rates)

	cases := []struct {
		from, to Currency
		amount   string
	}{
		{CurrencyUSD, CurrencyEUR, "250.33"},
		{CurrencyEUR, CurrencyJPY, "1000"},
		{CurrencyJPY, CurrencyGBP, "95000"},
		{CurrencyGBP, CurrencyUSD, "123.45"},
	}
	for _, tc := range cases {
		res, err := engine.Exchange(l, tc.from, tc.to, decimal.RequireFromString(tc.amount))
		if err != nil {
			t.Fatalf("exchange %s->%s failed: %v", tc.from, tc.to, err)
		}
		l = res.Ledger
	}

	assertDecimalEqual(t, before, baseValue(l, feed.rates))
}

func TestExchangeSameCurrencyIsNoOp(t *testing.T) {
	engine := NewEngine(testFeed())
	l := New()

	res, err := engine.Exchange(l, CurrencyUSD, CurrencyUSD, decimal.NewFromInt(500))
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
	assertLedgerUnchanged(t, l, res.Ledger)
}

func TestExchangeInvalidAmount(t *testing.T) {
	engine := NewEngine(testFeed())
	l := New()

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-10)} {
		_, err := engine.Exchange(l, CurrencyUSD, CurrencyEUR, amount)
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount for %s, got %v", amount, err)
		}
	}
	assertLedgerUnchanged(t, New(), l)
}

func TestExchangeInsufficientFunds(t *testing.T) {
	engine := NewEngine(testFeed())
	l := New()

	_, err := engine.Exchange(l, CurrencyUSD, CurrencyEUR, decimal.NewFromInt(999999999))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	assertLedgerUnchanged(t, New(), l)
}

func TestExchangeRateUnavailable(t *testing.T) {
	feed := testFeed()
	delete(feed.rates, CurrencyEUR)
	engine := NewEngine(feed)

	_, err := engine.Exchange(New(), CurrencyUSD, CurrencyEUR, decimal.NewFromInt(10))
	if !errors.Is(err, ErrPriceUnavailable) {
		t.Fatalf("expected ErrPriceUnavailable, got %v", err)
	}

	feed.rates[CurrencyEUR] = decimal.Zero
	_, err = engine.Exchange(New(), CurrencyUSD, CurrencyEUR, decimal.NewFromInt(10))
	if !errors.Is(err, ErrPriceUnavailable) {
		t.Fatalf("expected ErrPriceUnavailable for zero rate, got %v", err)
	}
}

func TestExchangeLeavesInputLedgerUntouched(t *testing.T) {
	engine := NewEngine(testFeed())
	l := New()

	if _, err := engine.Exchange(l, CurrencyUSD, CurrencyEUR, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
	assertLedgerUnchanged(t, New(), l)
}

func TestTradeCryptoBuy(t *testing.T) {
	engine := NewEngine(testFeed())
	l := New()

	res, err := engine.TradeCrypto(l, SymbolBTC, SideBuy, decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("trade failed: %v", err)
	}

	usd, _ := res.Ledger.FiatBalance(CurrencyUSD)
	assertDecimalEqual(t, decimal.RequireFromString("14000.75"), usd)

	want := decimal.RequireFromString("0.05").Add(
		decimal.NewFromInt(1000).Div(decimal.RequireFromString("97540.50")))
	btc, _ := res.Ledger.CryptoBalance(SymbolBTC)
	assertDecimalEqual(t, want, btc)
	assertLedgerUnchanged(t, New(), l)
}

func TestTradeCryptoRoundTrip(t *testing.T) {
	engine := NewEngine(testFeed())
	l := New()
	amount := decimal.NewFromInt(1000)

	buy, err := engine.TradeCrypto(l, SymbolBTC, SideBuy, amount)
	if err != nil {
		t.Fatalf("buy failed: %v", err)
	}
	sell, err := engine.TradeCrypto(buy.Ledger, SymbolBTC, SideSell, amount)
	if err != nil {
		t.Fatalf("sell failed: %v", err)
	}

	usd, _ := sell.Ledger.FiatBalance(CurrencyUSD)
	assertDecimalEqual(t, decimal.RequireFromString("15000.75"), usd)
	btc, _ := sell.Ledger.CryptoBalance(SymbolBTC)
	assertDecimalEqual(t, decimal.RequireFromString("0.05"), btc)
}

func TestTradeCryptoPreservesValue(t *testing.T) {
	feed := testFeed()
	engine := NewEngine(feed)
	l := New()

	usdBefore, _ := l.FiatBalance(CurrencyUSD)
	btcBefore, _ := l.CryptoBalance(SymbolBTC)
	valueBefore := usdBefore.Add(btcBefore.Mul(feed.prices[SymbolBTC]))

	res, err := engine.TradeCrypto(l, SymbolBTC, SideBuy, decimal.RequireFromString("2345.67"))
	if err != nil {
		t.Fatalf("trade failed: %v", err)
	}

	usdAfter, _ := res.Ledger.FiatBalance(CurrencyUSD)
	btcAfter, _ := res.Ledger.CryptoBalance(SymbolBTC)
	valueAfter := usdAfter.Add(btcAfter.Mul(feed.prices[SymbolBTC]))
	assertDecimalEqual(t, valueBefore, valueAfter)
}

func TestTradeCryptoSellInsufficientBalance(t *testing.T) {
	engine := NewEngine(testFeed())
	l := New()

	_, err := engine.TradeCrypto(l, SymbolETH, SideSell, decimal.NewFromInt(100))
	if !errors.Is(err, ErrInsufficientCryptoBalance) {
		t.Fatalf("expected ErrInsufficientCryptoBalance, got %v", err)
	}
	assertLedgerUnchanged(t, New(), l)
}

func TestTradeCryptoBuyInsufficientFunds(t *testing.T) {
	engine := NewEngine(testFeed())

	_, err := engine.TradeCrypto(New(), SymbolBTC, SideBuy, decimal.NewFromInt(999999999))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestTradeCryptoInvalidAmount(t *testing.T) {
	engine := NewEngine(testFeed())
	l := New()

	_, err := engine.TradeCrypto(l, SymbolBTC, SideBuy, decimal.Zero)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	assertLedgerUnchanged(t, New(), l)
}

func TestTradeCryptoUnknownSymbol(t *testing.T) {
	engine := NewEngine(testFeed())

	_, err := engine.TradeCrypto(New(), CryptoSymbol("XYZ"), SideBuy, decimal.NewFromInt(10))
	if !errors.Is(err, ErrUnknownSymbol) {
		t.Fatalf("expected ErrUnknownSymbol, got %v", err)
	}
}

func TestTradeCryptoPriceUnavailable(t *testing.T) {
	feed := testFeed()
	feed.prices[SymbolETH] = decimal.Zero
	engine := NewEngine(feed)

	_, err := engine.TradeCrypto(New(), SymbolETH, SideBuy, decimal.NewFromInt(10))
	if !errors.Is(err, ErrPriceUnavailable) {
		t.Fatalf("expected ErrPriceUnavailable, got %v", err)
	}

	delete(feed.prices, SymbolETH)
	_, err = engine.TradeCrypto(New(), SymbolETH, SideBuy, decimal.NewFromInt(10))
	if !errors.Is(err, ErrPriceUnavailable) {
		t.Fatalf("expected ErrPriceUnavailable for missing price, got %v", err)
	}
}

func TestValue(t *testing.T) {
	feed := testFeed()
	engine := NewEngine(feed)
	l := New()

	v, err := engine.Value(l)
	if err != nil {
		t.Fatalf("value failed: %v", err)
	}

	wantFiat := baseValue(l, feed.rates)
	assertDecimalEqual(t, wantFiat, v.FiatTotal)

	wantCrypto := decimal.RequireFromString("0.05").Mul(feed.prices[SymbolBTC])
	assertDecimalEqual(t, wantCrypto, v.CryptoTotal)
	assertDecimalEqual(t, wantFiat.Add(wantCrypto), v.Total)
}

func TestValuePriceUnavailable(t *testing.T) {
	feed := testFeed()
	delete(feed.prices, SymbolBTC)
	engine := NewEngine(feed)

	_, err := engine.Value(New())
	if !errors.Is(err, ErrPriceUnavailable) {
		t.Fatalf("expected ErrPriceUnavailable, got %v", err)
	}
}
