package pricing

import (
	"context"
	"maps"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/ledger"
)

const (
	DefaultInterval   = 3 * time.Second
	DefaultVolatility = 0.01
)

// DefaultRates returns the seed fiat rate table, relative to USD = 1.
func DefaultRates() ledger.RateTable {
	return ledger.RateTable{
		ledger.CurrencyUSD: decimal.NewFromInt(1),
		ledger.CurrencyEUR: decimal.RequireFromString("0.92"),
		ledger.CurrencyGBP: decimal.RequireFromString("0.79"),
		ledger.CurrencyJPY: decimal.RequireFromString("157.0"),
	}
}

// DefaultPrices returns the seed crypto price table in USD.
func DefaultPrices() ledger.PriceTable {
	return ledger.PriceTable{
		ledger.SymbolBTC:  decimal.RequireFromString("97540.50"),
		ledger.SymbolETH:  decimal.RequireFromString("3650.20"),
		ledger.SymbolUSDT: decimal.RequireFromString("1.00"),
		ledger.SymbolBNB:  decimal.RequireFromString("720.10"),
		ledger.SymbolSOL:  decimal.RequireFromString("245.80"),
		ledger.SymbolXRP:  decimal.RequireFromString("2.45"),
		ledger.SymbolUSDC: decimal.RequireFromString("1.00"),
		ledger.SymbolADA:  decimal.RequireFromString("1.15"),
		ledger.SymbolAVAX: decimal.RequireFromString("48.20"),
		ledger.SymbolDOGE: decimal.RequireFromString("0.42"),
	}
}

type snapshot struct {
	rates  ledger.RateTable
	prices ledger.PriceTable
	at     time.Time
}

// Simulator is a random-walk market data feed. Every tick it perturbs each
// crypto price independently by up to ±volatility and publishes a fresh
// snapshot with an atomic pointer swap, so readers always see either the old
// or the new table in full. Fiat rates stay fixed. A real feed can replace it
// behind ledger.Feed without touching the engine.
type Simulator struct {
	interval   time.Duration
	volatility float64
	logger     *slog.Logger
	current    atomic.Pointer[snapshot]
}

func NewSimulator(interval time.Duration, volatility float64, logger *slog.Logger) *Simulator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if volatility <= 0 {
		volatility = DefaultVolatility
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Simulator{
		interval:   interval,
		volatility: volatility,
		logger:     logger,
	}
	s.current.Store(&snapshot{
		rates:  DefaultRates(),
		prices: DefaultPrices(),
		at:     time.Now(),
	})
	return s
}

// Rates returns the current fiat rate snapshot.
func (s *Simulator) Rates() ledger.RateTable {
	return maps.Clone(s.current.Load().rates)
}

// Prices returns the current crypto price snapshot.
func (s *Simulator) Prices() ledger.PriceTable {
	return maps.Clone(s.current.Load().prices)
}

// Run drifts prices on the configured cadence until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("price simulator started",
		slog.Duration("interval", s.interval),
		slog.Float64("volatility", s.volatility),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("price simulator stopped")
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Simulator) tick() {
	prev := s.current.Load()
	prices := make(ledger.PriceTable, len(prev.prices))
	for symbol, price := range prev.prices {
		// multiplicative change in (1-volatility, 1+volatility)
		change := 1 + (rand.Float64()*2-1)*s.volatility
		prices[symbol] = price.Mul(decimal.NewFromFloat(change))
	}
	s.current.Store(&snapshot{
		rates:  prev.rates,
		prices: prices,
		at:     time.Now(),
	})
	s.logger.Debug("prices updated", slog.Int("symbols", len(prices)))
}
