package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/journal"
	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/ledger"
	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/session"
)

// ErrSessionNotFound is returned for operations against an unknown or
// expired session.
var ErrSessionNotFound = errors.New("session not found")

const defaultOwnerName = "Alex Doe"

// TransactionPublisher emits events for applied operations. May be nil-safe.
type TransactionPublisher interface {
	Publish(ctx context.Context, tx journal.Transaction) error
}

// BankService owns the session lifecycle and runs ledger operations. One
// ledger belongs to exactly one session; mutations on a session are
// serialized through a per-session mutex, so an operation always sees a
// settled ledger. The price feed is never behind that lock.
type BankService struct {
	sessions session.Store
	journal  journal.Journal
	engine   *ledger.Engine
	feed     ledger.Feed
	events   TransactionPublisher
	logger   *slog.Logger
	metrics  *Metrics

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewBankService(
	sessions session.Store,
	txJournal journal.Journal,
	feed ledger.Feed,
	events TransactionPublisher,
	logger *slog.Logger,
	metrics *Metrics,
) *BankService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BankService{
		sessions: sessions,
		journal:  txJournal,
		engine:   ledger.NewEngine(feed),
		feed:     feed,
		events:   events,
		logger:   logger,
		metrics:  metrics,
		locks:    map[uuid.UUID]*sync.Mutex{},
	}
}

// Login opens a session with a freshly seeded ledger. Authentication always
// succeeds in this demo; an empty display name falls back to the demo user.
func (s *BankService) Login(ctx context.Context, name string) (*session.Session, error) {
	if name == "" {
		name = defaultOwnerName
	}

	now := time.Now().UTC()
	sess := &session.Session{
		ID:        uuid.New(),
		Owner:     name,
		Ledger:    ledger.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.SessionsOpened.Inc()
	}
	s.logger.Info("session opened", "session_id", sess.ID.String(), "owner", name)
	return sess, nil
}

// Logout discards the session and its ledger.
func (s *BankService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	s.mu.Lock()
	delete(s.locks, sessionID)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SessionsClosed.Inc()
	}
	s.logger.Info("session closed", "session_id", sessionID.String())
	return nil
}

// Portfolio is a session's holdings valued at the current snapshot.
type Portfolio struct {
	Owner     string           `json:"owner"`
	Ledger    *ledger.Ledger   `json:"ledger"`
	Valuation ledger.Valuation `json:"valuation"`
	AsOf      time.Time        `json:"as_of"`
}

func (s *BankService) Portfolio(ctx context.Context, sessionID uuid.UUID) (*Portfolio, error) {
	sess, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	valuation, err := s.engine.Value(sess.Ledger)
	if err != nil {
		return nil, err
	}

	return &Portfolio{
		Owner:     sess.Owner,
		Ledger:    sess.Ledger,
		Valuation: valuation,
		AsOf:      time.Now().UTC(),
	}, nil
}

func (s *BankService) Transactions(ctx context.Context, sessionID uuid.UUID, limit int) ([]journal.Transaction, error) {
	if _, err := s.getSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.journal.ListBySession(ctx, sessionID, limit)
}

func (s *BankService) Rates() ledger.RateTable {
	return s.feed.Rates()
}

func (s *BankService) Prices() ledger.PriceTable {
	return s.feed.Prices()
}

// Exchange converts between two fiat currencies within a session's ledger.
func (s *BankService) Exchange(ctx context.Context, sessionID uuid.UUID, from, to ledger.Currency, amount decimal.Decimal) (*session.Session, *journal.Transaction, error) {
	start := time.Now()
	defer s.observeDuration("exchange", start)

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.getSession(ctx, sessionID)
	if err != nil {
		s.countExchange("error")
		return nil, nil, err
	}

	res, err := s.engine.Exchange(sess.Ledger, from, to, amount)
	if err != nil {
		s.countExchange("rejected")
		return nil, nil, err
	}

	sess.Ledger = res.Ledger
	sess.UpdatedAt = time.Now().UTC()
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.countExchange("error")
		return nil, nil, err
	}

	tx := journal.Transaction{
		ID:           uuid.New(),
		SessionID:    sessionID,
		Kind:         journal.KindExchange,
		FromCurrency: res.FromCurrency,
		ToCurrency:   res.ToCurrency,
		FromAmount:   res.FromAmount,
		ToAmount:     res.ToAmount,
		Rate:         res.Rate,
		CreatedAt:    sess.UpdatedAt,
	}
	s.record(ctx, tx)

	s.countExchange("success")
	s.logger.Info("exchange applied",
		"session_id", sessionID.String(),
		"from", string(from),
		"to", string(to),
		"amount", amount.String(),
	)
	return sess, &tx, nil
}

// TradeCrypto buys or sells a crypto asset within a session's ledger, priced
// at submit time.
func (s *BankService) TradeCrypto(ctx context.Context, sessionID uuid.UUID, symbol ledger.CryptoSymbol, side ledger.Side, amountUSD decimal.Decimal) (*session.Session, *journal.Transaction, error) {
	start := time.Now()
	defer s.observeDuration("trade_crypto", start)

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.getSession(ctx, sessionID)
	if err != nil {
		s.countTrade(side, "error")
		return nil, nil, err
	}

	res, err := s.engine.TradeCrypto(sess.Ledger, symbol, side, amountUSD)
	if err != nil {
		s.countTrade(side, "rejected")
		return nil, nil, err
	}

	sess.Ledger = res.Ledger
	sess.UpdatedAt = time.Now().UTC()
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.countTrade(side, "error")
		return nil, nil, err
	}

	tx := journal.Transaction{
		ID:           uuid.New(),
		SessionID:    sessionID,
		Kind:         journal.KindCryptoTrade,
		Symbol:       res.Symbol,
		Side:         res.Side,
		AmountUSD:    res.AmountUSD,
		CryptoAmount: res.CryptoAmount,
		Price:        res.Price,
		CreatedAt:    sess.UpdatedAt,
	}
	s.record(ctx, tx)

	s.countTrade(side, "success")
	s.logger.Info("crypto trade applied",
		"session_id", sessionID.String(),
		"symbol", string(symbol),
		"side", string(side),
		"amount_usd", amountUSD.String(),
	)
	return sess, &tx, nil
}

func (s *BankService) getSession(ctx context.Context, sessionID uuid.UUID) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return sess, nil
}

// record persists history and emits the event. The ledger update has already
// been applied; failures here are logged, not surfaced.
func (s *BankService) record(ctx context.Context, tx journal.Transaction) {
	if err := s.journal.Record(ctx, tx); err != nil {
		s.logger.Error("journal record failed", "transaction_id", tx.ID.String(), "error", err)
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, tx); err != nil {
			s.logger.Error("transaction event publish failed", "transaction_id", tx.ID.String(), "error", err)
		}
	}
}

func (s *BankService) sessionLock(sessionID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

func (s *BankService) observeDuration(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

func (s *BankService) countExchange(status string) {
	if s.metrics != nil {
		s.metrics.ExchangesTotal.WithLabelValues(status).Inc()
	}
}

func (s *BankService) countTrade(side ledger.Side, status string) {
	if s.metrics != nil {
		s.metrics.TradesTotal.WithLabelValues(string(side), status).Inc()
	}
}
