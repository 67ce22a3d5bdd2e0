package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/ledger"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, "test:session:", time.Hour), s
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()
	sess := newTestSession()

	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ID != sess.ID || got.Owner != sess.Owner {
		t.Fatalf("session identity mismatch: %+v", got)
	}

	usd, _ := got.Ledger.FiatBalance(ledger.CurrencyUSD)
	if !usd.Equal(decimal.RequireFromString("15000.75")) {
		t.Fatalf("ledger did not survive serialization: %s", usd)
	}
	if len(got.Ledger.Crypto) != len(ledger.CryptoSymbols) {
		t.Fatalf("expected %d crypto accounts, got %d", len(ledger.CryptoSymbols), len(got.Ledger.Crypto))
	}
}

func TestRedisStoreSaveUpdatesLedger(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()
	sess := newTestSession()
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	sess.Ledger.Fiat[0].Balance = decimal.NewFromInt(1)
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, _ := store.Get(ctx, sess.ID)
	if !got.Ledger.Fiat[0].Balance.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("save did not persist, got %s", got.Ledger.Fiat[0].Balance)
	}
}

func TestRedisStoreSaveUnknownSession(t *testing.T) {
	store, _ := newRedisStore(t)
	if err := store.Save(context.Background(), newTestSession()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	sess := newTestSession()
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	mr.FastForward(2 * time.Hour)
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestRedisStoreDelete(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()
	sess := newTestSession()
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.Delete(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}
