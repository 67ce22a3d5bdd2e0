package journal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/ledger"
)

// PostgresJournal persists transaction history across restarts. The ledger
// itself stays session-scoped; only the applied-operation records are durable.
type PostgresJournal struct {
	pool *pgxpool.Pool
}

func NewPostgresJournal(pool *pgxpool.Pool) *PostgresJournal {
	return &PostgresJournal{pool: pool}
}

// EnsureSchema creates the transactions table when it does not exist yet.
func (j *PostgresJournal) EnsureSchema(ctx context.Context) error {
	_, err := j.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS bank_transactions (
			id UUID PRIMARY KEY,
			session_id UUID NOT NULL,
			kind TEXT NOT NULL,
			from_currency TEXT NOT NULL DEFAULT '',
			to_currency TEXT NOT NULL DEFAULT '',
			from_amount NUMERIC NOT NULL DEFAULT 0,
			to_amount NUMERIC NOT NULL DEFAULT 0,
			rate NUMERIC NOT NULL DEFAULT 0,
			symbol TEXT NOT NULL DEFAULT '',
			side TEXT NOT NULL DEFAULT '',
			amount_usd NUMERIC NOT NULL DEFAULT 0,
			crypto_amount NUMERIC NOT NULL DEFAULT 0,
			price NUMERIC NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS bank_transactions_session_idx
			ON bank_transactions (session_id, created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("ensure journal schema: %w", err)
	}
	return nil
}

func (j *PostgresJournal) Record(ctx context.Context, tx Transaction) error {
	_, err := j.pool.Exec(ctx, `
		INSERT INTO bank_transactions (
			id, session_id, kind,
			from_currency, to_currency, from_amount, to_amount, rate,
			symbol, side, amount_usd, crypto_amount, price,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		tx.ID, tx.SessionID, tx.Kind,
		string(tx.FromCurrency), string(tx.ToCurrency), tx.FromAmount, tx.ToAmount, tx.Rate,
		string(tx.Symbol), string(tx.Side), tx.AmountUSD, tx.CryptoAmount, tx.Price,
		tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (j *PostgresJournal) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]Transaction, error) {
	limit = normalizeLimit(limit)

	rows, err := j.pool.Query(ctx, `
		SELECT id, session_id, kind,
			from_currency, to_currency,
			from_amount::text, to_amount::text, rate::text,
			symbol, side,
			amount_usd::text, crypto_amount::text, price::text,
			created_at
		FROM bank_transactions
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var tx Transaction
	var fromCurrency, toCurrency, symbol, side string
	var fromAmount, toAmount, rate, amountUSD, cryptoAmount, price string

	if err := row.Scan(
		&tx.ID, &tx.SessionID, &tx.Kind,
		&fromCurrency, &toCurrency,
		&fromAmount, &toAmount, &rate,
		&symbol, &side,
		&amountUSD, &cryptoAmount, &price,
		&tx.CreatedAt,
	); err != nil {
		return Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	tx.FromCurrency = ledger.Currency(fromCurrency)
	tx.ToCurrency = ledger.Currency(toCurrency)
	tx.Symbol = ledger.CryptoSymbol(symbol)
	tx.Side = ledger.Side(side)

	for _, field := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&tx.FromAmount, fromAmount},
		{&tx.ToAmount, toAmount},
		{&tx.Rate, rate},
		{&tx.AmountUSD, amountUSD},
		{&tx.CryptoAmount, cryptoAmount},
		{&tx.Price, price},
	} {
		value, err := decimal.NewFromString(field.src)
		if err != nil {
			return Transaction{}, fmt.Errorf("parse transaction amount %q: %w", field.src, err)
		}
		*field.dst = value
	}

	return tx, nil
}
