package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	accountColumns = `account_id, balance, total_earned, total_spent, signup_grant, tx_count, created_at, updated_at`

	queryInsertAccount = `INSERT INTO star_accounts (account_id, balance, total_earned, signup_grant)
		VALUES ($1, $2, $2, $2)
		ON CONFLICT (account_id) DO NOTHING`

	querySelectAccount = `SELECT ` + accountColumns + `
		FROM star_accounts
		WHERE account_id = $1`

	querySelectAccountForUpdate = querySelectAccount + `
		FOR UPDATE`

	queryKeyExists = `SELECT EXISTS (
		SELECT 1 FROM star_transactions
		WHERE account_id = $1 AND idempotency_key = $2
	)`

	queryEarnedSince = `SELECT COALESCE(SUM(amount), 0)
		FROM star_transactions
		WHERE account_id = $1 AND kind = 'earn' AND source = $2 AND created_at >= $3`

	queryUpdateAccount = `UPDATE star_accounts
		SET balance = $1, total_earned = $2, total_spent = $3, tx_count = $4, updated_at = $5
		WHERE account_id = $6`

	queryInsertTransaction = `INSERT INTO star_transactions
		(id, account_id, seq, kind, amount, source, description, metadata, idempotency_key, balance_after, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	querySelectTransactions = `SELECT id, account_id, seq, kind, amount, source, description, metadata,
		COALESCE(idempotency_key, '') AS idempotency_key, balance_after, status, created_at
		FROM star_transactions
		WHERE account_id = $1
		ORDER BY seq DESC
		LIMIT $2 OFFSET $3`

	queryReconcile = `SELECT a.account_id, a.balance,
		a.signup_grant + COALESCE(SUM(CASE WHEN t.kind = 'earn' THEN t.amount ELSE -t.amount END), 0) AS ledger_balance
		FROM star_accounts a
		LEFT JOIN star_transactions t ON t.account_id = a.account_id
		GROUP BY a.account_id
		HAVING a.balance <> a.signup_grant + COALESCE(SUM(CASE WHEN t.kind = 'earn' THEN t.amount ELSE -t.amount END), 0)
		ORDER BY a.account_id`
)

// uniqueViolation is the postgres error code for a unique index conflict.
const uniqueViolation = "23505"

// PostgresRepository is the postgres-backed store. Per-account serialization
// comes from locking the account row for the life of the database transaction.
type PostgresRepository struct {
	db    *sqlx.DB
	grant int64
	now   func() time.Time
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db *sqlx.DB, signupGrant int64) *PostgresRepository {
	return &PostgresRepository{db: db, grant: signupGrant, now: time.Now}
}

func (r *PostgresRepository) GetOrCreate(ctx context.Context, accountID string) (*Account, error) {
	if accountID == "" {
		return nil, ErrInvalidEntry
	}
	if _, err := r.db.ExecContext(ctx, queryInsertAccount, accountID, r.grant); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	acc := &Account{}
	if err := r.db.GetContext(ctx, acc, querySelectAccount, accountID); err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return acc, nil
}

func (r *PostgresRepository) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	acc := &Account{}
	err := r.db.GetContext(ctx, acc, querySelectAccount, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return acc, nil
}

func (r *PostgresRepository) Apply(ctx context.Context, e Entry) (*Account, *Transaction, error) {
	if err := e.validate(); err != nil {
		return nil, nil, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, queryInsertAccount, e.AccountID, r.grant); err != nil {
		return nil, nil, fmt.Errorf("failed to create account: %w", err)
	}

	var acc Account
	if err := tx.QueryRowxContext(ctx, querySelectAccountForUpdate, e.AccountID).StructScan(&acc); err != nil {
		return nil, nil, fmt.Errorf("failed to lock account: %w", err)
	}

	if e.IdempotencyKey != "" {
		var exists bool
		if err := tx.GetContext(ctx, &exists, queryKeyExists, e.AccountID, e.IdempotencyKey); err != nil {
			return nil, nil, err
		}
		if exists {
			return nil, nil, ErrDuplicateEntry
		}
	}

	now := r.now().UTC()
	amount := e.Amount
	if e.Kind == KindEarn && e.DailyCap > 0 {
		var earned int64
		if err := tx.GetContext(ctx, &earned, queryEarnedSince, e.AccountID, e.Source, startOfDay(now)); err != nil {
			return nil, nil, err
		}
		if amount, err = clampToAllowance(amount, e.DailyCap, earned); err != nil {
			return nil, nil, err
		}
	}

	next, err := settle(acc, e.Kind, amount)
	if err != nil {
		return nil, nil, err
	}
	next.LastUpdated = now

	_, err = tx.ExecContext(ctx, queryUpdateAccount,
		next.Balance, next.TotalEarned, next.TotalSpent, next.TxCount, now, e.AccountID,
	)
	if err != nil {
		return nil, nil, err
	}

	t := &Transaction{
		ID:             uuid.NewString(),
		AccountID:      e.AccountID,
		Seq:            next.TxCount,
		Kind:           e.Kind,
		Amount:         amount,
		Source:         e.Source,
		Description:    e.Description,
		Metadata:       e.Metadata,
		IdempotencyKey: e.IdempotencyKey,
		BalanceAfter:   next.Balance,
		Status:         StatusCompleted,
		CreatedAt:      now,
	}
	_, err = tx.ExecContext(ctx, queryInsertTransaction,
		t.ID, t.AccountID, t.Seq, t.Kind, t.Amount, t.Source, t.Description,
		t.Metadata, nullString(t.IdempotencyKey), t.BalanceAfter, t.Status, t.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, nil, ErrDuplicateEntry
		}
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return &next, t, nil
}

func (r *PostgresRepository) ListTransactions(ctx context.Context, accountID string, limit, offset int) (*Page, error) {
	limit, offset = normalizePage(limit, offset)

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	page := &Page{Transactions: []Transaction{}}

	var acc Account
	err = tx.GetContext(ctx, &acc, querySelectAccount, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return page, tx.Commit()
	}
	if err != nil {
		return nil, err
	}
	page.Account = &acc
	page.Total = acc.TxCount

	if err := tx.SelectContext(ctx, &page.Transactions, querySelectTransactions, accountID, limit, offset); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	page.HasMore = int64(offset+limit) < page.Total
	return page, nil
}

func (r *PostgresRepository) Reconcile(ctx context.Context) ([]Mismatch, error) {
	var out []Mismatch
	if err := r.db.SelectContext(ctx, &out, queryReconcile); err != nil {
		return nil, err
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
