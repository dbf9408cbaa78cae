package wallet

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Account is the star balance of one identity. Balance is always
// TotalEarned - TotalSpent; the signup grant is counted as earned.
type Account struct {
	AccountID   string    `db:"account_id" json:"account_id"`
	Balance     int64     `db:"balance" json:"balance"`
	TotalEarned int64     `db:"total_earned" json:"total_earned"`
	TotalSpent  int64     `db:"total_spent" json:"total_spent"`
	SignupGrant int64     `db:"signup_grant" json:"signup_grant"`
	TxCount     int64     `db:"tx_count" json:"transaction_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	LastUpdated time.Time `db:"updated_at" json:"last_updated"`
}

type Kind string

const (
	KindEarn  Kind = "earn"
	KindSpend Kind = "spend"
)

const StatusCompleted = "completed"

// Transaction is one immutable entry of the star log.
type Transaction struct {
	ID             string    `db:"id" json:"id"`
	AccountID      string    `db:"account_id" json:"account_id"`
	Seq            int64     `db:"seq" json:"seq"`
	Kind           Kind      `db:"kind" json:"type"`
	Amount         int64     `db:"amount" json:"amount"`
	Source         string    `db:"source" json:"source"`
	Description    string    `db:"description" json:"description"`
	Metadata       Metadata  `db:"metadata" json:"metadata,omitempty"`
	IdempotencyKey string    `db:"idempotency_key" json:"-"`
	BalanceAfter   int64     `db:"balance_after" json:"balance_after"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"timestamp"`
}

// Entry is a requested balance change, applied atomically by Repository.Apply.
type Entry struct {
	AccountID      string
	Kind           Kind
	Amount         int64
	Source         string
	Description    string
	Metadata       Metadata
	IdempotencyKey string

	// DailyCap, when positive, bounds the total earned from Source by the
	// account during the current UTC day. Amount is clamped to what remains.
	DailyCap int64
}

func (e Entry) validate() error {
	if e.AccountID == "" {
		return ErrInvalidEntry
	}
	switch e.Kind {
	case KindEarn:
		if e.Amount < 0 {
			return ErrInvalidEntry
		}
	case KindSpend:
		if e.Amount <= 0 {
			return ErrInvalidEntry
		}
	default:
		return ErrInvalidEntry
	}
	return nil
}

// Page is a slice of an account's log, most recent first, read from the
// same snapshot as Account. Account is nil when the identity is unknown.
type Page struct {
	Account      *Account
	Transactions []Transaction
	Total        int64
	HasMore      bool
}

// Mismatch reports an account whose cached balance disagrees with its log.
type Mismatch struct {
	AccountID     string `db:"account_id" json:"account_id"`
	CachedBalance int64  `db:"balance" json:"cached_balance"`
	LedgerBalance int64  `db:"ledger_balance" json:"ledger_balance"`
}

// Metadata is an opaque bag stored as JSONB.
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported metadata type")
	}
	if len(data) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(data, m)
}

func (m Metadata) clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, mo, d := t.UTC().Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
