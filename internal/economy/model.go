package economy

import (
	"time"

	"starledger/internal/wallet"
)

type EarnRequest struct {
	AccountID      string
	Action         string
	Amount         *int64
	Metadata       wallet.Metadata
	IdempotencyKey string
}

type EarnResult struct {
	AppliedAmount int64              `json:"amount"`
	NewBalance    int64              `json:"newBalance"`
	Transaction   wallet.Transaction `json:"transaction"`
}

type SpendRequest struct {
	AccountID      string
	Amount         int64
	Purpose        string
	Description    string
	Metadata       wallet.Metadata
	IdempotencyKey string
}

type SpendResult struct {
	NewBalance  int64              `json:"newBalance"`
	Transaction wallet.Transaction `json:"transaction"`
}

type Balance struct {
	Balance     int64     `json:"balance"`
	TotalEarned int64     `json:"totalEarned"`
	TotalSpent  int64     `json:"totalSpent"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type TransactionPage struct {
	Transactions []wallet.Transaction `json:"transactions"`
	Total        int64                `json:"total"`
	HasMore      bool                 `json:"hasMore"`
}
