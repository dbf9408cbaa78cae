package wallet_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starledger/internal/db"
	"starledger/internal/wallet"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	database, err := db.Connect(url)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(database, "../../migrations"))

	for _, table := range []string{"star_transactions", "star_accounts"} {
		_, err := database.Exec("DELETE FROM " + table)
		require.NoError(t, err, "Failed to clean table "+table)
	}
	return database
}

func TestPostgres_ConcurrentSpends_Integration(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()

	repo := wallet.NewPostgresRepository(database, 50)
	ctx := context.Background()

	_, err := repo.GetOrCreate(ctx, "acc-int")
	require.NoError(t, err)

	var ok, short int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := repo.Apply(ctx, wallet.Entry{
				AccountID: "acc-int", Kind: wallet.KindSpend, Amount: 1,
				Source: "props", Description: "one star",
			})
			if err == nil {
				atomic.AddInt64(&ok, 1)
			} else if assert.ErrorIs(t, err, wallet.ErrInsufficientBalance) {
				atomic.AddInt64(&short, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), ok)
	assert.Equal(t, int64(50), short)

	acc, err := repo.GetAccount(ctx, "acc-int")
	require.NoError(t, err)
	assert.Equal(t, int64(0), acc.Balance)

	mismatches, err := repo.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestPostgres_EarnSpendHistory_Integration(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()

	repo := wallet.NewPostgresRepository(database, 100)
	ctx := context.Background()

	_, _, err := repo.Apply(ctx, wallet.Entry{
		AccountID: "acc-hist", Kind: wallet.KindEarn, Amount: 10,
		Source: "daily_login", Description: "First login of the day",
		Metadata: wallet.Metadata{"device": "ios"}, IdempotencyKey: "login-1",
	})
	require.NoError(t, err)

	_, _, err = repo.Apply(ctx, wallet.Entry{
		AccountID: "acc-hist", Kind: wallet.KindEarn, Amount: 10,
		Source: "daily_login", Description: "First login of the day", IdempotencyKey: "login-1",
	})
	assert.ErrorIs(t, err, wallet.ErrDuplicateEntry)

	acc, _, err := repo.Apply(ctx, wallet.Entry{
		AccountID: "acc-hist", Kind: wallet.KindSpend, Amount: 30,
		Source: "props", Description: "buy music",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(80), acc.Balance)

	page, err := repo.ListTransactions(ctx, "acc-hist", 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Transactions, 2)
	assert.Equal(t, "buy music", page.Transactions[0].Description)
	assert.Equal(t, "ios", page.Transactions[1].Metadata["device"])
	assert.False(t, page.HasMore)
}
