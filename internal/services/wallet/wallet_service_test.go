package wallet

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/repository/memstore"
)

func TestCreditFundi_IdempotentPerJob(t *testing.T) {
	store := memstore.New()
	svc := NewWalletService(store, nil)
	ctx := context.Background()
	fundiID, jobID := uuid.New(), uuid.New()

	entry, created, err := svc.CreditFundi(ctx, store, fundiID, 45000, jobID, "Fix kitchen sink")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.WalletTrxCredit, entry.Type)

	_, created, err = svc.CreditFundi(ctx, store, fundiID, 45000, jobID, "Fix kitchen sink")
	require.NoError(t, err)
	assert.False(t, created)

	_, _, err = svc.CreditFundi(ctx, store, fundiID, 20000, uuid.New(), "Paint gate")
	require.NoError(t, err)

	total, err := svc.Earnings(ctx, fundiID)
	require.NoError(t, err)
	assert.EqualValues(t, 65000, total)

	history, err := svc.History(ctx, fundiID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestCreditFundi_RejectsNonPositive(t *testing.T) {
	store := memstore.New()
	svc := NewWalletService(store, nil)

	_, _, err := svc.CreditFundi(context.Background(), store, uuid.New(), 0, uuid.New(), "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestEarnings_SubtractsDebits(t *testing.T) {
	store := memstore.New()
	svc := NewWalletService(store, nil)
	ctx := context.Background()
	fundiID := uuid.New()

	_, _, err := svc.CreditFundi(ctx, store, fundiID, 30000, uuid.New(), "Tiling")
	require.NoError(t, err)
	require.NoError(t, store.Wallet.Record(ctx, &models.WalletTransaction{
		UserID: fundiID, Amount: 5000, Type: models.WalletTrxDebit, Description: "Withdrawal",
	}))
	require.NoError(t, store.Wallet.Record(ctx, &models.WalletTransaction{
		UserID: fundiID, Amount: 9999, Type: models.WalletTrxRefund, Description: "Client refund",
	}))

	total, err := svc.Earnings(ctx, fundiID)
	require.NoError(t, err)
	assert.EqualValues(t, 25000, total)
}
