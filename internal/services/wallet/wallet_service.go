package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/realtime"
	"github.com/Bla-nqo/fundiconnect-builder/internal/repository"
)

var ErrInvalidAmount = errors.New("amount to credit must be greater than zero")

type WalletService struct {
	Store *repository.Store
	Pub   realtime.Publisher
}

func NewWalletService(store *repository.Store, pub realtime.Publisher) *WalletService {
	return &WalletService{Store: store, Pub: pub}
}

// CreditFundi records job earnings for a fundi. It should be called within
// a Store transaction. Crediting the same job twice is a no-op and reports
// created=false.
func (s *WalletService) CreditFundi(ctx context.Context, tx *repository.Store, userID uuid.UUID, amount int64, referenceID uuid.UUID, description string) (entry *models.WalletTransaction, created bool, err error) {
	if amount <= 0 {
		return nil, false, ErrInvalidAmount
	}

	ledger := models.WalletTransaction{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Type:        models.WalletTrxCredit,
		Description: description,
		ReferenceID: &referenceID,
	}

	if err := tx.Wallet.Record(ctx, &ledger); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &ledger, true, nil
}

// Earnings is credits minus debits; refunds belong to clients and are not counted.
func (s *WalletService) Earnings(ctx context.Context, userID uuid.UUID) (int64, error) {
	credits, err := s.Store.Wallet.Sum(ctx, userID, models.WalletTrxCredit)
	if err != nil {
		return 0, err
	}
	debits, err := s.Store.Wallet.Sum(ctx, userID, models.WalletTrxDebit)
	if err != nil {
		return 0, err
	}
	return credits - debits, nil
}

func (s *WalletService) History(ctx context.Context, userID uuid.UUID) ([]models.WalletTransaction, error) {
	return s.Store.Wallet.ListByUser(ctx, userID)
}
