package wallet

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient balance")
)

type Service struct {
	db       *gorm.DB
	currency string
}

func NewService(db *gorm.DB, currency string) *Service {
	return &Service{db: db, currency: strings.ToLower(currency)}
}

func (s *Service) GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	wallet, err := s.getWalletByUserID(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	wallet = &Wallet{UserID: userID, Currency: s.currency}
	if err := s.db.WithContext(ctx).Create(wallet).Error; err != nil {
		if isUniqueConstraintError(err) {
			return s.getWalletByUserID(ctx, userID)
		}
		return nil, err
	}
	return wallet, nil
}

// Credit adds funds once per reference. A repeated reference returns the
// original entry and leaves the balance unchanged.
func (s *Service) Credit(ctx context.Context, userID uuid.UUID, amount int64, reference string) (*Transaction, error) {
	var txn *Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = s.CreditTx(tx, userID, amount, reference)
		return err
	})
	return txn, err
}

// CreditTx is Credit inside the caller's transaction.
func (s *Service) CreditTx(tx *gorm.DB, userID uuid.UUID, amount int64, reference string) (*Transaction, error) {
	return s.apply(tx, userID, amount, TransactionTypeCredit, reference)
}

// RefundTx takes a refunded amount back out of the user's wallet once per reference.
func (s *Service) RefundTx(tx *gorm.DB, userID uuid.UUID, amount int64, reference string) (*Transaction, error) {
	return s.apply(tx, userID, amount, TransactionTypeRefund, reference)
}

func (s *Service) Withdraw(ctx context.Context, userID uuid.UUID, amount int64) (*Wallet, *Transaction, error) {
	if amount <= 0 {
		return nil, nil, ErrInvalidAmount
	}

	var wallet Wallet
	var txn *Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = s.apply(tx, userID, amount, TransactionTypeWithdrawal, "")
		if err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).First(&wallet).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &wallet, txn, nil
}

func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error) {
	wallet, err := s.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var txns []Transaction
	if err := s.db.WithContext(ctx).
		Where("wallet_id = ?", wallet.ID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (s *Service) apply(tx *gorm.DB, userID uuid.UUID, amount int64, kind, reference string) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var wallet Wallet
	if err := s.getOrCreateWalletForUpdate(tx, userID, &wallet); err != nil {
		return nil, err
	}

	var ref *string
	if reference != "" {
		var existing Transaction
		err := tx.Where("reference = ?", reference).First(&existing).Error
		if err == nil {
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		ref = &reference
	}

	switch kind {
	case TransactionTypeCredit:
		wallet.Balance += amount
	default:
		if wallet.Balance < amount {
			return nil, ErrInsufficientFunds
		}
		wallet.Balance -= amount
	}
	if err := tx.Model(&Wallet{}).Where("id = ?", wallet.ID).Update("balance", wallet.Balance).Error; err != nil {
		return nil, err
	}

	txn := &Transaction{WalletID: wallet.ID, Amount: amount, Type: kind, Reference: ref}
	if err := tx.Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *Service) getWalletByUserID(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	var wallet Wallet
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (s *Service) getOrCreateWalletForUpdate(tx *gorm.DB, userID uuid.UUID, wallet *Wallet) error {
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(wallet).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		*wallet = Wallet{UserID: userID, Currency: s.currency}
		if err := tx.Create(wallet).Error; err != nil {
			if isUniqueConstraintError(err) {
				return tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(wallet).Error
			}
			return err
		}
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique failed")
}
