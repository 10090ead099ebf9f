package treasury

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"launchpad/internal/models"
)

// EscrowAddress holds deposited inventory and raised payments until the sale
// is settled, cancelled or bought out.
const EscrowAddress = "launchpad:escrow"

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBadTransfer         = errors.New("invalid transfer")
)

// Store moves token balances between accounts. Send runs inside the caller's
// transaction so a purchase or settlement either fully commits or leaves every
// balance untouched.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Send transfers amount of token from one address to another. Zero amounts are
// a no-op; negative amounts and blank addresses are rejected. The source row
// is locked before the balance check.
func (s *Store) Send(ctx context.Context, tx *gorm.DB, token, from, to string, amount decimal.Decimal) error {
	if tx == nil {
		return nil
	}
	token = strings.TrimSpace(token)
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if token == "" || from == "" || to == "" || from == to {
		return ErrBadTransfer
	}
	if amount.IsNegative() {
		return ErrBadTransfer
	}
	if amount.IsZero() {
		return nil
	}

	var src models.Account
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("token = ? AND address = ?", token, from).
		First(&src).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s has no %s", ErrInsufficientBalance, from, token)
	}
	if err != nil {
		return err
	}
	if src.Balance.LessThan(amount) {
		return fmt.Errorf("%w: %s holds %s %s, needs %s",
			ErrInsufficientBalance, from, src.Balance.String(), token, amount.String())
	}

	res := tx.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", src.ID).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	return credit(ctx, tx, token, to, amount)
}

// Credit adds amount of token to an address, creating the account row if it
// does not exist. This is the deposit hook for funds arriving from outside.
func (s *Store) Credit(ctx context.Context, token, address string, amount decimal.Decimal) error {
	if s == nil || s.db == nil {
		return nil
	}
	token = strings.TrimSpace(token)
	address = strings.TrimSpace(address)
	if token == "" || address == "" || !amount.IsPositive() {
		return ErrBadTransfer
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return credit(ctx, tx, token, address, amount)
	})
}

// Balance reports an address's holding of a token; missing accounts read as zero.
func (s *Store) Balance(ctx context.Context, token, address string) (decimal.Decimal, error) {
	if s == nil || s.db == nil {
		return decimal.Zero, nil
	}
	var acct models.Account
	err := s.db.WithContext(ctx).
		Where("token = ? AND address = ?", strings.TrimSpace(token), strings.TrimSpace(address)).
		First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return acct.Balance, nil
}

func credit(ctx context.Context, tx *gorm.DB, token, address string, amount decimal.Decimal) error {
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "token"}, {Name: "address"}},
		DoUpdates: clause.Assignments(map[string]any{
			"balance":    gorm.Expr("accounts.balance + ?", amount),
			"updated_at": gorm.Expr("NOW()"),
		}),
	}).Create(&models.Account{
		Token:   token,
		Address: address,
		Balance: amount,
	}).Error
}
