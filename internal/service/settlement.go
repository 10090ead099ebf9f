package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"launchpad/internal/models"
	"launchpad/internal/repository"
	"launchpad/internal/treasury"
)

// SettlementService closes ended sales: it disburses the raised payment and
// the unsold inventory to the owner exactly once.
type SettlementService struct {
	Repo       repository.Repository
	Treasury   Transferer
	Governance Governance
	Clock      Clock
	Logger     *zap.Logger
}

type SettlementResult struct {
	SaleID            uint64          `json:"sale_id"`
	Owner             string          `json:"owner"`
	RaisedPaid        decimal.Decimal `json:"raised_paid"`
	InventoryReturned decimal.Decimal `json:"inventory_returned"`
	SettledAt         time.Time       `json:"settled_at"`
}

// Settle disburses a sale's proceeds after its window has ended. The two
// transfers and the settled flag live in one transaction with the flag as the
// last write: a failed disbursement rolls everything back and leaves the call
// retryable. A repeat call fails with AlreadySettled.
func (s *SettlementService) Settle(ctx context.Context, saleID uint64, caller string) (*SettlementResult, error) {
	var result *SettlementResult
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		sale, err := s.Repo.GetSaleForUpdateTx(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return ErrSaleNotFound
		}
		if err := s.ownerOrGovernance(ctx, sale, caller); err != nil {
			return err
		}
		now := s.Clock.Now()
		if now.Unix() <= sale.EndTime {
			return ErrWindowNotEnded
		}
		if sale.Settled {
			return ErrAlreadySettled
		}

		if sale.TotalRaised.IsPositive() {
			if err := s.Treasury.Send(ctx, tx, sale.PaymentToken, treasury.EscrowAddress, sale.Owner, sale.TotalRaised); err != nil {
				return err
			}
		}
		leftover := sale.Remaining()
		if leftover.IsPositive() {
			if err := s.Treasury.Send(ctx, tx, sale.SaleToken, treasury.EscrowAddress, sale.Owner, leftover); err != nil {
				return err
			}
		}

		sale.Settled = true
		sale.SettledAt = &now
		if err := s.Repo.SaveSaleTx(ctx, tx, sale); err != nil {
			return err
		}
		result = &SettlementResult{
			SaleID:            saleID,
			Owner:             sale.Owner,
			RaisedPaid:        sale.TotalRaised,
			InventoryReturned: leftover,
			SettledAt:         now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("sale settled",
			zap.Uint64("sale_id", result.SaleID),
			zap.String("raised_paid", result.RaisedPaid.String()),
			zap.String("inventory_returned", result.InventoryReturned.String()),
		)
	}
	return result, nil
}

// RecordDeployment stores the address of a downstream entity deployed for a
// settled sale. It is reported-only bookkeeping: a failure here never rolls
// back a completed disbursement.
func (s *SettlementService) RecordDeployment(ctx context.Context, saleID uint64, caller, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return ErrInvalidAddress
	}
	return s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		sale, err := s.Repo.GetSaleForUpdateTx(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return ErrSaleNotFound
		}
		if err := s.ownerOrGovernance(ctx, sale, caller); err != nil {
			return err
		}
		if !sale.Settled {
			return ErrNotSettled
		}
		existing, err := s.Repo.GetDeploymentByAddress(ctx, address)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyDeployed
		}
		return s.Repo.CreateDeploymentTx(ctx, tx, &models.Deployment{
			Address: address,
			SaleID:  saleID,
		})
	})
}

func (s *SettlementService) ownerOrGovernance(ctx context.Context, sale *models.Sale, caller string) error {
	if caller == sale.Owner {
		return nil
	}
	allowed, err := s.Governance.IsCreator(ctx, caller)
	if err != nil {
		return governanceErr(err)
	}
	if !allowed {
		return ErrNotOwner
	}
	return nil
}
