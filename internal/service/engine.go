package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"launchpad/internal/repository"
	"launchpad/internal/treasury"
)

// EngineService executes purchases against a sale. Buy is the one operation
// public participants can invoke, so it carries the full precondition ladder.
type EngineService struct {
	Repo     repository.Repository
	Treasury Transferer
	Clock    Clock
	Logger   *zap.Logger
}

// PurchaseResult reports the outcome of an accepted purchase.
type PurchaseResult struct {
	SaleID        uint64          `json:"sale_id"`
	Participant   string          `json:"participant"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	TokenAmount   decimal.Decimal `json:"token_amount"`
	Cumulative    decimal.Decimal `json:"cumulative"`
}

// Buy allocates sale tokens to the participant at the sale's fixed price.
// Preconditions are checked in a fixed order, each with its own rejection;
// nothing is applied unless all of them hold. The payment moves to escrow and
// the allocation moves to the participant in the same transaction that updates
// the totals, so the operation commits or aborts as a whole.
//
// Allocation truncates toward zero; the dust below one whole sale-token unit
// stays with the payer and is not refunded, while the full payment is still
// credited to total_raised.
func (e *EngineService) Buy(ctx context.Context, saleID uint64, participant string, paymentAmount decimal.Decimal, paymentToken string) (*PurchaseResult, error) {
	if !paymentAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	var result *PurchaseResult
	err := e.Repo.InTx(ctx, func(tx *gorm.DB) error {
		sale, err := e.Repo.GetSaleForUpdateTx(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return ErrSaleNotFound
		}
		now := e.Clock.Now().Unix()
		if !sale.ActiveForPurchase(now) {
			return ErrSaleInactive
		}
		if paymentToken != sale.PaymentToken {
			return fmt.Errorf("%w: sale accepts %s", ErrWrongToken, sale.PaymentToken)
		}
		if sale.KycEnforced {
			ok, err := e.Repo.IsWhitelistedTx(ctx, tx, saleID, participant)
			if err != nil {
				return err
			}
			if !ok {
				return ErrNotWhitelisted
			}
		}

		tokenAmount := sale.AllocationFor(paymentAmount)
		prior, err := e.Repo.GetParticipationTx(ctx, tx, saleID, participant)
		if err != nil {
			return err
		}
		cumulative := prior.Add(tokenAmount)
		if cumulative.LessThan(sale.MinBuyAmount) {
			return fmt.Errorf("%w: cumulative %s, minimum %s",
				ErrBelowMinimum, cumulative.String(), sale.MinBuyAmount.String())
		}
		if cumulative.GreaterThan(sale.MaxBuyAmount) {
			return fmt.Errorf("%w: cumulative %s, maximum %s",
				ErrAboveMaximum, cumulative.String(), sale.MaxBuyAmount.String())
		}
		if sale.TotalSold.Add(tokenAmount).GreaterThan(sale.InventoryAmount) {
			return fmt.Errorf("%w: %s left", ErrInsufficientInventory, sale.Remaining().String())
		}

		if err := e.Treasury.Send(ctx, tx, sale.PaymentToken, participant, treasury.EscrowAddress, paymentAmount); err != nil {
			return err
		}
		if err := e.Treasury.Send(ctx, tx, sale.SaleToken, treasury.EscrowAddress, participant, tokenAmount); err != nil {
			return err
		}

		sale.TotalRaised = sale.TotalRaised.Add(paymentAmount)
		sale.TotalSold = sale.TotalSold.Add(tokenAmount)
		if err := e.Repo.SaveSaleTx(ctx, tx, sale); err != nil {
			return err
		}
		if err := e.Repo.AddParticipationTx(ctx, tx, saleID, participant, tokenAmount); err != nil {
			return err
		}
		result = &PurchaseResult{
			SaleID:        saleID,
			Participant:   participant,
			PaymentAmount: paymentAmount,
			TokenAmount:   tokenAmount,
			Cumulative:    cumulative,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if e.Logger != nil {
		e.Logger.Info("purchase accepted",
			zap.Uint64("sale_id", result.SaleID),
			zap.String("participant", result.Participant),
			zap.String("payment_amount", result.PaymentAmount.String()),
			zap.String("token_amount", result.TokenAmount.String()),
		)
	}
	return result, nil
}

// Eligible is the eligibility-gate predicate for read views: whitelisting only
// binds when the sale enforces KYC.
func (e *EngineService) Eligible(ctx context.Context, saleID uint64, participant string) (bool, error) {
	sale, err := e.Repo.GetSale(ctx, saleID)
	if err != nil {
		return false, err
	}
	if sale == nil {
		return false, ErrSaleNotFound
	}
	if !sale.KycEnforced {
		return true, nil
	}
	return e.Repo.IsWhitelistedTx(ctx, nil, saleID, participant)
}
