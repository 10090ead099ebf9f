package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"launchpad/internal/models"
	"launchpad/internal/repository"
	"launchpad/internal/treasury"
)

// Top-up window policies. The conservative default accepts inventory until the
// window ends; the strict variant only before it opens.
const (
	TopUpBeforeEnd   = "before_end"
	TopUpBeforeStart = "before_start"
)

// RegistryService owns the sale collection: creation, inventory top-up,
// cancellation and the per-sale whitelist.
type RegistryService struct {
	Repo        repository.Repository
	Treasury    Transferer
	Governance  Governance
	Clock       Clock
	Logger      *zap.Logger
	TopUpPolicy string
}

type CreateSaleParams struct {
	Caller       string
	Owner        string
	KycEnforced  bool
	Metadata     datatypes.JSON
	SaleToken    string
	PaymentToken string
	Price        decimal.Decimal
	MinBuyAmount decimal.Decimal
	MaxBuyAmount decimal.Decimal
	StartTime    int64
	EndTime      int64

	// InitialInventory, when positive, is escrowed from the owner atomically
	// with creation. Inventory can also arrive later through TopUp.
	InitialInventory decimal.Decimal
}

// Create validates and stores a new sale. The governance collaborator gates
// who may create; a failed governance call aborts activation.
func (s *RegistryService) Create(ctx context.Context, p CreateSaleParams) (*models.Sale, error) {
	allowed, err := s.Governance.IsCreator(ctx, p.Caller)
	if err != nil {
		return nil, governanceErr(err)
	}
	if !allowed {
		return nil, ErrNotAuthorized
	}
	feeToken, err := s.Governance.FeeToken(ctx)
	if err != nil {
		return nil, governanceErr(err)
	}

	if !p.Price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	if p.MinBuyAmount.IsNegative() || p.MinBuyAmount.GreaterThan(p.MaxBuyAmount) {
		return nil, ErrInvalidQuota
	}
	now := s.Clock.Now().Unix()
	if p.StartTime <= now || p.EndTime <= p.StartTime {
		return nil, ErrInvalidWindow
	}
	if p.InitialInventory.IsNegative() {
		return nil, ErrInvalidAmount
	}

	// The unique index on sale_token backstops this check against concurrent
	// creates; the pre-check exists to return the right error kind.
	existing, err := s.Repo.GetSaleBySaleToken(ctx, p.SaleToken)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrTokenAlreadyLaunched
	}

	sale := &models.Sale{
		Owner:           p.Owner,
		KycEnforced:     p.KycEnforced,
		Metadata:        p.Metadata,
		SaleToken:       p.SaleToken,
		PaymentToken:    p.PaymentToken,
		Price:           p.Price,
		MinBuyAmount:    p.MinBuyAmount,
		MaxBuyAmount:    p.MaxBuyAmount,
		InventoryAmount: p.InitialInventory,
		StartTime:       p.StartTime,
		EndTime:         p.EndTime,
		TotalRaised:     decimal.Zero,
		TotalSold:       decimal.Zero,
		FeeToken:        feeToken,
	}
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if p.InitialInventory.IsPositive() {
			if err := s.Treasury.Send(ctx, tx, p.SaleToken, p.Owner, treasury.EscrowAddress, p.InitialInventory); err != nil {
				return err
			}
		}
		return s.Repo.CreateSaleTx(ctx, tx, sale)
	})
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("sale created",
			zap.Uint64("sale_id", sale.ID),
			zap.String("owner", sale.Owner),
			zap.String("sale_token", sale.SaleToken),
			zap.String("payment_token", sale.PaymentToken),
		)
	}
	return sale, nil
}

// TopUp escrows more inventory from the owner. The accepted window depends on
// the configured policy; the default allows top-ups until end_time.
func (s *RegistryService) TopUp(ctx context.Context, saleID uint64, caller, token string, amount decimal.Decimal) (*models.Sale, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	var sale *models.Sale
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		var err error
		sale, err = s.Repo.GetSaleForUpdateTx(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return ErrSaleNotFound
		}
		if caller != sale.Owner {
			return ErrNotOwner
		}
		now := s.Clock.Now().Unix()
		if now > sale.EndTime {
			return ErrWindowClosed
		}
		if s.TopUpPolicy == TopUpBeforeStart && now >= sale.StartTime {
			return ErrWindowClosed
		}
		if token != sale.SaleToken {
			return ErrWrongToken
		}
		if err := s.Treasury.Send(ctx, tx, sale.SaleToken, sale.Owner, treasury.EscrowAddress, amount); err != nil {
			return err
		}
		sale.InventoryAmount = sale.InventoryAmount.Add(amount)
		return s.Repo.SaveSaleTx(ctx, tx, sale)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// Cancel removes a sale that has sold nothing, refunds its escrowed inventory
// to the owner and frees the token for a new launch. Owner or governance only.
func (s *RegistryService) Cancel(ctx context.Context, saleID uint64, caller string) error {
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
		if sale.TotalSold.IsPositive() {
			return ErrCannotCancelAfterSale
		}
		if sale.InventoryAmount.IsPositive() {
			if err := s.Treasury.Send(ctx, tx, sale.SaleToken, treasury.EscrowAddress, sale.Owner, sale.InventoryAmount); err != nil {
				return err
			}
		}
		if err := s.Repo.RemoveWhitelistBySaleTx(ctx, tx, saleID); err != nil {
			return err
		}
		return s.Repo.DeleteSaleTx(ctx, tx, saleID)
	})
	if err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("sale cancelled", zap.Uint64("sale_id", saleID))
	}
	return nil
}

// WhitelistAdd approves participants for a KYC-enforced sale. Adding the same
// address twice has no extra effect.
func (s *RegistryService) WhitelistAdd(ctx context.Context, saleID uint64, caller string, participants []string) error {
	return s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		sale, err := s.Repo.GetSaleForUpdateTx(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return ErrSaleNotFound
		}
		if caller != sale.Owner {
			return ErrNotOwner
		}
		return s.Repo.AddWhitelistedTx(ctx, tx, saleID, participants)
	})
}

// WhitelistRemove withdraws a previously granted approval.
func (s *RegistryService) WhitelistRemove(ctx context.Context, saleID uint64, caller, participant string) error {
	return s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		sale, err := s.Repo.GetSaleForUpdateTx(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return ErrSaleNotFound
		}
		if caller != sale.Owner {
			return ErrNotOwner
		}
		return s.Repo.RemoveWhitelistedTx(ctx, tx, saleID, participant)
	})
}

// ClearParticipations is the administrative bulk-clear of a sale's
// participation records. Governance-gated.
func (s *RegistryService) ClearParticipations(ctx context.Context, saleID uint64, caller string) (int64, error) {
	allowed, err := s.Governance.IsCreator(ctx, caller)
	if err != nil {
		return 0, governanceErr(err)
	}
	if !allowed {
		return 0, ErrNotAuthorized
	}
	var cleared int64
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		sale, err := s.Repo.GetSaleForUpdateTx(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return ErrSaleNotFound
		}
		cleared, err = s.Repo.ClearParticipationsTx(ctx, tx, saleID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return cleared, nil
}

func (s *RegistryService) ownerOrGovernance(ctx context.Context, sale *models.Sale, caller string) error {
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
