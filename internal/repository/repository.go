package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"launchpad/internal/models"
)

// ListSalesParams filters and paginates sale listings. All filters are
// optional and combine with AND. A status filter is evaluated against Now so
// the whole listing observes a single clock reading.
type ListSalesParams struct {
	Status       *models.SaleStatus
	Owner        *string
	PaymentToken *string
	CreatedSince *time.Time
	Now          int64
	OrderBy      string
	Asc          *bool
	Limit        int
	Offset       int
}

// RaisedAggregate is one row of the raised-by-payment-token view.
type RaisedAggregate struct {
	PaymentToken string          `json:"payment_token"`
	TotalRaised  decimal.Decimal `json:"total_raised"`
	Sales        int64           `json:"sales"`
}

// Repository is the durable store behind the registry, engine and settlement
// services. Methods with a Tx suffix run inside a caller-supplied transaction;
// mutating operations lock the sale row first so no two operations on the same
// sale interleave.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Sales.
	CreateSaleTx(ctx context.Context, tx *gorm.DB, sale *models.Sale) error
	SaveSaleTx(ctx context.Context, tx *gorm.DB, sale *models.Sale) error
	DeleteSaleTx(ctx context.Context, tx *gorm.DB, id uint64) error
	GetSale(ctx context.Context, id uint64) (*models.Sale, error)
	GetSaleForUpdateTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Sale, error)
	GetSaleBySaleToken(ctx context.Context, token string) (*models.Sale, error)
	ListSales(ctx context.Context, params ListSalesParams) ([]models.Sale, error)
	CountSales(ctx context.Context, params ListSalesParams) (int64, error)
	SumRaisedByPaymentToken(ctx context.Context) ([]RaisedAggregate, error)

	// Participations.
	GetParticipationTx(ctx context.Context, tx *gorm.DB, saleID uint64, participant string) (decimal.Decimal, error)
	AddParticipationTx(ctx context.Context, tx *gorm.DB, saleID uint64, participant string, amount decimal.Decimal) error
	ListParticipants(ctx context.Context, saleID uint64, limit, offset int) ([]models.Participation, error)
	ListSaleIDsByParticipant(ctx context.Context, participant string) ([]uint64, error)
	ClearParticipationsTx(ctx context.Context, tx *gorm.DB, saleID uint64) (int64, error)

	// Whitelist.
	AddWhitelistedTx(ctx context.Context, tx *gorm.DB, saleID uint64, participants []string) error
	RemoveWhitelistedTx(ctx context.Context, tx *gorm.DB, saleID uint64, participant string) error
	RemoveWhitelistBySaleTx(ctx context.Context, tx *gorm.DB, saleID uint64) error
	IsWhitelistedTx(ctx context.Context, tx *gorm.DB, saleID uint64, participant string) (bool, error)
	ListWhitelisted(ctx context.Context, saleID uint64, limit, offset int) ([]models.WhitelistEntry, error)

	// Deployments.
	CreateDeploymentTx(ctx context.Context, tx *gorm.DB, dep *models.Deployment) error
	GetDeploymentByAddress(ctx context.Context, address string) (*models.Deployment, error)
}
