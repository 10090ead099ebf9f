package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"launchpad/internal/models"
	"launchpad/internal/repository"
)

// QueryService is the read-only surface over the registry. Status is derived
// per request from one clock reading, never read back from storage.
type QueryService struct {
	Repo  repository.Repository
	Clock Clock
}

// SaleView is a sale record with its derived status and remaining inventory.
type SaleView struct {
	ID              uint64            `json:"id"`
	Owner           string            `json:"owner"`
	KycEnforced     bool              `json:"kyc_enforced"`
	Metadata        datatypes.JSON    `json:"metadata,omitempty"`
	SaleToken       string            `json:"sale_token"`
	PaymentToken    string            `json:"payment_token"`
	Price           decimal.Decimal   `json:"price"`
	MinBuyAmount    decimal.Decimal   `json:"min_buy_amount"`
	MaxBuyAmount    decimal.Decimal   `json:"max_buy_amount"`
	InventoryAmount decimal.Decimal   `json:"inventory_amount"`
	StartTime       int64             `json:"start_time"`
	EndTime         int64             `json:"end_time"`
	TotalRaised     decimal.Decimal   `json:"total_raised"`
	TotalSold       decimal.Decimal   `json:"total_sold"`
	Remaining       decimal.Decimal   `json:"remaining"`
	Settled         bool              `json:"settled"`
	SettledAt       *time.Time        `json:"settled_at,omitempty"`
	FeeToken        string            `json:"fee_token,omitempty"`
	Status          models.SaleStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
}

func viewOf(sale *models.Sale, now int64) SaleView {
	return SaleView{
		ID:              sale.ID,
		Owner:           sale.Owner,
		KycEnforced:     sale.KycEnforced,
		Metadata:        sale.Metadata,
		SaleToken:       sale.SaleToken,
		PaymentToken:    sale.PaymentToken,
		Price:           sale.Price,
		MinBuyAmount:    sale.MinBuyAmount,
		MaxBuyAmount:    sale.MaxBuyAmount,
		InventoryAmount: sale.InventoryAmount,
		StartTime:       sale.StartTime,
		EndTime:         sale.EndTime,
		TotalRaised:     sale.TotalRaised,
		TotalSold:       sale.TotalSold,
		Remaining:       sale.Remaining(),
		Settled:         sale.Settled,
		SettledAt:       sale.SettledAt,
		FeeToken:        sale.FeeToken,
		Status:          sale.StatusAt(now),
		CreatedAt:       sale.CreatedAt,
	}
}

// ListOptions are the optional filters of the sale listing views.
type ListOptions struct {
	Status       *models.SaleStatus
	Owner        *string
	PaymentToken *string
	Since        *time.Time
	OrderBy      string
	Asc          *bool
	Limit        int
	Offset       int
}

func (q *QueryService) GetSale(ctx context.Context, id uint64) (*SaleView, error) {
	sale, err := q.Repo.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, ErrSaleNotFound
	}
	view := viewOf(sale, q.Clock.Now().Unix())
	return &view, nil
}

// ListSales returns a filtered page of sales and the total count for that
// filter. An empty registry yields an empty page, not an error.
func (q *QueryService) ListSales(ctx context.Context, opts ListOptions) ([]SaleView, int64, error) {
	now := q.Clock.Now().Unix()
	params := repository.ListSalesParams{
		Status:       opts.Status,
		Owner:        opts.Owner,
		PaymentToken: opts.PaymentToken,
		CreatedSince: opts.Since,
		Now:          now,
		OrderBy:      opts.OrderBy,
		Asc:          opts.Asc,
		Limit:        opts.Limit,
		Offset:       opts.Offset,
	}
	sales, err := q.Repo.ListSales(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := q.Repo.CountSales(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	views := make([]SaleView, 0, len(sales))
	for i := range sales {
		views = append(views, viewOf(&sales[i], now))
	}
	return views, total, nil
}

// ListEndedUnsettled lists sales whose window closed without settlement yet;
// the cron sweep and operators use it to chase pending disbursements.
func (q *QueryService) ListEndedUnsettled(ctx context.Context, limit, offset int) ([]SaleView, int64, error) {
	status := models.SaleStatusEnded
	return q.ListSales(ctx, ListOptions{Status: &status, Limit: limit, Offset: offset})
}

// ListByParticipant returns every sale the participant has bought into.
func (q *QueryService) ListByParticipant(ctx context.Context, participant string) ([]SaleView, error) {
	ids, err := q.Repo.ListSaleIDsByParticipant(ctx, participant)
	if err != nil {
		return nil, err
	}
	now := q.Clock.Now().Unix()
	views := make([]SaleView, 0, len(ids))
	for _, id := range ids {
		sale, err := q.Repo.GetSale(ctx, id)
		if err != nil {
			return nil, err
		}
		if sale == nil {
			continue
		}
		views = append(views, viewOf(sale, now))
	}
	return views, nil
}

// RaisedByPaymentToken aggregates total_raised across all sales grouped by
// payment token, regardless of status.
func (q *QueryService) RaisedByPaymentToken(ctx context.Context) ([]repository.RaisedAggregate, error) {
	return q.Repo.SumRaisedByPaymentToken(ctx)
}

// IsTokenLaunched reports whether a live sale currently claims the token.
func (q *QueryService) IsTokenLaunched(ctx context.Context, token string) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return false, nil
	}
	sale, err := q.Repo.GetSaleBySaleToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return false, err
	}
	return sale != nil, nil
}

func (q *QueryService) Participants(ctx context.Context, saleID uint64, limit, offset int) ([]models.Participation, error) {
	sale, err := q.Repo.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, ErrSaleNotFound
	}
	return q.Repo.ListParticipants(ctx, saleID, limit, offset)
}

func (q *QueryService) Whitelist(ctx context.Context, saleID uint64, limit, offset int) ([]models.WhitelistEntry, error) {
	sale, err := q.Repo.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, ErrSaleNotFound
	}
	return q.Repo.ListWhitelisted(ctx, saleID, limit, offset)
}
