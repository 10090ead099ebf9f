package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// SaleStatus is the derived lifecycle phase of a sale. It is never persisted;
// StatusAt recomputes it from the record and the current time on every read.
type SaleStatus string

const (
	SaleStatusPending SaleStatus = "pending"
	SaleStatusActive  SaleStatus = "active"
	SaleStatusEnded   SaleStatus = "ended"
	SaleStatusSettled SaleStatus = "settled"
)

// PriceScale is the fixed-point unit for Price. A price of 2_000_000 against a
// 6-decimal payment token sells one whole sale-token unit for 2.0 payment units.
var PriceScale = decimal.NewFromInt(1_000_000)

// Sale is one fixed-price token offering. Amounts of the sale token
// (inventory, totals, quotas) are counted in whole units; payment amounts are
// counted in payment-token base units.
type Sale struct {
	ID          uint64         `gorm:"primaryKey;autoIncrement"`
	Owner       string         `gorm:"type:varchar(100);not null;index"`
	KycEnforced bool           `gorm:"not null;default:false"`
	Metadata    datatypes.JSON `gorm:"type:jsonb"`

	// SaleToken stays claimed for the lifetime of the row, so the unique index
	// enforces one live sale per token. Cancellation deletes the row and frees
	// the token; settlement does not.
	SaleToken    string `gorm:"type:varchar(100);not null;uniqueIndex"`
	PaymentToken string `gorm:"type:varchar(100);not null;index"`

	// Price is payment base units per whole sale-token unit (see PriceScale).
	Price decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	// Inclusive bounds on a participant's cumulative allocation over the sale.
	MinBuyAmount decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	MaxBuyAmount decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	InventoryAmount decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	// Window bounds, inclusive, seconds since epoch.
	StartTime int64 `gorm:"not null;index"`
	EndTime   int64 `gorm:"not null;index"`

	TotalRaised decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	TotalSold   decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	Settled   bool       `gorm:"not null;default:false;index"`
	SettledAt *time.Time `gorm:"type:timestamptz"`

	// FeeToken is the governance-held parameter snapshotted at creation.
	FeeToken string `gorm:"type:varchar(100)"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Sale) TableName() string {
	return "sales"
}

// StatusAt derives the lifecycle phase from the record and now. It depends on
// nothing but (StartTime, EndTime, Settled, now).
func (s *Sale) StatusAt(now int64) SaleStatus {
	switch {
	case now < s.StartTime:
		return SaleStatusPending
	case now <= s.EndTime:
		return SaleStatusActive
	case s.Settled:
		return SaleStatusSettled
	default:
		return SaleStatusEnded
	}
}

// ActiveForPurchase reports whether a purchase may proceed at now: the window
// must be open and unsold inventory must remain. A sale can be time-active yet
// allocation-exhausted; StatusAt still reports it as active.
func (s *Sale) ActiveForPurchase(now int64) bool {
	return now >= s.StartTime && now <= s.EndTime && s.TotalSold.LessThan(s.InventoryAmount)
}

// Remaining is the unsold inventory.
func (s *Sale) Remaining() decimal.Decimal {
	return s.InventoryAmount.Sub(s.TotalSold)
}

// AllocationFor converts a payment amount into whole sale-token units at the
// sale's fixed price, truncating toward zero. The dust below one whole unit is
// kept by the payer and is not refunded; the full payment is still credited to
// TotalRaised.
func (s *Sale) AllocationFor(paymentAmount decimal.Decimal) decimal.Decimal {
	if s.Price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return paymentAmount.Div(s.Price).Floor()
}

// ParseStatus validates a status filter value from the API.
func ParseStatus(raw string) (SaleStatus, bool) {
	switch SaleStatus(raw) {
	case SaleStatusPending, SaleStatusActive, SaleStatusEnded, SaleStatusSettled:
		return SaleStatus(raw), true
	}
	return "", false
}
