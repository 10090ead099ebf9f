package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Participation is a participant's cumulative allocation within one sale.
// Created lazily on first purchase; the amount never decreases. The table
// doubles as the buyer set per sale and the sale set per participant.
type Participation struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement"`
	SaleID      uint64          `gorm:"not null;uniqueIndex:idx_participations_sale_participant;index"`
	Participant string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_participations_sale_participant;index"`
	Amount      decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Participation) TableName() string {
	return "participations"
}

// WhitelistEntry marks a participant as approved for a KYC-enforced sale.
type WhitelistEntry struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	SaleID      uint64 `gorm:"not null;uniqueIndex:idx_whitelist_sale_participant;index"`
	Participant string `gorm:"type:varchar(100);not null;uniqueIndex:idx_whitelist_sale_participant"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (WhitelistEntry) TableName() string {
	return "whitelist_entries"
}
