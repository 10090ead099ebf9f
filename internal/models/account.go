package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a treasury balance for one (token, address) pair. The escrow
// address holds deposited inventory and raised payments until settlement.
type Account struct {
	ID      uint64          `gorm:"primaryKey;autoIncrement"`
	Token   string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_accounts_token_address"`
	Address string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_accounts_token_address;index"`
	Balance decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Account) TableName() string {
	return "accounts"
}

// Deployment records the address of a downstream entity deployed for a
// settled sale. Writing it is the only mutation allowed after settlement.
type Deployment struct {
	Address   string    `gorm:"primaryKey;type:varchar(100)"`
	SaleID    uint64    `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (Deployment) TableName() string {
	return "deployments"
}
