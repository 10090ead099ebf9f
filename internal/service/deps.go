package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Clock supplies the current time. Each operation reads it exactly once so
// every check within the operation observes the same instant.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

func RealClock() Clock { return realClock{} }

// Governance is the external collaborator that authorizes sale creation and
// holds platform parameters. A failed call aborts sale activation.
type Governance interface {
	IsCreator(ctx context.Context, address string) (bool, error)
	FeeToken(ctx context.Context) (string, error)
}

// Transferer is the all-or-nothing transfer primitive. Implementations run
// inside the operation's transaction: either the whole operation commits or
// no balance moves.
type Transferer interface {
	Send(ctx context.Context, tx *gorm.DB, token, from, to string, amount decimal.Decimal) error
}
