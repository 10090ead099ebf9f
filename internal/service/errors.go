package service

import (
	"errors"
	"fmt"
)

// Kind classifies a rejection so callers can tell "fix your input" from
// "retry later" from "never". Every failure aborts the whole operation; none
// leaves partial state behind.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindAuthorization Kind = "authorization"
	KindState         Kind = "state"
	KindQuota         Kind = "quota"
	KindTokenMismatch Kind = "token_mismatch"
)

// Error is a sentinel rejection with a stable kind and message. Services wrap
// sentinels with fmt.Errorf("%w: ...") to add detail; errors.Is still matches.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

func newErr(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

var (
	// Creation.
	ErrInvalidPrice         = newErr(KindValidation, "price must be positive")
	ErrInvalidQuota         = newErr(KindValidation, "min buy amount exceeds max buy amount")
	ErrInvalidWindow        = newErr(KindValidation, "sale window is invalid")
	ErrInvalidAmount        = newErr(KindValidation, "amount must be positive")
	ErrInvalidAddress       = newErr(KindValidation, "address must not be empty")
	ErrTokenAlreadyLaunched = newErr(KindState, "token already launched")

	// Lookup and authorization.
	ErrSaleNotFound  = newErr(KindNotFound, "sale not found")
	ErrNotOwner      = newErr(KindAuthorization, "caller is not the sale owner")
	ErrNotAuthorized = newErr(KindAuthorization, "caller is not authorized")

	// Phase.
	ErrSaleInactive          = newErr(KindState, "sale is not open for purchase")
	ErrWindowClosed          = newErr(KindState, "sale window no longer accepts inventory")
	ErrWindowNotEnded        = newErr(KindState, "sale window has not ended")
	ErrAlreadySettled        = newErr(KindState, "sale already settled")
	ErrNotSettled            = newErr(KindState, "sale not settled")
	ErrAlreadyDeployed       = newErr(KindState, "deployment already recorded")
	ErrCannotCancelAfterSale = newErr(KindState, "cannot cancel a sale with sold tokens")

	ErrNotWhitelisted = newErr(KindAuthorization, "participant not whitelisted")

	// Quotas and tokens.
	ErrBelowMinimum          = newErr(KindQuota, "cumulative amount below sale minimum")
	ErrAboveMaximum          = newErr(KindQuota, "cumulative amount above sale maximum")
	ErrInsufficientInventory = newErr(KindQuota, "insufficient inventory left")
	ErrWrongToken            = newErr(KindTokenMismatch, "wrong token")
)

// KindOf extracts the classification of an error produced by this package;
// unknown errors report an empty kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// governanceErr marks a failed call to the governance collaborator; sale
// activation must abort when the gate cannot be consulted.
func governanceErr(err error) error {
	return fmt.Errorf("governance unavailable: %w", err)
}
