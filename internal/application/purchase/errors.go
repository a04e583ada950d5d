package purchase

import (
	"errors"
	"fmt"

	domproduct "github.com/Zhima-Mochi/vending-machine/internal/domain/product"
	domsession "github.com/Zhima-Mochi/vending-machine/internal/domain/session"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/till"
)

// Error codes surfaced to clients.
const (
	CodeProductUnavailable      = "PRODUCT_UNAVAILABLE"
	CodeInvalidSession          = "INVALID_SESSION"
	CodeAlreadyConfirmed        = "ALREADY_CONFIRMED"
	CodeInvalidDenomination     = "INVALID_DENOMINATION"
	CodeDenominationNotAccepted = "DENOMINATION_NOT_ACCEPTED"
	CodeOutOfStock              = "OUT_OF_STOCK"
	CodeInsufficientPayment     = "INSUFFICIENT_PAYMENT"
	CodeInsufficientChange      = "INSUFFICIENT_CHANGE"
	CodeInternal                = "INTERNAL"
)

var ErrRepository = errors.New("purchase: repository failure")

// ErrorCode classifies err into one of the client-facing codes.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domproduct.ErrUnavailable):
		return CodeProductUnavailable
	case errors.Is(err, domsession.ErrNotFound):
		return CodeInvalidSession
	case errors.Is(err, domsession.ErrAlreadyConfirmed):
		return CodeAlreadyConfirmed
	case errors.Is(err, till.ErrInvalidDenomination):
		return CodeInvalidDenomination
	case errors.Is(err, till.ErrDenominationNotAccepted):
		return CodeDenominationNotAccepted
	case errors.Is(err, domproduct.ErrOutOfStock):
		return CodeOutOfStock
	case errors.Is(err, domsession.ErrInsufficientPayment):
		return CodeInsufficientPayment
	case errors.Is(err, till.ErrInsufficientChange):
		return CodeInsufficientChange
	default:
		return CodeInternal
	}
}

// IsRejection reports whether err is a business rule failure rather than an infrastructure one.
func IsRejection(err error) bool {
	code := ErrorCode(err)
	return code != "" && code != CodeInternal
}

func wrapRepositoryError(err error) error {
	if err == nil || IsRejection(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRepository, err)
}
