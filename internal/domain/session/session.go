package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/till"
)

var (
	ErrNotFound            = errors.New("session: not found")
	ErrAlreadyConfirmed    = errors.New("session: already confirmed")
	ErrInsufficientPayment = errors.New("session: insufficient payment")
	ErrInvalidPrice        = errors.New("session: price must be greater than zero")
)

// InsufficientPaymentError carries the amounts a client needs to prompt for more money.
type InsufficientPaymentError struct {
	Paid  int64
	Price int64
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("session: insufficient payment: paid %d of %d", e.Paid, e.Price)
}

func (e *InsufficientPaymentError) Is(target error) bool {
	return target == ErrInsufficientPayment
}

// Session is an in-progress purchase. Price is captured when the product is
// selected and does not follow later catalogue edits.
type Session struct {
	ID        string
	ProductID int64
	Price     int64
	Paid      int64
	Confirmed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id string, productID int64, price int64) (*Session, error) {
	if price <= 0 {
		return nil, ErrInvalidPrice
	}
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		ProductID: productID,
		Price:     price,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Insert credits one inserted coin or banknote to the session.
func (s *Session) Insert(d till.Denomination) error {
	if s.Confirmed {
		return ErrAlreadyConfirmed
	}
	if d <= 0 {
		return till.ErrInvalidDenomination
	}
	s.Paid += int64(d)
	s.touch()
	return nil
}

// CheckPayable reports whether Confirm may proceed.
func (s *Session) CheckPayable() error {
	if s.Confirmed {
		return ErrAlreadyConfirmed
	}
	if s.Paid < s.Price {
		return &InsufficientPaymentError{Paid: s.Paid, Price: s.Price}
	}
	return nil
}

func (s *Session) Confirm() error {
	if err := s.CheckPayable(); err != nil {
		return err
	}
	s.Confirmed = true
	s.touch()
	return nil
}

// Change is the amount owed back to the customer.
func (s *Session) Change() int64 {
	if s.Paid <= s.Price {
		return 0
	}
	return s.Paid - s.Price
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC()
}
