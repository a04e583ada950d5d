package till

import (
	"errors"
	"slices"
)

var (
	ErrInvalidDenomination     = errors.New("till: invalid denomination")
	ErrDenominationNotAccepted = errors.New("till: denomination not accepted")
	ErrInsufficientChange      = errors.New("till: insufficient change")
)

// Denomination is the face value of a coin or banknote in currency units.
type Denomination int64

type Kind string

const (
	KindCoin     Kind = "coin"
	KindBanknote Kind = "banknote"
)

var accepted = []Denomination{1, 5, 10, 20, 50, 100, 500, 1000}

// Accepted returns the fixed set of denominations the machine recognises, ascending.
func Accepted() []Denomination {
	return slices.Clone(accepted)
}

func IsAccepted(d Denomination) bool {
	return slices.Contains(accepted, d)
}

// Stock is the count of one denomination held by the machine.
type Stock struct {
	Denom    Denomination
	Quantity int
	Kind     Kind
}

func (s Stock) Value() int64 {
	return int64(s.Denom) * int64(s.Quantity)
}

// Total is the cash value of the whole till.
func Total(stocks []Stock) int64 {
	var sum int64
	for _, s := range stocks {
		sum += s.Value()
	}
	return sum
}

// SortAscending orders stocks by denomination, smallest first.
func SortAscending(stocks []Stock) {
	slices.SortFunc(stocks, func(a, b Stock) int {
		return compare(a.Denom, b.Denom)
	})
}

func Clone(stocks []Stock) []Stock {
	return slices.Clone(stocks)
}

func compare(a, b Denomination) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
