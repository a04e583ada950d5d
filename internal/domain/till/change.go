package till

import (
	"fmt"
	"slices"
)

// ChangeItem is one line of a change breakdown.
type ChangeItem struct {
	Denom Denomination
	Qty   int
}

// Sum is the cash value of a change breakdown.
func Sum(items []ChangeItem) int64 {
	var sum int64
	for _, it := range items {
		sum += int64(it.Denom) * int64(it.Qty)
	}
	return sum
}

// MakeChange decomposes amount into the denominations available in stocks.
//
// The search is greedy over accepted denominations, largest first, bounded by
// the quantity on hand. It does not backtrack, so a till that could pay the
// amount through a different combination may still yield ErrInsufficientChange.
// stocks is never modified; the caller applies the result with Apply.
func MakeChange(amount int64, stocks []Stock) ([]ChangeItem, error) {
	if amount < 0 {
		return nil, fmt.Errorf("till: negative change amount %d", amount)
	}
	items := []ChangeItem{}
	if amount == 0 {
		return items, nil
	}

	ordered := slices.Clone(stocks)
	slices.SortFunc(ordered, func(a, b Stock) int {
		return compare(b.Denom, a.Denom)
	})

	remaining := amount
	for _, s := range ordered {
		if remaining <= 0 {
			break
		}
		if !IsAccepted(s.Denom) || s.Quantity <= 0 {
			continue
		}
		d := int64(s.Denom)
		if d > remaining {
			continue
		}
		qty := min(remaining/d, int64(s.Quantity))
		if qty == 0 {
			continue
		}
		items = append(items, ChangeItem{Denom: s.Denom, Qty: int(qty)})
		remaining -= qty * d
	}

	if remaining > 0 {
		return nil, fmt.Errorf("%w: %d of %d unpaid", ErrInsufficientChange, remaining, amount)
	}
	return items, nil
}

// Apply returns a copy of stocks with every change item debited.
func Apply(stocks []Stock, items []ChangeItem) ([]Stock, error) {
	out := slices.Clone(stocks)
	for _, it := range items {
		idx := slices.IndexFunc(out, func(s Stock) bool { return s.Denom == it.Denom })
		if idx < 0 || out[idx].Quantity < it.Qty {
			return nil, fmt.Errorf("%w: %d x %d not on hand", ErrInsufficientChange, it.Qty, it.Denom)
		}
		out[idx].Quantity -= it.Qty
	}
	return out, nil
}
