package purchase

import (
	"time"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/product"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/till"
)

// Sale is a paid-up session ready to be dispensed.
type Sale struct {
	SessionID string
	ProductID int64
	Paid      int64
	Price     int64
}

func (s Sale) Change() int64 {
	return s.Paid - s.Price
}

// Transaction is the append-only record of a completed sale.
type Transaction struct {
	ID           int64
	ProductID    int64
	PaidAmount   int64
	ChangeAmount int64
	CreatedAt    time.Time
}

// Receipt is the outcome of a successful dispense.
type Receipt struct {
	Transaction    Transaction
	Product        product.Summary
	Change         []till.ChangeItem
	RemainingStock int
	// Till is the denomination stock after the change was paid out.
	Till []till.Stock
}
