package purchase

import (
	"context"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/product"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/till"
)

// Inventory is the machine's product and cash store. Each method is atomic.
type Inventory interface {
	GetProduct(ctx context.Context, id int64) (*product.Product, error)
	ListProducts(ctx context.Context, includeOutOfStock bool) ([]*product.Product, error)
	ListDenominations(ctx context.Context) ([]till.Stock, error)
	// Deposit adds one unit of d to the till. It fails with
	// till.ErrDenominationNotAccepted when the till has no slot for d.
	Deposit(ctx context.Context, d till.Denomination) (till.Stock, error)
	// Dispense re-checks stock, pays change and records the transaction as a
	// single unit. Nothing is written when it returns an error.
	Dispense(ctx context.Context, sale Sale) (*Receipt, error)
	ListTransactions(ctx context.Context) ([]Transaction, error)
}
