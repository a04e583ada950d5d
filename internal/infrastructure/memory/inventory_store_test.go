package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/product"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/purchase"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/session"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/till"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T) *InventoryStore {
	t.Helper()
	s := NewInventoryStore()
	require.NoError(t, s.Seed(context.Background(), seed.Products(), seed.Till()))
	return s
}

func TestSeedAssignsSequentialIDs(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	all, err := s.ListProducts(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, len(seed.Products()))
	for i, p := range all {
		assert.EqualValues(t, i+1, p.ID)
	}

	p, err := s.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Mineral Water", p.Name)

	_, err = s.GetProduct(ctx, 999)
	assert.ErrorIs(t, err, product.ErrNotFound)
}

func TestListProductsFiltersOutOfStock(t *testing.T) {
	s := NewInventoryStore()
	ctx := context.Background()
	empty, err := product.New(0, "Empty", 10, 0, "A1")
	require.NoError(t, err)
	full, err := product.New(0, "Full", 10, 2, "A2")
	require.NoError(t, err)
	_, err = s.CreateProduct(ctx, empty)
	require.NoError(t, err)
	_, err = s.CreateProduct(ctx, full)
	require.NoError(t, err)

	inStock, err := s.ListProducts(ctx, false)
	require.NoError(t, err)
	require.Len(t, inStock, 1)
	assert.Equal(t, "Full", inStock[0].Name)

	all, err := s.ListProducts(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDepositRequiresTrackedSlot(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	st, err := s.Deposit(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, 21, st.Quantity)

	_, err = s.Deposit(ctx, 500)
	assert.ErrorIs(t, err, till.ErrDenominationNotAccepted)
}

func TestListDenominationsAscending(t *testing.T) {
	s := seededStore(t)

	stocks, err := s.ListDenominations(context.Background())
	require.NoError(t, err)
	for i := 1; i < len(stocks); i++ {
		assert.Less(t, stocks[i-1].Denom, stocks[i].Denom)
	}
}

func TestDispenseAppliesEverything(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()
	before, err := s.ListDenominations(ctx)
	require.NoError(t, err)

	r, err := s.Dispense(ctx, purchase.Sale{SessionID: "s", ProductID: 2, Paid: 50, Price: 15})
	require.NoError(t, err)
	assert.Equal(t, []till.ChangeItem{{Denom: 20, Qty: 1}, {Denom: 10, Qty: 1}, {Denom: 5, Qty: 1}}, r.Change)
	assert.Equal(t, 9, r.RemainingStock)
	assert.EqualValues(t, 35, r.Transaction.ChangeAmount)

	after, err := s.ListDenominations(ctx)
	require.NoError(t, err)
	assert.Equal(t, till.Total(before)-35, till.Total(after))
	assert.Equal(t, r.Till, after)

	txs, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.EqualValues(t, 50, txs[0].PaidAmount)
}

func TestDispenseInsufficientChangeWritesNothing(t *testing.T) {
	s := NewInventoryStore()
	ctx := context.Background()
	p, err := product.New(0, "Tea", 15, 3, "A1")
	require.NoError(t, err)
	_, err = s.CreateProduct(ctx, p)
	require.NoError(t, err)
	require.NoError(t, s.SetDenomination(ctx, till.Stock{Denom: 20, Quantity: 1, Kind: till.KindBanknote}))
	require.NoError(t, s.SetDenomination(ctx, till.Stock{Denom: 50, Quantity: 1, Kind: till.KindBanknote}))

	tillBefore, _ := s.ListDenominations(ctx)
	productBefore, _ := s.GetProduct(ctx, 1)

	_, err = s.Dispense(ctx, purchase.Sale{ProductID: 1, Paid: 50, Price: 15})
	require.ErrorIs(t, err, till.ErrInsufficientChange)

	tillAfter, _ := s.ListDenominations(ctx)
	productAfter, _ := s.GetProduct(ctx, 1)
	assert.Equal(t, tillBefore, tillAfter)
	assert.Equal(t, productBefore, productAfter)
	txs, _ := s.ListTransactions(ctx)
	assert.Empty(t, txs)
}

func TestDispenseGuards(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	_, err := s.Dispense(ctx, purchase.Sale{ProductID: 999, Paid: 10, Price: 10})
	assert.ErrorIs(t, err, product.ErrOutOfStock)

	_, err = s.Dispense(ctx, purchase.Sale{ProductID: 1, Paid: 5, Price: 10})
	assert.ErrorIs(t, err, session.ErrInsufficientPayment)
}

func TestConcurrentDispenseOfLastUnit(t *testing.T) {
	s := NewInventoryStore()
	ctx := context.Background()
	p, err := product.New(0, "Last", 10, 1, "A1")
	require.NoError(t, err)
	_, err = s.CreateProduct(ctx, p)
	require.NoError(t, err)

	var wins, outOfStock atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Dispense(ctx, purchase.Sale{ProductID: 1, Paid: 10, Price: 10})
			switch {
			case err == nil:
				wins.Add(1)
			case assert.ErrorIs(t, err, product.ErrOutOfStock):
				outOfStock.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
	assert.EqualValues(t, 15, outOfStock.Load())
	got, err := s.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
}

func TestUpdateProduct(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	price, stock := int64(12), 20
	got, err := s.UpdateProduct(ctx, 1, product.Patch{Price: &price, Stock: &stock})
	require.NoError(t, err)
	assert.EqualValues(t, 12, got.Price)
	assert.Equal(t, 20, got.Stock)

	stored, err := s.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, got, stored)

	_, err = s.UpdateProduct(ctx, 999, product.Patch{Price: &price})
	assert.ErrorIs(t, err, product.ErrNotFound)

	zero := int64(0)
	_, err = s.UpdateProduct(ctx, 1, product.Patch{Price: &zero})
	assert.ErrorIs(t, err, product.ErrInvalidPrice)
}

func TestSlotsAreUnique(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	dup, err := product.New(0, "Second Water", 10, 1, "A1")
	require.NoError(t, err)
	_, err = s.CreateProduct(ctx, dup)
	assert.ErrorIs(t, err, product.ErrSlotTaken)

	taken, own, free := "A2", "A1", "D9"
	_, err = s.UpdateProduct(ctx, 1, product.Patch{Slot: &taken})
	assert.ErrorIs(t, err, product.ErrSlotTaken)
	_, err = s.UpdateProduct(ctx, 1, product.Patch{Slot: &own})
	assert.NoError(t, err)
	moved, err := s.UpdateProduct(ctx, 1, product.Patch{Slot: &free})
	require.NoError(t, err)
	assert.Equal(t, "D9", moved.Slot)

	// A1 is free again once its product moved away.
	created, err := s.CreateProduct(ctx, dup)
	require.NoError(t, err)
	assert.Equal(t, "A1", created.Slot)
}

func TestDeleteProduct(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	require.NoError(t, s.DeleteProduct(ctx, 1))
	_, err := s.GetProduct(ctx, 1)
	assert.ErrorIs(t, err, product.ErrNotFound)
	assert.ErrorIs(t, s.DeleteProduct(ctx, 1), product.ErrNotFound)

	all, err := s.ListProducts(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, len(seed.Products())-1)
}

func TestSetDenominationRejectsUnknown(t *testing.T) {
	s := NewInventoryStore()
	assert.ErrorIs(t, s.SetDenomination(context.Background(), till.Stock{Denom: 3}), till.ErrInvalidDenomination)
}
