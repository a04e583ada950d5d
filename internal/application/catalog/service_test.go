package catalog

import (
	"context"
	"testing"

	domproduct "github.com/Zhima-Mochi/vending-machine/internal/domain/product"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/till"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceReads(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInventoryStore()
	require.NoError(t, store.Seed(ctx, seed.Products(), seed.Till()))
	svc := NewService(store, nil)

	products, err := svc.ListProducts(ctx, false)
	require.NoError(t, err)
	assert.Len(t, products, len(seed.Products()))

	p, err := svc.GetProduct(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "A3", p.Slot)

	_, err = svc.GetProduct(ctx, 404)
	assert.ErrorIs(t, err, domproduct.ErrNotFound)

	stocks, err := svc.MoneyStock(ctx)
	require.NoError(t, err)
	require.Len(t, stocks, len(seed.Till()))
	assert.Equal(t, till.Denomination(1), stocks[0].Denom)
	assert.Equal(t, till.KindBanknote, stocks[len(stocks)-1].Kind)

	txs, err := svc.Transactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestServiceManagesProducts(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInventoryStore()
	require.NoError(t, store.Seed(ctx, seed.Products(), seed.Till()))
	svc := NewService(store, nil)

	created, err := svc.CreateProduct(ctx, " Iced Coffee ", 30, 4, "D1", "https://example.com/coffee.png")
	require.NoError(t, err)
	assert.EqualValues(t, len(seed.Products())+1, created.ID)
	assert.Equal(t, "Iced Coffee", created.Name)
	assert.Equal(t, "https://example.com/coffee.png", created.ImageURL)

	_, err = svc.CreateProduct(ctx, "Another", 30, 4, "D1", "")
	assert.ErrorIs(t, err, domproduct.ErrSlotTaken)
	_, err = svc.CreateProduct(ctx, "Free", 0, 4, "D2", "")
	assert.ErrorIs(t, err, domproduct.ErrInvalidPrice)

	price := int64(35)
	updated, err := svc.UpdateProduct(ctx, created.ID, domproduct.Patch{Price: &price})
	require.NoError(t, err)
	assert.EqualValues(t, 35, updated.Price)
	assert.Equal(t, "D1", updated.Slot)

	_, err = svc.UpdateProduct(ctx, 404, domproduct.Patch{Price: &price})
	assert.ErrorIs(t, err, domproduct.ErrNotFound)

	require.NoError(t, svc.DeleteProduct(ctx, created.ID))
	assert.ErrorIs(t, svc.DeleteProduct(ctx, created.ID), domproduct.ErrNotFound)
}
