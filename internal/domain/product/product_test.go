package product_test

import (
	"testing"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/product"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidates(t *testing.T) {
	t.Parallel()

	_, err := product.New(1, "Water", 0, 1, "A1")
	assert.ErrorIs(t, err, product.ErrInvalidPrice)

	_, err = product.New(1, "Water", 10, -1, "A1")
	assert.ErrorIs(t, err, product.ErrInvalidStock)

	_, err = product.New(1, "  ", 10, 1, "A1")
	assert.ErrorIs(t, err, product.ErrInvalidName)

	p, err := product.New(1, "Water", 10, 0, "A1")
	require.NoError(t, err)
	assert.False(t, p.InStock())
}

func TestDeductStopsAtZero(t *testing.T) {
	t.Parallel()

	p, err := product.New(1, "Water", 10, 1, "A1")
	require.NoError(t, err)

	require.NoError(t, p.Deduct())
	assert.Equal(t, 0, p.Stock)
	assert.ErrorIs(t, p.Deduct(), product.ErrOutOfStock)
	assert.Equal(t, 0, p.Stock)
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	p, err := product.New(7, "Tea", 20, 3, "A3")
	require.NoError(t, err)

	c := p.Clone()
	c.Stock = 0
	assert.Equal(t, 3, p.Stock)
	assert.Equal(t, product.Summary{ID: 7, Name: "Tea", Price: 20}, p.Summary())
}

func TestApplyPatch(t *testing.T) {
	t.Parallel()

	p, err := product.New(1, "Water", 10, 2, "A1")
	require.NoError(t, err)

	price, stock := int64(12), 8
	require.NoError(t, p.Apply(product.Patch{Price: &price, Stock: &stock}))
	assert.EqualValues(t, 12, p.Price)
	assert.Equal(t, 8, p.Stock)
	assert.Equal(t, "Water", p.Name)
	assert.Equal(t, "A1", p.Slot)
}

func TestApplyRejectsInvalidWithoutChanges(t *testing.T) {
	t.Parallel()

	p, err := product.New(1, "Water", 10, 2, "A1")
	require.NoError(t, err)
	before := *p

	name, zero, negative := "Still Water", int64(0), -1
	assert.ErrorIs(t, p.Apply(product.Patch{Name: &name, Price: &zero}), product.ErrInvalidPrice)
	assert.ErrorIs(t, p.Apply(product.Patch{Stock: &negative}), product.ErrInvalidStock)
	assert.Equal(t, before, *p)
}

func TestMovesSlot(t *testing.T) {
	t.Parallel()

	p, err := product.New(1, "Water", 10, 2, "A1")
	require.NoError(t, err)

	same, other, empty := " A1 ", "B2", ""
	assert.False(t, p.MovesSlot(product.Patch{}))
	assert.False(t, p.MovesSlot(product.Patch{Slot: &same}))
	assert.False(t, p.MovesSlot(product.Patch{Slot: &empty}))
	assert.True(t, p.MovesSlot(product.Patch{Slot: &other}))
}
