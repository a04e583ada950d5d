package seed

import (
	"strings"
	"testing"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/till"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductsCarryImagesAndUniqueSlots(t *testing.T) {
	products := Products()
	require.Len(t, products, 10)

	slots := make(map[string]struct{}, len(products))
	for _, p := range products {
		assert.Zero(t, p.ID, p.Name)
		assert.Equal(t, defaultStock, p.Stock, p.Name)
		assert.True(t, strings.HasPrefix(p.ImageURL, "https://"), p.Name)
		_, dup := slots[p.Slot]
		assert.False(t, dup, p.Slot)
		slots[p.Slot] = struct{}{}
	}
}

func TestTillOnlyHoldsAcceptedDenominations(t *testing.T) {
	for _, s := range Till() {
		assert.True(t, till.IsAccepted(s.Denom), s.Denom)
		assert.Positive(t, s.Quantity)
	}
}
