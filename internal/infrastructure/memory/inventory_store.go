package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/product"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/purchase"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/session"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/till"
)

// InventoryStore keeps products, the till and the transaction log behind a
// single lock, so every method is one serializable unit.
type InventoryStore struct {
	mu            sync.RWMutex
	products      map[int64]*product.Product
	till          map[till.Denomination]till.Stock
	transactions  []purchase.Transaction
	nextProductID int64
	nextTxID      int64
}

func NewInventoryStore() *InventoryStore {
	return &InventoryStore{
		products: make(map[int64]*product.Product),
		till:     make(map[till.Denomination]till.Stock),
	}
}

// CreateProduct stores p, assigning the next id when p.ID is zero. A slot
// already held by another product is rejected with product.ErrSlotTaken.
func (r *InventoryStore) CreateProduct(ctx context.Context, p *product.Product) (*product.Product, error) {
	_ = ctx
	if p == nil {
		return nil, fmt.Errorf("inventory store: product is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slotHeld(p.Slot, p.ID) {
		return nil, product.ErrSlotTaken
	}
	stored := p.Clone()
	if stored.ID == 0 {
		r.nextProductID++
		stored.ID = r.nextProductID
	} else if stored.ID > r.nextProductID {
		r.nextProductID = stored.ID
	}
	r.products[stored.ID] = stored
	return stored.Clone(), nil
}

// Seed loads products and till slots into an empty store.
func (r *InventoryStore) Seed(ctx context.Context, products []*product.Product, stocks []till.Stock) error {
	for _, p := range products {
		if _, err := r.CreateProduct(ctx, p); err != nil {
			return fmt.Errorf("inventory store: seed product %q: %w", p.Name, err)
		}
	}
	for _, s := range stocks {
		if err := r.SetDenomination(ctx, s); err != nil {
			return fmt.Errorf("inventory store: seed denomination %d: %w", s.Denom, err)
		}
	}
	return nil
}

// UpdateProduct applies patch to product id. Open sessions keep the price they selected at.
func (r *InventoryStore) UpdateProduct(ctx context.Context, id int64, patch product.Patch) (*product.Product, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	if current.MovesSlot(patch) && r.slotHeld(*patch.Slot, id) {
		return nil, product.ErrSlotTaken
	}
	updated := current.Clone()
	if err := updated.Apply(patch); err != nil {
		return nil, err
	}
	r.products[id] = updated
	return updated.Clone(), nil
}

// DeleteProduct removes the product. Recorded transactions keep its id.
func (r *InventoryStore) DeleteProduct(ctx context.Context, id int64) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return product.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

// SetDenomination creates or overwrites the till slot for s.Denom.
func (r *InventoryStore) SetDenomination(ctx context.Context, s till.Stock) error {
	_ = ctx
	if !till.IsAccepted(s.Denom) {
		return till.ErrInvalidDenomination
	}
	if s.Quantity < 0 {
		return fmt.Errorf("inventory store: negative quantity for %d", s.Denom)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.till[s.Denom] = s
	return nil
}

func (r *InventoryStore) GetProduct(ctx context.Context, id int64) (*product.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *InventoryStore) ListProducts(ctx context.Context, includeOutOfStock bool) ([]*product.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*product.Product, 0, len(r.products))
	for _, p := range r.products {
		if !includeOutOfStock && !p.InStock() {
			continue
		}
		out = append(out, p.Clone())
	}
	slices.SortFunc(out, func(a, b *product.Product) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *InventoryStore) ListDenominations(ctx context.Context) ([]till.Stock, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.tillSnapshot(), nil
}

func (r *InventoryStore) Deposit(ctx context.Context, d till.Denomination) (till.Stock, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.till[d]
	if !ok {
		return till.Stock{}, till.ErrDenominationNotAccepted
	}
	s.Quantity++
	r.till[d] = s
	return s, nil
}

func (r *InventoryStore) Dispense(ctx context.Context, sale purchase.Sale) (*purchase.Receipt, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[sale.ProductID]
	if !ok || !p.InStock() {
		return nil, product.ErrOutOfStock
	}
	if sale.Paid < sale.Price {
		return nil, &session.InsufficientPaymentError{Paid: sale.Paid, Price: sale.Price}
	}

	current := r.tillSnapshot()
	items, err := till.MakeChange(sale.Change(), current)
	if err != nil {
		return nil, err
	}
	debited, err := till.Apply(current, items)
	if err != nil {
		return nil, err
	}

	// Nothing is written to the store before this point.
	updated := p.Clone()
	if err := updated.Deduct(); err != nil {
		return nil, err
	}
	r.products[updated.ID] = updated
	for _, s := range debited {
		r.till[s.Denom] = s
	}
	r.nextTxID++
	tx := purchase.Transaction{
		ID:           r.nextTxID,
		ProductID:    updated.ID,
		PaidAmount:   sale.Paid,
		ChangeAmount: sale.Change(),
		CreatedAt:    time.Now().UTC(),
	}
	r.transactions = append(r.transactions, tx)

	return &purchase.Receipt{
		Transaction:    tx,
		Product:        updated.Summary(),
		Change:         items,
		RemainingStock: updated.Stock,
		Till:           debited,
	}, nil
}

func (r *InventoryStore) ListTransactions(ctx context.Context) ([]purchase.Transaction, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.transactions), nil
}

// slotHeld must be called with r.mu held.
func (r *InventoryStore) slotHeld(slot string, except int64) bool {
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return false
	}
	for id, p := range r.products {
		if id != except && p.Slot == slot {
			return true
		}
	}
	return false
}

// tillSnapshot must be called with r.mu held.
func (r *InventoryStore) tillSnapshot() []till.Stock {
	out := make([]till.Stock, 0, len(r.till))
	for _, s := range r.till {
		out = append(out, s)
	}
	till.SortAscending(out)
	return out
}
