package product

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("product: not found")
	ErrUnavailable  = errors.New("product: not available")
	ErrOutOfStock   = errors.New("product: out of stock")
	ErrInvalidPrice = errors.New("product: price must be greater than zero")
	ErrInvalidStock = errors.New("product: stock must be zero or greater")
	ErrInvalidName  = errors.New("product: name is required")
	ErrSlotTaken    = errors.New("product: slot number already exists")
)

type Product struct {
	ID        int64
	Name      string
	Price     int64
	Stock     int
	Slot      string
	ImageURL  string
	UpdatedAt time.Time
}

// Summary is the part of a product shown to a customer during a purchase.
type Summary struct {
	ID    int64
	Name  string
	Price int64
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Name     *string
	Price    *int64
	Stock    *int
	Slot     *string
	ImageURL *string
}

// Catalog is the management side of a product store. Slot numbers are unique
// among products that have one; an empty slot never conflicts.
type Catalog interface {
	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	UpdateProduct(ctx context.Context, id int64, patch Patch) (*Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

func New(id int64, name string, price int64, stock int, slot string) (*Product, error) {
	p := &Product{
		ID:    id,
		Name:  strings.TrimSpace(name),
		Price: price,
		Stock: stock,
		Slot:  strings.TrimSpace(slot),
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	p.touch()
	return p, nil
}

func (p *Product) validate() error {
	switch {
	case p.Name == "":
		return ErrInvalidName
	case p.Price <= 0:
		return ErrInvalidPrice
	case p.Stock < 0:
		return ErrInvalidStock
	}
	return nil
}

// MovesSlot reports whether applying patch to p claims a different, non-empty slot.
func (p *Product) MovesSlot(patch Patch) bool {
	if patch.Slot == nil {
		return false
	}
	slot := strings.TrimSpace(*patch.Slot)
	return slot != "" && slot != p.Slot
}

// Apply updates p in place. p is left untouched when the result would be invalid.
func (p *Product) Apply(patch Patch) error {
	next := *p
	if patch.Name != nil {
		next.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Price != nil {
		next.Price = *patch.Price
	}
	if patch.Stock != nil {
		next.Stock = *patch.Stock
	}
	if patch.Slot != nil {
		next.Slot = strings.TrimSpace(*patch.Slot)
	}
	if patch.ImageURL != nil {
		next.ImageURL = *patch.ImageURL
	}
	if err := next.validate(); err != nil {
		return err
	}
	next.touch()
	*p = next
	return nil
}

func (p *Product) InStock() bool {
	return p != nil && p.Stock > 0
}

// Deduct removes one unit from the slot.
func (p *Product) Deduct() error {
	if p.Stock <= 0 {
		return ErrOutOfStock
	}
	p.Stock--
	p.touch()
	return nil
}

func (p *Product) Summary() Summary {
	return Summary{ID: p.ID, Name: p.Name, Price: p.Price}
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}
