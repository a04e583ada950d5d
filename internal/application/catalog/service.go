package catalog

import (
	"context"
	"fmt"

	domproduct "github.com/Zhima-Mochi/vending-machine/internal/domain/product"
	dompurchase "github.com/Zhima-Mochi/vending-machine/internal/domain/purchase"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/till"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	"github.com/Zhima-Mochi/vending-machine/internal/observability/logctx"
)

const catalogService = "catalog-service"

// Store is an inventory that also manages the product catalogue.
type Store interface {
	dompurchase.Inventory
	domproduct.Catalog
}

// Service reports on products, cash and past sales, and lets an operator
// create, edit and remove products.
type Service struct {
	inventory Store
	log       observability.Logger
}

func NewService(inventory Store, logger observability.Logger) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		inventory: inventory,
		log:       logger.With(observability.F("service", catalogService)),
	}
}

func (s *Service) ListProducts(ctx context.Context, includeOutOfStock bool) ([]*domproduct.Product, error) {
	products, err := s.inventory.ListProducts(ctx, includeOutOfStock)
	if err != nil {
		logctx.FromOr(ctx, s.log).Error("list_products_failed", observability.F("error", err.Error()))
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}
	return products, nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domproduct.Product, error) {
	p, err := s.inventory.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("catalog: get product %d: %w", id, err)
	}
	return p, nil
}

// CreateProduct validates and stores a new product.
func (s *Service) CreateProduct(ctx context.Context, name string, price int64, stock int, slot, imageURL string) (*domproduct.Product, error) {
	p, err := domproduct.New(0, name, price, stock, slot)
	if err != nil {
		return nil, err
	}
	p.ImageURL = imageURL

	created, err := s.inventory.CreateProduct(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("catalog: create product: %w", err)
	}
	logctx.FromOr(ctx, s.log).Info("product_created",
		observability.F("product_id", created.ID),
		observability.F("slot_no", created.Slot),
		observability.F("price", created.Price),
	)
	return created, nil
}

// UpdateProduct applies patch. A price change does not affect sessions that
// already selected the product.
func (s *Service) UpdateProduct(ctx context.Context, id int64, patch domproduct.Patch) (*domproduct.Product, error) {
	updated, err := s.inventory.UpdateProduct(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("catalog: update product %d: %w", id, err)
	}
	logctx.FromOr(ctx, s.log).Info("product_updated",
		observability.F("product_id", updated.ID),
		observability.F("price", updated.Price),
		observability.F("stock", updated.Stock),
	)
	return updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.inventory.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("catalog: delete product %d: %w", id, err)
	}
	logctx.FromOr(ctx, s.log).Info("product_deleted", observability.F("product_id", id))
	return nil
}

// MoneyStock returns the till, smallest denomination first.
func (s *Service) MoneyStock(ctx context.Context) ([]till.Stock, error) {
	stocks, err := s.inventory.ListDenominations(ctx)
	if err != nil {
		logctx.FromOr(ctx, s.log).Error("list_money_stock_failed", observability.F("error", err.Error()))
		return nil, fmt.Errorf("catalog: money stock: %w", err)
	}
	stocks = till.Clone(stocks)
	till.SortAscending(stocks)
	return stocks, nil
}

func (s *Service) Transactions(ctx context.Context) ([]dompurchase.Transaction, error) {
	txs, err := s.inventory.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: transactions: %w", err)
	}
	return txs, nil
}
