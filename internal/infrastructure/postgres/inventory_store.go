package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/product"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/purchase"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/session"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/till"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLSTATE unique_violation.
const uniqueViolation = "23505"

const productColumns = `id, name, price, stock_qty, COALESCE(slot_no, ''), COALESCE(image_url, ''), updated_at`

// InventoryStore implements purchase.Inventory on Postgres. Dispense runs in
// one transaction holding row locks on the product and the whole till.
type InventoryStore struct {
	pool *pgxpool.Pool
}

func NewInventoryStore(pool *pgxpool.Pool) *InventoryStore {
	return &InventoryStore{pool: pool}
}

// Seed loads products and till slots, but only into an empty products table.
// It reports whether anything was written.
func (s *InventoryStore) Seed(ctx context.Context, products []*product.Product, stocks []till.Stock) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("postgres: seed begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var existing int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&existing); err != nil {
		return false, fmt.Errorf("postgres: seed count: %w", err)
	}
	if existing > 0 {
		return false, nil
	}

	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(`INSERT INTO products (name, price, stock_qty, slot_no, image_url) VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))`,
			p.Name, p.Price, p.Stock, p.Slot, p.ImageURL)
	}
	for _, st := range stocks {
		batch.Queue(`INSERT INTO money_stock (denom, quantity, type) VALUES ($1, $2, $3)
			ON CONFLICT (denom) DO UPDATE SET quantity = EXCLUDED.quantity, type = EXCLUDED.type`,
			int64(st.Denom), st.Quantity, string(st.Kind))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return false, fmt.Errorf("postgres: seed insert: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("postgres: seed commit: %w", err)
	}
	return true, nil
}

// CreateProduct inserts p and returns the stored row with its new id.
func (s *InventoryStore) CreateProduct(ctx context.Context, p *product.Product) (*product.Product, error) {
	created, err := scanProduct(s.pool.QueryRow(ctx,
		`INSERT INTO products (name, price, stock_qty, slot_no, image_url)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
		RETURNING `+productColumns,
		p.Name, p.Price, p.Stock, p.Slot, p.ImageURL))
	if isSlotConflict(err) {
		return nil, product.ErrSlotTaken
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: create product: %w", err)
	}
	return created, nil
}

// UpdateProduct applies patch under a row lock. Open sessions keep the price they selected at.
func (s *InventoryStore) UpdateProduct(ctx context.Context, id int64, patch product.Patch) (*product.Product, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: update product begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := scanProduct(tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, product.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: update product lock: %w", err)
	}
	if err := p.Apply(patch); err != nil {
		return nil, err
	}

	updated, err := scanProduct(tx.QueryRow(ctx,
		`UPDATE products
		SET name = $2, price = $3, stock_qty = $4, slot_no = NULLIF($5, ''), image_url = NULLIF($6, ''), updated_at = NOW()
		WHERE id = $1
		RETURNING `+productColumns,
		p.ID, p.Name, p.Price, p.Stock, p.Slot, p.ImageURL))
	if isSlotConflict(err) {
		return nil, product.ErrSlotTaken
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: update product: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("postgres: update product commit: %w", err)
	}
	return updated, nil
}

func (s *InventoryStore) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func (s *InventoryStore) GetProduct(ctx context.Context, id int64) (*product.Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, product.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get product: %w", err)
	}
	return p, nil
}

func (s *InventoryStore) ListProducts(ctx context.Context, includeOutOfStock bool) ([]*product.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE $1 OR stock_qty > 0 ORDER BY id`
	rows, err := s.pool.Query(ctx, query, includeOutOfStock)
	if err != nil {
		return nil, fmt.Errorf("postgres: list products: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*product.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: list products: %w", err)
	}
	return out, nil
}

func (s *InventoryStore) ListDenominations(ctx context.Context) ([]till.Stock, error) {
	rows, err := s.pool.Query(ctx, `SELECT denom, quantity, type FROM money_stock ORDER BY denom`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list denominations: %w", err)
	}
	out, err := collectStocks(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: list denominations: %w", err)
	}
	return out, nil
}

func (s *InventoryStore) Deposit(ctx context.Context, d till.Denomination) (till.Stock, error) {
	st, err := scanStock(s.pool.QueryRow(ctx,
		`UPDATE money_stock SET quantity = quantity + 1 WHERE denom = $1 RETURNING denom, quantity, type`, int64(d)))
	if errors.Is(err, pgx.ErrNoRows) {
		return till.Stock{}, till.ErrDenominationNotAccepted
	}
	if err != nil {
		return till.Stock{}, fmt.Errorf("postgres: deposit: %w", err)
	}
	return st, nil
}

func (s *InventoryStore) Dispense(ctx context.Context, sale purchase.Sale) (*purchase.Receipt, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("postgres: dispense begin: %w", err)
	}
	// Rollback after Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := scanProduct(tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, sale.ProductID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, product.ErrOutOfStock
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: dispense lock product: %w", err)
	}
	if !p.InStock() {
		return nil, product.ErrOutOfStock
	}
	if sale.Paid < sale.Price {
		return nil, &session.InsufficientPaymentError{Paid: sale.Paid, Price: sale.Price}
	}

	rows, err := tx.Query(ctx, `SELECT denom, quantity, type FROM money_stock ORDER BY denom FOR UPDATE`)
	if err != nil {
		return nil, fmt.Errorf("postgres: dispense lock till: %w", err)
	}
	current, err := collectStocks(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: dispense lock till: %w", err)
	}
	items, err := till.MakeChange(sale.Change(), current)
	if err != nil {
		return nil, err
	}
	debited, err := till.Apply(current, items)
	if err != nil {
		return nil, err
	}

	if err := p.Deduct(); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE products SET stock_qty = $2, updated_at = NOW() WHERE id = $1`, p.ID, p.Stock); err != nil {
		return nil, fmt.Errorf("postgres: dispense update product: %w", err)
	}
	for _, it := range items {
		if _, err := tx.Exec(ctx, `UPDATE money_stock SET quantity = quantity - $2 WHERE denom = $1`, int64(it.Denom), it.Qty); err != nil {
			return nil, fmt.Errorf("postgres: dispense update till: %w", err)
		}
	}

	txRecord := purchase.Transaction{
		ProductID:    p.ID,
		PaidAmount:   sale.Paid,
		ChangeAmount: sale.Change(),
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO transactions (product_id, paid_amount, change_amount) VALUES ($1, $2, $3) RETURNING id, created_at`,
		txRecord.ProductID, txRecord.PaidAmount, txRecord.ChangeAmount,
	).Scan(&txRecord.ID, &txRecord.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("postgres: dispense record transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("postgres: dispense commit: %w", err)
	}
	txRecord.CreatedAt = txRecord.CreatedAt.UTC()

	return &purchase.Receipt{
		Transaction:    txRecord,
		Product:        p.Summary(),
		Change:         items,
		RemainingStock: p.Stock,
		Till:           debited,
	}, nil
}

func (s *InventoryStore) ListTransactions(ctx context.Context) ([]purchase.Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, product_id, paid_amount, change_amount, created_at FROM transactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list transactions: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (purchase.Transaction, error) {
		var t purchase.Transaction
		err := row.Scan(&t.ID, &t.ProductID, &t.PaidAmount, &t.ChangeAmount, &t.CreatedAt)
		t.CreatedAt = t.CreatedAt.UTC()
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: list transactions: %w", err)
	}
	return out, nil
}

func scanProduct(row pgx.Row) (*product.Product, error) {
	var (
		p         product.Product
		updatedAt time.Time
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Slot, &p.ImageURL, &updatedAt); err != nil {
		return nil, err
	}
	p.UpdatedAt = updatedAt.UTC()
	return &p, nil
}

func isSlotConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == uniqueViolation &&
		pgErr.ConstraintName == "products_slot_no_key"
}

func scanStock(row pgx.Row) (till.Stock, error) {
	var (
		denom int64
		qty   int
		kind  string
	)
	if err := row.Scan(&denom, &qty, &kind); err != nil {
		return till.Stock{}, err
	}
	return till.Stock{Denom: till.Denomination(denom), Quantity: qty, Kind: till.Kind(kind)}, nil
}

func collectStocks(rows pgx.Rows) ([]till.Stock, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (till.Stock, error) {
		return scanStock(row)
	})
}
