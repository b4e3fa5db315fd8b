package business

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the storage contract for the demo resources. Each getter
// exposes the owner id so handlers can build owner resolvers without the
// engine knowing the storage technology.
type Repository interface {
	ListProducts(ctx context.Context) ([]Product, error)
	ListProductsByOwner(ctx context.Context, ownerID int64) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, p Product) (Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	ListOrders(ctx context.Context) ([]Order, error)
	ListOrdersByOwner(ctx context.Context, ownerID int64) ([]Order, error)
	GetOrder(ctx context.Context, id int64) (Order, error)

	ListShops(ctx context.Context) ([]Shop, error)
	ListShopsByOwner(ctx context.Context, ownerID int64) ([]Shop, error)
	GetShop(ctx context.Context, id int64) (Shop, error)
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a PostgreSQL repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ListProducts returns all products.
func (r *PGRepository) ListProducts(ctx context.Context) ([]Product, error) {
	return r.queryProducts(ctx, `SELECT id, name, price, owner_id FROM products ORDER BY id`)
}

// ListProductsByOwner returns the products of one owner.
func (r *PGRepository) ListProductsByOwner(ctx context.Context, ownerID int64) ([]Product, error) {
	return r.queryProducts(ctx, `SELECT id, name, price, owner_id FROM products WHERE owner_id = $1 ORDER BY id`, ownerID)
}

// GetProduct fetches one product.
func (r *PGRepository) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `SELECT id, name, price, owner_id FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.OwnerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

// CreateProduct inserts a product.
func (r *PGRepository) CreateProduct(ctx context.Context, p Product) (Product, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO products (name, price, owner_id) VALUES ($1, $2, $3) RETURNING id`,
		p.Name, p.Price, p.OwnerID).Scan(&p.ID)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

// UpdateProduct replaces name and price of a product.
func (r *PGRepository) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET name = $2, price = $3 WHERE id = $1`, p.ID, p.Name, p.Price)
	if err != nil {
		return Product{}, err
	}
	if tag.RowsAffected() == 0 {
		return Product{}, ErrNotFound
	}
	return r.GetProduct(ctx, p.ID)
}

// DeleteProduct removes a product.
func (r *PGRepository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListOrders returns all orders.
func (r *PGRepository) ListOrders(ctx context.Context) ([]Order, error) {
	return r.queryOrders(ctx, `SELECT id, product_id, quantity, owner_id FROM orders ORDER BY id`)
}

// ListOrdersByOwner returns the orders of one owner.
func (r *PGRepository) ListOrdersByOwner(ctx context.Context, ownerID int64) ([]Order, error) {
	return r.queryOrders(ctx, `SELECT id, product_id, quantity, owner_id FROM orders WHERE owner_id = $1 ORDER BY id`, ownerID)
}

// GetOrder fetches one order.
func (r *PGRepository) GetOrder(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := r.pool.QueryRow(ctx, `SELECT id, product_id, quantity, owner_id FROM orders WHERE id = $1`, id).
		Scan(&o.ID, &o.ProductID, &o.Quantity, &o.OwnerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	return o, nil
}

// ListShops returns all shops.
func (r *PGRepository) ListShops(ctx context.Context) ([]Shop, error) {
	return r.queryShops(ctx, `SELECT id, name, address, owner_id FROM shops ORDER BY id`)
}

// ListShopsByOwner returns the shops of one owner.
func (r *PGRepository) ListShopsByOwner(ctx context.Context, ownerID int64) ([]Shop, error) {
	return r.queryShops(ctx, `SELECT id, name, address, owner_id FROM shops WHERE owner_id = $1 ORDER BY id`, ownerID)
}

// GetShop fetches one shop.
func (r *PGRepository) GetShop(ctx context.Context, id int64) (Shop, error) {
	var s Shop
	err := r.pool.QueryRow(ctx, `SELECT id, name, address, owner_id FROM shops WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Address, &s.OwnerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Shop{}, ErrNotFound
		}
		return Shop{}, err
	}
	return s, nil
}

func (r *PGRepository) queryProducts(ctx context.Context, sql string, args ...any) ([]Product, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.OwnerID); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *PGRepository) queryOrders(ctx context.Context, sql string, args ...any) ([]Order, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.ProductID, &o.Quantity, &o.OwnerID); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

func (r *PGRepository) queryShops(ctx context.Context, sql string, args ...any) ([]Shop, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Shop
	for rows.Next() {
		var s Shop
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.OwnerID); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
