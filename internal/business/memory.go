package business

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-memory Repository for tests and local runs.
// Safe for concurrent use.
type MemoryRepository struct {
	mu         sync.RWMutex
	products   map[int64]Product
	orders     map[int64]Order
	shops      map[int64]Shop
	nextProdID int64
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		products:   make(map[int64]Product),
		orders:     make(map[int64]Order),
		shops:      make(map[int64]Shop),
		nextProdID: 1,
	}
}

// NewSeededMemoryRepository constructs a repository carrying the demo rows.
func NewSeededMemoryRepository() *MemoryRepository {
	r := NewMemoryRepository()
	r.products = map[int64]Product{
		1: {ID: 1, Name: "Product 1", Price: 100, OwnerID: 1},
		2: {ID: 2, Name: "Product 2", Price: 200, OwnerID: 2},
		3: {ID: 3, Name: "Product 3", Price: 300, OwnerID: 1},
	}
	r.orders = map[int64]Order{
		1: {ID: 1, ProductID: 1, Quantity: 2, OwnerID: 1},
		2: {ID: 2, ProductID: 2, Quantity: 1, OwnerID: 2},
		3: {ID: 3, ProductID: 3, Quantity: 3, OwnerID: 1},
	}
	r.shops = map[int64]Shop{
		1: {ID: 1, Name: "Shop 1", Address: "Address 1", OwnerID: 1},
		2: {ID: 2, Name: "Shop 2", Address: "Address 2", OwnerID: 2},
	}
	r.nextProdID = 4
	return r
}

// ListProducts returns all products ordered by id.
func (r *MemoryRepository) ListProducts(_ context.Context) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ListProductsByOwner returns the products of one owner ordered by id.
func (r *MemoryRepository) ListProductsByOwner(_ context.Context, ownerID int64) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []Product
	for _, p := range r.products {
		if p.OwnerID == ownerID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetProduct fetches one product.
func (r *MemoryRepository) GetProduct(_ context.Context, id int64) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

// CreateProduct inserts a product.
func (r *MemoryRepository) CreateProduct(_ context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.nextProdID
	r.nextProdID++
	r.products[p.ID] = p
	return p, nil
}

// UpdateProduct replaces name and price of a product.
func (r *MemoryRepository) UpdateProduct(_ context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.products[p.ID]
	if !ok {
		return Product{}, ErrNotFound
	}
	existing.Name = p.Name
	existing.Price = p.Price
	r.products[p.ID] = existing
	return existing, nil
}

// DeleteProduct removes a product.
func (r *MemoryRepository) DeleteProduct(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return ErrNotFound
	}
	delete(r.products, id)
	return nil
}

// ListOrders returns all orders ordered by id.
func (r *MemoryRepository) ListOrders(_ context.Context) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Order, 0, len(r.orders))
	for _, o := range r.orders {
		result = append(result, o)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ListOrdersByOwner returns the orders of one owner ordered by id.
func (r *MemoryRepository) ListOrdersByOwner(_ context.Context, ownerID int64) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []Order
	for _, o := range r.orders {
		if o.OwnerID == ownerID {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetOrder fetches one order.
func (r *MemoryRepository) GetOrder(_ context.Context, id int64) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

// ListShops returns all shops ordered by id.
func (r *MemoryRepository) ListShops(_ context.Context) ([]Shop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Shop, 0, len(r.shops))
	for _, s := range r.shops {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ListShopsByOwner returns the shops of one owner ordered by id.
func (r *MemoryRepository) ListShopsByOwner(_ context.Context, ownerID int64) ([]Shop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []Shop
	for _, s := range r.shops {
		if s.OwnerID == ownerID {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetShop fetches one shop.
func (r *MemoryRepository) GetShop(_ context.Context, id int64) (Shop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shops[id]
	if !ok {
		return Shop{}, ErrNotFound
	}
	return s, nil
}

var _ Repository = (*MemoryRepository)(nil)
