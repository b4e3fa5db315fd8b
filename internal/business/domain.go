// Package business hosts the demo resources protected by the decision
// engine: products, orders and shops. The engine never reaches into this
// storage itself; it sees owners only through resolver callbacks.
package business

import "errors"

// ErrNotFound indicates the addressed record does not exist.
var ErrNotFound = errors.New("business: not found")

// Element names registered in the permission matrix.
const (
	ElementProducts = "products"
	ElementOrders   = "orders"
	ElementShops    = "shops"
)

// Product is a sellable item owned by the user who created it.
type Product struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Price   int64  `json:"price"`
	OwnerID int64  `json:"owner_id"`
}

// Order references a product and belongs to the ordering user.
type Order struct {
	ID        int64 `json:"id"`
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
	OwnerID   int64 `json:"owner_id"`
}

// Shop is a storefront owned by a user.
type Shop struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	OwnerID int64  `json:"owner_id"`
}
