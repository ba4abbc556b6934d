// Package directory talks to the two remote directory services that own
// customer and product data. This service keeps no copy of either entity
// beyond bare identifiers and price snapshots, so every read here goes over
// the network.
package directory

import (
	"context"
	"errors"
)

// ErrNotFound means the remote service answered and reported that no entity
// with the given id exists.
var ErrNotFound = errors.New("directory: entity not found")

// ErrUnavailable means the remote call could not complete: network failure,
// timeout, cancellation, or a non-2xx answer other than 404.
var ErrUnavailable = errors.New("directory: service unavailable")

// Customer as served by the customer directory.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Product as served by the product directory. Quantity is the directory's
// stock level, unrelated to a line item's billed quantity.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

// Client is the capability interface over both directories. Implementations
// perform no retries; retry policy belongs to the caller.
type Client interface {
	ListCustomers(ctx context.Context) ([]Customer, error)
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
}
