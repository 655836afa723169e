// Package ledger defines the product ledger: the catalog of products,
// per-buyer purchase receipts and per-seller withdrawable balances, together
// with the rules that govern them. Every mutating operation executes as a
// single atomic step; implementations provide that guarantee either with a
// process-wide lock (memory) or one database transaction per call (postgres).
package ledger

import (
	"context"
	"errors"

	"github.com/dstorelabs/store-backend/internal/models"
)

var (
	// ErrInvalidInput indicates a malformed AddProduct argument.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound indicates the product id does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrProductInactive indicates the product exists but is no longer purchasable.
	ErrProductInactive = errors.New("product inactive")
	// ErrAlreadyPurchased indicates the buyer already holds a receipt for the product.
	ErrAlreadyPurchased = errors.New("already purchased")
	// ErrPaymentMismatch indicates the payment amount does not equal the price.
	ErrPaymentMismatch = errors.New("payment amount does not match price")
	// ErrNoFunds indicates a withdrawal against a zero balance.
	ErrNoFunds = errors.New("no funds available")
	// ErrForbidden indicates the caller is not the product's seller.
	ErrForbidden = errors.New("caller is not the seller")
)

// Ledger is the full surface of the accounting core. Identities are opaque
// strings supplied by the caller's authentication context; the ledger never
// authenticates them itself.
type Ledger interface {
	// AddProduct appends a product with the next sequential id (starting at 0)
	// and seller set to the caller. Name and link must be non-empty and price
	// must be positive.
	AddProduct(ctx context.Context, seller, name, link string, price uint64) (uint64, error)

	// GetProduct returns the product record. The download link is blanked
	// unless the caller has purchased the product or is its seller.
	GetProduct(ctx context.Context, caller string, id uint64) (models.Product, error)

	// ListProducts returns all products in id order, with the same link
	// redaction as GetProduct applied per product.
	ListProducts(ctx context.Context, caller string) ([]models.Product, error)

	// ProductCount returns the number of products ever added.
	ProductCount(ctx context.Context) (uint64, error)

	// HasPurchased reports whether a receipt exists for (id, buyer).
	HasPurchased(ctx context.Context, buyer string, id uint64) (bool, error)

	// Purchase records a receipt for (id, buyer) and credits the full amount
	// to the seller's balance. The amount must equal the price exactly.
	Purchase(ctx context.Context, buyer string, id uint64, amount uint64) error

	// Withdraw zeroes the seller's balance and returns the amount that was
	// held. The balance is zeroed before the amount is released.
	Withdraw(ctx context.Context, seller string) (uint64, error)

	// Balance returns the seller's current withdrawable balance.
	Balance(ctx context.Context, seller string) (uint64, error)

	// Deactivate flips the product to inactive. Seller only, one way.
	Deactivate(ctx context.Context, caller string, id uint64) error
}
