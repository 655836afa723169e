// Package memory holds the in-process ledger backend. It is the default when
// no database is configured and the reference implementation for the ledger's
// invariants.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dstorelabs/store-backend/internal/ledger"
	"github.com/dstorelabs/store-backend/internal/models"
)

type receiptKey struct {
	productID uint64
	buyer     string
}

// Ledger serializes every mutating operation behind a single mutex, so each
// call observes the latest committed state and commits or fails whole.
type Ledger struct {
	mu       sync.RWMutex
	products []models.Product
	receipts map[receiptKey]struct{}
	balances map[string]uint64
}

func New() *Ledger {
	return &Ledger{
		receipts: make(map[receiptKey]struct{}),
		balances: make(map[string]uint64),
	}
}

var _ ledger.Ledger = (*Ledger)(nil)

func (l *Ledger) AddProduct(_ context.Context, seller, name, link string, price uint64) (uint64, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(link) == "" || price == 0 {
		return 0, ledger.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	id := uint64(len(l.products))
	l.products = append(l.products, models.Product{
		ID:           id,
		Name:         name,
		DownloadLink: link,
		Price:        price,
		Seller:       seller,
		IsActive:     true,
		CreatedAt:    time.Now(),
	})
	return id, nil
}

func (l *Ledger) GetProduct(_ context.Context, caller string, id uint64) (models.Product, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if id >= uint64(len(l.products)) {
		return models.Product{}, ledger.ErrNotFound
	}
	return l.redacted(l.products[id], caller), nil
}

func (l *Ledger) ListProducts(_ context.Context, caller string) ([]models.Product, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Product, 0, len(l.products))
	for _, p := range l.products {
		out = append(out, l.redacted(p, caller))
	}
	return out, nil
}

func (l *Ledger) ProductCount(_ context.Context) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.products)), nil
}

func (l *Ledger) HasPurchased(_ context.Context, buyer string, id uint64) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.receipts[receiptKey{id, buyer}]
	return ok, nil
}

func (l *Ledger) Purchase(_ context.Context, buyer string, id uint64, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id >= uint64(len(l.products)) {
		return ledger.ErrNotFound
	}
	p := l.products[id]
	if !p.IsActive {
		return ledger.ErrProductInactive
	}
	if _, ok := l.receipts[receiptKey{id, buyer}]; ok {
		return ledger.ErrAlreadyPurchased
	}
	if amount != p.Price {
		return ledger.ErrPaymentMismatch
	}
	l.receipts[receiptKey{id, buyer}] = struct{}{}
	l.balances[p.Seller] += amount
	return nil
}

func (l *Ledger) Withdraw(_ context.Context, seller string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	amount := l.balances[seller]
	if amount == 0 {
		return 0, ledger.ErrNoFunds
	}
	// Zero before the amount leaves the ledger.
	delete(l.balances, seller)
	return amount, nil
}

func (l *Ledger) Balance(_ context.Context, seller string) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[seller], nil
}

func (l *Ledger) Deactivate(_ context.Context, caller string, id uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id >= uint64(len(l.products)) {
		return ledger.ErrNotFound
	}
	if l.products[id].Seller != caller {
		return ledger.ErrForbidden
	}
	l.products[id].IsActive = false
	return nil
}

// redacted returns a copy with the download link hidden from callers who have
// neither purchased the product nor listed it. Callers hold the read lock.
func (l *Ledger) redacted(p models.Product, caller string) models.Product {
	if caller == p.Seller {
		return p
	}
	if _, ok := l.receipts[receiptKey{p.ID, caller}]; ok {
		return p
	}
	p.DownloadLink = ""
	return p
}
