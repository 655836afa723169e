package repository

import (
	"context"

	"github.com/dstorelabs/store-backend/internal/models"
)

type Users interface {
	Create(ctx context.Context, username, email, passwordHash string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
}

type Purchases interface {
	Create(ctx context.Context, p models.Purchase) (models.Purchase, error)
	GetByID(ctx context.Context, id string) (models.Purchase, error)
	ListByBuyer(ctx context.Context, buyer string, limit, offset int) ([]models.Purchase, error)
	UpdateStatus(ctx context.Context, id string, status models.PurchaseStatus, reason string) error
}

type Withdrawals interface {
	Create(ctx context.Context, w models.Withdrawal) (models.Withdrawal, error)
	GetByID(ctx context.Context, id string) (models.Withdrawal, error)
	ListBySeller(ctx context.Context, seller string, limit, offset int) ([]models.Withdrawal, error)
	// Complete records the settled amount and marks the withdrawal completed.
	Complete(ctx context.Context, id string, amount uint64) error
	MarkReverted(ctx context.Context, id, reason string) error
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}

// Repositories bundles one implementation of every store.
type Repositories struct {
	Users       Users
	Purchases   Purchases
	Withdrawals Withdrawals
	AuditLogs   AuditLogs
}
