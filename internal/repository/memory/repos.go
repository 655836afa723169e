// Package memory provides map-backed repositories for running without a
// database (dev mode and tests).
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dstorelabs/store-backend/internal/models"
	repo "github.com/dstorelabs/store-backend/internal/repository"
)

var ErrNotFound = errors.New("record not found")

func NewRepositories() repo.Repositories {
	return repo.Repositories{
		Users:       &usersRepo{byID: map[string]models.User{}, byEmail: map[string]string{}},
		Purchases:   &purchasesRepo{m: map[string]models.Purchase{}},
		Withdrawals: &withdrawalsRepo{m: map[string]models.Withdrawal{}},
		AuditLogs:   &auditLogsRepo{},
	}
}

type usersRepo struct {
	mu      sync.RWMutex
	byID    map[string]models.User
	byEmail map[string]string
}

func (r *usersRepo) Create(_ context.Context, username, email, hash string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[email]; ok {
		return models.User{}, errors.New("email already registered")
	}
	now := time.Now()
	u := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.byID[u.ID] = u
	r.byEmail[email] = u.ID
	return u, nil
}

func (r *usersRepo) GetByID(_ context.Context, id string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) GetByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return r.byID[id], nil
}

type purchasesRepo struct {
	mu sync.RWMutex
	m  map[string]models.Purchase
}

func (r *purchasesRepo) Create(_ context.Context, p models.Purchase) (models.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	r.m[p.ID] = p
	return p, nil
}

func (r *purchasesRepo) GetByID(_ context.Context, id string) (models.Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.m[id]
	if !ok {
		return models.Purchase{}, ErrNotFound
	}
	return p, nil
}

func (r *purchasesRepo) ListByBuyer(_ context.Context, buyer string, limit, offset int) ([]models.Purchase, error) {
	r.mu.RLock()
	var out []models.Purchase
	for _, p := range r.m {
		if p.Buyer == buyer {
			out = append(out, p)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *purchasesRepo) UpdateStatus(_ context.Context, id string, status models.PurchaseStatus, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.m[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	p.Reason = reason
	r.m[id] = p
	return nil
}

type withdrawalsRepo struct {
	mu sync.RWMutex
	m  map[string]models.Withdrawal
}

func (r *withdrawalsRepo) Create(_ context.Context, w models.Withdrawal) (models.Withdrawal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	r.m[w.ID] = w
	return w, nil
}

func (r *withdrawalsRepo) GetByID(_ context.Context, id string) (models.Withdrawal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.m[id]
	if !ok {
		return models.Withdrawal{}, ErrNotFound
	}
	return w, nil
}

func (r *withdrawalsRepo) ListBySeller(_ context.Context, seller string, limit, offset int) ([]models.Withdrawal, error) {
	r.mu.RLock()
	var out []models.Withdrawal
	for _, w := range r.m {
		if w.Seller == seller {
			out = append(out, w)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *withdrawalsRepo) Complete(_ context.Context, id string, amount uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.m[id]
	if !ok {
		return ErrNotFound
	}
	w.Status = models.PurchaseCompleted
	w.Amount = amount
	r.m[id] = w
	return nil
}

func (r *withdrawalsRepo) MarkReverted(_ context.Context, id, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.m[id]
	if !ok {
		return ErrNotFound
	}
	w.Status = models.PurchaseReverted
	w.Reason = reason
	r.m[id] = w
	return nil
}

type auditLogsRepo struct {
	mu   sync.Mutex
	logs []models.AuditLog
}

func (r *auditLogsRepo) Create(_ context.Context, l models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.CreatedAt = time.Now()
	r.logs = append(r.logs, l)
	return nil
}
