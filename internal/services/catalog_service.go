package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/dstorelabs/store-backend/internal/ledger"
	"github.com/dstorelabs/store-backend/internal/metrics"
	"github.com/dstorelabs/store-backend/internal/models"
	repo "github.com/dstorelabs/store-backend/internal/repository"
)

// CatalogService fronts the ledger's catalog operations with input hygiene and
// an audit trail.
type CatalogService struct {
	l     ledger.Ledger
	audit repo.AuditLogs
}

func NewCatalogService(l ledger.Ledger, audit repo.AuditLogs) *CatalogService {
	return &CatalogService{l: l, audit: audit}
}

func (s *CatalogService) auditProduct(ctx context.Context, id uint64, action string, details map[string]any) {
	entityID := strconv.FormatUint(id, 10)
	_ = s.audit.Create(ctx, models.AuditLog{
		EntityType: "product",
		EntityID:   &entityID,
		Action:     action,
		Details:    details,
	})
}

func (s *CatalogService) AddProduct(ctx context.Context, seller, name, link string, price uint64) (uint64, error) {
	name = strings.TrimSpace(name)
	link = strings.TrimSpace(link)

	id, err := s.l.AddProduct(ctx, seller, name, link, price)
	if err != nil {
		return 0, err
	}
	metrics.ProductsCreated.Inc()
	s.auditProduct(ctx, id, "created", map[string]any{"seller": seller, "price": price})
	return id, nil
}

func (s *CatalogService) Get(ctx context.Context, caller string, id uint64) (models.Product, error) {
	return s.l.GetProduct(ctx, caller, id)
}

func (s *CatalogService) List(ctx context.Context, caller string) ([]models.Product, error) {
	return s.l.ListProducts(ctx, caller)
}

func (s *CatalogService) Count(ctx context.Context) (uint64, error) {
	return s.l.ProductCount(ctx)
}

func (s *CatalogService) HasPurchased(ctx context.Context, buyer string, id uint64) (bool, error) {
	return s.l.HasPurchased(ctx, buyer, id)
}

func (s *CatalogService) Deactivate(ctx context.Context, caller string, id uint64) error {
	if err := s.l.Deactivate(ctx, caller, id); err != nil {
		return err
	}
	s.auditProduct(ctx, id, "deactivated", map[string]any{"caller": caller})
	return nil
}
