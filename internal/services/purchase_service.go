package services

import (
	"context"
	"sync"

	"github.com/dstorelabs/store-backend/internal/ledger"
	"github.com/dstorelabs/store-backend/internal/metrics"
	"github.com/dstorelabs/store-backend/internal/models"
	repo "github.com/dstorelabs/store-backend/internal/repository"
	"github.com/dstorelabs/store-backend/internal/worker"
)

// PurchaseService drives the client-visible settlement lifecycle: a submission
// is accepted as a pending record, settled against the ledger on the worker
// pool, and ends up completed or reverted with the failure kind as reason.
type PurchaseService struct {
	l           ledger.Ledger
	purchases   repo.Purchases
	withdrawals repo.Withdrawals
	log         repo.AuditLogs
	wp          *worker.Pool
	idem        sync.Map // Idempotency-Key -> purchase id (process-local)
	wdIdem      sync.Map // Idempotency-Key -> withdrawal id
}

func NewPurchaseService(l ledger.Ledger, p repo.Purchases, w repo.Withdrawals, a repo.AuditLogs, wp *worker.Pool) *PurchaseService {
	return &PurchaseService{l: l, purchases: p, withdrawals: w, log: a, wp: wp}
}

func (s *PurchaseService) audit(entityType, entityID, action, details string) {
	var det map[string]any
	if details != "" {
		det = map[string]any{"message": details}
	}
	_ = s.log.Create(context.Background(), models.AuditLog{
		EntityType: entityType,
		EntityID:   &entityID,
		Action:     action,
		Details:    det,
	})
}

// ----------------- Purchases -----------------

// Submit accepts a purchase for settlement. The payment amount travels with
// the record; the ledger rejects it at settlement unless it equals the price
// exactly.
func (s *PurchaseService) Submit(ctx context.Context, buyer string, productID, amount uint64, idemKey string) (models.Purchase, error) {
	if amount == 0 {
		return models.Purchase{}, ledger.ErrInvalidInput
	}

	if idemKey != "" {
		if v, ok := s.idem.Load(idemKey); ok {
			return s.purchases.GetByID(ctx, v.(string))
		}
	}

	p := models.Purchase{
		ProductID: productID,
		Buyer:     buyer,
		Amount:    amount,
		Status:    models.PurchasePending,
	}
	p, err := s.purchases.Create(ctx, p)
	if err != nil {
		return models.Purchase{}, err
	}
	s.audit("purchase", p.ID, "created", "purchase submitted")
	if idemKey != "" {
		s.idem.Store(idemKey, p.ID)
	}

	s.wp.Submit(func() { s.settlePurchase(p) })
	return p, nil
}

func (s *PurchaseService) settlePurchase(p models.Purchase) {
	ctx := context.Background()
	if err := s.l.Purchase(ctx, p.Buyer, p.ProductID, p.Amount); err != nil {
		_ = s.purchases.UpdateStatus(ctx, p.ID, models.PurchaseReverted, err.Error())
		metrics.PurchasesTotal.WithLabelValues(string(models.PurchaseReverted)).Inc()
		s.audit("purchase", p.ID, "status_change", "reverted: "+err.Error())
		return
	}
	_ = s.purchases.UpdateStatus(ctx, p.ID, models.PurchaseCompleted, "")
	metrics.PurchasesTotal.WithLabelValues(string(models.PurchaseCompleted)).Inc()
	s.audit("purchase", p.ID, "status_change", "completed")
}

func (s *PurchaseService) GetPurchase(ctx context.Context, id string) (models.Purchase, error) {
	return s.purchases.GetByID(ctx, id)
}

func (s *PurchaseService) ListByBuyer(ctx context.Context, buyer string, limit, offset int) ([]models.Purchase, error) {
	return s.purchases.ListByBuyer(ctx, buyer, limit, offset)
}

// ----------------- Withdrawals -----------------

func (s *PurchaseService) SubmitWithdrawal(ctx context.Context, seller, idemKey string) (models.Withdrawal, error) {
	if idemKey != "" {
		if v, ok := s.wdIdem.Load(idemKey); ok {
			return s.withdrawals.GetByID(ctx, v.(string))
		}
	}

	w := models.Withdrawal{
		Seller: seller,
		Status: models.PurchasePending,
	}
	w, err := s.withdrawals.Create(ctx, w)
	if err != nil {
		return models.Withdrawal{}, err
	}
	s.audit("withdrawal", w.ID, "created", "withdrawal submitted")
	if idemKey != "" {
		s.wdIdem.Store(idemKey, w.ID)
	}

	s.wp.Submit(func() { s.settleWithdrawal(w) })
	return w, nil
}

func (s *PurchaseService) settleWithdrawal(w models.Withdrawal) {
	ctx := context.Background()
	amount, err := s.l.Withdraw(ctx, w.Seller)
	if err != nil {
		_ = s.withdrawals.MarkReverted(ctx, w.ID, err.Error())
		metrics.WithdrawalsTotal.WithLabelValues(string(models.PurchaseReverted)).Inc()
		s.audit("withdrawal", w.ID, "status_change", "reverted: "+err.Error())
		return
	}
	_ = s.withdrawals.Complete(ctx, w.ID, amount)
	metrics.WithdrawalsTotal.WithLabelValues(string(models.PurchaseCompleted)).Inc()
	metrics.WithdrawnAmount.Add(float64(amount))
	s.audit("withdrawal", w.ID, "status_change", "completed")
}

func (s *PurchaseService) GetWithdrawal(ctx context.Context, id string) (models.Withdrawal, error) {
	return s.withdrawals.GetByID(ctx, id)
}

func (s *PurchaseService) ListWithdrawals(ctx context.Context, seller string, limit, offset int) ([]models.Withdrawal, error) {
	return s.withdrawals.ListBySeller(ctx, seller, limit, offset)
}
