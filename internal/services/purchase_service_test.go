package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgermem "github.com/dstorelabs/store-backend/internal/ledger/memory"
	"github.com/dstorelabs/store-backend/internal/models"
	repomem "github.com/dstorelabs/store-backend/internal/repository/memory"
	"github.com/dstorelabs/store-backend/internal/worker"
)

func newPurchaseFixture(t *testing.T) (*PurchaseService, *CatalogService, *BalanceService) {
	t.Helper()
	l := ledgermem.New()
	repos := repomem.NewRepositories()
	wp := worker.NewPool(2)
	t.Cleanup(wp.Stop)
	return NewPurchaseService(l, repos.Purchases, repos.Withdrawals, repos.AuditLogs, wp),
		NewCatalogService(l, repos.AuditLogs),
		NewBalanceService(l)
}

func waitStatus(t *testing.T, get func() (models.PurchaseStatus, error), want models.PurchaseStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		st, err := get()
		return err == nil && st == want
	}, 2*time.Second, 5*time.Millisecond)
}

func TestPurchaseLifecycleCompleted(t *testing.T) {
	ps, cs, bs := newPurchaseFixture(t)
	ctx := context.Background()

	id, err := cs.AddProduct(ctx, "seller-a", "ebook", "http://x/e.pdf", 1000)
	require.NoError(t, err)

	p, err := ps.Submit(ctx, "buyer-b", id, 1000, "")
	require.NoError(t, err)
	assert.Equal(t, models.PurchasePending, p.Status)

	waitStatus(t, func() (models.PurchaseStatus, error) {
		got, err := ps.GetPurchase(ctx, p.ID)
		return got.Status, err
	}, models.PurchaseCompleted)

	ok, err := cs.HasPurchased(ctx, "buyer-b", id)
	require.NoError(t, err)
	assert.True(t, ok)

	bal, err := bs.Current(ctx, "seller-a")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), bal)
}

func TestPurchaseLifecycleReverted(t *testing.T) {
	ps, cs, bs := newPurchaseFixture(t)
	ctx := context.Background()

	id, err := cs.AddProduct(ctx, "seller-a", "ebook", "http://x/e.pdf", 1000)
	require.NoError(t, err)

	// wrong amount settles as reverted, with the failure kind as reason
	p, err := ps.Submit(ctx, "buyer-b", id, 999, "")
	require.NoError(t, err)

	waitStatus(t, func() (models.PurchaseStatus, error) {
		got, err := ps.GetPurchase(ctx, p.ID)
		return got.Status, err
	}, models.PurchaseReverted)

	got, err := ps.GetPurchase(ctx, p.ID)
	require.NoError(t, err)
	assert.Contains(t, got.Reason, "payment amount")

	ok, _ := cs.HasPurchased(ctx, "buyer-b", id)
	assert.False(t, ok)
	bal, _ := bs.Current(ctx, "seller-a")
	assert.Zero(t, bal)
}

func TestPurchaseZeroAmountRejectedUpFront(t *testing.T) {
	ps, cs, _ := newPurchaseFixture(t)
	ctx := context.Background()
	_, err := cs.AddProduct(ctx, "seller-a", "ebook", "http://x/e.pdf", 1000)
	require.NoError(t, err)

	_, err = ps.Submit(ctx, "buyer-b", 0, 0, "")
	assert.Error(t, err)
}

func TestPurchaseIdempotencyReplay(t *testing.T) {
	ps, cs, _ := newPurchaseFixture(t)
	ctx := context.Background()
	id, err := cs.AddProduct(ctx, "seller-a", "ebook", "http://x/e.pdf", 1000)
	require.NoError(t, err)

	first, err := ps.Submit(ctx, "buyer-b", id, 1000, "key-1")
	require.NoError(t, err)
	second, err := ps.Submit(ctx, "buyer-b", id, 1000, "key-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	list, err := ps.ListByBuyer(ctx, "buyer-b", 50, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestWithdrawalLifecycle(t *testing.T) {
	ps, cs, bs := newPurchaseFixture(t)
	ctx := context.Background()

	id, err := cs.AddProduct(ctx, "seller-a", "ebook", "http://x/e.pdf", 1000)
	require.NoError(t, err)
	p, err := ps.Submit(ctx, "buyer-b", id, 1000, "")
	require.NoError(t, err)
	waitStatus(t, func() (models.PurchaseStatus, error) {
		got, err := ps.GetPurchase(ctx, p.ID)
		return got.Status, err
	}, models.PurchaseCompleted)

	w, err := ps.SubmitWithdrawal(ctx, "seller-a", "")
	require.NoError(t, err)
	waitStatus(t, func() (models.PurchaseStatus, error) {
		got, err := ps.GetWithdrawal(ctx, w.ID)
		return got.Status, err
	}, models.PurchaseCompleted)

	got, err := ps.GetWithdrawal(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), got.Amount)

	bal, _ := bs.Current(ctx, "seller-a")
	assert.Zero(t, bal)

	// second withdrawal settles reverted: nothing left
	w2, err := ps.SubmitWithdrawal(ctx, "seller-a", "")
	require.NoError(t, err)
	waitStatus(t, func() (models.PurchaseStatus, error) {
		got, err := ps.GetWithdrawal(ctx, w2.ID)
		return got.Status, err
	}, models.PurchaseReverted)
}

func TestWithdrawalIdempotencyReplay(t *testing.T) {
	ps, _, _ := newPurchaseFixture(t)
	ctx := context.Background()

	first, err := ps.SubmitWithdrawal(ctx, "seller-a", "wd-key")
	require.NoError(t, err)
	second, err := ps.SubmitWithdrawal(ctx, "seller-a", "wd-key")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}
