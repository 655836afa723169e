package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstorelabs/store-backend/internal/ledger"
	ledgermem "github.com/dstorelabs/store-backend/internal/ledger/memory"
	repomem "github.com/dstorelabs/store-backend/internal/repository/memory"
)

func newCatalog() *CatalogService {
	repos := repomem.NewRepositories()
	return NewCatalogService(ledgermem.New(), repos.AuditLogs)
}

func TestCatalogAddTrimsAndAssignsIDs(t *testing.T) {
	cs := newCatalog()
	ctx := context.Background()

	id, err := cs.AddProduct(ctx, "seller-a", "  ebook  ", " http://x/e.pdf ", 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), id)

	p, err := cs.Get(ctx, "seller-a", id)
	require.NoError(t, err)
	assert.Equal(t, "ebook", p.Name)
	assert.Equal(t, "http://x/e.pdf", p.DownloadLink)

	id2, err := cs.AddProduct(ctx, "seller-a", "pack", "http://x/p.zip", 200)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id2)

	n, err := cs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
}

func TestCatalogAddRejectsBlankFields(t *testing.T) {
	cs := newCatalog()
	ctx := context.Background()

	_, err := cs.AddProduct(ctx, "seller-a", "   ", "http://x/e.pdf", 1000)
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
	_, err = cs.AddProduct(ctx, "seller-a", "ebook", "http://x/e.pdf", 0)
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func TestCatalogListRedactsForStrangers(t *testing.T) {
	cs := newCatalog()
	ctx := context.Background()

	_, err := cs.AddProduct(ctx, "seller-a", "ebook", "http://x/e.pdf", 1000)
	require.NoError(t, err)

	list, err := cs.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].DownloadLink)

	list, err = cs.List(ctx, "seller-a")
	require.NoError(t, err)
	assert.Equal(t, "http://x/e.pdf", list[0].DownloadLink)
}

func TestCatalogDeactivateSellerOnly(t *testing.T) {
	cs := newCatalog()
	ctx := context.Background()

	id, err := cs.AddProduct(ctx, "seller-a", "ebook", "http://x/e.pdf", 1000)
	require.NoError(t, err)

	assert.ErrorIs(t, cs.Deactivate(ctx, "stranger", id), ledger.ErrForbidden)
	require.NoError(t, cs.Deactivate(ctx, "seller-a", id))

	p, err := cs.Get(ctx, "seller-a", id)
	require.NoError(t, err)
	assert.False(t, p.IsActive)
}
