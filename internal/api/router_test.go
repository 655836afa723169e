package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstorelabs/store-backend/internal/api/handlers"
	"github.com/dstorelabs/store-backend/internal/auth"
	"github.com/dstorelabs/store-backend/internal/config"
	ledgermem "github.com/dstorelabs/store-backend/internal/ledger/memory"
	"github.com/dstorelabs/store-backend/internal/middleware"
	repomem "github.com/dstorelabs/store-backend/internal/repository/memory"
	"github.com/dstorelabs/store-backend/internal/services"
	"github.com/dstorelabs/store-backend/internal/worker"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	ldg := ledgermem.New()
	repos := repomem.NewRepositories()
	wp := worker.NewPool(2)
	t.Cleanup(wp.Stop)

	tm := auth.NewTokenManager("test-access", "test-refresh", "store-backend-test", time.Minute, time.Hour)

	r := NewRouter(RouterDeps{
		Cfg:         config.Config{Env: "test", RateRPS: 0},
		Auth:        handlers.NewAuthHandler(services.NewUserService(repos.Users, tm), tm),
		AuthMW:      middleware.NewAuthMiddleware(tm),
		CatalogSvc:  services.NewCatalogService(ldg, repos.AuditLogs),
		BalanceSvc:  services.NewBalanceService(ldg),
		PurchaseSvc: services.NewPurchaseService(ldg, repos.Purchases, repos.Withdrawals, repos.AuditLogs, wp),
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func registerAndLogin(t *testing.T, srv *httptest.Server, username, email string) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/register", "", map[string]string{
		"username": username, "email": email, "password": "hunter2hunter2",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/login", "", map[string]string{
		"email": email, "password": "hunter2hunter2",
	}, &tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, tok.AccessToken)
	return tok.AccessToken
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRequiredForMutations(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/products", "", map[string]any{
		"name": "ebook", "download_link": "http://x/e.pdf", "price": 1000,
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAddProductValidation(t *testing.T) {
	srv := newTestServer(t)
	seller := registerAndLogin(t, srv, "seller", "seller@example.com")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/products", seller, map[string]any{
		"name": "", "download_link": "http://x/e.pdf", "price": 0,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStorefrontFlow(t *testing.T) {
	srv := newTestServer(t)
	seller := registerAndLogin(t, srv, "seller", "seller@example.com")
	buyer := registerAndLogin(t, srv, "buyer", "buyer@example.com")

	// seller lists a product
	var created struct {
		ID uint64 `json:"id"`
	}
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/products", seller, map[string]any{
		"name": "ebook", "download_link": "http://x/e.pdf", "price": 1000,
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, uint64(0), created.ID)

	// anonymous browsing never sees the link
	var list []struct {
		Name         string `json:"name"`
		DownloadLink string `json:"download_link"`
	}
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/products", "", nil, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].DownloadLink)

	// the seller sees their own link
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/products", seller, nil, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://x/e.pdf", list[0].DownloadLink)

	// buyer purchases at the exact price
	var purchase struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/purchases", buyer, map[string]any{
		"product_id": 0, "amount": 1000,
	}, &purchase)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "pending", purchase.Status)

	require.Eventually(t, func() bool {
		var got struct {
			Status string `json:"status"`
		}
		resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/purchases/"+purchase.ID, buyer, nil, &got)
		return resp.StatusCode == http.StatusOK && got.Status == "completed"
	}, 2*time.Second, 10*time.Millisecond)

	// receipt is visible and the link is now revealed
	var purchased struct {
		Purchased bool `json:"purchased"`
	}
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/products/0/purchased", buyer, nil, &purchased)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, purchased.Purchased)

	var prod struct {
		DownloadLink string `json:"download_link"`
	}
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/products/0", buyer, nil, &prod)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://x/e.pdf", prod.DownloadLink)

	// double purchase settles reverted
	var dup struct {
		ID string `json:"id"`
	}
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/purchases", buyer, map[string]any{
		"product_id": 0, "amount": 1000,
	}, &dup)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Eventually(t, func() bool {
		var got struct {
			Status string `json:"status"`
			Reason string `json:"reason"`
		}
		resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/purchases/"+dup.ID, buyer, nil, &got)
		return resp.StatusCode == http.StatusOK && got.Status == "reverted" && got.Reason == "already purchased"
	}, 2*time.Second, 10*time.Millisecond)

	// seller balance reflects the single sale
	var bal struct {
		Amount uint64 `json:"amount"`
	}
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/balance", seller, nil, &bal)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, uint64(1000), bal.Amount)

	// withdraw everything
	var wd struct {
		ID string `json:"id"`
	}
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/withdrawals", seller, nil, &wd)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Eventually(t, func() bool {
		var got struct {
			Status string `json:"status"`
			Amount uint64 `json:"amount"`
		}
		resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/withdrawals/"+wd.ID, seller, nil, &got)
		return resp.StatusCode == http.StatusOK && got.Status == "completed" && got.Amount == 1000
	}, 2*time.Second, 10*time.Millisecond)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/balance", seller, nil, &bal)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, bal.Amount)
}

func TestGetProductNotFound(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(fmt.Sprintf("%s/api/v1/products/%d", srv.URL, 42))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
