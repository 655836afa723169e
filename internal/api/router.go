package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dstorelabs/store-backend/internal/api/handlers"
	"github.com/dstorelabs/store-backend/internal/api/httpx"
	"github.com/dstorelabs/store-backend/internal/api/validate"
	"github.com/dstorelabs/store-backend/internal/config"
	"github.com/dstorelabs/store-backend/internal/ledger"
	"github.com/dstorelabs/store-backend/internal/middleware"
	"github.com/dstorelabs/store-backend/internal/services"
)

type RouterDeps struct {
	Cfg        config.Config
	Auth       *handlers.AuthHandler
	AuthMW     *middleware.AuthMiddleware
	CatalogSvc *services.CatalogService
	BalanceSvc *services.BalanceService
	PurchaseSvc *services.PurchaseService
}

// writeLedgerError maps the ledger's failure kinds onto HTTP statuses. Each
// kind is distinct; anything else is a 500.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
	case errors.Is(err, ledger.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, ledger.ErrProductInactive):
		httpx.WriteError(w, http.StatusConflict, "product_inactive", err.Error(), nil)
	case errors.Is(err, ledger.ErrAlreadyPurchased):
		httpx.WriteError(w, http.StatusConflict, "already_purchased", err.Error(), nil)
	case errors.Is(err, ledger.ErrPaymentMismatch):
		httpx.WriteError(w, http.StatusUnprocessableEntity, "payment_mismatch", err.Error(), nil)
	case errors.Is(err, ledger.ErrNoFunds):
		httpx.WriteError(w, http.StatusUnprocessableEntity, "no_funds_available", err.Error(), nil)
	case errors.Is(err, ledger.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "forbidden", err.Error(), nil)
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}

func productID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
}

func caller(r *http.Request) string {
	id, _ := middleware.Identity(r.Context())
	return id
}

func pagination(r *http.Request) (limit, offset int) {
	limit, offset = 50, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 { limit = n }
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 { offset = n }
	}
	return limit, offset
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.RateLimit(d.Cfg.RateRPS), middleware.HTTPMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- auth ----------
		r.Post("/auth/register", d.Auth.Register)
		r.Post("/auth/login", d.Auth.Login)
		r.Post("/auth/refresh", d.Auth.Refresh)

		// ---------- catalog (public reads, identity optional for link reveal) ----------
		r.Group(func(r chi.Router) {
			r.Use(d.AuthMW.Optional)

			r.Get("/products", func(w http.ResponseWriter, r *http.Request) {
				list, err := d.CatalogSvc.List(r.Context(), caller(r))
				if err != nil { writeLedgerError(w, err); return }
				httpx.WriteJSON(w, http.StatusOK, list)
			})

			r.Get("/products/count", func(w http.ResponseWriter, r *http.Request) {
				n, err := d.CatalogSvc.Count(r.Context())
				if err != nil { writeLedgerError(w, err); return }
				httpx.WriteJSON(w, http.StatusOK, map[string]uint64{"count": n})
			})

			r.Get("/products/{id}", func(w http.ResponseWriter, r *http.Request) {
				id, err := productID(r)
				if err != nil { httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid product id", nil); return }
				p, err := d.CatalogSvc.Get(r.Context(), caller(r), id)
				if err != nil { writeLedgerError(w, err); return }
				httpx.WriteJSON(w, http.StatusOK, p)
			})
		})

		// ---------- authenticated ----------
		r.Group(func(r chi.Router) {
			r.Use(d.AuthMW.Auth)

			r.Post("/products", func(w http.ResponseWriter, r *http.Request) {
				var req struct {
					Name         string `json:"name"`
					DownloadLink string `json:"download_link"`
					Price        uint64 `json:"price"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "malformed JSON body", nil); return
				}
				var errs validate.Errs
				if e := validate.Required("name", req.Name); e != nil { errs = append(errs, *e) }
				if e := validate.Required("download_link", req.DownloadLink); e != nil { errs = append(errs, *e) }
				if e := validate.Positive("price", req.Price); e != nil { errs = append(errs, *e) }
				if len(errs) > 0 {
					httpx.WriteError(w, http.StatusBadRequest, "invalid_input", errs.Error(), errs); return
				}
				id, err := d.CatalogSvc.AddProduct(r.Context(), caller(r), req.Name, req.DownloadLink, req.Price)
				if err != nil { writeLedgerError(w, err); return }
				httpx.WriteJSON(w, http.StatusCreated, map[string]uint64{"id": id})
			})

			r.Post("/products/{id}/deactivate", func(w http.ResponseWriter, r *http.Request) {
				id, err := productID(r)
				if err != nil { httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid product id", nil); return }
				if err := d.CatalogSvc.Deactivate(r.Context(), caller(r), id); err != nil {
					writeLedgerError(w, err); return
				}
				w.WriteHeader(http.StatusNoContent)
			})

			r.Get("/products/{id}/purchased", func(w http.ResponseWriter, r *http.Request) {
				id, err := productID(r)
				if err != nil { httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid product id", nil); return }
				ok, err := d.CatalogSvc.HasPurchased(r.Context(), caller(r), id)
				if err != nil { writeLedgerError(w, err); return }
				httpx.WriteJSON(w, http.StatusOK, map[string]bool{"purchased": ok})
			})

			// purchase submission; settles asynchronously
			r.Post("/purchases", func(w http.ResponseWriter, r *http.Request) {
				idem := r.Header.Get("Idempotency-Key")
				var req struct {
					ProductID uint64 `json:"product_id"`
					Amount    uint64 `json:"amount"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "malformed JSON body", nil); return
				}
				p, err := d.PurchaseSvc.Submit(r.Context(), caller(r), req.ProductID, req.Amount, idem)
				if err != nil { writeLedgerError(w, err); return }
				httpx.WriteJSON(w, http.StatusAccepted, p)
			})

			r.Get("/purchases", func(w http.ResponseWriter, r *http.Request) {
				limit, offset := pagination(r)
				list, err := d.PurchaseSvc.ListByBuyer(r.Context(), caller(r), limit, offset)
				if err != nil { httpx.WriteError(w, http.StatusInternalServerError, "internal_error", err.Error(), nil); return }
				httpx.WriteJSON(w, http.StatusOK, list)
			})

			r.Get("/purchases/{id}", func(w http.ResponseWriter, r *http.Request) {
				p, err := d.PurchaseSvc.GetPurchase(r.Context(), chi.URLParam(r, "id"))
				if err != nil { httpx.WriteError(w, http.StatusNotFound, "not_found", "purchase not found", nil); return }
				httpx.WriteJSON(w, http.StatusOK, p)
			})

			r.Get("/balance", func(w http.ResponseWriter, r *http.Request) {
				amount, err := d.BalanceSvc.Current(r.Context(), caller(r))
				if err != nil { httpx.WriteError(w, http.StatusInternalServerError, "internal_error", err.Error(), nil); return }
				httpx.WriteJSON(w, http.StatusOK, map[string]any{"seller": caller(r), "amount": amount})
			})

			r.Post("/withdrawals", func(w http.ResponseWriter, r *http.Request) {
				idem := r.Header.Get("Idempotency-Key")
				wd, err := d.PurchaseSvc.SubmitWithdrawal(r.Context(), caller(r), idem)
				if err != nil { writeLedgerError(w, err); return }
				httpx.WriteJSON(w, http.StatusAccepted, wd)
			})

			r.Get("/withdrawals", func(w http.ResponseWriter, r *http.Request) {
				limit, offset := pagination(r)
				list, err := d.PurchaseSvc.ListWithdrawals(r.Context(), caller(r), limit, offset)
				if err != nil { httpx.WriteError(w, http.StatusInternalServerError, "internal_error", err.Error(), nil); return }
				httpx.WriteJSON(w, http.StatusOK, list)
			})

			r.Get("/withdrawals/{id}", func(w http.ResponseWriter, r *http.Request) {
				wd, err := d.PurchaseSvc.GetWithdrawal(r.Context(), chi.URLParam(r, "id"))
				if err != nil { httpx.WriteError(w, http.StatusNotFound, "not_found", "withdrawal not found", nil); return }
				httpx.WriteJSON(w, http.StatusOK, wd)
			})
		})
	})

	return r
}
