package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ndetkov/go-shop-core/internal/store"
	"go.uber.org/zap"
)

type tenantKey struct{}

// requireTenant pulls the tenant id resolved upstream out of the
// X-Tenant-ID header. Requests without one never reach the store.
func requireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-Tenant-ID")
		tenantID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || tenantID < 1 {
			respondError(w, http.StatusBadRequest, "valid X-Tenant-ID header required")
			return
		}
		ctx := context.WithValue(r.Context(), tenantKey{}, tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tenantID(r *http.Request) int64 {
	id, _ := r.Context().Value(tenantKey{}).(int64)
	return id
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func pageParams(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondStoreError maps error kinds to HTTP statuses: not-found 404,
// structural validation 400, insufficient stock and state-machine
// violations 409.
func (h *Handler) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case store.IsNotFound(err):
		respondError(w, http.StatusNotFound, err.Error())
	case store.IsInvalidArgument(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case store.IsInsufficientStock(err):
		respondError(w, http.StatusConflict, err.Error())
	case store.IsStateConflict(err):
		respondError(w, http.StatusConflict, err.Error())
	default:
		h.log.Error("internal error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
