package challans

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solutions-liquify/tms/internal/platform/validation"
	"github.com/solutions-liquify/tms/internal/rbac"
	"github.com/solutions-liquify/tms/internal/shared"
)

func newTestRouter(t *testing.T, role string) (http.Handler, *fakeStore) {
	t.Helper()
	svc, store, _ := newTestService()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, svc, validation.New(), rbac.Middleware{Service: rbac.NewService(), Logger: logger})

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := shared.ContextWithPrincipal(req.Context(), shared.Principal{EmployeeID: "emp-1", Role: role})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route("/delivery-challans", h.MountRoutes)
	r.Route("/delivery-orders", h.MountOrderRoutes)
	return r, store
}

func send(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Lifecycle(t *testing.T) {
	router, store := newTestRouter(t, shared.RoleStaff)
	key := map[string]string{shared.IdempotencyHeader: "3b6c1f0e-challan-create"}

	body := map[string]any{
		"deliveryOrderId": orderID,
		"deliveryChallanItems": []map[string]any{
			{"deliveryOrderItemId": itemA, "deliveringQuantity": 25.5},
		},
	}
	rec := send(t, router, http.MethodPost, "/delivery-challans/create", body, key)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created DeliveryChallan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.TotalDeliveringQuantity.Equal(dec("25.5")))

	rec = send(t, router, http.MethodPost, "/delivery-challans/create", body, key)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, store.challans, 1)

	rec = send(t, router, http.MethodGet, "/delivery-challans/get/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = send(t, router, http.MethodPost, "/delivery-challans/mark-delivered/"+created.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, orderLine(t, store, itemA).Delivered.Equal(dec("25.5")))

	rec = send(t, router, http.MethodDelete, "/delivery-challans/cancel/"+created.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, orderLine(t, store, itemA).Delivered.IsZero())

	rec = send(t, router, http.MethodPost, "/delivery-challans/list", ListRequest{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))
}

func TestHandler_Validation(t *testing.T) {
	router, _ := newTestRouter(t, shared.RoleAdmin)

	rec := send(t, router, http.MethodPost, "/delivery-challans/create", map[string]any{
		"deliveryOrderId": orderID,
		"deliveryChallanItems": []map[string]any{
			{"deliveryOrderItemId": itemA, "deliveringQuantity": -1},
		},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "deliveryChallanItems[0].deliveringQuantity")

	rec = send(t, router, http.MethodPost, "/delivery-challans/create", map[string]any{
		"deliveryOrderId": orderID,
		"deliveryChallanItems": []map[string]any{
			{"deliveryOrderItemId": itemA, "deliveringQuantity": 101},
		},
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = send(t, router, http.MethodGet, "/delivery-challans/get/"+partyID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_CreateFromOrderAndCombined(t *testing.T) {
	router, store := newTestRouter(t, shared.RoleStaff)

	rec := send(t, router, http.MethodGet, "/delivery-challans/create/from-delivery-order/"+orderID, nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	order := *cloneOrder(store.orders[orderID])
	order.ContractID = "CT-2026-007-R1"
	rec = send(t, router, http.MethodPost, "/delivery-orders/update-and-create-challan", order, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result struct {
		DeliveryOrder struct {
			ContractID string `json:"contractId"`
		} `json:"deliveryOrder"`
		DeliveryChallan struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"deliveryChallan"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "CT-2026-007-R1", result.DeliveryOrder.ContractID)
	assert.Equal(t, "pending", result.DeliveryChallan.Status)
	assert.Len(t, store.challans, 2)
}
