package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solutions-liquify/tms/client"
	"github.com/solutions-liquify/tms/client/draft"
	"github.com/solutions-liquify/tms/model"
)

type staticAuth string

func (a staticAuth) Token(context.Context) (string, error) { return string(a), nil }
func (staticAuth) Refresh(context.Context) error           { return nil }
func (staticAuth) Clear()                                  {}

// Everything below is written against public packages only, the way a
// consumer outside this module uses the SDK.
func TestClient_PublicTypesOnly(t *testing.T) {
	var created model.DeliveryOrder
	mux := http.NewServeMux()
	mux.HandleFunc("/delivery-orders/create", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		created.ID = "order-1"
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(created))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	order := model.DeliveryOrder{ContractID: "CT-9", PartyID: "p-1"}
	order = draft.AddSection(order, "Pune")
	order, err := draft.AddOrderItem(order, 0, model.Item{Taluka: "Haveli", Quantity: decimal.RequireFromString("12.5")})
	require.NoError(t, err)
	assert.True(t, order.GrandTotalQuantity.Equal(decimal.RequireFromString("12.5")))

	c := client.New(srv.URL, staticAuth("tok"), client.WithHTTPClient(srv.Client()))
	saved, err := c.CreateOrder(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, "order-1", saved.ID)
	require.Len(t, saved.Sections, 1)
	assert.Equal(t, "Haveli", saved.Sections[0].Items[0].Taluka)
	assert.Equal(t, "CT-9", created.ContractID)
}
