package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solutions-liquify/tms/internal/platform/httpx"
	"github.com/solutions-liquify/tms/model"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func signToken(t *testing.T, subject string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

// fakeServer serves the auth endpoints and a protected order lookup that only
// accepts the most recently issued access token.
type fakeServer struct {
	t          *testing.T
	refreshes  atomic.Int32
	current    atomic.Value
	failReauth bool
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	fs := &fakeServer{t: t}
	fs.current.Store("")

	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, httpx.DecodeJSON(r, &body))
		if body["email"] != "ops@example.com" || body["password"] != "s3cret-pass" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
			return
		}
		httpx.JSON(w, http.StatusOK, fs.issue("login"))
	})
	r.Post("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		fs.refreshes.Add(1)
		if fs.failReauth {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "refresh token revoked")
			return
		}
		httpx.JSON(w, http.StatusOK, fs.issue("refresh"))
	})
	r.Get("/delivery-orders/get/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+fs.current.Load().(string) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "token expired")
			return
		}
		httpx.JSON(w, http.StatusOK, model.DeliveryOrder{ID: chi.URLParam(r, "id"), ContractID: "CT-7"})
	})
	r.Post("/delivery-orders/list", func(w http.ResponseWriter, r *http.Request) {
		var req model.OrderListRequest
		assert.NoError(t, httpx.DecodeJSON(r, &req))
		if req.Size > 100 {
			httpx.ValidationProblem(w, map[string]string{"size": "must be at most 100", "page": "invalid"})
			return
		}
		httpx.Page(w, httpx.PageMeta{Page: req.Page, Size: req.Size, Total: 42, HasNext: true},
			[]model.OrderRecord{{ID: "o-1", ContractID: "CT-1"}})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return fs, srv
}

func (fs *fakeServer) issue(subject string) TokenPair {
	exp := time.Now().Add(time.Hour)
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject + "-" + time.Now().Format(time.RFC3339Nano),
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	assert.NoError(fs.t, err)
	fs.current.Store(access)
	return TokenPair{AccessToken: access, RefreshToken: "rt-" + subject, ExpiresAt: exp.Unix()}
}

func TestTokenAuth_Login(t *testing.T) {
	fs, srv := newFakeServer(t)
	auth := NewTokenAuth(srv.URL, srv.Client())

	err := auth.Login(context.Background(), "ops@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))

	require.NoError(t, auth.Login(context.Background(), "ops@example.com", "s3cret-pass"))
	token, err := auth.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fs.current.Load().(string), token)
	assert.Zero(t, fs.refreshes.Load())
}

func TestTokenAuth_RefreshesWithinSkew(t *testing.T) {
	fs, srv := newFakeServer(t)
	auth := NewTokenAuth(srv.URL, srv.Client())
	auth.now = func() time.Time { return baseTime }

	stale := signToken(t, "emp-1", baseTime.Add(ExpirySkew/2))
	require.NoError(t, auth.SetTokens(stale, "rt-initial"))

	token, err := auth.Token(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, stale, token)
	assert.Equal(t, fs.current.Load().(string), token)
	assert.EqualValues(t, 1, fs.refreshes.Load())
}

func TestTokenAuth_KeepsFreshToken(t *testing.T) {
	fs, srv := newFakeServer(t)
	auth := NewTokenAuth(srv.URL, srv.Client())
	auth.now = func() time.Time { return baseTime }

	fresh := signToken(t, "emp-1", baseTime.Add(10*time.Minute))
	require.NoError(t, auth.SetTokens(fresh, "rt-initial"))

	token, err := auth.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, token)
	assert.Zero(t, fs.refreshes.Load())
}

func TestTokenAuth_FailedRefreshClearsSession(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.failReauth = true
	auth := NewTokenAuth(srv.URL, srv.Client())
	auth.now = func() time.Time { return baseTime }

	require.NoError(t, auth.SetTokens(signToken(t, "emp-1", baseTime.Add(-time.Minute)), "rt-revoked"))

	_, err := auth.Token(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)

	_, err = auth.Token(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.EqualValues(t, 1, fs.refreshes.Load())
}

func TestTokenAuth_SetTokensRejectsMissingExpiry(t *testing.T) {
	auth := NewTokenAuth("http://localhost", nil)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "x"}).SignedString([]byte("k"))
	require.NoError(t, err)

	assert.Error(t, auth.SetTokens(token, "rt"))
	assert.Error(t, auth.SetTokens("not-a-jwt", "rt"))
}

func TestClient_RetriesOnceAfterUnauthorized(t *testing.T) {
	fs, srv := newFakeServer(t)
	auth := NewTokenAuth(srv.URL, srv.Client())

	// Locally valid, but the server has rotated past it.
	require.NoError(t, auth.SetTokens(signToken(t, "emp-1", time.Now().Add(time.Hour)), "rt-initial"))
	fs.current.Store("rotated")

	c := New(srv.URL, auth, WithHTTPClient(srv.Client()))
	order, err := c.GetOrder(context.Background(), "order-9")
	require.NoError(t, err)
	assert.Equal(t, "order-9", order.ID)
	assert.Equal(t, "CT-7", order.ContractID)
	assert.EqualValues(t, 1, fs.refreshes.Load())
}

func TestClient_UnauthorizedAfterFailedRefresh(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.failReauth = true
	auth := NewTokenAuth(srv.URL, srv.Client())
	require.NoError(t, auth.SetTokens(signToken(t, "emp-1", time.Now().Add(time.Hour)), "rt-initial"))
	fs.current.Store("rotated")

	c := New(srv.URL, auth, WithHTTPClient(srv.Client()))
	_, err := c.GetOrder(context.Background(), "order-9")
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestClient_ListReadsPageHeaders(t *testing.T) {
	_, srv := newFakeServer(t)
	auth := NewTokenAuth(srv.URL, srv.Client())
	require.NoError(t, auth.Login(context.Background(), "ops@example.com", "s3cret-pass"))

	c := New(srv.URL, auth, WithHTTPClient(srv.Client()))
	records, page, err := c.ListOrders(context.Background(), model.OrderListRequest{Page: 2, Size: 10})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "o-1", records[0].ID)
	assert.Equal(t, Page{Page: 2, Size: 10, Total: 42, HasNext: true}, page)
}

func TestClient_DecodesProblemDocument(t *testing.T) {
	_, srv := newFakeServer(t)
	auth := NewTokenAuth(srv.URL, srv.Client())
	require.NoError(t, auth.Login(context.Background(), "ops@example.com", "s3cret-pass"))

	c := New(srv.URL, auth, WithHTTPClient(srv.Client()))
	_, _, err := c.ListOrders(context.Background(), model.OrderListRequest{Size: 500})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadRequest))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Validation Failed", apiErr.Title)
	assert.Equal(t, "must be at most 100", apiErr.Errors["size"])
	assert.Equal(t, "tms: 400 Validation Failed; page invalid; size must be at most 100", apiErr.Error())
}

func TestDecodeError_PlainText(t *testing.T) {
	rec := httptest.NewRecorder()
	http.Error(rec, "upstream down", http.StatusBadGateway)

	err := decodeError(rec.Result())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Title)
}
