package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

// ExpirySkew is how long before its exp an access token is treated as expired.
const ExpirySkew = 30 * time.Second

// ErrSessionExpired means the caller has to log in again.
var ErrSessionExpired = errors.New("client: session expired")

// AuthContext supplies bearer tokens to remote calls.
type AuthContext interface {
	// Token returns a usable access token, refreshing it when close to expiry.
	Token(ctx context.Context) (string, error)
	// Refresh exchanges the refresh token for a new pair.
	Refresh(ctx context.Context) error
	// Clear forgets every token.
	Clear()
}

// TokenPair mirrors the login and refresh response body. ExpiresAt is Unix
// seconds.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
}

// TokenAuth keeps a token pair in memory and refreshes it through
// /auth/refresh. It is safe for concurrent use; concurrent refreshes share
// one request.
type TokenAuth struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time

	mu      sync.RWMutex
	access  string
	refresh string
	expiry  time.Time

	group singleflight.Group
}

// NewTokenAuth creates an empty auth context. A nil httpClient uses a client
// with a 30s timeout.
func NewTokenAuth(baseURL string, httpClient *http.Client) *TokenAuth {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &TokenAuth{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		now:        time.Now,
	}
}

// Login authenticates with email and password and stores the pair.
func (a *TokenAuth) Login(ctx context.Context, email, password string) error {
	var pair TokenPair
	if err := a.post(ctx, "/auth/login", map[string]string{"email": email, "password": password}, &pair); err != nil {
		return err
	}
	return a.SetTokens(pair.AccessToken, pair.RefreshToken)
}

// SetTokens installs a pair obtained elsewhere. The access token's exp claim
// is read without verifying the signature; the server does that.
func (a *TokenAuth) SetTokens(access, refresh string) error {
	exp, err := tokenExpiry(access)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.access, a.refresh, a.expiry = access, refresh, exp
	a.mu.Unlock()
	return nil
}

// Token implements AuthContext.
func (a *TokenAuth) Token(ctx context.Context) (string, error) {
	a.mu.RLock()
	access, refresh, expiry := a.access, a.refresh, a.expiry
	a.mu.RUnlock()

	if access != "" && a.now().Add(ExpirySkew).Before(expiry) {
		return access, nil
	}
	if refresh == "" {
		return "", ErrSessionExpired
	}
	if err := a.Refresh(ctx); err != nil {
		return "", err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.access, nil
}

// Refresh implements AuthContext. Any failure clears the tokens.
func (a *TokenAuth) Refresh(ctx context.Context) error {
	a.mu.RLock()
	refresh := a.refresh
	a.mu.RUnlock()
	if refresh == "" {
		return ErrSessionExpired
	}

	_, err, _ := a.group.Do(refresh, func() (any, error) {
		var pair TokenPair
		if err := a.post(ctx, "/auth/refresh", map[string]string{"refreshToken": refresh}, &pair); err != nil {
			return nil, err
		}
		return nil, a.SetTokens(pair.AccessToken, pair.RefreshToken)
	})
	if err != nil {
		a.Clear()
		return fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}
	return nil
}

// Logout revokes the refresh token server-side and clears local state.
func (a *TokenAuth) Logout(ctx context.Context) error {
	defer a.Clear()
	a.mu.RLock()
	access, refresh := a.access, a.refresh
	a.mu.RUnlock()
	if refresh == "" {
		return nil
	}
	body, err := json.Marshal(map[string]string{"refreshToken": refresh})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/auth/logout", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+access)
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	return nil
}

// Clear implements AuthContext.
func (a *TokenAuth) Clear() {
	a.mu.Lock()
	a.access, a.refresh, a.expiry = "", "", time.Time{}
	a.mu.Unlock()
}

func (a *TokenAuth) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func tokenExpiry(token string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("client: decode access token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("client: access token has no exp claim")
	}
	return claims.ExpiresAt.Time, nil
}
