// Package client is a Go SDK for the TMS HTTP API. Every call takes its
// credentials from an explicit AuthContext.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Page is the pagination metadata sent in list response headers.
type Page struct {
	Page    int
	Size    int
	Total   int
	HasNext bool
}

// Client performs typed calls against the API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       AuthContext
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New constructs a client. auth may be nil for unauthenticated calls only.
func New(baseURL string, auth AuthContext, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		auth:       auth,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	method      string
	path        string
	body        []byte
	contentType string
	idemKey     string
}

func jsonRequest(method, path string, in any) (request, error) {
	req := request{method: method, path: path}
	if in == nil {
		return req, nil
	}
	body, err := json.Marshal(in)
	if err != nil {
		return req, err
	}
	req.body = body
	req.contentType = "application/json"
	return req, nil
}

// send executes req. A 401 triggers one refresh and retry.
func (c *Client) send(ctx context.Context, req request) (*http.Response, error) {
	resp, err := c.sendOnce(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || c.auth == nil {
		return resp, nil
	}
	_ = resp.Body.Close()
	if err := c.auth.Refresh(ctx); err != nil {
		return nil, err
	}
	return c.sendOnce(ctx, req)
}

func (c *Client) sendOnce(ctx context.Context, req request) (*http.Response, error) {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return nil, err
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.idemKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.idemKey)
	}
	if c.auth != nil {
		token, err := c.auth.Token(ctx)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return c.httpClient.Do(httpReq)
}

// call sends req and decodes a JSON body into out when out is non-nil.
func (c *Client) call(ctx context.Context, req request, out any) (*http.Response, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return resp, decodeError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, err
		}
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	_, err := c.call(ctx, request{method: http.MethodGet, path: path}, out)
	return err
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any, idemKey string) error {
	req, err := jsonRequest(http.MethodPost, path, in)
	if err != nil {
		return err
	}
	req.idemKey = idemKey
	_, err = c.call(ctx, req, out)
	return err
}

func (c *Client) list(ctx context.Context, path string, in, out any) (Page, error) {
	req, err := jsonRequest(http.MethodPost, path, in)
	if err != nil {
		return Page{}, err
	}
	resp, err := c.call(ctx, req, out)
	if err != nil {
		return Page{}, err
	}
	return pageFromHeader(resp.Header), nil
}

func pageFromHeader(h http.Header) Page {
	atoi := func(key string) int {
		n, _ := strconv.Atoi(h.Get(key))
		return n
	}
	hasNext, _ := strconv.ParseBool(h.Get("X-Has-Next"))
	return Page{Page: atoi("X-Page"), Size: atoi("X-Page-Size"), Total: atoi("X-Total-Count"), HasNext: hasNext}
}

func escape(id string) string { return url.PathEscape(id) }
