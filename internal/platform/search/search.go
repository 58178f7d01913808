// Package search wraps the Elasticsearch index used for delivery order lookups.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ErrDisabled is returned when no cluster is configured.
var ErrDisabled = errors.New("search: disabled")

// Config describes the cluster connection.
type Config struct {
	URLs     []string
	Index    string
	Username string
	Password string
	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// OrderDocument is the indexed projection of a delivery order.
type OrderDocument struct {
	ID             string   `json:"id"`
	ContractID     string   `json:"contractId"`
	PartyName      string   `json:"partyName"`
	Status         string   `json:"status"`
	Districts      []string `json:"districts"`
	Talukas        []string `json:"talukas"`
	Materials      []string `json:"materials"`
	DateOfContract *int64   `json:"dateOfContract,omitempty"`
	UpdatedAt      int64    `json:"updatedAt"`
}

// Client indexes and queries delivery orders.
type Client struct {
	es    *elasticsearch.Client
	index string
}

// New builds a client without contacting the cluster. Use Ping to verify.
func New(cfg Config) (*Client, error) {
	if len(cfg.URLs) == 0 {
		return nil, ErrDisabled
	}
	index := strings.TrimSpace(cfg.Index)
	if index == "" {
		index = "delivery-orders"
	}
	esCfg := elasticsearch.Config{
		Addresses: cfg.URLs,
		Transport: cfg.Transport,
	}
	if cfg.Username != "" && cfg.Password != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}
	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("search: create client: %w", err)
	}
	return &Client{es: es, index: index}, nil
}

// Index returns the index name.
func (c *Client) Index() string { return c.index }

// Ping checks cluster connectivity.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Info(c.es.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("search: info: %s", res.Status())
	}
	return nil
}

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":             {"type": "keyword"},
      "contractId":     {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "partyName":      {"type": "text"},
      "status":         {"type": "keyword"},
      "districts":      {"type": "text"},
      "talukas":        {"type": "text"},
      "materials":      {"type": "text"},
      "dateOfContract": {"type": "long"},
      "updatedAt":      {"type": "long"}
    }
  }
}`

// EnsureIndex creates the index with its mapping when missing.
func (c *Client) EnsureIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("search: index exists: %s", res.Status())
	}
	created, err := c.es.Indices.Create(c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("search: create index: %w", err)
	}
	defer created.Body.Close()
	if created.IsError() {
		return fmt.Errorf("search: create index: %s", created.String())
	}
	return nil
}

// IndexOrder upserts the document for an order.
func (c *Client) IndexOrder(ctx context.Context, doc OrderDocument) error {
	if doc.ID == "" {
		return errors.New("search: document id required")
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("search: index %s: %w", doc.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("search: index %s: %s", doc.ID, res.String())
	}
	return nil
}

// DeleteOrder removes a document. A missing document is not an error.
func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	res, err := c.es.Delete(c.index, id, c.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: delete %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("search: delete %s: %s", id, res.String())
	}
	return nil
}

// SearchOrderIDs runs a free-text query and returns matching order ids by score.
func (c *Client) SearchOrderIDs(ctx context.Context, query string, limit int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	body := map[string]any{
		"size":    limit,
		"_source": false,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":    query,
				"type":     "bool_prefix",
				"fields":   []string{"contractId^3", "partyName^2", "districts", "talukas", "materials"},
				"operator": "and",
			},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search: query: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search: query: %s", res.String())
	}
	var result struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}
	ids := make([]string, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}
