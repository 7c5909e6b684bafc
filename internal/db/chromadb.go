package db

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ChromaDBClient talks to the ChromaDB v2 REST API directly. The
// official Go client (v0.3.0-alpha.1) still has v1/v2 API mismatches,
// so the production path uses plain HTTP against the v2 endpoints.
type ChromaDBClient struct {
	hostPort   string
	baseURL    string
	httpClient *http.Client
}

// ChromaDBConfig holds connection settings for ChromaDB.
type ChromaDBConfig struct {
	Host     string
	Port     int
	Tenant   string // default: "default_tenant"
	Database string // default: "default_database"
	Timeout  time.Duration
}

// Collection is a ChromaDB collection as returned by the v2 API.
type Collection struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Metadata map[string]interface{} `json:"metadata"`
}

// QueryResponse is the nearest-neighbor query result. Outer slices are
// indexed by query embedding, inner slices by rank (best first).
type QueryResponse struct {
	IDs       [][]string                 `json:"ids"`
	Documents [][]string                 `json:"documents"`
	Metadatas [][]map[string]interface{} `json:"metadatas"`
	Distances [][]float32                `json:"distances"`
}

// NewChromaDBClient creates a client for the v2 API.
func NewChromaDBClient(config ChromaDBConfig) *ChromaDBClient {
	if config.Tenant == "" {
		config.Tenant = "default_tenant"
	}
	if config.Database == "" {
		config.Database = "default_database"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	hostPort := fmt.Sprintf("%s:%d", config.Host, config.Port)

	return &ChromaDBClient{
		hostPort: hostPort,
		baseURL: fmt.Sprintf("http://%s/api/v2/tenants/%s/databases/%s",
			hostPort, config.Tenant, config.Database),
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// Heartbeat checks that the ChromaDB server is alive.
func (c *ChromaDBClient) Heartbeat(ctx context.Context) error {
	url := fmt.Sprintf("http://%s/api/v2/heartbeat", c.hostPort)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create heartbeat request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("heartbeat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("heartbeat failed with status: %d", resp.StatusCode)
	}
	return nil
}

// ListCollections returns all collections in the database.
func (c *ChromaDBClient) ListCollections(ctx context.Context) ([]Collection, error) {
	var collections []Collection
	if err := c.do(ctx, http.MethodGet, "/collections", nil, &collections); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return collections, nil
}

// CreateCollection creates a new collection. ChromaDB defaults the
// HNSW space to l2; the callers here embed with cosine in mind.
func (c *ChromaDBClient) CreateCollection(ctx context.Context, name string, metadata map[string]interface{}) (*Collection, error) {
	if metadata == nil {
		metadata = map[string]interface{}{"hnsw:space": "cosine"}
	}
	payload := map[string]interface{}{
		"name":     name,
		"metadata": metadata,
	}

	var collection Collection
	if err := c.do(ctx, http.MethodPost, "/collections", payload, &collection); err != nil {
		return nil, fmt.Errorf("create collection %q: %w", name, err)
	}
	return &collection, nil
}

// GetCollection retrieves a collection by name.
func (c *ChromaDBClient) GetCollection(ctx context.Context, name string) (*Collection, error) {
	var collection Collection
	if err := c.do(ctx, http.MethodGet, "/collections/"+name, nil, &collection); err != nil {
		return nil, fmt.Errorf("get collection %q: %w", name, err)
	}
	return &collection, nil
}

// DeleteCollection deletes a collection and everything in it.
func (c *ChromaDBClient) DeleteCollection(ctx context.Context, name string) error {
	if err := c.do(ctx, http.MethodDelete, "/collections/"+name, nil, nil); err != nil {
		return fmt.Errorf("delete collection %q: %w", name, err)
	}
	return nil
}

// CountCollection returns the number of records in a collection.
func (c *ChromaDBClient) CountCollection(ctx context.Context, name string) (int, error) {
	collection, err := c.GetCollection(ctx, name)
	if err != nil {
		return 0, err
	}

	var count int
	if err := c.do(ctx, http.MethodGet, "/collections/"+collection.ID+"/count", nil, &count); err != nil {
		return 0, fmt.Errorf("count collection %q: %w", name, err)
	}
	return count, nil
}

// AddRecords inserts ids, embeddings, documents, and metadatas into a
// collection as one batch call.
func (c *ChromaDBClient) AddRecords(ctx context.Context, collectionName string, ids []string, embeddings [][]float32, documents []string, metadatas []map[string]interface{}) error {
	collection, err := c.GetCollection(ctx, collectionName)
	if err != nil {
		return err
	}

	payload := map[string]interface{}{
		"ids":        ids,
		"embeddings": embeddings,
		"documents":  documents,
	}
	if metadatas != nil {
		payload["metadatas"] = metadatas
	}

	if err := c.do(ctx, http.MethodPost, "/collections/"+collection.ID+"/add", payload, nil); err != nil {
		return fmt.Errorf("add records to %q: %w", collectionName, err)
	}
	return nil
}

// Query runs a nearest-neighbor search over a collection.
func (c *ChromaDBClient) Query(ctx context.Context, collectionName string, queryEmbedding []float32, nResults int) (*QueryResponse, error) {
	collection, err := c.GetCollection(ctx, collectionName)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"query_embeddings": [][]float32{queryEmbedding},
		"n_results":        nResults,
		"include":          []string{"documents", "metadatas", "distances"},
	}

	var queryResp QueryResponse
	if err := c.do(ctx, http.MethodPost, "/collections/"+collection.ID+"/query", payload, &queryResp); err != nil {
		return nil, fmt.Errorf("query %q: %w", collectionName, err)
	}
	return &queryResp, nil
}

// Close releases idle HTTP connections.
func (c *ChromaDBClient) Close() {
	c.httpClient.CloseIdleConnections()
}

// do performs one JSON request against the database-scoped base URL
// and decodes the response into out when out is non-nil.
func (c *ChromaDBClient) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
