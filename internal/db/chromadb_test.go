package db

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestNewChromaDBClient tests client initialization
func TestNewChromaDBClient(t *testing.T) {
	tests := []struct {
		name        string
		config      ChromaDBConfig
		wantBaseURL string
	}{
		{
			name: "default config",
			config: ChromaDBConfig{
				Host: "localhost",
				Port: 8001,
			},
			wantBaseURL: "http://localhost:8001/api/v2/tenants/default_tenant/databases/default_database",
		},
		{
			name: "custom config with tenant and database",
			config: ChromaDBConfig{
				Host:     "chromadb.example.com",
				Port:     9000,
				Tenant:   "custom_tenant",
				Database: "custom_db",
				Timeout:  60 * time.Second,
			},
			wantBaseURL: "http://chromadb.example.com:9000/api/v2/tenants/custom_tenant/databases/custom_db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewChromaDBClient(tt.config)

			if client == nil {
				t.Fatal("Expected non-nil client")
			}
			if client.httpClient == nil {
				t.Error("Expected non-nil HTTP client")
			}
			if client.baseURL != tt.wantBaseURL {
				t.Errorf("Expected base URL %s, got %s", tt.wantBaseURL, client.baseURL)
			}
		})
	}
}

// newTestClient points a client at an httptest server
func newTestClient(server *httptest.Server) *ChromaDBClient {
	hostPort := strings.TrimPrefix(server.URL, "http://")
	return &ChromaDBClient{
		hostPort:   hostPort,
		baseURL:    server.URL + "/api/v2/tenants/default_tenant/databases/default_database",
		httpClient: server.Client(),
	}
}

func TestChromaDBClient_CreateCollection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/collections") {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("Failed to decode payload: %v", err)
		}
		if payload["name"] != "session-1" {
			t.Errorf("Expected collection name session-1, got %v", payload["name"])
		}

		metadata, ok := payload["metadata"].(map[string]interface{})
		if !ok || metadata["hnsw:space"] != "cosine" {
			t.Errorf("Expected cosine hnsw:space metadata, got %v", payload["metadata"])
		}

		json.NewEncoder(w).Encode(Collection{ID: "uuid-1", Name: "session-1"})
	}))
	defer server.Close()

	client := newTestClient(server)
	collection, err := client.CreateCollection(context.Background(), "session-1", nil)
	if err != nil {
		t.Fatalf("CreateCollection failed: %v", err)
	}
	if collection.ID != "uuid-1" {
		t.Errorf("Expected collection id uuid-1, got %s", collection.ID)
	}
}

func TestChromaDBClient_Query(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/collections/session-1"):
			json.NewEncoder(w).Encode(Collection{ID: "uuid-1", Name: "session-1"})
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/collections/uuid-1/query"):
			var payload map[string]interface{}
			json.NewDecoder(r.Body).Decode(&payload)
			if payload["n_results"] != float64(5) {
				t.Errorf("Expected n_results 5, got %v", payload["n_results"])
			}
			json.NewEncoder(w).Encode(QueryResponse{
				IDs:       [][]string{{"doc1_chunk1"}},
				Documents: [][]string{{"chunk text"}},
				Metadatas: [][]map[string]interface{}{{{"source_file": "a.pdf"}}},
				Distances: [][]float32{{0.12}},
			})
		default:
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(server)
	resp, err := client.Query(context.Background(), "session-1", []float32{0.1, 0.2}, 5)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(resp.IDs) != 1 || resp.IDs[0][0] != "doc1_chunk1" {
		t.Errorf("Unexpected query response ids: %v", resp.IDs)
	}
}

func TestChromaDBClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "collection not found"}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.GetCollection(context.Background(), "missing")
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected status in error, got %v", err)
	}
}

// TestChromaDBClient_Heartbeat tests heartbeat against a live server
func TestChromaDBClient_Heartbeat(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	client := NewChromaDBClient(ChromaDBConfig{
		Host: "localhost",
		Port: 8001,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Heartbeat(ctx); err != nil {
		t.Skipf("ChromaDB not available: %v", err)
	}
}
