package repositories

import (
	"context"
	"fmt"

	"github.com/scode550/MultiRole-Chatbot/internal/db"
)

// ChromaVectorRepository implements VectorRepository on ChromaDB.
type ChromaVectorRepository struct {
	client *db.ChromaDBClient
}

// NewChromaVectorRepository creates a ChromaDB-backed vector repository.
func NewChromaVectorRepository(client *db.ChromaDBClient) VectorRepository {
	return &ChromaVectorRepository{client: client}
}

// CreateCollection creates a fresh collection for a session.
func (r *ChromaVectorRepository) CreateCollection(ctx context.Context, name string) error {
	if _, err := r.client.CreateCollection(ctx, name, nil); err != nil {
		return NewVectorRepositoryError("create_collection", err, "failed to create collection: "+name)
	}
	return nil
}

// DeleteCollection removes a collection and all its chunks.
func (r *ChromaVectorRepository) DeleteCollection(ctx context.Context, name string) error {
	if err := r.client.DeleteCollection(ctx, name); err != nil {
		return NewVectorRepositoryError("delete_collection", err, "failed to delete collection: "+name)
	}
	return nil
}

// ListCollections returns all collection names.
func (r *ChromaVectorRepository) ListCollections(ctx context.Context) ([]string, error) {
	collections, err := r.client.ListCollections(ctx)
	if err != nil {
		return nil, NewVectorRepositoryError("list_collections", err, "")
	}

	names := make([]string, len(collections))
	for i, col := range collections {
		names[i] = col.Name
	}
	return names, nil
}

// CollectionExists checks whether a collection exists by name.
func (r *ChromaVectorRepository) CollectionExists(ctx context.Context, name string) (bool, error) {
	// The v2 API returns an error for a missing collection; treat any
	// lookup failure as absence, matching the idempotent-reingest flow.
	if _, err := r.client.GetCollection(ctx, name); err != nil {
		return false, nil
	}
	return true, nil
}

// AddChunks stores all chunks in one batch call.
func (r *ChromaVectorRepository) AddChunks(ctx context.Context, collectionName string, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ids := make([]string, len(chunks))
	embeddings := make([][]float32, len(chunks))
	documents := make([]string, len(chunks))
	metadatas := make([]map[string]interface{}, len(chunks))

	for i, chunk := range chunks {
		ids[i] = chunk.ID
		embeddings[i] = chunk.Embedding
		documents[i] = chunk.Text
		metadatas[i] = map[string]interface{}{
			"doc_type":    chunk.Metadata.DocType,
			"entities":    chunk.Metadata.Entities,
			"source_file": chunk.Metadata.SourceFile,
			"chunk_id":    chunk.Metadata.ChunkID,
		}
	}

	if err := r.client.AddRecords(ctx, collectionName, ids, embeddings, documents, metadatas); err != nil {
		return NewVectorRepositoryError("add_chunks", err, fmt.Sprintf("failed to store %d chunks", len(chunks)))
	}
	return nil
}

// Query runs a nearest-neighbor search and flattens the v2 response
// into ranked results, best first.
func (r *ChromaVectorRepository) Query(ctx context.Context, collectionName string, embedding []float32, topK int) ([]*SearchResult, error) {
	exists, err := r.CollectionExists(ctx, collectionName)
	if err != nil {
		return nil, NewVectorRepositoryError("query", err, "")
	}
	if !exists {
		return nil, CollectionNotFoundError(collectionName)
	}

	results, err := r.client.Query(ctx, collectionName, embedding, topK)
	if err != nil {
		return nil, NewVectorRepositoryError("query", err, "query failed")
	}

	searchResults := make([]*SearchResult, 0)
	if len(results.IDs) == 0 {
		return searchResults, nil
	}

	for i := range results.IDs[0] {
		result := &SearchResult{ChunkID: results.IDs[0][i]}

		if len(results.Documents) > 0 && len(results.Documents[0]) > i {
			result.Text = results.Documents[0][i]
		}
		if len(results.Distances) > 0 && len(results.Distances[0]) > i {
			result.Distance = results.Distances[0][i]
		}
		if len(results.Metadatas) > 0 && len(results.Metadatas[0]) > i {
			result.Metadata = metadataFromMap(results.Metadatas[0][i])
		}

		searchResults = append(searchResults, result)
	}
	return searchResults, nil
}

// Ping checks if ChromaDB is alive.
func (r *ChromaVectorRepository) Ping(ctx context.Context) error {
	if err := r.client.Heartbeat(ctx); err != nil {
		return NewVectorRepositoryError("ping", err, "ChromaDB heartbeat failed")
	}
	return nil
}

// Close closes the ChromaDB client.
func (r *ChromaVectorRepository) Close() error {
	r.client.Close()
	return nil
}

func metadataFromMap(m map[string]interface{}) ChunkMetadata {
	md := ChunkMetadata{}
	if v, ok := m["doc_type"].(string); ok {
		md.DocType = v
	}
	if v, ok := m["entities"].(string); ok {
		md.Entities = v
	}
	if v, ok := m["source_file"].(string); ok {
		md.SourceFile = v
	}
	if v, ok := m["chunk_id"].(string); ok {
		md.ChunkID = v
	}
	return md
}
