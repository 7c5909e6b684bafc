package repositories

import "context"

// VectorRepository is the per-session nearest-neighbor index. Each
// chat session maps 1:1 to one collection named by the session id.
type VectorRepository interface {
	CreateCollection(ctx context.Context, name string) error
	DeleteCollection(ctx context.Context, name string) error
	ListCollections(ctx context.Context) ([]string, error)
	CollectionExists(ctx context.Context, name string) (bool, error)

	// AddChunks inserts all chunks as one batch call. The contract is
	// all-or-nothing at the API level: either the whole batch lands or
	// the call errors.
	AddChunks(ctx context.Context, collectionName string, chunks []*Chunk) error

	// Query returns the topK nearest chunks for the embedding, best
	// (smallest distance) first.
	Query(ctx context.Context, collectionName string, embedding []float32, topK int) ([]*SearchResult, error)

	Ping(ctx context.Context) error
	Close() error
}

// Chunk is one overlapping text window ready for indexing.
type Chunk struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  ChunkMetadata
}

// ChunkMetadata travels with every chunk into the vector store.
// Entities are serialized to a JSON string because ChromaDB metadata
// values must be scalar.
type ChunkMetadata struct {
	DocType    string `json:"doc_type"`
	Entities   string `json:"entities"`
	SourceFile string `json:"source_file"`
	ChunkID    string `json:"chunk_id"`
}

// SearchResult is one ranked hit from a similarity query.
type SearchResult struct {
	ChunkID  string
	Text     string
	Distance float32
	Metadata ChunkMetadata
}

// VectorRepositoryError wraps failures from the vector index with the
// operation that produced them.
type VectorRepositoryError struct {
	Operation string
	Err       error
	Message   string
}

func (e *VectorRepositoryError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Operation + ": " + e.Err.Error()
	}
	return e.Operation + ": unknown error"
}

func (e *VectorRepositoryError) Unwrap() error {
	return e.Err
}

// NewVectorRepositoryError creates a new vector repository error.
func NewVectorRepositoryError(operation string, err error, message string) *VectorRepositoryError {
	return &VectorRepositoryError{Operation: operation, Err: err, Message: message}
}

// CollectionNotFoundError reports a missing collection.
func CollectionNotFoundError(name string) error {
	return NewVectorRepositoryError("get_collection", nil, "collection not found: "+name)
}
