package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scode550/MultiRole-Chatbot/internal/models"
	"github.com/scode550/MultiRole-Chatbot/internal/repositories"
)

// classifyPrefixRunes bounds how much of a document the type
// classifier sees
const classifyPrefixRunes = 512

// IngestionService turns uploaded documents into a per-session vector
// collection and registers the chat session
type IngestionService struct {
	inference   InferenceClientInterface
	vectorRepo  repositories.VectorRepository
	sessionRepo repositories.SessionRepository
	fileStore   FileStore
	entities    EntityExtractor
	chunker     *Chunker
	logger      *log.Logger
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	inference InferenceClientInterface,
	vectorRepo repositories.VectorRepository,
	sessionRepo repositories.SessionRepository,
	fileStore FileStore,
	entities EntityExtractor,
	chunker *Chunker,
	logger *log.Logger,
) *IngestionService {
	return &IngestionService{
		inference:   inference,
		vectorRepo:  vectorRepo,
		sessionRepo: sessionRepo,
		fileStore:   fileStore,
		entities:    entities,
		chunker:     chunker,
		logger:      logger,
	}
}

// UploadFile is one uploaded document
type UploadFile struct {
	Filename string
	Data     []byte
}

// IngestRequest represents a multi-document upload for one role
type IngestRequest struct {
	Role  string
	Files []UploadFile
}

// Validate checks the request
func (r *IngestRequest) Validate() error {
	if r.Role == "" {
		return fmt.Errorf("a role must be selected")
	}
	if len(r.Files) == 0 {
		return fmt.Errorf("at least one file is required")
	}
	for _, f := range r.Files {
		if f.Filename == "" {
			return fmt.Errorf("file is missing a filename")
		}
	}
	return nil
}

// IngestResponse identifies the newly created chat session
type IngestResponse struct {
	ChatID    string   `json:"chat_id"`
	Filenames []string `json:"filenames"`
	Role      string   `json:"role"`
}

// Ingest runs the full pipeline: store files, extract text, classify,
// chunk, tag entities, embed and index, then register the session. On
// any failure the stored files for this attempt are removed.
func (s *IngestionService) Ingest(ctx context.Context, req *IngestRequest) (*IngestResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	sessionID := uuid.New().String()

	var storedNames []string
	cleanup := func() {
		for _, name := range storedNames {
			if err := s.fileStore.Delete(name); err != nil {
				s.logger.Printf("Failed to remove stored file %s: %v", name, err)
			}
		}
	}

	filenames := make([]string, 0, len(req.Files))
	for _, f := range req.Files {
		storedName, err := s.fileStore.Save(f.Filename, f.Data)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to store file %s: %w", f.Filename, err)
		}
		storedNames = append(storedNames, storedName)
		filenames = append(filenames, f.Filename)
	}

	if err := s.buildCollection(ctx, sessionID, req.Files); err != nil {
		cleanup()
		return nil, err
	}

	session := &models.Session{
		ID:        sessionID,
		Role:      req.Role,
		Filenames: filenames,
		History:   []models.Turn{},
		CreatedAt: time.Now(),
	}
	if err := s.sessionRepo.Insert(ctx, session); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to register session: %w", err)
	}

	s.logger.Printf("Ingested %d document(s) into session %s for role %s", len(req.Files), sessionID, req.Role)
	return &IngestResponse{ChatID: sessionID, Filenames: filenames, Role: req.Role}, nil
}

// buildCollection processes every document and writes one vector
// collection named after the session
func (s *IngestionService) buildCollection(ctx context.Context, collectionName string, files []UploadFile) error {
	var allChunks []*repositories.Chunk
	docCounter := 0

	for _, f := range files {
		docCounter++
		s.logger.Printf("Processing document %d: %s", docCounter, f.Filename)

		parsed, err := s.inference.ParseDocument(ctx, f.Data, f.Filename)
		if err != nil {
			return fmt.Errorf("could not read file %s: %w", f.Filename, err)
		}

		if strings.TrimSpace(parsed.Text) == "" {
			continue
		}

		docType, err := s.classifyDocument(ctx, parsed.Text)
		if err != nil {
			return fmt.Errorf("failed to classify %s: %w", f.Filename, err)
		}

		for chunkIdx, text := range s.chunker.Split(parsed.Text) {
			chunkID := fmt.Sprintf("doc%d_chunk%d", docCounter, chunkIdx+1)
			allChunks = append(allChunks, &repositories.Chunk{
				ID:   chunkID,
				Text: text,
				Metadata: repositories.ChunkMetadata{
					DocType:    docType,
					Entities:   s.extractChunkEntities(ctx, chunkID, text),
					SourceFile: f.Filename,
					ChunkID:    chunkID,
				},
			})
		}
	}

	if len(allChunks) == 0 {
		return fmt.Errorf("no text could be extracted from the provided documents")
	}

	// Re-ingestion under the same name starts from a clean collection
	exists, err := s.vectorRepo.CollectionExists(ctx, collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		if err := s.vectorRepo.DeleteCollection(ctx, collectionName); err != nil {
			s.logger.Printf("Could not delete collection %s: %v", collectionName, err)
		}
	}
	if err := s.vectorRepo.CreateCollection(ctx, collectionName); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	texts := make([]string, len(allChunks))
	for i, c := range allChunks {
		texts[i] = c.Text
	}
	embedded, err := s.inference.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(embedded.Embeddings) != len(allChunks) {
		return fmt.Errorf("embedding count mismatch: got %d for %d chunks", len(embedded.Embeddings), len(allChunks))
	}
	for i, c := range allChunks {
		c.Embedding = embedded.Embeddings[i]
	}

	if err := s.vectorRepo.AddChunks(ctx, collectionName, allChunks); err != nil {
		return fmt.Errorf("failed to index chunks: %w", err)
	}

	s.logger.Printf("Indexed %d chunks into collection %s", len(allChunks), collectionName)
	return nil
}

// classifyDocument labels a document by its leading text
func (s *IngestionService) classifyDocument(ctx context.Context, text string) (string, error) {
	runes := []rune(text)
	if len(runes) > classifyPrefixRunes {
		runes = runes[:classifyPrefixRunes]
	}

	result, err := s.inference.Classify(ctx, string(runes))
	if err != nil {
		return "", err
	}
	return result.Label, nil
}

// extractChunkEntities runs NER for one chunk. Extraction failures are
// logged and produce an empty list so a flaky NER backend never sinks
// an upload.
func (s *IngestionService) extractChunkEntities(ctx context.Context, chunkID, text string) string {
	entities, err := s.entities.Extract(ctx, text)
	if err != nil {
		s.logger.Printf("Entity extraction failed for %s: %v", chunkID, err)
		entities = nil
	}
	if entities == nil {
		entities = []models.Entity{}
	}

	data, err := json.Marshal(entities)
	if err != nil {
		s.logger.Printf("Failed to serialize entities for %s: %v", chunkID, err)
		return "[]"
	}
	return string(data)
}
