package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/scode550/MultiRole-Chatbot/internal/models"
	"github.com/scode550/MultiRole-Chatbot/internal/repositories"
)

// ============================================================================
// Mock Inference Client
// ============================================================================

type MockInferenceClient struct {
	mock.Mock
}

func (m *MockInferenceClient) ParseDocument(ctx context.Context, fileData []byte, filename string) (*ParseResponse, error) {
	args := m.Called(ctx, fileData, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ParseResponse), args.Error(1)
}

func (m *MockInferenceClient) Classify(ctx context.Context, text string) (*ClassifyResponse, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ClassifyResponse), args.Error(1)
}

func (m *MockInferenceClient) ExtractEntities(ctx context.Context, text string) ([]RawEntity, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]RawEntity), args.Error(1)
}

func (m *MockInferenceClient) Embed(ctx context.Context, text string) (*EmbeddingResponse, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*EmbeddingResponse), args.Error(1)
}

func (m *MockInferenceClient) EmbedBatch(ctx context.Context, texts []string) (*EmbedBatchResponse, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*EmbedBatchResponse), args.Error(1)
}

func (m *MockInferenceClient) ZeroShot(ctx context.Context, text string, labels []string) (*ZeroShotResponse, error) {
	args := m.Called(ctx, text, labels)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ZeroShotResponse), args.Error(1)
}

func (m *MockInferenceClient) ExtractAnswer(ctx context.Context, question, passage string) (*AnswerResponse, error) {
	args := m.Called(ctx, question, passage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AnswerResponse), args.Error(1)
}

func (m *MockInferenceClient) Generate(ctx context.Context, prompt string, maxNewTokens int) (string, error) {
	args := m.Called(ctx, prompt, maxNewTokens)
	return args.String(0), args.Error(1)
}

func (m *MockInferenceClient) HealthCheck(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

// ============================================================================
// Mock Vector Repository
// ============================================================================

type MockVectorRepository struct {
	mock.Mock
}

func (m *MockVectorRepository) CreateCollection(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockVectorRepository) DeleteCollection(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockVectorRepository) ListCollections(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockVectorRepository) CollectionExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockVectorRepository) AddChunks(ctx context.Context, name string, chunks []*repositories.Chunk) error {
	args := m.Called(ctx, name, chunks)
	return args.Error(0)
}

func (m *MockVectorRepository) Query(ctx context.Context, name string, embedding []float32, topK int) ([]*repositories.SearchResult, error) {
	args := m.Called(ctx, name, embedding, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repositories.SearchResult), args.Error(1)
}

func (m *MockVectorRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockVectorRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

// ============================================================================
// Mock Session Repository
// ============================================================================

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Insert(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) List(ctx context.Context) ([]*models.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Session), args.Error(1)
}

func (m *MockSessionRepository) AppendTurns(ctx context.Context, sessionID string, turns ...models.Turn) error {
	callArgs := make([]interface{}, 0, len(turns)+2)
	callArgs = append(callArgs, ctx, sessionID)
	for _, turn := range turns {
		callArgs = append(callArgs, turn)
	}
	args := m.Called(callArgs...)
	return args.Error(0)
}

func (m *MockSessionRepository) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockSessionRepository) Exists(ctx context.Context, sessionID string) (bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSessionRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

// ============================================================================
// Mock Entity Extractor
// ============================================================================

type MockEntityExtractor struct {
	mock.Mock
}

func (m *MockEntityExtractor) Extract(ctx context.Context, text string) ([]models.Entity, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Entity), args.Error(1)
}

// ============================================================================
// Mock File Store
// ============================================================================

type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) Save(filename string, data []byte) (string, error) {
	args := m.Called(filename, data)
	return args.String(0), args.Error(1)
}

func (m *MockFileStore) Delete(storedName string) error {
	args := m.Called(storedName)
	return args.Error(0)
}
