package services

import (
	"context"
	"fmt"

	"github.com/jdkato/prose/v2"

	"github.com/scode550/MultiRole-Chatbot/internal/models"
)

// EntityExtractor extracts named entities from a chunk of text
type EntityExtractor interface {
	Extract(ctx context.Context, text string) ([]models.Entity, error)
}

// InferenceEntityExtractor runs NER on the inference backend
type InferenceEntityExtractor struct {
	client InferenceClientInterface
}

// NewInferenceEntityExtractor creates an extractor backed by the
// inference sidecar's NER endpoint
func NewInferenceEntityExtractor(client InferenceClientInterface) *InferenceEntityExtractor {
	return &InferenceEntityExtractor{client: client}
}

// Extract calls the NER endpoint and normalizes the token-level results
func (e *InferenceEntityExtractor) Extract(ctx context.Context, text string) ([]models.Entity, error) {
	raw, err := e.client.ExtractEntities(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("ner extraction failed: %w", err)
	}

	entities := make([]models.Entity, 0, len(raw))
	for _, r := range raw {
		entities = append(entities, models.Entity{Word: r.Word, Entity: r.Entity})
	}
	return entities, nil
}

// LocalEntityExtractor runs NER in-process with prose. Useful when the
// inference backend does not serve a NER model; label coverage is
// narrower than a transformer model (PERSON and GPE only).
type LocalEntityExtractor struct{}

// NewLocalEntityExtractor creates an in-process extractor
func NewLocalEntityExtractor() *LocalEntityExtractor {
	return &LocalEntityExtractor{}
}

// Extract tokenizes the text and returns prose's entity spans
func (e *LocalEntityExtractor) Extract(_ context.Context, text string) ([]models.Entity, error) {
	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("failed to analyze text: %w", err)
	}

	var entities []models.Entity
	for _, ent := range doc.Entities() {
		entities = append(entities, models.Entity{Word: ent.Text, Entity: ent.Label})
	}
	return entities, nil
}
