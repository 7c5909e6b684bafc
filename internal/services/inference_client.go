package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// InferenceClientInterface defines the interface for inference backend communication
type InferenceClientInterface interface {
	ParseDocument(ctx context.Context, fileData []byte, filename string) (*ParseResponse, error)
	Classify(ctx context.Context, text string) (*ClassifyResponse, error)
	ExtractEntities(ctx context.Context, text string) ([]RawEntity, error)
	Embed(ctx context.Context, text string) (*EmbeddingResponse, error)
	EmbedBatch(ctx context.Context, texts []string) (*EmbedBatchResponse, error)
	ZeroShot(ctx context.Context, text string, labels []string) (*ZeroShotResponse, error)
	ExtractAnswer(ctx context.Context, question, passage string) (*AnswerResponse, error)
	Generate(ctx context.Context, prompt string, maxNewTokens int) (string, error)
	HealthCheck(ctx context.Context) (bool, error)
}

// InferenceClient handles communication with the model-serving sidecar
type InferenceClient struct {
	baseURL    string
	httpClient *http.Client
	retries    int
}

// NewInferenceClient creates a new inference client with default settings
func NewInferenceClient(baseURL string) *InferenceClient {
	return &InferenceClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retries: 3,
	}
}

// NewInferenceClientWithOptions creates a client with custom settings
func NewInferenceClientWithOptions(baseURL string, timeout time.Duration, retries int) *InferenceClient {
	return &InferenceClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retries: retries,
	}
}

// ============================================================================
// Request/Response Models
// ============================================================================

// ParseResponse represents the response from the parse endpoint. Page
// boundaries in Text are marked with "\n--- Page N ---\n" so downstream
// chunks retain page provenance.
type ParseResponse struct {
	Text       string `json:"text"`
	TotalPages int    `json:"total_pages"`
}

// ClassifyResponse represents the top label from the fine-tuned
// document classifier
type ClassifyResponse struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// RawEntity is a single token-level NER result
type RawEntity struct {
	Word   string  `json:"word"`
	Entity string  `json:"entity"`
	Score  float64 `json:"score"`
}

// EmbeddingResponse represents the response from the embed endpoint
type EmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
	Dimension int       `json:"dimension"`
}

// EmbedBatchResponse represents the response from the batch embed endpoint
type EmbedBatchResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Dimension  int         `json:"dimension"`
}

// ZeroShotResponse represents relevance scores over candidate labels
type ZeroShotResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// MaxScore returns the highest score, or 0 when empty
func (r *ZeroShotResponse) MaxScore() float64 {
	max := 0.0
	for _, s := range r.Scores {
		if s > max {
			max = s
		}
	}
	return max
}

// AnswerResponse represents an extractive QA span and its confidence
type AnswerResponse struct {
	Answer string  `json:"answer"`
	Score  float64 `json:"score"`
}

// ============================================================================
// HTTP Helper Methods
// ============================================================================

// doRequest performs an HTTP request with retry logic
func (c *InferenceClient) doRequest(ctx context.Context, method, endpoint string, body interface{}) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			// Exponential backoff
			backoff := time.Duration(attempt*attempt) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := c.makeRequest(ctx, method, endpoint, body)
		if err == nil && resp.StatusCode < 500 {
			// Success or client error (don't retry 4xx)
			return resp, nil
		}

		if resp != nil {
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
			resp.Body.Close()
		} else {
			lastErr = err
		}
	}

	return nil, fmt.Errorf("request failed after %d retries: %w", c.retries, lastErr)
}

// makeRequest creates and executes an HTTP request
func (c *InferenceClient) makeRequest(ctx context.Context, method, endpoint string, body interface{}) (*http.Response, error) {
	url := c.baseURL + endpoint

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

// parseResponse reads and parses JSON response
func parseResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// ============================================================================
// Parse Methods
// ============================================================================

// ParseDocument uploads a document file and returns its extracted text
// with page markers
func (c *InferenceClient) ParseDocument(ctx context.Context, fileData []byte, filename string) (*ParseResponse, error) {
	url := c.baseURL + "/parse/document"

	// Execute with retry
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		// Create fresh multipart form data for each attempt (body gets consumed)
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)

		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, bytes.NewReader(fileData)); err != nil {
			return nil, fmt.Errorf("failed to write file data: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, body)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode < 500 {
			var result ParseResponse
			if err := parseResponse(resp, &result); err != nil {
				return nil, err
			}
			return &result, nil
		}

		resp.Body.Close()
		lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return nil, fmt.Errorf("parse document failed after retries: %w", lastErr)
}

// ============================================================================
// Classification Methods
// ============================================================================

// Classify runs the fine-tuned document type classifier on text
func (c *InferenceClient) Classify(ctx context.Context, text string) (*ClassifyResponse, error) {
	req := map[string]interface{}{
		"text": text,
	}

	resp, err := c.doRequest(ctx, "POST", "/classify", req)
	if err != nil {
		return nil, fmt.Errorf("classify request failed: %w", err)
	}

	var result ClassifyResponse
	if err := parseResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ZeroShot scores text against candidate topic labels
func (c *InferenceClient) ZeroShot(ctx context.Context, text string, labels []string) (*ZeroShotResponse, error) {
	req := map[string]interface{}{
		"text":   text,
		"labels": labels,
	}

	resp, err := c.doRequest(ctx, "POST", "/zero-shot", req)
	if err != nil {
		return nil, fmt.Errorf("zero-shot request failed: %w", err)
	}

	var result ZeroShotResponse
	if err := parseResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ============================================================================
// NER Methods
// ============================================================================

// ExtractEntities runs named entity recognition over text
func (c *InferenceClient) ExtractEntities(ctx context.Context, text string) ([]RawEntity, error) {
	req := map[string]interface{}{
		"text": text,
	}

	resp, err := c.doRequest(ctx, "POST", "/ner", req)
	if err != nil {
		return nil, fmt.Errorf("ner request failed: %w", err)
	}

	var result struct {
		Entities []RawEntity `json:"entities"`
	}
	if err := parseResponse(resp, &result); err != nil {
		return nil, err
	}

	return result.Entities, nil
}

// ============================================================================
// Embed Methods
// ============================================================================

// Embed generates an embedding for a single text
func (c *InferenceClient) Embed(ctx context.Context, text string) (*EmbeddingResponse, error) {
	req := map[string]interface{}{
		"text": text,
	}

	resp, err := c.doRequest(ctx, "POST", "/embed/text", req)
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}

	var result EmbeddingResponse
	if err := parseResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// EmbedBatch generates embeddings for multiple texts in a single call
func (c *InferenceClient) EmbedBatch(ctx context.Context, texts []string) (*EmbedBatchResponse, error) {
	req := map[string]interface{}{
		"texts": texts,
	}

	resp, err := c.doRequest(ctx, "POST", "/embed/batch", req)
	if err != nil {
		return nil, fmt.Errorf("embed batch request failed: %w", err)
	}

	var result EmbedBatchResponse
	if err := parseResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ============================================================================
// QA / Generation Methods
// ============================================================================

// ExtractAnswer runs extractive question answering over a context passage
func (c *InferenceClient) ExtractAnswer(ctx context.Context, question, passage string) (*AnswerResponse, error) {
	req := map[string]interface{}{
		"question": question,
		"context":  passage,
	}

	resp, err := c.doRequest(ctx, "POST", "/qa", req)
	if err != nil {
		return nil, fmt.Errorf("qa request failed: %w", err)
	}

	var result AnswerResponse
	if err := parseResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// Generate produces free text from a prompt, bounded by maxNewTokens
func (c *InferenceClient) Generate(ctx context.Context, prompt string, maxNewTokens int) (string, error) {
	req := map[string]interface{}{
		"prompt":         prompt,
		"max_new_tokens": maxNewTokens,
	}

	resp, err := c.doRequest(ctx, "POST", "/generate", req)
	if err != nil {
		return "", fmt.Errorf("generate request failed: %w", err)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := parseResponse(resp, &result); err != nil {
		return "", err
	}

	return result.Text, nil
}

// ============================================================================
// Health Check Methods
// ============================================================================

// HealthCheck checks if the inference backend is healthy
func (c *InferenceClient) HealthCheck(ctx context.Context) (bool, error) {
	resp, err := c.doRequest(ctx, "GET", "/health", nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, err
	}

	status, ok := result["status"].(string)
	return ok && status == "healthy", nil
}
