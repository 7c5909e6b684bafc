package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/scode550/MultiRole-Chatbot/internal/models"
	"github.com/scode550/MultiRole-Chatbot/internal/repositories"
)

// answerTrimCutset strips punctuation the QA model tends to leave on
// span boundaries
const answerTrimCutset = " ,.;:-"

const (
	subQuestionMaxTokens = 100
	synthesisMaxTokens   = 512
)

// QueryConfig carries the tunable thresholds of the query pipeline
type QueryConfig struct {
	RelevanceThreshold float64
	QAMinScore         float64
	TopK               int
}

// DefaultQueryConfig returns the standard thresholds
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		RelevanceThreshold: 0.2,
		QAMinScore:         0.1,
		TopK:               5,
	}
}

// QueryService answers questions against a session's vector collection
type QueryService struct {
	inference  InferenceClientInterface
	vectorRepo repositories.VectorRepository
	config     QueryConfig
	logger     *log.Logger
}

// NewQueryService creates a new query service
func NewQueryService(
	inference InferenceClientInterface,
	vectorRepo repositories.VectorRepository,
	config QueryConfig,
	logger *log.Logger,
) *QueryService {
	if config.TopK <= 0 {
		config.TopK = 5
	}
	return &QueryService{
		inference:  inference,
		vectorRepo: vectorRepo,
		config:     config,
		logger:     logger,
	}
}

// QueryResult is the synthesized answer plus its deduplicated sources
type QueryResult struct {
	Answer  string          `json:"answer"`
	Sources []models.Source `json:"sources"`
}

// Answer runs the full retrieval pipeline for one question. The
// transcript is not consulted; each question stands alone.
func (s *QueryService) Answer(ctx context.Context, question, collectionName, role string) (*QueryResult, error) {
	relevant, err := s.isRelevantForRole(ctx, question, role)
	if err != nil {
		return nil, err
	}
	if !relevant {
		return &QueryResult{
			Answer:  fmt.Sprintf("This question does not seem related to the typical responsibilities of a %s.", role),
			Sources: []models.Source{},
		}, nil
	}

	embedded, err := s.inference.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	results, err := s.vectorRepo.Query(ctx, collectionName, embedded.Embedding, s.config.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	if len(results) == 0 {
		return &QueryResult{
			Answer:  "Could not find relevant information in the uploaded documents.",
			Sources: []models.Source{},
		}, nil
	}

	contextTexts := make([]string, len(results))
	for i, r := range results {
		contextTexts[i] = r.Text
	}
	contextText := strings.Join(contextTexts, " ")

	probes, err := s.generateProbes(ctx, question)
	if err != nil {
		return nil, err
	}

	quotes, err := s.extractQuotes(ctx, probes, contextText)
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return &QueryResult{
			Answer:  fmt.Sprintf("I could not find a confident answer in the documents for a %s.", role),
			Sources: []models.Source{},
		}, nil
	}

	answer, err := s.synthesize(ctx, question, role, quotes, results)
	if err != nil {
		return nil, err
	}

	return &QueryResult{Answer: answer, Sources: dedupeSources(results)}, nil
}

// isRelevantForRole scores the question against the role's topic
// phrases. Roles without a topic set always pass.
func (s *QueryService) isRelevantForRole(ctx context.Context, question, role string) (bool, error) {
	topics, ok := models.TopicsForRole(role)
	if !ok {
		return true, nil
	}

	result, err := s.inference.ZeroShot(ctx, question, topics)
	if err != nil {
		return false, fmt.Errorf("relevance check failed: %w", err)
	}

	score := result.MaxScore()
	if len(result.Labels) > 0 {
		s.logger.Printf("Query relevance for role %q: top topic %q with score %.4f", role, result.Labels[0], score)
	}
	return score > s.config.RelevanceThreshold, nil
}

// generateProbes asks the LLM for up to three evidence-finding
// questions and always appends the original question last
func (s *QueryService) generateProbes(ctx context.Context, question string) ([]string, error) {
	prompt := fmt.Sprintf("Based on the user's question, generate up to 3 simple, specific questions to find evidence in a document. User Question: %s", question)

	generated, err := s.inference.Generate(ctx, prompt, subQuestionMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("sub-question generation failed: %w", err)
	}

	var probes []string
	for _, line := range strings.Split(generated, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && strings.Contains(line, "?") {
			probes = append(probes, line)
		}
	}
	return append(probes, question), nil
}

// extractQuotes fans the probes out over the QA model in parallel and
// collects confident answer spans, deduplicated by exact text
func (s *QueryService) extractQuotes(ctx context.Context, probes []string, contextText string) ([]string, error) {
	type qaResult struct {
		idx    int
		answer string
	}

	results := make([]qaResult, 0, len(probes))
	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error

	for i, probe := range probes {
		wg.Add(1)
		go func(idx int, q string) {
			defer wg.Done()

			result, err := s.inference.ExtractAnswer(ctx, q, contextText)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("answer extraction failed: %w", err)
				}
				return
			}
			if result.Score > s.config.QAMinScore {
				results = append(results, qaResult{idx: idx, answer: result.Answer})
			}
		}(i, probe)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	// Restore probe order so the quote list is stable run to run
	ordered := make([]string, len(probes))
	for _, r := range results {
		ordered[r.idx] = r.answer
	}

	seen := make(map[string]bool)
	var quotes []string
	for _, answer := range ordered {
		clean := strings.Trim(answer, answerTrimCutset)
		if clean == "" || seen[clean] {
			continue
		}
		seen[clean] = true
		quotes = append(quotes, clean)
	}
	return quotes, nil
}

// synthesize builds the quotes-only prompt and runs the final
// generation pass
func (s *QueryService) synthesize(ctx context.Context, question, role string, quotes []string, results []*repositories.SearchResult) (string, error) {
	seenFiles := make(map[string]bool)
	var sourceFiles []string
	for _, r := range results {
		if !seenFiles[r.Metadata.SourceFile] {
			seenFiles[r.Metadata.SourceFile] = true
			sourceFiles = append(sourceFiles, r.Metadata.SourceFile)
		}
	}

	prompt := fmt.Sprintf(`You are an expert assistant acting as a %s. Synthesize a single, comprehensive answer to the user's original question based ONLY on the following extracted quotes.
- Assemble the quotes into a clean, well-formatted response (paragraphs or bullets).
- You MUST use the exact word-for-word quotes. Do not add any new information.
- After the answer, cite all sources provided in the format.

User's Original Question: "%s"
Extracted Quotes:
- %s
Sources: %s
Synthesized Answer:`, role, question, strings.Join(quotes, "\n- "), strings.Join(sourceFiles, ", "))

	answer, err := s.inference.Generate(ctx, prompt, synthesisMaxTokens)
	if err != nil {
		return "", fmt.Errorf("answer synthesis failed: %w", err)
	}
	return answer, nil
}

// dedupeSources keeps the first occurrence of each source file in
// retrieval order
func dedupeSources(results []*repositories.SearchResult) []models.Source {
	seen := make(map[string]bool)
	sources := make([]models.Source, 0, len(results))
	for _, r := range results {
		if seen[r.Metadata.SourceFile] {
			continue
		}
		seen[r.Metadata.SourceFile] = true
		sources = append(sources, models.Source{
			SourceFile: r.Metadata.SourceFile,
			DocType:    r.Metadata.DocType,
		})
	}
	return sources
}
