package services

import (
	"context"
	"fmt"
	"log"

	"github.com/scode550/MultiRole-Chatbot/internal/models"
	"github.com/scode550/MultiRole-Chatbot/internal/repositories"
)

// ChatService manages chat sessions and routes questions through the
// query pipeline, recording each exchange in the transcript
type ChatService struct {
	query       *QueryService
	sessionRepo repositories.SessionRepository
	vectorRepo  repositories.VectorRepository
	logger      *log.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	query *QueryService,
	sessionRepo repositories.SessionRepository,
	vectorRepo repositories.VectorRepository,
	logger *log.Logger,
) *ChatService {
	return &ChatService{
		query:       query,
		sessionRepo: sessionRepo,
		vectorRepo:  vectorRepo,
		logger:      logger,
	}
}

// SessionMetadata summarizes one chat session for listings
type SessionMetadata struct {
	ChatID    string   `json:"chat_id"`
	Filenames []string `json:"filenames"`
	Role      string   `json:"role"`
}

// DeleteResult reports how far session deletion got. Status is
// "partial" when the transcript was removed but the vector collection
// could not be.
type DeleteResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Chat answers a message in an existing session and appends both the
// user turn and the assistant turn to the transcript
func (s *ChatService) Chat(ctx context.Context, chatID, message string) (*QueryResult, error) {
	session, err := s.sessionRepo.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}

	result, err := s.query.Answer(ctx, message, chatID, session.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to process chat message: %w", err)
	}

	err = s.sessionRepo.AppendTurns(ctx, chatID,
		models.Turn{Role: "user", Content: message},
		models.Turn{Role: "assistant", Content: result.Answer, Sources: result.Sources},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record chat turns: %w", err)
	}

	return result, nil
}

// ListSessions returns metadata for all sessions, newest first
func (s *ChatService) ListSessions(ctx context.Context) ([]SessionMetadata, error) {
	sessions, err := s.sessionRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	metadata := make([]SessionMetadata, 0, len(sessions))
	for _, session := range sessions {
		if session.Role == "" {
			continue
		}
		metadata = append(metadata, SessionMetadata{
			ChatID:    session.ID,
			Filenames: session.Filenames,
			Role:      session.Role,
		})
	}
	return metadata, nil
}

// History returns the full transcript of one session
func (s *ChatService) History(ctx context.Context, chatID string) ([]models.Turn, error) {
	session, err := s.sessionRepo.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return session.History, nil
}

// DeleteSession removes the transcript and the vector collection. A
// collection cleanup failure is reported, not raised, since the
// session itself is already gone.
func (s *ChatService) DeleteSession(ctx context.Context, chatID string) (*DeleteResult, error) {
	if err := s.sessionRepo.Delete(ctx, chatID); err != nil {
		return nil, err
	}

	if err := s.vectorRepo.DeleteCollection(ctx, chatID); err != nil {
		s.logger.Printf("Could not delete vector collection for %s: %v", chatID, err)
		return &DeleteResult{
			Status:  "partial",
			Message: "DB entry deleted, but vector collection cleanup failed.",
		}, nil
	}

	s.logger.Printf("Deleted chat session %s", chatID)
	return &DeleteResult{
		Status:  "success",
		Message: fmt.Sprintf("Chat session %s deleted.", chatID),
	}, nil
}
