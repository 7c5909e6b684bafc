package models

import (
	"fmt"
	"time"
)

// Session represents one upload-to-chat lifecycle. A session owns one
// document set, one role, one transcript, and one vector collection
// (same id on both sides).
type Session struct {
	ID        string    `json:"chat_id"`
	Role      string    `json:"role"`
	Filenames []string  `json:"filenames"`
	History   []Turn    `json:"history"`
	CreatedAt time.Time `json:"created_at"`
}

// Turn is a single message in a session transcript.
type Turn struct {
	Role    string   `json:"role"` // "user" or "assistant"
	Content string   `json:"content"`
	Sources []Source `json:"sources,omitempty"`
}

// Source identifies a document that contributed to an answer.
type Source struct {
	SourceFile string `json:"source_file"`
	DocType    string `json:"doc_type"`
}

// Entity is a named entity extracted from chunk text.
type Entity struct {
	Word   string `json:"word"`
	Entity string `json:"entity"`
}

// Validate checks session fields before persistence.
func (s *Session) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("session id is required")
	}
	if s.Role == "" {
		return fmt.Errorf("session role is required")
	}
	return nil
}

// LastTurn returns the most recent transcript turn, or nil for an
// empty transcript.
func (s *Session) LastTurn() *Turn {
	if len(s.History) == 0 {
		return nil
	}
	return &s.History[len(s.History)-1]
}
