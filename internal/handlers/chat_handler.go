package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/scode550/MultiRole-Chatbot/internal/repositories"
	"github.com/scode550/MultiRole-Chatbot/internal/services"
)

// maxUploadBytes bounds a multipart upload (100MB)
const maxUploadBytes = 100 << 20

// ChatHandler handles HTTP requests for document upload and chat
// operations
type ChatHandler struct {
	ingestion *services.IngestionService
	chat      *services.ChatService
	logger    *log.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(ingestion *services.IngestionService, chat *services.ChatService, logger *log.Logger) *ChatHandler {
	return &ChatHandler{
		ingestion: ingestion,
		chat:      chat,
		logger:    logger,
	}
}

// ChatMessageRequest is an incoming chat message
type ChatMessageRequest struct {
	ChatID  string `json:"chat_id"`
	Message string `json:"message"`
}

// Upload handles multi-document upload and chat session creation
// @Summary Upload documents
// @Description Upload one or more documents, build the session's vector index and create a chat session
// @Tags chat
// @Accept multipart/form-data
// @Produce json
// @Param role formData string true "Stakeholder role"
// @Param files formData file true "Document files"
// @Success 200 {object} services.IngestResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /upload [post]
func (h *ChatHandler) Upload(w http.ResponseWriter, r *http.Request) {
	h.logger.Printf("Upload request from %s", r.RemoteAddr)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.logger.Printf("Failed to parse form: %v", err)
		h.sendError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	role := r.FormValue("role")
	if role == "" {
		h.sendError(w, http.StatusBadRequest, "A role must be selected.")
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		h.sendError(w, http.StatusBadRequest, "At least one file is required.")
		return
	}

	files := make([]services.UploadFile, 0, len(fileHeaders))
	for _, header := range fileHeaders {
		file, err := header.Open()
		if err != nil {
			h.logger.Printf("Failed to open uploaded file %s: %v", header.Filename, err)
			h.sendError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read file %s", header.Filename))
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			h.sendError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read file %s", header.Filename))
			return
		}
		files = append(files, services.UploadFile{Filename: header.Filename, Data: data})
	}

	resp, err := h.ingestion.Ingest(r.Context(), &services.IngestRequest{Role: role, Files: files})
	if err != nil {
		h.logger.Printf("Upload failed: %v", err)
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.sendJSON(w, http.StatusOK, resp)
}

// Chat handles an incoming chat message
// @Summary Chat with documents
// @Description Answer a question against the session's documents and record the exchange
// @Tags chat
// @Accept json
// @Produce json
// @Param request body ChatMessageRequest true "Chat message"
// @Success 200 {object} services.QueryResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /chat [post]
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChatID == "" || req.Message == "" {
		h.sendError(w, http.StatusBadRequest, "chat_id and message are required")
		return
	}

	result, err := h.chat.Chat(r.Context(), req.ChatID, req.Message)
	if err != nil {
		if repositories.IsSessionNotFound(err) {
			h.sendError(w, http.StatusNotFound, "Chat session not found.")
			return
		}
		h.logger.Printf("Chat failed for %s: %v", req.ChatID, err)
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to process chat message: %v", err))
		return
	}

	h.sendJSON(w, http.StatusOK, result)
}

// ListChats retrieves metadata for all past chat sessions
// @Summary List chat sessions
// @Description Get metadata for all chat sessions, newest first
// @Tags chat
// @Produce json
// @Success 200 {array} services.SessionMetadata
// @Failure 500 {object} ErrorResponse
// @Router /chats [get]
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.chat.ListSessions(r.Context())
	if err != nil {
		h.logger.Printf("Failed to list sessions: %v", err)
		h.sendError(w, http.StatusInternalServerError, "Failed to list chat sessions")
		return
	}

	h.sendJSON(w, http.StatusOK, sessions)
}

// History retrieves the full message history for a chat
// @Summary Get chat history
// @Description Get the full transcript of one chat session
// @Tags chat
// @Produce json
// @Param chat_id path string true "Chat session ID"
// @Success 200 {array} models.Turn
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /history/{chat_id} [get]
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chat_id"]

	history, err := h.chat.History(r.Context(), chatID)
	if err != nil {
		if repositories.IsSessionNotFound(err) {
			h.sendError(w, http.StatusNotFound, "Chat history not found.")
			return
		}
		h.logger.Printf("Failed to load history for %s: %v", chatID, err)
		h.sendError(w, http.StatusInternalServerError, "Failed to load chat history")
		return
	}

	h.sendJSON(w, http.StatusOK, history)
}

// DeleteChat deletes a chat session and its vector collection
// @Summary Delete a chat session
// @Description Delete a session's transcript and vector collection
// @Tags chat
// @Produce json
// @Param chat_id path string true "Chat session ID"
// @Success 200 {object} services.DeleteResult
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /chat/{chat_id} [delete]
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chat_id"]

	result, err := h.chat.DeleteSession(r.Context(), chatID)
	if err != nil {
		if repositories.IsSessionNotFound(err) {
			h.sendError(w, http.StatusNotFound, "Chat session not found.")
			return
		}
		h.logger.Printf("Failed to delete session %s: %v", chatID, err)
		h.sendError(w, http.StatusInternalServerError, "Failed to delete chat session")
		return
	}

	h.sendJSON(w, http.StatusOK, result)
}

// Helper methods

func (h *ChatHandler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("Failed to encode JSON: %v", err)
	}
}

func (h *ChatHandler) sendError(w http.ResponseWriter, status int, message string) {
	h.sendJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Status:  status,
	})
}

// ErrorResponse is the standard error payload
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}
