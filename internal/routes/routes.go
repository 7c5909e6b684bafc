package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/scode550/MultiRole-Chatbot/internal/handlers"
)

// Handlers bundles everything RegisterRoutes wires up
type Handlers struct {
	Health *handlers.HealthHandler
	Chat   *handlers.ChatHandler
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(router *mux.Router, h *Handlers) {
	// Health endpoints
	router.HandleFunc("/health", h.Health.Check).Methods(http.MethodGet)

	// Chat session lifecycle
	router.HandleFunc("/upload", h.Chat.Upload).Methods(http.MethodPost)
	router.HandleFunc("/chats", h.Chat.ListChats).Methods(http.MethodGet)
	router.HandleFunc("/chat", h.Chat.Chat).Methods(http.MethodPost)
	router.HandleFunc("/chat/{chat_id}", h.Chat.DeleteChat).Methods(http.MethodDelete)
	router.HandleFunc("/history/{chat_id}", h.Chat.History).Methods(http.MethodGet)
}
