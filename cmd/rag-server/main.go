// Package main MultiRole Chatbot API Server
//
//	@title			MultiRole Chatbot API
//	@version		1.0
//	@description	Role-aware document question answering over uploaded documents
//
//	@host		localhost:8080
//	@BasePath	/
package main

import (
	"log"

	"github.com/joho/godotenv"

	_ "github.com/scode550/MultiRole-Chatbot/docs" // swagger docs registration
	"github.com/scode550/MultiRole-Chatbot/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	log.Println("Starting RAG server...")
	srv, err := server.NewServer()
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	log.Printf("Listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
