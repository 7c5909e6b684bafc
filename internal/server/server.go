package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/scode550/MultiRole-Chatbot/internal/db"
	"github.com/scode550/MultiRole-Chatbot/internal/handlers"
	"github.com/scode550/MultiRole-Chatbot/internal/repositories"
	"github.com/scode550/MultiRole-Chatbot/internal/routes"
	"github.com/scode550/MultiRole-Chatbot/internal/services"
)

// corsMiddleware adds CORS headers to all responses
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewServer wires repositories, services and handlers into an
// http.Server. It fails with an error rather than a degraded server:
// every backend here is load-bearing.
func NewServer() (*http.Server, error) {
	logger := log.New(os.Stdout, "[SERVER] ", log.LstdFlags)

	inferenceClient := initializeInferenceClient(logger)

	sessionRepo, vectorRepo, err := initializeRepositories(logger)
	if err != nil {
		return nil, err
	}

	fileStore, err := services.NewLocalFileStore(getUploadDir())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}

	entityExtractor := initializeEntityExtractor(inferenceClient, logger)
	chunker := services.NewChunker(
		getIntEnv("CHUNK_SIZE", 1000),
		getIntEnv("CHUNK_STRIDE", 800),
	)

	ingestionService := services.NewIngestionService(inferenceClient, vectorRepo, sessionRepo, fileStore, entityExtractor, chunker, logger)
	queryService := services.NewQueryService(inferenceClient, vectorRepo, getQueryConfig(), logger)
	chatService := services.NewChatService(queryService, sessionRepo, vectorRepo, logger)

	chatHandler := handlers.NewChatHandler(ingestionService, chatService, logger)
	healthHandler := handlers.NewHealthHandler(inferenceClient, sessionRepo, vectorRepo, logger)
	logger.Println("✅ Services initialized successfully")

	h := &routes.Handlers{
		Health: healthHandler,
		Chat:   chatHandler,
	}

	router := mux.NewRouter()
	routes.RegisterRoutes(router, h)

	// Add Swagger endpoints
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%s/swagger/doc.json", getPort())),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	return &http.Server{
		Addr:    ":" + getPort(),
		Handler: corsMiddleware(router),
	}, nil
}

// initializeInferenceClient creates the model-serving sidecar client
func initializeInferenceClient(logger *log.Logger) services.InferenceClientInterface {
	inferenceURL := os.Getenv("INFERENCE_BACKEND_URL")
	if inferenceURL == "" {
		inferenceURL = "http://localhost:8000"
	}

	timeout := time.Duration(getIntEnv("INFERENCE_TIMEOUT_SECONDS", 120)) * time.Second
	retries := getIntEnv("INFERENCE_RETRIES", 3)

	logger.Printf("Initializing inference client: %s (timeout: %v, retries: %d)", inferenceURL, timeout, retries)
	return services.NewInferenceClientWithOptions(inferenceURL, timeout, retries)
}

// initializeEntityExtractor picks the NER backend. ENTITY_BACKEND=local
// runs prose in-process instead of calling the sidecar.
func initializeEntityExtractor(client services.InferenceClientInterface, logger *log.Logger) services.EntityExtractor {
	if os.Getenv("ENTITY_BACKEND") == "local" {
		logger.Println("Using in-process entity extraction")
		return services.NewLocalEntityExtractor()
	}
	return services.NewInferenceEntityExtractor(client)
}

// initializeRepositories creates session and vector repositories over
// Redis and ChromaDB
func initializeRepositories(logger *log.Logger) (repositories.SessionRepository, repositories.VectorRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisConfig := getRedisConfig()
	logger.Printf("Connecting to Redis: %s:%d (DB: %d)", redisConfig.Host, redisConfig.Port, redisConfig.DB)

	redisClient, err := db.NewRedisClient(redisConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Redis client: %w", err)
	}
	if err := redisClient.Ping(ctx); err != nil {
		return nil, nil, fmt.Errorf("redis connection failed (hint: docker run -d -p 6379:6379 redis:7-alpine): %w", err)
	}
	logger.Println("✅ Redis connected successfully")

	chromaConfig := getChromaConfig()
	logger.Printf("Connecting to ChromaDB: %s:%d", chromaConfig.Host, chromaConfig.Port)

	chromaClient := db.NewChromaDBClient(chromaConfig)
	if err := chromaClient.Heartbeat(ctx); err != nil {
		return nil, nil, fmt.Errorf("chromadb connection failed (hint: docker run -d -p 8001:8000 chromadb/chroma): %w", err)
	}
	logger.Println("✅ ChromaDB connected successfully")

	sessionRepo := repositories.NewRedisSessionRepository(redisClient.GetClient())
	vectorRepo := repositories.NewChromaVectorRepository(chromaClient)

	return sessionRepo, vectorRepo, nil
}

// getRedisConfig reads Redis configuration from environment variables
func getRedisConfig() db.RedisConfig {
	config := db.DefaultRedisConfig()

	if host := os.Getenv("REDIS_HOST"); host != "" {
		config.Host = host
	}
	if portStr := os.Getenv("REDIS_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			config.Port = port
		}
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		config.Password = password
	}
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if dbNum, err := strconv.Atoi(dbStr); err == nil {
			config.DB = dbNum
		}
	}
	if poolSizeStr := os.Getenv("REDIS_POOL_SIZE"); poolSizeStr != "" {
		if poolSize, err := strconv.Atoi(poolSizeStr); err == nil {
			config.PoolSize = poolSize
		}
	}

	return config
}

// getChromaConfig reads ChromaDB configuration from environment variables
func getChromaConfig() db.ChromaDBConfig {
	config := db.ChromaDBConfig{
		Host:     "localhost",
		Port:     8001,
		Tenant:   "default_tenant",
		Database: "default_database",
		Timeout:  30 * time.Second,
	}

	if host := os.Getenv("CHROMA_HOST"); host != "" {
		config.Host = host
	}
	if portStr := os.Getenv("CHROMA_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			config.Port = port
		}
	}
	if tenant := os.Getenv("CHROMA_TENANT"); tenant != "" {
		config.Tenant = tenant
	}
	if database := os.Getenv("CHROMA_DATABASE"); database != "" {
		config.Database = database
	}

	return config
}

// getQueryConfig reads query pipeline thresholds from environment
// variables
func getQueryConfig() services.QueryConfig {
	config := services.DefaultQueryConfig()

	if v := os.Getenv("RELEVANCE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.RelevanceThreshold = f
		}
	}
	if v := os.Getenv("QA_MIN_SCORE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.QAMinScore = f
		}
	}
	config.TopK = getIntEnv("TOP_K", config.TopK)

	return config
}

func getUploadDir() string {
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		return dir
	}
	return "documents"
}

func getPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8080"
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}
