// Package server exposes the chat pipeline over HTTP: a small REST API
// plus a websocket endpoint for interactive clients. All policy lives in
// the pipeline; this layer only validates, routes and serializes.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ouagalab/fasotour/internal/models"
	"github.com/ouagalab/fasotour/pkg/cache"
	"github.com/ouagalab/fasotour/pkg/rag"
)

type Config struct {
	AppName     string
	Version     string
	Host        string
	Port        int
	CORSOrigins []string
	DefaultTopK int
}

type Server struct {
	config      Config
	pipeline    *rag.Pipeline
	cache       *cache.ResponseCache // optional
	sourceLines []string
	router      *gin.Engine
}

type chatRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k"`
}

type chatResponse struct {
	Response string `json:"response"`
	// Duplicate of Response kept for frontend compatibility.
	Message     string          `json:"message"`
	Sources     []models.Source `json:"sources"`
	ContextUsed bool            `json:"context_used"`
	Query       string          `json:"query"`
	NumSources  int             `json:"num_sources"`
}

type healthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	RAGInitialized bool   `json:"rag_initialized"`
}

type initResponse struct {
	Status          string `json:"status"`
	DocumentsLoaded int    `json:"documents_loaded"`
	Message         string `json:"message"`
}

// New wires the routes. pipeline may be nil when RAG initialization
// failed; the server then serves keyword-search degraded answers.
func New(config Config, pipeline *rag.Pipeline, responseCache *cache.ResponseCache, sourceLines []string) *Server {
	if config.DefaultTopK <= 0 {
		config.DefaultTopK = 5
	}

	s := &Server{
		config:      config,
		pipeline:    pipeline,
		cache:       responseCache,
		sourceLines: sourceLines,
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), corsMiddleware(config.CORSOrigins))

	router.GET("/", s.handleRoot)
	router.GET("/api/health", s.handleHealth)
	router.POST("/api/chat", s.handleChat)
	router.POST("/api/init", s.handleInit)
	router.GET("/api/stats", s.handleStats)
	router.GET("/ws", s.handleWebSocket)

	s.router = router
	return s
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Run() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	slog.Info("starting HTTP server", "addr", addr)
	return s.router.Run(addr)
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        s.config.AppName,
		"version":     s.config.Version,
		"description": "Assistant IA contextuel pour le tourisme au Burkina Faso",
		"endpoints": gin.H{
			"health": "/api/health",
			"chat":   "/api/chat",
			"init":   "/api/init",
			"stats":  "/api/stats",
			"ws":     "/ws",
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	status := "healthy"
	if s.pipeline == nil {
		status = "degraded"
	}
	c.JSON(http.StatusOK, healthResponse{
		Status:         status,
		Version:        s.config.Version,
		RAGInitialized: s.pipeline != nil,
	})
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "corps de requête invalide"})
		return
	}

	topK := -1
	if req.TopK != nil {
		topK = *req.TopK
	}

	result, err := s.answer(c, req.Query, topK)
	if err != nil {
		if errors.Is(err, rag.ErrEmptyQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "La requête ne peut pas être vide"})
			return
		}
		slog.Error("chat request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Erreur lors du traitement de la requête"})
		return
	}

	c.JSON(http.StatusOK, toChatResponse(result))
}

// answer runs one query through the pipeline, with the keyword-search
// degraded path when the pipeline never initialized, and the optional
// response cache in front.
func (s *Server) answer(c *gin.Context, query string, topK int) (*models.ChatResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, rag.ErrEmptyQuery
	}

	if s.pipeline == nil {
		return rag.KeywordAnswer(query, s.sourceLines, topK), nil
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(c.Request.Context(), query, topK); ok {
			return cached, nil
		}
	}

	result, err := s.pipeline.Chat(c.Request.Context(), query, topK)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(c.Request.Context(), query, topK, result)
	}
	return result, nil
}

func (s *Server) handleInit(c *gin.Context) {
	if s.pipeline == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Le système n'est pas initialisé"})
		return
	}

	count, err := s.pipeline.Reinitialize(c.Request.Context())
	if err != nil {
		slog.Error("corpus initialization failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Erreur lors de l'initialisation du corpus"})
		return
	}

	c.JSON(http.StatusOK, initResponse{
		Status:          "success",
		DocumentsLoaded: count,
		Message:         fmt.Sprintf("Corpus initialisé avec %d documents", count),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	if s.pipeline == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Le système n'est pas initialisé"})
		return
	}
	c.JSON(http.StatusOK, s.pipeline.Stats())
}

func toChatResponse(result *models.ChatResult) chatResponse {
	sources := result.Sources
	if sources == nil {
		sources = []models.Source{}
	}
	return chatResponse{
		Response:    result.Response,
		Message:     result.Response,
		Sources:     sources,
		ContextUsed: result.ContextUsed,
		Query:       result.Query,
		NumSources:  result.NumSources,
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Next()
		slog.Info("request handled",
			"id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowed[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
