// Package api exposes the ingestion and question endpoints over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/minber-ai/minber/internal/answer"
	"github.com/minber-ai/minber/internal/core"
	"github.com/minber-ai/minber/internal/ingest"
	"github.com/minber-ai/minber/internal/logger"
)

// Handler wires the pipeline and orchestrator to the HTTP routes.
type Handler struct {
	pipeline     *ingest.Pipeline
	orchestrator *answer.Orchestrator
	store        core.VectorStore
}

// NewHandler creates a new API handler.
func NewHandler(pipeline *ingest.Pipeline, orchestrator *answer.Orchestrator, store core.VectorStore) *Handler {
	return &Handler{
		pipeline:     pipeline,
		orchestrator: orchestrator,
		store:        store,
	}
}

// NewRouter builds the gin engine with all routes and middleware.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/healthz", h.health)

	api := router.Group("/api/v1")
	{
		api.POST("/ingest", h.ingest)
		api.POST("/ask", h.ask)
		api.GET("/documents", h.listDocuments)
	}

	return router
}

// corsMiddleware emits permissive cross-origin headers on every response
// and short-circuits preflight requests. This is not a security
// boundary; the provider keys live server-side.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

type ingestRequest struct {
	DocumentText string `json:"documentText"`
	DocumentName string `json:"documentName"`
	DocumentType string `json:"documentType"`
}

type ingestResponse struct {
	Success         bool   `json:"success"`
	DocumentName    string `json:"document_name"`
	ChunksProcessed int    `json:"chunks_processed"`
	TotalChunks     int    `json:"total_chunks"`
	Message         string `json:"message"`
}

type askRequest struct {
	Message   string `json:"message"`
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (h *Handler) ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Geçersiz istek gövdesi", Details: err.Error()})
		return
	}

	report, err := h.pipeline.Ingest(c.Request.Context(), req.DocumentText, req.DocumentName, req.DocumentType)
	if err != nil {
		if core.IsValidation(err) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "Doküman metni ve adı gerekli", Details: err.Error()})
			return
		}
		logger.Error("Ingestion failed for document %s: %v", req.DocumentName, err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Doküman işleme hatası oluştu", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ingestResponse{
		Success:         true,
		DocumentName:    report.DocumentName,
		ChunksProcessed: report.ChunksProcessed,
		TotalChunks:     report.TotalChunks,
		Message:         report.Message,
	})
}

func (h *Handler) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Geçersiz istek gövdesi", Details: err.Error()})
		return
	}

	ans, err := h.orchestrator.Ask(c.Request.Context(), req.Message, req.UserID, req.SessionID)
	if err != nil {
		if core.IsValidation(err) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "Mesaj ve kullanıcı ID gerekli", Details: err.Error()})
			return
		}
		logger.Error("Ask failed for user %s: %v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Sistem hatası oluştu. Lütfen tekrar deneyin."})
		return
	}

	c.JSON(http.StatusOK, ans)
}

func (h *Handler) listDocuments(c *gin.Context) {
	names, err := h.store.ListDocuments(c.Request.Context(), 50)
	if err != nil {
		logger.Error("Failed to list documents: %v", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Doküman listesi alınamadı"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": names})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
