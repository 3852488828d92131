package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/api/handlers"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/api/middleware"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/logger"
)

// SetupRoutes registers middleware and every endpoint on r.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, log logger.Logger, allowOrigins []string) {
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(allowOrigins))

	r.GET("/health", handlers.Health)

	api := r.Group("/api")
	{
		api.POST("/upload", h.Document.Upload)

		docs := api.Group("/documents")
		docs.GET("", h.Document.ListDocuments)
		docs.GET("/:id", h.Document.GetDocument)
		docs.DELETE("/:id", h.Document.DeleteDocument)
		docs.GET("/:id/markdown", h.Document.Markdown)
		docs.GET("/:id/file", h.Document.File)
	}
}
