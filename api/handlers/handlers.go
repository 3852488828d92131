package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/service/document"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/logger"
)

// multipartOverhead is added to the file size bound for form boundaries and headers.
const multipartOverhead = 1 << 20

type Handlers struct {
	Document *DocumentHandler
}

type Options struct {
	// MaxFileSize bounds a single upload in bytes.
	MaxFileSize int64
}

func NewHandlers(
	documentService document.DocumentProcessor,
	logger logger.Logger,
	opts Options,
) *Handlers {
	return &Handlers{
		Document: NewDocumentHandler(documentService, logger, opts.MaxFileSize+multipartOverhead),
	}
}

// Health reports liveness.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
