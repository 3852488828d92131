package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/models"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/service/document"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/store"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/utils/validator"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/logger"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/render"
)

const (
	msgNotFound     = "Document not found"
	msgNoFile       = "No file uploaded"
	msgFileTooLarge = "File too large"
)

type DocumentHandler struct {
	service  document.DocumentProcessor
	logger   logger.Logger
	maxBytes int64
}

// ErrorResponse is the body of every failed request. Error carries the
// underlying cause for server-side failures only.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func NewDocumentHandler(service document.DocumentProcessor, logger logger.Logger, maxBytes int64) *DocumentHandler {
	return &DocumentHandler{
		service:  service,
		logger:   logger,
		maxBytes: maxBytes,
	}
}

// ListDocuments returns every document, newest first.
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	docs, err := h.service.ListDocuments(c.Request.Context())
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to fetch documents", err)
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	c.JSON(http.StatusOK, docs)
}

func (h *DocumentHandler) GetDocument(c *gin.Context) {
	doc, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Upload analyzes the multipart "file" field synchronously.
func (h *DocumentHandler) Upload(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.handleError(c, http.StatusBadRequest, msgFileTooLarge, err)
			return
		}
		h.handleError(c, http.StatusBadRequest, msgNoFile, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.handleError(c, http.StatusBadRequest, msgFileTooLarge, err)
		return
	}

	doc, err := h.service.ProcessUpload(c.Request.Context(), document.Upload{
		FileName: header.Filename,
		MIMEType: validator.DetectMIME(header.Header.Get("Content-Type"), data),
		Size:     int64(len(data)),
		Data:     data,
	})
	if err != nil {
		if verr, ok := validator.AsValidationError(err); ok {
			h.handleError(c, http.StatusBadRequest, verr.Message, err)
			return
		}
		var aerr *document.AnalysisError
		if errors.As(err, &aerr) {
			h.handleError(c, http.StatusInternalServerError, aerr.Error(), err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "Failed to process document", err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	existed, err := h.service.DeleteDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to delete document", err)
		return
	}
	if !existed {
		h.handleError(c, http.StatusNotFound, msgNotFound, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Markdown renders a completed analysis. The collapse query parameter is a
// comma-separated list of section ids shown as headings only.
func (h *DocumentHandler) Markdown(c *gin.Context) {
	doc, ok := h.lookup(c)
	if !ok {
		return
	}
	if doc.Status != models.StatusComplete || doc.Analysis == nil {
		h.handleError(c, http.StatusConflict, "Document analysis is not complete", nil)
		return
	}

	collapsed := make(map[string]bool)
	for _, id := range strings.Split(c.Query("collapse"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			collapsed[id] = true
		}
	}

	var buf bytes.Buffer
	if err := render.Markdown(&buf, *doc.Analysis, render.Options{Collapsed: collapsed}); err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to render document", err)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", buf.Bytes())
}

// File streams the archived original upload.
func (h *DocumentHandler) File(c *gin.Context) {
	rc, doc, err := h.service.OpenFile(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.handleError(c, http.StatusNotFound, msgNotFound, nil)
		return
	case errors.Is(err, document.ErrFileUnavailable):
		h.handleError(c, http.StatusNotFound, "Original file not available", nil)
		return
	case err != nil:
		h.handleError(c, http.StatusInternalServerError, "Failed to read file", err)
		return
	}
	defer rc.Close()

	contentType := doc.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, contentType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", doc.FileName),
	})
}

func (h *DocumentHandler) lookup(c *gin.Context) (*models.Document, bool) {
	doc, err := h.service.GetDocument(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		h.handleError(c, http.StatusNotFound, msgNotFound, nil)
		return nil, false
	}
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to fetch document", err)
		return nil, false
	}
	return doc, true
}

// handleError logs and writes the error body.
func (h *DocumentHandler) handleError(c *gin.Context, status int, message string, err error) {
	fields := []logger.Field{
		logger.String("path", c.Request.URL.Path),
		logger.Int("status", status),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error(message, fields...)
	} else {
		h.logger.Warn(message, fields...)
	}

	response := ErrorResponse{Message: message}
	if err != nil && status >= http.StatusInternalServerError {
		response.Error = err.Error()
	}
	c.AbortWithStatusJSON(status, response)
}
