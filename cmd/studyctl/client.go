package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/models"
)

// Analysis runs inside the upload request, so the timeout is generous.
const requestTimeout = 5 * time.Minute

type apiClient struct {
	baseURL    string
	httpClient *http.Client
}

var newAPIClient = func() *apiClient {
	return &apiClient{
		baseURL:    strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

func (c *apiClient) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("server not reachable at %s: %w", c.baseURL, err)
	}
	return resp, nil
}

func (c *apiClient) listDocuments(ctx context.Context) ([]models.Document, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/documents", nil, "")
	if err != nil {
		return nil, err
	}
	var docs []models.Document
	return docs, decodeJSON(resp, &docs)
}

func (c *apiClient) getDocument(ctx context.Context, id string) (*models.Document, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/documents/"+url.PathEscape(id), nil, "")
	if err != nil {
		return nil, err
	}
	var doc models.Document
	if err := decodeJSON(resp, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *apiClient) deleteDocument(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/documents/"+url.PathEscape(id), nil, "")
	if err != nil {
		return err
	}
	var result struct {
		Success bool `json:"success"`
	}
	return decodeJSON(resp, &result)
}

// upload sends path as the multipart "file" field. The part type comes
// from the file extension; the server sniffs it when unknown.
func (c *apiClient) upload(ctx context.Context, path string) (*models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(path)))
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/upload", &body, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	var doc models.Document
	if err := decodeJSON(resp, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("server returned %d (failed to read body: %w)", resp.StatusCode, err)
		}
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Message != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, eb.Message)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
