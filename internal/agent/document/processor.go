package document

import (
	"context"
	"io"
)

// Content is what a Processor extracts from an upload for the model.
type Content struct {
	// Text is extracted or recognized text, possibly empty.
	Text string
	// Pages is the page count for paged formats.
	Pages int
	// Truncated is set when Text was cut to the configured limit.
	Truncated bool
	// Image holds re-encoded image bytes for vision models.
	Image     []byte
	ImageMIME string
}

// Processor prepares one family of file formats for analysis.
type Processor interface {
	// CanProcess reports whether the MIME type is handled.
	CanProcess(mimeType string) bool

	// Process reads the whole file and extracts its content.
	Process(ctx context.Context, reader io.Reader) (*Content, error)

	// Close releases resources.
	Close() error
}
