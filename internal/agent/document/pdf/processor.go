package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/agent/document"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/logger"
)

const defaultMaxWorkers = 4

// OCR recognizes text in a whole PDF document.
type OCR interface {
	Name() string
	Recognize(ctx context.Context, data []byte) (string, error)
}

// Processor extracts plain text from PDF pages in parallel.
type Processor struct {
	logger     logger.Logger
	maxChars   int
	maxWorkers int
	ocr        OCR
}

// NewProcessor returns a Processor that keeps at most maxChars of text.
// A non-positive maxChars disables truncation. When ocr is not nil it is
// used for documents without a text layer.
func NewProcessor(log logger.Logger, maxChars int, ocr OCR) *Processor {
	return &Processor{
		logger:     log,
		maxChars:   maxChars,
		maxWorkers: defaultMaxWorkers,
		ocr:        ocr,
	}
}

func (p *Processor) CanProcess(mimeType string) bool {
	return mimeType == "application/pdf"
}

func (p *Processor) Process(ctx context.Context, file io.Reader) (*document.Content, error) {
	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}

	pdfReader, numPages, err := open(content)
	if err != nil {
		return nil, err
	}
	pages := make([]string, numPages)

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, p.maxWorkers)

	for i := 1; i <= numPages; i++ {
		pageNum := i
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("failed to read page %d: %v", pageNum, r)
				}
			}()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gctx.Done():
				return gctx.Err()
			}

			page := pdfReader.Page(pageNum)
			if page.V.IsNull() {
				return nil
			}

			text, err := page.GetPlainText(nil)
			if err != nil {
				return fmt.Errorf("failed to get text from page %d: %w", pageNum, err)
			}
			pages[pageNum-1] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	text, truncated := joinPages(pages, p.maxChars)
	if text == "" && p.ocr != nil {
		text, truncated = p.recognize(ctx, content)
	}
	p.logger.Debug("Extracted pdf text",
		logger.Int("pages", numPages),
		logger.Int("chars", len(text)),
		logger.Bool("truncated", truncated),
	)

	return &document.Content{
		Text:      text,
		Pages:     numPages,
		Truncated: truncated,
	}, nil
}

// open parses the document structure. The pdf package panics on some
// malformed objects, so panics are reported as errors.
func open(content []byte) (r *pdf.Reader, numPages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("failed to open pdf: %v", rec)
		}
	}()

	reader := bytes.NewReader(content)
	r, err = pdf.NewReader(reader, reader.Size())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open pdf: %w", err)
	}
	return r, r.NumPage(), nil
}

// recognize runs OCR over a document without a text layer. Failures are
// logged and yield no text.
func (p *Processor) recognize(ctx context.Context, content []byte) (string, bool) {
	text, err := p.ocr.Recognize(ctx, content)
	if err != nil {
		p.logger.Warn("PDF OCR fallback failed",
			logger.String("engine", p.ocr.Name()),
			logger.Error(err),
		)
		return "", false
	}
	return truncate(cleanText(text), p.maxChars)
}

// joinPages prefixes each non-empty page with a marker and cuts the
// result to maxChars runes.
func joinPages(pages []string, maxChars int) (string, bool) {
	var b strings.Builder
	for i, text := range pages {
		text = cleanText(text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "--- Page %d ---\n", i+1)
		b.WriteString(text)
	}
	return truncate(b.String(), maxChars)
}

func truncate(out string, maxChars int) (string, bool) {
	if maxChars <= 0 {
		return out, false
	}
	runes := []rune(out)
	if len(runes) <= maxChars {
		return out, false
	}
	return string(runes[:maxChars]), true
}

func cleanText(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimRight(line, " \t\r"); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func (p *Processor) Close() error {
	return nil
}
