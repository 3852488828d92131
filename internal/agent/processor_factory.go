package agent

import (
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/config"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/agent/document"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/agent/document/image"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/agent/document/pdf"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/logger"
)

// ProcessorFactory maps MIME types to content processors.
type ProcessorFactory struct {
	processors map[string]document.Processor
	logger     logger.Logger
}

// NewProcessorFactory registers the PDF text extractor and the image
// processor, with the OCR engine selected by cfg.OCR. Textract also
// reads PDFs, so it doubles as the fallback for scans without a text layer.
func NewProcessorFactory(ctx context.Context, cfg config.AnalyzerConfig, log logger.Logger) (*ProcessorFactory, error) {
	factory := NewEmptyProcessorFactory(log)

	var ocr image.OCR
	var pdfOCR pdf.OCR
	switch cfg.OCR {
	case "", "none":
	case "tesseract":
		ocr = image.NewTesseractOCR()
	case "textract":
		textractOCR, err := image.NewTextractOCR(ctx, cfg.Textract)
		if err != nil {
			return nil, fmt.Errorf("failed to create textract processor: %w", err)
		}
		ocr, pdfOCR = textractOCR, textractOCR
	default:
		return nil, fmt.Errorf("unsupported OCR engine: %s", cfg.OCR)
	}
	if ocr != nil {
		log.Info("OCR hint enabled", logger.String("engine", ocr.Name()))
	}

	factory.Register(pdf.NewProcessor(log.Named("pdf"), cfg.MaxTextChars, pdfOCR), "application/pdf")
	factory.Register(image.NewProcessor(log.Named("image"), image.Limits{
		MaxDimension: cfg.MaxImageDimension,
		MaxPixels:    cfg.MaxImagePixels,
	}, ocr), "image/jpeg", "image/jpg", "image/png")

	return factory, nil
}

// NewEmptyProcessorFactory returns a factory with nothing registered.
func NewEmptyProcessorFactory(log logger.Logger) *ProcessorFactory {
	return &ProcessorFactory{
		processors: make(map[string]document.Processor),
		logger:     log,
	}
}

func (f *ProcessorFactory) Register(p document.Processor, mimeTypes ...string) {
	for _, t := range mimeTypes {
		f.processors[t] = p
	}
}

func (f *ProcessorFactory) GetProcessor(mimeType string) (document.Processor, error) {
	base := baseMIME(mimeType)
	processor, ok := f.processors[base]
	if !ok {
		f.logger.Error("No processor found", logger.String("mimeType", mimeType))
		return nil, fmt.Errorf("no processor found for mime type: %s", mimeType)
	}
	return processor, nil
}

// Close closes every distinct registered processor.
func (f *ProcessorFactory) Close() error {
	seen := make(map[document.Processor]bool)
	var firstErr error
	for _, p := range f.processors {
		if seen[p] {
			continue
		}
		seen[p] = true
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func baseMIME(mimeType string) string {
	if base, _, err := mime.ParseMediaType(mimeType); err == nil {
		return base
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
