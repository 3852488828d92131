package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/agent/document"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/logger"
)

// OCR recognizes text in an encoded image.
type OCR interface {
	Name() string
	Recognize(ctx context.Context, data []byte) (string, error)
	Close() error
}

// ErrTooLarge is returned for images whose declared size exceeds MaxPixels.
var ErrTooLarge = errors.New("image too large")

// Limits bounds the images a Processor accepts and emits. Zero disables
// a limit.
type Limits struct {
	// MaxDimension is the longest side sent to the model.
	MaxDimension int
	// MaxPixels caps width*height before decoding.
	MaxPixels int
}

// Processor downscales images for vision models and optionally attaches
// recognized text as a hint.
type Processor struct {
	logger       logger.Logger
	maxDimension int
	maxPixels    int
	ocr          OCR
}

// NewProcessor returns a Processor. ocr may be nil.
func NewProcessor(log logger.Logger, limits Limits, ocr OCR) *Processor {
	return &Processor{
		logger:       log,
		maxDimension: limits.MaxDimension,
		maxPixels:    limits.MaxPixels,
		ocr:          ocr,
	}
}

func (p *Processor) CanProcess(mimeType string) bool {
	switch mimeType {
	case "image/jpeg", "image/jpg", "image/png":
		return true
	default:
		return false
	}
}

func (p *Processor) Process(ctx context.Context, file io.Reader) (*document.Content, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if p.maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(p.maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, p.maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	out, err := p.fit(img, format, data)
	if err != nil {
		return nil, err
	}

	content := &document.Content{
		Pages:     1,
		Image:     out,
		ImageMIME: "image/" + format,
	}

	if p.ocr != nil {
		text, err := p.ocr.Recognize(ctx, data)
		if err != nil {
			p.logger.Warn("OCR hint failed, continuing without it",
				logger.String("engine", p.ocr.Name()),
				logger.Error(err),
			)
		} else {
			content.Text = text
		}
	}

	return content, nil
}

// fit re-encodes img when its longest side exceeds maxDimension and
// returns the original bytes otherwise.
func (p *Processor) fit(img image.Image, format string, original []byte) ([]byte, error) {
	bounds := img.Bounds()
	if p.maxDimension <= 0 || (bounds.Dx() <= p.maxDimension && bounds.Dy() <= p.maxDimension) {
		return original, nil
	}

	resized := imaging.Fit(img, p.maxDimension, p.maxDimension, imaging.Lanczos)

	f := imaging.JPEG
	if format == "png" {
		f = imaging.PNG
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, resized, f, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	p.logger.Debug("Downscaled image",
		logger.Int("width", bounds.Dx()),
		logger.Int("height", bounds.Dy()),
		logger.Int("maxDimension", p.maxDimension),
		logger.Float64("scale", float64(p.maxDimension)/float64(max(bounds.Dx(), bounds.Dy()))),
	)
	return buf.Bytes(), nil
}

func (p *Processor) Close() error {
	if p.ocr != nil {
		return p.ocr.Close()
	}
	return nil
}
