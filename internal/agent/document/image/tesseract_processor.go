package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// TesseractOCR runs a local tesseract over a cleaned-up copy of the image.
type TesseractOCR struct {
	languages []string
	pipeline  []Preprocessor
}

func NewTesseractOCR(languages ...string) *TesseractOCR {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &TesseractOCR{
		languages: languages,
		pipeline:  DefaultPipeline(),
	}
}

func (t *TesseractOCR) Name() string { return "tesseract" }

func (t *TesseractOCR) Recognize(ctx context.Context, data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, Preprocess(img, t.pipeline), imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	// a client per call; gosseract clients are not safe for concurrent use
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to get text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (t *TesseractOCR) Close() error {
	return nil
}
