package image

import (
	"image"

	"github.com/disintegration/imaging"
)

// Preprocessor is one step of the OCR cleanup pipeline.
type Preprocessor interface {
	Process(img image.Image) image.Image
}

type GrayscaleProcessor struct{}

func (GrayscaleProcessor) Process(img image.Image) image.Image {
	return imaging.Grayscale(img)
}

type ContrastProcessor struct {
	Amount float64
}

func (p ContrastProcessor) Process(img image.Image) image.Image {
	return imaging.AdjustContrast(img, p.Amount)
}

type DenoiseProcessor struct {
	Sigma float64
}

func (p DenoiseProcessor) Process(img image.Image) image.Image {
	return imaging.Blur(img, p.Sigma)
}

type SharpenProcessor struct {
	Sigma float64
}

func (p SharpenProcessor) Process(img image.Image) image.Image {
	return imaging.Sharpen(img, p.Sigma)
}

// DefaultPipeline suits scanned notes and photos of handwriting.
func DefaultPipeline() []Preprocessor {
	return []Preprocessor{
		GrayscaleProcessor{},
		DenoiseProcessor{Sigma: 0.5},
		ContrastProcessor{Amount: 20},
		SharpenProcessor{Sigma: 0.5},
	}
}

// Preprocess runs img through every step in order.
func Preprocess(img image.Image, steps []Preprocessor) image.Image {
	for _, step := range steps {
		img = step.Process(img)
	}
	return img
}
