package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the model answered with no content.
var ErrEmptyResponse = errors.New("no response from AI")

// Input is one single-turn request.
type Input struct {
	System string
	User   string
	// Image is optional; when set it is sent alongside User.
	Image     []byte
	ImageMIME string
}

// Client sends one request and returns the model's raw text.
type Client interface {
	Complete(ctx context.Context, in Input) (string, error)
	Model() string
}
