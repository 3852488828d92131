package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/config"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/agent/llm"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/agent/prompt"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/logger"
)

// ErrNoContent is returned when nothing usable could be extracted for the model.
var ErrNoContent = errors.New("no readable content found in document")

// Request is one file handed to the external model.
type Request struct {
	FileName string
	MIMEType string
	Data     []byte
}

// Analyzer returns the model's raw answer, expected to be a JSON object.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (string, error)
}

// LLMAnalyzer prepares the file with a content processor and sends it to
// a chat model.
type LLMAnalyzer struct {
	factory *ProcessorFactory
	client  llm.Client
	logger  logger.Logger
}

var _ Analyzer = (*LLMAnalyzer)(nil)

func NewLLMAnalyzer(factory *ProcessorFactory, client llm.Client, log logger.Logger) *LLMAnalyzer {
	return &LLMAnalyzer{
		factory: factory,
		client:  client,
		logger:  log,
	}
}

// NewAnalyzer builds the provider selected by cfg.Provider.
func NewAnalyzer(ctx context.Context, cfg config.AnalyzerConfig, log logger.Logger) (*LLMAnalyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factory, err := NewProcessorFactory(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var client llm.Client
	switch cfg.Provider {
	case "openai":
		client = llm.NewOpenAIClient(llm.OpenAIOptions{
			APIKey:    cfg.OpenAI.APIKey,
			Model:     cfg.OpenAI.Model,
			BaseURL:   cfg.OpenAI.BaseURL,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		})
	case "ollama":
		client = llm.NewOllamaClient(llm.OllamaOptions{
			Endpoint:    cfg.Ollama.Endpoint,
			Model:       cfg.Ollama.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Ollama.Temperature,
			Timeout:     cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported analyzer provider: %s", cfg.Provider)
	}

	log.Info("Analyzer ready",
		logger.String("provider", cfg.Provider),
		logger.String("model", client.Model()),
	)
	return NewLLMAnalyzer(factory, client, log), nil
}

func (a *LLMAnalyzer) Analyze(ctx context.Context, req Request) (string, error) {
	input, err := a.Prepare(ctx, req)
	if err != nil {
		return "", err
	}

	start := time.Now()
	out, err := a.client.Complete(ctx, input)
	if err != nil {
		return "", err
	}

	a.logger.Info("Model call finished",
		logger.String("filename", req.FileName),
		logger.String("model", a.client.Model()),
		logger.Duration("elapsed", time.Since(start)),
		logger.Int("responseChars", len(out)),
	)
	return out, nil
}

// Prepare turns the file into a model request: extracted text for PDFs,
// a downscaled image plus optional OCR hint for images.
func (a *LLMAnalyzer) Prepare(ctx context.Context, req Request) (llm.Input, error) {
	processor, err := a.factory.GetProcessor(req.MIMEType)
	if err != nil {
		return llm.Input{}, err
	}

	content, err := processor.Process(ctx, bytes.NewReader(req.Data))
	if err != nil {
		return llm.Input{}, fmt.Errorf("failed to prepare %s: %w", req.FileName, err)
	}

	user := prompt.UserInput{FileName: req.FileName}
	if len(content.Image) > 0 {
		user.OCRHint = content.Text
	} else {
		if content.Text == "" {
			return llm.Input{}, ErrNoContent
		}
		user.DocumentText = content.Text
		user.Truncated = content.Truncated
	}

	return llm.Input{
		System:    prompt.GetSystemPrompt(),
		User:      prompt.GetUserPrompt(user),
		Image:     content.Image,
		ImageMIME: content.ImageMIME,
	}, nil
}

func (a *LLMAnalyzer) Close() error {
	return a.factory.Close()
}
