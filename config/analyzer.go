package config

import (
	"fmt"
	"time"
)

// AnalyzerConfig selects and tunes the external analysis model.
type AnalyzerConfig struct {
	// Provider is one of openai, ollama.
	Provider          string        `yaml:"provider"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxTokens         int           `yaml:"maxTokens"`
	MaxTextChars      int           `yaml:"maxTextChars"`
	MaxImageDimension int           `yaml:"maxImageDimension"`
	// MaxImagePixels rejects images whose declared width*height exceeds it.
	MaxImagePixels int `yaml:"maxImagePixels"`
	// OCR is one of none, textract, tesseract.
	OCR      string         `yaml:"ocr"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Ollama   OllamaConfig   `yaml:"ollama"`
	Textract TextractConfig `yaml:"textract"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseUrl"`
}

type OllamaConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

func defaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		Provider:          "openai",
		Timeout:           2 * time.Minute,
		MaxTokens:         4096,
		MaxTextChars:      60000,
		MaxImageDimension: 2048,
		MaxImagePixels:    40_000_000,
		OCR:               "none",
		OpenAI: OpenAIConfig{
			Model: "gpt-5",
		},
		Ollama: OllamaConfig{
			Endpoint:    "http://localhost:11434",
			Model:       "llama3.2-vision",
			Temperature: 0.2,
		},
		Textract: TextractConfig{
			MinConfidence: 80.0,
		},
	}
}

func (c *AnalyzerConfig) applyEnv() {
	setString(&c.Provider, "ANALYZER_PROVIDER")
	setString(&c.OCR, "ANALYZER_OCR")
	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.OpenAI.Model, "OPENAI_MODEL")
	setString(&c.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&c.Ollama.Endpoint, "OLLAMA_ENDPOINT")
	setString(&c.Ollama.Model, "OLLAMA_MODEL")
	c.Textract.applyEnv()
}

// Validate checks that the selected provider and OCR engine are usable.
func (c *AnalyzerConfig) Validate() error {
	switch c.Provider {
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("analyzer.openai.apiKey (or OPENAI_API_KEY) is required for the openai provider")
		}
	case "ollama":
		if c.Ollama.Endpoint == "" {
			return fmt.Errorf("analyzer.ollama.endpoint is required for the ollama provider")
		}
	default:
		return fmt.Errorf("unsupported analyzer provider: %q", c.Provider)
	}

	switch c.OCR {
	case "none", "", "tesseract":
	case "textract":
		if c.Textract.Region == "" {
			return fmt.Errorf("analyzer.textract.region is required for textract OCR")
		}
	default:
		return fmt.Errorf("unsupported OCR engine: %q", c.OCR)
	}
	return nil
}
