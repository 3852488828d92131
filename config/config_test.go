package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, int64(20*1024*1024), cfg.Upload.MaxFileSize)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "none", cfg.Blob.Backend)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
server:
  addr: ":9090"
store:
  backend: sqlite
  sqlite:
    path: /tmp/docs.db
retention:
  period: 48h
analyzer:
  provider: ollama
  maxImagePixels: 1000000
  ollama:
    model: llava
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	t.Setenv("HTTP_ADDR", ":7070")
	t.Setenv("OLLAMA_MODEL", "llama3.2-vision")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr, "env overrides yaml")
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "/tmp/docs.db", cfg.Store.SQLite.Path)
	assert.Equal(t, 48*time.Hour, cfg.Retention.Period)
	assert.Equal(t, "ollama", cfg.Analyzer.Provider)
	assert.Equal(t, "llama3.2-vision", cfg.Analyzer.Ollama.Model)
	assert.Equal(t, 1_000_000, cfg.Analyzer.MaxImagePixels)
	assert.NoError(t, cfg.Analyzer.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadBadDuration(t *testing.T) {
	t.Setenv("RETENTION_PERIOD", "forever")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RETENTION_PERIOD")
}

func TestValidateRejectsUnknownBackends(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = "mongo"
	cfg.Blob.Backend = "ftp"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo")
	assert.Contains(t, err.Error(), "ftp")
}

func TestAnalyzerValidate(t *testing.T) {
	cfg := defaultAnalyzerConfig()
	assert.Error(t, cfg.Validate(), "openai needs an api key")

	cfg.OpenAI.APIKey = "sk-test"
	assert.NoError(t, cfg.Validate())

	cfg.OCR = "textract"
	assert.Error(t, cfg.Validate(), "textract needs a region")

	cfg.Textract.Region = "us-east-1"
	assert.NoError(t, cfg.Validate())

	cfg.Provider = "vertex"
	assert.Error(t, cfg.Validate())
}

func TestSetList(t *testing.T) {
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.test, http://b.test,,")
	var got []string
	setList(&got, "CORS_ALLOW_ORIGINS")
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, got)
}
