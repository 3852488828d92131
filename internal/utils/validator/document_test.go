package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/logger"
)

func TestValidateAcceptsAllowedTypes(t *testing.T) {
	v := NewDocumentValidator(logger.NewNop(), nil)

	for _, mimeType := range []string{
		"application/pdf",
		"image/jpeg",
		"image/jpg",
		"image/png",
		"IMAGE/PNG",
		"application/pdf; charset=binary",
	} {
		assert.NoError(t, v.Validate("file", mimeType, 1024), mimeType)
	}
}

func TestValidateRejectsPlainText(t *testing.T) {
	log := logger.NewTestLogger()
	v := NewDocumentValidator(log, nil)

	err := v.Validate("notes.txt", "text/plain", 100)

	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, CodeInvalidFileType, ve.Code)
	assert.Equal(t, "Invalid file type. Only PDF, JPG, and PNG are allowed.", ve.Error())
	assert.Equal(t, []string{"Upload rejected"}, log.Messages("WARN"))

	fields := map[string]bool{}
	for _, f := range log.GetEntries()[0].Fields {
		fields[f.Key] = true
	}
	assert.True(t, fields["mimeType"])
	assert.True(t, fields["allowedTypes"])
}

func TestValidateRejectsOversize(t *testing.T) {
	v := NewDocumentValidator(logger.NewNop(), nil)

	err := v.Validate("big.pdf", "application/pdf", 25*1024*1024)

	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, CodeFileTooLarge, ve.Code)
	assert.Equal(t, "size", ve.Field)

	assert.NoError(t, v.Validate("edge.pdf", "application/pdf", 20*1024*1024), "exactly the limit is fine")
}

func TestValidateRejectsEmpty(t *testing.T) {
	v := NewDocumentValidator(logger.NewNop(), nil)

	ve, ok := AsValidationError(v.Validate("empty.png", "image/png", 0))
	require.True(t, ok)
	assert.Equal(t, CodeEmptyFile, ve.Code)
}

func TestValidateCustomConfig(t *testing.T) {
	v := NewDocumentValidator(logger.NewNop(), &ValidatorConfig{
		MaxFileSize:  10,
		AllowedTypes: []string{"image/png"},
	})

	assert.Error(t, v.Validate("a.pdf", "application/pdf", 5))
	assert.Error(t, v.Validate("a.png", "image/png", 11))
	assert.NoError(t, v.Validate("a.png", "image/png", 10))
	assert.Equal(t, int64(10), v.MaxFileSize())
}

func TestDetectMIME(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	pdf := []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	assert.Equal(t, "image/png", DetectMIME("", png))
	assert.Equal(t, "image/png", DetectMIME("application/octet-stream", png))
	assert.Equal(t, "application/pdf", DetectMIME("", pdf))
	assert.Equal(t, "image/jpeg", DetectMIME("image/jpeg", pdf), "declared type wins")
}
