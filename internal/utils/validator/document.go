package validator

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/logger"
)

const (
	CodeInvalidFileType = "INVALID_FILE_TYPE"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeEmptyFile       = "EMPTY_FILE"

	invalidTypeMessage = "Invalid file type. Only PDF, JPG, and PNG are allowed."
	genericMIMEType    = "application/octet-stream"
)

// DocumentValidator checks uploads before any record is created.
type DocumentValidator struct {
	logger logger.Logger
	config *ValidatorConfig
}

type ValidatorConfig struct {
	MaxFileSize  int64    // bytes
	AllowedTypes []string // MIME types
}

// ValidationError describes a rejected upload.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// DefaultConfig allows PDF, JPEG and PNG up to 20MB.
func DefaultConfig() *ValidatorConfig {
	return &ValidatorConfig{
		MaxFileSize:  20 * 1024 * 1024,
		AllowedTypes: []string{"application/pdf", "image/jpeg", "image/jpg", "image/png"},
	}
}

func NewDocumentValidator(log logger.Logger, config *ValidatorConfig) *DocumentValidator {
	if config == nil {
		config = DefaultConfig()
	}
	return &DocumentValidator{
		logger: log,
		config: config,
	}
}

// Validate returns a *ValidationError when the upload must be rejected.
// MIME parameters are ignored and matching is case-insensitive.
func (v *DocumentValidator) Validate(fileName, mimeType string, size int64) error {
	if !v.allowed(mimeType) {
		return v.reject(fileName, &ValidationError{
			Code:    CodeInvalidFileType,
			Message: invalidTypeMessage,
			Field:   "mimeType",
		}, logger.String("mimeType", mimeType), logger.Strings("allowedTypes", v.config.AllowedTypes))
	}

	if size <= 0 {
		return v.reject(fileName, &ValidationError{
			Code:    CodeEmptyFile,
			Message: "File is empty",
			Field:   "size",
		})
	}

	if size > v.config.MaxFileSize {
		return v.reject(fileName, &ValidationError{
			Code:    CodeFileTooLarge,
			Message: fmt.Sprintf("File size exceeds maximum limit of %d bytes", v.config.MaxFileSize),
			Field:   "size",
		})
	}

	return nil
}

// MaxFileSize is the configured size bound.
func (v *DocumentValidator) MaxFileSize() int64 {
	return v.config.MaxFileSize
}

func (v *DocumentValidator) allowed(mimeType string) bool {
	base := normalizeMIME(mimeType)
	for _, t := range v.config.AllowedTypes {
		if strings.EqualFold(base, t) {
			return true
		}
	}
	return false
}

func (v *DocumentValidator) reject(fileName string, err *ValidationError, fields ...logger.Field) error {
	v.logger.Warn("Upload rejected", append([]logger.Field{
		logger.String("filename", fileName),
		logger.String("code", err.Code),
	}, fields...)...)
	return err
}

// AsValidationError unwraps err into a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// DetectMIME returns declared unless it is empty or generic, in which case
// the type is sniffed from the first bytes of the file.
func DetectMIME(declared string, head []byte) string {
	if base := normalizeMIME(declared); base != "" && base != genericMIMEType {
		return declared
	}
	if len(head) > 512 {
		head = head[:512]
	}
	return http.DetectContentType(head)
}

func normalizeMIME(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return ""
	}
	if base, _, err := mime.ParseMediaType(mimeType); err == nil {
		return base
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
