package models

import (
	"strings"
	"time"
)

// FileType is the coarse classification of an uploaded file.
type FileType string

const (
	PDF   FileType = "pdf"
	Image FileType = "image"
)

// FileTypeFromMIME returns PDF when the MIME type mentions pdf, Image otherwise.
func FileTypeFromMIME(mimeType string) FileType {
	if strings.Contains(strings.ToLower(mimeType), "pdf") {
		return PDF
	}
	return Image
}

// DocumentStatus is the lifecycle state of an uploaded document.
type DocumentStatus string

const (
	// StatusUploading is part of the stored format but the upload flow
	// never enters it; documents are created directly in StatusAnalyzing.
	StatusUploading DocumentStatus = "uploading"
	StatusAnalyzing DocumentStatus = "analyzing"
	StatusComplete  DocumentStatus = "complete"
	StatusError     DocumentStatus = "error"
)

// Terminal reports whether no further transition is expected.
func (s DocumentStatus) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// Document is one uploaded file plus its lifecycle status and analysis.
type Document struct {
	ID           string            `json:"id"`
	FileName     string            `json:"fileName"`
	FileType     FileType          `json:"fileType"`
	MIMEType     string            `json:"mimeType,omitempty"`
	FileSize     int64             `json:"fileSize"`
	UploadedAt   time.Time         `json:"uploadedAt"`
	Status       DocumentStatus    `json:"status"`
	Analysis     *DocumentAnalysis `json:"analysis,omitempty"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
	Revision     int64             `json:"revision"`
}

// Clone returns a deep copy so stored records cannot be mutated through
// returned pointers.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	if d.Analysis != nil {
		a := d.Analysis.Clone()
		out.Analysis = &a
	}
	return &out
}

// NewDocument carries the fields a caller supplies on creation. The store
// assigns ID and Revision.
type NewDocument struct {
	FileName     string
	FileType     FileType
	MIMEType     string
	FileSize     int64
	UploadedAt   time.Time
	Status       DocumentStatus
	Analysis     *DocumentAnalysis
	ErrorMessage string
}

// DocumentPatch is a shallow partial update. Non-nil fields replace the
// stored value wholesale; nested analysis is never merged.
type DocumentPatch struct {
	FileName     *string
	FileType     *FileType
	FileSize     *int64
	UploadedAt   *time.Time
	Status       *DocumentStatus
	Analysis     *DocumentAnalysis
	ErrorMessage *string

	ClearAnalysis     bool
	ClearErrorMessage bool

	// ExpectedRevision, when non-nil, must match the stored revision or the
	// update is rejected.
	ExpectedRevision *int64
}

// Apply merges the patch into doc and bumps the revision.
func (p DocumentPatch) Apply(doc *Document) {
	if p.FileName != nil {
		doc.FileName = *p.FileName
	}
	if p.FileType != nil {
		doc.FileType = *p.FileType
	}
	if p.FileSize != nil {
		doc.FileSize = *p.FileSize
	}
	if p.UploadedAt != nil {
		doc.UploadedAt = *p.UploadedAt
	}
	if p.Status != nil {
		doc.Status = *p.Status
	}
	if p.ClearAnalysis {
		doc.Analysis = nil
	}
	if p.Analysis != nil {
		a := p.Analysis.Clone()
		doc.Analysis = &a
	}
	if p.ClearErrorMessage {
		doc.ErrorMessage = ""
	}
	if p.ErrorMessage != nil {
		doc.ErrorMessage = *p.ErrorMessage
	}
	doc.Revision++
}

// Build turns a NewDocument into a stored record.
func (n NewDocument) Build(id string) *Document {
	doc := &Document{
		ID:           id,
		FileName:     n.FileName,
		FileType:     n.FileType,
		MIMEType:     n.MIMEType,
		FileSize:     n.FileSize,
		UploadedAt:   n.UploadedAt,
		Status:       n.Status,
		ErrorMessage: n.ErrorMessage,
		Revision:     1,
	}
	if n.Analysis != nil {
		a := n.Analysis.Clone()
		doc.Analysis = &a
	}
	return doc
}

// Ptr is a small helper for building patches.
func Ptr[T any](v T) *T {
	return &v
}
