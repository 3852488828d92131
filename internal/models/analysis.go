package models

import "time"

// SectionType selects how a section is presented.
type SectionType string

const (
	SectionExplanation SectionType = "explanation"
	SectionKeyPoints   SectionType = "keyPoints"
	SectionFormula     SectionType = "formula"
	SectionStepByStep  SectionType = "stepByStep"
	SectionExample     SectionType = "example"
	SectionSummary     SectionType = "summary"
	SectionDefinition  SectionType = "definition"
)

// SectionTypes lists the closed set in prompt order.
var SectionTypes = []SectionType{
	SectionExplanation,
	SectionKeyPoints,
	SectionFormula,
	SectionStepByStep,
	SectionExample,
	SectionSummary,
	SectionDefinition,
}

// Valid reports membership in the closed set.
func (t SectionType) Valid() bool {
	for _, known := range SectionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ListBased reports whether Items is the primary payload.
func (t SectionType) ListBased() bool {
	return t == SectionKeyPoints || t == SectionStepByStep
}

// Label is the human-readable badge text.
func (t SectionType) Label() string {
	switch t {
	case SectionExplanation:
		return "Explanation"
	case SectionKeyPoints:
		return "Key Points"
	case SectionFormula:
		return "Formula"
	case SectionStepByStep:
		return "Step-by-Step"
	case SectionExample:
		return "Example"
	case SectionSummary:
		return "Summary"
	case SectionDefinition:
		return "Definition"
	default:
		return "Content"
	}
}

// AnalysisSection is one typed block of the breakdown.
type AnalysisSection struct {
	ID      string      `json:"id"`
	Type    SectionType `json:"type"`
	Title   string      `json:"title"`
	Content string      `json:"content"`
	Items   []string    `json:"items,omitempty"`
}

// DocumentAnalysis is the normalized, student-friendly breakdown of a document.
type DocumentAnalysis struct {
	ID           string            `json:"id"`
	FileName     string            `json:"fileName"`
	FileType     FileType          `json:"fileType"`
	UploadedAt   time.Time         `json:"uploadedAt"`
	Title        string            `json:"title"`
	Overview     string            `json:"overview"`
	Sections     []AnalysisSection `json:"sections"`
	KeyTakeaways []string          `json:"keyTakeaways"`
}

// Clone returns a deep copy.
func (a DocumentAnalysis) Clone() DocumentAnalysis {
	out := a
	out.Sections = make([]AnalysisSection, len(a.Sections))
	for i, s := range a.Sections {
		out.Sections[i] = s
		if s.Items != nil {
			out.Sections[i].Items = append([]string(nil), s.Items...)
		}
	}
	out.KeyTakeaways = append(make([]string, 0, len(a.KeyTakeaways)), a.KeyTakeaways...)
	return out
}
