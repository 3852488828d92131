package analysis

import (
	"fmt"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/models"
)

type IssueKind string

const (
	IssueUnknownType  IssueKind = "unknown_type"
	IssueMissingItems IssueKind = "missing_items"
)

// Issue describes a section that renders through a fallback template.
type Issue struct {
	SectionID string
	Index     int
	Kind      IssueKind
	Message   string
}

// Audit reports sections whose type is outside the known set and list
// sections without items. The analysis is left untouched; unknown types
// are passed through and rendered with the default template.
func Audit(a models.DocumentAnalysis) []Issue {
	var issues []Issue
	for i, s := range a.Sections {
		switch {
		case !s.Type.Valid():
			issues = append(issues, Issue{
				SectionID: s.ID,
				Index:     i,
				Kind:      IssueUnknownType,
				Message:   fmt.Sprintf("section %q has unknown type %q", s.ID, s.Type),
			})
		case s.Type.ListBased() && len(s.Items) == 0:
			issues = append(issues, Issue{
				SectionID: s.ID,
				Index:     i,
				Kind:      IssueMissingItems,
				Message:   fmt.Sprintf("section %q of type %q has no items", s.ID, s.Type),
			})
		}
	}
	return issues
}
