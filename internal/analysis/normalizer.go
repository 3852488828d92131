package analysis

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/models"
)

const (
	defaultOverview = "Analysis of uploaded document"
	defaultType     = models.SectionExplanation
)

// Normalizer turns a RawAnalysis into a complete DocumentAnalysis.
type Normalizer struct {
	newID func() string
	now   func() time.Time
}

type Option func(*Normalizer)

// WithIDGenerator overrides the analysis id source.
func WithIDGenerator(gen func() string) Option {
	return func(n *Normalizer) {
		n.newID = gen
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		n.now = now
	}
}

func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize fills every missing field with its default. It never fails.
func (n *Normalizer) Normalize(raw RawAnalysis, fileName, mimeType string) models.DocumentAnalysis {
	return build(raw, n.newID(), fileName, mimeType, n.now())
}

// Normalize is the package-level form using a random id and the given time.
func Normalize(raw RawAnalysis, fileName, mimeType string, now time.Time) models.DocumentAnalysis {
	return build(raw, uuid.NewString(), fileName, mimeType, now)
}

func build(raw RawAnalysis, id, fileName, mimeType string, now time.Time) models.DocumentAnalysis {
	sections := make([]models.AnalysisSection, len(raw.Sections))
	ids := newIDSet(len(raw.Sections))
	for i, s := range raw.Sections {
		sections[i] = models.AnalysisSection{
			ID:      ids.claim(s.ID, i),
			Type:    models.SectionType(orDefault(s.Type, string(defaultType))),
			Title:   orDefault(s.Title, fmt.Sprintf("Section %d", i+1)),
			Content: s.Content,
			Items:   s.Items,
		}
	}

	takeaways := raw.KeyTakeaways
	if takeaways == nil {
		takeaways = []string{}
	}

	return models.DocumentAnalysis{
		ID:           id,
		FileName:     fileName,
		FileType:     models.FileTypeFromMIME(mimeType),
		UploadedAt:   now,
		Title:        orDefault(raw.Title, fileName),
		Overview:     orDefault(raw.Overview, defaultOverview),
		Sections:     sections,
		KeyTakeaways: takeaways,
	}
}

// idSet hands out section ids that are unique within one analysis.
type idSet map[string]struct{}

func newIDSet(n int) idSet { return make(idSet, n) }

// claim returns id if it is unused. Empty and repeated ids are re-keyed
// by position, the first occurrence keeping its id.
func (s idSet) claim(id string, i int) string {
	if _, taken := s[id]; id == "" || taken {
		id = fmt.Sprintf("section-%d", i)
		for n := 2; ; n++ {
			if _, taken := s[id]; !taken {
				break
			}
			id = fmt.Sprintf("section-%d-%d", i, n)
		}
	}
	s[id] = struct{}{}
	return id
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
