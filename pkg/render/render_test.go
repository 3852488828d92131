package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/models"
)

func sampleAnalysis(sections ...models.AnalysisSection) models.DocumentAnalysis {
	return models.DocumentAnalysis{
		ID:           "a1",
		FileName:     "physics.pdf",
		FileType:     models.PDF,
		UploadedAt:   time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC),
		Title:        "Newton's Laws",
		Overview:     "Forces and motion.",
		Sections:     sections,
		KeyTakeaways: []string{"F = ma", "Every action has a reaction"},
	}
}

func TestSectionIconAndLabel(t *testing.T) {
	seen := map[string]bool{}
	for _, st := range models.SectionTypes {
		icon := SectionIcon(st)
		assert.NotEmpty(t, icon.Glyph)
		assert.NotEqual(t, "Content", SectionLabel(st))
		seen[icon.Name+icon.Color] = true
	}
	assert.Len(t, seen, len(models.SectionTypes), "each known type has its own icon")

	assert.Equal(t, "Step-by-Step", SectionLabel(models.SectionStepByStep))
	assert.Equal(t, "Content", SectionLabel("mystery"))
	assert.Equal(t, Icon{Name: "file-text", Glyph: "📄"}, SectionIcon("mystery"))
}

func TestTableOfContentsThreshold(t *testing.T) {
	three := sampleAnalysis(
		models.AnalysisSection{ID: "a", Title: "A"},
		models.AnalysisSection{ID: "b", Title: "B"},
		models.AnalysisSection{ID: "c", Title: "C"},
	)
	assert.Nil(t, TableOfContents(three))

	four := three
	four.Sections = append(append([]models.AnalysisSection(nil), three.Sections...), models.AnalysisSection{ID: "d", Title: "D"})
	toc := TableOfContents(four)
	require.Len(t, toc, 4)
	assert.Equal(t, TOCEntry{Number: 4, SectionID: "d", Title: "D"}, toc[3])
}

func TestMarkdownTemplates(t *testing.T) {
	a := sampleAnalysis(
		models.AnalysisSection{ID: "f", Type: models.SectionFormula, Title: "Second law", Content: "F = m * a"},
		models.AnalysisSection{ID: "s", Type: models.SectionStepByStep, Title: "Solve", Items: []string{"Draw forces", "Sum them"}},
		models.AnalysisSection{ID: "k", Type: models.SectionKeyPoints, Title: "Points", Items: []string{"Inertia"}},
		models.AnalysisSection{ID: "d", Type: models.SectionDefinition, Title: "Force", Content: "A push or pull."},
		models.AnalysisSection{ID: "e", Type: models.SectionExample, Title: "Cart", Content: "A 2kg cart\naccelerates"},
	)

	var b strings.Builder
	require.NoError(t, Markdown(&b, a, Options{}))
	out := b.String()

	assert.True(t, strings.HasPrefix(out, "# Newton's Laws\n"))
	assert.Contains(t, out, "`PDF` · 2024-03-09 · physics.pdf")
	assert.Contains(t, out, "## Table of Contents")
	assert.Contains(t, out, "5. [Cart](#e)")
	assert.Contains(t, out, "```\nF = m * a\n```")
	assert.Contains(t, out, "1. Draw forces\n2. Sum them")
	assert.Contains(t, out, "- Inertia")
	assert.Contains(t, out, "> A push or pull.")
	assert.Contains(t, out, "    A 2kg cart\n    accelerates")
	assert.Contains(t, out, "## 🧮 Second law")
	assert.Contains(t, out, "_Formula_")
	assert.Contains(t, out, "## ✨ Key Takeaways\n\n1. F = ma\n2. Every action has a reaction\n")
}

func TestMarkdownListFallsBackToContent(t *testing.T) {
	a := sampleAnalysis(models.AnalysisSection{
		ID: "k", Type: models.SectionKeyPoints, Title: "Points", Content: "No list was given.",
	})

	var b strings.Builder
	require.NoError(t, Markdown(&b, a, Options{}))
	assert.Contains(t, b.String(), "No list was given.")
	assert.NotContains(t, b.String(), "Table of Contents")
}

func TestMarkdownCollapsed(t *testing.T) {
	a := sampleAnalysis(
		models.AnalysisSection{ID: "open", Type: models.SectionSummary, Title: "Open", Content: "visible body"},
		models.AnalysisSection{ID: "shut", Type: models.SectionSummary, Title: "Shut", Content: "hidden body"},
	)

	var b strings.Builder
	require.NoError(t, Markdown(&b, a, Options{Collapsed: map[string]bool{"shut": true}}))
	out := b.String()

	assert.Contains(t, out, "## 📄 Shut")
	assert.Contains(t, out, "visible body")
	assert.NotContains(t, out, "hidden body")
}

func TestMarkdownWithoutTakeaways(t *testing.T) {
	a := sampleAnalysis()
	a.KeyTakeaways = []string{}

	var b strings.Builder
	require.NoError(t, Markdown(&b, a, Options{}))
	assert.NotContains(t, b.String(), "Key Takeaways")
}

func TestMarkdownEscapesModelText(t *testing.T) {
	a := sampleAnalysis(
		models.AnalysisSection{ID: `x" onclick="steal()`, Title: "Intro"},
		models.AnalysisSection{ID: "<b>", Title: "[click](http://evil.test) <script>"},
		models.AnalysisSection{ID: "c", Title: "C"},
		models.AnalysisSection{ID: "d", Title: "D"},
	)

	var b strings.Builder
	require.NoError(t, Markdown(&b, a, Options{}))
	out := b.String()

	assert.NotContains(t, out, `onclick="`)
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "<b>")
	assert.Contains(t, out, `<a id="x%22+onclick%3D%22steal%28%29"></a>`)
	assert.Contains(t, out, `2. [\[click\](http://evil.test) &lt;script&gt;](#%3Cb%3E)`)
	assert.Contains(t, out, `<a id="c"></a>`)
}
