// Package render turns a DocumentAnalysis into presentation output.
package render

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/template"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/models"
)

// tocThreshold is the section count above which a table of contents is shown.
const tocThreshold = 3

// Icon is the visual marker for a section type.
type Icon struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Glyph string `json:"glyph"`
}

// SectionIcon maps a section type to its icon. Unknown types get a plain
// document icon.
func SectionIcon(t models.SectionType) Icon {
	switch t {
	case models.SectionExplanation:
		return Icon{Name: "lightbulb", Color: "amber", Glyph: "💡"}
	case models.SectionKeyPoints:
		return Icon{Name: "key", Color: "blue", Glyph: "🔑"}
	case models.SectionFormula:
		return Icon{Name: "calculator", Color: "purple", Glyph: "🧮"}
	case models.SectionStepByStep:
		return Icon{Name: "list-ordered", Color: "green", Glyph: "🔢"}
	case models.SectionExample:
		return Icon{Name: "book-open", Color: "orange", Glyph: "📖"}
	case models.SectionSummary:
		return Icon{Name: "file-text", Color: "cyan", Glyph: "📄"}
	case models.SectionDefinition:
		return Icon{Name: "quote", Color: "pink", Glyph: "💬"}
	default:
		return Icon{Name: "file-text", Glyph: "📄"}
	}
}

// SectionLabel is the badge text for a section type.
func SectionLabel(t models.SectionType) string {
	return t.Label()
}

// TOCEntry is one line of the table of contents.
type TOCEntry struct {
	Number    int
	SectionID string
	Title     string
}

// TableOfContents returns nil unless the analysis has more than three sections.
func TableOfContents(a models.DocumentAnalysis) []TOCEntry {
	if len(a.Sections) <= tocThreshold {
		return nil
	}
	entries := make([]TOCEntry, len(a.Sections))
	for i, s := range a.Sections {
		entries[i] = TOCEntry{Number: i + 1, SectionID: s.ID, Title: s.Title}
	}
	return entries
}

// Options controls Markdown output.
type Options struct {
	// Collapsed holds section ids rendered as heading only.
	Collapsed map[string]bool
}

type sectionView struct {
	models.AnalysisSection
	Icon      Icon
	Label     string
	Collapsed bool
}

type documentView struct {
	models.DocumentAnalysis
	TOC      []TOCEntry
	Sections []sectionView
}

// inlineEscaper keeps model text from opening HTML tags or closing links.
var inlineEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;", "[", `\[`, "]", `\]`)

// inline flattens s to one line safe for headings and link text.
func inline(s string) string {
	return inlineEscaper.Replace(strings.Join(strings.Fields(s), " "))
}

// anchor encodes a section id for use in an HTML attribute and a URL
// fragment.
func anchor(id string) string {
	return url.QueryEscape(id)
}

var markdownTemplate = template.Must(template.New("analysis").Funcs(template.FuncMap{
	"upper":  func(t models.FileType) string { return strings.ToUpper(string(t)) },
	"date":   func(v models.DocumentAnalysis) string { return v.UploadedAt.Format("2006-01-02") },
	"body":   sectionBody,
	"inc":    func(i int) int { return i + 1 },
	"inline": inline,
	"anchor": anchor,
}).Parse(`# {{ .Title }}

` + "`{{ upper .FileType }}`" + ` · {{ date .DocumentAnalysis }} · {{ .FileName }}

{{ .Overview }}
{{ if .TOC }}
## Table of Contents

{{ range .TOC }}{{ .Number }}. [{{ inline .Title }}](#{{ anchor .SectionID }})
{{ end }}{{ end }}{{ range .Sections }}
<a id="{{ anchor .ID }}"></a>
## {{ .Icon.Glyph }} {{ inline .Title }}
{{ if not .Collapsed }}
_{{ .Label }}_

{{ body .AnalysisSection }}
{{ end }}{{ end }}{{ if .KeyTakeaways }}
## ✨ Key Takeaways

{{ range $i, $t := .KeyTakeaways }}{{ inc $i }}. {{ $t }}
{{ end }}{{ end }}`))

// Markdown writes the analysis as a Markdown document.
func Markdown(w io.Writer, a models.DocumentAnalysis, opts Options) error {
	view := documentView{
		DocumentAnalysis: a,
		TOC:              TableOfContents(a),
		Sections:         make([]sectionView, len(a.Sections)),
	}
	for i, s := range a.Sections {
		view.Sections[i] = sectionView{
			AnalysisSection: s,
			Icon:            SectionIcon(s.Type),
			Label:           SectionLabel(s.Type),
			Collapsed:       opts.Collapsed[s.ID],
		}
	}

	if err := markdownTemplate.Execute(w, view); err != nil {
		return fmt.Errorf("failed to render analysis: %w", err)
	}
	return nil
}

// sectionBody picks the template for a section. List types without items
// fall back to their content.
func sectionBody(s models.AnalysisSection) string {
	var b strings.Builder
	switch {
	case s.Type == models.SectionFormula:
		b.WriteString("```\n")
		b.WriteString(strings.TrimRight(s.Content, "\n"))
		b.WriteString("\n```")
	case s.Type == models.SectionStepByStep && len(s.Items) > 0:
		for i, item := range s.Items {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%d. %s", i+1, item)
		}
	case s.Type == models.SectionKeyPoints && len(s.Items) > 0:
		for i, item := range s.Items {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("- " + item)
		}
	case s.Type == models.SectionDefinition:
		b.WriteString(prefixLines(s.Content, "> "))
	case s.Type == models.SectionExample:
		b.WriteString(prefixLines(s.Content, "    "))
	default:
		b.WriteString(s.Content)
	}
	return b.String()
}

func prefixLines(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(prefix+line, " ")
	}
	return strings.Join(lines, "\n")
}
