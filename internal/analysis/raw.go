package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse means the collaborator output was not a JSON object.
var ErrMalformedResponse = errors.New("malformed analysis response")

// RawAnalysis is the collaborator's loosely-typed answer. Fields holding the
// wrong JSON type decode as absent instead of failing the whole object.
type RawAnalysis struct {
	Title        string
	Overview     string
	Sections     []RawSection
	KeyTakeaways []string
}

// RawSection is one entry of the collaborator's sections array.
type RawSection struct {
	ID      string
	Type    string
	Title   string
	Content string
	// Items is nil when the collaborator sent none.
	Items []string
}

// DecodeRaw parses collaborator text into a RawAnalysis. A surrounding
// Markdown code fence is tolerated.
func DecodeRaw(content string) (RawAnalysis, error) {
	body := stripFence(strings.TrimSpace(content))
	if body == "" {
		return RawAnalysis{}, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}
	if !strings.HasPrefix(body, "{") {
		return RawAnalysis{}, fmt.Errorf("%w: expected a JSON object", ErrMalformedResponse)
	}

	var raw RawAnalysis
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return RawAnalysis{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return raw, nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop the info string, e.g. ```json
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func (r *RawAnalysis) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("analysis is null")
	}

	r.Title = lenientString(fields["title"])
	r.Overview = lenientString(fields["overview"])
	r.KeyTakeaways = lenientStrings(fields["keyTakeaways"])

	var entries []json.RawMessage
	if err := json.Unmarshal(fields["sections"], &entries); err == nil {
		r.Sections = make([]RawSection, len(entries))
		for i, entry := range entries {
			r.Sections[i] = decodeSection(entry)
		}
	}
	return nil
}

// decodeSection treats a non-object entry as an empty section so that the
// positional defaults still apply.
func decodeSection(data json.RawMessage) RawSection {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return RawSection{}
	}
	return RawSection{
		ID:      lenientString(fields["id"]),
		Type:    lenientString(fields["type"]),
		Title:   lenientString(fields["title"]),
		Content: lenientString(fields["content"]),
		Items:   lenientStrings(fields["items"]),
	}
}

func lenientString(data json.RawMessage) string {
	var s string
	if len(data) == 0 || json.Unmarshal(data, &s) != nil {
		return ""
	}
	return s
}

// lenientStrings returns nil when data is absent or not an array, and
// drops array elements that are not strings.
func lenientStrings(data json.RawMessage) []string {
	if len(data) == 0 {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil || elems == nil {
		return nil
	}
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		var s string
		if json.Unmarshal(e, &s) == nil {
			out = append(out, s)
		}
	}
	return out
}
