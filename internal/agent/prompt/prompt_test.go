package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemPromptListsEverySectionType(t *testing.T) {
	p := GetSystemPrompt()
	for _, typ := range []string{"explanation", "keyPoints", "formula", "stepByStep", "example", "summary", "definition"} {
		assert.Contains(t, p, `"`+typ+`"`)
	}
	assert.Contains(t, p, "keyTakeaways")
}

func TestUserPrompt(t *testing.T) {
	plain := GetUserPrompt(UserInput{FileName: "calc.png"})
	assert.Contains(t, plain, "(calc.png)")
	assert.NotContains(t, plain, "Document text")

	withText := GetUserPrompt(UserInput{FileName: "a.pdf", DocumentText: "--- Page 1 ---\nlimits", Truncated: true})
	assert.True(t, strings.HasSuffix(withText, "[The document text was truncated.]"))
	assert.Contains(t, withText, "limits")

	withHint := GetUserPrompt(UserInput{FileName: "b.jpg", OCRHint: "dy/dx"})
	assert.Contains(t, withHint, "OCR")
	assert.Contains(t, withHint, "dy/dx")
}
