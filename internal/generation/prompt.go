package generation

import (
	"bytes"
	"encoding/json"
	"strings"
)

// QuoteList renders items as a JSON array for embedding in a prompt. Non-ASCII
// text is kept as is so the generator sees the original script.
func QuoteList[T any](items []T) string {
	if items == nil {
		items = []T{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return "[]"
	}
	return strings.TrimSpace(buf.String())
}

// Dedent trims every line of a prompt template and drops the outer blank lines.
func Dedent(prompt string) string {
	lines := strings.Split(prompt, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
