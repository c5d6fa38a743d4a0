package generation

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// ExtractList returns the first list literal found in raw, or an empty list.
func ExtractList(raw string) []any {
	out := DecodeList[any](raw)
	if out == nil {
		return []any{}
	}
	return out
}

// ExtractObject returns the first object literal found in raw, or an empty map.
func ExtractObject(raw string) map[string]any {
	out, ok := DecodeObject[map[string]any](raw)
	if !ok || out == nil {
		return map[string]any{}
	}
	return out
}

// DecodeList decodes the span between the first '[' and the last ']' into a
// slice of T. Any failure yields nil.
func DecodeList[T any](raw string) []T {
	span, ok := literalSpan(raw, '[', ']')
	if !ok {
		return nil
	}
	out, ok := decodeLiteral[[]T](span)
	if !ok {
		return nil
	}
	return out
}

// DecodeObject decodes the span between the first '{' and the last '}' into T.
func DecodeObject[T any](raw string) (T, bool) {
	span, ok := literalSpan(raw, '{', '}')
	if !ok {
		var zero T
		return zero, false
	}
	return decodeLiteral[T](span)
}

func literalSpan(raw string, opening, closing byte) (string, bool) {
	start := strings.IndexByte(raw, opening)
	end := strings.LastIndexByte(raw, closing)
	if start == -1 || end == -1 || start >= end {
		return "", false
	}
	return raw[start : end+1], true
}

// decodeLiteral accepts JSON and, failing that, a YAML flow collection so that
// single-quoted python-style literals still parse.
func decodeLiteral[T any](span string) (out T, ok bool) {
	defer func() {
		if recover() != nil {
			var zero T
			out, ok = zero, false
		}
	}()
	if err := json.Unmarshal([]byte(span), &out); err == nil {
		return out, true
	}
	if !singleCollection(span) {
		var zero T
		return zero, false
	}
	var fromYAML T
	if err := yaml.Unmarshal([]byte(span), &fromYAML); err != nil {
		var zero T
		return zero, false
	}
	return fromYAML, true
}

// singleCollection reports whether the bracket opening span closes at its last
// byte. Brackets inside quoted strings are ignored.
func singleCollection(span string) bool {
	depth := 0
	var quote byte
	for i := 0; i < len(span); i++ {
		c := span[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return i == len(span)-1
			}
		}
	}
	return false
}

// Strings keeps the non-empty trimmed string values of a decoded list.
func Strings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
