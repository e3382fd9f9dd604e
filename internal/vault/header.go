package vault

import (
	"strings"
)

const fence = "---"

// Fields is an ordered key/value mapping parsed from a record's header block.
// Unknown keys are preserved but not interpreted. A repeated key keeps its
// first value.
type Fields struct {
	keys   []string
	values map[string]string
}

func NewFields() *Fields {
	return &Fields{values: make(map[string]string)}
}

func (f *Fields) Get(key string) string {
	return f.values[key]
}

func (f *Fields) Has(key string) bool {
	_, ok := f.values[key]
	return ok
}

// Set stores a value, appending the key in order if it is new.
func (f *Fields) Set(key, value string) {
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// add applies first-occurrence-wins semantics during parsing.
func (f *Fields) add(key, value string) {
	if _, ok := f.values[key]; ok {
		return
	}
	f.keys = append(f.keys, key)
	f.values[key] = value
}

func (f *Fields) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

func (f *Fields) Len() int {
	return len(f.keys)
}

// ParseDocument splits a record document into its header fields and body.
// The header is a line-oriented "key: value" block between "---" fences at
// the top of the document. A document without a leading fence is all body.
func ParseDocument(content string) (*Fields, string) {
	fields := NewFields()
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(normalized, "\n")

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != fence {
		return fields, strings.TrimSpace(normalized)
	}

	bodyStart := len(lines)
	for i := 1; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == fence {
			bodyStart = i + 1
			break
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		fields.add(key, strings.TrimSpace(value))
	}

	body := strings.Join(lines[bodyStart:], "\n")
	return fields, strings.TrimSpace(body)
}

// RenderDocument serializes fields and body back into a fenced document.
// Field order is preserved as parsed or set.
func RenderDocument(fields *Fields, body string) string {
	var sb strings.Builder
	sb.WriteString(fence)
	sb.WriteString("\n")
	for _, key := range fields.keys {
		sb.WriteString(key)
		sb.WriteString(": ")
		sb.WriteString(fields.values[key])
		sb.WriteString("\n")
	}
	sb.WriteString(fence)
	sb.WriteString("\n\n")
	sb.WriteString(strings.TrimSpace(body))
	sb.WriteString("\n")
	return sb.String()
}
