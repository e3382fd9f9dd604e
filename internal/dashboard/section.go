// Package dashboard renders the vault's status document and generates the
// periodic briefings.
package dashboard

import (
	"strings"
)

// Section is one "## " block of Dashboard.md. Foreign sections (written by
// other tools sharing the dashboard) are carried through byte-for-byte.
type Section struct {
	Title string
	Body  string
}

// Document is a parsed Dashboard.md: the preamble before the first section,
// then the sections in file order.
type Document struct {
	Preamble string
	Sections []Section
}

// Owned section titles the aggregator rewrites on every refresh. Everything
// else is preserved.
var ownedSections = map[string]bool{
	"Status":          true,
	"Recent Activity": true,
	"Alerts":          true,
}

// ParseDocument splits dashboard content into preamble and "## " sections.
func ParseDocument(content string) *Document {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(normalized, "\n")

	doc := &Document{}
	var preamble []string
	var current *Section
	var body []string

	flush := func() {
		if current != nil {
			current.Body = strings.Join(body, "\n")
			doc.Sections = append(doc.Sections, *current)
		}
		body = nil
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "## ") {
			flush()
			current = &Section{Title: strings.TrimSpace(strings.TrimPrefix(line, "## "))}
			continue
		}
		if current == nil {
			preamble = append(preamble, line)
		} else {
			body = append(body, line)
		}
	}
	flush()

	doc.Preamble = strings.Join(preamble, "\n")
	return doc
}

// Merge replaces the owned sections with fresh content and keeps foreign
// sections in their original positions. Owned sections missing from the old
// document are appended in a stable order.
func Merge(old *Document, owned map[string]string, preamble string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(preamble, "\n"))
	sb.WriteString("\n")

	written := make(map[string]bool)
	for _, section := range old.Sections {
		sb.WriteString("\n## ")
		sb.WriteString(section.Title)
		sb.WriteString("\n")
		if ownedSections[section.Title] {
			sb.WriteString(strings.TrimRight(owned[section.Title], "\n"))
			sb.WriteString("\n")
			written[section.Title] = true
		} else {
			sb.WriteString(section.Body)
			if !strings.HasSuffix(section.Body, "\n") {
				sb.WriteString("\n")
			}
		}
	}

	for _, title := range []string{"Status", "Recent Activity", "Alerts"} {
		if written[title] {
			continue
		}
		sb.WriteString("\n## ")
		sb.WriteString(title)
		sb.WriteString("\n")
		sb.WriteString(strings.TrimRight(owned[title], "\n"))
		sb.WriteString("\n")
	}

	return sb.String()
}
