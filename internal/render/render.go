// Package render turns reassembled section text into display formats.
// Storage and round-trip verification never go through here; rendering is
// one-way, for export and the API's ?format=html view.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

// SectionMarkdown lays out a section as Markdown: optional heading, then
// one paragraph per normalized line. Indentation carried by nested markers
// is dropped; the markers themselves are the structure.
func SectionMarkdown(heading, text string) string {
	var b strings.Builder
	if heading != "" {
		b.WriteString("# ")
		b.WriteString(heading)
		b.WriteString("\n")
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.WriteString("\n")
		b.WriteString(escapeMarkdown(line))
		b.WriteString("\n")
	}
	return b.String()
}

// SectionHTML renders a section to HTML via goldmark.
func SectionHTML(heading, text string) (string, error) {
	md := goldmark.New(
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	var buf bytes.Buffer
	if err := md.Convert([]byte(SectionMarkdown(heading, text)), &buf); err != nil {
		return "", fmt.Errorf("render section: %w", err)
	}
	return buf.String(), nil
}

// escapeMarkdown keeps statute punctuation literal. Enumeration markers
// like "1." and "(a)" would otherwise be re-interpreted as Markdown list
// syntax and renumbered by the renderer.
func escapeMarkdown(line string) string {
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c >= '0' && c <= '9' {
			continue
		}
		if c == '.' || c == ')' {
			return line[:i] + "\\" + line[i:]
		}
		break
	}
	return line
}
