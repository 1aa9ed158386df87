package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionMarkdown_HeadingAndLines(t *testing.T) {
	md := SectionMarkdown("Definitions", "1. First.\n  (a) Nested.")
	assert.True(t, strings.HasPrefix(md, "# Definitions\n"))
	assert.Contains(t, md, "1\\. First.")
	assert.Contains(t, md, "(a) Nested.")
}

func TestSectionHTML(t *testing.T) {
	out, err := SectionHTML("Definitions", "1. First.\n2. Second.")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Definitions</h1>")
	assert.Contains(t, out, "1. First.")
	// The decimal markers must not have been rewritten into an <ol>.
	assert.NotContains(t, out, "<ol>")
}

func TestSectionHTML_NoHeading(t *testing.T) {
	out, err := SectionHTML("", "Plain prose only.")
	require.NoError(t, err)
	assert.NotContains(t, out, "<h1>")
	assert.Contains(t, out, "Plain prose only.")
}
