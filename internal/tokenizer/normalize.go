package tokenizer

import "strings"

// Normalize canonicalizes section text before tokenization: line endings
// become "\n", trailing whitespace is stripped per line, runs of three or
// more blank lines collapse to one, and the whole text is trimmed.
// Normalize is idempotent, which is what lets the round-trip law compare
// against Normalize(input) rather than the raw input.
func Normalize(text string) string {
	s := strings.ReplaceAll(text, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blanks := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			blanks++
			continue
		}
		switch {
		case blanks >= 3:
			out = append(out, "")
		case blanks > 0:
			for i := 0; i < blanks; i++ {
				out = append(out, "")
			}
		}
		blanks = 0
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
