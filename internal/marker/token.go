package marker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lexroom/statext/internal/hierarchy"
)

// Tokens look like {{SUBSECTION_3_a}} or, when a scope is set,
// {{EDN-1:SUBSECTION_3_a}}. The doubled-brace delimiters were checked
// against the full NY consolidated-law corpus and never occur in statute
// prose, which is what makes FindTokens safe on reconstructed text.
const (
	tokenOpen  = "{{"
	tokenClose = "}}"
)

var (
	levelNamesAlt = "SUBSECTION|PARAGRAPH|SUBPARAGRAPH|CLAUSE|SUBCLAUSE|ITEM"

	tokenScanRe   = regexp.MustCompile(`\{\{(?:[A-Za-z0-9_.\-]+:)?(?:` + levelNamesAlt + `)_[A-Za-z0-9_]+\}\}`)
	tokenStrictRe = regexp.MustCompile(`^\{\{(?:[A-Za-z0-9_.\-]+:)?(?:` + levelNamesAlt + `)_[A-Za-z0-9_]+\}\}$`)

	sanitizeRe      = regexp.MustCompile(`[^A-Za-z0-9]+`)
	scopeSanitizeRe = regexp.MustCompile(`[^A-Za-z0-9_.\-]+`)
)

// IsToken reports whether s is exactly one well-formed token. Prose that
// merely contains doubled braces does not pass.
func IsToken(s string) bool {
	return tokenStrictRe.MatchString(s)
}

// TokenSpan locates one token inside a tokenized text.
type TokenSpan struct {
	Token string
	Start int
	End   int
}

// FindTokens returns every token in text in source order.
func FindTokens(text string) []TokenSpan {
	idx := tokenScanRe.FindAllStringIndex(text, -1)
	if len(idx) == 0 {
		return nil
	}
	spans := make([]TokenSpan, len(idx))
	for i, loc := range idx {
		spans[i] = TokenSpan{Token: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]}
	}
	return spans
}

// Registry enforces token uniqueness within a single tokenize call. It is
// created per call and never shared; collisions (the same raw value
// reappearing at the same level, which real statutes do produce) get a
// numeric suffix.
type Registry struct {
	scope string
	seen  map[string]struct{}
}

// NewRegistry returns an empty registry. scope may be empty; when set it
// namespaces every generated token so tokens from different sections can
// be told apart after storage.
func NewRegistry(scope string) *Registry {
	return &Registry{
		scope: scopeSanitizeRe.ReplaceAllString(scope, "_"),
		seen:  make(map[string]struct{}),
	}
}

// Token generates the unique placeholder for one element.
func (r *Registry) Token(level hierarchy.Level, rawValue string) string {
	base := level.String() + "_" + sanitize(rawValue)
	if r.scope != "" {
		base = r.scope + ":" + base
	}

	name := base
	for n := 2; ; n++ {
		if _, taken := r.seen[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s_%d", base, n)
	}
	r.seen[name] = struct{}{}
	return tokenOpen + name + tokenClose
}

func sanitize(v string) string {
	s := sanitizeRe.ReplaceAllString(v, "_")
	return strings.Trim(s, "_")
}
