// Package interpolate inverts tokenization: it expands placeholder tokens
// in a tokenized text back into the original statute text, one nesting
// level at a time. For any input S,
//
//	ExpandFully(Tokenize(S).TokenizedText, Tokenize(S).Elements) == Normalize(S)
//
// and that equality is checked by the ingest pipeline before anything is
// persisted.
package interpolate

import (
	"fmt"
	"strings"

	"github.com/lexroom/statext/internal/hierarchy"
	"github.com/lexroom/statext/internal/marker"
)

// DanglingTokenError means a token in the text has no matching element.
// It signals a storage or retrieval mismatch on the caller's side (a
// fragment row lost or filtered out), not malformed text, and it is fatal
// for the expansion call that hits it.
type DanglingTokenError struct {
	Token string
}

func (e *DanglingTokenError) Error() string {
	return fmt.Sprintf("dangling token %s: no matching element", e.Token)
}

// ExpandOneLevel replaces every token in text with the matching element's
// content, without descending into grandchildren. Only the given elements
// are candidates; a token none of them owns is dangling.
func ExpandOneLevel(text string, elements []*hierarchy.Element) (string, error) {
	byToken := make(map[string]*hierarchy.Element, len(elements))
	for _, e := range elements {
		byToken[e.Token] = e
	}
	return splice(text, byToken)
}

// ExpandFully expands text until no tokens remain. Tokens exposed by one
// pass only ever belong to descendants of the elements just spliced in, so
// the element index is built once over the whole forest. Expansion is
// iterative, bounded by tree depth, and never recurses.
func ExpandFully(text string, elements []*hierarchy.Element) (string, error) {
	byToken := make(map[string]*hierarchy.Element, hierarchy.Count(elements))
	hierarchy.Walk(elements, func(e *hierarchy.Element) {
		byToken[e.Token] = e
	})

	cur := text
	for strings.Contains(cur, "{{") {
		next, err := splice(cur, byToken)
		if err != nil {
			return "", err
		}
		if next == cur {
			break
		}
		cur = next
	}
	return cur, nil
}

// Reconstruct expands a single element's own source span.
func Reconstruct(e *hierarchy.Element) (string, error) {
	return ExpandFully(e.Content, e.Children)
}

func splice(text string, byToken map[string]*hierarchy.Element) (string, error) {
	spans := marker.FindTokens(text)
	if len(spans) == 0 {
		return text, nil
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, sp := range spans {
		e, ok := byToken[sp.Token]
		if !ok {
			return "", &DanglingTokenError{Token: sp.Token}
		}
		b.WriteString(text[last:sp.Start])
		b.WriteString(e.Content)
		last = sp.End
	}
	b.WriteString(text[last:])
	return b.String(), nil
}
