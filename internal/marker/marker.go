// Package marker recognizes statute enumeration markers ("1.", "3-a.",
// "(a)", "(i)", "(A)") and owns the placeholder token format substituted
// for child elements during tokenization. The token format is a persisted
// contract: stored fragments can only be reassembled by code that agrees
// on it.
package marker

import (
	"regexp"
	"strings"

	"github.com/lexroom/statext/internal/hierarchy"
)

// Marker is one recognized enumeration prefix.
type Marker struct {
	Level hierarchy.Level
	Kind  hierarchy.ValueKind
	Raw   string
}

// StackEntry is the classifier's view of one open tokenizer frame.
// Classification is context dependent: the same literal "(i)" is the ninth
// paragraph after an open "(h)" but the first clause under an open "(a)".
type StackEntry struct {
	Level hierarchy.Level
	Kind  hierarchy.ValueKind
	Raw   string
}

// Patterns are tried in this order. Decimal shapes are unambiguous and win
// outright; parenthesized letters fall through to the context rule.
var (
	subsectionRe   = regexp.MustCompile(`^(\d+(?:-[a-z0-9]+)*)\.(?:\s+|$)`)
	parenDecimalRe = regexp.MustCompile(`^\((\d+)\)`)
	parenLowerRe   = regexp.MustCompile(`^\(([a-z]+)\)`)
	parenUpperRe   = regexp.MustCompile(`^\(([A-Z]+)\)`)
)

// Classify inspects the start of one normalized line and returns the marker
// it opens, if any. A marker-shaped substring anywhere else in the line is
// never structural. The open stack is innermost-last.
//
// The tie break between roman numerals and letters is fixed, not inferred
// per input: an open clause sequence claims any roman-only value first; an
// open paragraph sequence claims its successor letter next; a roman-only
// value under an open paragraph starts a clause sequence; anything else is
// a fresh letter sequence. Upper-case values follow the same rule one
// level pair down (subclause vs item).
func Classify(line string, stack []StackEntry) (Marker, bool) {
	head := strings.TrimLeft(line, " \t")

	if m := subsectionRe.FindStringSubmatch(head); m != nil {
		kind := hierarchy.KindDecimal
		if strings.ContainsRune(m[1], '-') {
			kind = hierarchy.KindDecimalSuffixed
		}
		return Marker{Level: hierarchy.LevelSubsection, Kind: kind, Raw: m[1]}, true
	}
	if m := parenDecimalRe.FindStringSubmatch(head); m != nil {
		return Marker{Level: hierarchy.LevelSubparagraph, Kind: hierarchy.KindParenDecimal, Raw: m[1]}, true
	}
	if m := parenLowerRe.FindStringSubmatch(head); m != nil {
		return classifyLower(m[1], stack), true
	}
	if m := parenUpperRe.FindStringSubmatch(head); m != nil {
		return classifyUpper(m[1], stack), true
	}
	return Marker{}, false
}

func classifyLower(val string, stack []StackEntry) Marker {
	top, open := innermost(stack)

	// An open clause run keeps claiming roman-shaped values: "(ii)" after
	// "(i)", and also "(v)" or "(x)" even though those are valid letters.
	if open && top.Level == hierarchy.LevelClause && hierarchy.IsRoman(val) {
		return Marker{Level: hierarchy.LevelClause, Kind: hierarchy.KindLowerRoman, Raw: val}
	}

	// An open paragraph run claims exactly its successor letter, which is
	// how "(i)" after "(h)" stays the ninth paragraph.
	if open && top.Level == hierarchy.LevelParagraph && val == hierarchy.NextLetter(top.Raw) {
		return Marker{Level: hierarchy.LevelParagraph, Kind: hierarchy.KindLowerLetter, Raw: val}
	}

	// A roman-shaped value while a paragraph (or something between a
	// paragraph and a clause) is open starts the clause sequence.
	if open && hierarchy.IsRoman(val) &&
		top.Level >= hierarchy.LevelParagraph && top.Level < hierarchy.LevelClause {
		return Marker{Level: hierarchy.LevelClause, Kind: hierarchy.KindLowerRoman, Raw: val}
	}

	// A fresh letter with no sequence of either kind open defaults to a
	// paragraph.
	return Marker{Level: hierarchy.LevelParagraph, Kind: hierarchy.KindLowerLetter, Raw: val}
}

func classifyUpper(val string, stack []StackEntry) Marker {
	top, open := innermost(stack)
	lower := strings.ToLower(val)

	if open && top.Level == hierarchy.LevelItem && hierarchy.IsRoman(lower) {
		return Marker{Level: hierarchy.LevelItem, Kind: hierarchy.KindUpperRoman, Raw: val}
	}
	if open && top.Level == hierarchy.LevelSubclause && val == hierarchy.NextLetter(top.Raw) {
		return Marker{Level: hierarchy.LevelSubclause, Kind: hierarchy.KindUpperLetter, Raw: val}
	}
	if open && hierarchy.IsRoman(lower) &&
		top.Level >= hierarchy.LevelSubclause && top.Level < hierarchy.LevelItem {
		return Marker{Level: hierarchy.LevelItem, Kind: hierarchy.KindUpperRoman, Raw: val}
	}
	return Marker{Level: hierarchy.LevelSubclause, Kind: hierarchy.KindUpperLetter, Raw: val}
}

// innermost returns the deepest open frame, skipping the virtual section
// root, which carries no marker of its own.
func innermost(stack []StackEntry) (StackEntry, bool) {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].Level != hierarchy.LevelSection {
			return stack[i], true
		}
	}
	return StackEntry{}, false
}
