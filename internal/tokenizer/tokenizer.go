// Package tokenizer splits raw statute section text into a tree of
// enumerated elements, replacing each child's span in its parent with a
// generated placeholder token. The inverse lives in internal/interpolate;
// together they guarantee a byte-exact round trip over normalized text.
package tokenizer

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/lexroom/statext/internal/hierarchy"
	"github.com/lexroom/statext/internal/marker"
)

// Result is the output of one tokenize call. TokenizedText is the section
// root's own text: prose plus one token per direct child. Elements are the
// direct children, each carrying its own tokenized content and children.
type Result struct {
	TokenizedText string               `json:"tokenized_text"`
	Elements      []*hierarchy.Element `json:"elements"`
}

// Tokenizer tokenizes section text. It holds no per-call state, so one
// Tokenizer may serve any number of goroutines.
type Tokenizer struct {
	log *slog.Logger
}

// New returns a Tokenizer. log may be nil; it is only used for
// informational notes such as numbering gaps, which are legal in statutes
// ("3." followed by "3-a." or "5.") and never an error.
func New(log *slog.Logger) *Tokenizer {
	return &Tokenizer{log: log}
}

// frame is one open element during the forward pass. Marker lines are kept
// verbatim in lines, so a child's content reproduces its source span
// exactly and reconstruction never has to regenerate marker text.
type frame struct {
	level    hierarchy.Level
	kind     hierarchy.ValueKind
	raw      string
	lastRaw  map[hierarchy.Level]string // last flushed child value per level, for gap notes
	lines    []string
	children []*hierarchy.Element
}

// Tokenize processes text with no token scope.
func (t *Tokenizer) Tokenize(text string) Result {
	return t.TokenizeScoped(text, "")
}

// TokenizeScoped processes text, namespacing every generated token with
// scope. Tokenize never fails: input with no recognizable markers comes
// back with nil Elements and its normalized text untouched.
func (t *Tokenizer) TokenizeScoped(text, scope string) Result {
	norm := Normalize(text)
	if norm == "" {
		return Result{}
	}

	reg := marker.NewRegistry(scope)
	root := &frame{level: hierarchy.LevelSection, lastRaw: make(map[hierarchy.Level]string)}
	stack := []*frame{root}

	for _, line := range strings.Split(norm, "\n") {
		m, ok := marker.Classify(line, stackView(stack))
		if !ok {
			top := stack[len(stack)-1]
			top.lines = append(top.lines, line)
			continue
		}

		// Close every frame at or deeper than the new marker's level; the
		// new element is a sibling of the last frame left at a shallower
		// level, or of the root.
		for stack[len(stack)-1].level >= m.Level {
			stack = flush(stack, reg)
		}

		parent := stack[len(stack)-1]
		t.noteGap(parent, m)
		parent.lastRaw[m.Level] = m.Raw

		stack = append(stack, &frame{
			level:   m.Level,
			kind:    m.Kind,
			raw:     m.Raw,
			lastRaw: make(map[hierarchy.Level]string),
			lines:   []string{line},
		})
	}

	for len(stack) > 1 {
		stack = flush(stack, reg)
	}

	return Result{
		TokenizedText: strings.Join(root.lines, "\n"),
		Elements:      root.children,
	}
}

// flush closes the top frame: its joined lines become the element content
// (direct children already tokenized) and the parent gains one token line
// in the child's place.
func flush(stack []*frame, reg *marker.Registry) []*frame {
	f := stack[len(stack)-1]
	stack = stack[:len(stack)-1]
	parent := stack[len(stack)-1]

	token := reg.Token(f.level, f.raw)
	parent.children = append(parent.children, &hierarchy.Element{
		Level:    f.level,
		RawValue: f.raw,
		Token:    token,
		Content:  strings.Join(f.lines, "\n"),
		Children: f.children,
	})
	parent.lines = append(parent.lines, token)
	return stack
}

func stackView(stack []*frame) []marker.StackEntry {
	view := make([]marker.StackEntry, len(stack))
	for i, f := range stack {
		view[i] = marker.StackEntry{Level: f.level, Kind: f.kind, Raw: f.raw}
	}
	return view
}

// noteGap logs a skipped value in a sibling sequence at debug level.
// Statute numbering legitimately skips ("2." straight to "3-a." or "5."),
// so this is informational only.
func (t *Tokenizer) noteGap(parent *frame, m marker.Marker) {
	if t.log == nil {
		return
	}
	prev, ok := parent.lastRaw[m.Level]
	if !ok {
		return
	}
	if gap := sequenceGap(prev, m); gap {
		t.log.Debug("numbering gap in sibling sequence",
			"level", m.Level.String(), "previous", prev, "next", m.Raw)
	}
}

func sequenceGap(prev string, m marker.Marker) bool {
	switch m.Kind {
	case hierarchy.KindDecimal, hierarchy.KindParenDecimal:
		a, errA := strconv.Atoi(prev)
		b, errB := strconv.Atoi(m.Raw)
		return errA == nil && errB == nil && b != a+1
	case hierarchy.KindLowerLetter, hierarchy.KindUpperLetter:
		a, b := hierarchy.LetterOrdinal(prev), hierarchy.LetterOrdinal(m.Raw)
		return a > 0 && b > 0 && b != a+1
	case hierarchy.KindLowerRoman:
		a, b := hierarchy.RomanValue(prev), hierarchy.RomanValue(m.Raw)
		return a > 0 && b > 0 && b != a+1
	case hierarchy.KindUpperRoman:
		a := hierarchy.RomanValue(strings.ToLower(prev))
		b := hierarchy.RomanValue(strings.ToLower(m.Raw))
		return a > 0 && b > 0 && b != a+1
	}
	return false
}
