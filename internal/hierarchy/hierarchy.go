package hierarchy

import "fmt"

// Level is the nesting depth of a statute marker. Statute text nests
// subsections inside a section, paragraphs inside subsections, and so on.
// A marker's level is fixed by its shape, not by where it appears, so a
// section may legally skip levels ("1." directly containing "(i)").
type Level int

const (
	// LevelSection is the virtual root of a tokenized section. It is never
	// carried by an element and never appears in a token.
	LevelSection Level = iota
	LevelSubsection
	LevelParagraph
	LevelSubparagraph
	LevelClause
	LevelSubclause
	LevelItem
)

var levelNames = map[Level]string{
	LevelSection:      "SECTION",
	LevelSubsection:   "SUBSECTION",
	LevelParagraph:    "PARAGRAPH",
	LevelSubparagraph: "SUBPARAGRAPH",
	LevelClause:       "CLAUSE",
	LevelSubclause:    "SUBCLAUSE",
	LevelItem:         "ITEM",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel converts a stored level name back into a Level.
func ParseLevel(name string) (Level, error) {
	for l, n := range levelNames {
		if n == name {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown hierarchy level %q", name)
}

// ValueKind describes the lexical shape of a marker value.
type ValueKind int

const (
	KindDecimal         ValueKind = iota // 1.
	KindDecimalSuffixed                  // 3-a.
	KindLowerLetter                      // (a)
	KindLowerRoman                       // (i)
	KindUpperLetter                      // (A)
	KindUpperRoman                       // (I)
	KindParenDecimal                     // (1)
)

func (k ValueKind) String() string {
	switch k {
	case KindDecimal:
		return "decimal"
	case KindDecimalSuffixed:
		return "decimal-suffixed"
	case KindLowerLetter:
		return "lower-letter"
	case KindLowerRoman:
		return "lower-roman"
	case KindUpperLetter:
		return "upper-letter"
	case KindUpperRoman:
		return "upper-roman"
	case KindParenDecimal:
		return "paren-decimal"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Element is one enumerated unit of a statute section. Content holds the
// element's own text with each direct child replaced by that child's token,
// so Content is itself tokenized text one level deep. The tree returned by
// one tokenize call owns its elements exclusively.
type Element struct {
	Level    Level      `json:"level"`
	RawValue string     `json:"raw_value"`
	Token    string     `json:"token"`
	Content  string     `json:"content"`
	Children []*Element `json:"children,omitempty"`
}

// Walk visits e and every descendant in document order without recursion,
// so arbitrarily deep trees cannot exhaust the call stack.
func Walk(elements []*Element, visit func(*Element)) {
	stack := make([]*Element, 0, len(elements))
	for i := len(elements) - 1; i >= 0; i-- {
		stack = append(stack, elements[i])
	}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(e)
		for i := len(e.Children) - 1; i >= 0; i-- {
			stack = append(stack, e.Children[i])
		}
	}
}

// Count returns the total number of elements in the forest.
func Count(elements []*Element) int {
	n := 0
	Walk(elements, func(*Element) { n++ })
	return n
}
