package marker

import (
	"strings"
	"testing"

	"github.com/lexroom/statext/internal/hierarchy"
)

func entry(level hierarchy.Level, raw string) StackEntry {
	return StackEntry{Level: level, Raw: raw}
}

func TestClassify_DecimalShapes(t *testing.T) {
	m, ok := Classify(`1. "Alcoholic beverage" means any liquid.`, nil)
	if !ok {
		t.Fatal("expected a marker")
	}
	if m.Level != hierarchy.LevelSubsection || m.Raw != "1" || m.Kind != hierarchy.KindDecimal {
		t.Errorf("got %+v", m)
	}

	m, ok = Classify(`3-a. "Biomass feedstock" means any substance.`, nil)
	if !ok {
		t.Fatal("expected a marker")
	}
	if m.Level != hierarchy.LevelSubsection || m.Raw != "3-a" || m.Kind != hierarchy.KindDecimalSuffixed {
		t.Errorf("got %+v", m)
	}

	m, ok = Classify("(1) Each permit shall state:", nil)
	if !ok {
		t.Fatal("expected a marker")
	}
	if m.Level != hierarchy.LevelSubparagraph || m.Raw != "1" || m.Kind != hierarchy.KindParenDecimal {
		t.Errorf("got %+v", m)
	}
}

func TestClassify_FreshLetterDefaultsToParagraph(t *testing.T) {
	// With no open letter or roman sequence, "(i)" is a paragraph even
	// though it is a valid roman numeral.
	m, ok := Classify("(i) first provision", nil)
	if !ok {
		t.Fatal("expected a marker")
	}
	if m.Level != hierarchy.LevelParagraph || m.Kind != hierarchy.KindLowerLetter {
		t.Errorf("fresh (i) classified as %+v, want paragraph/lower-letter", m)
	}
}

func TestClassify_LetterSequenceClaimsNinthLetter(t *testing.T) {
	// After paragraphs (a)..(h), "(i)" is the ninth paragraph.
	stack := []StackEntry{entry(hierarchy.LevelSection, ""), entry(hierarchy.LevelParagraph, "h")}
	m, ok := Classify("(i) ninth paragraph", stack)
	if !ok {
		t.Fatal("expected a marker")
	}
	if m.Level != hierarchy.LevelParagraph || m.Kind != hierarchy.KindLowerLetter {
		t.Errorf("(i) after (h) classified as %+v, want paragraph", m)
	}
}

func TestClassify_RomanUnderOpenParagraphStartsClause(t *testing.T) {
	stack := []StackEntry{entry(hierarchy.LevelSection, ""), entry(hierarchy.LevelParagraph, "a")}
	m, ok := Classify("(i) first clause", stack)
	if !ok {
		t.Fatal("expected a marker")
	}
	if m.Level != hierarchy.LevelClause || m.Kind != hierarchy.KindLowerRoman {
		t.Errorf("(i) under open (a) classified as %+v, want clause", m)
	}
}

func TestClassify_OpenClauseSequenceClaimsRomanValues(t *testing.T) {
	stack := []StackEntry{
		entry(hierarchy.LevelSection, ""),
		entry(hierarchy.LevelParagraph, "u"),
		entry(hierarchy.LevelClause, "iv"),
	}
	// "(v)" is both the successor letter of "u" and roman 5; the open
	// clause run wins.
	m, ok := Classify("(v) fifth clause", stack)
	if !ok {
		t.Fatal("expected a marker")
	}
	if m.Level != hierarchy.LevelClause {
		t.Errorf("(v) with open clause run classified as %v, want clause", m.Level)
	}
}

func TestClassify_UpperShapesSymmetric(t *testing.T) {
	m, _ := Classify("(A) first subclause", nil)
	if m.Level != hierarchy.LevelSubclause || m.Kind != hierarchy.KindUpperLetter {
		t.Errorf("fresh (A): %+v", m)
	}

	stack := []StackEntry{entry(hierarchy.LevelSection, ""), entry(hierarchy.LevelSubclause, "A")}
	m, _ = Classify("(I) first item", stack)
	if m.Level != hierarchy.LevelItem || m.Kind != hierarchy.KindUpperRoman {
		t.Errorf("(I) under open (A): %+v", m)
	}
}

func TestClassify_MarkerMustStartLine(t *testing.T) {
	if _, ok := Classify("as provided in paragraph (a) of this section", nil); ok {
		t.Error("mid-line marker shape must not be structural")
	}
	if _, ok := Classify("section 3. applies", nil); ok {
		t.Error("mid-line decimal must not be structural")
	}
	// Leading indentation is fine.
	if _, ok := Classify("  (a) indented paragraph", nil); !ok {
		t.Error("indented marker should be recognized")
	}
}

func TestClassify_PlainProse(t *testing.T) {
	for _, line := range []string{
		"The commissioner shall promulgate rules.",
		"",
		"1,000 gallons or more.",
		"(incomplete paren",
	} {
		if m, ok := Classify(line, nil); ok {
			t.Errorf("line %q unexpectedly classified as %+v", line, m)
		}
	}
}

func TestRegistry_TokensUniqueAndWellFormed(t *testing.T) {
	reg := NewRegistry("")
	t1 := reg.Token(hierarchy.LevelSubsection, "1")
	t2 := reg.Token(hierarchy.LevelSubsection, "1")
	t3 := reg.Token(hierarchy.LevelSubsection, "3-a")

	if t1 == t2 {
		t.Errorf("colliding values produced identical tokens: %s", t1)
	}
	for _, tok := range []string{t1, t2, t3} {
		if !IsToken(tok) {
			t.Errorf("generated token %q fails IsToken", tok)
		}
	}
	if !strings.Contains(t3, "SUBSECTION_3_a") {
		t.Errorf("dash not sanitized: %s", t3)
	}
}

func TestRegistry_ScopeNamespacesTokens(t *testing.T) {
	plain := NewRegistry("").Token(hierarchy.LevelParagraph, "a")
	scoped := NewRegistry("EDN 17.0").Token(hierarchy.LevelParagraph, "a")

	if plain == scoped {
		t.Error("scope should change the generated token")
	}
	if !IsToken(scoped) {
		t.Errorf("scoped token %q fails IsToken", scoped)
	}
}

func TestIsToken_RejectsNearMisses(t *testing.T) {
	bad := []string{
		"{{SUBSECTION_1}",
		"{SUBSECTION_1}}",
		"{{subsection_1}}",
		"{{CHAPTER_1}}",
		"{{SUBSECTION_1}} trailing",
		"prose with {{ doubled braces }} only",
	}
	for _, s := range bad {
		if IsToken(s) {
			t.Errorf("IsToken(%q) = true, want false", s)
		}
	}
}

func TestFindTokens_OrderAndSpans(t *testing.T) {
	text := "intro\n{{SUBSECTION_1}}\nmiddle\n{{SUBSECTION_3_a}}\n"
	spans := FindTokens(text)
	if len(spans) != 2 {
		t.Fatalf("found %d tokens, want 2", len(spans))
	}
	if spans[0].Token != "{{SUBSECTION_1}}" || spans[1].Token != "{{SUBSECTION_3_a}}" {
		t.Errorf("tokens out of order: %+v", spans)
	}
	for _, sp := range spans {
		if text[sp.Start:sp.End] != sp.Token {
			t.Errorf("span %+v does not cover its token", sp)
		}
	}
}

func TestFindTokens_IgnoresProseBraces(t *testing.T) {
	if spans := FindTokens("the term {{net income}} as defined"); spans != nil {
		t.Errorf("prose braces matched: %+v", spans)
	}
}
