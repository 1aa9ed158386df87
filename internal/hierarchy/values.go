package hierarchy

import "strings"

var romanDigits = map[byte]int{
	'i': 1, 'v': 5, 'x': 10, 'l': 50, 'c': 100, 'd': 500, 'm': 1000,
}

// IsRoman reports whether s is non-empty and made only of lowercase roman
// numeral characters. "i" and "a" overlap with letter markers; IsRoman does
// not decide which reading applies, the classifier's context rule does.
func IsRoman(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if _, ok := romanDigits[s[i]]; !ok {
			return false
		}
	}
	return true
}

// RomanValue evaluates a lowercase roman numeral. Returns 0 for strings
// that are not roman numerals. Used only for gap reporting, never for
// classification, so a sloppy numeral ("iiii") still gets a value.
func RomanValue(s string) int {
	if !IsRoman(s) {
		return 0
	}
	total := 0
	for i := 0; i < len(s); i++ {
		v := romanDigits[s[i]]
		if i+1 < len(s) && romanDigits[s[i+1]] > v {
			total -= v
		} else {
			total += v
		}
	}
	return total
}

// LetterOrdinal maps a letter-sequence value to its 1-based position:
// "a" is 1, "z" is 26, "aa" is 27, "bb" is 28. Statutes continue past "z"
// with doubled letters rather than spreadsheet-style "ab".
func LetterOrdinal(s string) int {
	s = strings.ToLower(s)
	if s == "" {
		return 0
	}
	c := s[0]
	if c < 'a' || c > 'z' {
		return 0
	}
	for i := 1; i < len(s); i++ {
		if s[i] != c {
			return 0
		}
	}
	return (len(s)-1)*26 + int(c-'a'+1)
}

// NextLetter returns the marker value that follows s in a statute letter
// sequence: "a"->"b", "z"->"aa", "aa"->"bb". Case is preserved.
func NextLetter(s string) string {
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	c := lower[0]
	if c < 'a' || c > 'z' {
		return ""
	}
	for i := 1; i < len(lower); i++ {
		if lower[i] != c {
			return ""
		}
	}
	upper := s[0] >= 'A' && s[0] <= 'Z'
	var next string
	if c == 'z' {
		next = strings.Repeat("a", len(s)+1)
	} else {
		next = strings.Repeat(string(c+1), len(s))
	}
	if upper {
		next = strings.ToUpper(next)
	}
	return next
}
