// Package uscode extracts sections from US-Code-style USLM XML releases
// into NDJSON, one record per section. The records feed the same tokenize
// path as API-fetched sections; this is the bulk alternative to crawling
// an upstream API section by section.
package uscode

import (
	"bufio"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// SectionRecord is one NDJSON line of extractor output.
type SectionRecord struct {
	Identifier string `json:"identifier"`
	Number     string `json:"number,omitempty"`
	Heading    string `json:"heading,omitempty"`
	Text       string `json:"text"`
}

// Extract streams XML from r and writes one JSON object per section to w.
// It returns the number of sections written. The decoder is streaming, so
// title-sized release files never load fully into memory.
func Extract(r io.Reader, w io.Writer) (int, error) {
	dec := xml.NewDecoder(r)
	out := bufio.NewWriter(w)
	enc := json.NewEncoder(out)

	count := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("read xml: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "section" {
			continue
		}

		rec, err := readSection(dec, start)
		if err != nil {
			return count, err
		}
		if strings.TrimSpace(rec.Text) == "" {
			continue
		}
		if err := enc.Encode(rec); err != nil {
			return count, fmt.Errorf("write record: %w", err)
		}
		count++
	}

	return count, out.Flush()
}

// readSection consumes one <section> element. Headings and nums are
// captured separately; everything else inside the section flattens into
// line-per-block text, with nested enumeration blocks each starting a new
// line so the tokenizer sees markers at line starts.
func readSection(dec *xml.Decoder, start xml.StartElement) (SectionRecord, error) {
	rec := SectionRecord{Identifier: attr(start, "identifier")}

	var text strings.Builder
	var capture *strings.Builder // non-nil while inside <num> or <heading>
	var captured strings.Builder
	depth := 1

	flushLine := func() {
		if text.Len() > 0 && !strings.HasSuffix(text.String(), "\n") {
			text.WriteString("\n")
		}
	}

	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return rec, fmt.Errorf("section %s: %w", rec.Identifier, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "num":
				if rec.Number == "" && depth == 2 {
					captured.Reset()
					capture = &captured
				}
			case "heading":
				if rec.Heading == "" && depth == 2 {
					captured.Reset()
					capture = &captured
				}
			case "subsection", "paragraph", "subparagraph", "clause", "subclause", "item", "p", "chapeau", "continuation":
				flushLine()
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "num":
				if capture != nil && depth == 2 {
					rec.Number = strings.TrimSpace(captured.String())
					capture = nil
				}
			case "heading":
				if capture != nil && depth == 2 {
					rec.Heading = strings.TrimSpace(captured.String())
					capture = nil
				}
			}
			depth--
		case xml.CharData:
			s := string(t)
			if capture != nil {
				capture.WriteString(s)
			} else {
				text.WriteString(collapseSpace(s))
			}
		}
	}

	rec.Text = strings.TrimSpace(text.String())
	return rec, nil
}

func attr(e xml.StartElement, name string) string {
	for _, a := range e.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// collapseSpace folds the pretty-printing whitespace XML releases carry
// into single spaces, leaving line structure to the block handling above.
func collapseSpace(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return strings.Join(strings.Fields(s), " ") + " "
}
