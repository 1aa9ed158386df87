package store

import (
	"fmt"

	"github.com/lexroom/statext/internal/hierarchy"
)

// Flatten turns an element forest into fragment rows in document order.
// Each row records its parent's token; top-level elements get an empty
// parent token.
func Flatten(elements []*hierarchy.Element) []FragmentRow {
	var rows []FragmentRow
	seq := 0

	type item struct {
		elem   *hierarchy.Element
		parent string
	}
	stack := make([]item, 0, len(elements))
	for i := len(elements) - 1; i >= 0; i-- {
		stack = append(stack, item{elem: elements[i]})
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		rows = append(rows, FragmentRow{
			Token:       it.elem.Token,
			ParentToken: it.parent,
			Seq:         seq,
			Level:       it.elem.Level.String(),
			RawValue:    it.elem.RawValue,
			Content:     it.elem.Content,
		})
		seq++

		for i := len(it.elem.Children) - 1; i >= 0; i-- {
			stack = append(stack, item{elem: it.elem.Children[i], parent: it.elem.Token})
		}
	}
	return rows
}

// Rebuild inverts Flatten. Rows must be in document order, so every
// parent row appears before its children.
func Rebuild(rows []FragmentRow) ([]*hierarchy.Element, error) {
	byToken := make(map[string]*hierarchy.Element, len(rows))
	var roots []*hierarchy.Element

	for _, r := range rows {
		level, err := hierarchy.ParseLevel(r.Level)
		if err != nil {
			return nil, fmt.Errorf("fragment %s: %w", r.Token, err)
		}
		e := &hierarchy.Element{
			Level:    level,
			RawValue: r.RawValue,
			Token:    r.Token,
			Content:  r.Content,
		}
		byToken[r.Token] = e

		if r.ParentToken == "" {
			roots = append(roots, e)
			continue
		}
		parent, ok := byToken[r.ParentToken]
		if !ok {
			return nil, fmt.Errorf("fragment %s: parent %s not seen yet", r.Token, r.ParentToken)
		}
		parent.Children = append(parent.Children, e)
	}
	return roots, nil
}
