package revision

import (
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
)

// BuildTextMap traverses paragraph in document order and produces a linear
// visible-text projection: one Position per code point, skipping the
// contents of deletion envelopes entirely and tagging characters inside
// insertion envelopes.
func BuildTextMap(paragraph *etree.Element) *TextMap {
	tm := &TextMap{}
	var buf strings.Builder
	var walk func(el *etree.Element, insideIns bool)
	walk = func(el *etree.Element, insideIns bool) {
		switch {
		case isTag(el, tagDeletion):
			return
		case isTag(el, tagInsertion):
			insideIns = true
		case isTag(el, tagText):
			appendLeaf(tm, &buf, el, insideIns)
			return
		}
		for _, c := range el.ChildElements() {
			walk(c, insideIns)
		}
	}
	for _, c := range paragraph.ChildElements() {
		walk(c, false)
	}
	tm.Text = buf.String()
	return tm
}

func appendLeaf(tm *TextMap, buf *strings.Builder, leaf *etree.Element, insideIns bool) {
	text := leaf.Text()
	offset := 0
	for _, r := range text {
		buf.WriteRune(r)
		tm.Positions = append(tm.Positions, Position{
			Leaf:              leaf,
			OffsetInLeaf:      offset,
			IsInsideInsertion: insideIns,
		})
		offset += utf8.RuneLen(r)
	}
}

// FindInTextMap performs a left-to-right substring search over tm.Text for
// the nth (0-based) occurrence of query, counted in code points with
// overlapping matches permitted. Returns nil if the occurrence does not
// exist.
func FindInTextMap(tm *TextMap, query string, nth int) *Match {
	if query == "" {
		return nil
	}
	runes := []rune(tm.Text)
	qRunes := []rune(query)
	qLen := len(qRunes)
	occurrence := 0
	for start := 0; start+qLen <= len(runes); start++ {
		if runesEqual(runes[start:start+qLen], qRunes) {
			if occurrence == nth {
				return buildMatch(tm, query, start, start+qLen)
			}
			occurrence++
		}
	}
	return nil
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func buildMatch(tm *TextMap, query string, start, end int) *Match {
	positions := append([]Position(nil), tm.Positions[start:end]...)
	m := &Match{
		Query:     query,
		Start:     start,
		End:       end,
		Positions: positions,
	}
	first := positions[0].IsInsideInsertion
	for _, p := range positions[1:] {
		if p.IsInsideInsertion != first {
			m.SpansContextBoundary = true
			break
		}
	}
	return m
}
