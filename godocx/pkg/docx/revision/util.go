package revision

import (
	"strconv"
	"unicode/utf8"

	"github.com/beevik/etree"
)

// runeEnd returns the byte offset immediately after the rune starting at
// offset within s — the correct complement to a Position's byte offset,
// which always points at a rune's first byte.
func runeEnd(s string, offset int) int {
	_, size := utf8.DecodeRuneInString(s[offset:])
	return offset + size
}

func attrInt(el *etree.Element, name string) int {
	v, _ := strconv.Atoi(el.SelectAttrValue(name, "0"))
	return v
}

// textSpanChildren returns run's direct w:t / w:delText children, in order.
func textSpanChildren(run *etree.Element) []*etree.Element {
	var out []*etree.Element
	for _, c := range run.ChildElements() {
		if isTag(c, tagText) || isTag(c, tagDelText) {
			out = append(out, c)
		}
	}
	return out
}

// spliceInPlace replaces old with pieces, in order, inside old's parent.
func spliceInPlace(old *etree.Element, pieces ...*etree.Element) {
	parent := old.Parent()
	idx := childIndexOf(parent, old)
	parent.RemoveChild(old)
	for i, p := range pieces {
		parent.InsertChildAt(idx+i, p)
	}
}

// removeRunIfEmpty removes run from its parent if it has no remaining
// text-span children.
func removeRunIfEmpty(run *etree.Element) {
	if run == nil {
		return
	}
	if len(textSpanChildren(run)) == 0 {
		removeFromParent(run)
	}
}

// removeEnvelopeIfEmpty removes env from its parent if it has no remaining
// text leaves.
func removeEnvelopeIfEmpty(env *etree.Element) {
	if env == nil {
		return
	}
	if len(textLeaves(env)) == 0 {
		removeFromParent(env)
	}
}
