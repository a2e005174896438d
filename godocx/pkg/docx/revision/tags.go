// Package revision implements a revision-aware structural editor over a
// paragraph/run/text-span tree, tracking insertions and deletions as
// OOXML-style envelopes.
package revision

import "github.com/beevik/etree"

// Tag and attribute names for the subset of WordprocessingML this package
// understands. Mirrors the convention tracked_changes.py and replacetext.go
// operate on: w:p > w:r > w:t / w:delText, wrapped by w:ins / w:del.
const (
	tagParagraph  = "w:p"
	tagRun        = "w:r"
	tagRunProps   = "w:rPr"
	tagText       = "w:t"
	tagDelText    = "w:delText"
	tagInsertion  = "w:ins"
	tagDeletion   = "w:del"
	tagHyperlink  = "w:hyperlink"
	attrID        = "w:id"
	attrAuthor    = "w:author"
	attrDate      = "w:date"
	attrSpace     = "xml:space"
	attrRevision  = "w:rsidR"
	attrDelRevID  = "w:rsidDel"
	valuePreserve = "preserve"
)

func localTag(el *etree.Element) string {
	if el == nil {
		return ""
	}
	if el.Space != "" {
		return el.Space + ":" + el.Tag
	}
	return el.Tag
}

func isTag(el *etree.Element, tag string) bool {
	return localTag(el) == tag
}

func newRun(props *etree.Element, text string, deleted bool) *etree.Element {
	run := etree.NewElement("r")
	run.Space = "w"
	if props != nil {
		run.AddChild(props.Copy())
	}
	leaf := etree.NewElement("t")
	leaf.Space = "w"
	if deleted {
		leaf.Tag = "delText"
	}
	leaf.SetText(text)
	stampPreserve(leaf, text)
	run.AddChild(leaf)
	return run
}

// stampPreserve sets xml:space="preserve" when text carries leading,
// trailing, or otherwise collapsible whitespace, and removes it otherwise.
func stampPreserve(leaf *etree.Element, text string) {
	if needsPreserve(text) {
		leaf.CreateAttr(attrSpace, valuePreserve)
	} else {
		leaf.RemoveAttr(attrSpace)
	}
}

func needsPreserve(text string) bool {
	if text == "" {
		return false
	}
	first := text[0]
	last := text[len(text)-1]
	isSpace := func(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' }
	if isSpace(first) || isSpace(last) {
		return true
	}
	for i := 1; i < len(text); i++ {
		if isSpace(text[i]) && isSpace(text[i-1]) {
			return true
		}
	}
	return false
}

func runProps(run *etree.Element) *etree.Element {
	if run == nil {
		return nil
	}
	for _, c := range run.ChildElements() {
		if isTag(c, tagRunProps) {
			return c
		}
	}
	return nil
}

// ancestorRun walks up from a text leaf to its enclosing w:r.
func ancestorRun(el *etree.Element) *etree.Element {
	for p := el; p != nil; p = p.Parent() {
		if isTag(p, tagRun) {
			return p
		}
	}
	return nil
}

// ancestorEnvelope walks up from el to the nearest ancestor with the given
// tag (w:ins or w:del), stopping at the enclosing w:p; nil if none.
func ancestorEnvelope(el *etree.Element, tag string) *etree.Element {
	for p := el.Parent(); p != nil; p = p.Parent() {
		if isTag(p, tag) {
			return p
		}
		if isTag(p, tagParagraph) {
			return nil
		}
	}
	return nil
}

func childIndexOf(parent, child *etree.Element) int {
	for i, tok := range parent.Child {
		if tok == child {
			return i
		}
	}
	return -1
}

// insertElementBefore inserts el as a new sibling immediately before ref
// within ref's parent.
func insertElementBefore(ref, el *etree.Element) {
	parent := ref.Parent()
	idx := childIndexOf(parent, ref)
	parent.InsertChildAt(idx, el)
}

// insertElementAfter inserts el as a new sibling immediately after ref
// within ref's parent.
func insertElementAfter(ref, el *etree.Element) {
	parent := ref.Parent()
	idx := childIndexOf(parent, ref)
	parent.InsertChildAt(idx+1, el)
}

func removeFromParent(el *etree.Element) {
	if el == nil {
		return
	}
	if p := el.Parent(); p != nil {
		p.RemoveChild(el)
	}
}

// nextElementSibling returns the next sibling *etree.Element of el, skipping
// character data, or nil.
func nextElementSibling(el *etree.Element) *etree.Element {
	parent := el.Parent()
	if parent == nil {
		return nil
	}
	idx := childIndexOf(parent, el)
	for i := idx + 1; i < len(parent.Child); i++ {
		if e, ok := parent.Child[i].(*etree.Element); ok {
			return e
		}
	}
	return nil
}

func textLeaves(root *etree.Element) []*etree.Element {
	var out []*etree.Element
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		if isTag(e, tagText) || isTag(e, tagDelText) {
			out = append(out, e)
			return
		}
		for _, c := range e.ChildElements() {
			walk(c)
		}
	}
	walk(root)
	return out
}
