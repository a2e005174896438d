// Package oxml provides low-level XML element manipulation for Office Open XML documents.
package oxml

import (
	"bytes"
	"fmt"

	"github.com/beevik/etree"
)

// ParseXML parses XML bytes into an *etree.Element, returning the root
// element of the parsed document.
func ParseXML(data []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = true
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("oxml: parse xml: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("oxml: parse xml: no root element")
	}
	return root, nil
}

// SerializeXML renders el as a standalone XML document with a declaration,
// compact (no inserted whitespace), matching the layout OOXML parts expect.
func SerializeXML(el *etree.Element) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	doc.SetRoot(el.Copy())
	doc.WriteSettings.CanonicalEndTags = true

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("oxml: serialize xml: %w", err)
	}
	return buf.Bytes(), nil
}

// Unwrap reparents every child element of el in place of el itself: el's
// child elements are inserted, in order, into el's parent at el's index, and
// el is then removed. Character data directly inside el is dropped.
// Used when an envelope (w:ins/w:del wrapper) must disappear while its
// contents survive, e.g. accepting an insertion or rejecting a deletion.
func Unwrap(el *etree.Element) {
	parent := el.Parent()
	if parent == nil {
		return
	}
	idx := childIndex(parent, el)
	if idx < 0 {
		return
	}
	children := append([]etree.Token(nil), el.Child...)
	parent.RemoveChild(el)
	n := 0
	for _, tok := range children {
		if child, ok := tok.(*etree.Element); ok {
			parent.InsertChildAt(idx+n, child)
			n++
		}
	}
}

func childIndex(parent, el *etree.Element) int {
	for i, tok := range parent.Child {
		if tok == el {
			return i
		}
	}
	return -1
}
