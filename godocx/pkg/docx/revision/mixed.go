package revision

import "github.com/beevik/etree"

// allInInsReplace carves replaceWith's match out of an insertion envelope
// entirely (same-context, inside-insertion) and splices the replacement in
// its place. If the envelope was fully consumed, the replacement is
// rewrapped in a fresh envelope under the current author to preserve
// attribution.
func (e *emitter) allInInsReplace(positions []Position, replaceWith string) int {
	props := runProps(ancestorRun(positions[0].Leaf))
	slot, removed := e.shrinkInsertion(positions)
	if removed {
		insEnv := e.wrapInsertion(newRun(props, replaceWith, false))
		slot.insert(insEnv)
		return attrInt(insEnv, attrID)
	}
	slot.insert(newRun(props, replaceWith, false))
	return -1
}

func (e *emitter) allInInsDelete(positions []Position) int {
	e.shrinkInsertion(positions)
	return -1
}

// mixedStateReplace handles a match that crosses an insertion-envelope
// boundary: each contiguous segment is carved (if inside an insertion) or
// deleted (if not), then a single replacement insertion is spliced in
// immediately after the run of deletion wrappers that settles nearest the
// match's original start.
func (e *emitter) mixedStateReplace(match *Match, replaceWith string) int {
	segments := ClassifySegments(match)
	firstPos := match.Positions[0]
	props := runProps(ancestorRun(firstPos.Leaf))

	var refNode *etree.Element
	if firstPos.IsInsideInsertion {
		refNode = ancestorEnvelope(firstPos.Leaf, tagInsertion)
	} else {
		refNode = ancestorRun(firstPos.Leaf)
	}

	sentinel := etree.NewElement("sentinel")
	insertElementBefore(refNode, sentinel)

	for _, seg := range segments {
		if seg.InsideInsertion {
			e.shrinkInsertion(seg.Positions)
		} else {
			e.deleteLeafParts(buildLeafParts(seg.Positions))
		}
	}

	parent := sentinel.Parent()
	idx := childIndexOf(parent, sentinel)
	insertAt := idx + 1
	seenDel := false
	for i := idx + 1; i < len(parent.Child); i++ {
		el, ok := parent.Child[i].(*etree.Element)
		if !ok {
			continue
		}
		if isTag(el, tagDeletion) {
			insertAt = i + 1
			seenDel = true
			continue
		}
		if seenDel {
			break
		}
	}

	insEnv := e.wrapInsertion(newRun(props, replaceWith, false))
	parent.InsertChildAt(insertAt, insEnv)
	removeFromParent(sentinel)
	return attrInt(insEnv, attrID)
}

// insertNearMatch anchors a new insertion on a cross-boundary match without
// touching the matched text itself: the new envelope is spliced before the
// run owning the match's first position, or after the run owning its last.
// When that run already lies inside an insertion envelope, the text is
// spliced in as a bare run instead and -1 is returned.
func (e *emitter) insertNearMatch(match *Match, text string, before bool) int {
	var anchorLeaf *etree.Element
	if before {
		anchorLeaf = match.Positions[0].Leaf
	} else {
		anchorLeaf = match.Positions[len(match.Positions)-1].Leaf
	}
	anchorRun := ancestorRun(anchorLeaf)
	props := runProps(anchorRun)
	if ancestorEnvelope(anchorRun, tagInsertion) != nil {
		// The enclosing envelope already attributes the new text.
		bare := newRun(props, text, false)
		if before {
			insertElementBefore(anchorRun, bare)
		} else {
			insertElementAfter(anchorRun, bare)
		}
		return -1
	}
	insEnv := e.wrapInsertion(newRun(props, text, false))
	if before {
		insertElementBefore(anchorRun, insEnv)
	} else {
		insertElementAfter(anchorRun, insEnv)
	}
	return attrInt(insEnv, attrID)
}

func (e *emitter) mixedStateDelete(match *Match) int {
	segments := ClassifySegments(match)
	firstDelID := -1
	for _, seg := range segments {
		if seg.InsideInsertion {
			e.shrinkInsertion(seg.Positions)
		} else {
			id := e.deleteLeafParts(buildLeafParts(seg.Positions))
			if firstDelID == -1 {
				firstDelID = id
			}
		}
	}
	return firstDelID
}
