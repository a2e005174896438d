package revision

import (
	"strconv"

	"github.com/beevik/etree"
)

// leafGroup collects the contiguous character range of one matched leaf:
// first/last are byte offsets into leaf.Text(), inclusive.
type leafGroup struct {
	leaf        *etree.Element
	first, last int
}

func groupByLeaf(positions []Position) []leafGroup {
	var groups []leafGroup
	index := make(map[*etree.Element]int)
	for _, p := range positions {
		if i, ok := index[p.Leaf]; ok {
			groups[i].last = p.OffsetInLeaf
			continue
		}
		index[p.Leaf] = len(groups)
		groups = append(groups, leafGroup{leaf: p.Leaf, first: p.OffsetInLeaf, last: p.OffsetInLeaf})
	}
	return groups
}

// leafPart is one leaf's contribution to a cross-boundary match: its
// owning run, property block, and the before/matched/after slices of its
// text value.
type leafPart struct {
	run     *etree.Element
	leaf    *etree.Element
	props   *etree.Element
	before  string
	matched string
	after   string
}

func buildLeafParts(positions []Position) []leafPart {
	groups := groupByLeaf(positions)
	parts := make([]leafPart, 0, len(groups))
	for _, g := range groups {
		run := ancestorRun(g.leaf)
		text := g.leaf.Text()
		matchedEnd := runeEnd(text, g.last)
		parts = append(parts, leafPart{
			run:     run,
			leaf:    g.leaf,
			props:   runProps(run),
			before:  text[:g.first],
			matched: text[g.first:matchedEnd],
			after:   text[matchedEnd:],
		})
	}
	return parts
}

func dedupeRuns(parts []leafPart) []*etree.Element {
	seen := make(map[*etree.Element]bool)
	var out []*etree.Element
	for _, p := range parts {
		if !seen[p.run] {
			seen[p.run] = true
			out = append(out, p.run)
		}
	}
	return out
}

func insertElementsBefore(ref *etree.Element, pieces ...*etree.Element) {
	parent := ref.Parent()
	idx := childIndexOf(parent, ref)
	for i, p := range pieces {
		parent.InsertChildAt(idx+i, p)
	}
}

// deleteLeafParts wraps every part's matched text in a fresh deletion
// envelope, preserving each part's unmatched before/after text as sibling
// runs, splices the result in before the first affected run, and removes
// every originally affected run exactly once. Returns the id of the first
// deletion envelope emitted.
func (e *emitter) deleteLeafParts(parts []leafPart) int {
	affected := dedupeRuns(parts)
	var pieces []*etree.Element
	firstDelID := -1
	for _, part := range parts {
		if part.before != "" {
			pieces = append(pieces, newRun(part.props, part.before, false))
		}
		delEnv := e.wrapDeletion(newRun(part.props, part.matched, false))
		if firstDelID == -1 {
			firstDelID = attrInt(delEnv, attrID)
		}
		pieces = append(pieces, delEnv)
		if part.after != "" {
			pieces = append(pieces, newRun(part.props, part.after, false))
		}
	}
	insertElementsBefore(affected[0], pieces...)
	for _, r := range affected {
		removeFromParent(r)
	}
	return firstDelID
}

// sameContextReplace handles a match confined to one revision context
// (not inside an insertion) spanning multiple leaves/runs: every matched
// slice becomes a deletion, and a single insertion carrying replaceWith is
// emitted once, immediately after the last deletion.
func (e *emitter) sameContextReplace(parts []leafPart, replaceWith string) int {
	affected := dedupeRuns(parts)
	firstProps := parts[0].props
	var pieces []*etree.Element
	var insEnv *etree.Element
	for i, part := range parts {
		if part.before != "" {
			pieces = append(pieces, newRun(part.props, part.before, false))
		}
		pieces = append(pieces, e.wrapDeletion(newRun(part.props, part.matched, false)))
		if i == len(parts)-1 {
			insEnv = e.wrapInsertion(newRun(firstProps, replaceWith, false))
			pieces = append(pieces, insEnv)
		}
		if part.after != "" {
			pieces = append(pieces, newRun(part.props, part.after, false))
		}
	}
	insertElementsBefore(affected[0], pieces...)
	for _, r := range affected {
		removeFromParent(r)
	}
	return attrInt(insEnv, attrID)
}

// insertionSlot is a (parent, index) pair recording where a vacated
// position used to be, so a replacement fragment can be spliced in after
// the nodes that occupied it are mutated or removed.
type insertionSlot struct {
	parent *etree.Element
	index  int
}

func slotBefore(el *etree.Element) insertionSlot {
	p := el.Parent()
	return insertionSlot{parent: p, index: childIndexOf(p, el)}
}

func slotAfter(el *etree.Element) insertionSlot {
	p := el.Parent()
	return insertionSlot{parent: p, index: childIndexOf(p, el) + 1}
}

func (s insertionSlot) insert(el *etree.Element) {
	s.parent.InsertChildAt(s.index, el)
}

// shrinkInsertion removes a matched region from inside an InsertionEnvelope
// without emitting a deletion wrapper. Returns the
// slot where a replacement run should be spliced (if any) and whether the
// enclosing envelope was removed entirely (in which case the caller must
// wrap any replacement in a fresh envelope to preserve attribution).
func (e *emitter) shrinkInsertion(positions []Position) (insertionSlot, bool) {
	groups := groupByLeaf(positions)
	first, last := groups[0], groups[len(groups)-1]
	firstLeaf, lastLeaf := first.leaf, last.leaf
	env := ancestorEnvelope(firstLeaf, tagInsertion)
	beforeText := firstLeaf.Text()[:first.first]
	afterText := lastLeaf.Text()[runeEnd(lastLeaf.Text(), last.last):]

	if beforeText == "" && afterText == "" && len(groups) == len(textLeaves(env)) {
		slot := slotBefore(env)
		removeFromParent(env)
		return slot, true
	}

	if len(groups) == 1 {
		leaf := firstLeaf
		run := ancestorRun(leaf)
		switch {
		case beforeText == "" && afterText == "":
			runSlot := slotBefore(run)
			removeFromParent(leaf)
			removeRunIfEmpty(run)
			if len(textLeaves(env)) == 0 {
				envSlot := slotBefore(env)
				removeFromParent(env)
				return envSlot, true
			}
			return runSlot, false
		case beforeText == "":
			leaf.SetText(afterText)
			stampPreserve(leaf, afterText)
			return slotBefore(run), false
		case afterText == "":
			leaf.SetText(beforeText)
			stampPreserve(leaf, beforeText)
			return slotAfter(run), false
		default:
			leaf.SetText(beforeText)
			stampPreserve(leaf, beforeText)
			siblingEnv := etree.NewElement("ins")
			siblingEnv.Space = "w"
			siblingEnv.CreateAttr(attrID, strconv.Itoa(e.ids.NextRevisionID()))
			siblingEnv.CreateAttr(attrAuthor, env.SelectAttrValue(attrAuthor, ""))
			siblingEnv.CreateAttr(attrDate, env.SelectAttrValue(attrDate, ""))
			siblingEnv.AddChild(newRun(runProps(run), afterText, false))
			insertElementAfter(env, siblingEnv)
			return slotAfter(env), false
		}
	}

	// Multi-leaf within the envelope: truncate the ends, drop the middle.
	firstRun := ancestorRun(firstLeaf)
	lastRun := ancestorRun(lastLeaf)
	origIndex := childIndexOf(firstRun.Parent(), firstRun)
	parent := firstRun.Parent()

	if afterText != "" {
		lastLeaf.SetText(afterText)
		stampPreserve(lastLeaf, afterText)
	} else {
		removeFromParent(lastLeaf)
		removeRunIfEmpty(lastRun)
	}
	for _, g := range groups[1 : len(groups)-1] {
		r := ancestorRun(g.leaf)
		removeFromParent(g.leaf)
		removeRunIfEmpty(r)
	}

	firstRemoved := false
	if beforeText != "" {
		firstLeaf.SetText(beforeText)
		stampPreserve(firstLeaf, beforeText)
	} else {
		if len(textSpanChildren(firstRun)) > 1 {
			removeFromParent(firstLeaf)
		} else {
			removeFromParent(firstRun)
			firstRemoved = true
		}
	}

	if firstRemoved {
		return insertionSlot{parent: parent, index: origIndex}, false
	}
	return insertionSlot{parent: parent, index: origIndex + 1}, false
}
