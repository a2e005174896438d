package revision

import (
	"strings"

	"github.com/beevik/etree"
)

// simplePathCandidate describes a match resolved to a single leaf whose
// owning Run carries no sibling TextSpans — the precondition for §4.3.1.
type simplePathCandidate struct {
	run       *etree.Element
	leaf      *etree.Element
	insideIns bool
}

func (e *emitter) simpleReplace(c *simplePathCandidate, find, replaceWith string) int {
	full := c.leaf.Text()
	idx := strings.Index(full, find)
	before := full[:idx]
	after := full[idx+len(find):]
	props := runProps(c.run)

	if c.insideIns {
		newText := before + replaceWith + after
		c.leaf.SetText(newText)
		stampPreserve(c.leaf, newText)
		return -1
	}

	var pieces []*etree.Element
	if before != "" {
		pieces = append(pieces, newRun(props, before, false))
	}
	delEnv := e.wrapDeletion(newRun(props, find, false))
	insEnv := e.wrapInsertion(newRun(props, replaceWith, false))
	pieces = append(pieces, delEnv, insEnv)
	if after != "" {
		pieces = append(pieces, newRun(props, after, false))
	}
	spliceInPlace(c.run, pieces...)
	return attrInt(insEnv, attrID)
}

func (e *emitter) simpleDelete(c *simplePathCandidate, find string) int {
	full := c.leaf.Text()
	idx := strings.Index(full, find)
	before := full[:idx]
	after := full[idx+len(find):]
	props := runProps(c.run)

	if c.insideIns {
		remaining := before + after
		if remaining == "" {
			env := ancestorEnvelope(c.leaf, tagInsertion)
			removeFromParent(c.leaf)
			removeRunIfEmpty(c.run)
			removeEnvelopeIfEmpty(env)
		} else {
			c.leaf.SetText(remaining)
			stampPreserve(c.leaf, remaining)
		}
		return -1
	}

	var pieces []*etree.Element
	if before != "" {
		pieces = append(pieces, newRun(props, before, false))
	}
	delEnv := e.wrapDeletion(newRun(props, find, false))
	pieces = append(pieces, delEnv)
	if after != "" {
		pieces = append(pieces, newRun(props, after, false))
	}
	spliceInPlace(c.run, pieces...)
	return attrInt(delEnv, attrID)
}

// simpleInsert splits c.run around anchor and splices the new text either
// before or after it. before==true means insert_before semantics.
func (e *emitter) simpleInsert(c *simplePathCandidate, anchor, text string, before bool) int {
	full := c.leaf.Text()
	idx := strings.Index(full, anchor)
	beforeText := full[:idx]
	afterText := full[idx+len(anchor):]
	props := runProps(c.run)

	anchorRun := newRun(props, anchor, false)

	if c.insideIns {
		insertRun := newRun(props, text, false)
		var pieces []*etree.Element
		if beforeText != "" {
			pieces = append(pieces, newRun(props, beforeText, false))
		}
		if before {
			pieces = append(pieces, insertRun, anchorRun)
		} else {
			pieces = append(pieces, anchorRun, insertRun)
		}
		if afterText != "" {
			pieces = append(pieces, newRun(props, afterText, false))
		}
		spliceInPlace(c.run, pieces...)
		return -1
	}

	insEnv := e.wrapInsertion(newRun(props, text, false))
	var pieces []*etree.Element
	if beforeText != "" {
		pieces = append(pieces, newRun(props, beforeText, false))
	}
	if before {
		pieces = append(pieces, insEnv, anchorRun)
	} else {
		pieces = append(pieces, anchorRun, insEnv)
	}
	if afterText != "" {
		pieces = append(pieces, newRun(props, afterText, false))
	}
	spliceInPlace(c.run, pieces...)
	return attrInt(insEnv, attrID)
}
