package revision

import (
	"strconv"
	"time"

	"github.com/beevik/etree"
)

// IDAllocator allocates fresh, monotonically increasing revision ids. It is
// the one genuinely external, document-scoped collaborator the Run
// Rewriter and Envelope Manager depend on.
type IDAllocator interface {
	NextRevisionID() int
}

// counterAllocator is the default IDAllocator: a per-document counter
// seeded from the highest w:id already present in the tree.
type counterAllocator struct{ next int }

func (c *counterAllocator) NextRevisionID() int {
	c.next++
	return c.next
}

// NewCounterAllocator returns an IDAllocator seeded above the highest
// revision id already present under root.
func NewCounterAllocator(root *etree.Element) IDAllocator {
	max := 0
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		if isTag(e, tagInsertion) || isTag(e, tagDeletion) {
			if v, err := strconv.Atoi(e.SelectAttrValue(attrID, "")); err == nil && v > max {
				max = v
			}
		}
		for _, c := range e.ChildElements() {
			walk(c)
		}
	}
	walk(root)
	return &counterAllocator{next: max}
}

// emitter stamps fresh ids, the session author, and a timestamp onto
// envelopes the Rewriter produces.
type emitter struct {
	ids    IDAllocator
	author string
	clock  func() time.Time
}

func (e *emitter) now() time.Time {
	if e.clock != nil {
		return e.clock()
	}
	return time.Now()
}

// wrapInsertion wraps run in a fresh w:ins envelope.
func (e *emitter) wrapInsertion(run *etree.Element) *etree.Element {
	env := etree.NewElement("ins")
	env.Space = "w"
	env.CreateAttr(attrID, strconv.Itoa(e.ids.NextRevisionID()))
	env.CreateAttr(attrAuthor, e.author)
	env.CreateAttr(attrDate, e.now().UTC().Format(time.RFC3339))
	env.AddChild(run)
	return env
}

// wrapDeletion wraps run in a fresh w:del envelope, renaming the run's
// revision-id attribute to deleted-revision-id.
func (e *emitter) wrapDeletion(run *etree.Element) *etree.Element {
	markDeleted(run)
	env := etree.NewElement("del")
	env.Space = "w"
	env.CreateAttr(attrID, strconv.Itoa(e.ids.NextRevisionID()))
	env.CreateAttr(attrAuthor, e.author)
	env.CreateAttr(attrDate, e.now().UTC().Format(time.RFC3339))
	env.AddChild(run)
	return env
}

// markDeleted renames w:rsidR to w:rsidDel on run and converts its w:t
// leaves to w:delText, the inverse of restoreDeletion.
func markDeleted(run *etree.Element) {
	if v := run.SelectAttrValue(attrRevision, ""); v != "" {
		run.CreateAttr(attrDelRevID, v)
		run.RemoveAttr(attrRevision)
	}
	for _, c := range run.ChildElements() {
		if isTag(c, tagText) {
			c.Tag = "delText"
		}
	}
}

// restoreDeletion converts a deleted run back into a normal visible run:
// w:delText leaves back to w:t, w:rsidDel back to w:rsidR.
func restoreDeletion(run *etree.Element) {
	if v := run.SelectAttrValue(attrDelRevID, ""); v != "" {
		run.CreateAttr(attrRevision, v)
		run.RemoveAttr(attrDelRevID)
	}
	for _, c := range run.ChildElements() {
		if isTag(c, tagDelText) {
			c.Tag = "t"
		}
	}
}
