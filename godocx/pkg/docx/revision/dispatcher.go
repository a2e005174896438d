package revision

import (
	"sort"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/tracklayer/godocx/pkg/docx/oxml"
)

// Document is the Operation Dispatcher bound to one in-memory tree, an
// author, and an id allocator.
type Document struct {
	Root   *etree.Element
	Author string
	Clock  func() time.Time

	ids IDAllocator
}

// NewDocument wraps root (a tree containing one or more paragraphs) as a
// revision-editable document, seeding the id allocator above the highest
// existing revision id.
func NewDocument(root *etree.Element, author string) *Document {
	return &Document{Root: root, Author: author, ids: NewCounterAllocator(root)}
}

func (d *Document) emitter() *emitter {
	return &emitter{ids: d.ids, author: d.Author, clock: d.Clock}
}

func (d *Document) paragraphs() []*etree.Element {
	var out []*etree.Element
	var walk func(*etree.Element)
	walk = func(el *etree.Element) {
		if isTag(el, tagParagraph) {
			out = append(out, el)
			return
		}
		for _, c := range el.ChildElements() {
			walk(c)
		}
	}
	for _, c := range d.Root.ChildElements() {
		walk(c)
	}
	return out
}

// candidateLeaves returns every w:t leaf under Root whose value contains
// query, in document order — the dispatcher's fast, node-level first pass.
func (d *Document) candidateLeaves(query string) []*etree.Element {
	var out []*etree.Element
	for _, leaf := range textLeaves(d.Root) {
		if isTag(leaf, tagText) && strings.Contains(leaf.Text(), query) {
			out = append(out, leaf)
		}
	}
	return out
}

// crossBoundaryFind scans every paragraph's TextMap, in document order,
// counting occurrences cumulatively across paragraph boundaries, until the
// nth occurrence of query is located.
func (d *Document) crossBoundaryFind(query string, nth int) (*Match, error) {
	count := 0
	for _, para := range d.paragraphs() {
		tm := BuildTextMap(para)
		local := 0
		for {
			m := FindInTextMap(tm, query, local)
			if m == nil {
				break
			}
			if count == nth {
				return m, nil
			}
			count++
			local++
		}
	}
	return nil, NewNotFoundError("text not found: %q (occurrence %d)", query, nth)
}

func validateQuery(query string, nth int) error {
	if query == "" {
		return NewInvalidArgumentError("query must not be empty")
	}
	if nth < 0 {
		return NewInvalidArgumentError("occurrence must not be negative")
	}
	return nil
}

// resolveSimplePath attempts the fast, single-leaf path: if the nth
// candidate leaf exists and its run has exactly one TextSpan, returns a
// populated candidate. Otherwise ok is false and the caller must fall back
// to the cross-boundary path.
func (d *Document) resolveSimplePath(query string, nth int) (c *simplePathCandidate, ok bool, err error) {
	leaves := d.candidateLeaves(query)
	if nth >= len(leaves) {
		return nil, false, nil
	}
	leaf := leaves[nth]
	run := ancestorRun(leaf)
	if run == nil {
		return nil, false, NewStructuralInvariantError("no enclosing run for match of %q", query)
	}
	if len(textSpanChildren(run)) != 1 {
		return nil, false, nil
	}
	insideIns := ancestorEnvelope(leaf, tagInsertion) != nil
	return &simplePathCandidate{run: run, leaf: leaf, insideIns: insideIns}, true, nil
}

// Replace finds the nth (0-based) occurrence of find and replaces it with
// replaceWith under tracked changes, returning the new insertion's id (or
// -1 if absorbed into an existing insertion envelope).
//
// nth first selects the nth w:t leaf whose own value contains find, and the
// first occurrence inside that leaf is used. Only when there is no such leaf,
// or its run holds other text spans, is nth counted over occurrences in the
// visible text of every paragraph. The same rule applies to Delete,
// InsertBefore and InsertAfter.
func (d *Document) Replace(find, replaceWith string, nth int) (int, error) {
	if err := validateQuery(find, nth); err != nil {
		return 0, err
	}
	e := d.emitter()
	if c, ok, err := d.resolveSimplePath(find, nth); err != nil {
		return 0, err
	} else if ok {
		return e.simpleReplace(c, find, replaceWith), nil
	}

	match, err := d.crossBoundaryFind(find, nth)
	if err != nil {
		return 0, err
	}
	if match.SpansContextBoundary {
		return e.mixedStateReplace(match, replaceWith), nil
	}
	if match.Positions[0].IsInsideInsertion {
		return e.allInInsReplace(match.Positions, replaceWith), nil
	}
	return e.sameContextReplace(buildLeafParts(match.Positions), replaceWith), nil
}

// Delete finds the nth occurrence of find and marks it as deleted,
// returning the new deletion's id (or -1 if absorbed into an existing
// insertion envelope).
func (d *Document) Delete(find string, nth int) (int, error) {
	if err := validateQuery(find, nth); err != nil {
		return 0, err
	}
	e := d.emitter()
	if c, ok, err := d.resolveSimplePath(find, nth); err != nil {
		return 0, err
	} else if ok {
		return e.simpleDelete(c, find), nil
	}

	match, err := d.crossBoundaryFind(find, nth)
	if err != nil {
		return 0, err
	}
	if match.SpansContextBoundary {
		return e.mixedStateDelete(match), nil
	}
	if match.Positions[0].IsInsideInsertion {
		return e.allInInsDelete(match.Positions), nil
	}
	return e.deleteLeafParts(buildLeafParts(match.Positions)), nil
}

// InsertBefore inserts text before the nth occurrence of anchor, returning
// the new insertion's id, or -1 when the text is added inside an existing
// insertion envelope. When anchor lies in a single-span run, the run is split
// so the text lands immediately before anchor. Otherwise the text is placed
// before the whole run holding anchor's first character, so any text that
// run holds ahead of anchor ends up after the inserted text.
func (d *Document) InsertBefore(anchor, text string, nth int) (int, error) {
	return d.insertNear(anchor, text, nth, true)
}

// InsertAfter inserts text after the nth occurrence of anchor, returning the
// new insertion's id, or -1 when the text is added inside an existing
// insertion envelope. When anchor lies in a single-span run, the run is split
// so the text lands immediately after anchor. Otherwise the text is placed
// after the whole run holding anchor's last character, so any text that run
// holds after anchor ends up before the inserted text.
func (d *Document) InsertAfter(anchor, text string, nth int) (int, error) {
	return d.insertNear(anchor, text, nth, false)
}

func (d *Document) insertNear(anchor, text string, nth int, before bool) (int, error) {
	if err := validateQuery(anchor, nth); err != nil {
		return 0, err
	}
	e := d.emitter()
	if c, ok, err := d.resolveSimplePath(anchor, nth); err != nil {
		return 0, err
	} else if ok {
		return e.simpleInsert(c, anchor, text, before), nil
	}

	match, err := d.crossBoundaryFind(anchor, nth)
	if err != nil {
		return 0, err
	}
	return e.insertNearMatch(match, text, before), nil
}

// Find reports whether text occurs anywhere in the document's visible
// text projection.
func (d *Document) Find(text string) bool {
	return d.Count(text) > 0
}

// Count reports how many times text occurs in the document's visible text
// projection, counting overlapping occurrences.
func (d *Document) Count(text string) int {
	if text == "" {
		return 0
	}
	total := 0
	for _, para := range d.paragraphs() {
		tm := BuildTextMap(para)
		for n := 0; ; n++ {
			if FindInTextMap(tm, text, n) == nil {
				break
			}
			total++
		}
	}
	return total
}

// VisibleText returns the document's visible text projection: every
// paragraph's TextMap text, joined by newlines.
func (d *Document) VisibleText() string {
	paras := d.paragraphs()
	parts := make([]string, len(paras))
	for i, p := range paras {
		parts[i] = BuildTextMap(p).Text
	}
	return strings.Join(parts, "\n")
}

func (d *Document) envelopes(tag string) []*etree.Element {
	var out []*etree.Element
	var walk func(*etree.Element)
	walk = func(el *etree.Element) {
		if isTag(el, tag) {
			out = append(out, el)
		}
		for _, c := range el.ChildElements() {
			walk(c)
		}
	}
	walk(d.Root)
	return out
}

func runsInside(env *etree.Element) []*etree.Element {
	var out []*etree.Element
	var walk func(*etree.Element)
	walk = func(el *etree.Element) {
		if isTag(el, tagRun) {
			out = append(out, el)
			return
		}
		for _, c := range el.ChildElements() {
			walk(c)
		}
	}
	for _, c := range env.ChildElements() {
		walk(c)
	}
	return out
}

func parseRevision(env *etree.Element, kind RevisionKind) Revision {
	dateStr := env.SelectAttrValue(attrDate, "")
	date, _ := time.Parse(time.RFC3339, dateStr)

	leafTag := tagText
	if kind == KindDeletion {
		leafTag = tagDelText
	}
	var text strings.Builder
	for _, leaf := range textLeaves(env) {
		if isTag(leaf, leafTag) {
			text.WriteString(leaf.Text())
		}
	}

	return Revision{
		ID:     attrInt(env, attrID),
		Kind:   kind,
		Author: env.SelectAttrValue(attrAuthor, "Unknown"),
		Date:   date,
		Text:   text.String(),
	}
}

// ListRevisions enumerates every envelope in document order, optionally
// filtered by author, sorted by id ascending.
func (d *Document) ListRevisions(author *string) []Revision {
	var revisions []Revision
	for _, env := range d.envelopes(tagInsertion) {
		revisions = append(revisions, parseRevision(env, KindInsertion))
	}
	for _, env := range d.envelopes(tagDeletion) {
		revisions = append(revisions, parseRevision(env, KindDeletion))
	}
	if author != nil {
		filtered := revisions[:0]
		for _, r := range revisions {
			if r.Author == *author {
				filtered = append(filtered, r)
			}
		}
		revisions = filtered
	}
	sort.Slice(revisions, func(i, j int) bool { return revisions[i].ID < revisions[j].ID })
	return revisions
}

// Accept accepts the revision with the given id: an insertion is unwrapped
// (its content survives), a deletion is removed entirely.
func (d *Document) Accept(id int) bool {
	for _, env := range d.envelopes(tagInsertion) {
		if attrInt(env, attrID) == id {
			oxml.Unwrap(env)
			return true
		}
	}
	for _, env := range d.envelopes(tagDeletion) {
		if attrInt(env, attrID) == id {
			removeFromParent(env)
			return true
		}
	}
	return false
}

// Reject rejects the revision with the given id: an insertion is removed
// entirely, a deletion's content is restored to visible text.
func (d *Document) Reject(id int) bool {
	for _, env := range d.envelopes(tagInsertion) {
		if attrInt(env, attrID) == id {
			removeFromParent(env)
			return true
		}
	}
	for _, env := range d.envelopes(tagDeletion) {
		if attrInt(env, attrID) == id {
			for _, run := range runsInside(env) {
				restoreDeletion(run)
			}
			oxml.Unwrap(env)
			return true
		}
	}
	return false
}

// AcceptAll accepts every revision (optionally filtered by author) in
// descending id order, so that accepting a later revision never disturbs
// the locator of an earlier one. Returns the number accepted.
func (d *Document) AcceptAll(author *string) int {
	return d.bulk(author, d.Accept)
}

// RejectAll is AcceptAll's counterpart for reject.
func (d *Document) RejectAll(author *string) int {
	return d.bulk(author, d.Reject)
}

func (d *Document) bulk(author *string, op func(int) bool) int {
	revisions := d.ListRevisions(author)
	sort.Slice(revisions, func(i, j int) bool { return revisions[i].ID > revisions[j].ID })
	count := 0
	for _, r := range revisions {
		if op(r.ID) {
			count++
		}
	}
	return count
}
