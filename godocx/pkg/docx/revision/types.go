package revision

import (
	"time"

	"github.com/beevik/etree"
)

// Position is one character's origin within a TextMap: the text leaf it
// came from, its byte offset within that leaf's string value, and whether
// that leaf lies inside an insertion envelope.
type Position struct {
	Leaf            *etree.Element
	OffsetInLeaf    int
	IsInsideInsertion bool
}

// Match is a located occurrence of a query string inside a paragraph's
// TextMap: the contiguous slice of Positions it covers, and whether those
// positions disagree on IsInsideInsertion.
type Match struct {
	Query                string
	Start, End           int
	Positions            []Position
	SpansContextBoundary bool
}

// TextMap is the linear visible-text projection of a paragraph, together
// with per-character back-references to the originating leaf.
type TextMap struct {
	Text      string
	Positions []Position
}

// RevisionKind distinguishes an insertion envelope from a deletion one.
type RevisionKind int

const (
	KindInsertion RevisionKind = iota
	KindDeletion
)

func (k RevisionKind) String() string {
	if k == KindInsertion {
		return "insertion"
	}
	return "deletion"
}

// Revision is the logical, read-only view of one envelope returned by
// ListRevisions.
type Revision struct {
	ID     int
	Kind   RevisionKind
	Author string
	Date   time.Time
	Text   string
}
