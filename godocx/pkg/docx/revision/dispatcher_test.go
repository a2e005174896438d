package revision_test

import (
	"strings"
	"testing"
	"time"

	"github.com/tracklayer/godocx/pkg/docx/oxml"
	"github.com/tracklayer/godocx/pkg/docx/revision"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newDoc(t *testing.T, xmlBody string) *revision.Document {
	t.Helper()
	root, err := oxml.ParseXML([]byte(xmlBody))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	doc := revision.NewDocument(root, "Ada")
	doc.Clock = fixedClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	return doc
}

func serialize(t *testing.T, doc *revision.Document) string {
	t.Helper()
	out, err := oxml.SerializeXML(doc.Root)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return string(out)
}

const simpleParagraph = `<w:body xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:p>
    <w:r><w:t>The quick brown fox jumps over the lazy dog.</w:t></w:r>
  </w:p>
</w:body>`

// S1: a plain-text replace on a single-run paragraph takes the simple path
// and emits one deletion envelope followed by one insertion envelope.
func TestReplace_SimplePath(t *testing.T) {
	doc := newDoc(t, simpleParagraph)

	id, err := doc.Replace("quick brown", "slow red", 0)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive insertion id, got %d", id)
	}

	got := doc.VisibleText()
	want := "The quick brown fox jumps over the lazy dog."
	if got != want {
		t.Errorf("visible text should still show the pre-review original: got %q want %q", got, want)
	}

	revs := doc.ListRevisions(nil)
	if len(revs) != 2 {
		t.Fatalf("expected 2 revisions (1 deletion + 1 insertion), got %d", len(revs))
	}
	if revs[0].Kind != revision.KindDeletion || revs[0].Text != "quick brown" {
		t.Errorf("unexpected deletion revision: %+v", revs[0])
	}
	if revs[1].Kind != revision.KindInsertion || revs[1].Text != "slow red" {
		t.Errorf("unexpected insertion revision: %+v", revs[1])
	}
}

// S2: deleting text not present anywhere returns a NotFoundError.
func TestDelete_NotFound(t *testing.T) {
	doc := newDoc(t, simpleParagraph)

	_, err := doc.Delete("nonexistent phrase", 0)
	if err == nil {
		t.Fatal("expected NotFoundError, got nil")
	}
	var nfe *revision.NotFoundError
	if !asNotFound(err, &nfe) {
		t.Errorf("expected *NotFoundError, got %T: %v", err, err)
	}
}

func asNotFound(err error, target **revision.NotFoundError) bool {
	nfe, ok := err.(*revision.NotFoundError)
	if ok {
		*target = nfe
	}
	return ok
}

// S3: accepting a replace's insertion makes the replacement permanent and
// visible; the deletion remains until separately resolved.
func TestAccept_Insertion(t *testing.T) {
	doc := newDoc(t, simpleParagraph)

	id, err := doc.Replace("quick brown", "slow red", 0)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if ok := doc.Accept(id); !ok {
		t.Fatalf("Accept(%d) returned false", id)
	}

	xmlOut := serialize(t, doc)
	if strings.Contains(xmlOut, "w:ins") {
		t.Errorf("accepted insertion envelope should be gone: %s", xmlOut)
	}
	if !strings.Contains(xmlOut, "slow red") {
		t.Errorf("accepted insertion text should survive: %s", xmlOut)
	}
}

// S4: rejecting a deletion restores its text to visible (w:delText -> w:t).
func TestReject_Deletion(t *testing.T) {
	doc := newDoc(t, simpleParagraph)

	id, err := doc.Delete("quick brown", 0)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if ok := doc.Reject(id); !ok {
		t.Fatalf("Reject(%d) returned false", id)
	}

	xmlOut := serialize(t, doc)
	if strings.Contains(xmlOut, "w:del") || strings.Contains(xmlOut, "delText") {
		t.Errorf("rejected deletion should leave no w:del/delText trace: %s", xmlOut)
	}
	if doc.VisibleText() != "The quick brown fox jumps over the lazy dog." {
		t.Errorf("rejected deletion should restore full text, got %q", doc.VisibleText())
	}
}

// S5: AcceptAll / RejectAll process multiple revisions without id
// collisions, even though new work is interleaved.
func TestAcceptAll_MultipleRevisions(t *testing.T) {
	doc := newDoc(t, simpleParagraph)

	if _, err := doc.Delete("quick brown", 0); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := doc.InsertAfter("lazy dog", ", probably", 0); err != nil {
		t.Fatalf("InsertAfter: %v", err)
	}

	n := doc.AcceptAll(nil)
	if n != 2 {
		t.Fatalf("expected 2 revisions accepted, got %d", n)
	}
	if len(doc.ListRevisions(nil)) != 0 {
		t.Errorf("expected no revisions left after AcceptAll")
	}
}

// S6: a cross-boundary match (spanning two runs) is detected and replaced
// without corrupting either run's untouched text.
func TestReplace_CrossBoundary(t *testing.T) {
	doc := newDoc(t, `<w:body xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:p>
    <w:r><w:t>The quick br</w:t></w:r>
    <w:r><w:t>own fox jumps.</w:t></w:r>
  </w:p>
</w:body>`)

	id, err := doc.Replace("brown fox", "red hare", 0)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive insertion id, got %d", id)
	}

	if doc.VisibleText() != "The quick brown fox jumps." {
		t.Errorf("pre-review text should be unchanged, got %q", doc.VisibleText())
	}

	doc.AcceptAll(nil)
	if doc.VisibleText() != "The quick red hare jumps." {
		t.Errorf("after accept, expected %q, got %q", "The quick red hare jumps.", doc.VisibleText())
	}
}

func TestFindCountVisibleText(t *testing.T) {
	doc := newDoc(t, simpleParagraph)

	if !doc.Find("lazy dog") {
		t.Error("expected Find to report true")
	}
	if doc.Count("o") == 0 {
		t.Error("expected Count to find at least one occurrence of 'o'")
	}
	if doc.VisibleText() == "" {
		t.Error("expected non-empty visible text")
	}
}

func TestReplace_RejectsEmptyQuery(t *testing.T) {
	doc := newDoc(t, simpleParagraph)
	if _, err := doc.Replace("", "x", 0); err == nil {
		t.Error("expected InvalidArgumentError for empty query")
	}
}

// Replacing text inside an existing insertion does not emit a deletion —
// it just shrinks the insertion's own text.
func TestReplace_InsideInsertion(t *testing.T) {
	doc := newDoc(t, simpleParagraph)

	insID, err := doc.InsertAfter("lazy dog", " nearby", 0)
	if err != nil {
		t.Fatalf("InsertAfter: %v", err)
	}

	id, err := doc.Replace("nearby", "close", 0)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if id != -1 {
		t.Errorf("in-insertion replace should not allocate a new id, got %d", id)
	}

	revs := doc.ListRevisions(nil)
	if len(revs) != 1 || revs[0].ID != insID {
		t.Fatalf("expected exactly the original insertion to remain: %+v", revs)
	}
	if revs[0].Text != " close" {
		t.Errorf("expected shrunk insertion text %q, got %q", " close", revs[0].Text)
	}
}
