package service

import (
	"log/slog"
	"os"

	"github.com/tracklayer/docxrevise/internal/packaging"
	"github.com/tracklayer/docxrevise/internal/session"
	"github.com/tracklayer/godocx/pkg/docx/revision"
)

// RevisionService exposes the session-scoped document-editing surface
// (open/save/close alongside the replace/delete/insert/accept/reject
// operations) over documents held in a DocumentCache.
type RevisionService interface {
	Open(path, explicitAuthor string) (string, error)
	Close(path string) error
	Reload(path string) error
	ForceSave(path string) error

	Replace(path, find, replaceWith string, nth int) (int, error)
	Delete(path, find string, nth int) (int, error)
	InsertBefore(path, anchor, text string, nth int) (int, error)
	InsertAfter(path, anchor, text string, nth int) (int, error)

	Accept(path string, id int) (bool, error)
	Reject(path string, id int) (bool, error)
	AcceptAll(path string, author *string) (int, error)
	RejectAll(path string, author *string) (int, error)
	ListRevisions(path string, author *string) ([]revision.Revision, error)

	Find(path, text string) (bool, error)
	Count(path, text string) (int, error)
	VisibleText(path string) (string, error)
}

type revisionService struct {
	cache  *session.DocumentCache
	logger *slog.Logger
}

// NewRevisionService returns a RevisionService backed by cache.
func NewRevisionService(cache *session.DocumentCache, logger *slog.Logger) RevisionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &revisionService{cache: cache, logger: logger}
}

// Open loads path and returns the resolved author; if path is already open,
// it returns that cache entry's author instead. explicitAuthor, if non-empty, becomes the session's
// new remembered default.
func (s *revisionService) Open(path, explicitAuthor string) (string, error) {
	author, _ := s.cache.GetAuthor(explicitAuthor)

	if cd, ok := s.cache.Get(path); ok {
		return cd.Author, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", revision.NewIOFailureError(err, "open %q: %v", path, err)
	}
	doc, err := packaging.OpenBytes(data)
	if err != nil {
		return "", revision.NewIOFailureError(err, "open %q: %v", path, err)
	}

	cd := session.NewCachedDocument(path, doc, author)
	if err := s.cache.Put(cd); err != nil {
		return "", revision.NewIOFailureError(err, "cache %q: %v", path, err)
	}
	s.logger.Info("document opened", slog.String("path", path), slog.String("author", author))
	return author, nil
}

// Close evicts path from the cache without saving pending edits.
func (s *revisionService) Close(path string) error {
	if _, ok := s.cache.Get(path); !ok {
		return revision.NewNotFoundError("document not open: %s", path)
	}
	s.cache.Remove(path)
	return nil
}

// Reload discards in-memory edits and re-reads path from disk.
func (s *revisionService) Reload(path string) error {
	cd, ok := s.cache.Get(path)
	if !ok {
		return revision.NewNotFoundError("document not open: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return revision.NewIOFailureError(err, "reload %q: %v", path, err)
	}
	doc, err := packaging.OpenBytes(data)
	if err != nil {
		return revision.NewIOFailureError(err, "reload %q: %v", path, err)
	}
	fresh := session.NewCachedDocument(path, doc, cd.Author)
	return s.cache.Put(fresh)
}

// ForceSave saves path unconditionally, re-baselining the cache's
// external-modification check against the new mtime.
func (s *revisionService) ForceSave(path string) error {
	cd, ok := s.cache.Get(path)
	if !ok {
		return revision.NewNotFoundError("document not open: %s", path)
	}
	if err := cd.Save(); err != nil {
		return revision.NewIOFailureError(err, "force_save %q: %v", path, err)
	}
	return nil
}

// resolve fetches the open document at path, failing with a NotFoundError
// if it is not open or an ExternalModificationError if the file on disk
// changed since it was opened or last saved.
func (s *revisionService) resolve(path string) (*session.CachedDocument, error) {
	cd, ok := s.cache.Get(path)
	if !ok {
		return nil, revision.NewNotFoundError("document not open: %s", path)
	}
	if cd.HasExternalChanges() {
		return nil, revision.NewExternalModificationError(
			"file was modified externally: %s. Use reload_document or force_save", path)
	}
	return cd, nil
}

func (s *revisionService) Replace(path, find, replaceWith string, nth int) (int, error) {
	cd, err := s.resolve(path)
	if err != nil {
		return 0, err
	}
	id, err := cd.Revision.Replace(find, replaceWith, nth)
	if err != nil {
		return 0, err
	}
	cd.MarkDirty()
	return id, nil
}

func (s *revisionService) Delete(path, find string, nth int) (int, error) {
	cd, err := s.resolve(path)
	if err != nil {
		return 0, err
	}
	id, err := cd.Revision.Delete(find, nth)
	if err != nil {
		return 0, err
	}
	cd.MarkDirty()
	return id, nil
}

func (s *revisionService) InsertBefore(path, anchor, text string, nth int) (int, error) {
	cd, err := s.resolve(path)
	if err != nil {
		return 0, err
	}
	id, err := cd.Revision.InsertBefore(anchor, text, nth)
	if err != nil {
		return 0, err
	}
	cd.MarkDirty()
	return id, nil
}

func (s *revisionService) InsertAfter(path, anchor, text string, nth int) (int, error) {
	cd, err := s.resolve(path)
	if err != nil {
		return 0, err
	}
	id, err := cd.Revision.InsertAfter(anchor, text, nth)
	if err != nil {
		return 0, err
	}
	cd.MarkDirty()
	return id, nil
}

func (s *revisionService) Accept(path string, id int) (bool, error) {
	cd, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	ok := cd.Revision.Accept(id)
	if ok {
		cd.MarkDirty()
	}
	return ok, nil
}

func (s *revisionService) Reject(path string, id int) (bool, error) {
	cd, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	ok := cd.Revision.Reject(id)
	if ok {
		cd.MarkDirty()
	}
	return ok, nil
}

func (s *revisionService) AcceptAll(path string, author *string) (int, error) {
	cd, err := s.resolve(path)
	if err != nil {
		return 0, err
	}
	n := cd.Revision.AcceptAll(author)
	if n > 0 {
		cd.MarkDirty()
	}
	return n, nil
}

func (s *revisionService) RejectAll(path string, author *string) (int, error) {
	cd, err := s.resolve(path)
	if err != nil {
		return 0, err
	}
	n := cd.Revision.RejectAll(author)
	if n > 0 {
		cd.MarkDirty()
	}
	return n, nil
}

func (s *revisionService) ListRevisions(path string, author *string) ([]revision.Revision, error) {
	cd, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	return cd.Revision.ListRevisions(author), nil
}

func (s *revisionService) Find(path, text string) (bool, error) {
	cd, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	return cd.Revision.Find(text), nil
}

func (s *revisionService) Count(path, text string) (int, error) {
	cd, err := s.resolve(path)
	if err != nil {
		return 0, err
	}
	return cd.Revision.Count(text), nil
}

func (s *revisionService) VisibleText(path string) (string, error) {
	cd, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	return cd.Revision.VisibleText(), nil
}
