// Package session implements the LRU document cache and per-session author
// memory that sit between the HTTP layer and an opened packaging.Document:
// it tracks which documents are open, which have unsaved edits, and detects
// when the underlying file changed outside this process.
package session

import (
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"sync"
	"time"

	"github.com/tracklayer/docxrevise/internal/packaging"
	"github.com/tracklayer/godocx/pkg/docx/revision"
)

// CachedDocument wraps one opened document together with the bookkeeping
// the cache needs: its normalized path, the mtime it was opened (or last
// saved) at, when it was last touched, and whether it carries unsaved
// edits.
type CachedDocument struct {
	Path       string
	Doc        *packaging.Document
	Author     string
	ModTime    time.Time
	LastAccess time.Time
	Dirty      bool

	// Revision is the editor bound to Doc.Root, seeded once at open time.
	// It survives for the lifetime of this cache entry: the underlying
	// tree is mutated in place by every edit, so the id allocator's
	// high-water mark stays valid without re-scanning on every call.
	Revision *revision.Document
}

// NewCachedDocument wraps doc, normalizing path and recording its current
// on-disk mtime (zero if the file does not exist, e.g. a not-yet-saved new
// document).
func NewCachedDocument(path string, doc *packaging.Document, author string) *CachedDocument {
	path = normalizePath(path)
	now := time.Now()
	cd := &CachedDocument{
		Path:       path,
		Doc:        doc,
		Author:     author,
		LastAccess: now,
		Revision:   revision.NewDocument(doc.Root, author),
	}
	if info, err := os.Stat(path); err == nil {
		cd.ModTime = info.ModTime()
	}
	return cd
}

func normalizePath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}

// Touch records an access, keeping this document at the front of the LRU
// order.
func (c *CachedDocument) Touch() { c.LastAccess = time.Now() }

// MarkDirty records that an edit has not yet been saved.
func (c *CachedDocument) MarkDirty() { c.Dirty = true }

// ClearDirty records that the in-memory state matches the file on disk.
func (c *CachedDocument) ClearDirty() { c.Dirty = false }

// HasExternalChanges reports whether the file's mtime no longer matches
// what this cache entry last observed — any difference, not just a newer
// one, since a restored backup can carry an older mtime.
func (c *CachedDocument) HasExternalChanges() bool {
	info, err := os.Stat(c.Path)
	if err != nil {
		return false
	}
	return !info.ModTime().Equal(c.ModTime)
}

// UpdateModTime refreshes ModTime from disk, e.g. immediately after a save.
func (c *CachedDocument) UpdateModTime() {
	if info, err := os.Stat(c.Path); err == nil {
		c.ModTime = info.ModTime()
	}
}

// Save re-serializes the document to its path and clears the dirty flag.
func (c *CachedDocument) Save() error {
	data, err := c.Doc.SaveBytes()
	if err != nil {
		return fmt.Errorf("session: save %q: %w", c.Path, err)
	}
	if err := os.WriteFile(c.Path, data, 0o644); err != nil {
		return fmt.Errorf("session: write %q: %w", c.Path, err)
	}
	c.ClearDirty()
	c.UpdateModTime()
	return nil
}

// DocumentCache is a bounded, LRU-evicting cache of open documents, plus
// the session-wide remembered default author.
type DocumentCache struct {
	mu            sync.Mutex
	maxDocuments  int
	docs          map[string]*CachedDocument
	defaultAuthor string
	logger        *slog.Logger
}

// NewDocumentCache returns an empty cache holding at most maxDocuments
// documents at once.
func NewDocumentCache(maxDocuments int, logger *slog.Logger) *DocumentCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentCache{
		maxDocuments: maxDocuments,
		docs:         make(map[string]*CachedDocument),
		logger:       logger,
	}
}

// Size reports how many documents are currently cached.
func (c *DocumentCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}

// Get looks up path, touching it on a hit.
func (c *DocumentCache) Get(path string) (*CachedDocument, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cd, ok := c.docs[normalizePath(path)]
	if ok {
		cd.Touch()
	}
	return cd, ok
}

// Put inserts cd into the cache, evicting the least-recently-used entry
// first if the cache is full and cd's path is not already present. Eviction
// saves the victim if dirty; if that save fails, eviction — and this Put —
// is aborted so no document is silently lost.
func (c *DocumentCache) Put(cd *CachedDocument) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.docs[cd.Path]; !exists && len(c.docs) >= c.maxDocuments {
		if err := c.evictLRU(); err != nil {
			return err
		}
	}
	c.docs[cd.Path] = cd
	return nil
}

// Remove drops path from the cache without saving it.
func (c *DocumentCache) Remove(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.docs, normalizePath(path))
}

// All returns every cached document, in no particular order.
func (c *DocumentCache) All() []*CachedDocument {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*CachedDocument, 0, len(c.docs))
	for _, cd := range c.docs {
		out = append(out, cd)
	}
	return out
}

// evictLRU must be called with mu held.
func (c *DocumentCache) evictLRU() error {
	var victim *CachedDocument
	for _, cd := range c.docs {
		if victim == nil || cd.LastAccess.Before(victim.LastAccess) {
			victim = cd
		}
	}
	if victim == nil {
		return nil
	}
	if victim.Dirty {
		if err := victim.Save(); err != nil {
			c.logger.Error("eviction save failed, aborting eviction",
				slog.String("path", victim.Path), slog.String("error", err.Error()))
			return fmt.Errorf("session: cache full and evicting %q failed: %w", victim.Path, err)
		}
	}
	delete(c.docs, victim.Path)
	return nil
}

// GetAuthor resolves the author to attribute new revisions to: an explicit
// value always wins (and becomes the new session default); otherwise the
// session-remembered default; otherwise the OS user; otherwise "Reviewer".
// isDefault reports whether the returned author came from anything other
// than an explicit argument.
func (c *DocumentCache) GetAuthor(explicit string) (author string, isDefault bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if explicit != "" {
		c.defaultAuthor = explicit
		return explicit, false
	}
	if c.defaultAuthor != "" {
		return c.defaultAuthor, true
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		c.defaultAuthor = u.Username
		return u.Username, true
	}
	c.defaultAuthor = "Reviewer"
	return "Reviewer", true
}
