package handler

import (
	"log/slog"
	"net/http"

	"github.com/tracklayer/docxrevise/internal/middleware"
	"github.com/tracklayer/docxrevise/internal/service"
)

// NewRouter builds the HTTP mux with all routes and middleware.
func NewRouter(logger *slog.Logger, pkgSvc service.PackagingService, revSvc service.RevisionService, maxBodyBytes int64) http.Handler {
	mux := http.NewServeMux()

	pkg := NewPackagingHandler(pkgSvc)
	rev := NewRevisionHandler(revSvc)

	// Health endpoints
	mux.HandleFunc("GET /health", Health)
	mux.HandleFunc("GET /ready", Health)

	// Packaging test endpoints
	mux.HandleFunc("POST /api/v1/documents/open", pkg.Open)
	mux.HandleFunc("POST /api/v1/documents/roundtrip", pkg.RoundTrip)
	mux.HandleFunc("POST /api/v1/documents/validate", pkg.Validate)

	// Revision-editing endpoints (§6's public API table)
	mux.HandleFunc("POST /api/v1/revisions/open", rev.Open)
	mux.HandleFunc("POST /api/v1/revisions/close", rev.Close)
	mux.HandleFunc("POST /api/v1/revisions/reload", rev.Reload)
	mux.HandleFunc("POST /api/v1/revisions/force_save", rev.ForceSave)
	mux.HandleFunc("POST /api/v1/revisions/replace", rev.Replace)
	mux.HandleFunc("POST /api/v1/revisions/delete", rev.Delete)
	mux.HandleFunc("POST /api/v1/revisions/insert_before", rev.InsertBefore)
	mux.HandleFunc("POST /api/v1/revisions/insert_after", rev.InsertAfter)
	mux.HandleFunc("POST /api/v1/revisions/accept", rev.Accept)
	mux.HandleFunc("POST /api/v1/revisions/reject", rev.Reject)
	mux.HandleFunc("POST /api/v1/revisions/accept_all", rev.AcceptAll)
	mux.HandleFunc("POST /api/v1/revisions/reject_all", rev.RejectAll)
	mux.HandleFunc("POST /api/v1/revisions/list", rev.ListRevisions)
	mux.HandleFunc("POST /api/v1/revisions/find", rev.Find)
	mux.HandleFunc("POST /api/v1/revisions/count", rev.Count)
	mux.HandleFunc("POST /api/v1/revisions/visible_text", rev.VisibleText)

	// Apply middleware chain (innermost first; Logging ends up outermost)
	var h http.Handler = mux
	h = middleware.MaxBodySize(maxBodyBytes)(h)
	h = middleware.CORS(h)
	h = middleware.Recovery(logger)(h)
	h = middleware.Logging(logger)(h)

	return h
}
