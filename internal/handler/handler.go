// Package handler wires the HTTP surface: role gating, the incoming URL
// contract for shared tests, teacher operations and the student portal.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	appI18n "github.com/nhattran/eduai/internal/i18n"
	"github.com/nhattran/eduai/internal/model"
	"github.com/nhattran/eduai/internal/payload"
	"github.com/nhattran/eduai/internal/publish"
	"github.com/nhattran/eduai/internal/store"
)

// Generator is the external AI collaborator that composes tests and analyzes
// results. It is an interface so handlers can be exercised without a live
// endpoint.
type Generator interface {
	GenerateTest(ctx context.Context, p model.GenerateParams) (*model.TestData, error)
	AnalyzeResults(ctx context.Context, results []model.StudentResult) (string, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    store.Store
	gen      Generator
	passHash []byte // bcrypt hash of the shared teacher passphrase
	config   model.AppConfig
}

// New creates a new Handler.
func New(s store.Store, gen Generator, passHash []byte, cfg model.AppConfig) *Handler {
	return &Handler{store: s, gen: gen, passHash: passHash, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Get("/api/curriculum", h.handleCurriculum)

	r.Post("/api/teacher/login", h.handleTeacherLogin)
	r.Post("/api/teacher/logout", h.handleTeacherLogout)

	r.Group(func(tr chi.Router) {
		tr.Use(h.requireTeacher)
		tr.Get("/api/test", h.handleTestView)
		tr.Post("/api/test/generate", h.handleGenerate)
		tr.Post("/api/test/publish", h.handleTogglePublish)
		tr.Delete("/api/test", h.handleDeleteTest)
		tr.Get("/api/test/share", h.handleShare)
		tr.Get("/api/results", h.handleResults)
		tr.Get("/api/results/stats", h.handleStats)
		tr.Get("/api/results/analysis", h.handleAnalysis)
		tr.Get("/api/results/export", h.handleExport)
	})

	r.Get("/student", h.handleStudentTest)
	r.Get("/api/student/test", h.handleStudentTest)
	r.Post("/api/student/import", h.handleImport)
	r.Post("/api/student/sample", h.handleSample)
	r.Post("/api/student/submit", h.handleSubmit)
}

// handleIndex implements the load-time URL contract: a testData parameter
// installs the shared test and redirects to the student portal with the token
// stripped from the visible URL, preserving an optional role parameter; a
// bare role=student redirects without loading anything.
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := q.Get("testData")
	role := q.Get("role")

	if token != "" {
		test, err := payload.Decode(token)
		if err != nil {
			slog.Warn("rejected shared test token", "error", err)
			h.respondError(w, r, http.StatusBadRequest, "BadShareCode")
			return
		}
		// The codec forces publication, so the shared test installs as
		// immediately startable.
		if err := h.store.SetActiveTest(test); err != nil {
			h.respondInternal(w, r, "install shared test", err)
			return
		}
		http.Redirect(w, r, studentPath(role), http.StatusSeeOther)
		return
	}

	if role == string(model.RoleStudent) {
		http.Redirect(w, r, studentPath(role), http.StatusSeeOther)
		return
	}

	test, err := h.store.GetActiveTest()
	if err != nil {
		h.respondInternal(w, r, "read active test", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"title": appI18n.T(r.Context(), "AppTitle"),
		"state": publish.StateOf(test),
	})
}

func studentPath(role string) string {
	if role == "" {
		return "/student"
	}
	return "/student?" + url.Values{"role": {role}}.Encode()
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// respondError sends a localized, recoverable error message.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	respondJSON(w, status, map[string]string{"error": appI18n.T(r.Context(), msgID)})
}

// respondInternal logs the cause and sends a generic localized message; the
// failure stays local to this operation.
func (h *Handler) respondInternal(w http.ResponseWriter, r *http.Request, op string, err error) {
	slog.Error(op, "error", err)
	h.respondError(w, r, http.StatusInternalServerError, "InternalError")
}
