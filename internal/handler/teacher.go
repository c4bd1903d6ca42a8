package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nhattran/eduai/internal/curriculum"
	appI18n "github.com/nhattran/eduai/internal/i18n"
	"github.com/nhattran/eduai/internal/model"
	"github.com/nhattran/eduai/internal/payload"
	"github.com/nhattran/eduai/internal/publish"
)

const teacherCookieName = "teacher_session"

// requireTeacher guards teacher routes behind the passphrase gate's session
// token. This is a soft gate for a shared classroom tool, not a security
// boundary.
func (h *Handler) requireTeacher(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(teacherCookieName)
		if err != nil || cookie.Value == "" {
			h.respondError(w, r, http.StatusUnauthorized, "TeacherRequired")
			return
		}
		ok, err := h.store.ValidTeacherSession(cookie.Value)
		if err != nil {
			h.respondInternal(w, r, "check teacher session", err)
			return
		}
		if !ok {
			h.respondError(w, r, http.StatusUnauthorized, "TeacherRequired")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) handleTeacherLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "WrongPassword")
		return
	}
	if err := bcrypt.CompareHashAndPassword(h.passHash, []byte(req.Password)); err != nil {
		h.respondError(w, r, http.StatusUnauthorized, "WrongPassword")
		return
	}

	token, err := h.store.CreateTeacherSession()
	if err != nil {
		h.respondInternal(w, r, "create teacher session", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     teacherCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.config.SecureCookies,
	})
	respondJSON(w, http.StatusOK, map[string]string{"role": string(model.RoleTeacher)})
}

func (h *Handler) handleTeacherLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(teacherCookieName); err == nil && cookie.Value != "" {
		_ = h.store.DeleteTeacherSession(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     teacherCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
	})
	respondJSON(w, http.StatusOK, map[string]string{"role": string(model.RoleNone)})
}

func (h *Handler) handleCurriculum(w http.ResponseWriter, r *http.Request) {
	units := make(map[model.Grade][]string)
	for _, g := range curriculum.Grades() {
		units[g] = curriculum.Units(g)
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"grades":           curriculum.Grades(),
		"units":            units,
		"difficultyLevels": curriculum.DifficultyLevels,
		"defaultRatio":     curriculum.DefaultRatio(),
	})
}

// handleTestView returns the teacher's full view of the active test.
func (h *Handler) handleTestView(w http.ResponseWriter, r *http.Request) {
	test, err := h.store.GetActiveTest()
	if err != nil {
		h.respondInternal(w, r, "read active test", err)
		return
	}
	results, err := h.store.GetResults()
	if err != nil {
		h.respondInternal(w, r, "read results", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"test":         test,
		"state":        publish.StateOf(test),
		"resultsCount": len(results),
	})
}

// handleGenerate invokes the generation collaborator and installs the result
// as a draft. A collaborator failure leaves prior state untouched.
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var params model.GenerateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "GenerationFailed")
		return
	}
	if err := model.ValidateParams(params); err != nil {
		slog.Warn("invalid generation request", "error", err)
		h.respondError(w, r, http.StatusUnprocessableEntity, "GenerationFailed")
		return
	}

	test, err := h.gen.GenerateTest(r.Context(), params)
	if err != nil {
		slog.Error("test generation failed", "grade", params.Grade, "unit", params.Unit, "error", err)
		h.respondError(w, r, http.StatusBadGateway, "GenerationFailed")
		return
	}

	if err := h.store.SetActiveTest(test); err != nil {
		h.respondInternal(w, r, "install generated test", err)
		return
	}
	slog.Info("generated test installed",
		"title", test.Title,
		"grade", test.Grade,
		"questions", len(test.Questions),
	)
	respondJSON(w, http.StatusCreated, map[string]any{
		"test":  test,
		"state": publish.StateOf(test),
	})
}

func (h *Handler) handleTogglePublish(w http.ResponseWriter, r *http.Request) {
	test, err := h.store.GetActiveTest()
	if err != nil {
		h.respondInternal(w, r, "read active test", err)
		return
	}
	if test == nil {
		h.respondError(w, r, http.StatusNotFound, "NoActiveTest")
		return
	}

	publish.Toggle(test)
	if err := h.store.SetActiveTest(test); err != nil {
		h.respondInternal(w, r, "toggle publish", err)
		return
	}
	slog.Info("publication toggled", "title", test.Title, "published", test.IsPublished)
	respondJSON(w, http.StatusOK, map[string]any{
		"test":  test,
		"state": publish.StateOf(test),
	})
}

func (h *Handler) handleDeleteTest(w http.ResponseWriter, r *http.Request) {
	if err := h.store.SetActiveTest(nil); err != nil {
		h.respondInternal(w, r, "delete active test", err)
		return
	}
	slog.Info("active test deleted")
	respondJSON(w, http.StatusOK, map[string]any{"state": publish.StateAbsent})
}

// handleShare encodes the active test into a share token and a ready link.
func (h *Handler) handleShare(w http.ResponseWriter, r *http.Request) {
	test, err := h.store.GetActiveTest()
	if err != nil {
		h.respondInternal(w, r, "read active test", err)
		return
	}
	if test == nil {
		h.respondError(w, r, http.StatusNotFound, "NoActiveTest")
		return
	}

	token, err := payload.Encode(*test)
	if err != nil {
		h.respondInternal(w, r, "encode share token", err)
		return
	}
	link := h.config.BaseURL + "/?" + url.Values{
		"testData": {token},
		"role":     {string(model.RoleStudent)},
	}.Encode()
	respondJSON(w, http.StatusOK, map[string]string{
		"token": token,
		"url":   link,
	})
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.store.GetResults()
	if err != nil {
		h.respondInternal(w, r, "read results", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"count":   len(results),
		"results": results,
	})
}

// handleStats returns the score-band histogram and pass rate the analytics
// dashboard charts.
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	results, err := h.store.GetResults()
	if err != nil {
		h.respondInternal(w, r, "read results", err)
		return
	}

	type band struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	bands := []band{{Name: "0-2"}, {Name: "2-5"}, {Name: "5-8"}, {Name: "8-10"}}
	passed := 0
	for _, res := range results {
		switch {
		case res.Score <= 2:
			bands[0].Count++
		case res.Score <= 5:
			bands[1].Count++
		case res.Score <= 8:
			bands[2].Count++
		default:
			bands[3].Count++
		}
		if res.Score >= 5 {
			passed++
		}
	}
	passRate := 0.0
	if len(results) > 0 {
		passRate = float64(passed) / float64(len(results)) * 100
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(results),
		"bands":    bands,
		"passRate": passRate,
	})
}

// handleAnalysis asks the collaborator for a class assessment. On failure the
// static fallback message is substituted; the request never fails outright.
func (h *Handler) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	results, err := h.store.GetResults()
	if err != nil {
		h.respondInternal(w, r, "read results", err)
		return
	}
	if len(results) == 0 {
		respondJSON(w, http.StatusOK, map[string]any{"count": 0, "analysis": ""})
		return
	}

	analysis, err := h.gen.AnalyzeResults(r.Context(), results)
	if err != nil {
		slog.Error("results analysis failed", "count", len(results), "error", err)
		analysis = appI18n.T(r.Context(), "AnalysisFallback")
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(results),
		"analysis": analysis,
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	test, err := h.store.GetActiveTest()
	if err != nil {
		h.respondInternal(w, r, "read active test", err)
		return
	}
	results, err := h.store.GetResults()
	if err != nil {
		h.respondInternal(w, r, "read results", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"test":       test,
		"count":      len(results),
		"results":    results,
		"exportedAt": time.Now().UTC(),
	})
}
