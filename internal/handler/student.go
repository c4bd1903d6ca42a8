package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nhattran/eduai/internal/curriculum"
	appI18n "github.com/nhattran/eduai/internal/i18n"
	"github.com/nhattran/eduai/internal/model"
	"github.com/nhattran/eduai/internal/payload"
	"github.com/nhattran/eduai/internal/publish"
	"github.com/nhattran/eduai/internal/scoring"
)

// studentQuestion is a question with the answer key stripped. Students only
// ever see this shape before submitting.
type studentQuestion struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Instruction string   `json:"instruction"`
	Content     string   `json:"content"`
	Options     []string `json:"options,omitempty"`
}

// handleStudentTest returns the active test stripped of answers and
// explanations, or a waiting message when nothing is startable yet.
func (h *Handler) handleStudentTest(w http.ResponseWriter, r *http.Request) {
	test, err := h.store.GetActiveTest()
	if err != nil {
		h.respondInternal(w, r, "read active test", err)
		return
	}

	state := publish.StateOf(test)
	if state != publish.StatePublished {
		msgID := "TestWaiting"
		if state == publish.StateDraft {
			msgID = "TestNotOpen"
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"state":   state,
			"message": appI18n.T(r.Context(), msgID),
		})
		return
	}

	questions := make([]studentQuestion, len(test.Questions))
	for i, q := range test.Questions {
		questions[i] = studentQuestion{
			ID:          q.ID,
			Type:        q.Type,
			Instruction: q.Instruction,
			Content:     q.Content,
			Options:     q.Options,
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"state": state,
		"test": map[string]any{
			"title":     test.Title,
			"grade":     test.Grade,
			"unit":      test.Unit,
			"duration":  test.Duration,
			"questions": questions,
		},
	})
}

// handleImport installs a test from a pasted share code, the manual
// alternative to opening a share link.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "BadShareCode")
		return
	}

	test, err := payload.Decode(req.Code)
	if err != nil {
		slog.Warn("rejected pasted share code", "error", err)
		h.respondError(w, r, http.StatusBadRequest, "BadShareCode")
		return
	}
	if err := h.store.SetActiveTest(test); err != nil {
		h.respondInternal(w, r, "install imported test", err)
		return
	}
	slog.Info("imported shared test", "title", test.Title, "grade", test.Grade)
	respondJSON(w, http.StatusOK, map[string]any{
		"test":  test,
		"state": publish.StateOf(test),
	})
}

// handleSample installs the built-in demo test so the flow can be tried
// without a teacher or an AI endpoint.
func (h *Handler) handleSample(w http.ResponseWriter, r *http.Request) {
	test := curriculum.SampleTest()
	if err := h.store.SetActiveTest(test); err != nil {
		h.respondInternal(w, r, "install sample test", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"test":  test,
		"state": publish.StateOf(test),
	})
}

// questionReview is the per-question feedback returned after submission.
type questionReview struct {
	QuestionID  string `json:"questionId"`
	Correct     bool   `json:"correct"`
	Answer      string `json:"answer"`
	Submitted   string `json:"submitted"`
	Explanation string `json:"explanation,omitempty"`
}

// handleSubmit grades a completed attempt and appends the result. The
// publication gate is checked before the identity fields, so a closed test is
// reported first.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentName  string            `json:"studentName"`
		StudentClass string            `json:"studentClass"`
		Answers      map[string]string `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "InternalError")
		return
	}

	test, err := h.store.GetActiveTest()
	if err != nil {
		h.respondInternal(w, r, "read active test", err)
		return
	}
	if err := publish.CanStart(test, req.StudentName, req.StudentClass); err != nil {
		switch {
		case errors.Is(err, publish.ErrNoTest):
			h.respondError(w, r, http.StatusConflict, "TestWaiting")
		case errors.Is(err, publish.ErrNotPublished):
			h.respondError(w, r, http.StatusConflict, "TestNotOpen")
		case errors.Is(err, publish.ErrMissingIdentity):
			h.respondError(w, r, http.StatusUnprocessableEntity, "MissingIdentity")
		default:
			h.respondInternal(w, r, "start check", err)
		}
		return
	}

	score := scoring.Score(test, req.Answers)
	result := model.StudentResult{
		ID:           uuid.NewString(),
		StudentName:  req.StudentName,
		StudentClass: req.StudentClass,
		Score:        score,
		MaxScore:     10,
		SubmittedAt:  time.Now().UTC(),
		Answers:      req.Answers,
	}
	if err := h.store.AppendResult(result); err != nil {
		h.respondInternal(w, r, "append result", err)
		return
	}
	slog.Info("attempt submitted",
		"student", result.StudentName,
		"class", result.StudentClass,
		"score", result.Score,
	)

	review := make([]questionReview, len(test.Questions))
	for i, q := range test.Questions {
		review[i] = questionReview{
			QuestionID:  q.ID,
			Correct:     scoring.IsCorrect(q, req.Answers[q.ID]),
			Answer:      q.Answer,
			Submitted:   req.Answers[q.ID],
			Explanation: q.Explanation,
		}
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"result":  result,
		"review":  review,
		"message": appI18n.Td(r.Context(), "SubmittedBy", map[string]any{"Name": result.StudentName}),
	})
}
