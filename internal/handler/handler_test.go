package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhattran/eduai/internal/curriculum"
	"github.com/nhattran/eduai/internal/handler"
	appI18n "github.com/nhattran/eduai/internal/i18n"
	"github.com/nhattran/eduai/internal/model"
	"github.com/nhattran/eduai/internal/payload"
	"github.com/nhattran/eduai/internal/store"
)

const testPassword = "gv2024"

// stubGen is a canned Generator so handlers run without a live AI endpoint.
type stubGen struct {
	test        *model.TestData
	genErr      error
	analysis    string
	analysisErr error
}

func (g *stubGen) GenerateTest(ctx context.Context, p model.GenerateParams) (*model.TestData, error) {
	if g.genErr != nil {
		return nil, g.genErr
	}
	return g.test, nil
}

func (g *stubGen) AnalyzeResults(ctx context.Context, results []model.StudentResult) (string, error) {
	if g.analysisErr != nil {
		return "", g.analysisErr
	}
	return g.analysis, nil
}

func draftTest() *model.TestData {
	return &model.TestData{
		Title:    "Unit 1 Quiz",
		Grade:    model.Grade6,
		Unit:     "Unit 1: My New School",
		Duration: 15,
		Questions: []model.Question{
			{
				ID:      "q1",
				Content: "She ___ to school every day.",
				Options: []string{"go", "goes", "going", "gone"},
				Answer:  "B",
			},
			{
				ID:      "q2",
				Content: "Rewrite: I / school / to / go",
				Answer:  "I go to school.",
			},
		},
	}
}

func newTestServer(t *testing.T, gen *stubGen) (*httptest.Server, *store.Memory) {
	t.Helper()
	if err := appI18n.Init("en"); err != nil {
		t.Fatalf("i18n init: %v", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	st := store.NewMemory()
	h := handler.New(st, gen, hash, model.AppConfig{
		BaseURL: "http://exam.local",
		Lang:    "en",
	})

	r := chi.NewRouter()
	r.Use(appI18n.Middleware("en"))
	h.Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	srv.Client().CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return srv, st
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body any, cookie *http.Cookie) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func getWithCookie(t *testing.T, srv *httptest.Server, path string, cookie *http.Cookie) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var v map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func login(t *testing.T, srv *httptest.Server) *http.Cookie {
	t.Helper()
	resp := postJSON(t, srv, "/api/teacher/login", map[string]string{"password": testPassword}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	for _, c := range resp.Cookies() {
		if c.Name == "teacher_session" {
			return c
		}
	}
	t.Fatal("login set no teacher_session cookie")
	return nil
}

func TestTeacherLoginWrongPassword(t *testing.T) {
	srv, _ := newTestServer(t, &stubGen{})

	resp := postJSON(t, srv, "/api/teacher/login", map[string]string{"password": "nope"}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["error"] != "Incorrect password!" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestTeacherRoutesRequireSession(t *testing.T) {
	srv, _ := newTestServer(t, &stubGen{})

	resp := getWithCookie(t, srv, "/api/test", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("without cookie: status = %d, want 401", resp.StatusCode)
	}

	cookie := login(t, srv)
	resp = getWithCookie(t, srv, "/api/test", cookie)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("with cookie: status = %d, want 200", resp.StatusCode)
	}

	resp = postJSON(t, srv, "/api/teacher/logout", nil, cookie)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: status = %d", resp.StatusCode)
	}

	resp = getWithCookie(t, srv, "/api/test", cookie)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("after logout: status = %d, want 401", resp.StatusCode)
	}
}

func TestGeneratePublishSubmitFlow(t *testing.T) {
	gen := &stubGen{test: draftTest()}
	srv, _ := newTestServer(t, gen)
	cookie := login(t, srv)

	params := map[string]any{
		"grade":    "6",
		"unit":     "Unit 1: My New School",
		"testType": "15 Phút",
	}
	resp := postJSON(t, srv, "/api/test/generate", params, cookie)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("generate status = %d, want 201", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["state"] != "draft" {
		t.Fatalf("state after generate = %v, want draft", body["state"])
	}

	// Drafts reject submissions.
	submission := map[string]any{
		"studentName":  "An",
		"studentClass": "6A",
		"answers":      map[string]string{"q1": "B", "q2": "I go to school."},
	}
	resp = postJSON(t, srv, "/api/student/submit", submission, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("submit on draft: status = %d, want 409", resp.StatusCode)
	}

	resp = postJSON(t, srv, "/api/test/publish", nil, cookie)
	body = decodeBody(t, resp)
	if body["state"] != "published" {
		t.Fatalf("state after publish = %v, want published", body["state"])
	}

	// The student view never carries the answer key.
	resp = getWithCookie(t, srv, "/api/student/test", nil)
	raw := new(bytes.Buffer)
	if _, err := raw.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()
	if strings.Contains(raw.String(), `"answer"`) {
		t.Error("student test view leaks answers")
	}

	resp = postJSON(t, srv, "/api/student/submit", submission, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit status = %d, want 201", resp.StatusCode)
	}
	body = decodeBody(t, resp)
	result := body["result"].(map[string]any)
	if result["score"] != 10.0 {
		t.Errorf("score = %v, want 10", result["score"])
	}
	review := body["review"].([]any)
	if len(review) != 2 {
		t.Fatalf("review has %d entries, want 2", len(review))
	}
	for _, entry := range review {
		if entry.(map[string]any)["correct"] != true {
			t.Errorf("review entry not correct: %v", entry)
		}
	}
}

func TestSubmitPartialScore(t *testing.T) {
	srv, st := newTestServer(t, &stubGen{})
	test := draftTest()
	test.IsPublished = true
	if err := st.SetActiveTest(test); err != nil {
		t.Fatal(err)
	}

	// Wrong option letter case counts as wrong; free-text normalizes.
	submission := map[string]any{
		"studentName":  "Bình",
		"studentClass": "6B",
		"answers":      map[string]string{"q1": "b", "q2": "  i GO to school  "},
	}
	resp := postJSON(t, srv, "/api/student/submit", submission, nil)
	body := decodeBody(t, resp)
	result := body["result"].(map[string]any)
	if result["score"] != 5.0 {
		t.Errorf("score = %v, want 5", result["score"])
	}

	results, err := st.GetResults()
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].StudentName != "Bình" {
		t.Errorf("stored results = %+v", results)
	}
}

func TestSubmitMissingIdentity(t *testing.T) {
	srv, st := newTestServer(t, &stubGen{})
	test := draftTest()
	test.IsPublished = true
	if err := st.SetActiveTest(test); err != nil {
		t.Fatal(err)
	}

	resp := postJSON(t, srv, "/api/student/submit", map[string]any{
		"studentName":  "   ",
		"studentClass": "6A",
		"answers":      map[string]string{},
	}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}

	results, err := st.GetResults()
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("rejected submission was recorded: %+v", results)
	}
}

func TestGenerateFailureLeavesStateUntouched(t *testing.T) {
	gen := &stubGen{genErr: errors.New("model unavailable")}
	srv, st := newTestServer(t, gen)
	if err := st.SetActiveTest(draftTest()); err != nil {
		t.Fatal(err)
	}
	cookie := login(t, srv)

	resp := postJSON(t, srv, "/api/test/generate", map[string]any{
		"grade":    "6",
		"unit":     "Unit 1: My New School",
		"testType": "15 Phút",
	}, cookie)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}

	test, err := st.GetActiveTest()
	if err != nil {
		t.Fatal(err)
	}
	if test == nil || test.Title != "Unit 1 Quiz" {
		t.Errorf("active test changed after failed generation: %+v", test)
	}
}

func TestImportShareCode(t *testing.T) {
	srv, st := newTestServer(t, &stubGen{})

	code, err := payload.Encode(*draftTest())
	if err != nil {
		t.Fatal(err)
	}
	resp := postJSON(t, srv, "/api/student/import", map[string]string{"code": code}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["state"] != "published" {
		t.Errorf("imported state = %v, want published (sharing implies publication)", body["state"])
	}

	test, err := st.GetActiveTest()
	if err != nil {
		t.Fatal(err)
	}
	if test == nil || !test.IsPublished {
		t.Errorf("imported test = %+v", test)
	}
}

func TestImportRejectsBadCode(t *testing.T) {
	srv, st := newTestServer(t, &stubGen{})

	resp := postJSON(t, srv, "/api/student/import", map[string]string{"code": "!!not-base64!!"}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	test, err := st.GetActiveTest()
	if err != nil {
		t.Fatal(err)
	}
	if test != nil {
		t.Errorf("bad code installed a test: %+v", test)
	}
}

func TestIndexInstallsSharedTest(t *testing.T) {
	srv, st := newTestServer(t, &stubGen{})

	token, err := payload.Encode(*draftTest())
	if err != nil {
		t.Fatal(err)
	}
	resp := getWithCookie(t, srv, "/?testData="+token+"&role=student", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}
	loc := resp.Header.Get("Location")
	if loc != "/student?role=student" {
		t.Errorf("Location = %q", loc)
	}
	if strings.Contains(loc, "testData") {
		t.Error("redirect keeps the share token in the URL")
	}

	test, err := st.GetActiveTest()
	if err != nil {
		t.Fatal(err)
	}
	if test == nil || !test.IsPublished {
		t.Errorf("shared test not installed as published: %+v", test)
	}
}

func TestIndexRejectsBadToken(t *testing.T) {
	srv, st := newTestServer(t, &stubGen{})

	resp := getWithCookie(t, srv, "/?testData=garbage", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	test, err := st.GetActiveTest()
	if err != nil {
		t.Fatal(err)
	}
	if test != nil {
		t.Errorf("bad token installed a test: %+v", test)
	}
}

func TestSampleTestFlow(t *testing.T) {
	srv, _ := newTestServer(t, &stubGen{})

	resp := postJSON(t, srv, "/api/student/sample", nil, nil)
	body := decodeBody(t, resp)
	if body["state"] != "published" {
		t.Fatalf("sample state = %v, want published", body["state"])
	}

	sample := curriculum.SampleTest()
	answers := make(map[string]string)
	for _, q := range sample.Questions {
		answers[q.ID] = q.Answer
	}
	resp = postJSON(t, srv, "/api/student/submit", map[string]any{
		"studentName":  "Chi",
		"studentClass": "6C",
		"answers":      answers,
	}, nil)
	body = decodeBody(t, resp)
	result := body["result"].(map[string]any)
	if result["score"] != 10.0 {
		t.Errorf("sample score = %v, want 10", result["score"])
	}
}

func TestStats(t *testing.T) {
	srv, st := newTestServer(t, &stubGen{})
	cookie := login(t, srv)

	for _, score := range []float64{1.5, 3.0, 5.0, 6.7, 9.0} {
		if err := st.AppendResult(model.StudentResult{ID: "r", Score: score, MaxScore: 10}); err != nil {
			t.Fatal(err)
		}
	}

	resp := getWithCookie(t, srv, "/api/results/stats", cookie)
	body := decodeBody(t, resp)
	bands := body["bands"].([]any)
	wantCounts := []float64{1, 2, 1, 1} // 5.0 falls in the 2-5 band
	for i, b := range bands {
		if got := b.(map[string]any)["count"]; got != wantCounts[i] {
			t.Errorf("band %d count = %v, want %v", i, got, wantCounts[i])
		}
	}
	if body["passRate"] != 60.0 {
		t.Errorf("passRate = %v, want 60", body["passRate"])
	}
}

func TestAnalysisFallback(t *testing.T) {
	gen := &stubGen{analysisErr: errors.New("timeout")}
	srv, st := newTestServer(t, gen)
	cookie := login(t, srv)
	if err := st.AppendResult(model.StudentResult{ID: "r1", StudentName: "An", Score: 7}); err != nil {
		t.Fatal(err)
	}

	resp := getWithCookie(t, srv, "/api/results/analysis", cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["analysis"] != "The AI analysis service could not be reached. Please try again later." {
		t.Errorf("analysis = %q, want the fallback message", body["analysis"])
	}
}

func TestDeleteTest(t *testing.T) {
	srv, st := newTestServer(t, &stubGen{})
	if err := st.SetActiveTest(draftTest()); err != nil {
		t.Fatal(err)
	}
	cookie := login(t, srv)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/test", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.AddCookie(cookie)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	body := decodeBody(t, resp)
	if body["state"] != "absent" {
		t.Errorf("state = %v, want absent", body["state"])
	}

	test, err := st.GetActiveTest()
	if err != nil {
		t.Fatal(err)
	}
	if test != nil {
		t.Errorf("test survives deletion: %+v", test)
	}
}

func TestShareLink(t *testing.T) {
	srv, st := newTestServer(t, &stubGen{})
	if err := st.SetActiveTest(draftTest()); err != nil {
		t.Fatal(err)
	}
	cookie := login(t, srv)

	resp := getWithCookie(t, srv, "/api/test/share", cookie)
	body := decodeBody(t, resp)
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("empty share token")
	}

	decoded, err := payload.Decode(token)
	if err != nil {
		t.Fatalf("decode share token: %v", err)
	}
	if !decoded.IsPublished {
		t.Error("share token does not force publication")
	}

	link, _ := body["url"].(string)
	if !strings.HasPrefix(link, "http://exam.local/?") {
		t.Errorf("url = %q", link)
	}
	if !strings.Contains(link, "role=student") {
		t.Errorf("url misses role=student: %q", link)
	}
}
