package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/soaringjerry/Nuvio/internal/middleware"
	"github.com/soaringjerry/Nuvio/internal/models"
	"github.com/soaringjerry/Nuvio/internal/services"
)

type echoReplier struct{}

func (echoReplier) Reply(_ context.Context, text string, _ *models.SentimentResult, _ []models.ChatMessage) (string, error) {
	return "heard: " + text, nil
}

type failingReplier struct{}

func (failingReplier) Reply(context.Context, string, *models.SentimentResult, []models.ChatMessage) (string, error) {
	return "", errors.New("model offline")
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestServerWith(t, echoReplier{})
}

func newTestServerWith(t *testing.T, replier services.Replier) *httptest.Server {
	t.Helper()
	auth := middleware.NewAuth("router-test-secret")
	svc := NewServices(NewMemoryStore(), auth.SignToken, time.Hour, replier, 7, time.UTC)
	log := logrus.New()
	log.SetOutput(io.Discard)
	mux := http.NewServeMux()
	NewRouter(svc, log).Register(mux)
	srv := httptest.NewServer(auth.WithAuth(mux))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, srv.URL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func decode(t *testing.T, res *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func register(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	res := do(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "user@example.com", "password": "Secret123"})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("register status %d", res.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	decode(t, res, &out)
	if out.Token == "" {
		t.Fatalf("missing token")
	}
	return out.Token
}

func TestRouterRequiresAuth(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/api/moods", "/api/chat", "/api/report", "/api/insights/weekly", "/api/export/moods.csv", "/api/assessments"} {
		if res := do(t, srv, http.MethodGet, path, "", nil); res.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, res.StatusCode)
		}
	}
	if res := do(t, srv, http.MethodGet, "/api/assessments/questions/phq9", "", nil); res.StatusCode != http.StatusOK {
		t.Fatalf("questions should be public, got %d", res.StatusCode)
	}
}

func TestRouterAuthConflictAndLogin(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv)
	res := do(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "user@example.com", "password": "Secret123"})
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate, got %d", res.StatusCode)
	}
	res = do(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "user@example.com", "password": "wrong-one"})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 on bad password, got %d", res.StatusCode)
	}
}

func TestRouterMoodFlow(t *testing.T) {
	srv := newTestServer(t)
	token := register(t, srv)

	res := do(t, srv, http.MethodPost, "/api/moods", token, map[string]any{"mood_score": 7})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range mood, got %d", res.StatusCode)
	}
	res = do(t, srv, http.MethodPost, "/api/moods", token, map[string]any{"mood_score": 4, "note": "ok"})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", res.StatusCode)
	}
	var entry models.MoodEntry
	decode(t, res, &entry)

	var list struct {
		Moods []models.MoodEntry `json:"moods"`
	}
	decode(t, do(t, srv, http.MethodGet, "/api/moods", token, nil), &list)
	if len(list.Moods) != 1 || list.Moods[0].ID != entry.ID {
		t.Fatalf("unexpected mood list %+v", list.Moods)
	}

	var weekly services.WeeklyView
	decode(t, do(t, srv, http.MethodGet, "/api/insights/weekly?days=7", token, nil), &weekly)
	if weekly.Insights.RecordedDays != 1 || len(weekly.Recommendations) == 0 {
		t.Fatalf("unexpected weekly view %+v", weekly)
	}
	if res := do(t, srv, http.MethodGet, "/api/insights/weekly?days=abc", token, nil); res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad days, got %d", res.StatusCode)
	}

	res = do(t, srv, http.MethodGet, "/api/export/moods.csv", token, nil)
	body, _ := io.ReadAll(res.Body)
	if res.StatusCode != http.StatusOK || !strings.HasPrefix(string(body), "id,timestamp,mood_score,note") {
		t.Fatalf("unexpected export %d %q", res.StatusCode, body)
	}

	if res := do(t, srv, http.MethodDelete, "/api/moods/"+entry.ID, token, nil); res.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", res.StatusCode)
	}
	if res := do(t, srv, http.MethodDelete, "/api/moods/"+entry.ID, token, nil); res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", res.StatusCode)
	}
}

func TestRouterAssessmentFlow(t *testing.T) {
	srv := newTestServer(t)
	token := register(t, srv)

	var q struct {
		Questions []models.Question `json:"questions"`
	}
	decode(t, do(t, srv, http.MethodGet, "/api/assessments/questions/WHO-5", "", nil), &q)
	if len(q.Questions) != 5 {
		t.Fatalf("expected 5 WHO-5 questions, got %d", len(q.Questions))
	}
	answers := map[string]int{}
	for _, question := range q.Questions {
		answers[question.ID] = 3
	}

	partial := map[string]int{q.Questions[0].ID: 1}
	if res := do(t, srv, http.MethodPost, "/api/assessments/who5", token, map[string]any{"answers": partial}); res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for partial answers, got %d", res.StatusCode)
	}

	res := do(t, srv, http.MethodPost, "/api/assessments/who5", token, map[string]any{"answers": answers})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", res.StatusCode)
	}
	var out struct {
		Session models.AssessmentSession `json:"session"`
		Percent int                      `json:"percent"`
	}
	decode(t, res, &out)
	if out.Session.Result == nil || out.Session.Result.Score != 15 || out.Percent != 75 {
		t.Fatalf("unexpected submission result %+v", out)
	}

	if res := do(t, srv, http.MethodGet, "/api/assessments/questions/gad7", "", nil); res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown type, got %d", res.StatusCode)
	}
}

func TestRouterChatAndReport(t *testing.T) {
	srv := newTestServer(t)
	token := register(t, srv)

	if res := do(t, srv, http.MethodPost, "/api/chat", token, map[string]string{"text": "  "}); res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank chat, got %d", res.StatusCode)
	}
	res := do(t, srv, http.MethodPost, "/api/chat", token, map[string]string{"text": "I feel down"})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", res.StatusCode)
	}
	var sent services.SendResult
	decode(t, res, &sent)
	if sent.AssistantMessage.Content != "heard: I feel down" {
		t.Fatalf("unexpected reply %+v", sent.AssistantMessage)
	}

	var report struct {
		Text    string          `json:"text"`
		Payload json.RawMessage `json:"payload"`
	}
	decode(t, do(t, srv, http.MethodGet, "/api/report", token, nil), &report)
	if !strings.Contains(report.Text, "Total messages: 2") {
		t.Fatalf("unexpected report text:\n%s", report.Text)
	}
	if _, err := services.DecodePayload(report.Payload); err != nil {
		t.Fatalf("payload not decodable: %v", err)
	}

	if res := do(t, srv, http.MethodDelete, "/api/chat", token, nil); res.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 on reset, got %d", res.StatusCode)
	}
	var thread struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	decode(t, do(t, srv, http.MethodGet, "/api/chat", token, nil), &thread)
	if len(thread.Messages) != 0 {
		t.Fatalf("expected empty thread after reset")
	}
}

func TestRouterChatReplyFailureIsUnavailable(t *testing.T) {
	srv := newTestServerWith(t, failingReplier{})
	token := register(t, srv)

	res := do(t, srv, http.MethodPost, "/api/chat", token, map[string]string{"text": "hello"})
	if res.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when the reply fails, got %d", res.StatusCode)
	}
	var body struct {
		Error string `json:"error"`
	}
	decode(t, res, &body)
	if body.Error != services.ErrSendFailed.Error() {
		t.Fatalf("unexpected error message %q", body.Error)
	}
}
