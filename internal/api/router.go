package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/soaringjerry/Nuvio/internal/middleware"
	"github.com/soaringjerry/Nuvio/internal/models"
	"github.com/soaringjerry/Nuvio/internal/services"
)

const maxBodyBytes = 1 << 20

// Services bundles everything the router dispatches to.
type Services struct {
	Auth        *services.AuthService
	Moods       *services.MoodService
	Assessments *services.AssessmentService
	Chat        *services.ChatService
	Insights    *services.InsightsService
	Reports     *services.ReportService
	Exports     *services.ExportService
}

type Router struct {
	svc Services
	log logrus.FieldLogger
}

func NewRouter(svc Services, log logrus.FieldLogger) *Router {
	return &Router{svc: svc, log: log}
}

// NewServices wires every service over one store.
func NewServices(store Store, signer services.TokenSigner, tokenTTL time.Duration, replier services.Replier, windowDays int, loc *time.Location) Services {
	return Services{
		Auth:        services.NewAuthService(store, signer, tokenTTL),
		Moods:       services.NewMoodService(store),
		Assessments: services.NewAssessmentService(store),
		Chat:        services.NewChatService(store, replier, services.KeywordClassifier{}),
		Insights:    services.NewInsightsService(store, windowDays, loc),
		Reports:     services.NewReportService(store),
		Exports:     services.NewExportService(store),
	}
}

// Register mounts the API. Claims must already be attached by middleware.Auth.WithAuth.
func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", rt.handleRegister)
	mux.HandleFunc("/api/auth/login", rt.handleLogin)
	mux.HandleFunc("/api/assessments/", rt.handleAssessmentScoped)

	protected := map[string]http.HandlerFunc{
		"/api/assessments":     rt.handleAssessments,
		"/api/moods":           rt.handleMoods,
		"/api/moods/":          rt.handleMoodScoped,
		"/api/insights/weekly": rt.handleWeekly,
		"/api/recommendations": rt.handleRecommendations,
		"/api/chat":            rt.handleChat,
		"/api/report":          rt.handleReport,
		"/api/export/":         rt.handleExport,
	}
	for pattern, h := range protected {
		mux.Handle(pattern, middleware.RequireAuth(h))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps service error codes onto HTTP statuses. Anything untyped is a 500
// and its detail stays in the log.
func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if se, ok := services.AsServiceError(err); ok {
		status := http.StatusInternalServerError
		switch se.Code {
		case services.ErrorInvalid:
			status = http.StatusBadRequest
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		case services.ErrorConflict:
			status = http.StatusConflict
		case services.ErrorUnavailable:
			status = http.StatusServiceUnavailable
		}
		writeErrorMessage(w, status, se.Error())
		return
	}
	rt.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	writeErrorMessage(w, http.StatusInternalServerError, "internal error")
}

func methodNotAllowed(w http.ResponseWriter) {
	writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func userID(r *http.Request) string {
	uid, _ := middleware.UserIDFromContext(r.Context())
	return uid
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/register
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req credentials
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := rt.svc.Auth.Register(r.Context(), req.Email, req.Password)
	if errors.Is(err, ErrEmailTaken) {
		err = services.NewConflictError("email exists")
	}
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// POST /api/auth/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req credentials
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := rt.svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /api/assessments/questions/{type} is public.
// POST /api/assessments/{type} and GET /api/assessments/{type}/consistency require auth.
func (rt *Router) handleAssessmentScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/assessments/"), "/")
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 2 && parts[0] == "questions":
		rt.handleQuestions(w, r, parts[1])
	case len(parts) == 1 && parts[0] != "":
		middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rt.handleSubmitAssessment(w, r, parts[0])
		})).ServeHTTP(w, r)
	case len(parts) == 2 && parts[1] == "consistency":
		middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rt.handleConsistency(w, r, parts[0])
		})).ServeHTTP(w, r)
	default:
		writeErrorMessage(w, http.StatusNotFound, "not found")
	}
}

func parseType(w http.ResponseWriter, raw string) (models.AssessmentType, bool) {
	t, err := models.ParseAssessmentType(raw)
	if err != nil {
		writeErrorMessage(w, http.StatusNotFound, "unknown assessment type")
		return "", false
	}
	return t, true
}

func (rt *Router) handleQuestions(w http.ResponseWriter, r *http.Request, raw string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	t, ok := parseType(w, raw)
	if !ok {
		return
	}
	qs, err := services.Questions(t)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"type": t, "name": t.DisplayName(), "questions": qs})
}

func (rt *Router) handleSubmitAssessment(w http.ResponseWriter, r *http.Request, raw string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	t, ok := parseType(w, raw)
	if !ok {
		return
	}
	var req struct {
		Answers   map[string]int `json:"answers"`
		StartedAt *time.Time     `json:"started_at"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	in := services.SubmitAssessmentRequest{Type: t, Answers: req.Answers}
	if req.StartedAt != nil {
		in.StartedAt = *req.StartedAt
	}
	sess, err := rt.svc.Assessments.Submit(r.Context(), userID(r), in)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	out := map[string]any{"session": sess}
	if t == models.WHO5 && sess.Result != nil {
		out["percent"] = services.WHO5Percent(sess.Result.Score)
	}
	writeJSON(w, http.StatusCreated, out)
}

func (rt *Router) handleConsistency(w http.ResponseWriter, r *http.Request, raw string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	t, ok := parseType(w, raw)
	if !ok {
		return
	}
	alpha, n, err := rt.svc.Assessments.Consistency(r.Context(), userID(r), t)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"type": t, "alpha": alpha, "n": n})
}

// GET /api/assessments
func (rt *Router) handleAssessments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	sessions, err := rt.svc.Assessments.List(r.Context(), userID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assessments": sessions})
}

// GET|POST /api/moods
func (rt *Router) handleMoods(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		moods, err := rt.svc.Moods.History(r.Context(), userID(r))
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"moods": moods})
	case http.MethodPost:
		var req struct {
			MoodScore int    `json:"mood_score"`
			Note      string `json:"note"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		entry, err := rt.svc.Moods.Log(r.Context(), userID(r), req.MoodScore, req.Note)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	default:
		methodNotAllowed(w)
	}
}

// DELETE /api/moods/{id}
func (rt *Router) handleMoodScoped(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/moods/"), "/")
	if err := rt.svc.Moods.Delete(r.Context(), userID(r), id); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/insights/weekly?days=N
func (rt *Router) handleWeekly(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeErrorMessage(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}
	view, err := rt.svc.Insights.Weekly(r.Context(), userID(r), days)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GET /api/recommendations
func (rt *Router) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	recs, err := rt.svc.Insights.Recommendations(r.Context(), userID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": recs})
}

// GET|POST|DELETE /api/chat
func (rt *Router) handleChat(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	switch r.Method {
	case http.MethodGet:
		msgs, err := rt.svc.Chat.Thread(r.Context(), uid)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
	case http.MethodPost:
		var req struct {
			Text string `json:"text"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := rt.svc.Chat.Send(r.Context(), uid, req.Text)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	case http.MethodDelete:
		if err := rt.svc.Chat.Reset(r.Context(), uid); err != nil {
			rt.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

// GET /api/report[?format=text]
func (rt *Router) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	rep, err := rt.svc.Reports.Generate(r.Context(), userID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(rep.Text))
		return
	}
	out := map[string]any{
		"generated_at":    rep.Payload.GeneratedAt,
		"summary":         rep.Summary,
		"patterns":        rep.Patterns,
		"recommendations": rep.Recommendations,
		"text":            rep.Text,
	}
	if rep.PayloadErr != nil {
		out["payload_error"] = "payload could not be serialized"
	} else {
		out["payload"] = json.RawMessage(rep.PayloadJSON)
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/export/{moods|assessments}.csv
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/export/")
	if !strings.HasSuffix(name, ".csv") {
		writeErrorMessage(w, http.StatusNotFound, "not found")
		return
	}
	res, err := rt.svc.Exports.ExportCSV(r.Context(), userID(r), strings.TrimSuffix(name, ".csv"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+res.Filename)
	_, _ = w.Write(res.Data)
}
