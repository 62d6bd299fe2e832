// Package devserver is a local stand-in for the interview service. It keeps
// sessions in memory and fabricates questions, frame analysis, and feedback
// so the TUI can be exercised end to end without the real backend.
package devserver

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tbeaumont/rehearse/internal/auth"
	"github.com/tbeaumont/rehearse/internal/db"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// questionBank is cycled per session; %s is replaced with the job role.
var questionBank = []string{
	"Tell me about yourself and your background.",
	"Why are you interested in this %s position?",
	"Describe a challenging project you worked on recently.",
	"How do you handle disagreements within your team?",
	"What is a technical decision you regret, and what did you learn?",
	"How do you prioritize when everything feels urgent?",
	"Describe a time you had to learn something quickly.",
	"Where do you see yourself in five years?",
	"What questions do you have for us?",
}

var emotions = []string{"calm", "confident", "focused", "nervous", "enthusiastic"}

// Options configures the dev server.
type Options struct {
	AllowedOrigins []string
	JWTSecret      []byte
	GoogleOAuth    *auth.OAuthConfig
}

type qaPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type session struct {
	ID          string
	JobRole     string
	CVFilename  string
	Duration    time.Duration
	StartedAt   time.Time
	Ended       bool
	QuestionIdx int
	Answers     []qaPair
	FrameCount  int
	Confidence  []float64
}

// Server holds the in-memory interview state and the auth store.
type Server struct {
	mu       sync.Mutex
	sessions map[string]*session

	store *db.Store
	opts  Options
}

// New creates a Server. store may be nil; auth routes then return 503.
func New(store *db.Store, opts Options) *Server {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"http://localhost:5173"}
	}
	return &Server{
		sessions: make(map[string]*session),
		store:    store,
		opts:     opts,
	}
}

// Handler builds the full route table with CORS applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods("GET")

	r.HandleFunc("/start-interview", s.handleStartInterview).Methods("POST")
	r.HandleFunc("/get-question/{id}", s.handleGetQuestion).Methods("GET")
	r.HandleFunc("/analyze-image/{id}", s.handleAnalyzeImage).Methods("POST")
	r.HandleFunc("/submit-answer/{id}", s.handleSubmitAnswer).Methods("POST")
	r.HandleFunc("/check-status/{id}", s.handleCheckStatus).Methods("GET")
	r.HandleFunc("/check-qa-count/{id}", s.handleCheckQACount).Methods("GET")
	r.HandleFunc("/end-interview/{id}", s.handleEndInterview).Methods("POST")
	r.HandleFunc("/get-feedback/{id}", s.handleGetFeedback).Methods("GET")

	r.HandleFunc("/auth/register", s.handleRegister).Methods("POST")
	r.HandleFunc("/auth/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/auth/verify-email", s.handleVerifyEmail).Methods("POST")
	r.HandleFunc("/auth/google/callback", s.handleGoogleCallback).Methods("GET")

	cors := handlers.CORS(
		handlers.AllowedOrigins(s.opts.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "Cache-Control", "Pragma"}),
	)
	return cors(r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ── Interview ───────────────────────────────────────────────────────────────

func (s *Server) handleStartInterview(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	jobRole := strings.TrimSpace(r.FormValue("job_role"))
	if jobRole == "" {
		writeError(w, http.StatusBadRequest, "job_role is required")
		return
	}

	durationMinutes := 10
	if v := r.FormValue("duration"); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &durationMinutes); err != nil || durationMinutes <= 0 {
			writeError(w, http.StatusBadRequest, "duration must be a positive integer")
			return
		}
	}

	file, header, err := r.FormFile("cv_file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "cv_file is required")
		return
	}
	file.Close()
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		writeError(w, http.StatusBadRequest, "cv_file must be a PDF")
		return
	}

	sess := &session{
		ID:         uuid.NewString(),
		JobRole:    jobRole,
		CVFilename: header.Filename,
		Duration:   time.Duration(durationMinutes) * time.Minute,
		StartedAt:  time.Now(),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	first := sess.nextQuestion()
	s.mu.Unlock()

	log.Printf("session %s started: role=%q duration=%dm cv=%q", sess.ID, jobRole, durationMinutes, header.Filename)

	writeJSON(w, http.StatusOK, map[string]string{
		"session_id":     sess.ID,
		"first_question": first,
	})
}

func (s *Server) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	question := sess.nextQuestion()
	idx := sess.QuestionIdx
	s.mu.Unlock()

	w.Header().Set("Cache-Control", "no-cache, no-store")
	writeJSON(w, http.StatusOK, map[string]any{
		"question_id": fmt.Sprintf("q-%d", idx),
		"question":    question,
	})
}

// nextQuestion advances the cursor; caller holds the server lock.
func (sess *session) nextQuestion() string {
	q := questionBank[sess.QuestionIdx%len(questionBank)]
	sess.QuestionIdx++
	if strings.Contains(q, "%s") {
		return fmt.Sprintf(q, sess.JobRole)
	}
	return q
}

func (s *Server) handleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}
	file.Close()

	// Deterministic synthetic reading: confidence oscillates with the frame
	// count so the meter visibly moves during a dev run.
	s.mu.Lock()
	sess.FrameCount++
	n := sess.FrameCount
	confidence := 55 + float64((n*13)%40)
	sess.Confidence = append(sess.Confidence, confidence)
	history := append([]float64(nil), sess.Confidence...)
	s.mu.Unlock()

	emotion := emotions[n%len(emotions)]
	scores := map[string]float64{emotion: 0.7}
	for _, e := range emotions {
		if e != emotion {
			scores[e] = 0.3 / float64(len(emotions)-1)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"faceDetected":      true,
		"confidence":        confidence,
		"emotion":           emotion,
		"emotionScores":     scores,
		"confidenceHistory": history,
	})
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var payload qaPair
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(payload.Answer) == "" {
		writeError(w, http.StatusBadRequest, "answer is required")
		return
	}

	s.mu.Lock()
	if sess.Ended {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "interview has ended")
		return
	}
	sess.Answers = append(sess.Answers, payload)
	count := len(sess.Answers)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("answer %d recorded", count),
	})
}

func (s *Server) handleCheckStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	remaining := sess.Duration - time.Since(sess.StartedAt)
	active := !sess.Ended && remaining > 0
	if !active {
		sess.Ended = true
	}
	s.mu.Unlock()

	if remaining < 0 {
		remaining = 0
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"active":         active,
		"time_remaining": int(remaining.Seconds()),
	})
}

func (s *Server) handleCheckQACount(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	count := len(sess.Answers)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"qa_count": count})
}

func (s *Server) handleEndInterview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	sess.Ended = true
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleGetFeedback(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	feedback := buildFeedback(sess)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"feedback": feedback})
}

// buildFeedback fabricates plausible feedback from the recorded answers.
// Caller holds the server lock.
func buildFeedback(sess *session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Practice interview summary for the %s role.\n\n", sess.JobRole)
	fmt.Fprintf(&b, "You answered %d question(s) over %s.\n", len(sess.Answers), time.Since(sess.StartedAt).Round(time.Second))

	if len(sess.Answers) == 0 {
		b.WriteString("\nNo answers were recorded, so there is nothing to assess. Try answering at least a few questions next time.")
		return b.String()
	}

	var totalWords int
	for _, qa := range sess.Answers {
		totalWords += len(strings.Fields(qa.Answer))
	}
	avg := totalWords / len(sess.Answers)
	fmt.Fprintf(&b, "Average answer length: %d words.\n", avg)

	switch {
	case avg < 20:
		b.WriteString("\nYour answers were quite short. Expand them with concrete examples and outcomes.")
	case avg > 150:
		b.WriteString("\nYour answers ran long. Practice tightening them around a single story per question.")
	default:
		b.WriteString("\nYour answer length was in a good range. Keep structuring responses around situation, action, and result.")
	}

	if n := len(sess.Confidence); n > 0 {
		var sum float64
		for _, c := range sess.Confidence {
			sum += c
		}
		fmt.Fprintf(&b, "\nAverage on-camera confidence reading: %.0f%%.", sum/float64(n))
	}
	return b.String()
}

// lookup resolves the session from the URL, writing a 404 on miss.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session, bool) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	sess := s.sessions[id]
	s.mu.Unlock()
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
