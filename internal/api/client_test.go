package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestStartInterview(t *testing.T) {
	var gotRole, gotDuration, gotFilename string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/start-interview" {
			t.Errorf("path = %q, want /start-interview", r.URL.Path)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotRole = r.FormValue("job_role")
		gotDuration = r.FormValue("duration")
		if _, hdr, err := r.FormFile("cv_file"); err == nil {
			gotFilename = hdr.Filename
		}
		json.NewEncoder(w).Encode(StartResponse{SessionID: "sess-1", FirstQuestion: "Tell me about yourself."})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	resp, err := c.StartInterview(context.Background(), strings.NewReader("%PDF-1.4 fake"), "cv.pdf", "Backend Engineer", 10)
	if err != nil {
		t.Fatalf("StartInterview: %v", err)
	}

	if resp.SessionID != "sess-1" {
		t.Errorf("sessionID = %q, want %q", resp.SessionID, "sess-1")
	}
	if resp.FirstQuestion != "Tell me about yourself." {
		t.Errorf("firstQuestion = %q", resp.FirstQuestion)
	}
	if gotRole != "Backend Engineer" {
		t.Errorf("job_role = %q", gotRole)
	}
	if gotDuration != "10" {
		t.Errorf("duration = %q, want %q", gotDuration, "10")
	}
	if gotFilename != "cv.pdf" {
		t.Errorf("filename = %q, want %q", gotFilename, "cv.pdf")
	}
}

func TestStartInterviewMissingSessionID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.StartInterview(context.Background(), strings.NewReader("x"), "cv.pdf", "Role", 5)
	if err == nil {
		t.Error("expected error when session_id is missing")
	}
}

func TestGetQuestionCacheBusting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("t") == "" {
			t.Error("expected cache-busting query parameter")
		}
		if cc := r.Header.Get("Cache-Control"); !strings.Contains(cc, "no-cache") {
			t.Errorf("Cache-Control = %q, want no-cache", cc)
		}
		json.NewEncoder(w).Encode(QuestionResponse{QuestionID: "q-2", Question: "Why this role?"})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	resp, err := c.GetQuestion(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if resp.Question != "Why this role?" {
		t.Errorf("question = %q", resp.Question)
	}
	if resp.QuestionID != "q-2" {
		t.Errorf("questionID = %q", resp.QuestionID)
	}
}

func TestAnalyzeImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze-image/sess-1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if _, _, err := r.FormFile("image"); err != nil {
			t.Errorf("missing image part: %v", err)
		}
		json.NewEncoder(w).Encode(Analysis{
			FaceDetected:      true,
			Confidence:        72.5,
			Emotion:           "neutral",
			ConfidenceHistory: []float64{70, 71, 72.5},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	a, err := c.AnalyzeImage(context.Background(), "sess-1", []byte{0xff, 0xd8, 0xff})
	if err != nil {
		t.Fatalf("AnalyzeImage: %v", err)
	}
	if !a.FaceDetected {
		t.Error("faceDetected = false, want true")
	}
	if a.Confidence != 72.5 {
		t.Errorf("confidence = %v, want 72.5", a.Confidence)
	}
	if len(a.ConfidenceHistory) != 3 {
		t.Errorf("confidenceHistory len = %d, want 3", len(a.ConfidenceHistory))
	}
}

func TestSubmitAnswer(t *testing.T) {
	var got map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content-type = %q", r.Header.Get("Content-Type"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(SubmitResponse{Success: true})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	resp, err := c.SubmitAnswer(context.Background(), "sess-1", "My answer", "The question")
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if !resp.Success {
		t.Error("success = false, want true")
	}
	if got["answer"] != "My answer" {
		t.Errorf("answer = %q", got["answer"])
	}
	if got["question"] != "The question" {
		t.Errorf("question = %q", got["question"])
	}
}

func TestCheckStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(StatusResponse{Active: true, TimeRemaining: 550})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	st, err := c.CheckStatus(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("CheckStatus: %v", err)
	}
	if !st.Active {
		t.Error("active = false, want true")
	}
	if st.TimeRemaining != 550 {
		t.Errorf("timeRemaining = %d, want 550", st.TimeRemaining)
	}
}

func TestCheckQACount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(QACountResponse{QACount: 4})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	qc, err := c.CheckQACount(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("CheckQACount: %v", err)
	}
	if qc.QACount != 4 {
		t.Errorf("qaCount = %d, want 4", qc.QACount)
	}
}

func TestEndInterviewAndFeedback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/end-interview/sess-1":
			if r.Method != http.MethodPost {
				t.Errorf("method = %q, want POST", r.Method)
			}
			w.Write([]byte(`{"ok":true}`))
		case "/get-feedback/sess-1":
			json.NewEncoder(w).Encode(FeedbackResponse{Feedback: "Solid answers overall."})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	if err := c.EndInterview(context.Background(), "sess-1"); err != nil {
		t.Fatalf("EndInterview: %v", err)
	}
	fb, err := c.GetFeedback(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("GetFeedback: %v", err)
	}
	if fb.Feedback != "Solid answers overall." {
		t.Errorf("feedback = %q", fb.Feedback)
	}
}

func TestNonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.CheckStatus(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %v, want status code in message", err)
	}
}

func TestDecodeFailureIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.GetFeedback(context.Background(), "sess-1")
	if err == nil {
		t.Error("expected decode error")
	}
}
