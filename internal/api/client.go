package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Client talks to the interview service. The base URL is injected at
// construction; there is no package-level endpoint state.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the given base URL. A zero timeout falls back to
// 30 seconds.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// StartInterview uploads the CV and interview parameters and returns the new
// session id, plus the first question when the service includes one.
func (c *Client) StartInterview(ctx context.Context, cv io.Reader, filename, jobRole string, durationMinutes int) (StartResponse, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("cv_file", filename)
	if err != nil {
		return StartResponse{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, cv); err != nil {
		return StartResponse{}, fmt.Errorf("copy cv: %w", err)
	}
	if err := w.WriteField("job_role", jobRole); err != nil {
		return StartResponse{}, fmt.Errorf("write job_role: %w", err)
	}
	if err := w.WriteField("duration", strconv.Itoa(durationMinutes)); err != nil {
		return StartResponse{}, fmt.Errorf("write duration: %w", err)
	}
	if err := w.Close(); err != nil {
		return StartResponse{}, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/start-interview", &body)
	if err != nil {
		return StartResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out StartResponse
	if err := c.do(req, &out); err != nil {
		return StartResponse{}, err
	}
	if out.SessionID == "" {
		return StartResponse{}, fmt.Errorf("start-interview: response missing session_id")
	}
	return out, nil
}

// GetQuestion fetches the current question. Question state must never be
// served stale, so the request carries a cache-busting query parameter and
// no-cache headers.
func (c *Client) GetQuestion(ctx context.Context, sessionID string) (QuestionResponse, error) {
	url := fmt.Sprintf("%s/get-question/%s?t=%d", c.baseURL, sessionID, time.Now().UnixNano())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return QuestionResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")

	var out QuestionResponse
	if err := c.do(req, &out); err != nil {
		return QuestionResponse{}, err
	}
	return out, nil
}

// AnalyzeImage uploads one JPEG frame for analysis.
func (c *Client) AnalyzeImage(ctx context.Context, sessionID string, jpeg []byte) (Analysis, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("image", "frame.jpg")
	if err != nil {
		return Analysis{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(jpeg); err != nil {
		return Analysis{}, fmt.Errorf("write frame: %w", err)
	}
	if err := w.Close(); err != nil {
		return Analysis{}, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze-image/"+sessionID, &body)
	if err != nil {
		return Analysis{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out Analysis
	if err := c.do(req, &out); err != nil {
		return Analysis{}, err
	}
	return out, nil
}

// SubmitAnswer records one question/answer pair on the service side.
func (c *Client) SubmitAnswer(ctx context.Context, sessionID, answer, question string) (SubmitResponse, error) {
	payload, err := json.Marshal(map[string]string{
		"answer":   answer,
		"question": question,
	})
	if err != nil {
		return SubmitResponse{}, fmt.Errorf("marshal answer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/submit-answer/"+sessionID, bytes.NewReader(payload))
	if err != nil {
		return SubmitResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out SubmitResponse
	if err := c.do(req, &out); err != nil {
		return SubmitResponse{}, err
	}
	return out, nil
}

// CheckStatus reports whether the remote session is still active and how much
// time remains, in seconds.
func (c *Client) CheckStatus(ctx context.Context, sessionID string) (StatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/check-status/"+sessionID, nil)
	if err != nil {
		return StatusResponse{}, fmt.Errorf("build request: %w", err)
	}
	var out StatusResponse
	if err := c.do(req, &out); err != nil {
		return StatusResponse{}, err
	}
	return out, nil
}

// CheckQACount returns how many answer pairs the service has stored.
func (c *Client) CheckQACount(ctx context.Context, sessionID string) (QACountResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/check-qa-count/"+sessionID, nil)
	if err != nil {
		return QACountResponse{}, fmt.Errorf("build request: %w", err)
	}
	var out QACountResponse
	if err := c.do(req, &out); err != nil {
		return QACountResponse{}, err
	}
	return out, nil
}

// EndInterview terminates the session on the service side.
func (c *Client) EndInterview(ctx context.Context, sessionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/end-interview/"+sessionID, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, nil)
}

// GetFeedback fetches the final feedback text.
func (c *Client) GetFeedback(ctx context.Context, sessionID string) (FeedbackResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get-feedback/"+sessionID, nil)
	if err != nil {
		return FeedbackResponse{}, fmt.Errorf("build request: %w", err)
	}
	var out FeedbackResponse
	if err := c.do(req, &out); err != nil {
		return FeedbackResponse{}, err
	}
	return out, nil
}

// do executes a request and decodes the JSON body into out when non-nil.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
