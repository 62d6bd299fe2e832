// Package api provides the HTTP client for the remote interview service.
package api

// StartResponse is returned by start-interview.
type StartResponse struct {
	SessionID     string `json:"session_id"`
	FirstQuestion string `json:"first_question,omitempty"`
}

// QuestionResponse is returned by get-question.
type QuestionResponse struct {
	QuestionID string `json:"question_id,omitempty"`
	Question   string `json:"question"`
}

// Analysis is the per-frame result of analyze-image. Each response fully
// replaces the previous one; history lives only in ConfidenceHistory as
// supplied by the service.
type Analysis struct {
	FaceDetected      bool               `json:"faceDetected"`
	Confidence        float64            `json:"confidence"`
	Emotion           string             `json:"emotion,omitempty"`
	EmotionScores     map[string]float64 `json:"emotionScores,omitempty"`
	ConfidenceHistory []float64          `json:"confidenceHistory,omitempty"`
	ProcessedImage    string             `json:"processedImage,omitempty"`
}

// SubmitResponse is returned by submit-answer.
type SubmitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// StatusResponse is returned by check-status.
type StatusResponse struct {
	Active        bool `json:"active"`
	TimeRemaining int  `json:"time_remaining"`
}

// QACountResponse is returned by check-qa-count.
type QACountResponse struct {
	QACount int `json:"qa_count"`
}

// FeedbackResponse is returned by get-feedback.
type FeedbackResponse struct {
	Feedback string `json:"feedback"`
}
