package app

import (
	"github.com/tbeaumont/rehearse/internal/api"
	"github.com/tbeaumont/rehearse/internal/capture"
)

// CaptureConnectedMsg is sent when both capture daemon connections are
// established.
type CaptureConnectedMsg struct {
	Client   *capture.Client // for commands (camera, frame, listen, speak)
	EvClient *capture.Client // for event subscription
}

// CaptureConnectErrorMsg is sent when the capture daemon connection fails.
// The interview can still run; voice and camera features degrade.
type CaptureConnectErrorMsg struct {
	Err error
}

// CaptureEventMsg wraps a streamed event from the capture daemon.
type CaptureEventMsg struct {
	Event capture.Event
}

// CaptureEventErrorMsg is sent when the event stream encounters an error.
type CaptureEventErrorMsg struct {
	Err error
}

// StartResultMsg carries the outcome of start-interview.
type StartResultMsg struct {
	Resp api.StartResponse
	Err  error
}

// QuestionMsg carries a fetched question. SessionID identifies the owning
// session; the reducer drops messages for sessions that are no longer
// current.
type QuestionMsg struct {
	SessionID string
	Resp      api.QuestionResponse
	Err       error
}

// CameraMsg carries the outcome of camera_start on the capture daemon.
type CameraMsg struct {
	SessionID string
	Err       error
}

// CaptureTickMsg fires every two seconds during the interview to snapshot a
// frame.
type CaptureTickMsg struct {
	SessionID string
}

// FrameAnalyzedMsg carries one frame analysis result.
type FrameAnalyzedMsg struct {
	SessionID string
	Analysis  api.Analysis
	Err       error
}

// PollTickMsg fires every five seconds during the interview to check status.
type PollTickMsg struct {
	SessionID string
}

// StatusMsg carries a check-status result.
type StatusMsg struct {
	SessionID string
	Resp      api.StatusResponse
	Err       error
}

// SubmitResultMsg carries the outcome of submit-answer, echoing the pair so
// the reducer can append it to the answer log.
type SubmitResultMsg struct {
	SessionID string
	Question  string
	Answer    string
	Resp      api.SubmitResponse
	Err       error
}

// QACountMsg carries the remote answer-pair count checked before ending the
// interview early.
type QACountMsg struct {
	SessionID string
	Count     int
	Err       error
}

// EndResultMsg carries the outcome of end-interview.
type EndResultMsg struct {
	SessionID string
	Err       error
}

// FeedbackMsg carries the final feedback text.
type FeedbackMsg struct {
	SessionID string
	Resp      api.FeedbackResponse
	Err       error
}

// ListenToggledMsg reports the daemon's listening state after a
// listen_start/listen_stop command.
type ListenToggledMsg struct {
	SessionID string
	Listening bool
	Err       error
}
