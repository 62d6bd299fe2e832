package app

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tbeaumont/rehearse/internal/api"
	"github.com/tbeaumont/rehearse/internal/capture"
	"github.com/tbeaumont/rehearse/internal/config"
)

func newTestModel() Model {
	return New(&config.Config{
		APIURL:          "http://127.0.0.1:9",
		RequestTimeout:  time.Second,
		DefaultDuration: 10,
		Locale:          "en-US",
	})
}

// interviewModel returns a model mid-interview with an active session.
func interviewModel() Model {
	m := newTestModel()
	m.width = 80
	m.height = 24
	m.phase = PhaseInterview
	m.session = &Session{
		ID:            "sess-1",
		JobRole:       "Backend Engineer",
		Duration:      10,
		Status:        "active",
		TimeRemaining: 600,
	}
	return m
}

func keyMsg(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func runeMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModel(t *testing.T) {
	m := newTestModel()
	if m.phase != PhaseSetup {
		t.Error("new model should start in setup")
	}
	if m.duration() != 10 {
		t.Errorf("duration = %d, want 10", m.duration())
	}
	if m.session != nil {
		t.Error("new model should have no session")
	}
}

func TestStartResultTransitionsToInterview(t *testing.T) {
	m := newTestModel()
	m.jobRole = "Backend Engineer"
	m.starting = true

	updated, cmd := m.Update(StartResultMsg{Resp: api.StartResponse{
		SessionID:     "sess-1",
		FirstQuestion: "Tell me about yourself.",
	}})
	model := updated.(Model)

	if model.phase != PhaseInterview {
		t.Fatal("should be in interview phase")
	}
	if model.session == nil || model.session.ID != "sess-1" {
		t.Fatal("session should be installed")
	}
	if model.session.TimeRemaining != 600 {
		t.Errorf("timeRemaining = %d, want 600", model.session.TimeRemaining)
	}
	if model.session.CurrentQuestion != "Tell me about yourself." {
		t.Errorf("question = %q", model.session.CurrentQuestion)
	}
	// Timers and the initial status check start only on this transition.
	if cmd == nil {
		t.Error("transition should schedule timers")
	}
}

func TestStartResultError(t *testing.T) {
	m := newTestModel()
	m.starting = true

	updated, _ := m.Update(StartResultMsg{Err: fmt.Errorf("status 500")})
	model := updated.(Model)

	if model.phase != PhaseSetup {
		t.Error("should stay in setup on start failure")
	}
	if model.starting {
		t.Error("starting flag should be cleared")
	}
	if model.errorMessage == "" {
		t.Error("error should be surfaced")
	}
}

func TestStaleQuestionDropped(t *testing.T) {
	m := interviewModel()
	m.session.CurrentQuestion = "current"

	updated, _ := m.Update(QuestionMsg{
		SessionID: "sess-old",
		Resp:      api.QuestionResponse{Question: "stale question"},
	})
	model := updated.(Model)

	if model.session.CurrentQuestion != "current" {
		t.Errorf("question = %q, stale response must not apply", model.session.CurrentQuestion)
	}
}

func TestFinalTranscriptsAccumulate(t *testing.T) {
	m := interviewModel()

	m.handleCaptureEvent(capture.Event{Event: "partial", Text: "I worked"})
	if m.interim != "I worked" {
		t.Errorf("interim = %q", m.interim)
	}

	m.handleCaptureEvent(capture.Event{Event: "final", Text: "I worked on payments."})
	if m.currentAnswer != "I worked on payments." {
		t.Errorf("answer = %q", m.currentAnswer)
	}
	if m.interim != "" {
		t.Error("final should clear the interim fragment")
	}

	m.handleCaptureEvent(capture.Event{Event: "partial", Text: "Then I"})
	m.handleCaptureEvent(capture.Event{Event: "partial", Text: "Then I led"})
	if m.interim != "Then I led" {
		t.Errorf("interim = %q, partials must replace not append", m.interim)
	}

	m.handleCaptureEvent(capture.Event{Event: "final", Text: "Then I led the team."})
	want := "I worked on payments. Then I led the team."
	if m.currentAnswer != want {
		t.Errorf("answer = %q, want %q", m.currentAnswer, want)
	}
}

func TestSpeechEvents(t *testing.T) {
	m := interviewModel()

	m.handleCaptureEvent(capture.Event{Event: "speech", State: capture.SpeechStarted})
	if !m.speaking {
		t.Error("should be speaking")
	}

	m.handleCaptureEvent(capture.Event{Event: "speech", State: capture.SpeechEnded})
	if m.speaking {
		t.Error("should not be speaking")
	}

	// Interrupted utterances happen on every question change; not an error.
	m.handleCaptureEvent(capture.Event{
		Event:       "speech",
		State:       capture.SpeechError,
		Interrupted: capture.BoolPtr(true),
		Message:     "canceled",
	})
	if m.speechError != "" {
		t.Errorf("interrupted speech should be silent, got %q", m.speechError)
	}

	m.handleCaptureEvent(capture.Event{
		Event:   "speech",
		State:   capture.SpeechError,
		Message: "synth failed",
	})
	if m.speechError != "synth failed" {
		t.Errorf("speechError = %q", m.speechError)
	}
}

func TestSubmitEmptyAnswer(t *testing.T) {
	m := interviewModel()
	m.session.CurrentQuestion = "Why this role?"
	m.currentAnswer = "   "

	updated, cmd := m.Update(keyMsg(tea.KeyCtrlS))
	model := updated.(Model)

	if cmd != nil {
		t.Error("empty answer must not trigger a submit")
	}
	if model.errorMessage == "" {
		t.Error("empty answer should surface a validation error")
	}
	if len(model.session.Answers) != 0 {
		t.Error("answer log must stay empty")
	}
}

func TestSubmitResultAppendsPair(t *testing.T) {
	m := interviewModel()
	m.submitting = true

	updated, _ := m.Update(SubmitResultMsg{
		SessionID: "sess-1",
		Question:  "Why this role?",
		Answer:    "Because of the domain.",
		Resp:      api.SubmitResponse{Success: true},
	})
	model := updated.(Model)

	if len(model.session.Answers) != 1 {
		t.Fatalf("answers = %d, want 1", len(model.session.Answers))
	}
	if model.session.Answers[0].Question != "Why this role?" {
		t.Errorf("question = %q", model.session.Answers[0].Question)
	}
	if !model.answerSubmitted {
		t.Error("answerSubmitted should be set")
	}
	if model.submitting {
		t.Error("submitting flag should be cleared")
	}
}

func TestNextQuestionRequiresSubmission(t *testing.T) {
	m := interviewModel()
	m.session.CurrentQuestion = "Why this role?"
	m.currentAnswer = "draft text"

	updated, cmd := m.Update(keyMsg(tea.KeyCtrlN))
	model := updated.(Model)

	if cmd != nil {
		t.Error("next question must be gated on a submitted answer")
	}
	if model.session.CurrentQuestion != "Why this role?" {
		t.Error("question must be unchanged")
	}
}

func TestNextQuestionClearsState(t *testing.T) {
	m := interviewModel()
	m.session.CurrentQuestion = "Why this role?"
	m.currentAnswer = "my answer"
	m.interim = "trailing fragment"
	m.answerSubmitted = true

	updated, cmd := m.Update(keyMsg(tea.KeyCtrlN))
	model := updated.(Model)

	if cmd == nil {
		t.Fatal("should fetch the next question")
	}
	if !model.session.LoadingQuestion {
		t.Error("should be loading")
	}
	if model.session.CurrentQuestion != "" {
		t.Error("old question must be cleared immediately")
	}
	if model.currentAnswer != "" || model.interim != "" {
		t.Error("answer state must be cleared")
	}
	if model.answerSubmitted {
		t.Error("submitted flag must reset")
	}
}

func TestQuestionMsgResetsAnswer(t *testing.T) {
	m := interviewModel()
	m.session.LoadingQuestion = true
	m.currentAnswer = "old answer"
	m.interim = "old interim"
	m.answerSubmitted = true

	updated, _ := m.Update(QuestionMsg{
		SessionID: "sess-1",
		Resp:      api.QuestionResponse{Question: "Describe a hard bug.", QuestionID: "q-2"},
	})
	model := updated.(Model)

	if model.session.CurrentQuestion != "Describe a hard bug." {
		t.Errorf("question = %q", model.session.CurrentQuestion)
	}
	if model.session.LoadingQuestion {
		t.Error("loading flag should clear")
	}
	if model.currentAnswer != "" || model.interim != "" || model.answerSubmitted {
		t.Error("answer state must reset on a new question")
	}
}

func TestStatusUpdatesClock(t *testing.T) {
	m := interviewModel()

	updated, _ := m.Update(StatusMsg{
		SessionID: "sess-1",
		Resp:      api.StatusResponse{Active: true, TimeRemaining: 550},
	})
	model := updated.(Model)

	if model.session.TimeRemaining != 550 {
		t.Errorf("timeRemaining = %d, want 550", model.session.TimeRemaining)
	}
	if got := formatClock(model.session.TimeRemaining); got != "09:10" {
		t.Errorf("clock = %q, want %q", got, "09:10")
	}
}

func TestInactiveStatusFinishesOnce(t *testing.T) {
	m := interviewModel()

	updated, cmd := m.Update(StatusMsg{
		SessionID: "sess-1",
		Resp:      api.StatusResponse{Active: false},
	})
	model := updated.(Model)

	if model.phase != PhaseFeedback {
		t.Fatal("inactive session should move to feedback")
	}
	if model.session.Status != "completed" {
		t.Errorf("status = %q", model.session.Status)
	}
	if !model.feedbackRequested {
		t.Error("feedback fetch should be marked requested")
	}
	if cmd == nil {
		t.Error("feedback fetch should be scheduled")
	}

	// A second inactive report must not refetch or re-transition.
	updated2, cmd2 := model.Update(StatusMsg{
		SessionID: "sess-1",
		Resp:      api.StatusResponse{Active: false},
	})
	model2 := updated2.(Model)
	if cmd2 != nil {
		t.Error("second inactive report must be a no-op")
	}
	if model2.phase != PhaseFeedback {
		t.Error("phase should stay feedback")
	}
}

func TestTicksStopAfterTeardown(t *testing.T) {
	m := interviewModel()
	m.phase = PhaseFeedback

	if _, cmd := m.Update(CaptureTickMsg{SessionID: "sess-1"}); cmd != nil {
		t.Error("capture tick must not re-arm after the interview")
	}
	if _, cmd := m.Update(PollTickMsg{SessionID: "sess-1"}); cmd != nil {
		t.Error("poll tick must not re-arm after the interview")
	}
}

func TestStaleTicksDropped(t *testing.T) {
	m := interviewModel()

	if _, cmd := m.Update(CaptureTickMsg{SessionID: "sess-old"}); cmd != nil {
		t.Error("tick for a dead session must not re-arm")
	}
	if _, cmd := m.Update(PollTickMsg{SessionID: "sess-old"}); cmd != nil {
		t.Error("poll for a dead session must not re-arm")
	}
}

func TestCameraFailureDoesNotEndInterview(t *testing.T) {
	m := interviewModel()

	updated, _ := m.Update(CameraMsg{SessionID: "sess-1", Err: fmt.Errorf("no device")})
	model := updated.(Model)

	if model.phase != PhaseInterview {
		t.Error("camera failure must not end the interview")
	}
	if model.cameraOn {
		t.Error("camera should be marked off")
	}
	if model.cameraError == "" {
		t.Error("camera error should be surfaced")
	}
}

func TestFrameAnalysisApplied(t *testing.T) {
	m := interviewModel()

	updated, _ := m.Update(FrameAnalyzedMsg{
		SessionID: "sess-1",
		Analysis:  api.Analysis{FaceDetected: true, Confidence: 72.5, Emotion: "calm"},
	})
	model := updated.(Model)

	if model.analysis == nil || model.analysis.Confidence != 72.5 {
		t.Fatal("analysis should be stored")
	}

	// A failed analysis keeps the previous reading.
	updated2, _ := model.Update(FrameAnalyzedMsg{SessionID: "sess-1", Err: fmt.Errorf("timeout")})
	model2 := updated2.(Model)
	if model2.analysis == nil || model2.analysis.Emotion != "calm" {
		t.Error("failed analysis must not clear the previous reading")
	}
}

func TestEndFlowWithMatchingCount(t *testing.T) {
	m := interviewModel()
	m.session.Answers = []QAPair{{Question: "q", Answer: "a"}}

	updated, _ := m.Update(keyMsg(tea.KeyCtrlE))
	model := updated.(Model)
	if !model.confirmEnd {
		t.Fatal("ctrl+e should open the confirm prompt")
	}

	updated2, cmd := model.Update(runeMsg("y"))
	model2 := updated2.(Model)
	if model2.confirmEnd {
		t.Error("confirm prompt should close")
	}
	if cmd == nil {
		t.Fatal("confirming should check the remote answer count")
	}

	// Count matches the local log: end proceeds without a warning.
	updated3, cmd3 := model2.Update(QACountMsg{SessionID: "sess-1", Count: 1})
	model3 := updated3.(Model)
	if model3.qaCountWarning {
		t.Error("matching count must not warn")
	}
	if cmd3 == nil {
		t.Error("end-interview should be scheduled")
	}
}

func TestEndFlowWarnsOnCountMismatch(t *testing.T) {
	m := interviewModel()
	m.session.Answers = []QAPair{
		{Question: "q1", Answer: "a1"},
		{Question: "q2", Answer: "a2"},
	}
	m.ending = true

	updated, cmd := m.Update(QACountMsg{SessionID: "sess-1", Count: 1})
	model := updated.(Model)

	if !model.qaCountWarning {
		t.Fatal("missing remote answers should warn before ending")
	}
	if cmd != nil {
		t.Error("end must wait for the user's decision")
	}

	// Abort keeps the interview running.
	updated2, _ := model.Update(runeMsg("a"))
	model2 := updated2.(Model)
	if model2.qaCountWarning || model2.ending {
		t.Error("abort should clear the end flow")
	}
	if model2.phase != PhaseInterview {
		t.Error("abort should stay in the interview")
	}

	// Force ends anyway.
	model.qaCountWarning = true
	updated3, cmd3 := model.Update(runeMsg("f"))
	model3 := updated3.(Model)
	if model3.qaCountWarning {
		t.Error("force should close the warning")
	}
	if cmd3 == nil {
		t.Error("force should schedule end-interview")
	}
}

func TestEndResultFinishes(t *testing.T) {
	m := interviewModel()
	m.ending = true

	updated, _ := m.Update(EndResultMsg{SessionID: "sess-1"})
	model := updated.(Model)

	if model.phase != PhaseFeedback {
		t.Error("successful end should move to feedback")
	}
}

func TestFeedbackStored(t *testing.T) {
	m := interviewModel()
	m.phase = PhaseFeedback
	m.session.Status = "completed"

	updated, _ := m.Update(FeedbackMsg{
		SessionID: "sess-1",
		Resp:      api.FeedbackResponse{Feedback: "Strong technical answers."},
	})
	model := updated.(Model)

	if model.session.Feedback != "Strong technical answers." {
		t.Errorf("feedback = %q", model.session.Feedback)
	}
}

func TestLateListenAckAfterFinish(t *testing.T) {
	m := interviewModel()
	m.cap = &capture.Client{}
	m.captureConnected = true

	// Session finishes while a listen_start request is still in flight.
	updated, _ := m.Update(StatusMsg{
		SessionID: "sess-1",
		Resp:      api.StatusResponse{Active: false},
	})
	model := updated.(Model)
	if model.phase != PhaseFeedback {
		t.Fatal("session should have finished")
	}

	updated2, cmd := model.Update(ListenToggledMsg{SessionID: "sess-1", Listening: true})
	model2 := updated2.(Model)

	if model2.listening {
		t.Error("late listen ack must not mark the model listening")
	}
	if cmd == nil {
		t.Error("late successful ack should stop the recognizer")
	}
}

func TestStaleListenAckDropped(t *testing.T) {
	m := interviewModel()

	// Acks from a dead session never touch the current one. A failed ack
	// carries no running recognizer, so nothing is scheduled either.
	updated, cmd := m.Update(ListenToggledMsg{SessionID: "sess-old", Err: fmt.Errorf("no mic")})
	model := updated.(Model)

	if model.errorMessage != "" {
		t.Error("stale ack must not surface an error")
	}
	if cmd != nil {
		t.Error("stale failed ack must not schedule anything")
	}

	// A stop ack for a dead session is equally inert.
	if _, cmd := m.Update(ListenToggledMsg{SessionID: "sess-old", Listening: false}); cmd != nil {
		t.Error("stale stop ack must not schedule anything")
	}
}

func TestListenAckAppliedDuringInterview(t *testing.T) {
	m := interviewModel()

	updated, _ := m.Update(ListenToggledMsg{SessionID: "sess-1", Listening: true})
	model := updated.(Model)
	if !model.listening {
		t.Error("in-session start ack should mark the model listening")
	}

	updated2, _ := model.Update(ListenToggledMsg{SessionID: "sess-1", Err: fmt.Errorf("no mic")})
	model2 := updated2.(Model)
	if model2.listening {
		t.Error("failed ack should clear the listening flag")
	}
	if model2.errorMessage == "" {
		t.Error("failed ack should surface an error")
	}
}

func TestNewSessionFromFeedback(t *testing.T) {
	m := interviewModel()
	m.phase = PhaseFeedback
	m.session.Feedback = "done"
	m.currentAnswer = "leftover"
	m.listening = true
	m.speaking = true
	m.cameraOn = true
	m.cameraError = "no device"
	m.speechError = "synth failed"

	updated, _ := m.Update(runeMsg("n"))
	model := updated.(Model)

	if model.phase != PhaseSetup {
		t.Error("n should return to setup")
	}
	if model.session != nil {
		t.Error("session should be cleared")
	}
	if model.currentAnswer != "" {
		t.Error("answer state should be cleared")
	}
	if model.listening || model.speaking || model.cameraOn {
		t.Error("device flags must not carry into the next session")
	}
	if model.cameraError != "" || model.speechError != "" {
		t.Error("device errors must not carry into the next session")
	}
}

func TestDurationSelection(t *testing.T) {
	m := newTestModel()
	m.width = 80
	m.focusField = fieldDuration

	updated, _ := m.Update(keyMsg(tea.KeyDown))
	model := updated.(Model)
	if model.duration() != 15 {
		t.Errorf("duration = %d, want 15", model.duration())
	}

	updated2, _ := model.Update(keyMsg(tea.KeyUp))
	model2 := updated2.(Model)
	if model2.duration() != 10 {
		t.Errorf("duration = %d, want 10", model2.duration())
	}
}

func TestSetupValidation(t *testing.T) {
	m := newTestModel()
	m.width = 80

	updated, cmd := m.Update(keyMsg(tea.KeyEnter))
	model := updated.(Model)
	if cmd != nil {
		t.Error("start with an empty form must not fire")
	}
	if model.setupError == "" {
		t.Error("missing job role should surface an error")
	}

	model.jobRole = "Backend Engineer"
	updated2, cmd2 := model.Update(keyMsg(tea.KeyEnter))
	model2 := updated2.(Model)
	if cmd2 != nil {
		t.Error("start without a cv must not fire")
	}
	if !strings.Contains(model2.setupError, "cv") {
		t.Errorf("setupError = %q, want a cv error", model2.setupError)
	}
}

func TestTypingInSetupFields(t *testing.T) {
	m := newTestModel()

	updated, _ := m.Update(runeMsg("Go"))
	model := updated.(Model)
	if model.jobRole != "Go" {
		t.Errorf("jobRole = %q", model.jobRole)
	}

	updated2, _ := model.Update(keyMsg(tea.KeyBackspace))
	model2 := updated2.(Model)
	if model2.jobRole != "G" {
		t.Errorf("jobRole = %q after backspace", model2.jobRole)
	}
}

func TestDismissError(t *testing.T) {
	m := interviewModel()
	m.errorMessage = "something failed"

	updated, _ := m.Update(keyMsg(tea.KeyCtrlX))
	model := updated.(Model)

	if model.errorMessage != "" {
		t.Error("ctrl+x should clear the error")
	}
}

func TestFormatClock(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{600, "10:00"},
		{550, "09:10"},
		{61, "01:01"},
		{0, "00:00"},
		{-5, "00:00"},
	}
	for _, c := range cases {
		if got := formatClock(c.seconds); got != c.want {
			t.Errorf("formatClock(%d) = %q, want %q", c.seconds, got, c.want)
		}
	}
}

func TestViewRendersWithSize(t *testing.T) {
	m := interviewModel()
	m.session.CurrentQuestion = "Tell me about yourself."
	m.currentAnswer = "I build backend services."

	view := m.View()
	if !strings.Contains(view, "Tell me about yourself.") {
		t.Error("view should show the question")
	}
	if !strings.Contains(view, "I build backend services.") {
		t.Error("view should show the answer")
	}
	if !strings.Contains(view, "10:00") {
		t.Error("view should show the countdown")
	}
}

func TestViewWithoutSize(t *testing.T) {
	m := newTestModel()
	if m.View() != "Initializing..." {
		t.Error("zero-width view should show the init placeholder")
	}
}
