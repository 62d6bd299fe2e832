package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tbeaumont/rehearse/internal/api"
	"github.com/tbeaumont/rehearse/internal/capture"
	"github.com/tbeaumont/rehearse/internal/config"
	"github.com/tbeaumont/rehearse/internal/cv"

	tea "github.com/charmbracelet/bubbletea"
)

// Phase is the top-level UI state.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseInterview
	PhaseFeedback
)

// Timer cadences during the interview.
const (
	captureInterval = 2 * time.Second
	pollInterval    = 5 * time.Second
)

// Durations selectable in the setup form, in minutes.
var durationChoices = []int{5, 10, 15, 20, 30, 45, 60}

// QAPair is one submitted question/answer record.
type QAPair struct {
	Question string
	Answer   string
}

// Session is the one shared record all four interview concerns mutate:
// setup seeds it, question fetches and submissions update it, the status
// poller drives its completion, and the feedback fetch finishes it.
type Session struct {
	ID                string
	JobRole           string
	Duration          int // minutes
	Status            string
	CurrentQuestion   string
	CurrentQuestionID string
	LoadingQuestion   bool
	Answers           []QAPair
	TimeRemaining     int // seconds
	Feedback          string
}

// setupField tracks which setup form field has focus.
type setupField int

const (
	fieldJobRole setupField = iota
	fieldCVPath
	fieldDuration
)

// Model is the root bubbletea model for the rehearse TUI. Update is the only
// state-transition function; every timer tick, API response, capture event,
// and key press arrives as a discrete message.
type Model struct {
	cfg *config.Config
	api *api.Client

	// Capture daemon connections
	cap              *capture.Client // command connection
	evCap            *capture.Client // event subscription connection
	captureConnected bool
	captureError     string

	phase    Phase
	session  *Session
	analysis *api.Analysis

	// Setup form
	focusField    setupField
	jobRole       string
	cvPath        string
	cvSummary     *cv.Summary
	durationIndex int
	setupError    string
	starting      bool

	// Interview interaction
	currentAnswer   string // committed transcript: finals plus typed edits
	interim         string // latest unfinalized fragment, replaced each update
	listening       bool
	speaking        bool
	speechError     string
	answerSubmitted bool
	submitting      bool
	cameraOn        bool
	cameraError     string

	// Early-end confirmation flow
	confirmEnd     bool
	qaCountWarning bool
	remoteQACount  int
	ending         bool

	feedbackRequested bool

	errorMessage string

	width  int
	height int
}

// New creates a Model with default state. The API base URL and capture
// socket come from cfg; nothing reads globals.
func New(cfg *config.Config) Model {
	m := Model{
		cfg:           cfg,
		api:           api.New(cfg.APIURL, cfg.RequestTimeout),
		phase:         PhaseSetup,
		durationIndex: 1, // 10 minutes
	}
	for i, d := range durationChoices {
		if d == cfg.DefaultDuration {
			m.durationIndex = i
		}
	}
	return m
}

// Init connects to the capture daemon. Connection failure is tolerated;
// camera and voice degrade, the interview itself still works.
func (m Model) Init() tea.Cmd {
	return connectCaptureCmd(m.captureSocket())
}

func (m Model) captureSocket() string {
	if m.cfg.CaptureSocket != "" {
		return m.cfg.CaptureSocket
	}
	return capture.SocketPath()
}

func (m Model) duration() int {
	return durationChoices[m.durationIndex]
}

// sessionID returns the current session id, or "" outside a session.
func (m Model) sessionID() string {
	if m.session == nil {
		return ""
	}
	return m.session.ID
}

// stale reports whether a message belongs to a session that is no longer
// current. In-flight responses and ticks from an ended session are dropped
// here instead of mutating fresh state.
func (m Model) stale(sessionID string) bool {
	return m.session == nil || m.session.ID != sessionID
}

// ── Commands ────────────────────────────────────────────────────────────────

// connectCaptureCmd dials the capture daemon twice: one connection for
// commands, one for the event subscription.
func connectCaptureCmd(socketPath string) tea.Cmd {
	return func() tea.Msg {
		client, err := capture.Connect(socketPath)
		if err != nil {
			return CaptureConnectErrorMsg{Err: err}
		}
		evClient, err := capture.Connect(socketPath)
		if err != nil {
			client.Close()
			return CaptureConnectErrorMsg{Err: err}
		}
		return CaptureConnectedMsg{Client: client, EvClient: evClient}
	}
}

// subscribeCaptureCmd subscribes on the event client and reads the first event.
func subscribeCaptureCmd(evClient *capture.Client) tea.Cmd {
	return func() tea.Msg {
		if _, err := evClient.SendCommand(capture.Command{Cmd: "subscribe"}); err != nil {
			return CaptureEventErrorMsg{Err: err}
		}
		return readCaptureEventCmd(evClient)()
	}
}

// readCaptureEventCmd reads the next event from the event client.
func readCaptureEventCmd(evClient *capture.Client) tea.Cmd {
	return func() tea.Msg {
		ev, err := evClient.ReadEvent()
		if err != nil {
			return CaptureEventErrorMsg{Err: err}
		}
		return CaptureEventMsg{Event: ev}
	}
}

// startInterviewCmd validates nothing; the form already did. It uploads the
// CV and returns the start outcome.
func startInterviewCmd(client *api.Client, cvSummary *cv.Summary, jobRole string, durationMinutes int) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(cvSummary.Path)
		if err != nil {
			return StartResultMsg{Err: err}
		}
		defer f.Close()

		resp, err := client.StartInterview(context.Background(), f, cvSummary.Filename, jobRole, durationMinutes)
		return StartResultMsg{Resp: resp, Err: err}
	}
}

func fetchQuestionCmd(client *api.Client, sessionID string) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.GetQuestion(context.Background(), sessionID)
		return QuestionMsg{SessionID: sessionID, Resp: resp, Err: err}
	}
}

func cameraStartCmd(cap *capture.Client, sessionID string) tea.Cmd {
	return func() tea.Msg {
		resp, err := cap.SendCommand(capture.Command{Cmd: "camera_start"})
		if err == nil && !resp.OK {
			err = fmt.Errorf("camera: %s", resp.Error)
		}
		return CameraMsg{SessionID: sessionID, Err: err}
	}
}

func cameraStopCmd(cap *capture.Client) tea.Cmd {
	return func() tea.Msg {
		cap.SendCommand(capture.Command{Cmd: "camera_stop"})
		return nil
	}
}

func captureTickCmd(sessionID string) tea.Cmd {
	return tea.Tick(captureInterval, func(time.Time) tea.Msg {
		return CaptureTickMsg{SessionID: sessionID}
	})
}

// captureFrameCmd snapshots one JPEG frame from the daemon and posts it for
// analysis. Any failure is reported and simply skipped by the reducer.
func captureFrameCmd(cap *capture.Client, client *api.Client, sessionID string) tea.Cmd {
	return func() tea.Msg {
		resp, err := cap.SendCommand(capture.Command{Cmd: "frame", Quality: capture.IntPtr(80)})
		if err != nil {
			return FrameAnalyzedMsg{SessionID: sessionID, Err: err}
		}
		if !resp.OK || resp.Frame == "" {
			return FrameAnalyzedMsg{SessionID: sessionID, Err: fmt.Errorf("frame: %s", resp.Error)}
		}
		jpeg, err := base64.StdEncoding.DecodeString(resp.Frame)
		if err != nil {
			return FrameAnalyzedMsg{SessionID: sessionID, Err: fmt.Errorf("decode frame: %w", err)}
		}
		analysis, err := client.AnalyzeImage(context.Background(), sessionID, jpeg)
		return FrameAnalyzedMsg{SessionID: sessionID, Analysis: analysis, Err: err}
	}
}

func pollTickCmd(sessionID string) tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return PollTickMsg{SessionID: sessionID}
	})
}

func checkStatusCmd(client *api.Client, sessionID string) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.CheckStatus(context.Background(), sessionID)
		return StatusMsg{SessionID: sessionID, Resp: resp, Err: err}
	}
}

func submitAnswerCmd(client *api.Client, sessionID, question, answer string) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.SubmitAnswer(context.Background(), sessionID, answer, question)
		if err == nil && !resp.Success {
			err = fmt.Errorf("submit-answer: service rejected the answer")
		}
		return SubmitResultMsg{SessionID: sessionID, Question: question, Answer: answer, Resp: resp, Err: err}
	}
}

func qaCountCmd(client *api.Client, sessionID string) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.CheckQACount(context.Background(), sessionID)
		return QACountMsg{SessionID: sessionID, Count: resp.QACount, Err: err}
	}
}

func endInterviewCmd(client *api.Client, sessionID string) tea.Cmd {
	return func() tea.Msg {
		err := client.EndInterview(context.Background(), sessionID)
		return EndResultMsg{SessionID: sessionID, Err: err}
	}
}

func fetchFeedbackCmd(client *api.Client, sessionID string) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.GetFeedback(context.Background(), sessionID)
		return FeedbackMsg{SessionID: sessionID, Resp: resp, Err: err}
	}
}

// speakCmd cancels any in-flight utterance and speaks the new text.
func speakCmd(cap *capture.Client, text, voice string) tea.Cmd {
	return func() tea.Msg {
		cap.SendCommand(capture.Command{Cmd: "cancel_speak"})
		cap.SendCommand(capture.Command{Cmd: "speak", Text: text, Voice: voice})
		return nil
	}
}

func listenStartCmd(cap *capture.Client, locale, sessionID string) tea.Cmd {
	return func() tea.Msg {
		resp, err := cap.SendCommand(capture.Command{Cmd: "listen_start", Locale: locale})
		if err == nil && !resp.OK {
			err = fmt.Errorf("listen: %s", resp.Error)
		}
		return ListenToggledMsg{SessionID: sessionID, Listening: err == nil, Err: err}
	}
}

func listenStopCmd(cap *capture.Client, sessionID string) tea.Cmd {
	return func() tea.Msg {
		cap.SendCommand(capture.Command{Cmd: "listen_stop"})
		return ListenToggledMsg{SessionID: sessionID, Listening: false}
	}
}

// ── Update ──────────────────────────────────────────────────────────────────

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case CaptureConnectedMsg:
		m.cap = msg.Client
		m.evCap = msg.EvClient
		m.captureConnected = true
		m.captureError = ""
		return m, subscribeCaptureCmd(m.evCap)

	case CaptureConnectErrorMsg:
		m.captureConnected = false
		m.captureError = msg.Err.Error()
		return m, nil

	case CaptureEventMsg:
		m.handleCaptureEvent(msg.Event)
		// Keep reading events on the event connection.
		return m, readCaptureEventCmd(m.evCap)

	case CaptureEventErrorMsg:
		m.captureConnected = false
		m.captureError = msg.Err.Error()
		m.listening = false
		m.speaking = false
		if m.cap != nil {
			m.cap.Close()
			m.cap = nil
		}
		if m.evCap != nil {
			m.evCap.Close()
			m.evCap = nil
		}
		return m, nil

	case StartResultMsg:
		return m.handleStartResult(msg)

	case QuestionMsg:
		if m.stale(msg.SessionID) || m.phase != PhaseInterview {
			return m, nil
		}
		if msg.Err != nil {
			m.session.LoadingQuestion = false
			m.errorMessage = msg.Err.Error()
			return m, nil
		}
		return m.applyQuestion(msg.Resp.Question, msg.Resp.QuestionID)

	case CameraMsg:
		if m.stale(msg.SessionID) {
			return m, nil
		}
		if msg.Err != nil {
			// Camera loss degrades frame analysis only; the interview goes on.
			m.cameraError = msg.Err.Error()
			m.cameraOn = false
			return m, nil
		}
		m.cameraOn = true
		m.cameraError = ""
		return m, nil

	case CaptureTickMsg:
		if m.stale(msg.SessionID) || m.phase != PhaseInterview {
			return m, nil
		}
		cmds := []tea.Cmd{captureTickCmd(msg.SessionID)}
		if m.cameraOn && m.cap != nil {
			cmds = append(cmds, captureFrameCmd(m.cap, m.api, msg.SessionID))
		}
		return m, tea.Batch(cmds...)

	case FrameAnalyzedMsg:
		if m.stale(msg.SessionID) || m.phase != PhaseInterview {
			return m, nil
		}
		if msg.Err != nil {
			// Slow or failed analysis is skipped; the next tick replaces it.
			return m, nil
		}
		analysis := msg.Analysis
		m.analysis = &analysis
		return m, nil

	case PollTickMsg:
		if m.stale(msg.SessionID) || m.phase != PhaseInterview {
			return m, nil
		}
		return m, tea.Batch(
			checkStatusCmd(m.api, msg.SessionID),
			pollTickCmd(msg.SessionID),
		)

	case StatusMsg:
		return m.handleStatus(msg)

	case SubmitResultMsg:
		if m.stale(msg.SessionID) {
			return m, nil
		}
		m.submitting = false
		if msg.Err != nil {
			m.errorMessage = msg.Err.Error()
			return m, nil
		}
		m.session.Answers = append(m.session.Answers, QAPair{Question: msg.Question, Answer: msg.Answer})
		m.answerSubmitted = true
		return m, nil

	case QACountMsg:
		return m.handleQACount(msg)

	case EndResultMsg:
		if m.stale(msg.SessionID) {
			return m, nil
		}
		m.ending = false
		if msg.Err != nil {
			m.errorMessage = msg.Err.Error()
			return m, nil
		}
		return m.finishSession()

	case FeedbackMsg:
		if m.stale(msg.SessionID) {
			return m, nil
		}
		if msg.Err != nil {
			m.errorMessage = msg.Err.Error()
			return m, nil
		}
		m.session.Feedback = msg.Resp.Feedback
		return m, nil

	case ListenToggledMsg:
		if m.stale(msg.SessionID) || m.phase != PhaseInterview {
			// A start ack that lands after the session finished leaves the
			// recognizer running with nobody reading it; shut it down.
			if msg.Err == nil && msg.Listening && m.cap != nil {
				return m, listenStopCmd(m.cap, msg.SessionID)
			}
			return m, nil
		}
		if msg.Err != nil {
			m.listening = false
			m.errorMessage = msg.Err.Error()
			return m, nil
		}
		m.listening = msg.Listening
		return m, nil
	}

	return m, nil
}

func (m Model) handleStartResult(msg StartResultMsg) (tea.Model, tea.Cmd) {
	m.starting = false
	if msg.Err != nil {
		m.errorMessage = msg.Err.Error()
		return m, nil
	}

	m.session = &Session{
		ID:            msg.Resp.SessionID,
		JobRole:       m.jobRole,
		Duration:      m.duration(),
		Status:        "active",
		TimeRemaining: m.duration() * 60,
	}
	m.phase = PhaseInterview
	m.analysis = nil
	m.currentAnswer = ""
	m.interim = ""
	m.answerSubmitted = false
	m.feedbackRequested = false
	m.errorMessage = ""

	// Camera and the two timers start only now that we are in the interview.
	cmds := []tea.Cmd{
		checkStatusCmd(m.api, m.session.ID),
		pollTickCmd(m.session.ID),
		captureTickCmd(m.session.ID),
	}
	if m.captureConnected && m.cap != nil {
		cmds = append(cmds, cameraStartCmd(m.cap, m.session.ID))
	} else {
		m.cameraError = "capture daemon unavailable"
	}

	if msg.Resp.FirstQuestion != "" {
		var model tea.Model
		var qCmd tea.Cmd
		model, qCmd = m.applyQuestion(msg.Resp.FirstQuestion, "")
		m = model.(Model)
		cmds = append(cmds, qCmd)
	} else {
		m.session.LoadingQuestion = true
		cmds = append(cmds, fetchQuestionCmd(m.api, m.session.ID))
	}

	return m, tea.Batch(cmds...)
}

// applyQuestion installs a new current question: previous answer text,
// interim fragment, and the submitted flag are always reset.
func (m Model) applyQuestion(question, questionID string) (tea.Model, tea.Cmd) {
	m.session.CurrentQuestion = question
	m.session.CurrentQuestionID = questionID
	m.session.LoadingQuestion = false
	m.currentAnswer = ""
	m.interim = ""
	m.answerSubmitted = false

	if m.captureConnected && m.cap != nil && question != "" {
		return m, speakCmd(m.cap, question, m.cfg.Voice)
	}
	return m, nil
}

func (m Model) handleStatus(msg StatusMsg) (tea.Model, tea.Cmd) {
	if m.stale(msg.SessionID) || m.phase != PhaseInterview {
		return m, nil
	}
	if msg.Err != nil {
		// Transient failure: the next poll tick retries implicitly.
		return m, nil
	}
	if !msg.Resp.Active {
		return m.finishSession()
	}
	m.session.TimeRemaining = msg.Resp.TimeRemaining
	return m, nil
}

// finishSession is the one-way transition to feedback: the session is marked
// completed, camera and recognizer are released, and feedback is fetched
// exactly once.
func (m Model) finishSession() (tea.Model, tea.Cmd) {
	m.session.Status = "completed"
	m.phase = PhaseFeedback
	m.confirmEnd = false
	m.qaCountWarning = false

	var cmds []tea.Cmd
	if m.cap != nil {
		if m.cameraOn {
			cmds = append(cmds, cameraStopCmd(m.cap))
			m.cameraOn = false
		}
		if m.listening {
			cmds = append(cmds, listenStopCmd(m.cap, m.session.ID))
			m.listening = false
		}
		cmds = append(cmds, func() tea.Msg {
			m.cap.SendCommand(capture.Command{Cmd: "cancel_speak"})
			return nil
		})
	}

	if !m.feedbackRequested {
		m.feedbackRequested = true
		cmds = append(cmds, fetchFeedbackCmd(m.api, m.session.ID))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleQACount(msg QACountMsg) (tea.Model, tea.Cmd) {
	if m.stale(msg.SessionID) {
		return m, nil
	}
	if msg.Err != nil {
		m.ending = false
		m.errorMessage = msg.Err.Error()
		return m, nil
	}
	m.remoteQACount = msg.Count
	if msg.Count < len(m.session.Answers) {
		// The remote store is behind the local log: let the user decide.
		m.qaCountWarning = true
		return m, nil
	}
	return m, endInterviewCmd(m.api, m.session.ID)
}

// handleCaptureEvent folds a capture daemon event into the model.
func (m *Model) handleCaptureEvent(ev capture.Event) {
	switch ev.Event {
	case "partial":
		// Interim text is replaced wholesale on every update, never kept.
		m.interim = ev.Text

	case "final":
		if ev.Text != "" {
			if m.currentAnswer != "" {
				m.currentAnswer += " "
			}
			m.currentAnswer += ev.Text
		}
		m.interim = ""

	case "speech":
		switch ev.State {
		case capture.SpeechStarted:
			m.speaking = true
		case capture.SpeechEnded:
			m.speaking = false
		case capture.SpeechError:
			m.speaking = false
			// Interruptions happen whenever a new question replaces the
			// current utterance; they are not worth surfacing.
			if ev.Interrupted == nil || !*ev.Interrupted {
				m.speechError = ev.Message
			}
		}

	case "error":
		m.listening = false
		if ev.Transient == nil || !*ev.Transient {
			m.captureError = ev.Message
		}
	}
}

// ── Key handling ────────────────────────────────────────────────────────────

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == KeyQuit {
		return m, m.quit()
	}
	if key == KeyDismissError {
		m.errorMessage = ""
		return m, nil
	}

	switch m.phase {
	case PhaseSetup:
		return m.handleSetupKey(msg)
	case PhaseInterview:
		return m.handleInterviewKey(msg)
	case PhaseFeedback:
		return m.handleFeedbackKey(msg)
	}
	return m, nil
}

func (m Model) quit() tea.Cmd {
	var cmds []tea.Cmd
	if m.cap != nil {
		if m.cameraOn {
			cmds = append(cmds, cameraStopCmd(m.cap))
		}
		cap := m.cap
		evCap := m.evCap
		cmds = append(cmds, func() tea.Msg {
			cap.Close()
			if evCap != nil {
				evCap.Close()
			}
			return nil
		})
	}
	cmds = append(cmds, tea.Quit)
	return tea.Sequence(cmds...)
}

func (m Model) handleSetupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyTab:
		m.focusField = (m.focusField + 1) % 3
		return m, nil

	case KeyShiftTab:
		m.focusField = (m.focusField + 2) % 3
		return m, nil

	case KeyUp:
		if m.focusField == fieldDuration && m.durationIndex > 0 {
			m.durationIndex--
		}
		return m, nil

	case KeyDown:
		if m.focusField == fieldDuration && m.durationIndex < len(durationChoices)-1 {
			m.durationIndex++
		}
		return m, nil

	case KeyBackspace:
		switch m.focusField {
		case fieldJobRole:
			m.jobRole = trimLastRune(m.jobRole)
		case fieldCVPath:
			m.cvPath = trimLastRune(m.cvPath)
			m.cvSummary = nil
		}
		return m, nil

	case KeyEnter:
		return m.launchInterview()

	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			text := string(msg.Runes)
			if msg.Type == tea.KeySpace {
				text = " "
			}
			switch m.focusField {
			case fieldJobRole:
				m.jobRole += text
			case fieldCVPath:
				m.cvPath += text
				m.cvSummary = nil
			}
		}
		return m, nil
	}
}

// launchInterview validates the form and fires start-interview. All three
// fields must be present and the CV must be a real PDF before anything is
// uploaded.
func (m Model) launchInterview() (tea.Model, tea.Cmd) {
	if m.starting {
		return m, nil
	}
	if strings.TrimSpace(m.jobRole) == "" {
		m.setupError = "job role is required"
		return m, nil
	}
	if strings.TrimSpace(m.cvPath) == "" {
		m.setupError = "cv file is required"
		return m, nil
	}

	summary, err := cv.Check(strings.TrimSpace(m.cvPath))
	if err != nil {
		m.setupError = err.Error()
		return m, nil
	}
	m.cvSummary = summary
	m.setupError = ""
	m.starting = true
	return m, startInterviewCmd(m.api, summary, strings.TrimSpace(m.jobRole), m.duration())
}

func (m Model) handleInterviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Modal flows first: they capture all keys.
	if m.qaCountWarning {
		switch key {
		case "f", "F":
			m.qaCountWarning = false
			return m, endInterviewCmd(m.api, m.session.ID)
		case "a", "A", KeyEsc:
			m.qaCountWarning = false
			m.ending = false
			return m, nil
		}
		return m, nil
	}
	if m.confirmEnd {
		switch key {
		case "y", "Y":
			m.confirmEnd = false
			m.ending = true
			return m, qaCountCmd(m.api, m.session.ID)
		case "n", "N", KeyEsc:
			m.confirmEnd = false
			return m, nil
		}
		return m, nil
	}

	switch key {
	case KeyToggleListen:
		if !m.captureConnected || m.cap == nil {
			m.errorMessage = "speech capture unavailable"
			return m, nil
		}
		if m.listening {
			return m, listenStopCmd(m.cap, m.session.ID)
		}
		return m, listenStartCmd(m.cap, m.cfg.Locale, m.session.ID)

	case KeySubmit:
		return m.submitAnswer()

	case KeyNextQuestion:
		return m.nextQuestion()

	case KeyEndInterview:
		m.confirmEnd = true
		return m, nil

	case KeyBackspace:
		m.currentAnswer = trimLastRune(m.currentAnswer)
		return m, nil

	case KeyEnter:
		m.currentAnswer += "\n"
		return m, nil

	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			if msg.Type == tea.KeySpace {
				m.currentAnswer += " "
			} else {
				m.currentAnswer += string(msg.Runes)
			}
		}
		return m, nil
	}
}

// submitAnswer posts the current answer. Empty or whitespace-only answers
// are a validation error and leave the answer log untouched.
func (m Model) submitAnswer() (tea.Model, tea.Cmd) {
	if m.submitting || m.session == nil {
		return m, nil
	}
	answer := strings.TrimSpace(m.currentAnswer)
	if answer == "" {
		m.errorMessage = "answer is empty - say or type something first"
		return m, nil
	}
	if m.session.CurrentQuestion == "" || m.session.LoadingQuestion {
		m.errorMessage = "no active question to answer"
		return m, nil
	}
	m.submitting = true
	return m, submitAnswerCmd(m.api, m.session.ID, m.session.CurrentQuestion, answer)
}

// nextQuestion clears the displayed question before the fetch so a stale
// question never lingers while the new one loads.
func (m Model) nextQuestion() (tea.Model, tea.Cmd) {
	if !m.answerSubmitted || m.session == nil || m.session.LoadingQuestion {
		return m, nil
	}
	m.session.CurrentQuestion = ""
	m.session.CurrentQuestionID = ""
	m.session.LoadingQuestion = true
	m.currentAnswer = ""
	m.interim = ""
	m.answerSubmitted = false
	return m, fetchQuestionCmd(m.api, m.session.ID)
}

func (m Model) handleFeedbackKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "n", "N":
		// New session: the old record is destroyed, the form starts clean.
		m.session = nil
		m.analysis = nil
		m.phase = PhaseSetup
		m.jobRole = ""
		m.cvPath = ""
		m.cvSummary = nil
		m.setupError = ""
		m.errorMessage = ""
		m.currentAnswer = ""
		m.interim = ""
		m.answerSubmitted = false
		m.feedbackRequested = false
		m.listening = false
		m.speaking = false
		m.cameraOn = false
		m.cameraError = ""
		m.speechError = ""
		return m, nil

	case "q", "Q":
		return m, m.quit()
	}
	return m, nil
}

func trimLastRune(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	return string(runes[:len(runes)-1])
}

// formatClock renders seconds as MM:SS, e.g. 550 -> "09:10".
func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
