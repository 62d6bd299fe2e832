// Package capture provides the client and protocol types for communicating
// with rehearse-captured, the local device daemon that owns the camera,
// microphone transcription, and speech synthesis, over a Unix socket using
// NDJSON.
package capture

// Command is sent from the client to the capture daemon.
type Command struct {
	Cmd     string `json:"cmd"`
	Text    string `json:"text,omitempty"`    // speak
	Voice   string `json:"voice,omitempty"`   // speak: preferred voice name
	Locale  string `json:"locale,omitempty"`  // listen_start
	Quality *int   `json:"quality,omitempty"` // frame: JPEG quality 1-100
}

// Response is returned by the daemon after processing a command.
type Response struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	Frame     string `json:"frame,omitempty"` // base64 JPEG, for the frame command
	Camera    *bool  `json:"camera,omitempty"`
	Listening *bool  `json:"listening,omitempty"`
	Speaking  *bool  `json:"speaking,omitempty"`
	Device    string `json:"device,omitempty"`
}

// Event is streamed from the daemon to subscribed clients.
//
// Event kinds:
//   - "partial": an unfinalized transcript fragment; replaces the previous one
//   - "final": a finalized transcript fragment; append in order
//   - "speech": utterance lifecycle (State started/ended/error)
//   - "error": a device or recognizer error
type Event struct {
	Event       string `json:"event"`
	Text        string `json:"text,omitempty"`
	State       string `json:"state,omitempty"` // speech: started, ended, error
	Interrupted *bool  `json:"interrupted,omitempty"`
	Message     string `json:"message,omitempty"`
	Transient   *bool  `json:"transient,omitempty"`
}

// Speech event states.
const (
	SpeechStarted = "started"
	SpeechEnded   = "ended"
	SpeechError   = "error"
)

// BoolPtr returns a pointer to a bool value. Convenience for building commands.
func BoolPtr(b bool) *bool { return &b }

// IntPtr returns a pointer to an int value.
func IntPtr(n int) *int { return &n }
