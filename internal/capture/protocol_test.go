package capture

import (
	"encoding/json"
	"testing"
)

func TestCommandMarshalSpeak(t *testing.T) {
	cmd := Command{
		Cmd:   "speak",
		Text:  "Tell me about a project you are proud of.",
		Voice: "en-US-standard",
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Command
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.Cmd != "speak" {
		t.Errorf("cmd = %q, want %q", got.Cmd, "speak")
	}
	if got.Text != "Tell me about a project you are proud of." {
		t.Errorf("text = %q", got.Text)
	}
	if got.Voice != "en-US-standard" {
		t.Errorf("voice = %q", got.Voice)
	}
}

func TestCommandOmitsEmptyFields(t *testing.T) {
	cmd := Command{Cmd: "camera_stop"}
	data, err := json.Marshal(cmd)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}

	if _, ok := raw["text"]; ok {
		t.Error("camera_stop command should omit text")
	}
	if _, ok := raw["voice"]; ok {
		t.Error("camera_stop command should omit voice")
	}
	if _, ok := raw["quality"]; ok {
		t.Error("camera_stop command should omit quality")
	}
}

func TestCommandFrameQuality(t *testing.T) {
	cmd := Command{Cmd: "frame", Quality: IntPtr(80)}

	data, err := json.Marshal(cmd)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Command
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.Quality == nil || *got.Quality != 80 {
		t.Errorf("quality = %v, want 80", got.Quality)
	}
}

func TestResponseFrame(t *testing.T) {
	j := `{"ok":true,"frame":"/9j/4AAQSkZJRg=="}`

	var resp Response
	if err := json.Unmarshal([]byte(j), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !resp.OK {
		t.Error("ok = false, want true")
	}
	if resp.Frame != "/9j/4AAQSkZJRg==" {
		t.Errorf("frame = %q", resp.Frame)
	}
}

func TestResponseError(t *testing.T) {
	j := `{"ok":false,"error":"camera permission denied"}`

	var resp Response
	if err := json.Unmarshal([]byte(j), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.OK {
		t.Error("ok = true, want false")
	}
	if resp.Error != "camera permission denied" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestEventPartial(t *testing.T) {
	j := `{"event":"partial","text":"so in my last role"}`

	var ev Event
	if err := json.Unmarshal([]byte(j), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if ev.Event != "partial" {
		t.Errorf("event = %q, want %q", ev.Event, "partial")
	}
	if ev.Text != "so in my last role" {
		t.Errorf("text = %q", ev.Text)
	}
}

func TestEventFinal(t *testing.T) {
	j := `{"event":"final","text":"So in my last role I led the migration."}`

	var ev Event
	if err := json.Unmarshal([]byte(j), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if ev.Event != "final" {
		t.Errorf("event = %q, want %q", ev.Event, "final")
	}
	if ev.Text == "" {
		t.Error("text should not be empty")
	}
}

func TestEventSpeechInterrupted(t *testing.T) {
	j := `{"event":"speech","state":"error","interrupted":true}`

	var ev Event
	if err := json.Unmarshal([]byte(j), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if ev.State != SpeechError {
		t.Errorf("state = %q, want %q", ev.State, SpeechError)
	}
	if ev.Interrupted == nil || !*ev.Interrupted {
		t.Errorf("interrupted = %v, want true", ev.Interrupted)
	}
}

func TestEventError(t *testing.T) {
	j := `{"event":"error","message":"recognizer stopped","transient":true}`

	var ev Event
	if err := json.Unmarshal([]byte(j), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if ev.Message != "recognizer stopped" {
		t.Errorf("message = %q", ev.Message)
	}
	if ev.Transient == nil || !*ev.Transient {
		t.Errorf("transient = %v, want true", ev.Transient)
	}
}

func TestBoolPtr(t *testing.T) {
	p := BoolPtr(true)
	if p == nil || !*p {
		t.Error("BoolPtr(true) should return pointer to true")
	}

	p = BoolPtr(false)
	if p == nil || *p {
		t.Error("BoolPtr(false) should return pointer to false")
	}
}
