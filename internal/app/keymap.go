package app

// Key binding constants used in handleKey.
const (
	KeyQuit         = "ctrl+c"
	KeyTab          = "tab"
	KeyShiftTab     = "shift+tab"
	KeyEnter        = "enter"
	KeyBackspace    = "backspace"
	KeyUp           = "up"
	KeyDown         = "down"
	KeyEsc          = "esc"
	KeySubmit       = "ctrl+s"
	KeyNextQuestion = "ctrl+n"
	KeyToggleListen = "ctrl+l"
	KeyEndInterview = "ctrl+e"
	KeyDismissError = "ctrl+x"
)
