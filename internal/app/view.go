package app

import (
	"fmt"
	"strings"

	"github.com/tbeaumont/rehearse/internal/ui"

	"github.com/charmbracelet/lipgloss"
)

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	switch m.phase {
	case PhaseSetup:
		sections = append(sections, m.renderSetup())
	case PhaseInterview:
		sections = append(sections, m.renderInterview())
	case PhaseFeedback:
		sections = append(sections, m.renderFeedback())
	}

	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}

	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("REHEARSE")

	var phase string
	switch m.phase {
	case PhaseSetup:
		phase = ui.PhaseStyle.Render(" — setup")
	case PhaseInterview:
		phase = ui.PhaseStyle.Render(" — interview")
	case PhaseFeedback:
		phase = ui.PhaseStyle.Render(" — feedback")
	}

	var daemon string
	if !m.captureConnected {
		daemon = ui.WarnStyle.Render("  [no capture daemon]")
	}

	return title + phase + daemon
}

// ── Setup ───────────────────────────────────────────────────────────────────

func (m Model) renderSetup() string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, "  "+ui.QuestionStyle.Render("New practice interview"))
	lines = append(lines, "")

	lines = append(lines, m.renderFormField(fieldJobRole, "Job role", m.jobRole, "e.g. Backend Engineer"))
	lines = append(lines, m.renderFormField(fieldCVPath, "CV (PDF)", m.cvPath, "path/to/cv.pdf"))

	duration := fmt.Sprintf("%d minutes", m.duration())
	if m.focusField == fieldDuration {
		duration += ui.DimStyle.Render("  ↑/↓ to change")
	}
	lines = append(lines, m.renderFormField(fieldDuration, "Duration", duration, ""))

	if m.cvSummary != nil {
		info := fmt.Sprintf("%s — %d page(s), %d KB", m.cvSummary.Filename, m.cvSummary.Pages, m.cvSummary.SizeBytes/1024)
		lines = append(lines, "")
		lines = append(lines, "  "+ui.SubmittedStyle.Render("✓ ")+ui.DimStyle.Render(info))
	}

	if m.setupError != "" {
		lines = append(lines, "")
		lines = append(lines, "  "+ui.ErrorTextStyle.Render(m.setupError))
	}

	if m.starting {
		lines = append(lines, "")
		lines = append(lines, "  "+ui.SpinnerStyle.Render("⟳ starting interview..."))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m Model) renderFormField(field setupField, label, value, placeholder string) string {
	var styledLabel string
	if m.focusField == field {
		styledLabel = ui.FormLabelActiveStyle.Render("▸ " + label)
	} else {
		styledLabel = ui.FormLabelStyle.Render("  " + label)
	}
	styledLabel = padRight(styledLabel, 16)

	if value == "" {
		return "  " + styledLabel + ui.DimStyle.Render(placeholder)
	}
	rendered := ui.FormValueStyle.Render(value)
	if m.focusField == field && field != fieldDuration {
		rendered += ui.FormValueStyle.Render("▌")
	}
	return "  " + styledLabel + rendered
}

// ── Interview ───────────────────────────────────────────────────────────────

func (m Model) renderInterview() string {
	if m.session == nil {
		return ""
	}

	var lines []string

	lines = append(lines, m.renderInterviewStatus())
	lines = append(lines, "")

	// Question panel
	if m.session.LoadingQuestion {
		lines = append(lines, "  "+ui.SpinnerStyle.Render("⟳ loading next question..."))
	} else if m.session.CurrentQuestion != "" {
		for i, l := range wrapText(m.session.CurrentQuestion, max(10, m.width-6)) {
			if i == 0 {
				lines = append(lines, "  "+ui.QuestionStyle.Render("Q: "+l))
			} else {
				lines = append(lines, "     "+ui.QuestionStyle.Render(l))
			}
		}
	}
	lines = append(lines, "")

	// Answer panel: committed text plus the live interim fragment.
	answer := m.currentAnswer
	if answer == "" && m.interim == "" {
		lines = append(lines, "  "+ui.DimStyle.Render("(speak or type your answer)"))
	} else {
		wrapped := wrapText(answer, max(10, m.width-6))
		for i, l := range wrapped {
			prefix := "     "
			if i == 0 {
				prefix = "  A: "
			}
			lines = append(lines, prefix+ui.AnswerStyle.Render(l))
		}
		if m.interim != "" {
			for _, l := range wrapText(m.interim+"▌", max(10, m.width-6)) {
				lines = append(lines, "     "+ui.InterimStyle.Render(l))
			}
		}
	}

	if m.answerSubmitted {
		lines = append(lines, "")
		lines = append(lines, "  "+ui.SubmittedStyle.Render("✓ answer submitted"))
	}
	if m.submitting {
		lines = append(lines, "")
		lines = append(lines, "  "+ui.SpinnerStyle.Render("⟳ submitting..."))
	}

	if m.cameraError != "" {
		lines = append(lines, "")
		lines = append(lines, "  "+ui.WarnStyle.Render("camera unavailable: ")+ui.DimStyle.Render(m.cameraError))
	}
	if m.speechError != "" {
		lines = append(lines, "  "+ui.WarnStyle.Render("speech: ")+ui.DimStyle.Render(m.speechError))
	}

	if m.confirmEnd {
		lines = append(lines, "")
		lines = append(lines, "  "+ui.WarnStyle.Render("End the interview early? (y/n)"))
	}
	if m.qaCountWarning {
		lines = append(lines, "")
		msg := fmt.Sprintf("Service has %d of %d answers recorded. (f)orce end / (a)bort", m.remoteQACount, len(m.session.Answers))
		lines = append(lines, "  "+ui.WarnStyle.Render(msg))
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderInterviewStatus() string {
	// Listening indicator
	var dot string
	if m.listening {
		dot = ui.ListeningDotStyle.Render("● LISTENING")
	} else {
		dot = ui.IdleDotStyle.Render("○ MUTED")
	}

	var speaking string
	if m.speaking {
		speaking = "  " + ui.SpeakingStyle.Render("🗣 speaking")
	}

	// Countdown clock
	clock := formatClock(m.session.TimeRemaining)
	var timer string
	if m.session.TimeRemaining <= 60 {
		timer = ui.TimerLowStyle.Render("⏱ " + clock)
	} else {
		timer = ui.TimerStyle.Render("⏱ " + clock)
	}

	answered := ui.DimStyle.Render(fmt.Sprintf("answered: %d", len(m.session.Answers)))

	var confidence string
	if m.analysis != nil {
		confidence = "  " + renderConfidenceMeter(m.analysis.Confidence)
		if m.analysis.Emotion != "" {
			confidence += "  " + ui.DimStyle.Render(m.analysis.Emotion)
		}
		if !m.analysis.FaceDetected {
			confidence += "  " + ui.WarnStyle.Render("no face")
		}
	}

	return "  " + dot + speaking + "  " + timer + "  " + answered + confidence
}

func renderConfidenceMeter(confidence float64) string {
	const barLen = 8
	filled := int(confidence / 100 * barLen)
	if filled > barLen {
		filled = barLen
	}

	var bar string
	for i := 0; i < barLen; i++ {
		if i < filled {
			pct := float64(i) / float64(barLen)
			if pct > 0.6 {
				bar += ui.MeterGreenStyle.Render("█")
			} else {
				bar += ui.MeterYellowStyle.Render("█")
			}
		} else {
			bar += ui.MeterGrayStyle.Render("░")
		}
	}
	return ui.DimStyle.Render("CONF") + " " + bar
}

// ── Feedback ────────────────────────────────────────────────────────────────

func (m Model) renderFeedback() string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, "  "+ui.QuestionStyle.Render("Interview complete"))
	if m.session != nil {
		summary := fmt.Sprintf("%s — %d question(s) answered", m.session.JobRole, len(m.session.Answers))
		lines = append(lines, "  "+ui.DimStyle.Render(summary))
	}
	lines = append(lines, "")

	if m.session == nil || m.session.Feedback == "" {
		lines = append(lines, "  "+ui.SpinnerStyle.Render("⟳ generating feedback..."))
	} else {
		for _, l := range wrapText(m.session.Feedback, max(10, m.width-4)) {
			lines = append(lines, "  "+ui.FeedbackStyle.Render(l))
		}
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// ── Shared chrome ───────────────────────────────────────────────────────────

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage) +
		ui.DimStyle.Render("  (ctrl+x to dismiss)")
}

func (m Model) renderFooter() string {
	var parts []string

	switch m.phase {
	case PhaseSetup:
		parts = append(parts, ui.FooterKeyStyle.Render("Tab")+ui.FooterDescStyle.Render(" Next field"))
		parts = append(parts, ui.FooterKeyStyle.Render("Enter")+ui.FooterDescStyle.Render(" Start"))
	case PhaseInterview:
		if m.listening {
			parts = append(parts, ui.FooterKeyStyle.Render("^L")+ui.FooterDescStyle.Render(" Mute"))
		} else {
			parts = append(parts, ui.FooterKeyStyle.Render("^L")+ui.FooterDescStyle.Render(" Listen"))
		}
		parts = append(parts, ui.FooterKeyStyle.Render("^S")+ui.FooterDescStyle.Render(" Submit"))
		if m.answerSubmitted {
			parts = append(parts, ui.FooterKeyStyle.Render("^N")+ui.FooterDescStyle.Render(" Next"))
		}
		parts = append(parts, ui.FooterKeyStyle.Render("^E")+ui.FooterDescStyle.Render(" End"))
	case PhaseFeedback:
		parts = append(parts, ui.FooterKeyStyle.Render("n")+ui.FooterDescStyle.Render(" New interview"))
		parts = append(parts, ui.FooterKeyStyle.Render("q")+ui.FooterDescStyle.Render(" Quit"))
	}

	parts = append(parts, ui.FooterKeyStyle.Render("^C")+ui.FooterDescStyle.Render(" Quit"))

	return strings.Join(parts, "  ")
}

// Helpers

func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if len(current)+1+len(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		} else {
			lines = append(lines, "")
		}
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
