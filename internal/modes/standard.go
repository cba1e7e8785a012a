package modes

import (
	"fmt"

	"civic-quiz-engine/internal/domain"
)

// StandardMode is the default timed quiz: no hints, no skips, percent-correct
// scoring, 30 seconds per question unless overridden.
type StandardMode struct{}

func NewStandardMode() *StandardMode { return &StandardMode{} }

func (m *StandardMode) Name() string        { return "standard" }
func (m *StandardMode) DisplayName() string { return "Standard Quiz" }
func (m *StandardMode) Category() string    { return "solo" }

func (m *StandardMode) DefaultSettings() domain.Settings {
	return domain.Settings{
		ShowHints:        false,
		AllowSkip:        false,
		TimeLimitSeconds: 30,
	}
}

func (m *StandardMode) TimeLimit(settings domain.Settings) *int {
	return TimeLimitFromSettings(settings)
}

func (m *StandardMode) AriaLabel(mc *Context) string {
	remaining := "untimed"
	if mc.Session.TimeRemaining != nil {
		remaining = fmt.Sprintf("%d seconds left", *mc.Session.TimeRemaining)
	}
	return fmt.Sprintf("Question %d of %d, %s",
		mc.Session.CurrentQuestionIndex+1, len(mc.Topic.Questions), remaining)
}

func (m *StandardMode) KeyboardShortcuts() []Shortcut {
	return []Shortcut{
		{Key: "1-4", Action: "select", Description: "Choose an answer"},
		{Key: "enter", Action: "submit", Description: "Submit the selected answer"},
	}
}
