package modes

import (
	"context"
	"fmt"

	"civic-quiz-engine/internal/domain"
)

// PracticeMode is the untimed learning mode: hints and skips are allowed, and
// engaging with hints earns a small capped score bonus instead of a penalty.
type PracticeMode struct{}

func NewPracticeMode() *PracticeMode { return &PracticeMode{} }

func (m *PracticeMode) Name() string        { return "practice" }
func (m *PracticeMode) DisplayName() string { return "Practice" }
func (m *PracticeMode) Category() string    { return "solo" }

func (m *PracticeMode) DefaultSettings() domain.Settings {
	return domain.Settings{
		ShowHints: true,
		AllowSkip: true,
		// TimeLimitSeconds stays zero: practice is never timed.
	}
}

// TimeLimit disables the countdown regardless of settings overrides.
func (m *PracticeMode) TimeLimit(domain.Settings) *int { return nil }

// Mode state keeps simple counters so the results screen can report
// engagement. Stored as a plain map so it survives JSON snapshot round-trips.
func (m *PracticeMode) InitialState() any {
	return map[string]any{
		"hintsUsed": 0,
		"skipped":   0,
	}
}

func (m *PracticeMode) ReduceModeState(state any, action Action) any {
	counters, ok := state.(map[string]any)
	if !ok {
		counters = map[string]any{}
	}
	switch action.Type {
	case "HINT_USED":
		counters["hintsUsed"] = asInt(counters["hintsUsed"]) + 1
	case "QUESTION_SKIPPED":
		counters["skipped"] = asInt(counters["skipped"]) + 1
	}
	return counters
}

func (m *PracticeMode) OnQuestionComplete(_ context.Context, answer domain.Answer, mc *Context) error {
	if answer.Value == "" {
		mc.Actions.UpdateModeState(m.ReduceModeState(mc.Session.ModeState, Action{Type: "QUESTION_SKIPPED"}))
	}
	return nil
}

func (m *PracticeMode) OnModeComplete(_ context.Context, results *domain.Results, mc *Context) error {
	counters, _ := mc.Session.ModeState.(map[string]any)
	if results.ModeSummary == nil {
		results.ModeSummary = map[string]any{}
	}
	results.ModeSummary["hintsUsed"] = asInt(counters["hintsUsed"])
	results.ModeSummary["skipped"] = asInt(counters["skipped"])
	return nil
}

// CalculateScore awards percent-correct plus 2 points per answer where a hint
// was consulted, capped at 10 bonus points and 100 total.
func (m *PracticeMode) CalculateScore(answers []domain.Answer, questions []domain.Question) int {
	score := PercentScore(answers, questions)
	bonus := 0
	for _, a := range answers {
		if a.HintUsed {
			bonus += 2
		}
	}
	if bonus > 10 {
		bonus = 10
	}
	score += bonus
	if score > 100 {
		score = 100
	}
	return score
}

func (m *PracticeMode) RenderHeader(mc *Context) View {
	return View{
		"mode":  m.DisplayName(),
		"timed": false,
	}
}

func (m *PracticeMode) RenderInterface(mc *Context) View {
	return View{"hintsAvailable": mc.Settings().ShowHints}
}

func (m *PracticeMode) RenderFooter(mc *Context) View {
	return View{
		"answered": len(mc.Session.Answers),
		"total":    len(mc.Topic.Questions),
	}
}

func (m *PracticeMode) RenderQuestion(mc *Context) View {
	q, ok := mc.CurrentQuestion()
	if !ok {
		return View{}
	}
	return View{
		"prompt":  q.Prompt,
		"hint":    q.Hint,
		"canSkip": mc.Settings().AllowSkip,
	}
}

func (m *PracticeMode) RenderResults(results domain.Results, _ *Context) View {
	return View{
		"score":   results.Score,
		"correct": results.CorrectAnswers,
		"total":   results.TotalQuestions,
		"summary": results.ModeSummary,
	}
}

func (m *PracticeMode) AriaLabel(mc *Context) string {
	return fmt.Sprintf("Practice quiz, question %d of %d",
		mc.Session.CurrentQuestionIndex+1, len(mc.Topic.Questions))
}

func (m *PracticeMode) KeyboardShortcuts() []Shortcut {
	return []Shortcut{
		{Key: "h", Action: "hint", Description: "Show a hint"},
		{Key: "s", Action: "skip", Description: "Skip this question"},
	}
}

// asInt tolerates both int and float64 (the latter after a JSON round-trip).
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}
