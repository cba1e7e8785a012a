package modes

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"civic-quiz-engine/internal/domain"
)

// AIBattleMode pits the learner against a simulated opponent that answers
// each question with a configurable accuracy. The opponent's tally lives in
// the session's mode state, never in the mode itself.
type AIBattleMode struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewAIBattleMode() *AIBattleMode {
	return NewAIBattleModeWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewAIBattleModeWithRand allows deterministic opponents in tests.
func NewAIBattleModeWithRand(rnd *rand.Rand) *AIBattleMode {
	return &AIBattleMode{rnd: rnd}
}

func (m *AIBattleMode) Name() string        { return "ai_battle" }
func (m *AIBattleMode) DisplayName() string { return "AI Battle" }
func (m *AIBattleMode) Category() string    { return "versus" }

func (m *AIBattleMode) DefaultSettings() domain.Settings {
	return domain.Settings{
		ShowHints:        false,
		AllowSkip:        false,
		TimeLimitSeconds: 20,
		OpponentAccuracy: 0.7,
	}
}

func (m *AIBattleMode) TimeLimit(settings domain.Settings) *int {
	return TimeLimitFromSettings(settings)
}

func (m *AIBattleMode) InitialState() any {
	return map[string]any{
		"opponentCorrect": 0,
	}
}

// OnQuestionComplete rolls the opponent's answer for the question the learner
// just finished and updates the running tally through the actions facade.
func (m *AIBattleMode) OnQuestionComplete(_ context.Context, _ domain.Answer, mc *Context) error {
	accuracy := mc.Settings().OpponentAccuracy

	m.mu.Lock()
	hit := m.rnd.Float64() < accuracy
	m.mu.Unlock()

	if hit {
		state, _ := mc.Session.ModeState.(map[string]any)
		if state == nil {
			state = map[string]any{}
		}
		state["opponentCorrect"] = asInt(state["opponentCorrect"]) + 1
		mc.Actions.UpdateModeState(state)
	}
	return nil
}

func (m *AIBattleMode) OnModeComplete(_ context.Context, results *domain.Results, mc *Context) error {
	state, _ := mc.Session.ModeState.(map[string]any)
	opponent := asInt(state["opponentCorrect"])

	outcome := "won"
	switch {
	case results.CorrectAnswers < opponent:
		outcome = "lost"
	case results.CorrectAnswers == opponent:
		outcome = "draw"
	}

	if results.ModeSummary == nil {
		results.ModeSummary = map[string]any{}
	}
	results.ModeSummary["opponentCorrect"] = opponent
	results.ModeSummary["outcome"] = outcome

	if outcome == "won" {
		mc.Actions.UpdateMetadata(func(md *domain.Metadata) {
			md.AchievementsEarned = append(md.AchievementsEarned, "beat_the_bot")
		})
	}
	return nil
}

func (m *AIBattleMode) RenderHeader(mc *Context) View {
	state, _ := mc.Session.ModeState.(map[string]any)
	return View{
		"mode":            m.DisplayName(),
		"playerCorrect":   mc.Session.CorrectCount(),
		"opponentCorrect": asInt(state["opponentCorrect"]),
	}
}

func (m *AIBattleMode) RenderInterface(mc *Context) View {
	return View{"versus": "ai"}
}

func (m *AIBattleMode) RenderFooter(mc *Context) View {
	return View{
		"answered": len(mc.Session.Answers),
		"total":    len(mc.Topic.Questions),
	}
}

func (m *AIBattleMode) RenderQuestion(mc *Context) View {
	q, ok := mc.CurrentQuestion()
	if !ok {
		return View{}
	}
	return View{"prompt": q.Prompt}
}

func (m *AIBattleMode) RenderResults(results domain.Results, _ *Context) View {
	return View{
		"score":   results.Score,
		"summary": results.ModeSummary,
	}
}
