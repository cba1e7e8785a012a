package modes

import (
	"context"
	"sync"

	"civic-quiz-engine/internal/domain"
)

// PvPMode runs each player through their own engine while a shared Arena
// keyed by topic aggregates scores. The mode holds the arena map (shared
// infrastructure, not session state); everything per-session stays in the
// engine as usual.
type PvPMode struct {
	mu     sync.Mutex
	arenas map[string]*Arena
}

func NewPvPMode() *PvPMode {
	return &PvPMode{arenas: make(map[string]*Arena)}
}

func (m *PvPMode) Name() string        { return "pvp" }
func (m *PvPMode) DisplayName() string { return "Head to Head" }
func (m *PvPMode) Category() string    { return "versus" }

func (m *PvPMode) DefaultSettings() domain.Settings {
	return domain.Settings{
		ShowHints:        false,
		AllowSkip:        false,
		TimeLimitSeconds: 15,
	}
}

func (m *PvPMode) TimeLimit(settings domain.Settings) *int {
	return TimeLimitFromSettings(settings)
}

// Arena returns (creating if needed) the shared arena for a topic.
func (m *PvPMode) Arena(topicID string) *Arena {
	m.mu.Lock()
	defer m.mu.Unlock()
	if arena, ok := m.arenas[topicID]; ok {
		return arena
	}
	arena := newArena(topicID)
	m.arenas[topicID] = arena
	return arena
}

// DropIfEmpty removes an arena once the last participant has left.
func (m *PvPMode) DropIfEmpty(topicID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if arena, ok := m.arenas[topicID]; ok && arena.IsEmpty() {
		delete(m.arenas, topicID)
	}
}

func (m *PvPMode) OnModeStart(_ context.Context, mc *Context) error {
	m.Arena(mc.Key.TopicID).Join(mc.Key.Identity(), displayNameFor(mc.Key))
	return nil
}

// OnQuestionComplete pushes the player's points into the arena and counts the
// interaction in the session metadata.
func (m *PvPMode) OnQuestionComplete(_ context.Context, answer domain.Answer, mc *Context) error {
	if answer.Correct {
		points := 1
		if i := answer.QuestionIndex; i >= 0 && i < len(mc.Topic.Questions) && mc.Topic.Questions[i].Points > 0 {
			points = mc.Topic.Questions[i].Points
		}
		m.Arena(mc.Key.TopicID).Award(mc.Key.Identity(), points)
	}
	mc.Actions.UpdateMetadata(func(md *domain.Metadata) {
		md.SocialInteractions++
	})
	return nil
}

func (m *PvPMode) OnModeComplete(_ context.Context, results *domain.Results, mc *Context) error {
	board := m.Arena(mc.Key.TopicID).Leaderboard()
	if results.ModeSummary == nil {
		results.ModeSummary = map[string]any{}
	}
	results.ModeSummary["leaderboard"] = board

	rank := 0
	for i, entry := range board.Entries {
		if entry.UserID == mc.Key.Identity() {
			rank = i + 1
			break
		}
	}
	results.ModeSummary["rank"] = rank
	return nil
}

func (m *PvPMode) RenderHeader(mc *Context) View {
	return View{
		"mode":        m.DisplayName(),
		"leaderboard": m.Arena(mc.Key.TopicID).Leaderboard(),
	}
}

func (m *PvPMode) RenderInterface(mc *Context) View {
	return View{"versus": "players"}
}

func (m *PvPMode) RenderFooter(mc *Context) View {
	return View{
		"answered": len(mc.Session.Answers),
		"total":    len(mc.Topic.Questions),
	}
}

func (m *PvPMode) RenderQuestion(mc *Context) View {
	q, ok := mc.CurrentQuestion()
	if !ok {
		return View{}
	}
	return View{"prompt": q.Prompt}
}

func (m *PvPMode) RenderResults(results domain.Results, _ *Context) View {
	return View{
		"score":   results.Score,
		"summary": results.ModeSummary,
	}
}

func displayNameFor(key domain.ProgressKey) string {
	if key.UserID != "" {
		return key.UserID
	}
	return "guest-" + shortToken(key.GuestToken)
}

func shortToken(token string) string {
	if len(token) <= 6 {
		return token
	}
	return token[:6]
}
