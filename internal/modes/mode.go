package modes

import (
	"context"

	"civic-quiz-engine/internal/domain"
)

// GameMode is the descriptor every pluggable mode implements. A mode is
// stateless: all per-session state lives in the session's ModeState, which the
// engine owns and passes back through Context. Everything beyond the
// descriptor is an optional capability discovered by type assertion.
type GameMode interface {
	Name() string
	DisplayName() string
	Category() string
	DefaultSettings() domain.Settings
}

// View is a structured render payload handed to the transport layer. The
// engine owns no rendering; modes that implement Renderer inject these.
type View map[string]any

// Shortcut describes one keyboard binding a mode exposes to clients.
type Shortcut struct {
	Key         string `json:"key"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

// Action is a mode-private event routed through a mode's local reducer,
// distinct from the engine's own action types.
type Action struct {
	Type    string
	Payload any
}

// Actions is the mutation surface handed to mode hooks. Hooks never reach
// into the engine's reducer directly; they request changes here.
type Actions interface {
	Next() error
	Previous() error
	GoTo(index int) error
	Submit(ctx context.Context, value string) (domain.Answer, bool, error)
	UpdateModeState(state any)
	UpdateMetadata(update func(*domain.Metadata))
	ShowModal(id string)
	HideModal()
	SaveProgress(ctx context.Context) error
	ClearProgress(ctx context.Context) error
}

// Context is the read view given to every hook alongside Actions.
type Context struct {
	Session domain.Session
	Topic   domain.Topic
	Key     domain.ProgressKey
	Actions Actions
}

// CurrentQuestion returns the question addressed by the session index.
func (c *Context) CurrentQuestion() (domain.Question, bool) {
	i := c.Session.CurrentQuestionIndex
	if i < 0 || i >= len(c.Topic.Questions) {
		return domain.Question{}, false
	}
	return c.Topic.Questions[i], true
}

// Settings returns the merged mode settings for the session.
func (c *Context) Settings() domain.Settings {
	return c.Session.ModeSettings
}

// Initializer seeds the session's opaque mode state. Default is nil state.
type Initializer interface {
	InitialState() any
}

// StateReducer lets a mode reduce its private state on mode-local actions.
type StateReducer interface {
	ReduceModeState(state any, action Action) any
}

// ModeStarter runs once, after restore and before the first question.
type ModeStarter interface {
	OnModeStart(ctx context.Context, mc *Context) error
}

// QuestionStarter runs when a question becomes current.
type QuestionStarter interface {
	OnQuestionStart(ctx context.Context, mc *Context) error
}

// AnswerValidator annotates correctness and may veto a submission by
// returning accept=false, in which case nothing is recorded or persisted.
// The mode is the sole authority on correctness; without this capability the
// engine falls back to comparing the value against the question's correct
// option id.
type AnswerValidator interface {
	OnAnswerSubmit(ctx context.Context, provisional domain.Answer, mc *Context) (domain.Answer, bool, error)
}

// QuestionCompleter runs after an answer has been recorded.
type QuestionCompleter interface {
	OnQuestionComplete(ctx context.Context, answer domain.Answer, mc *Context) error
}

// ModeCompleter runs once with the assembled results; it may attach
// mode-specific summary metadata before the caller sees them.
type ModeCompleter interface {
	OnModeComplete(ctx context.Context, results *domain.Results, mc *Context) error
}

// Scorer overrides the default percent-correct scoring policy.
type Scorer interface {
	CalculateScore(answers []domain.Answer, questions []domain.Question) int
}

// TimeLimiter sets the per-question countdown; nil disables the timer.
type TimeLimiter interface {
	TimeLimit(settings domain.Settings) *int
}

// Renderer injects structured UI payloads; the engine serves defaults when a
// mode lacks this capability.
type Renderer interface {
	RenderHeader(mc *Context) View
	RenderInterface(mc *Context) View
	RenderFooter(mc *Context) View
	RenderQuestion(mc *Context) View
	RenderResults(results domain.Results, mc *Context) View
}

// Accessible exposes accessibility affordances to clients.
type Accessible interface {
	AriaLabel(mc *Context) string
	KeyboardShortcuts() []Shortcut
}

// PercentScore is the default scoring policy: percent of questions answered
// correctly, rounded to the nearest integer.
func PercentScore(answers []domain.Answer, questions []domain.Question) int {
	if len(questions) == 0 {
		return 0
	}
	correct := 0
	for _, a := range answers {
		if a.Correct {
			correct++
		}
	}
	return (correct*100 + len(questions)/2) / len(questions)
}

// TimeLimitFromSettings is the default timer policy: the settings value, or
// nil when unset.
func TimeLimitFromSettings(settings domain.Settings) *int {
	if settings.TimeLimitSeconds <= 0 {
		return nil
	}
	limit := settings.TimeLimitSeconds
	return &limit
}
