package domain

import "time"

// Phase enumerates the lifecycle of a quiz session.
type Phase string

const (
	PhaseLoading      Phase = "loading"
	PhaseInitializing Phase = "initializing"
	PhaseInProgress   Phase = "in_progress"
	PhaseCompleted    Phase = "completed"
)

// Option represents a possible answer for a question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question models a quiz question. CorrectOptionID never leaves the process
// via snapshots; progress data must not leak answer keys to clients.
type Question struct {
	ID              string   `json:"id"`
	Prompt          string   `json:"prompt"`
	Options         []Option `json:"options"`
	CorrectOptionID string   `json:"correctOptionId"`
	Explanation     string   `json:"explanation,omitempty"`
	Category        string   `json:"category,omitempty"`
	Hint            string   `json:"hint,omitempty"`
	Points          int      `json:"points"` // defaults to 1 if zero
}

// Topic is an ordered question list plus its descriptor.
type Topic struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
}

// Answer records one submitted answer. Correctness is decided by the active
// game mode (or the engine default when the mode has no opinion); the reducer
// only stores what it is given.
type Answer struct {
	QuestionIndex    int    `json:"questionIndex"`
	Value            string `json:"value"`
	Correct          bool   `json:"correct"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
	HintUsed         bool   `json:"hintUsed,omitempty"`
}

// Settings is the merged mode configuration for one session. Modes supply
// defaults; callers override via SettingsPatch.
type Settings struct {
	ShowHints        bool    `json:"showHints"`
	AllowSkip        bool    `json:"allowSkip"`
	TimeLimitSeconds int     `json:"timeLimitSeconds"` // per question; 0 = untimed
	ShuffleOptions   bool    `json:"shuffleOptions"`
	OpponentAccuracy float64 `json:"opponentAccuracy,omitempty"`
}

// SettingsPatch overrides individual settings; nil fields keep the mode default.
type SettingsPatch struct {
	ShowHints        *bool
	AllowSkip        *bool
	TimeLimitSeconds *int
	ShuffleOptions   *bool
	OpponentAccuracy *float64
}

// Apply returns s with every non-nil patch field overridden.
func (s Settings) Apply(p SettingsPatch) Settings {
	if p.ShowHints != nil {
		s.ShowHints = *p.ShowHints
	}
	if p.AllowSkip != nil {
		s.AllowSkip = *p.AllowSkip
	}
	if p.TimeLimitSeconds != nil {
		s.TimeLimitSeconds = *p.TimeLimitSeconds
	}
	if p.ShuffleOptions != nil {
		s.ShuffleOptions = *p.ShuffleOptions
	}
	if p.OpponentAccuracy != nil {
		s.OpponentAccuracy = *p.OpponentAccuracy
	}
	return s
}

// Metadata is a free-form bag written by game modes for analytics/results.
type Metadata struct {
	PowerUpsUsed       []string       `json:"powerUpsUsed,omitempty"`
	AchievementsEarned []string       `json:"achievementsEarned,omitempty"`
	SocialInteractions int            `json:"socialInteractions,omitempty"`
	Custom             map[string]any `json:"custom,omitempty"`
}

// Session is the canonical state of one quiz run-through. It is owned
// exclusively by the engine while active and mutated only via dispatched
// actions.
type Session struct {
	SessionID            string
	AttemptID            string
	TopicID              string
	Mode                 string
	Phase                Phase
	CurrentQuestionIndex int
	Answers              []Answer
	Score                int
	Streak               int
	MaxStreak            int
	TimeRemaining        *int // seconds; nil = untimed
	ModeState            any  // opaque, owned by the active mode
	ModeSettings         Settings
	GameMetadata         Metadata
	StartedAt            time.Time
	IsCompleted          bool
	ShowResults          bool
	Paused               bool
	Restored             bool
	ActiveModal          string
	Loading              bool
	Err                  string
}

// AnswerAt returns the recorded answer for a question index, if any.
func (s Session) AnswerAt(index int) (Answer, bool) {
	for _, a := range s.Answers {
		if a.QuestionIndex == index {
			return a, true
		}
	}
	return Answer{}, false
}

// CorrectCount returns the number of correct answers recorded so far.
func (s Session) CorrectCount() int {
	n := 0
	for _, a := range s.Answers {
		if a.Correct {
			n++
		}
	}
	return n
}

// LeaderboardEntry is a snapshot-friendly view of a PvP participant.
type LeaderboardEntry struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

// Leaderboard captures the ordered scoreboard of a PvP arena.
type Leaderboard struct {
	ArenaID   string             `json:"arenaId"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
