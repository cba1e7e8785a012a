package domain

import "time"

// ProgressKey is the composite key a snapshot is stored under. Guests are
// keyed by token; authenticated users by id. Exactly one of UserID/GuestToken
// is expected to be set.
type ProgressKey struct {
	UserID     string `json:"userId,omitempty"`
	GuestToken string `json:"guestToken,omitempty"`
	SessionID  string `json:"sessionId"`
	TopicID    string `json:"topicId"`
	Mode       string `json:"mode"`
}

// Identity returns the user id when present, otherwise the guest token.
func (k ProgressKey) Identity() string {
	if k.UserID != "" {
		return k.UserID
	}
	return k.GuestToken
}

// Snapshot is the persisted projection of a session. It carries enough to
// resume a session without re-fetching answer keys: per-answer values plus
// aggregate counters, never CorrectOptionID.
type Snapshot struct {
	TopicID              string            `json:"topicId"`
	Mode                 string            `json:"mode"`
	AttemptID            string            `json:"attemptId"`
	CurrentQuestionIndex int               `json:"currentQuestionIndex"`
	Answers              map[string]string `json:"answers"` // questionID -> submitted value
	Score                int               `json:"score"`
	CorrectAnswers       int               `json:"correctAnswers"`
	Streak               int               `json:"streak"`
	MaxStreak            int               `json:"maxStreak"`
	TimeRemaining        *int              `json:"timeRemaining,omitempty"`
	StartTime            time.Time         `json:"startTime"`
	QuestionTimes        map[string]int    `json:"questionTimes"` // questionID -> seconds spent
	CategoryScores       map[string]int    `json:"categoryScores,omitempty"`
	IsCompleted          bool              `json:"isCompleted"`
	ShowResults          bool              `json:"showResults"`
	ModeState            any               `json:"modeState,omitempty"`
	GameMetadata         Metadata          `json:"gameMetadata"`
	SavedAt              time.Time         `json:"savedAt"`
}
