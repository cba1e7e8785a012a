package engine

import (
	"time"

	"civic-quiz-engine/internal/domain"
)

// ActionType names every transition the reducer understands.
type ActionType string

const (
	ActionInitialize         ActionType = "INITIALIZE"
	ActionStartQuiz          ActionType = "START_QUIZ"
	ActionAnswerQuestion     ActionType = "ANSWER_QUESTION"
	ActionNextQuestion       ActionType = "NEXT_QUESTION"
	ActionPreviousQuestion   ActionType = "PREVIOUS_QUESTION"
	ActionGoToQuestion       ActionType = "GO_TO_QUESTION"
	ActionTimerTick          ActionType = "TIMER_TICK"
	ActionCompleteQuiz       ActionType = "COMPLETE_QUIZ"
	ActionUpdateModeState    ActionType = "UPDATE_MODE_STATE"
	ActionUpdateGameMetadata ActionType = "UPDATE_GAME_METADATA"
	ActionShowModal          ActionType = "SHOW_MODAL"
	ActionHideModal          ActionType = "HIDE_MODAL"
	ActionSetError           ActionType = "SET_ERROR"
	ActionSetLoading         ActionType = "SET_LOADING"
	ActionSetPaused          ActionType = "SET_PAUSED"
	ActionRestoreProgress    ActionType = "RESTORE_PROGRESS"
)

// Action carries one dispatched transition. Only the fields relevant to the
// Type are read; the rest stay zero.
type Action struct {
	Type           ActionType
	Answer         domain.Answer
	Index          int
	Remaining      int
	At             time.Time
	ModeState      any
	UpdateMetadata func(*domain.Metadata)
	Modal          string
	Err            string
	Loading        bool
	Paused         bool
	FinalScore     int
	Snapshot       *domain.Snapshot
}
