package domain

import "errors"

var (
	// ErrModeNotRegistered is returned when a session requests a mode id the
	// registry does not know. This is a caller/config bug, not a runtime
	// condition to recover from.
	ErrModeNotRegistered = errors.New("game mode not registered")
	// ErrNoQuestions is returned when a session is constructed with an empty
	// question list.
	ErrNoQuestions = errors.New("topic has no questions")
	// ErrTopicNotFound indicates the topic content could not be loaded.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrQuestionNotFound indicates a referenced question id is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrQuizNotActive is returned when an action requires an in-progress
	// session.
	ErrQuizNotActive = errors.New("quiz session is not in progress")
	// ErrSessionCompleted is returned when an action arrives after completion.
	ErrSessionCompleted = errors.New("quiz session already completed")
	// ErrAlreadyAnswered is returned for a duplicate submission on a question
	// index that already holds an answer (timer/user double-submit guard).
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrSkipNotAllowed is returned when the active mode forbids skipping.
	ErrSkipNotAllowed = errors.New("skipping is not allowed in this mode")
	// ErrSnapshotNotFound is returned by progress stores when no snapshot
	// exists for a composite key.
	ErrSnapshotNotFound = errors.New("progress snapshot not found")
)
