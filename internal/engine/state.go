package engine

import (
	"civic-quiz-engine/internal/domain"
)

// reduce is the engine's pure state transition function. It never performs
// I/O, never calls mode hooks, and never computes correctness: it stores the
// answer it is given. The orchestrator owns everything effectful around it.
func reduce(s domain.Session, questions []domain.Question, a Action) domain.Session {
	switch a.Type {
	case ActionInitialize:
		if s.Phase != domain.PhaseLoading {
			return s
		}
		s.Phase = domain.PhaseInitializing
		s.ModeState = a.ModeState
		return s

	case ActionStartQuiz:
		if s.Phase != domain.PhaseInitializing {
			return s
		}
		s.Phase = domain.PhaseInProgress
		s.Loading = false
		if !s.Restored {
			s.CurrentQuestionIndex = 0
			s.Answers = nil
			s.Score = 0
			s.Streak = 0
			s.MaxStreak = 0
			s.StartedAt = a.At
		}
		return s

	case ActionAnswerQuestion:
		if s.Phase != domain.PhaseInProgress {
			return s
		}
		if _, ok := s.AnswerAt(a.Answer.QuestionIndex); ok {
			// Each index is written at most once per attempt.
			return s
		}
		answers := make([]domain.Answer, len(s.Answers), len(s.Answers)+1)
		copy(answers, s.Answers)
		s.Answers = append(answers, a.Answer)
		if a.Answer.Correct {
			s.Streak++
			if s.Streak > s.MaxStreak {
				s.MaxStreak = s.Streak
			}
		} else {
			s.Streak = 0
		}
		s.Score = percentOf(s.CorrectCount(), len(questions))
		return s

	case ActionNextQuestion:
		s.CurrentQuestionIndex = clampIndex(s.CurrentQuestionIndex+1, s, questions)
		return s

	case ActionPreviousQuestion:
		if s.CurrentQuestionIndex > 0 {
			s.CurrentQuestionIndex--
		}
		return s

	case ActionGoToQuestion:
		s.CurrentQuestionIndex = clampIndex(a.Index, s, questions)
		return s

	case ActionTimerTick:
		remaining := a.Remaining
		if remaining < 0 {
			remaining = 0
		}
		s.TimeRemaining = &remaining
		return s

	case ActionCompleteQuiz:
		if s.Phase != domain.PhaseInProgress || s.IsCompleted {
			return s
		}
		s.Phase = domain.PhaseCompleted
		s.IsCompleted = true
		s.ShowResults = true
		s.Score = a.FinalScore
		return s

	case ActionUpdateModeState:
		s.ModeState = a.ModeState
		return s

	case ActionUpdateGameMetadata:
		if a.UpdateMetadata != nil {
			md := s.GameMetadata
			a.UpdateMetadata(&md)
			s.GameMetadata = md
		}
		return s

	case ActionShowModal:
		s.ActiveModal = a.Modal
		return s

	case ActionHideModal:
		s.ActiveModal = ""
		return s

	case ActionSetError:
		s.Err = a.Err
		s.Loading = false
		return s

	case ActionSetLoading:
		s.Loading = a.Loading
		return s

	case ActionSetPaused:
		s.Paused = a.Paused
		return s

	case ActionRestoreProgress:
		if a.Snapshot == nil {
			return s
		}
		return restore(s, questions, *a.Snapshot)

	default:
		return s
	}
}

// restore bulk-merges a persisted snapshot. Answers are rebuilt in question
// order from the value map; correctness is recomputed from the in-process
// question list since snapshots never carry answer keys.
func restore(s domain.Session, questions []domain.Question, snap domain.Snapshot) domain.Session {
	var answers []domain.Answer
	for i, q := range questions {
		value, ok := snap.Answers[q.ID]
		if !ok {
			continue
		}
		answers = append(answers, domain.Answer{
			QuestionIndex:    i,
			Value:            value,
			Correct:          value != "" && value == q.CorrectOptionID,
			TimeSpentSeconds: snap.QuestionTimes[q.ID],
		})
	}

	s.Answers = answers
	s.CurrentQuestionIndex = clampIndex(snap.CurrentQuestionIndex, s, questions)
	s.Score = snap.Score
	s.Streak = snap.Streak
	s.MaxStreak = snap.MaxStreak
	s.TimeRemaining = snap.TimeRemaining
	if !snap.StartTime.IsZero() {
		s.StartedAt = snap.StartTime
	}
	if snap.ModeState != nil {
		s.ModeState = snap.ModeState
	}
	s.GameMetadata = snap.GameMetadata
	s.IsCompleted = snap.IsCompleted
	s.ShowResults = snap.ShowResults
	s.AttemptID = snap.AttemptID
	s.Restored = true
	return s
}

// clampIndex bounds navigation to [0, min(answered, last question)]: forward
// movement may reach the first unanswered question but never jump past it.
func clampIndex(index int, s domain.Session, questions []domain.Question) int {
	upper := len(s.Answers)
	if max := len(questions) - 1; upper > max {
		upper = max
	}
	if index > upper {
		index = upper
	}
	if index < 0 {
		index = 0
	}
	return index
}

func percentOf(correct, total int) int {
	if total == 0 {
		return 0
	}
	return (correct*100 + total/2) / total
}
