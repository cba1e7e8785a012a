package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic-quiz-engine/internal/domain"
)

func testQuestions(n int) []domain.Question {
	qs := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		qs = append(qs, domain.Question{
			ID:              "q" + string(rune('1'+i)),
			Prompt:          "prompt",
			Options:         []domain.Option{{ID: "a"}, {ID: "b"}},
			CorrectOptionID: "a",
			Category:        "civics",
		})
	}
	return qs
}

func startedSession(t *testing.T, qs []domain.Question) domain.Session {
	t.Helper()
	s := domain.Session{Phase: domain.PhaseLoading}
	s = reduce(s, qs, Action{Type: ActionInitialize})
	require.Equal(t, domain.PhaseInitializing, s.Phase)
	s = reduce(s, qs, Action{Type: ActionStartQuiz, At: time.Unix(1000, 0)})
	require.Equal(t, domain.PhaseInProgress, s.Phase)
	return s
}

func TestAnswerRecordedOncePerIndex(t *testing.T) {
	qs := testQuestions(3)
	s := startedSession(t, qs)

	s = reduce(s, qs, Action{Type: ActionAnswerQuestion, Answer: domain.Answer{QuestionIndex: 0, Value: "a", Correct: true}})
	require.Len(t, s.Answers, 1)

	// Second write to the same index is dropped.
	s = reduce(s, qs, Action{Type: ActionAnswerQuestion, Answer: domain.Answer{QuestionIndex: 0, Value: "b", Correct: false}})
	require.Len(t, s.Answers, 1)
	assert.Equal(t, "a", s.Answers[0].Value)
	assert.Equal(t, 1, s.Streak)
}

func TestStreakResetsOnIncorrectAndMaxStreakMonotone(t *testing.T) {
	qs := testQuestions(5)
	s := startedSession(t, qs)

	answers := []bool{true, true, false, true, true}
	maxSeen := 0
	for i, correct := range answers {
		s = reduce(s, qs, Action{Type: ActionAnswerQuestion, Answer: domain.Answer{QuestionIndex: i, Correct: correct, Value: "x"}})
		if s.MaxStreak < maxSeen {
			t.Fatalf("maxStreak decreased: %d -> %d", maxSeen, s.MaxStreak)
		}
		maxSeen = s.MaxStreak
	}
	assert.Equal(t, 2, s.Streak)
	assert.Equal(t, 2, s.MaxStreak)
}

func TestNavigationStaysInBounds(t *testing.T) {
	qs := testQuestions(4)
	s := startedSession(t, qs)

	// Nothing answered: next/goto cannot pass question 0.
	s = reduce(s, qs, Action{Type: ActionNextQuestion})
	assert.Equal(t, 0, s.CurrentQuestionIndex)
	s = reduce(s, qs, Action{Type: ActionGoToQuestion, Index: 3})
	assert.Equal(t, 0, s.CurrentQuestionIndex)
	s = reduce(s, qs, Action{Type: ActionPreviousQuestion})
	assert.Equal(t, 0, s.CurrentQuestionIndex)

	// Answer two questions, then hammer navigation; index must stay in range
	// and never pass the first unanswered question.
	s = reduce(s, qs, Action{Type: ActionAnswerQuestion, Answer: domain.Answer{QuestionIndex: 0, Correct: true}})
	s = reduce(s, qs, Action{Type: ActionNextQuestion})
	s = reduce(s, qs, Action{Type: ActionAnswerQuestion, Answer: domain.Answer{QuestionIndex: 1, Correct: true}})

	moves := []Action{
		{Type: ActionNextQuestion},
		{Type: ActionNextQuestion},
		{Type: ActionGoToQuestion, Index: 99},
		{Type: ActionGoToQuestion, Index: -7},
		{Type: ActionPreviousQuestion},
		{Type: ActionPreviousQuestion},
		{Type: ActionPreviousQuestion},
		{Type: ActionNextQuestion},
	}
	for _, move := range moves {
		s = reduce(s, qs, move)
		require.GreaterOrEqual(t, s.CurrentQuestionIndex, 0)
		require.Less(t, s.CurrentQuestionIndex, len(qs))
		require.LessOrEqual(t, s.CurrentQuestionIndex, len(s.Answers))
	}
}

func TestCompleteOnlyFromInProgressAndOnlyOnce(t *testing.T) {
	qs := testQuestions(2)
	s := domain.Session{Phase: domain.PhaseLoading}

	// Completing before the quiz started is a no-op.
	s = reduce(s, qs, Action{Type: ActionCompleteQuiz, FinalScore: 50})
	assert.False(t, s.IsCompleted)

	s = startedSession(t, qs)
	s = reduce(s, qs, Action{Type: ActionCompleteQuiz, FinalScore: 50})
	require.True(t, s.IsCompleted)
	require.True(t, s.ShowResults)
	assert.Equal(t, 50, s.Score)

	// Replaying the completion does not change the recorded score.
	s = reduce(s, qs, Action{Type: ActionCompleteQuiz, FinalScore: 10})
	assert.Equal(t, 50, s.Score)
}

func TestTimerTickClampsAtZero(t *testing.T) {
	qs := testQuestions(1)
	s := startedSession(t, qs)

	s = reduce(s, qs, Action{Type: ActionTimerTick, Remaining: 5})
	require.NotNil(t, s.TimeRemaining)
	assert.Equal(t, 5, *s.TimeRemaining)

	s = reduce(s, qs, Action{Type: ActionTimerTick, Remaining: -3})
	assert.Equal(t, 0, *s.TimeRemaining)
}

func TestRestoreRebuildsAnswersInQuestionOrder(t *testing.T) {
	qs := testQuestions(3)
	s := domain.Session{Phase: domain.PhaseLoading}
	s = reduce(s, qs, Action{Type: ActionInitialize})

	snap := domain.Snapshot{
		TopicID:              "t1",
		Mode:                 "standard",
		AttemptID:            "attempt-1",
		CurrentQuestionIndex: 2,
		Answers:              map[string]string{"q1": "a", "q2": "b"},
		QuestionTimes:        map[string]int{"q1": 4, "q2": 9},
		Score:                33,
		CorrectAnswers:       1,
		Streak:               0,
		MaxStreak:            1,
		StartTime:            time.Unix(2000, 0),
	}
	s = reduce(s, qs, Action{Type: ActionRestoreProgress, Snapshot: &snap})

	require.True(t, s.Restored)
	require.Len(t, s.Answers, 2)
	assert.Equal(t, 0, s.Answers[0].QuestionIndex)
	assert.True(t, s.Answers[0].Correct)
	assert.Equal(t, 4, s.Answers[0].TimeSpentSeconds)
	assert.False(t, s.Answers[1].Correct)
	assert.Equal(t, 2, s.CurrentQuestionIndex)
	assert.Equal(t, 33, s.Score)
	assert.Equal(t, 1, s.MaxStreak)

	// START_QUIZ after a restore keeps everything in place.
	s = reduce(s, qs, Action{Type: ActionStartQuiz, At: time.Unix(3000, 0)})
	require.Equal(t, domain.PhaseInProgress, s.Phase)
	assert.Len(t, s.Answers, 2)
	assert.Equal(t, 2, s.CurrentQuestionIndex)
	assert.Equal(t, time.Unix(2000, 0), s.StartedAt)
}

func TestMetadataUpdateAndModalToggles(t *testing.T) {
	qs := testQuestions(1)
	s := startedSession(t, qs)

	s = reduce(s, qs, Action{Type: ActionUpdateGameMetadata, UpdateMetadata: func(md *domain.Metadata) {
		md.SocialInteractions++
		md.AchievementsEarned = append(md.AchievementsEarned, "first_answer")
	}})
	assert.Equal(t, 1, s.GameMetadata.SocialInteractions)
	assert.Equal(t, []string{"first_answer"}, s.GameMetadata.AchievementsEarned)

	s = reduce(s, qs, Action{Type: ActionShowModal, Modal: "confirm-exit"})
	assert.Equal(t, "confirm-exit", s.ActiveModal)
	s = reduce(s, qs, Action{Type: ActionHideModal})
	assert.Empty(t, s.ActiveModal)

	s = reduce(s, qs, Action{Type: ActionSetError, Err: "boom"})
	assert.Equal(t, "boom", s.Err)
	assert.False(t, s.Loading)
}
