package modes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"civic-quiz-engine/internal/domain"
)

func TestPracticeScoreHintBonusIsCapped(t *testing.T) {
	mode := NewPracticeMode()
	questions := make([]domain.Question, 10)

	answers := make([]domain.Answer, 10)
	for i := range answers {
		answers[i] = domain.Answer{QuestionIndex: i, Correct: i < 5, HintUsed: true}
	}

	// 5/10 correct is 50; ten hints would be 20 bonus points, capped at 10.
	assert.Equal(t, 60, mode.CalculateScore(answers, questions))

	// A perfect run cannot exceed 100 even with hint bonuses.
	for i := range answers {
		answers[i].Correct = true
	}
	assert.Equal(t, 100, mode.CalculateScore(answers, questions))
}

func TestPracticeModeStateSurvivesJSONRoundTrip(t *testing.T) {
	mode := NewPracticeMode()

	// After a snapshot round-trip the counters come back as float64.
	state := map[string]any{"hintsUsed": float64(2), "skipped": float64(1)}
	next := mode.ReduceModeState(state, Action{Type: "HINT_USED"})

	counters, ok := next.(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, 3, counters["hintsUsed"])
}

func TestPracticeIsNeverTimed(t *testing.T) {
	mode := NewPracticeMode()
	override := domain.Settings{TimeLimitSeconds: 45}
	assert.Nil(t, mode.TimeLimit(override))
}

func TestPercentScoreRounds(t *testing.T) {
	questions := make([]domain.Question, 3)
	answers := []domain.Answer{
		{QuestionIndex: 0, Correct: true},
		{QuestionIndex: 1, Correct: true},
		{QuestionIndex: 2, Correct: false},
	}
	assert.Equal(t, 67, PercentScore(answers, questions))
	assert.Equal(t, 0, PercentScore(nil, nil))
}
