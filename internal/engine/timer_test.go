package engine_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic-quiz-engine/internal/domain"
	"civic-quiz-engine/internal/engine"
)

func TestTimeoutAutoSubmitsSkip(t *testing.T) {
	ctx := context.Background()
	oneSecond := 1

	var completions, autoSubmits atomic.Int32
	eng, err := engine.New(engine.Config{
		Topic:        civicsTopic(3),
		Mode:         "standard",
		GuestToken:   "g",
		Settings:     domain.SettingsPatch{TimeLimitSeconds: &oneSecond},
		TickInterval: 5 * time.Millisecond,
		OnComplete:   func(domain.Results) { completions.Add(1) },
		OnAutoSubmit: func(answer domain.Answer) {
			if answer.Value == "" {
				autoSubmits.Add(1)
			}
		},
	})
	require.NoError(t, err)
	defer eng.Close()
	require.NoError(t, eng.Start(ctx))

	// Answer the first question, then let the countdown expire on the rest.
	_, accepted, err := eng.Submit(ctx, "a")
	require.NoError(t, err)
	require.True(t, accepted)
	assert.Equal(t, 1, eng.Session().Streak)

	require.Eventually(t, func() bool {
		session := eng.Session()
		return len(session.Answers) >= 2
	}, 2*time.Second, 5*time.Millisecond, "timer should auto-submit question 2")

	session := eng.Session()
	timedOut, ok := session.AnswerAt(1)
	require.True(t, ok)
	assert.Empty(t, timedOut.Value, "timeout submits an empty answer")
	assert.False(t, timedOut.Correct, "a timeout counts as an ordinary incorrect answer")
	assert.Equal(t, 1, session.MaxStreak)

	// With no further interaction the whole quiz drains and completes once.
	require.Eventually(t, func() bool {
		return completions.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)

	final := eng.Session()
	require.True(t, final.IsCompleted)
	assert.Len(t, final.Answers, 3)
	assert.Equal(t, 0, final.Streak)

	// Questions 2 and 3 timed out; each expiry notified the hook.
	require.Eventually(t, func() bool {
		return autoSubmits.Load() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestPauseSuspendsCountdown(t *testing.T) {
	ctx := context.Background()
	limit := 30
	eng, err := engine.New(engine.Config{
		Topic:        civicsTopic(1),
		Mode:         "standard",
		GuestToken:   "g",
		Settings:     domain.SettingsPatch{TimeLimitSeconds: &limit},
		TickInterval: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	defer eng.Close()
	require.NoError(t, eng.Start(ctx))

	eng.Pause()
	session := eng.Session()
	require.NotNil(t, session.TimeRemaining)
	frozen := *session.TimeRemaining

	time.Sleep(50 * time.Millisecond)
	session = eng.Session()
	assert.Equal(t, frozen, *session.TimeRemaining)

	eng.Resume()
	require.Eventually(t, func() bool {
		s := eng.Session()
		return s.TimeRemaining != nil && *s.TimeRemaining < frozen
	}, time.Second, 5*time.Millisecond)
}

func TestCloseTearsDownCountdown(t *testing.T) {
	ctx := context.Background()
	limit := 30
	eng, err := engine.New(engine.Config{
		Topic:        civicsTopic(1),
		Mode:         "standard",
		GuestToken:   "g",
		Settings:     domain.SettingsPatch{TimeLimitSeconds: &limit},
		TickInterval: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, eng.Start(ctx))

	// Close waits out any tick already in flight.
	eng.Close()
	session := eng.Session()
	require.NotNil(t, session.TimeRemaining)
	frozen := *session.TimeRemaining

	time.Sleep(50 * time.Millisecond)
	session = eng.Session()
	assert.Equal(t, frozen, *session.TimeRemaining, "no tick may fire after teardown")
}
