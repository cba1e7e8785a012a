package modes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaOrdersByScoreThenEarliest(t *testing.T) {
	now := time.Unix(5000, 0)
	arena := newArenaWithClock("civics-101", func() time.Time {
		now = now.Add(time.Second)
		return now
	})

	arena.Join("u1", "Ada")
	arena.Join("u2", "Ben")
	arena.Join("u3", "Cam")

	arena.Award("u2", 2)
	arena.Award("u1", 1)
	arena.Award("u3", 1) // same score as u1 but reached later

	board := arena.Leaderboard()
	require.Len(t, board.Entries, 3)
	assert.Equal(t, "u2", board.Entries[0].UserID)
	assert.Equal(t, "u1", board.Entries[1].UserID)
	assert.Equal(t, "u3", board.Entries[2].UserID)
}

func TestArenaSubscribeReceivesUpdates(t *testing.T) {
	arena := newArena("civics-101")
	arena.Join("u1", "Ada")

	updates, cancel := arena.Subscribe()
	defer cancel()

	initial := <-updates
	require.Len(t, initial.Entries, 1)

	arena.Award("u1", 3)
	update := <-updates
	require.Len(t, update.Entries, 1)
	assert.Equal(t, 3, update.Entries[0].Score)
}

func TestArenaDropsWhenEmpty(t *testing.T) {
	mode := NewPvPMode()
	arena := mode.Arena("civics-101")
	arena.Join("u1", "Ada")

	arena.Leave("u1")
	require.True(t, arena.IsEmpty())
	mode.DropIfEmpty("civics-101")

	// A fresh arena is created on the next lookup.
	assert.True(t, mode.Arena("civics-101") != arena)
}

func TestAwardUnknownParticipantIsNoop(t *testing.T) {
	arena := newArena("civics-101")
	board := arena.Award("ghost", 5)
	assert.Empty(t, board.Entries)
}
