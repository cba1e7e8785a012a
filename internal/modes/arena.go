package modes

import (
	"sort"
	"sync"
	"time"

	"civic-quiz-engine/internal/domain"
)

// Arena is the shared scoreboard behind a PvP match. Each participant runs
// their own engine; the arena only aggregates correct-answer tallies and fans
// leaderboard updates out to subscribers.
type Arena struct {
	id        string
	createdAt time.Time
	now       func() time.Time

	mu           sync.RWMutex
	participants map[string]*arenaParticipant
	subscribers  map[chan domain.Leaderboard]struct{}
}

type arenaParticipant struct {
	userID      string
	displayName string
	score       int
	lastUpdated time.Time
}

func newArena(id string) *Arena {
	return newArenaWithClock(id, time.Now)
}

// newArenaWithClock allows deterministic timestamps in tests.
func newArenaWithClock(id string, now func() time.Time) *Arena {
	return &Arena{
		id:           id,
		createdAt:    now(),
		now:          now,
		participants: make(map[string]*arenaParticipant),
		subscribers:  make(map[chan domain.Leaderboard]struct{}),
	}
}

// Join registers or refreshes a participant and broadcasts the new board.
func (a *Arena) Join(userID, displayName string) domain.Leaderboard {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if p, ok := a.participants[userID]; ok {
		p.displayName = displayName
		p.lastUpdated = now
	} else {
		a.participants[userID] = &arenaParticipant{
			userID:      userID,
			displayName: displayName,
			lastUpdated: now,
		}
	}
	return a.broadcastLocked()
}

// Award adds points to a participant and broadcasts the new board.
func (a *Arena) Award(userID string, points int) domain.Leaderboard {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, ok := a.participants[userID]
	if !ok {
		return a.snapshotLocked()
	}
	p.score += points
	p.lastUpdated = a.now()
	return a.broadcastLocked()
}

// Leave drops a participant and broadcasts the new board.
func (a *Arena) Leave(userID string) domain.Leaderboard {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.participants, userID)
	return a.broadcastLocked()
}

// IsEmpty reports whether the arena has no participants.
func (a *Arena) IsEmpty() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.participants) == 0
}

// Leaderboard returns the current board without broadcasting.
func (a *Arena) Leaderboard() domain.Leaderboard {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshotLocked()
}

// Subscribe returns a channel receiving leaderboard updates, primed with the
// current board. The caller must invoke cancel to avoid leaks.
func (a *Arena) Subscribe() (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	a.mu.Lock()
	a.subscribers[ch] = struct{}{}
	initial := a.snapshotLocked()
	a.mu.Unlock()

	ch <- initial

	cancel := func() {
		a.mu.Lock()
		if _, ok := a.subscribers[ch]; ok {
			delete(a.subscribers, ch)
			close(ch)
		}
		a.mu.Unlock()
	}
	return ch, cancel
}

func (a *Arena) broadcastLocked() domain.Leaderboard {
	lb := a.snapshotLocked()
	for ch := range a.subscribers {
		select {
		case ch <- lb:
		default:
			// Drop the stale update so a slow subscriber never blocks the rest.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
	return lb
}

func (a *Arena) snapshotLocked() domain.Leaderboard {
	entries := make([]domain.LeaderboardEntry, 0, len(a.participants))
	for _, p := range a.participants {
		entries = append(entries, domain.LeaderboardEntry{
			UserID:      p.userID,
			DisplayName: p.displayName,
			Score:       p.score,
		})
	}

	// Score descending, then whoever reached it first, then name.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		pi := a.participants[entries[i].UserID]
		pj := a.participants[entries[j].UserID]
		if pi != nil && pj != nil && !pi.lastUpdated.Equal(pj.lastUpdated) {
			return pi.lastUpdated.Before(pj.lastUpdated)
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})

	return domain.Leaderboard{
		ArenaID:   a.id,
		Entries:   entries,
		UpdatedAt: a.now(),
	}
}
