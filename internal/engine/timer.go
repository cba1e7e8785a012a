package engine

import (
	"sync"
	"time"
)

// ticker drives the per-second countdown. Stop is safe to call repeatedly and
// from within the tick callback itself, so teardown never deadlocks when the
// final tick completes the quiz.
type ticker struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func startTicker(interval time.Duration, tick func()) *ticker {
	t := &ticker{stop: make(chan struct{}), done: make(chan struct{})}
	go func() {
		defer close(t.done)
		tk := time.NewTicker(interval)
		defer tk.Stop()
		for {
			select {
			case <-tk.C:
				tick()
			case <-t.stop:
				return
			}
		}
	}()
	return t
}

func (t *ticker) Stop() {
	t.once.Do(func() { close(t.stop) })
}

// StopWait stops the countdown and waits for any in-flight tick to finish.
// Must not be called from within the tick callback.
func (t *ticker) StopWait() {
	t.Stop()
	<-t.done
}
