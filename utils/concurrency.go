package utils

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Gate is a counting admission control that limits how many operations run
// concurrently. A full gate suspends Acquire until a slot is released.
type Gate struct {
	slots chan struct{}
}

// NewGate creates a Gate with the given number of slots (minimum 1).
func NewGate(size int) *Gate {
	if size < 1 {
		size = 1
	}
	return &Gate{slots: make(chan struct{}, size)}
}

// Acquire blocks until a slot is free or the context is cancelled.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot previously taken with Acquire.
func (g *Gate) Release() {
	<-g.slots
}

// InFlight returns the number of slots currently held.
func (g *Gate) InFlight() int {
	return len(g.slots)
}

// Pacer inserts a randomized delay between network calls to imitate human
// browsing cadence. Safe for concurrent use.
type Pacer struct {
	min   time.Duration
	max   time.Duration
	sleep func(time.Duration)
}

// NewPacer creates a Pacer drawing delays uniformly from [min, max].
func NewPacer(min, max time.Duration) *Pacer {
	if max < min {
		max = min
	}
	return &Pacer{min: min, max: max, sleep: time.Sleep}
}

// Pause sleeps for a duration drawn uniformly from the configured interval.
func (p *Pacer) Pause() {
	p.sleep(p.next())
}

func (p *Pacer) next() time.Duration {
	if p.max == p.min {
		return p.min
	}
	return p.min + time.Duration(rand.Int63n(int64(p.max-p.min)+1))
}

// SettleAll runs every task concurrently and waits until each one has
// finished, success or failure. Results are partitioned into successes and
// errors; a failing task never cancels its siblings.
func SettleAll[T any](tasks []func() (T, error)) ([]T, []error) {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes []T
		failures  []error
	)

	for _, task := range tasks {
		wg.Add(1)
		go func(run func() (T, error)) {
			defer wg.Done()

			v, err := run()

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			successes = append(successes, v)
		}(task)
	}

	wg.Wait()
	return successes, failures
}

// URLSet is a thread-safe set for tracking visited URLs.
type URLSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewURLSet creates an empty URLSet.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

// Add returns true if the URL was newly added, false if already present.
func (s *URLSet) Add(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[url]; exists {
		return false
	}
	s.seen[url] = struct{}{}
	return true
}

// Contains returns true if the URL has already been visited.
func (s *URLSet) Contains(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[url]
	return exists
}

// Size returns the number of unique URLs tracked.
func (s *URLSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
