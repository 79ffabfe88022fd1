package utils

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGateBoundsConcurrency(t *testing.T) {
	const size = 3
	gate := NewGate(size)

	var current, peak int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := gate.Acquire(context.Background()); err != nil {
				t.Error(err)
				return
			}
			defer gate.Release()

			n := atomic.AddInt64(&current, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt64(&current, -1)
		}()
	}
	wg.Wait()

	if peak > size {
		t.Errorf("peak concurrency %d exceeded gate size %d", peak, size)
	}
	if gate.InFlight() != 0 {
		t.Errorf("in-flight after completion: got %d, want 0", gate.InFlight())
	}
}

func TestGateAcquireCancelled(t *testing.T) {
	gate := NewGate(1)
	if err := gate.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := gate.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error on full gate, got %v", err)
	}
	gate.Release()
}

func TestSettleAllPartitionsResults(t *testing.T) {
	boom := errors.New("boom")
	tasks := []func() (int, error){
		func() (int, error) { return 1, nil },
		func() (int, error) { return 0, boom },
		func() (int, error) { return 3, nil },
		func() (int, error) { return 0, boom },
	}

	successes, failures := SettleAll(tasks)
	if len(successes) != 2 {
		t.Errorf("successes: got %d, want 2", len(successes))
	}
	if len(failures) != 2 {
		t.Errorf("failures: got %d, want 2", len(failures))
	}

	sum := 0
	for _, v := range successes {
		sum += v
	}
	if sum != 4 {
		t.Errorf("success values: got sum %d, want 4", sum)
	}
}

func TestSettleAllWaitsForEveryTask(t *testing.T) {
	var finished int64
	tasks := make([]func() (struct{}, error), 10)
	for i := range tasks {
		fail := i%2 == 0
		tasks[i] = func() (struct{}, error) {
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&finished, 1)
			if fail {
				return struct{}{}, errors.New("fail")
			}
			return struct{}{}, nil
		}
	}

	SettleAll(tasks)
	if finished != 10 {
		t.Errorf("finished tasks: got %d, want 10 (settle-all must not fail fast)", finished)
	}
}

func TestPacerStaysWithinBounds(t *testing.T) {
	p := NewPacer(10*time.Millisecond, 20*time.Millisecond)

	var slept time.Duration
	p.sleep = func(d time.Duration) { slept = d }

	for i := 0; i < 100; i++ {
		p.Pause()
		if slept < 10*time.Millisecond || slept > 20*time.Millisecond {
			t.Fatalf("pause %v outside [10ms, 20ms]", slept)
		}
	}
}

func TestURLSetNoDuplicates(t *testing.T) {
	s := NewURLSet()

	if !s.Add("https://example.com/1") {
		t.Error("first Add should return true")
	}
	if s.Add("https://example.com/1") {
		t.Error("second Add of same URL should return false")
	}
	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestURLSetConcurrency(t *testing.T) {
	s := NewURLSet()
	var added int64

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Add("https://example.com/same") {
				atomic.AddInt64(&added, 1)
			}
		}()
	}
	wg.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}
