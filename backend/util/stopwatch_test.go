package util

import (
	"sync"
	"testing"
	"time"
)

func TestStopwatch(t *testing.T) {
	var sw Stopwatch
	if sw.Elapsed() != 0 || sw.Running() {
		t.Fatal("zero stopwatch should be stopped with no elapsed time")
	}

	sw.Start()
	time.Sleep(10 * time.Millisecond)
	sw.Start() // no-op
	if !sw.Running() {
		t.Error("expected running after Start")
	}
	sw.Stop()
	first := sw.Elapsed()
	if first < 10*time.Millisecond {
		t.Errorf("expected at least 10ms elapsed, got %v", first)
	}

	time.Sleep(5 * time.Millisecond)
	sw.Stop() // no-op
	if sw.Elapsed() != first {
		t.Error("elapsed time should not increase while stopped")
	}

	sw.Start()
	time.Sleep(5 * time.Millisecond)
	sw.Stop()
	if sw.Elapsed() <= first {
		t.Errorf("expected elapsed time to accumulate, first=%v now=%v", first, sw.Elapsed())
	}
}

func TestStopwatchReset(t *testing.T) {
	var sw Stopwatch
	sw.Start()
	time.Sleep(5 * time.Millisecond)
	sw.Reset()
	if sw.Elapsed() != 0 || sw.Running() {
		t.Errorf("expected stopped and zero after reset while running, got %v", sw.Elapsed())
	}

	sw.Start()
	time.Sleep(5 * time.Millisecond)
	if e := sw.Elapsed(); e < 5*time.Millisecond {
		t.Errorf("expected at least 5ms after reset and start, got %v", e)
	}
}

// run with -race
func TestStopwatchConcurrentAccess(t *testing.T) {
	var sw Stopwatch
	var wg sync.WaitGroup
	ops := []func(){sw.Start, sw.Stop, func() { _ = sw.Elapsed() }}
	for _, op := range ops {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					op()
				}
			}()
		}
	}
	wg.Wait()
}
