package avsync

import (
	"sync"
	"time"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop prevents the callback from firing. Returns false if it
	// already fired or was stopped.
	Stop() bool
}

// Scheduler schedules deferred callbacks. Callbacks must be delivered on the
// same goroutine that drives the Session.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type loopTask struct {
	kind string // coalescing key, may be empty
	f    func()
	done chan struct{}
}

// Loop is a serial work queue. Every function posted to it runs on a single
// goroutine in FIFO order, which is what lets the Session mutate its state
// without locks. Loop also implements Scheduler, delivering timers on the loop.
type Loop struct {
	mutex         sync.Mutex
	queue         []loopTask
	taskAvailable *sync.Cond
	stopped       bool
	exited        chan struct{}
}

func NewLoop() *Loop {
	l := &Loop{exited: make(chan struct{})}
	l.taskAvailable = sync.NewCond(&l.mutex)
	go l.run()
	return l
}

// Post enqueues f to run on the loop. Returns false if the loop is stopped.
func (l *Loop) Post(f func()) bool {
	return l.add(loopTask{f: f})
}

// PostCoalesced enqueues f, first dropping any queued but not yet started
// task posted with the same kind. Used for high-rate events where only the
// latest one matters (e.g. position updates).
func (l *Loop) PostCoalesced(kind string, f func()) bool {
	return l.add(loopTask{kind: kind, f: f})
}

// Do runs f on the loop and waits for it to complete.
// If called from the loop goroutine itself it will deadlock.
func (l *Loop) Do(f func()) {
	done := make(chan struct{})
	if !l.add(loopTask{f: f, done: done}) {
		return
	}
	select {
	case <-done:
	case <-l.exited:
	}
}

// AfterFunc runs f on the loop once d has elapsed.
func (l *Loop) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, func() { l.Post(f) })
}

// Dispatch is Post with the signature the Session expects.
func (l *Loop) Dispatch(f func()) {
	l.Post(f)
}

// DispatchLatest is PostCoalesced with the signature the Session expects.
func (l *Loop) DispatchLatest(kind string, f func()) {
	l.PostCoalesced(kind, f)
}

// Stop discards all pending tasks and terminates the loop goroutine.
// A task already running is allowed to finish.
func (l *Loop) Stop() {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	l.queue = nil
	l.taskAvailable.Broadcast()
}

// Done returns a channel that is closed once the loop goroutine has exited.
func (l *Loop) Done() <-chan struct{} {
	return l.exited
}

func (l *Loop) add(task loopTask) bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.stopped {
		return false
	}

	if task.kind != "" {
		j := 0
		for _, t := range l.queue {
			if t.kind == task.kind {
				continue
			}
			l.queue[j] = t
			j++
		}
		l.queue = l.queue[:j]
	}
	l.queue = append(l.queue, task)
	l.taskAvailable.Signal()
	return true
}

func (l *Loop) run() {
	defer close(l.exited)
	for {
		l.mutex.Lock()
		for len(l.queue) == 0 && !l.stopped {
			l.taskAvailable.Wait()
		}
		if l.stopped {
			l.mutex.Unlock()
			return
		}
		task := l.queue[0]
		copy(l.queue, l.queue[1:])
		l.queue = l.queue[:len(l.queue)-1]
		l.mutex.Unlock()

		task.f()
		if task.done != nil {
			close(task.done)
		}
	}
}
