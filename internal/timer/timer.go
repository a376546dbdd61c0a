// Package timer provides cancellable one-shot scheduled tasks.
//
// The Star Match countdown is a chain of one-second tasks: each firing
// schedules the next one. Owners cancel the pending task on every state
// change and on teardown, so no task can fire against stale state.
//
// Two schedulers are provided:
//   - Real wraps time.AfterFunc; callbacks run on runtime goroutines.
//   - Manual runs callbacks synchronously from Advance, for deterministic
//     tests and scripted scenarios.
package timer

import (
	"sort"
	"sync"
	"time"
)

// Task is a pending scheduled callback.
type Task interface {
	// Stop cancels the task. It returns false if the task already fired
	// or was already stopped.
	Stop() bool
}

// Scheduler runs f once after d has elapsed.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Task
}

// Real schedules on the Go runtime timer.
type Real struct{}

// AfterFunc implements Scheduler using time.AfterFunc.
func (Real) AfterFunc(d time.Duration, f func()) Task {
	return time.AfterFunc(d, f)
}

// Manual is a virtual-time scheduler. Time only moves when Advance is
// called, and due callbacks run on the caller's goroutine in due order
// (ties broken by scheduling order).
//
// Thread-safety: all methods are safe for concurrent use, but callbacks
// run outside the internal lock so they may schedule further tasks.
type Manual struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int64
	tasks []*manualTask
}

type manualTask struct {
	m    *Manual
	at   time.Duration
	seq  int64
	f    func()
	done bool
}

// NewManual creates a manual scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{}
}

// AfterFunc implements Scheduler.
func (m *Manual) AfterFunc(d time.Duration, f func()) Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTask{m: m, at: m.now + d, seq: m.seq, f: f}
	m.tasks = append(m.tasks, t)
	return t
}

// Stop implements Task.
func (t *manualTask) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	t.m.prune()
	return true
}

// Advance moves virtual time forward by d, running every task that falls
// due. It returns the number of callbacks run.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	target := m.now + d
	fired := 0
	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		t.done = true
		m.now = t.at
		m.prune()
		m.mu.Unlock()
		t.f()
		fired++
		m.mu.Lock()
	}
	m.now = target
	m.mu.Unlock()
	return fired
}

// Pending returns the number of scheduled tasks that have neither fired
// nor been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Now returns the virtual time elapsed since creation.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// nextDue returns the earliest live task due at or before target.
// Caller holds m.mu.
func (m *Manual) nextDue(target time.Duration) *manualTask {
	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].at != m.tasks[j].at {
			return m.tasks[i].at < m.tasks[j].at
		}
		return m.tasks[i].seq < m.tasks[j].seq
	})
	for _, t := range m.tasks {
		if !t.done && t.at <= target {
			return t
		}
	}
	return nil
}

// prune drops finished tasks. Caller holds m.mu.
func (m *Manual) prune() {
	live := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.done {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(m.tasks); i++ {
		m.tasks[i] = nil
	}
	m.tasks = live
}
