package aspen

import (
	"sync"
	"time"
)

type loopTimeout struct {
	fn        func()
	next      time.Time
	recurring time.Duration
	suspended bool
}

// EventLoop is a single-goroutine run loop with timeouts and posted
// tasks. All compositor and actor methods must be called from the
// goroutine running Run; AddTimeout, ResetTimeout, SuspendTimeout,
// RemoveTimeout, PostTask, and Exit are safe to call from any
// goroutine.
//
// EventLoop implements Scheduler.
type EventLoop struct {
	mu       sync.Mutex
	timeouts map[int]*loopTimeout
	tasks    []func()
	nextID   int
	exiting  bool

	// wake nudges Run after the timeout set or task queue changes. The
	// buffer lets senders never block; a pending nudge covers any number
	// of changes.
	wake chan struct{}
}

// NewEventLoop returns an event loop ready for Run.
func NewEventLoop() *EventLoop {
	return &EventLoop{
		timeouts: make(map[int]*loopTimeout),
		nextID:   1,
		wake:     make(chan struct{}, 1),
	}
}

func (l *EventLoop) nudge() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// AddTimeout schedules fn to run after initial and then every recurring
// interval. A zero or negative recurring makes the timeout one-shot; it
// stays registered but suspended after firing, so it can be rescheduled
// with ResetTimeout. The returned handle identifies the timeout to the
// other methods.
func (l *EventLoop) AddTimeout(fn func(), initial, recurring time.Duration) int {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.timeouts[id] = &loopTimeout{
		fn:        fn,
		next:      time.Now().Add(initial),
		recurring: recurring,
	}
	l.mu.Unlock()
	l.nudge()
	return id
}

// ResetTimeout reschedules an existing timeout, clearing any
// suspension. Unknown handles are ignored.
func (l *EventLoop) ResetTimeout(id int, initial, recurring time.Duration) {
	l.mu.Lock()
	if t, ok := l.timeouts[id]; ok {
		t.next = time.Now().Add(initial)
		t.recurring = recurring
		t.suspended = false
	}
	l.mu.Unlock()
	l.nudge()
}

// SuspendTimeout stops a timeout from firing until it is reset. The
// handle stays valid.
func (l *EventLoop) SuspendTimeout(id int) {
	l.mu.Lock()
	if t, ok := l.timeouts[id]; ok {
		t.suspended = true
	}
	l.mu.Unlock()
	l.nudge()
}

// RemoveTimeout deregisters a timeout. The handle becomes invalid.
func (l *EventLoop) RemoveTimeout(id int) {
	l.mu.Lock()
	delete(l.timeouts, id)
	l.mu.Unlock()
	l.nudge()
}

// PostTask queues fn to run once on the loop goroutine, ahead of any
// due timeouts.
func (l *EventLoop) PostTask(fn func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.nudge()
}

// Exit makes Run return after the currently-running callback, if any,
// completes.
func (l *EventLoop) Exit() {
	l.mu.Lock()
	l.exiting = true
	l.mu.Unlock()
	l.nudge()
}

// takeDue removes queued tasks and collects the callbacks of timeouts
// due at now, advancing or suspending each fired timeout. It also
// returns the wait until the earliest remaining timeout (zero when none
// is pending, meaning wait indefinitely).
func (l *EventLoop) takeDue(now time.Time) (due []func(), wait time.Duration, exiting bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.exiting {
		return nil, 0, true
	}

	due = append(due, l.tasks...)
	l.tasks = nil

	var earliest time.Time
	for _, t := range l.timeouts {
		if t.suspended {
			continue
		}
		if !t.next.After(now) {
			due = append(due, t.fn)
			if t.recurring > 0 {
				// Step from the scheduled time, not the fire time, so
				// recurring timeouts don't drift under load.
				t.next = t.next.Add(t.recurring)
				if !t.next.After(now) {
					t.next = now.Add(t.recurring)
				}
			} else {
				t.suspended = true
				continue
			}
		}
		if earliest.IsZero() || t.next.Before(earliest) {
			earliest = t.next
		}
	}
	if !earliest.IsZero() {
		wait = max(earliest.Sub(now), time.Nanosecond)
	}
	return due, wait, false
}

// Run dispatches tasks and timeouts until Exit is called. Callbacks run
// on the calling goroutine, one at a time.
func (l *EventLoop) Run() {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		due, wait, exiting := l.takeDue(time.Now())
		if exiting {
			return
		}
		for _, fn := range due {
			fn()
		}
		if len(due) > 0 {
			// Callbacks may have queued more work; recheck immediately.
			continue
		}

		if wait > 0 {
			timer.Reset(wait)
			select {
			case <-timer.C:
			case <-l.wake:
				if !timer.Stop() {
					<-timer.C
				}
			}
		} else {
			<-l.wake
		}
	}
}
