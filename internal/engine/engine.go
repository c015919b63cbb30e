package engine

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// Logger is the minimal logging interface the engine needs.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Callback is a scheduled simulation callback. It receives the simulated
// time at which the event fired.
type Callback func(now time.Time)

// event is a single pending entry in the schedule.
type event struct {
	at        time.Time
	seq       uint64 // registration order, breaks same-time ties
	fn        Callback
	key       string
	cancelled bool
	index     int
}

// eventHeap orders events by due time, then registration order.
type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x any) {
	ev := x.(*event)
	ev.index = len(*h)
	*h = append(*h, ev)
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return ev
}

// Engine is the discrete-event scheduler driving simulated time.
//
// Callbacks are dispatched strictly in non-decreasing simulated time;
// two events due at the same instant fire in registration order. The
// engine never runs callbacks concurrently: all simulation state is
// mutated from the single dispatch goroutine. Out-of-band inputs (HTTP,
// MQTT) are folded into that sequence by registering a zero-delay event.
//
// Thread Safety: RegisterIn, RegisterAt, Cancel, Now, StartTime and
// Pending may be called from any goroutine.
type Engine struct {
	mu     sync.Mutex
	start  time.Time
	now    time.Time
	queue  eventHeap
	seq    uint64
	wake   chan struct{}
	logger Logger
}

// New creates an engine whose simulated clock begins at start.
func New(start time.Time) *Engine {
	return &Engine{
		start:  start,
		now:    start,
		wake:   make(chan struct{}, 1),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the engine.
func (e *Engine) SetLogger(logger Logger) {
	e.mu.Lock()
	e.logger = logger
	e.mu.Unlock()
}

// Now returns the current simulated time.
func (e *Engine) Now() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

// StartTime returns the simulated epoch the engine was created with.
// Relative-time reliability curves are anchored here.
func (e *Engine) StartTime() time.Time {
	return e.start
}

// RegisterIn schedules fn to fire after delay of simulated time.
// A zero delay fires "now": after events already due at the current
// instant that were registered earlier. Negative delays are clamped to
// zero. The key groups events for Cancel; it may be empty.
func (e *Engine) RegisterIn(delay time.Duration, fn Callback, key string) {
	if delay < 0 {
		delay = 0
	}
	e.mu.Lock()
	e.registerLocked(e.now.Add(delay), fn, key)
	e.mu.Unlock()
	e.signalWake()
}

// RegisterAt schedules fn to fire at the absolute simulated time at.
// Times in the past fire at the current instant.
func (e *Engine) RegisterAt(at time.Time, fn Callback, key string) {
	e.mu.Lock()
	if at.Before(e.now) {
		at = e.now
	}
	e.registerLocked(at, fn, key)
	e.mu.Unlock()
	e.signalWake()
}

func (e *Engine) registerLocked(at time.Time, fn Callback, key string) {
	e.seq++
	heap.Push(&e.queue, &event{at: at, seq: e.seq, fn: fn, key: key})
}

// Cancel marks every pending event registered under key as cancelled and
// returns how many were affected. Cancelled events are skipped at
// dispatch. Cancelling a key with no pending events is a no-op, so a
// cancel-and-restart sequence is always safe.
func (e *Engine) Cancel(key string) int {
	if key == "" {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, ev := range e.queue {
		if ev.key == key && !ev.cancelled {
			ev.cancelled = true
			n++
		}
	}
	return n
}

// Pending returns the number of live (non-cancelled) scheduled events.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, ev := range e.queue {
		if !ev.cancelled {
			n++
		}
	}
	return n
}

// Step dispatches the next pending event, advancing the simulated clock
// to its due time. It returns false when the schedule is empty.
func (e *Engine) Step() bool {
	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			e.mu.Unlock()
			return false
		}
		ev := heap.Pop(&e.queue).(*event)
		if ev.cancelled {
			e.mu.Unlock()
			continue
		}
		e.now = ev.at
		e.mu.Unlock()

		// Invoke outside the lock: callbacks re-register themselves.
		ev.fn(ev.at)
		return true
	}
}

// RunUntil dispatches every event due at or before t, then advances the
// clock to t. It returns the number of events dispatched.
func (e *Engine) RunUntil(t time.Time) int {
	dispatched := 0
	for {
		e.mu.Lock()
		next, ok := e.peekLocked()
		if !ok || next.After(t) {
			if t.After(e.now) {
				e.now = t
			}
			e.mu.Unlock()
			return dispatched
		}
		e.mu.Unlock()

		if e.Step() {
			dispatched++
		}
	}
}

// peekLocked returns the due time of the next live event.
func (e *Engine) peekLocked() (time.Time, bool) {
	for len(e.queue) > 0 && e.queue[0].cancelled {
		heap.Pop(&e.queue)
	}
	if len(e.queue) == 0 {
		return time.Time{}, false
	}
	return e.queue[0].at, true
}

// Run dispatches events until the simulated clock reaches start+horizon,
// the schedule drains, or ctx is cancelled. A zero horizon runs until
// the schedule drains or ctx is cancelled.
func (e *Engine) Run(ctx context.Context, horizon time.Duration) error {
	var end time.Time
	if horizon > 0 {
		end = e.start.Add(horizon)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		e.mu.Lock()
		next, ok := e.peekLocked()
		e.mu.Unlock()

		if !ok {
			e.logger.Debug("schedule drained", "now", e.Now())
			return nil
		}
		if !end.IsZero() && next.After(end) {
			e.RunUntil(end)
			return nil
		}
		e.Step()
	}
}

// RunRealtime is like Run but paces dispatch against the wall clock: one
// second of simulated time passes per second of wall time. Events
// registered while waiting (API or MQTT injections) wake the loop so
// zero-delay events fire promptly.
func (e *Engine) RunRealtime(ctx context.Context, horizon time.Duration) error {
	var end time.Time
	if horizon > 0 {
		end = e.start.Add(horizon)
	}

	for {
		e.mu.Lock()
		next, ok := e.peekLocked()
		now := e.now
		e.mu.Unlock()

		if !ok {
			// Nothing scheduled; wait for an injection or shutdown.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-e.wake:
				continue
			}
		}
		if !end.IsZero() && next.After(end) {
			e.RunUntil(end)
			return nil
		}

		if wait := next.Sub(now); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-e.wake:
				timer.Stop()
				continue // an earlier event may have arrived
			case <-timer.C:
			}
		}
		e.Step()
	}
}

// signalWake nudges a blocked RunRealtime loop. Non-blocking: a single
// pending wake-up is enough.
func (e *Engine) signalWake() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}
