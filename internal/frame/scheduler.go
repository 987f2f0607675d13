package frame

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"framesched/internal/eventbus"
	logx "framesched/pkg/logx"
)

// Options carries the scheduler's optional collaborators.
//
// All fields may be zero: Clock defaults to SystemClock, the logger defaults
// to a no-op, and a nil Bus disables lifecycle events. The scheduler behaves
// identically with or without them.
type Options struct {
	Clock  Clock
	Logger logx.Logger
	Bus    eventbus.Bus
}

// Scheduler owns the interval and timeout registries, the lock set, and the
// running flag. See the package doc for lifecycle and lock semantics.
type Scheduler struct {
	mu     sync.Mutex
	clock  Clock
	ticker Ticker
	log    logx.Logger
	bus    eventbus.Bus

	intervals map[Handle]*intervalEntry
	timeouts  map[Handle]*timeoutEntry
	locked    map[Handle]struct{}

	running     bool
	tickPending bool

	ticks uint64
	fires uint64
}

// New creates a scheduler driven by tk.
//
// tk may be nil, in which case the scheduler never self-chains and only
// advances when Tick is called directly (useful in tests).
func New(tk Ticker, opt Options) *Scheduler {
	clock := opt.Clock
	if clock == nil {
		clock = SystemClock
	}
	log := opt.Logger
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Scheduler{
		clock:     clock,
		ticker:    tk,
		log:       log,
		bus:       opt.Bus,
		intervals: map[Handle]*intervalEntry{},
		timeouts:  map[Handle]*timeoutEntry{},
		locked:    map[Handle]struct{}{},
	}
}

// Interval upserts a recurring task firing whenever at least every has passed
// since its last fire. every == 0 fires on every tick, unconditionally.
// Re-registering an existing handle replaces the entry and resets its timing.
// An empty handle gets a generated one; the effective handle is returned.
func (s *Scheduler) Interval(h Handle, every time.Duration, fn TaskFunc) (Handle, error) {
	if fn == nil {
		return "", ErrNilTask
	}
	if every < 0 {
		return "", ErrNegativeDuration
	}

	s.mu.Lock()
	if h == "" {
		h = Handle(uuid.NewString())
	}
	e := &intervalEntry{fn: fn, every: every}
	if s.running {
		now := s.clock.Now()
		e.last, e.start, e.armed = now, now, true
	}
	s.intervals[h] = e
	s.requestTickLocked()
	s.mu.Unlock()

	s.log.Debug("interval registered",
		logx.String("handle", string(h)), logx.Duration("every", every))
	return h, nil
}

// Timeout upserts a one-shot task firing once at least after has passed since
// its start, then removing itself. Replace semantics match Interval.
func (s *Scheduler) Timeout(h Handle, after time.Duration, fn TaskFunc) (Handle, error) {
	if fn == nil {
		return "", ErrNilTask
	}
	if after < 0 {
		return "", ErrNegativeDuration
	}

	s.mu.Lock()
	if h == "" {
		h = Handle(uuid.NewString())
	}
	e := &timeoutEntry{fn: fn, after: after}
	if s.running {
		e.start, e.armed = s.clock.Now(), true
	}
	s.timeouts[h] = e
	s.requestTickLocked()
	s.mu.Unlock()

	s.log.Debug("timeout registered",
		logx.String("handle", string(h)), logx.Duration("after", after))
	return h, nil
}

// Cancel removes h from both registries and from the lock set.
// Unknown handles are a no-op.
func (s *Scheduler) Cancel(h Handle) {
	s.mu.Lock()
	_, hadI := s.intervals[h]
	_, hadT := s.timeouts[h]
	delete(s.intervals, h)
	delete(s.timeouts, h)
	delete(s.locked, h)
	now := s.clock.Now()
	bus := s.bus
	s.mu.Unlock()

	if !hadI && !hadT {
		return
	}
	kind := KindInterval
	if hadT {
		kind = KindTimeout
	}
	s.log.Debug("task cancelled", logx.String("handle", string(h)))
	if bus != nil {
		bus.Publish(eventbus.Event{Type: eventbus.TypeTaskCancelled, Time: now,
			Data: TaskEvent{Handle: h, Kind: kind, At: now}})
	}
}

// Lock suppresses h from firing without losing its schedule. Valid for
// handles that are not currently registered (inert until they are).
func (s *Scheduler) Lock(h Handle) {
	s.mu.Lock()
	s.locked[h] = struct{}{}
	s.mu.Unlock()
}

// Unlock removes h from the lock set.
func (s *Scheduler) Unlock(h Handle) {
	s.mu.Lock()
	delete(s.locked, h)
	s.mu.Unlock()
}

// IsLocked reports whether h is in the lock set.
func (s *Scheduler) IsLocked(h Handle) bool {
	s.mu.Lock()
	_, ok := s.locked[h]
	s.mu.Unlock()
	return ok
}

// Has reports whether h is registered in either registry.
func (s *Scheduler) Has(h Handle) bool {
	s.mu.Lock()
	_, a := s.intervals[h]
	_, b := s.timeouts[h]
	s.mu.Unlock()
	return a || b
}

// Exec starts the scheduler: it stamps start/last-fire timestamps for every
// currently registered task and requests the first tick. Calling Exec on a
// running scheduler is a no-op.
func (s *Scheduler) Exec() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	now := s.clock.Now()
	for _, e := range s.intervals {
		e.last, e.start, e.armed = now, now, true
	}
	for _, e := range s.timeouts {
		e.start, e.armed = now, true
	}
	ni, nt := len(s.intervals), len(s.timeouts)
	s.requestTickLocked()
	s.mu.Unlock()

	s.log.Info("scheduler started", logx.Int("intervals", ni), logx.Int("timeouts", nt))
}

// Tick advances every armed entry against the current clock reading and
// re-requests the next tick while any task remains registered. The host
// ticker calls this once per frame; tests may call it directly.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	s.tickPending = false
	if !s.running {
		s.mu.Unlock()
		return
	}
	now := s.clock.Now()
	s.ticks++
	// Snapshot handles so reentrant mutation from callbacks can't corrupt the
	// iteration. Presence is re-checked per entry at decision time.
	ih := make([]Handle, 0, len(s.intervals))
	for h := range s.intervals {
		ih = append(ih, h)
	}
	th := make([]Handle, 0, len(s.timeouts))
	for h := range s.timeouts {
		th = append(th, h)
	}
	s.mu.Unlock()

	for _, h := range ih {
		s.stepInterval(h, now)
	}
	for _, h := range th {
		s.stepTimeout(h, now)
	}

	s.mu.Lock()
	s.requestTickLocked()
	s.mu.Unlock()
}

// Snapshot returns a diagnostic view of the scheduler. Tasks are ordered by
// handle.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		Running: s.running,
		Ticks:   s.ticks,
		Fires:   s.fires,
		Tasks:   make([]TaskInfo, 0, len(s.intervals)+len(s.timeouts)),
	}
	for h, e := range s.intervals {
		_, lk := s.locked[h]
		snap.Tasks = append(snap.Tasks, TaskInfo{
			Handle: h, Kind: KindInterval, Duration: e.every,
			Armed: e.armed, Locked: lk, Start: e.start, Last: e.last, Fires: e.fires,
		})
	}
	for h, e := range s.timeouts {
		_, lk := s.locked[h]
		snap.Tasks = append(snap.Tasks, TaskInfo{
			Handle: h, Kind: KindTimeout, Duration: e.after,
			Armed: e.armed, Locked: lk, Start: e.start,
		})
	}
	s.mu.Unlock()

	sort.Slice(snap.Tasks, func(i, j int) bool { return snap.Tasks[i].Handle < snap.Tasks[j].Handle })
	return snap
}

func (s *Scheduler) stepInterval(h Handle, now time.Time) {
	s.mu.Lock()
	e, ok := s.intervals[h]
	if !ok || !e.armed {
		s.mu.Unlock()
		return
	}
	if _, lk := s.locked[h]; lk {
		// Locked: skip entirely, leaving last untouched so delta keeps
		// accumulating against the same wall-clock base.
		s.mu.Unlock()
		return
	}
	delta := now.Sub(e.last)
	if e.every > 0 && delta < e.every {
		s.mu.Unlock()
		return
	}
	elapsed := int64(now.Sub(e.start) / time.Second)
	e.last = now
	e.fires++
	s.fires++
	fn := e.fn
	bus := s.bus
	s.mu.Unlock()

	fn(Frame{Delta: delta, Elapsed: elapsed})
	if bus != nil {
		bus.Publish(eventbus.Event{Type: eventbus.TypeTaskFired, Time: now,
			Data: TaskEvent{Handle: h, Kind: KindInterval, At: now, Delta: delta, Elapsed: elapsed}})
	}
}

func (s *Scheduler) stepTimeout(h Handle, now time.Time) {
	s.mu.Lock()
	e, ok := s.timeouts[h]
	if !ok || !e.armed {
		s.mu.Unlock()
		return
	}
	if _, lk := s.locked[h]; lk {
		// Locked: keep waiting. The deadline is not advanced, so after an
		// unlock the first tick past the deadline fires immediately.
		s.mu.Unlock()
		return
	}
	delta := now.Sub(e.start)
	if delta < e.after {
		s.mu.Unlock()
		return
	}
	elapsed := int64(delta / time.Second)
	// Auto-destruct on fire.
	delete(s.timeouts, h)
	s.fires++
	fn := e.fn
	bus := s.bus
	s.mu.Unlock()

	fn(Frame{Delta: delta, Elapsed: elapsed})
	if bus != nil {
		bus.Publish(eventbus.Event{Type: eventbus.TypeTaskExpired, Time: now,
			Data: TaskEvent{Handle: h, Kind: KindTimeout, At: now, Delta: delta, Elapsed: elapsed}})
	}
}

// requestTickLocked arms the next tick of the drive chain. The chain stops
// when both registries are empty; any later registration restarts it.
// Call with s.mu held.
func (s *Scheduler) requestTickLocked() {
	if !s.running || s.tickPending || s.ticker == nil {
		return
	}
	if len(s.intervals) == 0 && len(s.timeouts) == 0 {
		return
	}
	s.tickPending = true
	s.ticker.RequestTick(s.Tick)
}
