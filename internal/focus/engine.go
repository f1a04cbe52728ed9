// Package focus implements the focus-session timer engine.
package focus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/studo/internal/model"
)

const (
	// minuteSeconds of accrued work time are credited as one record.
	minuteSeconds = 60
	// partialThreshold is the accrual a natural completion must exceed to
	// credit a final minute.
	partialThreshold = 30
)

// DocumentStore is the persistence the engine needs: append session records
// and observe settings changes.
type DocumentStore interface {
	Update(ctx context.Context, fn func(doc *model.Document) error) error
	Subscribe(fn func(doc model.Document)) (cancel func())
}

// Options contains runtime options for the engine.
type Options struct {
	// Scheduler drives ticks. Defaults to TickerScheduler.
	Scheduler Scheduler
	// TickInterval is the wall-clock length of one tick. Defaults to 1s.
	TickInterval time.Duration
	// Now returns the current instant. Defaults to time.Now.
	Now func() time.Time
	// NewID returns identifiers for session records. Defaults to uuid.NewString.
	NewID func() string
}

// Engine is the focus timer state machine.
type Engine struct {
	mu        sync.Mutex
	store     DocumentStore
	scheduler Scheduler
	interval  time.Duration
	now       func() time.Time
	newID     func() string

	pomodoro model.Pomodoro
	mode     model.Mode
	timeLeft int
	active   bool
	accrued  int
	taskID   string

	// generation invalidates callbacks armed before the last cancel.
	generation uint64
	cancelTick func()
	closed     bool
	// inflight counts ticks that passed the generation check and may still
	// be persisting or emitting.
	inflight sync.WaitGroup
	// seq orders state snapshots taken under mu.
	seq uint64

	unsubscribe func()

	eventsMu sync.Mutex
	events   []chan Event
	// delivered is the newest snapshot sent to observers.
	delivered      uint64
	deliveredState State
}

// New creates a paused engine in work mode using pomodoro for interval
// lengths. It subscribes to store for later settings changes.
func New(store DocumentStore, pomodoro model.Pomodoro, options Options) *Engine {
	if options.Scheduler == nil {
		options.Scheduler = TickerScheduler{}
	}
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.NewID == nil {
		options.NewID = uuid.NewString
	}

	engine := &Engine{
		store:     store,
		scheduler: options.Scheduler,
		interval:  options.TickInterval,
		now:       options.Now,
		newID:     options.NewID,
		pomodoro:  pomodoro,
		mode:      model.ModeWork,
	}
	engine.timeLeft = engine.durationLocked(model.ModeWork)
	if store != nil {
		engine.unsubscribe = store.Subscribe(engine.applyDocument)
	}
	return engine
}

// Subscribe registers a new observer channel. Sends never block; a full
// channel drops the event.
func (e *Engine) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	e.eventsMu.Lock()
	e.events = append(e.events, ch)
	e.eventsMu.Unlock()
	return ch
}

// Close cancels any pending tick, waits for a tick that is still running,
// detaches from the store and closes observer channels.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.cancelLocked()
	e.active = false
	unsubscribe := e.unsubscribe
	e.unsubscribe = nil
	e.mu.Unlock()

	// A tick already past its checks finishes persisting before the store
	// can be closed underneath it.
	e.inflight.Wait()

	if unsubscribe != nil {
		unsubscribe()
	}

	e.eventsMu.Lock()
	events := e.events
	e.events = nil
	e.eventsMu.Unlock()
	for _, ch := range events {
		close(ch)
	}
}

// Toggle starts a paused countdown or pauses a running one.
func (e *Engine) Toggle() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if e.active {
		e.cancelLocked()
		e.active = false
	} else {
		e.active = true
		e.armLocked()
	}
	state, seq := e.snapshotLocked()
	e.mu.Unlock()

	e.emit(Event{Type: EventStateChange, State: state, At: e.now(), seq: seq})
}

// Reset pauses and restores the full duration of the current mode. Partial
// progress is discarded.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.cancelLocked()
	e.active = false
	e.accrued = 0
	e.timeLeft = e.durationLocked(e.mode)
	state, seq := e.snapshotLocked()
	e.mu.Unlock()

	e.emit(Event{Type: EventStateChange, State: state, At: e.now(), seq: seq})
}

// SwitchMode pauses and loads the full duration of mode. Progress in the
// previous mode is discarded, not logged. Unknown modes are ignored.
func (e *Engine) SwitchMode(mode model.Mode) {
	if !mode.Valid() {
		return
	}
	e.mu.Lock()
	e.cancelLocked()
	e.active = false
	e.mode = mode
	e.accrued = 0
	e.timeLeft = e.durationLocked(mode)
	state, seq := e.snapshotLocked()
	e.mu.Unlock()

	e.emit(Event{Type: EventStateChange, State: state, At: e.now(), seq: seq})
}

// SetSelectedTask tags future session records with id. An empty id clears
// the selection. The id is not validated; it is resolved when displayed.
func (e *Engine) SetSelectedTask(id string) {
	e.mu.Lock()
	e.taskID = id
	state, seq := e.snapshotLocked()
	e.mu.Unlock()

	e.emit(Event{Type: EventStateChange, State: state, At: e.now(), seq: seq})
}

// TimeLeft returns the remaining seconds of the countdown.
func (e *Engine) TimeLeft() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeLeft
}

// IsActive reports whether the countdown is running.
func (e *Engine) IsActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Mode returns the current interval kind.
func (e *Engine) Mode() model.Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// SelectedTaskID returns the raw selected task key, which may dangle.
func (e *Engine) SelectedTaskID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.taskID
}

// Progress returns the remaining share of the interval as a percentage.
func (e *Engine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progressLocked()
}

// Snapshot returns the full current state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// Pomodoro returns the interval lengths the engine currently uses.
func (e *Engine) Pomodoro() model.Pomodoro {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pomodoro
}

// tick advances the countdown by one second. Callbacks armed before the
// latest cancel carry a stale generation and do nothing.
func (e *Engine) tick(generation uint64) {
	e.mu.Lock()
	if generation != e.generation || !e.active || e.closed {
		e.mu.Unlock()
		return
	}
	e.inflight.Add(1)
	defer e.inflight.Done()

	var records []model.SessionRecord
	if e.timeLeft > 0 {
		e.timeLeft--
	}
	if e.mode == model.ModeWork {
		e.accrued++
		if e.accrued >= minuteSeconds {
			records = append(records, e.newRecordLocked())
			e.accrued = 0
		}
	}

	completed := e.timeLeft == 0
	completedMode := e.mode
	if completed {
		e.cancelLocked()
		e.active = false
		if e.mode == model.ModeWork && e.accrued > partialThreshold {
			records = append(records, e.newRecordLocked())
		}
		e.accrued = 0
		e.timeLeft = e.durationLocked(e.mode)
	}
	state, seq := e.snapshotLocked()
	e.mu.Unlock()

	// Records are persisted before observers hear about the tick.
	for i := range records {
		e.persist(records[i], state, seq)
	}

	now := e.now()
	e.emit(Event{Type: EventTick, State: state, At: now, seq: seq})
	if completed {
		e.emit(Event{
			Type:    EventComplete,
			State:   state,
			Message: completionMessage(completedMode),
			At:      now,
			seq:     seq,
		})
	}
}

func (e *Engine) persist(record model.SessionRecord, state State, seq uint64) {
	if e.store == nil {
		return
	}
	err := e.store.Update(context.Background(), func(doc *model.Document) error {
		doc.Sessions = append(doc.Sessions, record)
		return nil
	})
	if err != nil {
		e.emit(Event{
			Type:    EventError,
			State:   state,
			Message: fmt.Sprintf("failed to save focus minute: %v", err),
			At:      e.now(),
			seq:     seq,
		})
		return
	}
	logged := record
	e.emit(Event{Type: EventLogged, State: state, Record: &logged, At: e.now(), seq: seq})
}

// applyDocument receives every saved document. Interval changes apply at
// once while paused and are deferred while a countdown runs. The accrual
// counter is kept; only a logged minute, a reset or a mode switch clears it.
func (e *Engine) applyDocument(doc model.Document) {
	e.mu.Lock()
	next := doc.Settings.Pomodoro
	if next == e.pomodoro || e.closed {
		e.mu.Unlock()
		return
	}
	e.pomodoro = next
	if e.active {
		e.mu.Unlock()
		return
	}
	e.timeLeft = e.durationLocked(e.mode)
	state, seq := e.snapshotLocked()
	e.mu.Unlock()

	e.emit(Event{Type: EventStateChange, State: state, At: e.now(), seq: seq})
}

func (e *Engine) armLocked() {
	e.cancelLocked()
	generation := e.generation
	e.cancelTick = e.scheduler.Every(e.interval, func() {
		e.tick(generation)
	})
}

// cancelLocked stops the pending schedule and invalidates any callback that
// already fired but has not acquired the lock yet.
func (e *Engine) cancelLocked() {
	if e.cancelTick != nil {
		e.cancelTick()
		e.cancelTick = nil
	}
	e.generation++
}

func (e *Engine) newRecordLocked() model.SessionRecord {
	return model.SessionRecord{
		ID:        e.newID(),
		Timestamp: e.now().UnixMilli(),
		Duration:  1,
		TaskID:    e.taskID,
	}
}

func (e *Engine) durationLocked(mode model.Mode) int {
	seconds := e.pomodoro.Seconds(mode)
	if seconds < 0 {
		return 0
	}
	return seconds
}

func (e *Engine) progressLocked() float64 {
	total := e.durationLocked(e.mode)
	if total <= 0 {
		return 0
	}
	progress := float64(e.timeLeft) / float64(total) * 100
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}

func (e *Engine) stateLocked() State {
	return State{
		Mode:           e.mode,
		TimeLeft:       e.timeLeft,
		Active:         e.active,
		Progress:       e.progressLocked(),
		SelectedTaskID: e.taskID,
	}
}

// snapshotLocked returns the current state with a fresh sequence number.
func (e *Engine) snapshotLocked() (State, uint64) {
	e.seq++
	return e.stateLocked(), e.seq
}

// emit fans event out to observers. An event stamped before the newest
// delivered snapshot carries that snapshot instead, so observers never see
// the state move backwards.
func (e *Engine) emit(event Event) {
	e.eventsMu.Lock()
	defer e.eventsMu.Unlock()
	if event.seq < e.delivered {
		event.State = e.deliveredState
	} else {
		e.delivered = event.seq
		e.deliveredState = event.State
	}
	for _, ch := range e.events {
		select {
		case ch <- event:
		default:
		}
	}
}

// FormatTime renders seconds as zero-padded MM:SS. Minutes are not capped at
// two digits.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
