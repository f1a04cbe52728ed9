package focus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/verte-zerg/studo/internal/model"
)

type memStore struct {
	mu        sync.Mutex
	doc       model.Document
	listeners map[int]func(model.Document)
	next      int
	failWith  error
}

func newMemStore() *memStore {
	return &memStore{doc: model.DefaultDocument(), listeners: map[int]func(model.Document){}}
}

func (s *memStore) Update(_ context.Context, fn func(doc *model.Document) error) error {
	s.mu.Lock()
	if s.failWith != nil {
		s.mu.Unlock()
		return s.failWith
	}
	doc := s.doc.Clone()
	if err := fn(&doc); err != nil {
		s.mu.Unlock()
		return err
	}
	s.doc = doc
	listeners := make([]func(model.Document), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(doc.Clone())
	}
	return nil
}

func (s *memStore) Subscribe(fn func(doc model.Document)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *memStore) sessions() []model.SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.SessionRecord(nil), s.doc.Sessions...)
}

func (s *memStore) setPomodoro(t *testing.T, p model.Pomodoro) {
	t.Helper()
	if err := s.Update(context.Background(), func(doc *model.Document) error {
		doc.Settings.Pomodoro = p
		return nil
	}); err != nil {
		t.Fatalf("update settings: %v", err)
	}
}

func newTestEngine(t *testing.T, p model.Pomodoro) (*Engine, *memStore, *ManualScheduler) {
	t.Helper()
	st := newMemStore()
	st.doc.Settings.Pomodoro = p
	sched := &ManualScheduler{}
	ids := 0
	engine := New(st, p, Options{
		Scheduler: sched,
		Now:       func() time.Time { return time.Unix(1700000000, 0) },
		NewID: func() string {
			ids++
			return fmt.Sprintf("rec-%d", ids)
		},
	})
	t.Cleanup(engine.Close)
	return engine, st, sched
}

func TestInitialState(t *testing.T) {
	engine, _, sched := newTestEngine(t, model.DefaultPomodoro())
	if engine.Mode() != model.ModeWork {
		t.Fatalf("expected work mode, got %s", engine.Mode())
	}
	if engine.IsActive() {
		t.Fatalf("expected paused")
	}
	if engine.TimeLeft() != 1500 {
		t.Fatalf("expected 1500 seconds, got %d", engine.TimeLeft())
	}
	if sched.Armed() {
		t.Fatalf("scheduler should not be armed before start")
	}
	if engine.Progress() != 100 {
		t.Fatalf("expected full progress, got %v", engine.Progress())
	}
}

func TestSwitchModeUsesConfiguredMinutes(t *testing.T) {
	for _, work := range []int{1, 2, 25, 50, 90, 180} {
		engine, _, _ := newTestEngine(t, model.Pomodoro{Work: work, Short: 5, Long: 15})
		engine.SwitchMode(model.ModeWork)
		if got := engine.TimeLeft(); got != work*60 {
			t.Fatalf("work=%d: expected %d, got %d", work, work*60, got)
		}
	}
	engine, _, _ := newTestEngine(t, model.Pomodoro{Work: 25, Short: 7, Long: 20})
	engine.SwitchMode(model.ModeShortBreak)
	if engine.TimeLeft() != 420 || engine.Mode() != model.ModeShortBreak {
		t.Fatalf("unexpected short break state: %+v", engine.Snapshot())
	}
	engine.SwitchMode(model.ModeLongBreak)
	if engine.TimeLeft() != 1200 {
		t.Fatalf("unexpected long break time: %d", engine.TimeLeft())
	}
	engine.SwitchMode(model.Mode("nap"))
	if engine.Mode() != model.ModeLongBreak {
		t.Fatalf("unknown mode must be ignored")
	}
}

func TestToggleTwiceRestoresState(t *testing.T) {
	engine, _, sched := newTestEngine(t, model.DefaultPomodoro())
	before := engine.Snapshot()
	engine.Toggle()
	if !engine.IsActive() || !sched.Armed() {
		t.Fatalf("expected active and armed after first toggle")
	}
	if sched.Interval() != time.Second {
		t.Fatalf("expected 1s tick, got %v", sched.Interval())
	}
	engine.Toggle()
	after := engine.Snapshot()
	if after != before {
		t.Fatalf("expected %+v, got %+v", before, after)
	}
	if sched.Armed() {
		t.Fatalf("pause must cancel the schedule")
	}
}

func TestSixtyTicksLogOneMinute(t *testing.T) {
	engine, st, sched := newTestEngine(t, model.DefaultPomodoro())
	engine.Toggle()
	start := engine.TimeLeft()
	if fired := sched.Fire(60); fired != 60 {
		t.Fatalf("expected 60 ticks, fired %d", fired)
	}
	records := st.sessions()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Duration != 1 || records[0].ID != "rec-1" {
		t.Fatalf("unexpected record: %+v", records[0])
	}
	if records[0].Timestamp != time.Unix(1700000000, 0).UnixMilli() {
		t.Fatalf("unexpected timestamp: %d", records[0].Timestamp)
	}
	if engine.accrued != 0 {
		t.Fatalf("expected accrual reset, got %d", engine.accrued)
	}
	if engine.TimeLeft() != start-60 {
		t.Fatalf("expected %d, got %d", start-60, engine.TimeLeft())
	}
}

func TestBreakTicksDoNotAccrue(t *testing.T) {
	engine, st, sched := newTestEngine(t, model.DefaultPomodoro())
	engine.SwitchMode(model.ModeShortBreak)
	engine.Toggle()
	sched.Fire(120)
	if len(st.sessions()) != 0 {
		t.Fatalf("break time must not be logged")
	}
	if engine.accrued != 0 {
		t.Fatalf("break ticks must not accrue, got %d", engine.accrued)
	}
	if engine.TimeLeft() != 180 {
		t.Fatalf("expected 180 left, got %d", engine.TimeLeft())
	}
}

func TestCompletionCreditsPartialMinute(t *testing.T) {
	// accrued is the counter before the final tick; the final tick adds one.
	cases := []struct {
		name        string
		accrued     int
		wantRecords int
	}{
		{name: "35 at completion", accrued: 34, wantRecords: 1},
		{name: "31 at completion", accrued: 30, wantRecords: 1},
		{name: "30 at completion", accrued: 29, wantRecords: 0},
		{name: "6 at completion", accrued: 5, wantRecords: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine, st, sched := newTestEngine(t, model.DefaultPomodoro())
			events := engine.Subscribe(16)
			engine.Toggle()
			engine.mu.Lock()
			engine.timeLeft = 1
			engine.accrued = tc.accrued
			engine.mu.Unlock()

			sched.Fire(1)
			if got := len(st.sessions()); got != tc.wantRecords {
				t.Fatalf("expected %d records, got %d", tc.wantRecords, got)
			}
			if engine.IsActive() {
				t.Fatalf("completion must pause")
			}
			if engine.TimeLeft() != 1500 {
				t.Fatalf("expected reset to 1500, got %d", engine.TimeLeft())
			}
			if engine.accrued != 0 {
				t.Fatalf("expected accrual cleared")
			}
			if sched.Armed() {
				t.Fatalf("completion must cancel the schedule")
			}
			var complete *Event
			for len(events) > 0 {
				ev := <-events
				if ev.Type == EventComplete {
					complete = &ev
				}
			}
			if complete == nil || complete.Message != WorkCompleteMessage {
				t.Fatalf("expected work completion event, got %+v", complete)
			}
		})
	}
}

func TestBreakCompletionMessage(t *testing.T) {
	engine, st, sched := newTestEngine(t, model.Pomodoro{Work: 25, Short: 1, Long: 15})
	events := engine.Subscribe(256)
	engine.SwitchMode(model.ModeShortBreak)
	engine.Toggle()
	if fired := sched.Fire(100); fired != 60 {
		t.Fatalf("expected the schedule to stop after 60 ticks, fired %d", fired)
	}
	if engine.Mode() != model.ModeShortBreak {
		t.Fatalf("completion must not advance the mode")
	}
	if len(st.sessions()) != 0 {
		t.Fatalf("break completion must not log")
	}
	found := false
	for len(events) > 0 {
		ev := <-events
		if ev.Type == EventComplete {
			found = ev.Message == BreakCompleteMessage
		}
	}
	if !found {
		t.Fatalf("expected break completion message")
	}
}

func TestSwitchModeDiscardsAccrual(t *testing.T) {
	engine, st, sched := newTestEngine(t, model.DefaultPomodoro())
	engine.Toggle()
	sched.Fire(40)
	if engine.accrued != 40 {
		t.Fatalf("expected accrual 40, got %d", engine.accrued)
	}
	engine.SwitchMode(model.ModeShortBreak)
	if sched.Armed() || engine.IsActive() {
		t.Fatalf("switch must pause and cancel")
	}
	engine.SwitchMode(model.ModeWork)
	if len(st.sessions()) != 0 {
		t.Fatalf("expected no records, got %d", len(st.sessions()))
	}
	if engine.accrued != 0 {
		t.Fatalf("expected accrual 0, got %d", engine.accrued)
	}
	if engine.TimeLeft() != 1500 {
		t.Fatalf("expected full work time, got %d", engine.TimeLeft())
	}
}

func TestResetWhileActive(t *testing.T) {
	engine, st, sched := newTestEngine(t, model.DefaultPomodoro())
	engine.SwitchMode(model.ModeLongBreak)
	engine.SwitchMode(model.ModeWork)
	engine.Toggle()
	sched.Fire(25)
	engine.Reset()
	if engine.IsActive() || sched.Armed() {
		t.Fatalf("reset must pause and cancel")
	}
	if engine.Mode() != model.ModeWork {
		t.Fatalf("reset must keep the mode")
	}
	if engine.TimeLeft() != 1500 {
		t.Fatalf("expected 1500, got %d", engine.TimeLeft())
	}
	if len(st.sessions()) != 0 {
		t.Fatalf("reset must not log partial progress")
	}
}

func TestFullWorkSessionScenario(t *testing.T) {
	engine, st, sched := newTestEngine(t, model.DefaultPomodoro())
	engine.SwitchMode(model.ModeWork)
	if engine.TimeLeft() != 1500 {
		t.Fatalf("expected 1500, got %d", engine.TimeLeft())
	}
	events := engine.Subscribe(4096)
	engine.Toggle()
	if fired := sched.Fire(1500); fired != 1500 {
		t.Fatalf("expected 1500 ticks, fired %d", fired)
	}
	if engine.IsActive() {
		t.Fatalf("expected inactive after completion")
	}
	records := st.sessions()
	if len(records) != 25 {
		t.Fatalf("expected 25 records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.Duration != 1 {
			t.Fatalf("unexpected duration: %+v", rec)
		}
	}
	if engine.TimeLeft() != 1500 {
		t.Fatalf("expected timer reloaded to 1500, got %d", engine.TimeLeft())
	}

	sawZero := false
	logged := 0
	for len(events) > 0 {
		ev := <-events
		switch ev.Type {
		case EventLogged:
			logged++
		case EventComplete:
			sawZero = true
		}
	}
	if logged != 25 || !sawZero {
		t.Fatalf("expected 25 logged events and a completion, got %d/%v", logged, sawZero)
	}
	if sched.Fire(5) != 0 {
		t.Fatalf("no ticks expected after completion")
	}
}

func TestStaleTickIsIgnored(t *testing.T) {
	engine, st, sched := newTestEngine(t, model.DefaultPomodoro())
	engine.Toggle()
	stale := sched.Capture()
	if stale == nil {
		t.Fatalf("expected a scheduled callback")
	}
	engine.Reset()
	stale()
	if engine.TimeLeft() != 1500 {
		t.Fatalf("stale tick changed time: %d", engine.TimeLeft())
	}

	engine.Toggle()
	sched.Fire(10)
	stale()
	if engine.TimeLeft() != 1490 {
		t.Fatalf("stale tick from previous run must not double-decrement, got %d", engine.TimeLeft())
	}
	if engine.accrued != 10 {
		t.Fatalf("stale tick must not accrue, got %d", engine.accrued)
	}
	if len(st.sessions()) != 0 {
		t.Fatalf("unexpected records")
	}
}

func TestSelectedTaskTagsRecords(t *testing.T) {
	engine, st, sched := newTestEngine(t, model.DefaultPomodoro())
	engine.SetSelectedTask("task-1")
	engine.Toggle()
	sched.Fire(60)
	engine.SetSelectedTask("")
	sched.Fire(60)
	records := st.sessions()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].TaskID != "task-1" || records[1].TaskID != "" {
		t.Fatalf("unexpected task tags: %+v", records)
	}
	if engine.SelectedTaskID() != "" {
		t.Fatalf("expected cleared selection")
	}
}

func TestSettingsChangeWhilePausedReloads(t *testing.T) {
	engine, st, _ := newTestEngine(t, model.DefaultPomodoro())
	st.setPomodoro(t, model.Pomodoro{Work: 40, Short: 5, Long: 15})
	if engine.TimeLeft() != 2400 {
		t.Fatalf("expected 2400, got %d", engine.TimeLeft())
	}
	if engine.Pomodoro().Work != 40 {
		t.Fatalf("expected engine to track new settings")
	}
}

func TestSettingsChangeWhilePausedKeepsAccrual(t *testing.T) {
	engine, st, sched := newTestEngine(t, model.DefaultPomodoro())
	engine.Toggle()
	sched.Fire(20)
	engine.Toggle()

	st.setPomodoro(t, model.Pomodoro{Work: 30, Short: 5, Long: 15})
	if engine.TimeLeft() != 1800 {
		t.Fatalf("expected 1800, got %d", engine.TimeLeft())
	}
	if engine.accrued != 20 {
		t.Fatalf("settings change must keep accrual, got %d", engine.accrued)
	}

	engine.Toggle()
	sched.Fire(40)
	if got := len(st.sessions()); got != 1 {
		t.Fatalf("expected carried accrual to complete a minute, got %d records", got)
	}
}

func TestSettingsChangeWhileActiveIsDeferred(t *testing.T) {
	engine, st, sched := newTestEngine(t, model.DefaultPomodoro())
	engine.Toggle()
	sched.Fire(10)
	st.setPomodoro(t, model.Pomodoro{Work: 10, Short: 5, Long: 15})
	if engine.TimeLeft() != 1490 {
		t.Fatalf("active countdown must be untouched, got %d", engine.TimeLeft())
	}
	if !engine.IsActive() {
		t.Fatalf("settings change must not pause")
	}
	engine.Reset()
	if engine.TimeLeft() != 600 {
		t.Fatalf("deferred settings should apply on reset, got %d", engine.TimeLeft())
	}
}

func TestUnrelatedSaveKeepsPausedProgress(t *testing.T) {
	engine, st, sched := newTestEngine(t, model.DefaultPomodoro())
	engine.Toggle()
	sched.Fire(30)
	engine.Toggle()
	if err := st.Update(context.Background(), func(doc *model.Document) error {
		doc.Tasks = append(doc.Tasks, model.Task{ID: "x", Title: "read"})
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if engine.TimeLeft() != 1470 {
		t.Fatalf("unrelated save must not reset the countdown, got %d", engine.TimeLeft())
	}
}

func TestPersistFailureEmitsError(t *testing.T) {
	engine, st, sched := newTestEngine(t, model.DefaultPomodoro())
	st.failWith = errors.New("disk full")
	events := engine.Subscribe(128)
	engine.Toggle()
	sched.Fire(60)
	if !engine.IsActive() {
		t.Fatalf("persist failure must not stop the timer")
	}
	found := false
	for len(events) > 0 {
		if ev := <-events; ev.Type == EventError {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected error event")
	}
}

func TestProgress(t *testing.T) {
	engine, _, sched := newTestEngine(t, model.Pomodoro{Work: 1, Short: 5, Long: 15})
	engine.Toggle()
	sched.Fire(15)
	if got := engine.Progress(); got != 75 {
		t.Fatalf("expected 75%%, got %v", got)
	}
}

func TestCloseStopsEverything(t *testing.T) {
	engine, _, sched := newTestEngine(t, model.DefaultPomodoro())
	events := engine.Subscribe(4)
	engine.Toggle()
	engine.Close()
	if sched.Armed() {
		t.Fatalf("close must cancel the schedule")
	}
	for range events {
	}
	engine.Toggle()
	if engine.IsActive() {
		t.Fatalf("closed engine must not start")
	}
}

func TestFormatTime(t *testing.T) {
	cases := map[int]string{
		0:    "00:00",
		59:   "00:59",
		60:   "01:00",
		1500: "25:00",
		6001: "100:01",
		-5:   "00:00",
	}
	for input, want := range cases {
		if got := FormatTime(input); got != want {
			t.Fatalf("FormatTime(%d) = %q, want %q", input, got, want)
		}
	}
}

// gatedStore holds every Update until release is closed.
type gatedStore struct {
	*memStore
	entered chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		memStore: newMemStore(),
		entered:  make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
}

func (s *gatedStore) Update(ctx context.Context, fn func(doc *model.Document) error) error {
	select {
	case s.entered <- struct{}{}:
	default:
	}
	<-s.release
	return s.memStore.Update(ctx, fn)
}

func waitClosed(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestResetDuringPersistIsLastStateObserved(t *testing.T) {
	st := newGatedStore()
	sched := &ManualScheduler{}
	engine := New(st, model.DefaultPomodoro(), Options{Scheduler: sched})
	t.Cleanup(engine.Close)
	events := engine.Subscribe(256)

	engine.Toggle()
	sched.Fire(59)
	fired := make(chan struct{})
	go func() {
		sched.Fire(1)
		close(fired)
	}()
	waitClosed(t, st.entered, "minute persist")

	engine.Reset()
	close(st.release)
	waitClosed(t, fired, "tick")

	var last Event
	for len(events) > 0 {
		last = <-events
	}
	want := engine.Snapshot()
	if last.State != want {
		t.Fatalf("last observed state %+v, engine state %+v", last.State, want)
	}
	if want.Active || want.TimeLeft != 1500 {
		t.Fatalf("expected paused full duration, got %+v", want)
	}
	if got := len(st.sessions()); got != 1 {
		t.Fatalf("minute before reset must still be logged, got %d", got)
	}
}

func TestCloseWaitsForRunningTick(t *testing.T) {
	st := newGatedStore()
	sched := &ManualScheduler{}
	engine := New(st, model.DefaultPomodoro(), Options{Scheduler: sched})

	engine.Toggle()
	sched.Fire(59)
	fired := make(chan struct{})
	go func() {
		sched.Fire(1)
		close(fired)
	}()
	waitClosed(t, st.entered, "minute persist")

	closed := make(chan struct{})
	go func() {
		engine.Close()
		close(closed)
	}()
	select {
	case <-closed:
		t.Fatalf("close returned while a tick was still persisting")
	case <-time.After(50 * time.Millisecond):
	}

	close(st.release)
	waitClosed(t, closed, "close")
	waitClosed(t, fired, "tick")
	if got := len(st.sessions()); got != 1 {
		t.Fatalf("expected the running minute to be saved, got %d", got)
	}
}
