package store

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/studo/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "studo.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestLoadMissingReturnsDefault(t *testing.T) {
	st := openTestStore(t)
	doc, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(doc, model.DefaultDocument()) {
		t.Fatalf("expected default document, got %+v", doc)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	doc := model.DefaultDocument()
	doc.Tasks = append(doc.Tasks, model.Task{ID: "t1", Title: "Revise", Subject: "Chem", Date: "2026-10-01T08:00:00Z"})
	doc.Sessions = append(doc.Sessions, model.SessionRecord{ID: "s1", Timestamp: 1, Duration: 1, TaskID: "t1"})
	doc.Settings.UserName = "Kim"
	if err := st.Save(ctx, doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(doc, got) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", doc, got)
	}
}

func TestLoadBackfillsPomodoro(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	legacy := `{"notes":[],"tasks":[],"exams":[],"sessions":[],"settings":{"darkMode":false,"userName":"Student","accentColor":"indigo"}}`
	if err := st.Set(ctx, DocumentKey, legacy); err != nil {
		t.Fatalf("set: %v", err)
	}
	doc, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Settings.Pomodoro != model.DefaultPomodoro() {
		t.Fatalf("expected backfilled pomodoro, got %+v", doc.Settings.Pomodoro)
	}
}

func TestLoadCorruptRecoversDefault(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if err := st.Set(ctx, DocumentKey, "{oops"); err != nil {
		t.Fatalf("set: %v", err)
	}
	doc, err := st.Load(ctx)
	if err == nil {
		t.Fatalf("expected parse error to be reported")
	}
	if !reflect.DeepEqual(doc, model.DefaultDocument()) {
		t.Fatalf("expected default document on corrupt blob")
	}
}

func TestSubscribeReceivesDocument(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	var got []model.Document
	cancel := st.Subscribe(func(doc model.Document) {
		got = append(got, doc)
	})

	if err := st.Update(ctx, func(doc *model.Document) error {
		doc.Settings.UserName = "Ren"
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(got) != 1 || got[0].Settings.UserName != "Ren" {
		t.Fatalf("expected one broadcast with new value, got %+v", got)
	}

	cancel()
	cancel()
	if err := st.Save(ctx, model.DefaultDocument()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected no broadcast after cancel, got %d", len(got))
	}
}

func TestUpdateErrorSkipsWrite(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	calls := 0
	st.Subscribe(func(model.Document) { calls++ })
	boom := errors.New("boom")
	err := st.Update(ctx, func(doc *model.Document) error {
		doc.Settings.UserName = "nope"
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no broadcast")
	}
	if _, ok, _ := st.Get(ctx, DocumentKey); ok {
		t.Fatalf("expected nothing written")
	}
}

func TestSubscriberMayUpdate(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	nested := false
	st.Subscribe(func(doc model.Document) {
		if nested {
			return
		}
		nested = true
		if err := st.Update(ctx, func(d *model.Document) error {
			d.Settings.DarkMode = true
			return nil
		}); err != nil {
			t.Errorf("nested update: %v", err)
		}
	})
	if err := st.Save(ctx, model.DefaultDocument()); err != nil {
		t.Fatalf("save: %v", err)
	}
	doc, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !doc.Settings.DarkMode {
		t.Fatalf("expected nested update to persist")
	}
}

func TestClearBroadcastsDefault(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	doc := model.DefaultDocument()
	doc.Notes = append(doc.Notes, model.Note{ID: "n", Title: "x"})
	if err := st.Save(ctx, doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	var last model.Document
	st.Subscribe(func(d model.Document) { last = d })
	if err := st.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !reflect.DeepEqual(last, model.DefaultDocument()) {
		t.Fatalf("expected default broadcast, got %+v", last)
	}
	loaded, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Notes) != 0 {
		t.Fatalf("expected notes cleared")
	}
}

func TestExportFormats(t *testing.T) {
	doc := model.DefaultDocument()
	doc.Exams = append(doc.Exams, model.Exam{ID: "e1", Subject: "Physics", Date: "2026-12-01", Priority: model.PriorityHigh})

	var jsonBuf bytes.Buffer
	if err := Export(&jsonBuf, doc, "json"); err != nil {
		t.Fatalf("export json: %v", err)
	}
	if !strings.Contains(jsonBuf.String(), `"subject": "Physics"`) {
		t.Fatalf("unexpected json: %s", jsonBuf.String())
	}

	var yamlBuf bytes.Buffer
	if err := Export(&yamlBuf, doc, "yaml"); err != nil {
		t.Fatalf("export yaml: %v", err)
	}
	var decoded model.Document
	if err := yaml.Unmarshal(yamlBuf.Bytes(), &decoded); err != nil {
		t.Fatalf("parse yaml: %v", err)
	}
	if len(decoded.Exams) != 1 || decoded.Exams[0].Priority != model.PriorityHigh {
		t.Fatalf("unexpected yaml round trip: %+v", decoded.Exams)
	}
	if decoded.Settings.Pomodoro != model.DefaultPomodoro() {
		t.Fatalf("unexpected yaml settings: %+v", decoded.Settings)
	}

	if err := Export(&bytes.Buffer{}, doc, "xml"); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}
