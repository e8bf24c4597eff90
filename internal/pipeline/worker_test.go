package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dgallion1/pdfoutline/internal/chunker"
	"github.com/dgallion1/pdfoutline/internal/config"
	"github.com/dgallion1/pdfoutline/internal/heading"
	"github.com/dgallion1/pdfoutline/internal/layout"
	"github.com/dgallion1/pdfoutline/internal/layout/layouttest"
	"github.com/dgallion1/pdfoutline/internal/stats"
	"github.com/dgallion1/pdfoutline/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func specDraftParser(data []byte, filename string) (*layout.Document, error) {
	return layouttest.SpecDraft(), nil
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func newTestWorker(t *testing.T, parse ParseFunc) (*Worker, *store.Store, *stats.Extraction) {
	t.Helper()
	st := openStore(t)
	es := stats.NewExtraction(time.Hour)
	ext := heading.NewExtractor(heading.DefaultConfig(), quietLogger())
	return NewWorker(ext, st, es, parse, quietLogger(), 1, chunker.DefaultConfig()), st, es
}

func TestWorker_Process(t *testing.T) {
	w, st, es := newTestWorker(t, specDraftParser)
	ctx := context.Background()
	job := NewJob("draft.pdf", []byte("draft bytes"), false)

	w.Process(ctx, job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected status %q, got %q (errors %v)", StatusCompleted, snap.Status, snap.Progress.Errors)
	}
	o, ok := job.Result()
	if !ok {
		t.Fatal("expected a result")
	}
	if o.Title != "Spec Draft" {
		t.Errorf("expected title %q, got %q", "Spec Draft", o.Title)
	}
	if len(o.Outline) != 2 {
		t.Fatalf("expected 2 headings, got %+v", o.Outline)
	}
	if o.Outline[0].Page != 2 || o.Outline[1].Page != 3 {
		t.Errorf("expected 1-based pages 2 and 3, got %d and %d", o.Outline[0].Page, o.Outline[1].Page)
	}
	if snap.Progress.Pages != 3 || snap.Progress.Headings != 2 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
	if snap.Progress.Method != string(heading.MethodHeuristic) {
		t.Errorf("expected heuristic method, got %q", snap.Progress.Method)
	}
	if len(job.Sections()) < 2 {
		t.Errorf("expected sections for both headings, got %d", len(job.Sections()))
	}
	if job.FileData() != nil {
		t.Error("expected upload bytes to be released")
	}

	rec, err := st.Get(ctx, job.DocID)
	if err != nil {
		t.Fatalf("expected stored outline: %v", err)
	}
	if rec.Filename != "draft.pdf" || rec.Headings != 2 || rec.Pages != 3 {
		t.Errorf("unexpected record %+v", rec)
	}
	if len(rec.Diagnostics) == 0 {
		t.Error("expected diagnostics to be stored")
	}

	s := es.Snapshot()
	if s.Count != 1 || s.Outcomes[stats.OutcomeOutline] != 1 {
		t.Errorf("expected one outline sample, got %+v", s)
	}
}

func TestWorker_DuplicateSkipped(t *testing.T) {
	calls := 0
	parse := func(data []byte, filename string) (*layout.Document, error) {
		calls++
		return layouttest.SpecDraft(), nil
	}
	w, _, _ := newTestWorker(t, parse)
	ctx := context.Background()
	data := []byte("same bytes")

	w.Process(ctx, NewJob("a.pdf", data, false))

	dup := NewJob("b.pdf", data, false)
	w.Process(ctx, dup)
	if dup.Snapshot().Status != StatusDupSkipped {
		t.Fatalf("expected status %q, got %q", StatusDupSkipped, dup.Snapshot().Status)
	}
	if calls != 1 {
		t.Errorf("expected duplicate not to be parsed, got %d parses", calls)
	}
	o, ok := dup.Result()
	if !ok || o.Title != "Spec Draft" || len(o.Outline) != 2 {
		t.Errorf("expected stored outline on duplicate, got %+v", o)
	}

	forced := NewJob("b.pdf", data, true)
	w.Process(ctx, forced)
	if forced.Snapshot().Status != StatusCompleted {
		t.Errorf("expected forced job to complete, got %q", forced.Snapshot().Status)
	}
	if calls != 2 {
		t.Errorf("expected forced job to be parsed, got %d parses", calls)
	}
}

func TestWorker_ParseFailure(t *testing.T) {
	parse := func(data []byte, filename string) (*layout.Document, error) {
		return nil, errors.New("bad xref table")
	}
	w, st, es := newTestWorker(t, parse)
	ctx := context.Background()
	job := NewJob("broken.pdf", []byte("%PDF-garbage"), false)

	w.Process(ctx, job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "parsing" {
		t.Errorf("expected failed in parsing, got %q in %q", snap.Status, snap.Phase)
	}
	o, ok := job.Result()
	if !ok {
		t.Fatal("expected a best-effort result")
	}
	if o.Title != "Untitled Document" {
		t.Errorf("expected placeholder title, got %q", o.Title)
	}
	if o.Outline == nil || len(o.Outline) != 0 {
		t.Errorf("expected empty non-nil outline, got %+v", o.Outline)
	}
	if _, err := st.Get(ctx, job.DocID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected nothing stored, got %v", err)
	}
	if es.Snapshot().Outcomes[stats.OutcomeFailed] != 1 {
		t.Errorf("expected one failed sample, got %+v", es.Snapshot())
	}
}

func TestWorker_RecoversPanic(t *testing.T) {
	parse := func(data []byte, filename string) (*layout.Document, error) {
		panic("corrupt content stream")
	}
	w, _, _ := newTestWorker(t, parse)
	job := NewJob("panic.pdf", []byte("x"), false)

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, snap.Status)
	}
	if len(snap.Progress.Errors) != 1 {
		t.Errorf("expected the panic to be recorded, got %v", snap.Progress.Errors)
	}
}

func TestWorker_LabelerError(t *testing.T) {
	st := openStore(t)
	ext := heading.NewExtractor(heading.DefaultConfig(), quietLogger(), heading.WithLabeler(failingLabeler{}))
	w := NewWorker(ext, st, nil, specDraftParser, quietLogger(), 1, chunker.DefaultConfig())
	job := NewJob("draft.pdf", []byte("draft"), false)

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "extracting" {
		t.Errorf("expected failed in extracting, got %q in %q", snap.Status, snap.Phase)
	}
	o, _ := job.Result()
	if o.Title != "Spec Draft" {
		t.Errorf("expected best-effort title %q, got %q", "Spec Draft", o.Title)
	}
}

type failingLabeler struct{}

func (failingLabeler) Label(lines []layout.Line) ([]int, error) {
	return nil, errors.New("model unavailable")
}

func TestOrchestrator_SubmitAndProcess(t *testing.T) {
	cfg := config.Config{
		WorkerCount:  2,
		MaxQueueSize: 10,
		JobTTL:       time.Hour,
		PageBase:     1,
		ChunkSize:    1500,
		ChunkOverlap: 200,
	}
	ext := heading.NewExtractor(heading.DefaultConfig(), quietLogger())
	o := NewOrchestrator(cfg, ext, openStore(t), stats.NewExtraction(time.Hour), quietLogger(), WithParser(specDraftParser))
	o.Start(context.Background())

	job := NewJob("draft.pdf", []byte("draft"), false)
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if o.GetJob(job.ID) != job {
		t.Fatal("expected job to be registered")
	}

	deadline := time.Now().Add(5 * time.Second)
	for !job.Snapshot().Status.Done() {
		if time.Now().After(deadline) {
			t.Fatalf("job did not finish, status %q", job.Snapshot().Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if job.Snapshot().Status != StatusCompleted {
		t.Errorf("expected status %q, got %q", StatusCompleted, job.Snapshot().Status)
	}
	if o.Method() != heading.MethodHeuristic {
		t.Errorf("expected heuristic method, got %s", o.Method())
	}

	o.Stop()
	o.Stop()
	if err := o.Submit(NewJob("late.pdf", []byte("late"), false)); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped after Stop, got %v", err)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour, PageBase: 1}
	ext := heading.NewExtractor(heading.DefaultConfig(), quietLogger())
	// Not started: nothing drains the queue.
	o := NewOrchestrator(cfg, ext, openStore(t), nil, quietLogger(), WithParser(specDraftParser))

	if err := o.Submit(NewJob("a.pdf", []byte("a"), false)); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second := NewJob("b.pdf", []byte("b"), false)
	if err := o.Submit(second); err == nil {
		t.Fatal("expected queue full error")
	}
	if second.Snapshot().Status != StatusFailed {
		t.Errorf("expected rejected job to be failed, got %q", second.Snapshot().Status)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
}
