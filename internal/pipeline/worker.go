package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/pdfoutline/internal/chunker"
	"github.com/dgallion1/pdfoutline/internal/doctree"
	"github.com/dgallion1/pdfoutline/internal/heading"
	"github.com/dgallion1/pdfoutline/internal/stats"
	"github.com/dgallion1/pdfoutline/internal/store"
)

// Worker processes a single document job.
type Worker struct {
	extractor *heading.Extractor
	store     *store.Store
	stats     *stats.Extraction
	parse     ParseFunc
	log       *slog.Logger
	pageBase  int
	chunkCfg  chunker.Config
}

func NewWorker(ext *heading.Extractor, st *store.Store, es *stats.Extraction, parse ParseFunc, log *slog.Logger, pageBase int, chunkCfg chunker.Config) *Worker {
	if parse == nil {
		parse = ParseUpload
	}
	return &Worker{
		extractor: ext,
		store:     st,
		stats:     es,
		parse:     parse,
		log:       log,
		pageBase:  pageBase,
		chunkCfg:  chunkCfg,
	}
}

// Process runs the outline pipeline for a job. A failure in one document
// never escapes this call; the job ends failed with a best-effort title and
// an empty outline.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "filename", job.Filename)
	start := time.Now()
	defer job.releaseFileData()
	defer func() {
		if r := recover(); r != nil {
			log.Error("document processing panicked", "panic", r)
			job.AddError(fmt.Sprintf("panic: %v", r))
			w.fail(job, "", "extracting", start)
		}
	}()

	// Phase 1: Dedup
	if !job.Force {
		rec, err := w.store.Get(ctx, job.DocID)
		switch {
		case err == nil:
			log.Info("duplicate document, returning stored outline", "stored_at", rec.UpdatedAt)
			job.SetResult(rec.Outline, rec.Method, nil, nil)
			job.SetParsed(rec.Pages, 0)
			job.SetStatus(StatusDupSkipped, "dedup")
			return
		case errors.Is(err, store.ErrNotFound):
		default:
			log.Warn("dedup check failed, proceeding", "error", err)
		}
	}

	// Phase 2: Parse
	job.SetStatus(StatusParsing, "parsing")
	doc, err := w.parse(job.FileData(), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		w.fail(job, "", "parsing", start)
		return
	}
	job.SetParsed(doc.PageCount(), len(doc.Lines()))

	// Phase 3: Extract
	job.SetStatus(StatusExtracting, "extracting")
	res, err := w.extractor.Extract(doc)
	if err != nil {
		log.Error("extraction failed", "error", err, "method", res.Diagnostics.Method)
		job.AddError(fmt.Sprintf("extract: %s", err))
		w.fail(job, res.Title.Text, "extracting", start)
		return
	}
	outline := doctree.FromResult(res, w.pageBase)
	sections := chunker.Sections(doc, outline.Title, res.Outline, w.pageBase)
	chunks := chunker.Chunk(sections, w.chunkCfg)
	job.SetResult(outline, string(res.Diagnostics.Method), sections, chunks)

	// Phase 4: Store
	job.SetStatus(StatusStoring, "storing")
	diag, err := json.Marshal(res.Diagnostics)
	if err != nil {
		log.Warn("diagnostics encode failed", "error", err)
		diag = nil
	}
	err = w.store.Put(ctx, store.Record{
		DocID:       job.DocID,
		Filename:    job.Filename,
		Pages:       doc.PageCount(),
		Method:      string(res.Diagnostics.Method),
		Outline:     outline,
		Diagnostics: diag,
	})
	if err != nil {
		log.Error("store failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		w.record(start, stats.OutcomeFailed)
		return
	}

	outcome := stats.OutcomeOutline
	if res.Empty() {
		outcome = stats.OutcomeEmpty
	}
	w.record(start, outcome)
	log.Info("outline extracted",
		"title", outline.Title,
		"headings", len(outline.Outline),
		"method", res.Diagnostics.Method,
		"degraded_baseline", res.Diagnostics.DegradedBaseline,
		"duration_ms", time.Since(start).Milliseconds())
	job.SetStatus(StatusCompleted, "done")
}

// fail attaches a title-only outline and marks the job failed. An empty
// title falls back to the configured placeholder.
func (w *Worker) fail(job *Job, title, phase string, start time.Time) {
	if title == "" {
		title = w.extractor.Config().Title.Placeholder
	}
	job.SetResult(doctree.Outline{Title: title, Outline: []doctree.Entry{}}, "", nil, nil)
	job.SetStatus(StatusFailed, phase)
	w.record(start, stats.OutcomeFailed)
}

func (w *Worker) record(start time.Time, outcome stats.Outcome) {
	if w.stats != nil {
		w.stats.Record(time.Since(start), outcome)
	}
}
