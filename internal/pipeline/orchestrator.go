package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/pdfoutline/internal/chunker"
	"github.com/dgallion1/pdfoutline/internal/config"
	"github.com/dgallion1/pdfoutline/internal/heading"
	"github.com/dgallion1/pdfoutline/internal/layout"
	"github.com/dgallion1/pdfoutline/internal/parser"
	"github.com/dgallion1/pdfoutline/internal/stats"
	"github.com/dgallion1/pdfoutline/internal/store"
)

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("pipeline stopped")

// ParseFunc turns an upload into positioned lines.
type ParseFunc func(data []byte, filename string) (*layout.Document, error)

// ParseUpload parses data with the parser registered for filename.
func ParseUpload(data []byte, filename string) (*layout.Document, error) {
	p, err := parser.ForFile(filename)
	if err != nil {
		return nil, err
	}
	return p.Parse(bytes.NewReader(data), filename)
}

// Orchestrator manages the outline pipeline.
type Orchestrator struct {
	jobs      *JobStore
	queue     chan *Job
	extractor *heading.Extractor
	store     *store.Store
	stats     *stats.Extraction
	parse     ParseFunc
	log       *slog.Logger
	cfg       config.Config
	chunkCfg  chunker.Config

	mu      sync.RWMutex
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithParser replaces the upload parser.
func WithParser(fn ParseFunc) Option {
	return func(o *Orchestrator) { o.parse = fn }
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, ext *heading.Extractor, st *store.Store, es *stats.Extraction, log *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		jobs:      NewJobStore(cfg.JobTTL),
		queue:     make(chan *Job, cfg.MaxQueueSize),
		extractor: ext,
		store:     st,
		stats:     es,
		parse:     ParseUpload,
		log:       log,
		cfg:       cfg,
		chunkCfg: chunker.Config{
			ChunkSize:    cfg.ChunkSize,
			ChunkOverlap: cfg.ChunkOverlap,
			MinChunk:     100,
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.extractor, o.store, o.stats, o.parse, o.log, o.cfg.PageBase, o.chunkCfg)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop shuts down the pipeline. Queued jobs not yet picked up are dropped.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.stopped {
		return ErrStopped
	}
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Store returns the outline store for direct use by API handlers.
func (o *Orchestrator) Store() *store.Store {
	return o.store
}

// Stats returns the extraction latency tracker.
func (o *Orchestrator) Stats() *stats.Extraction {
	return o.stats
}

// Method reports which extraction path the pipeline runs.
func (o *Orchestrator) Method() heading.Method {
	return o.extractor.Method()
}
