package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// OrchestratorConfig sizes the asynchronous job runner.
type OrchestratorConfig struct {
	JobWorkers   int           // batches run concurrently
	MaxQueueSize int           // queued batches before Submit rejects
	JobTTL       time.Duration // how long finished jobs stay queryable
}

// ErrQueueFull is returned by Submit when the queue has no room.
var ErrQueueFull = errors.New("pipeline: job queue is full")

// Orchestrator runs analysis jobs in the background for the HTTP surface.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	analyzer *Analyzer
	log      *slog.Logger
	cfg      OrchestratorConfig

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the runner. Call Start before submitting.
func NewOrchestrator(cfg OrchestratorConfig, analyzer *Analyzer, log *slog.Logger) *Orchestrator {
	if cfg.JobWorkers <= 0 {
		cfg.JobWorkers = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		analyzer: analyzer,
		log:      log,
		cfg:      cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.JobWorkers {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.run(workerCtx, job)
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

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit validates and queues a batch, returning its job.
func (o *Orchestrator) Submit(req Request) (*Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	job := NewJob(req)
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return job, nil
	default:
		job.releaseRequest()
		job.SetStatus(StatusFailed, "queue_full")
		return nil, fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
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

func (o *Orchestrator) run(ctx context.Context, job *Job) {
	log := o.log.With("job_id", job.ID)
	job.SetStatus(StatusRunning, "analyzing")

	req := job.takeRequest()
	req.OnDocument = job.RecordDocument

	res, err := o.analyzer.Analyze(ctx, req)
	if err != nil {
		log.Error("analysis failed", "error", err)
		job.releaseRequest()
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "analyzing")
		return
	}

	job.SetResult(res)
	for _, d := range res.Documents {
		if d.Status != DocRanked {
			job.AddError(fmt.Sprintf("%s: %s", d.Name, d.Reason))
		}
	}
	if res.Partial {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
	log.Info("analysis complete", "selected", len(res.Selected), "partial", res.Partial)
}
