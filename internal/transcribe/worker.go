package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/mhollis/scribesync/internal/database"
	"github.com/mhollis/scribesync/internal/metrics"
)

// Job is one drop-directory media file queued for batch transcription.
type Job struct {
	AssetID   string
	AssetName string
	MediaPath string
}

// QueueStats reports the current state of the batch queue.
type QueueStats struct {
	Pending   int   `json:"pending"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// WorkerPoolOptions configures the batch transcription worker pool.
type WorkerPoolOptions struct {
	Provider  Provider
	DB        *database.DB
	Timeout   time.Duration
	Workers   int
	QueueSize int
	Log       zerolog.Logger
}

// WorkerPool transcribes drop-directory media without a session and persists
// the results. It is the sessionless counterpart of the Runner.
type WorkerPool struct {
	jobs chan Job
	opts WorkerPoolOptions
	log  zerolog.Logger
	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	completed atomic.Int64
	failed    atomic.Int64
}

// NewWorkerPool creates a batch transcription worker pool.
func NewWorkerPool(opts WorkerPoolOptions) *WorkerPool {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		jobs: make(chan Job, opts.QueueSize),
		opts: opts,
		log:  opts.Log,
		ctx:  ctx,
		stop: cancel,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.opts.Workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
	wp.log.Info().
		Int("workers", wp.opts.Workers).
		Int("queue_size", wp.opts.QueueSize).
		Msg("batch transcription pool started")
}

// Stop drains the queue and waits for workers to finish.
func (wp *WorkerPool) Stop() {
	close(wp.jobs)
	wp.wg.Wait()
	wp.stop()
	wp.log.Info().
		Int64("completed", wp.completed.Load()).
		Int64("failed", wp.failed.Load()).
		Msg("batch transcription pool stopped")
}

// Enqueue adds a job to the queue. Returns false when the queue is full or
// the pool has stopped.
func (wp *WorkerPool) Enqueue(j Job) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case wp.jobs <- j:
		return true
	default:
		return false
	}
}

// Pending reports how many jobs are waiting in the queue.
func (wp *WorkerPool) Pending() int {
	return len(wp.jobs)
}

// Stats returns current queue statistics.
func (wp *WorkerPool) Stats() QueueStats {
	return QueueStats{
		Pending:   len(wp.jobs),
		Completed: wp.completed.Load(),
		Failed:    wp.failed.Load(),
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	log := wp.log.With().Int("worker", id).Logger()

	for job := range wp.jobs {
		if err := wp.processJob(log, job); err != nil {
			wp.failed.Add(1)
			metrics.TranscriptionsTotal.WithLabelValues("batch", "error").Inc()
			log.Warn().Err(err).Str("media", job.MediaPath).Msg("batch transcription failed")
		} else {
			wp.completed.Add(1)
			metrics.TranscriptionsTotal.WithLabelValues("batch", "ok").Inc()
		}
	}
}

func (wp *WorkerPool) processJob(log zerolog.Logger, job Job) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(wp.ctx, wp.opts.Timeout)
	defer cancel()

	res, err := wp.opts.Provider.Run(ctx, job.MediaPath, Opts{Task: TaskTranscribe})
	if err != nil {
		return fmt.Errorf("recognizer: %w", err)
	}

	text := strings.TrimSpace(res.Text)
	if text == "" && len(res.Segments) == 0 {
		log.Debug().Str("media", job.MediaPath).Msg("recognizer returned empty result, skipping")
		return nil
	}

	tr, err := buildTranscript(res)
	if err != nil {
		return fmt.Errorf("build transcript: %w", err)
	}
	segJSON, err := json.Marshal(tr.Segments)
	if err != nil {
		return fmt.Errorf("marshal segments: %w", err)
	}

	name := job.AssetName
	if name == "" {
		name = filepath.Base(job.MediaPath)
	}

	dur := res.Duration
	rec := &database.TranscriptRecord{
		AssetID:          job.AssetID,
		AssetName:        name,
		Mode:             TaskTranscribe,
		Language:         tr.Language,
		Text:             tr.Flatten(),
		Segments:         segJSON,
		SegmentCount:     len(tr.Segments),
		Provider:         wp.opts.Provider.Name(),
		Model:            wp.opts.Provider.Model(),
		MediaDurationSec: &dur,
		RunMs:            int(time.Since(start).Milliseconds()),
	}
	if wp.opts.DB != nil {
		if _, err := wp.opts.DB.InsertTranscript(ctx, rec); err != nil {
			return fmt.Errorf("db insert: %w", err)
		}
	}

	log.Debug().
		Str("media", job.MediaPath).
		Int("segments", len(tr.Segments)).
		Msg("batch transcription complete")
	return nil
}
