// Package ingest watches a drop directory for media files and queues them for
// sessionless transcription. This is an alternative to interactive uploads:
// anything copied into the watch dir ends up as a persisted transcript record.
package ingest

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mhollis/scribesync/internal/storage"
	"github.com/mhollis/scribesync/internal/transcribe"
)

// debounceDelay coalesces rapid Create+Write events on the same file and
// gives slow copies time to finish before the file is read.
const debounceDelay = 2 * time.Second

// Watcher monitors a drop directory and feeds completed files to a
// transcription worker pool.
type Watcher struct {
	pool        *transcribe.WorkerPool
	watchDir    string
	scanOnStart bool
	log         zerolog.Logger

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc

	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer

	filesQueued  atomic.Int64
	filesSkipped atomic.Int64
	status       atomic.Value // string: "starting", "scanning", "watching", "stopped"
}

// Status is a snapshot of watcher state for the health endpoint.
type Status struct {
	Status       string `json:"status"`
	WatchDir     string `json:"watch_dir"`
	FilesQueued  int64  `json:"files_queued"`
	FilesSkipped int64  `json:"files_skipped"`
}

type Options struct {
	WatchDir    string
	Pool        *transcribe.WorkerPool
	ScanOnStart bool
	Log         zerolog.Logger
}

func NewWatcher(opts Options) *Watcher {
	w := &Watcher{
		pool:           opts.Pool,
		watchDir:       opts.WatchDir,
		scanOnStart:    opts.ScanOnStart,
		log:            opts.Log.With().Str("component", "watcher").Logger(),
		debounceTimers: make(map[string]*time.Timer),
	}
	w.status.Store("starting")
	return w
}

// Start initializes the fsnotify watcher over the whole directory tree and
// begins watching. With ScanOnStart, existing files are queued oldest-first
// in the background.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = fsw
	w.ctx, w.cancel = context.WithCancel(ctx)

	dirCount := 0
	err = filepath.WalkDir(w.watchDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.log.Warn().Err(err).Str("path", path).Msg("error walking watch dir")
			return nil
		}
		if d.IsDir() {
			if addErr := fsw.Add(path); addErr != nil {
				w.log.Warn().Err(addErr).Str("path", path).Msg("failed to watch directory")
			} else {
				dirCount++
			}
		}
		return nil
	})
	if err != nil {
		fsw.Close()
		return err
	}

	w.log.Info().
		Int("directories", dirCount).
		Str("watch_dir", w.watchDir).
		Msg("drop-dir watcher initialized")

	go w.watchLoop()

	if w.scanOnStart {
		go w.scanExisting()
	} else {
		w.status.Store("watching")
	}

	return nil
}

// Stop closes the fsnotify watcher and cancels pending debounce work.
func (w *Watcher) Stop() {
	w.status.Store("stopped")
	if w.cancel != nil {
		w.cancel()
	}
	if w.watcher != nil {
		w.watcher.Close()
	}

	w.debounceMu.Lock()
	for path, t := range w.debounceTimers {
		t.Stop()
		delete(w.debounceTimers, path)
	}
	w.debounceMu.Unlock()

	w.log.Info().
		Int64("files_queued", w.filesQueued.Load()).
		Int64("files_skipped", w.filesSkipped.Load()).
		Msg("drop-dir watcher stopped")
}

// CurrentStatus returns the watcher state for the health endpoint.
func (w *Watcher) CurrentStatus() Status {
	s, _ := w.status.Load().(string)
	return Status{
		Status:       s,
		WatchDir:     w.watchDir,
		FilesQueued:  w.filesQueued.Load(),
		FilesSkipped: w.filesSkipped.Load(),
	}
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}

			// New subdirectory: add it to the watch set so files dropped
			// inside it are seen.
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := w.watcher.Add(event.Name); err != nil {
					w.log.Warn().Err(err).Str("path", event.Name).Msg("failed to watch new directory")
				}
				continue
			}

			if !storage.Allowed(storage.MediaType(event.Name)) {
				continue
			}

			w.scheduleEnqueue(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("fsnotify error")
		}
	}
}

func (w *Watcher) scheduleEnqueue(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if t, ok := w.debounceTimers[path]; ok {
		t.Reset(debounceDelay)
		return
	}

	w.debounceTimers[path] = time.AfterFunc(debounceDelay, func() {
		w.debounceMu.Lock()
		delete(w.debounceTimers, path)
		w.debounceMu.Unlock()

		w.enqueue(path)
	})
}

func (w *Watcher) enqueue(path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		w.filesSkipped.Add(1)
		return
	}

	job := transcribe.Job{
		AssetID:   uuid.NewString(),
		AssetName: storage.SanitizeFilename(filepath.Base(path)),
		MediaPath: path,
	}
	if !w.pool.Enqueue(job) {
		w.filesSkipped.Add(1)
		w.log.Warn().Str("path", path).Msg("transcription queue full, file skipped")
		return
	}

	w.filesQueued.Add(1)
	w.log.Info().Str("path", path).Str("asset_id", job.AssetID).Msg("queued dropped file")
}

// scanExisting queues files already present in the watch dir, oldest first.
func (w *Watcher) scanExisting() {
	w.status.Store("scanning")

	type entry struct {
		path string
		mod  time.Time
	}
	var files []entry

	_ = filepath.WalkDir(w.watchDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !storage.Allowed(storage.MediaType(path)) {
			return nil
		}
		if strings.HasPrefix(filepath.Base(path), ".") {
			return nil
		}
		info, ierr := d.Info()
		if ierr != nil {
			return nil
		}
		files = append(files, entry{path: path, mod: info.ModTime()})
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].mod.Before(files[j].mod) })

	w.log.Info().Int("files", len(files)).Msg("scanning existing files")

	for _, f := range files {
		select {
		case <-w.ctx.Done():
			w.status.Store("stopped")
			return
		default:
		}
		w.enqueue(f.path)
	}

	w.status.Store("watching")
}
