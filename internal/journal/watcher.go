package journal

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"stellarelay/internal/config"
	"stellarelay/internal/logger"
	"stellarelay/pkg/logging"
	"stellarelay/pkg/metrics"
)

// Watcher tails the newest journal file in a directory and emits one
// RawEvent per line. The game rotates to a fresh Journal*.log on every
// session, so the watcher follows file creation as well as appends.
type Watcher struct {
	dir          string
	pollInterval time.Duration
	events       chan RawEvent
	logger       logger.Logger

	// seekEnd controls whether an already-existing journal is consumed
	// from its end (live operation) or from the top.
	seekEnd bool

	current *os.File
	partial []byte
}

func NewWatcher(cfg config.JournalConfig, log logger.Logger) (*Watcher, error) {
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("journal directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("journal path %s is not a directory", cfg.Dir)
	}

	return &Watcher{
		dir:          cfg.Dir,
		pollInterval: cfg.PollInterval,
		events:       make(chan RawEvent, 64),
		logger:       log,
		seekEnd:      true,
	}, nil
}

func (w *Watcher) Events() <-chan RawEvent {
	return w.events
}

// Run blocks until ctx is cancelled. The events channel is closed on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	defer w.closeCurrent()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	if err := w.openLatest(ctx); err != nil {
		w.logger.WarnwCtx(ctx, "No journal file yet, waiting for one to appear",
			"dir", w.dir,
			"error", err,
		)
	}

	// Poll ticker backstops fsnotify: some filesystems coalesce or drop
	// write notifications for files appended by another process.
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.drain(ctx)
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) && isJournalFile(filepath.Base(ev.Name)) {
				w.switchTo(ctx, ev.Name)
			}
			if ev.Op.Has(fsnotify.Write) && w.isCurrent(ev.Name) {
				w.drain(ctx)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.WarnwCtx(ctx, "Journal watch error", "error", err)

		case <-ticker.C:
			if w.current == nil {
				if err := w.openLatest(ctx); err != nil {
					continue
				}
			}
			w.drain(ctx)
		}
	}
}

func (w *Watcher) openLatest(ctx context.Context) error {
	latest, err := latestJournalFile(w.dir)
	if err != nil {
		return err
	}

	f, err := os.Open(latest)
	if err != nil {
		return fmt.Errorf("failed to open journal %s: %w", latest, err)
	}

	if w.seekEnd {
		if _, err := f.Seek(0, io.SeekEnd); err != nil {
			f.Close()
			return fmt.Errorf("failed to seek journal %s: %w", latest, err)
		}
	}

	w.current = f
	w.partial = nil
	w.logger.InfowCtx(ctx, "Tailing journal file", "file", latest)
	return nil
}

func (w *Watcher) switchTo(ctx context.Context, path string) {
	// Flush whatever the old session file still holds before moving on.
	w.drain(ctx)
	w.closeCurrent()

	f, err := os.Open(path)
	if err != nil {
		w.logger.ErrorwCtx(ctx, "Failed to open new journal file",
			"file", path,
			"error", err,
		)
		return
	}

	w.current = f
	w.partial = nil
	w.logger.InfowCtx(ctx, "Switched to new journal file", "file", path)
}

// drain reads everything appended since the last read and emits complete
// lines. A trailing partial line is held back until its newline arrives.
func (w *Watcher) drain(ctx context.Context) {
	if w.current == nil {
		return
	}

	fileCtx := ctx
	if name := w.current.Name(); name != "" {
		fileCtx = logging.WithJournalFile(ctx, filepath.Base(name))
	}

	reader := bufio.NewReader(w.current)
	for {
		chunk, err := reader.ReadBytes('\n')
		if len(chunk) > 0 {
			w.partial = append(w.partial, chunk...)
		}
		if err != nil {
			// io.EOF with a partial tail: keep it for the next drain.
			return
		}

		line := bytes.TrimSpace(w.partial)
		w.partial = nil
		if len(line) == 0 {
			continue
		}

		raw, perr := ParseLine(line)
		if perr != nil {
			metrics.JournalEventsTotal.WithLabelValues("unknown", "malformed").Inc()
			w.logger.DebugwCtx(fileCtx, "Skipping malformed journal line", "error", perr)
			continue
		}

		select {
		case w.events <- raw:
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) isCurrent(path string) bool {
	return w.current != nil && w.current.Name() == path
}

func (w *Watcher) closeCurrent() {
	if w.current != nil {
		w.current.Close()
		w.current = nil
	}
}

func isJournalFile(name string) bool {
	return strings.HasPrefix(name, "Journal") && strings.HasSuffix(name, ".log")
}

func latestJournalFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read journal directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isJournalFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}

	if len(names) == 0 {
		return "", fmt.Errorf("no journal files in %s", dir)
	}

	// Journal file names embed a sortable timestamp
	// (Journal.2025-01-01T000000.01.log), so lexical order is enough.
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}
