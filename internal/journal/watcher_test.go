package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellarelay/internal/config"
	"stellarelay/internal/logger"
)

func newTestWatcher(t *testing.T, dir string) *Watcher {
	t.Helper()
	w, err := NewWatcher(config.JournalConfig{
		Dir:          dir,
		PollInterval: 20 * time.Millisecond,
	}, logger.NopLogger())
	require.NoError(t, err)
	w.seekEnd = false
	return w
}

func appendLine(t *testing.T, path, line string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	require.NoError(t, err)
}

func collectEvent(t *testing.T, events <-chan RawEvent) RawEvent {
	t.Helper()
	select {
	case raw := <-events:
		return raw
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for journal event")
		return RawEvent{}
	}
}

func TestNewWatcherRejectsMissingDir(t *testing.T) {
	_, err := NewWatcher(config.JournalConfig{
		Dir:          filepath.Join(t.TempDir(), "missing"),
		PollInterval: time.Second,
	}, logger.NopLogger())
	assert.Error(t, err)
}

func TestWatcherEmitsAppendedLines(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "Journal.2025-01-01T000000.01.log")
	appendLine(t, file, `{"timestamp":"2025-01-01T00:00:00Z","event":"FSDJump","StarSystem":"Sol"}`)

	w := newTestWatcher(t, dir)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	raw := collectEvent(t, w.Events())
	assert.Equal(t, "FSDJump", raw.Name)
	assert.Equal(t, "Sol", raw.StringField("StarSystem"))

	appendLine(t, file, `{"timestamp":"2025-01-01T00:01:00Z","event":"Scan","BodyName":"Sol"}`)
	raw = collectEvent(t, w.Events())
	assert.Equal(t, "Scan", raw.Name)
}

func TestWatcherSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "Journal.2025-01-01T000000.01.log")
	appendLine(t, file, `not json at all`)
	appendLine(t, file, `{"timestamp":"2025-01-01T00:00:00Z","event":"Scan","BodyName":"Sol"}`)

	w := newTestWatcher(t, dir)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	raw := collectEvent(t, w.Events())
	assert.Equal(t, "Scan", raw.Name)
}

func TestWatcherHoldsPartialLines(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "Journal.2025-01-01T000000.01.log")

	f, err := os.Create(file)
	require.NoError(t, err)
	_, err = f.WriteString(`{"timestamp":"2025-01-01T00:00:00Z","event":"FSD`)
	require.NoError(t, err)
	require.NoError(t, f.Sync())

	w := newTestWatcher(t, dir)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	select {
	case raw := <-w.Events():
		t.Fatalf("partial line must not be emitted, got %q", raw.Name)
	case <-time.After(100 * time.Millisecond):
	}

	_, err = f.WriteString(`Jump","StarSystem":"Sol"}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	raw := collectEvent(t, w.Events())
	assert.Equal(t, "FSDJump", raw.Name)
}

func TestWatcherFollowsNewJournalFile(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "Journal.2025-01-01T000000.01.log")
	appendLine(t, first, `{"timestamp":"2025-01-01T00:00:00Z","event":"FSDJump","StarSystem":"Sol"}`)

	w := newTestWatcher(t, dir)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	raw := collectEvent(t, w.Events())
	assert.Equal(t, "Sol", raw.StringField("StarSystem"))

	second := filepath.Join(dir, "Journal.2025-01-02T000000.01.log")
	appendLine(t, second, `{"timestamp":"2025-01-02T00:00:00Z","event":"FSDJump","StarSystem":"Colonia"}`)

	raw = collectEvent(t, w.Events())
	assert.Equal(t, "Colonia", raw.StringField("StarSystem"))
}

func TestLatestJournalFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"Journal.2025-01-01T000000.01.log",
		"Journal.2025-01-03T120000.01.log",
		"Journal.2025-01-02T000000.01.log",
		"NetLog.2025-01-04.log",
		"notes.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	latest, err := latestJournalFile(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Journal.2025-01-03T120000.01.log"), latest)
}

func TestLatestJournalFileEmptyDir(t *testing.T) {
	_, err := latestJournalFile(t.TempDir())
	assert.Error(t, err)
}
