package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

// syncBuffer is a bytes.Buffer safe for one writer and concurrent readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchScope(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0755))
	single := copyInput(t, particlesInput, t.TempDir())

	scope, err := newWatchScope([]string{root, single}, []string{single})
	require.NoError(t, err)

	want := []string{filepath.Dir(single), root, filepath.Join(root, "sub")}
	slices.Sort(want)
	assert.Equal(t, want, scope.watchDirs)

	assert.True(t, scope.match(single))
	assert.True(t, scope.match(filepath.Join(root, "new.cpp")))
	assert.True(t, scope.match(filepath.Join(root, "sub", "unit.yaml")))
	assert.False(t, scope.match(filepath.Join(root, "notes.txt")))
	assert.False(t, scope.match(filepath.Join(filepath.Dir(single), "other.cpp")))
}

func TestWatchLoopDebounces(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	events := make(chan fsnotify.Event)
	errs := make(chan error)
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var handled []string
	handle := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, path)
	}
	match := func(path string) bool { return strings.HasSuffix(path, ".cpp") }

	done := make(chan error, 1)
	go func() {
		done <- watchLoop(ctx, events, errs, 200*time.Millisecond, match, handle, zap.NewNop())
	}()

	events <- fsnotify.Event{Name: "b.cpp", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "a.cpp", Op: fsnotify.Create}
	events <- fsnotify.Event{Name: "b.cpp", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "notes.txt", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "c.cpp", Op: fsnotify.Remove}
	errs <- assert.AnError

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(handled) == 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a.cpp", "b.cpp"}, handled)
}

func TestWatchLoopStopsWhenWatcherCloses(t *testing.T) {
	events := make(chan fsnotify.Event)
	close(events)

	err := watchLoop(context.Background(), events, make(chan error), time.Millisecond,
		func(string) bool { return true }, func(string) {}, zap.NewNop())
	assert.NoError(t, err)
}

func TestWatchCommandReanalyzes(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	input := copyInput(t, dotproductInput, dir)

	out := &syncBuffer{}
	cmd := NewWatchCommand(&RootOptions{Format: "text"})
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{dir, "--debounce", "20ms"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "watching 1 input(s)")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, strings.Count(out.String(), "✓ "+input))

	data, err := os.ReadFile(input)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(input, data, 0644))

	require.Eventually(t, func() bool {
		return strings.Count(out.String(), "✓ "+input) == 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}

func TestWatchCommandRejectsBadDebounce(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewWatchCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dotproductInput, "--debounce", "0s"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), ErrCodeBadFlag)
}
