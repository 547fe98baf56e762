package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_EmitsAcceptedFiles(t *testing.T) {
	dir := t.TempDir()

	w, err := New(nil, WithSettle(50*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	paths, err := w.Watch(ctx, dir)
	require.NoError(t, err)

	go func() {
		time.Sleep(100 * time.Millisecond)
		os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644)
	}()

	select {
	case path := <-paths:
		assert.Equal(t, filepath.Join(dir, "notes.txt"), path)
	case <-ctx.Done():
		t.Fatal("timeout waiting for event")
	}
}

func TestWatcher_IgnoresOtherTypes(t *testing.T) {
	dir := t.TempDir()

	w, err := New(nil, WithSettle(50*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	paths, err := w.Watch(ctx, dir)
	require.NoError(t, err)

	os.WriteFile(filepath.Join(dir, "image.png"), []byte("png"), 0644)

	select {
	case path := <-paths:
		t.Errorf("unexpected event for %s", path)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_MissingDir(t *testing.T) {
	w, err := New(nil)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Watch(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestWatcher_ClosesOnCancel(t *testing.T) {
	w, err := New(nil)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	paths, err := w.Watch(ctx, t.TempDir())
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-paths:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestWatcher_WaitsForContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slow.txt")

	w, err := New(nil, WithSettle(100*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	paths, err := w.Watch(ctx, dir)
	require.NoError(t, err)

	f, err := os.Create(path)
	require.NoError(t, err)

	// the empty file outlives the settle period before any content arrives
	select {
	case got := <-paths:
		t.Fatalf("empty file reported: %s", got)
	case <-time.After(300 * time.Millisecond):
	}

	_, err = f.WriteString("X is a letter.")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	select {
	case got := <-paths:
		assert.Equal(t, path, got)
		data, err := os.ReadFile(got)
		require.NoError(t, err)
		assert.Equal(t, "X is a letter.", string(data))
	case <-ctx.Done():
		t.Fatal("timeout waiting for event")
	}
}

func TestWatcher_ReportsOnceAfterBurstOfWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "copy.pdf")

	w, err := New(nil, WithSettle(150*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	paths, err := w.Watch(ctx, dir)
	require.NoError(t, err)

	f, err := os.Create(path)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err = f.WriteString("chunk ")
		require.NoError(t, err)
		time.Sleep(30 * time.Millisecond)
	}
	require.NoError(t, f.Close())

	select {
	case got := <-paths:
		assert.Equal(t, path, got)
	case <-ctx.Done():
		t.Fatal("timeout waiting for event")
	}

	select {
	case got := <-paths:
		t.Errorf("reported twice: %s", got)
	case <-time.After(400 * time.Millisecond):
	}
}
