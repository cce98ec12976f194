package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	dir := t.TempDir()

	w, err := New(Config{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.debounce)

	_, err = New(Config{Dir: filepath.Join(dir, "missing")})
	assert.Error(t, err)

	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	_, err = New(Config{Dir: file})
	assert.Error(t, err)

	_, err = New(Config{Dir: dir, Include: []string{"[bad"}})
	assert.Error(t, err)
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".git", true},
		{".config/data.txt", true},
		{"notes/.draft.md", true},
		{"notes/a.md", false},
		{"file.hidden", false},
		{".", false},
		{"..", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}

func TestHandleEvent(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		createFile  bool
		createDir   bool
		op          fsnotify.Op
		wantChange  bool
		wantDeleted bool
	}{
		{name: "create file", file: "a.md", createFile: true, op: fsnotify.Create, wantChange: true},
		{name: "write file", file: "a.md", createFile: true, op: fsnotify.Write, wantChange: true},
		{name: "remove file", file: "gone.md", op: fsnotify.Remove, wantChange: true, wantDeleted: true},
		{name: "rename file", file: "old.md", op: fsnotify.Rename, wantChange: true, wantDeleted: true},
		{name: "chmod ignored", file: "a.md", createFile: true, op: fsnotify.Chmod},
		{name: "directory ignored", file: "sub", createDir: true, op: fsnotify.Create},
		{name: "hidden ignored", file: ".secret.md", createFile: true, op: fsnotify.Create},
		{name: "excluded pattern", file: "a.bin", createFile: true, op: fsnotify.Create},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, tt.file)
			if tt.createFile {
				require.NoError(t, os.WriteFile(path, []byte("content"), 0644))
			}
			if tt.createDir {
				require.NoError(t, os.Mkdir(path, 0755))
			}

			w, err := New(Config{Dir: dir, Include: []string{"**/*.md", "sub"}})
			require.NoError(t, err)

			change, ok := w.handleEvent(fsnotify.Event{Name: path, Op: tt.op})
			assert.Equal(t, tt.wantChange, ok)
			if ok {
				assert.Equal(t, path, change.Path)
				assert.Equal(t, tt.wantDeleted, change.Deleted)
			}
		})
	}
}

func TestMatchesFallsBackToAccept(t *testing.T) {
	w, err := New(Config{Dir: t.TempDir(), Accept: func(p string) bool { return strings.HasSuffix(p, ".txt") }})
	require.NoError(t, err)

	assert.True(t, w.matches("notes/a.txt"))
	assert.False(t, w.matches("notes/a.png"))
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".hidden"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.md"), []byte("b"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.txt"), []byte("c"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden", "d.md"), []byte("d"), 0644))

	w, err := New(Config{Dir: dir, Include: []string{"**/*.md"}})
	require.NoError(t, err)

	files, err := w.Scan()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(w.Root(), "a.md"),
		filepath.Join(w.Root(), "sub", "b.md"),
	}, files)
}

func TestRunDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := New(Config{Dir: dir, Debounce: 50 * time.Millisecond})
	require.NoError(t, err)

	var mu sync.Mutex
	var got []Change

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, c Change) {
			mu.Lock()
			got = append(got, c)
			mu.Unlock()
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(w.Root(), "note.txt")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", i+1)), 0644))
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0
	}, 2*time.Second, 20*time.Millisecond)

	time.Sleep(150 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, Change{Path: path}, got[0])
}
