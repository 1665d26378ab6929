package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driving"
)

// fakeDocs records uploads and serves records for Get.
type fakeDocs struct {
	mu        sync.Mutex
	records   map[string]*domain.DocumentRecord
	uploads   []string
	uploadErr error
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{records: make(map[string]*domain.DocumentRecord)}
}

func (f *fakeDocs) Upload(_ context.Context, filename string, data []byte) (*domain.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploads = append(f.uploads, filename)
	rec := domain.NewDocumentRecord(filename, int64(len(data)), time.Now())
	f.records[filename] = rec
	return rec.Clone(), nil
}

func (f *fakeDocs) Get(_ context.Context, filename string) (*domain.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[filename]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, filename)
	}
	return rec.Clone(), nil
}

func (f *fakeDocs) uploaded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploads...)
}

func (f *fakeDocs) Reprocess(context.Context, string) (*domain.DocumentRecord, error) { return nil, nil }
func (f *fakeDocs) Delete(context.Context, string) error { return nil }
func (f *fakeDocs) List(context.Context) ([]domain.DocumentRecord, error) { return nil, nil }
func (f *fakeDocs) View(context.Context, string) (*driving.DocumentView, error) { return nil, nil }
func (f *fakeDocs) Fragments(context.Context, string) ([]domain.Fragment, error) { return nil, nil }
func (f *fakeDocs) Wait() {}

func (f *fakeDocs) ExpirationReport(context.Context, time.Time) (*domain.ExpirationReport, error) {
	return nil, nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewInboxWatcher(t *testing.T) {
	w := NewInboxWatcher("/inbox", newFakeDocs())

	assert.Equal(t, "/inbox", w.Dir())
	assert.Equal(t, DefaultDebounce, w.debounce)

	w.SetDebounce(time.Second)
	assert.Equal(t, time.Second, w.debounce)
}

func TestRescan_UploadsNewAcceptedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "green_nda.pdf", "pdf")
	writeFile(t, dir, "acme.DOCX", "docx")
	writeFile(t, dir, "notes.txt", "text")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.pdf"), 0o700))

	docs := newFakeDocs()
	n, err := NewInboxWatcher(dir, docs).Rescan(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, []string{"green_nda.pdf", "acme.DOCX"}, docs.uploaded())
}

func TestRescan_SkipsUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "green_nda.pdf", "pdf")
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, past, past))

	docs := newFakeDocs()
	docs.records["green_nda.pdf"] = domain.NewDocumentRecord("green_nda.pdf", 3, time.Now())

	n, err := NewInboxWatcher(dir, docs).Rescan(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, docs.uploaded())
}

func TestRescan_ReuploadsChangedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "green_nda.pdf", "pdf v2")

	docs := newFakeDocs()
	docs.records["green_nda.pdf"] = domain.NewDocumentRecord("green_nda.pdf", 3, time.Now().Add(-time.Hour))

	n, err := NewInboxWatcher(dir, docs).Rescan(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"green_nda.pdf"}, docs.uploaded())
}

func TestRescan_ConflictIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "green_nda.pdf", "pdf")

	docs := newFakeDocs()
	docs.uploadErr = fmt.Errorf("green_nda.pdf: %w", domain.ErrProcessingInProgress)

	n, err := NewInboxWatcher(dir, docs).Rescan(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRescan_MissingDirectory(t *testing.T) {
	_, err := NewInboxWatcher(filepath.Join(t.TempDir(), "missing"), newFakeDocs()).Rescan(context.Background())

	assert.Error(t, err)
}

func TestRun_UploadsNewFiles(t *testing.T) {
	dir := t.TempDir()
	docs := newFakeDocs()
	w := NewInboxWatcher(dir, docs)
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "green_nda.pdf", "pdf")
	writeFile(t, dir, "notes.txt", "ignored")

	assert.Eventually(t, func() bool {
		return len(docs.uploaded()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []string{"green_nda.pdf"}, docs.uploaded())
}

func TestRun_DebouncesRepeatedWrites(t *testing.T) {
	dir := t.TempDir()
	docs := newFakeDocs()
	w := NewInboxWatcher(dir, docs)
	w.SetDebounce(200 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	path := writeFile(t, dir, "green_nda.pdf", "part 1")
	for i := 0; i < 3; i++ {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
		require.NoError(t, err)
		_, err = f.WriteString(" more")
		require.NoError(t, err)
		require.NoError(t, f.Close())
		time.Sleep(20 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		return len(docs.uploaded()) >= 1
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Len(t, docs.uploaded(), 1)
}

func TestRun_MissingDirectory(t *testing.T) {
	err := NewInboxWatcher(filepath.Join(t.TempDir(), "missing"), newFakeDocs()).Run(context.Background())

	assert.Error(t, err)
}
