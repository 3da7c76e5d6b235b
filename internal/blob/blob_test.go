package blob_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/teamtask/internal/blob"
	"github.com/mtlprog/teamtask/internal/domain"
)

func TestFileStore_PutKeepsExtension(t *testing.T) {
	dir := t.TempDir()
	store, err := blob.NewFileStore(dir)
	require.NoError(t, err)

	path, err := store.Put(context.Background(), strings.NewReader("hello"), "Report.PDF")
	require.NoError(t, err)
	assert.Equal(t, ".PDF", filepath.Ext(path))

	data, err := os.ReadFile(filepath.Join(dir, path))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, store.Delete(context.Background(), path))
}

func TestFileStore_PutGeneratesDistinctNames(t *testing.T) {
	store, err := blob.NewFileStore(t.TempDir())
	require.NoError(t, err)

	first, err := store.Put(context.Background(), strings.NewReader("a"), "same.txt")
	require.NoError(t, err)
	second, err := store.Put(context.Background(), strings.NewReader("b"), "same.txt")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestFileStore_PutRejectsOversizedContent(t *testing.T) {
	dir := t.TempDir()
	store, err := blob.NewFileStore(dir)
	require.NoError(t, err)

	big := strings.NewReader(strings.Repeat("x", int(domain.MaxAttachmentSize)+1))
	_, err = store.Put(context.Background(), big, "big.bin")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "oversized blob must not be left behind")
}

func TestFileStore_Delete(t *testing.T) {
	dir := t.TempDir()
	store, err := blob.NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	path, err := store.Put(ctx, strings.NewReader("data"), "notes.txt")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, path))
	_, err = os.Stat(filepath.Join(dir, path))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// Missing blobs are not an error.
	assert.NoError(t, store.Delete(ctx, path))
}

func TestFileStore_DeleteRejectsForeignPaths(t *testing.T) {
	store, err := blob.NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, path := range []string{"../etc/passwd", "notes.txt", "a/b.txt"} {
		err := store.Delete(context.Background(), path)
		assert.ErrorIs(t, err, domain.ErrStorage, path)
	}
}
