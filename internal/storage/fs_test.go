package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFS_PutGetDelete(t *testing.T) {
	fs, err := NewFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	path := ArtifactPath("Tech Summit '25", "Ana María", "p-1")
	require.NoError(t, fs.Put(ctx, path, []byte("pdf-bytes")))

	got, err := fs.Get(ctx, path)
	require.NoError(t, err)
	require.Equal(t, []byte("pdf-bytes"), got)

	require.NoError(t, fs.Delete(ctx, path))
	_, err = fs.Get(ctx, path)
	require.True(t, errors.Is(err, ErrNotFound))

	// borrar algo ya borrado no es error
	require.NoError(t, fs.Delete(ctx, path))
}

func TestFS_RejectsEscape(t *testing.T) {
	fs, err := NewFS(t.TempDir())
	require.NoError(t, err)

	err = fs.Put(context.Background(), "../outside.pdf", []byte("x"))
	require.Error(t, err)
}

func TestArtifactPath_Sanitizes(t *testing.T) {
	p := ArtifactPath("Bharatiyam '25", "José O'Neil", "42")
	if p != "Bharatiyam _25/Jos__O_Neil_42.pdf" {
		t.Fatalf("unexpected path: %s", p)
	}
}
