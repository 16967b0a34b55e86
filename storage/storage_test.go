package storage

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/docqa/config"
)

func TestNewKey(t *testing.T) {
	key := NewKey("report.pdf")
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}_report\.pdf$`), key)
	assert.NotEqual(t, key, NewKey("report.pdf"))
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "a.txt", BaseName("../../etc/a.txt"))
	assert.Equal(t, "b.pdf", BaseName(`C:\Users\me\b.pdf`))
	assert.Equal(t, "upload", BaseName(""))
	assert.Equal(t, "upload", BaseName("dir/.."))
}

func TestBaseNameCapsLength(t *testing.T) {
	long := BaseName(strings.Repeat("a", 240) + ".txt")
	assert.Len(t, long, MaxNameBytes)
	assert.True(t, strings.HasSuffix(long, ".txt"))

	// Multi-byte runes are never split.
	wide := BaseName(strings.Repeat("é", 150) + ".pdf")
	assert.LessOrEqual(t, len(wide), MaxNameBytes)
	assert.True(t, utf8.ValidString(wide))
	assert.True(t, strings.HasSuffix(wide, ".pdf"))

	// An oversized extension is not kept whole.
	odd := BaseName("a." + strings.Repeat("x", 300))
	assert.Len(t, odd, MaxNameBytes)

	key := NewKey(strings.Repeat("b", 400) + ".txt")
	assert.LessOrEqual(t, len(key), 255)
}

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewLocal(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	loc, err := store.Save(ctx, "abc_note.txt", "text/plain", []byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "uploads", "abc_note.txt"), loc)

	got, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))

	// Same key twice is refused.
	_, err = store.Save(ctx, "abc_note.txt", "text/plain", []byte("again"))
	assert.Error(t, err)

	require.NoError(t, store.Delete(ctx, loc))
	_, err = os.Stat(loc)
	assert.True(t, os.IsNotExist(err))

	// Deleting twice is fine.
	assert.NoError(t, store.Delete(ctx, loc))
}

func TestLocalRejectsTraversal(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "../escape.txt", "text/plain", []byte("x"))
	assert.Error(t, err)

	err = store.Delete(context.Background(), "/etc/passwd")
	assert.Error(t, err)
}

func TestNewSelectsBackend(t *testing.T) {
	s, err := New(context.Background(), config.AppConfig{StorageBackend: "local", UploadDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, s)

	_, err = New(context.Background(), config.AppConfig{StorageBackend: "tape"})
	assert.Error(t, err)

	_, err = New(context.Background(), config.AppConfig{StorageBackend: "minio"})
	assert.Error(t, err)
}
