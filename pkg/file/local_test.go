package file_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/file"
)

func newLocal(t *testing.T, maxMB int64) *file.LocalStorage {
	t.Helper()
	s, err := file.NewLocalStorage(file.Config{
		LocalPath:   t.TempDir(),
		BaseURL:     "/files/",
		MaxUploadMB: maxMB,
	})
	require.NoError(t, err)
	return s
}

func TestLocalStorageSave(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("stores and checksums", func(t *testing.T) {
		t.Parallel()
		s := newLocal(t, 1)
		content := "pdf bytes here"

		f, err := s.Save(ctx, strings.NewReader(content), "expenses/42", "recibo.pdf", "application/pdf")
		require.NoError(t, err)

		assert.Equal(t, int64(len(content)), f.Size)
		assert.Equal(t, "recibo.pdf", f.Name)
		assert.True(t, strings.HasPrefix(f.URL, "/files/expenses/42/"))
		assert.True(t, strings.HasSuffix(f.Path, "_recibo.pdf"))

		sum := sha256.Sum256([]byte(content))
		assert.Equal(t, hex.EncodeToString(sum[:]), f.Checksum)
	})

	t.Run("rejects disallowed mime", func(t *testing.T) {
		t.Parallel()
		s := newLocal(t, 1)
		_, err := s.Save(ctx, strings.NewReader("x"), "d", "run.exe", "application/octet-stream")
		require.ErrorIs(t, err, file.ErrTypeNotAllowed)
	})

	t.Run("rejects oversized upload and cleans up", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		s, err := file.NewLocalStorage(file.Config{LocalPath: dir, MaxUploadMB: 1})
		require.NoError(t, err)

		big := strings.NewReader(strings.Repeat("a", 1<<20+1))
		_, err = s.Save(ctx, big, "docs", "big.pdf", "application/pdf")
		require.ErrorIs(t, err, file.ErrFileTooLarge)

		// Nothing left behind.
		entries, err := os.ReadDir(filepath.Join(dir, "docs"))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("unique stored names", func(t *testing.T) {
		t.Parallel()
		s := newLocal(t, 1)

		a, err := s.Save(ctx, strings.NewReader("one"), "d", "same.png", "image/png")
		require.NoError(t, err)
		b, err := s.Save(ctx, strings.NewReader("two"), "d", "same.png", "image/png")
		require.NoError(t, err)
		assert.NotEqual(t, a.Path, b.Path)
	})
}

func TestLocalStorageDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newLocal(t, 1)

	f, err := s.Save(ctx, strings.NewReader("bytes"), "d", "doc.pdf", "application/pdf")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, f.Path))
	// Deleting twice is fine.
	require.NoError(t, s.Delete(ctx, f.Path))
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"recibo.pdf":        "recibo.pdf",
		"../../etc/passwd":  "passwd",
		"factura enero.pdf": "factura_enero.pdf",
		"": "file",
	}
	for in, want := range cases {
		assert.Equal(t, want, file.SanitizeFilename(in), in)
	}
}
