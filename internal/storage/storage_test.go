package storage

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFileStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("Should save under keyfiles directory", func(t *testing.T) {
		s := New(afero.NewMemMapFs(), "/data")

		name, err := s.Save(ctx, "issuer key.pem", strings.NewReader("KEY"))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(name, KeyFileDir+"/"))
		assert.True(t, strings.HasSuffix(name, "_issuer_key.pem"))
		assert.Equal(t, filepath.Join("/data", filepath.FromSlash(name)), s.Path(name))

		f, err := s.Open(name)
		require.NoError(t, err)
		defer f.Close()
		content, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "KEY", string(content))
	})

	t.Run("Should give every upload its own name", func(t *testing.T) {
		s := New(afero.NewMemMapFs(), "/data")
		first, err := s.Save(ctx, "key.pem", strings.NewReader("a"))
		require.NoError(t, err)
		second, err := s.Save(ctx, "key.pem", strings.NewReader("b"))
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("Should strip directories from uploaded name", func(t *testing.T) {
		s := New(afero.NewMemMapFs(), "/data")
		name, err := s.Save(ctx, "../../etc/passwd", strings.NewReader("x"))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(name, KeyFileDir+"/"))
		assert.True(t, strings.HasSuffix(name, "_passwd"))
	})

	t.Run("Should reject oversized upload", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		s := New(fs, "/data")
		_, err := s.Save(ctx, "big.pem", bytes.NewReader(make([]byte, MaxKeyFileSize+1)))
		assert.ErrorIs(t, err, ErrTooLarge)

		entries, err := afero.ReadDir(fs, filepath.Join("/data", KeyFileDir))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("Should delete and report existence", func(t *testing.T) {
		s := New(afero.NewMemMapFs(), "/data")
		name, err := s.Save(ctx, "key.pem", strings.NewReader("a"))
		require.NoError(t, err)

		exists, err := s.Exists(name)
		require.NoError(t, err)
		assert.True(t, exists)

		require.NoError(t, s.Delete(name))
		exists, err = s.Exists(name)
		require.NoError(t, err)
		assert.False(t, exists)

		assert.NoError(t, s.Delete(name))
		_, err = s.Open(name)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Should refuse names outside keyfiles directory", func(t *testing.T) {
		s := New(afero.NewMemMapFs(), "/data")
		_, err := s.Open("../secret")
		assert.ErrorIs(t, err, ErrInvalidName)
		assert.ErrorIs(t, s.Delete(KeyFileDir+"/../../x"), ErrInvalidName)
	})

	t.Run("Should check storage root", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		s := New(fs, "/data")
		assert.Error(t, s.Check())

		require.NoError(t, fs.MkdirAll("/data", 0o755))
		assert.NoError(t, s.Check())
	})
}
