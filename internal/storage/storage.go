// Package storage keeps uploaded key files on a filesystem.
//
// Names handed out by Save are relative to the storage root, the same
// value the key_file table stores. Path turns a name back into the OS
// path given to the generator.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// KeyFileDir is the upload directory below the storage root.
const KeyFileDir = "pretix_attestation_plugin/keyfiles"

const (
	dirPermissions  = 0o750
	filePermissions = 0o600

	// MaxKeyFileSize bounds a single upload.
	MaxKeyFileSize = 1 << 20
)

var (
	// ErrNotFound is returned for names that are not present on disk.
	ErrNotFound = errors.New("key file not found")
	// ErrTooLarge is returned when an upload exceeds MaxKeyFileSize.
	ErrTooLarge = errors.New("key file too large")
	// ErrInvalidName is returned for names outside the key file directory.
	ErrInvalidName = errors.New("invalid key file name")

	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// KeyFileStorage stores key files below root on fs.
type KeyFileStorage struct {
	fs   afero.Fs
	root string
}

// New returns a storage rooted at root on fs.
func New(fs afero.Fs, root string) *KeyFileStorage {
	return &KeyFileStorage{fs: fs, root: root}
}

// NewOS returns a storage on the real filesystem, creating the key file
// directory below root.
func NewOS(root string) (*KeyFileStorage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving storage root: %w", err)
	}
	fs := afero.NewOsFs()
	if err := fs.MkdirAll(filepath.Join(abs, filepath.FromSlash(KeyFileDir)), 0o700); err != nil {
		return nil, fmt.Errorf("creating key file directory: %w", err)
	}
	return New(fs, abs), nil
}

// Save writes r under a fresh name derived from filename and returns that name.
func (s *KeyFileStorage) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(s.root, filepath.FromSlash(KeyFileDir))
	if err := s.fs.MkdirAll(dir, dirPermissions); err != nil {
		return "", fmt.Errorf("creating key file directory: %w", err)
	}

	name := path.Join(KeyFileDir, uuid.NewString()+"_"+sanitize(filename))
	target := s.Path(name)

	f, err := s.fs.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePermissions)
	if err != nil {
		return "", fmt.Errorf("creating key file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, MaxKeyFileSize+1))
	closeErr := f.Close()
	if err == nil && n > MaxKeyFileSize {
		err = ErrTooLarge
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = s.fs.Remove(target)
		if errors.Is(err, ErrTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("writing key file: %w", err)
	}

	return name, nil
}

// Open opens a stored key file for reading.
func (s *KeyFileStorage) Open(name string) (afero.File, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	f, err := s.fs.Open(s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("opening key file: %w", err)
	}
	return f, nil
}

// Delete removes a stored key file. Missing files are not an error.
func (s *KeyFileStorage) Delete(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := s.fs.Remove(s.Path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting key file: %w", err)
	}
	return nil
}

// Exists reports whether name is present on disk.
func (s *KeyFileStorage) Exists(name string) (bool, error) {
	if err := validName(name); err != nil {
		return false, err
	}
	return afero.Exists(s.fs, s.Path(name))
}

// Check verifies that the storage root exists and is a directory.
func (s *KeyFileStorage) Check() error {
	ok, err := afero.DirExists(s.fs, s.root)
	if err != nil {
		return fmt.Errorf("checking storage root: %w", err)
	}
	if !ok {
		return fmt.Errorf("storage root %q is not a directory", s.root)
	}
	return nil
}

// Path returns the OS path of name.
func (s *KeyFileStorage) Path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

func validName(name string) error {
	clean := path.Clean(name)
	if clean != name || !strings.HasPrefix(clean, KeyFileDir+"/") {
		return ErrInvalidName
	}
	return nil
}

func sanitize(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "key"
	}
	if len(base) > 100 {
		base = base[len(base)-100:]
	}
	return base
}
