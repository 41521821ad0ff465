// Package audiofs stores captured voice notes as files named by UUID handles.
package audiofs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ericfisherdev/chill/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AudioStore = (*Store)(nil)

const fileExt = ".wav"

// Store is a directory-backed AudioStore. Files are written to a temp name and
// renamed into place, so a handle never points at a partial recording.
type Store struct {
	dir string
}

// New creates a Store rooted at dir. The directory is created on first Save.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Save copies r into a new file and returns its handle.
func (s *Store) Save(ctx context.Context, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return "", fmt.Errorf("create audio dir: %w: %w", driven.ErrStoreUnavailable, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".capture-*")
	if err != nil {
		return "", fmt.Errorf("create audio file: %w: %w", driven.ErrStoreUnavailable, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close audio file: %w: %w", driven.ErrStoreUnavailable, err)
	}

	handle := uuid.NewString()
	if err := os.Rename(tmpName, s.path(handle)); err != nil {
		return "", fmt.Errorf("commit audio file: %w: %w", driven.ErrStoreUnavailable, err)
	}

	return handle, nil
}

// Open returns the stored audio for handle. Handles that are not UUIDs are
// rejected before touching the filesystem.
func (s *Store) Open(ctx context.Context, handle string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(handle); err != nil {
		return nil, fmt.Errorf("open audio %q: %w", handle, driven.ErrAudioNotFound)
	}

	f, err := os.Open(s.path(handle))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("open audio %q: %w", handle, driven.ErrAudioNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open audio %q: %w: %w", handle, driven.ErrStoreUnavailable, err)
	}
	return f, nil
}

func (s *Store) path(handle string) string {
	return filepath.Join(s.dir, handle+fileExt)
}
