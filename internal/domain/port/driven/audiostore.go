package driven

import (
	"context"
	"errors"
	"io"
)

// ErrAudioNotFound indicates no audio is stored under the requested handle.
var ErrAudioNotFound = errors.New("audio not found")

// AudioStore keeps captured voice notes and hands out opaque handles for them.
type AudioStore interface {
	// Save stores the audio read from r and returns its handle.
	Save(ctx context.Context, r io.Reader) (string, error)

	// Open returns a reader for the audio stored under handle. The caller closes it.
	Open(ctx context.Context, handle string) (io.ReadCloser, error)
}
