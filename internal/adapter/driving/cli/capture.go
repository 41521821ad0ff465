package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrMicrophoneUnavailable indicates no audio could be captured.
var ErrMicrophoneUnavailable = errors.New("microphone unavailable")

// captureFn opens a recorded clip. Terminals have no microphone, so the
// capture device is a file recorded by another tool.
var captureFn = captureFile

func captureFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMicrophoneUnavailable, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", ErrMicrophoneUnavailable, err)
	}
	if info.IsDir() || info.Size() == 0 {
		f.Close()
		return nil, fmt.Errorf("%w: %s holds no audio", ErrMicrophoneUnavailable, path)
	}
	return f, nil
}
