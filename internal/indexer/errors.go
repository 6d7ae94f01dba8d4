package indexer

import "fmt"

// MissingCaptureDateError reports a source image without an EXIF DateTime.
// It aborts the build unless the modification-time fallback is enabled.
type MissingCaptureDateError struct {
	Path string
	Err  error
}

func (e *MissingCaptureDateError) Error() string {
	return fmt.Sprintf("missing capture date in %s: %v", e.Path, e.Err)
}

func (e *MissingCaptureDateError) Unwrap() error {
	return e.Err
}

// DecodeError reports a source image that could not be decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
