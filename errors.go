package iconpane

import (
	"errors"
	"fmt"
)

// The failure kinds reported by the resolution and rendering pipeline.
// Callers match them with errors.Is; none of them is retried internally.
var (
	ErrUnknownLibrary  = errors.New("unknown library")
	ErrAssetNotFound   = errors.New("asset not found")
	ErrFetchFailed     = errors.New("fetch failed")
	ErrDecode          = errors.New("decode error")
	ErrRasterize       = errors.New("rasterize error")
	ErrInsertionFailed = errors.New("insertion failed")
	ErrInvalidManifest = errors.New("invalid manifest")
)

// FetchError is returned when a CDN request fails. Status is zero for transport errors.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Is reports FetchError as ErrFetchFailed.
func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

func (e *FetchError) Unwrap() error { return e.Err }

// InsertionError carries the host's rejection message.
type InsertionError struct {
	Message string
}

func (e *InsertionError) Error() string {
	return "insertion failed: " + e.Message
}

// Is reports InsertionError as ErrInsertionFailed.
func (e *InsertionError) Is(target error) bool { return target == ErrInsertionFailed }

func unknownLibrary(id string) error {
	return fmt.Errorf("%w: %q", ErrUnknownLibrary, id)
}

func decodeError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDecode, fmt.Sprintf(format, args...))
}

// ErrStaleSelection is returned when a result belongs to a selection that has since been replaced.
var ErrStaleSelection = errors.New("stale selection")
