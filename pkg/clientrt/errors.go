package clientrt

import (
	"errors"
	"fmt"
)

// ErrUnsupportedMedia is returned by codec stubs generated for media kinds
// without a built-in strategy.
var ErrUnsupportedMedia = errors.New("clientrt: unsupported media type")

// RemoteError reports a response whose status was a declared error or did not
// match the operation's expected status.
type RemoteError struct {
	Status int
	Cause  string
	Body   []byte
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote call failed with status %d: %s", e.Status, e.Cause)
}

// Unsupported returns the zero value of T together with ErrUnsupportedMedia.
func Unsupported[T any](media string) (T, error) {
	var zero T
	return zero, fmt.Errorf("%w: %s", ErrUnsupportedMedia, media)
}
