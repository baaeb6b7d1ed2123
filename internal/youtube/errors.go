package youtube

import (
	"errors"
	"fmt"
)

type (
	// ExtractionError indicates the remote source could not be reached or
	// produced output the client could not use.
	ExtractionError struct {
		url    string
		reason string
	}

	// NoIdentityError indicates the remote resolved but exposed no stable
	// identifier to dedupe on.
	NoIdentityError struct {
		url string
	}

	// NoAudioStreamError indicates a media entry resolved but offered no
	// playable audio rendition.
	NoAudioStreamError struct {
		url string
	}
)

func (err *ExtractionError) Error() string {
	return fmt.Sprintf("extraction of '%s' failed: %s", err.url, err.reason)
}

func (err *NoIdentityError) Error() string {
	return fmt.Sprintf("collection at '%s' exposes no stable identity", err.url)
}

func (err *NoAudioStreamError) Error() string {
	return fmt.Sprintf("no playable audio stream available for '%s'", err.url)
}

// IsNotResolvable reports whether err means the remote reference itself is
// bad (unreachable, unusable or anonymous), as opposed to a local failure.
func IsNotResolvable(err error) bool {
	var extraction *ExtractionError
	var identity *NoIdentityError

	return errors.As(err, &extraction) || errors.As(err, &identity)
}
