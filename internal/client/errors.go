package client

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/julianstephens/calhours/internal/constants"
)

// ErrResponseTooLarge marks a success body longer than MaxResponseBytes.
var ErrResponseTooLarge = errors.New("response exceeds " + humanize.IBytes(constants.MaxResponseBytes))

// Kind classifies why a fetch failed. Only the message reaches the user; the
// kind is kept for diagnostics.
type Kind string

const (
	KindNetwork Kind = "network"
	KindServer  Kind = "server"
	KindParse   Kind = "parse"
)

// Error is returned by Client for every failed fetch.
type Error struct {
	Kind    Kind
	Status  int // HTTP status, zero for network failures
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Detail includes the underlying cause, for logs only.
func (e *Error) Detail() string {
	if e.Err == nil {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s error (status %d): %s: %v", e.Kind, e.Status, e.Message, e.Err)
}

// KindOf reports the kind of err, or "" when err is not a fetch error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
