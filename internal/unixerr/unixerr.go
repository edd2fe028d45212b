// Package unixerr turns errno values into structured errors with readable text.
package unixerr

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// lookupMu serializes calls to lookup. The message table behind it is not
// assumed to be safe for concurrent use.
var lookupMu sync.RWMutex

// lookup resolves an errno to its message. Replaced in tests.
var lookup = func(code int) string {
	return unix.Errno(code).Error()
}

// Describe returns the message for an errno value.
// It never fails: when no message is known, "[errno N]" is returned.
func Describe(code int) string {
	lookupMu.Lock()
	defer lookupMu.Unlock()

	var text string
	if lookup != nil {
		text = lookup(code)
	}
	// the stdlib table reports unknown values as "errno N"
	if text == "" || strings.HasPrefix(text, "errno ") {
		return fmt.Sprintf("[errno %d]", code)
	}
	return text
}

// Error is a failed native call: the errno plus its resolved text.
type Error struct {
	Code int    // raw errno
	Name string // symbolic name, e.g. "ENOENT"; empty when unknown
	Text string // resolved message
}

// New builds an Error for code.
func New(code int) *Error {
	return &Error{
		Code: code,
		Name: unix.ErrnoName(unix.Errno(code)),
		Text: Describe(code),
	}
}

// FromError extracts an errno from err (a unix.Errno, possibly wrapped, such
// as inside *os.PathError) and builds an Error from it. Errors that carry no
// errno are returned as an Error with code 0 and err's message.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var ue *Error
	if errors.As(err, &ue) {
		return ue
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		return New(int(errno))
	}
	return &Error{Text: err.Error()}
}

func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s (%s)", e.Text, e.Name)
	}
	return e.Text
}

// Unwrap exposes the errno so callers can match with errors.Is(err, unix.ENOENT).
func (e *Error) Unwrap() error {
	if e.Code == 0 {
		return nil
	}
	return unix.Errno(e.Code)
}
