//go:build unix

package scsi

import (
	"golang.org/x/sys/unix"

	"github.com/binaryphile/cdtoc/internal/unixerr"
)

// Handle owns one open device descriptor.
//
// OpenHandle never fails outright: a device that cannot be opened yields an
// invalid Handle whose Err explains why. Close is safe to call more than
// once and on invalid handles.
type Handle struct {
	path string
	fd   int
	err  error
}

// OpenHandle opens path read-only, non-blocking and without acquiring a
// controlling terminal.
func OpenHandle(path string) *Handle {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_NOCTTY|unix.O_CLOEXEC, 0)
	if err != nil {
		return &Handle{
			path: path,
			fd:   -1,
			err:  &IOError{Op: "open device", Device: path, Err: unixerr.FromError(err)},
		}
	}
	return &Handle{path: path, fd: fd}
}

// Valid reports whether the descriptor is open and usable.
func (h *Handle) Valid() bool {
	return h != nil && h.fd >= 0
}

// Err explains why the handle is invalid; nil for valid handles.
func (h *Handle) Err() error {
	return h.err
}

// Path is the device path the handle was opened from.
func (h *Handle) Path() string {
	return h.path
}

// Fd returns the raw descriptor, or -1.
func (h *Handle) Fd() int {
	return h.fd
}

// Close releases the descriptor. Subsequent calls do nothing.
func (h *Handle) Close() error {
	if !h.Valid() {
		return nil
	}
	fd := h.fd
	h.fd = -1
	if err := unix.Close(fd); err != nil {
		return &IOError{Op: "close device", Device: h.path, Err: unixerr.FromError(err)}
	}
	return nil
}
