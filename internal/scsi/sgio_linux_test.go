package scsi

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestSgIOHdrSize(t *testing.T) {
	want := uintptr(88)
	if unsafe.Sizeof(uintptr(0)) == 4 {
		want = 64
	}
	assert.Equal(t, want, unsafe.Sizeof(sgIOHdr{}))
}

func TestSGIO_RejectsOversizedCommandFirst(t *testing.T) {
	// an invalid handle would fail with EBADF; the length check must win
	s := NewSGIO(OpenHandle("/dev/does-not-exist-cdrom"))

	resp, err := s.Do(NewRequest("huge", make([]byte, 17), 8))

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrCommandTooLong)
}

func TestSGIO_ClosedHandle(t *testing.T) {
	h := OpenHandle("/dev/null")
	require.True(t, h.Valid())
	s := NewSGIO(h)
	require.NoError(t, s.Close())

	_, err := s.Do(NewRequest("retrieve table of contents", BuildReadTOC(false), TOCAllocationLength))

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "/dev/null", ioErr.Device)
	assert.True(t, errors.Is(err, unix.EBADF))
}

func TestSGIO_NotSCSIDevice(t *testing.T) {
	s, err := OpenSGIO("/dev/null")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Do(NewRequest("retrieve table of contents", BuildReadTOC(false), TOCAllocationLength))

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "retrieve table of contents", ioErr.Op)
}

func TestOpenSGIO_Missing(t *testing.T) {
	s, err := OpenSGIO("/dev/does-not-exist-cdrom")

	assert.Nil(t, s)
	assert.True(t, errors.Is(err, unix.ENOENT))
}
