//go:build linux

package scsi

import (
	"runtime"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/binaryphile/cdtoc/internal/unixerr"
)

// SG_IO ioctl and sg_io_hdr constants (include/scsi/sg.h)
const (
	sgIO = 0x2285

	sgInterfaceID = 'S'

	sgDxferNone      = -1 // e.g. a SCSI Test Unit Ready command
	sgDxferToDev     = -2 // e.g. a SCSI WRITE command
	sgDxferFromDev   = -3 // e.g. a SCSI READ command
	sgDxferToFromDev = -4
)

// sgIOHdr mirrors struct sg_io_hdr. Go's natural alignment matches the C
// layout on every Linux ABI, pointers included.
type sgIOHdr struct {
	interfaceID    int32
	dxferDirection int32
	cmdLen         uint8
	mxSbLen        uint8
	iovecCount     uint16
	dxferLen       uint32
	dxferp         *byte
	cmdp           *byte
	sbp            *byte
	timeout        uint32 // milliseconds
	flags          uint32
	packID         int32
	usrPtr         uintptr
	status         uint8
	maskedStatus   uint8
	msgStatus      uint8
	sbLenWr        uint8
	hostStatus     uint16
	driverStatus   uint16
	resid          int32
	duration       uint32 // milliseconds
	info           uint32
}

// SGIO submits commands through the Linux generic SCSI ioctl.
type SGIO struct {
	handle *Handle
}

// OpenSGIO opens path and returns a transport over it.
func OpenSGIO(path string) (*SGIO, error) {
	h := OpenHandle(path)
	if !h.Valid() {
		return nil, h.Err()
	}
	return &SGIO{handle: h}, nil
}

// NewSGIO wraps an already open handle. The transport takes ownership.
func NewSGIO(h *Handle) *SGIO {
	return &SGIO{handle: h}
}

// Device returns the device path.
func (s *SGIO) Device() string {
	return s.handle.Path()
}

// Close releases the underlying handle.
func (s *SGIO) Close() error {
	return s.handle.Close()
}

// Do submits req and blocks until the drive answers or the timeout expires.
func (s *SGIO) Do(req Request) (*Response, error) {
	env, err := newEnvelope(req)
	if err != nil {
		return nil, err
	}
	if !s.handle.Valid() {
		return nil, &IOError{Op: req.Op, Device: s.Device(), Err: unixerr.New(int(unix.EBADF))}
	}

	hdr := sgIOHdr{
		interfaceID:    sgInterfaceID,
		dxferDirection: sgDxferFromDev,
		cmdLen:         uint8(len(env.cmd)),
		mxSbLen:        SenseLength,
		dxferLen:       uint32(len(env.data)),
		cmdp:           &env.cmd[0],
		sbp:            &env.sense[0],
		timeout:        uint32(req.timeout() / time.Millisecond),
	}
	if req.Direction == NoTransfer || len(env.data) == 0 {
		hdr.dxferDirection = sgDxferNone
	} else {
		hdr.dxferp = &env.data[0]
	}

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(s.handle.Fd()), sgIO, uintptr(unsafe.Pointer(&hdr)))
	runtime.KeepAlive(env)
	if errno != 0 {
		return nil, &IOError{Op: req.Op, Device: s.Device(), Err: unixerr.New(int(errno))}
	}

	resp := env.response()
	resp.Status = hdr.status
	resp.HostStatus = hdr.hostStatus
	resp.DriverStatus = hdr.driverStatus
	resp.Resid = int(hdr.resid)
	resp.Duration = time.Duration(hdr.duration) * time.Millisecond
	resp.Info = Info(hdr.info)
	if int(hdr.sbLenWr) < len(resp.Sense) {
		resp.Sense = resp.Sense[:hdr.sbLenWr]
	}

	if err := resp.checkError(); err != nil {
		return resp, &IOError{Op: req.Op, Device: s.Device(), Err: err}
	}
	return resp, nil
}
