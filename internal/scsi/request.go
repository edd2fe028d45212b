package scsi

import (
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds a single command. The drive is reset when it expires.
const DefaultTimeout = 30 * time.Second

// SenseLength is the size of the sense buffer handed to the transport.
const SenseLength = 16

// Direction of the data phase of a command.
type Direction int

const (
	FromDevice Direction = iota // e.g. READ TOC
	NoTransfer                  // e.g. TEST UNIT READY
)

func (d Direction) String() string {
	switch d {
	case FromDevice:
		return "from-device"
	case NoTransfer:
		return "none"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Request is a single command submission. It is built, sent once and dropped.
type Request struct {
	Op        string // what the command does, e.g. "retrieve table of contents"
	CDB       []byte
	Direction Direction
	DataLen   int           // size of the response buffer
	Timeout   time.Duration // 0 means DefaultTimeout
}

// NewRequest builds a from-device request for cdb expecting dataLen bytes.
func NewRequest(op string, cdb []byte, dataLen int) Request {
	dir := FromDevice
	if dataLen == 0 {
		dir = NoTransfer
	}
	return Request{Op: op, CDB: cdb, Direction: dir, DataLen: dataLen}
}

func (r Request) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

// Validate checks the request against the envelope's limits. It runs before
// anything is submitted to the device.
func (r Request) Validate() error {
	if len(r.CDB) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyCommand, r.Op)
	}
	if len(r.CDB) > MaxCDBLength {
		return fmt.Errorf("%w: %s is %d bytes", ErrCommandTooLong, r.Op, len(r.CDB))
	}
	if r.DataLen < 0 {
		return fmt.Errorf("%w: %s has negative data length %d", ErrEmptyCommand, r.Op, r.DataLen)
	}
	return nil
}

// InfoStatus is the "something abnormal happened" bit of the SG info field.
type InfoStatus uint32

const (
	InfoOK    InfoStatus = 0x00 // no sense, host nor driver "noise"
	InfoCheck InfoStatus = 0x01 // something abnormal happened
)

// IOMode is how the data phase was carried out.
type IOMode uint32

const (
	IOModeIndirect IOMode = 0x00 // data transferred via kernel buffers (or no transfer)
	IOModeDirect   IOMode = 0x02 // direct IO requested and performed
	IOModeMixed    IOMode = 0x04 // part direct, part indirect IO
)

func (m IOMode) String() string {
	switch m {
	case IOModeIndirect:
		return "indirect"
	case IOModeDirect:
		return "direct"
	case IOModeMixed:
		return "mixed"
	default:
		return fmt.Sprintf("IOMode(%#x)", uint32(m))
	}
}

// Info is the post-execution info bitfield.
type Info uint32

func (i Info) Status() InfoStatus { return InfoStatus(i & 0x1) }
func (i Info) IOMode() IOMode     { return IOMode(i & 0x6) }

// Response is the outcome of a submitted request.
type Response struct {
	Status       byte   // SCSI status byte
	HostStatus   uint16 // transport (HBA) status
	DriverStatus uint16
	Resid        int // bytes requested but not transferred
	Duration     time.Duration
	Info         Info
	Sense        []byte
	Data         []byte
}

// OK reports whether the command completed without any check condition.
func (r *Response) OK() bool {
	return r.Info.Status() == InfoOK && r.Status == 0 && r.HostStatus == 0 && r.DriverStatus == 0
}

// Transferred returns the part of Data the device actually filled.
func (r *Response) Transferred() []byte {
	n := len(r.Data) - r.Resid
	if n < 0 {
		n = 0
	}
	if n > len(r.Data) {
		n = len(r.Data)
	}
	return r.Data[:n]
}

func (r *Response) checkError() error {
	if r.OK() {
		return nil
	}
	return newSenseError(r)
}

// Transport submits requests to one device. Implementations are not safe for
// concurrent use: one read owns one transport.
type Transport interface {
	// Do validates req, submits it and returns the device's response.
	// A response that reports a check condition is returned as an *IOError.
	Do(req Request) (*Response, error)
	// Device names the device for error messages.
	Device() string
	Close() error
}

// envelope is the one contiguous buffer backing a request: command bytes,
// then the sense area, then the response area.
type envelope struct {
	buf   []byte
	cmd   []byte
	sense []byte
	data  []byte
}

func newEnvelope(req Request) (*envelope, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cmdLen := len(req.CDB)
	buf := make([]byte, cmdLen+SenseLength+req.DataLen)
	e := &envelope{
		buf:   buf,
		cmd:   buf[:cmdLen:cmdLen],
		sense: buf[cmdLen : cmdLen+SenseLength : cmdLen+SenseLength],
		data:  buf[cmdLen+SenseLength:],
	}
	copy(e.cmd, req.CDB)
	return e, nil
}

// response copies the sense and data areas out of the envelope so the
// buffer can be released.
func (e *envelope) response() *Response {
	resp := &Response{
		Sense: append([]byte(nil), e.sense...),
		Data:  append([]byte(nil), e.data...),
	}
	return resp
}

// errors

var (
	// ErrCommandTooLong means a CDB exceeded MaxCDBLength. It is a
	// programming error and is reported before the device is touched.
	ErrCommandTooLong = errors.New("scsi: command exceeds 16 bytes")

	// ErrEmptyCommand means a request had no CDB or a negative data length.
	ErrEmptyCommand = errors.New("scsi: malformed request")

	// ErrUnsupported is returned by transports the running OS lacks.
	ErrUnsupported = errors.New("scsi: passthrough not supported on this platform")
)

// IOError is a failed open or command submission.
type IOError struct {
	Op     string // e.g. "retrieve table of contents"
	Device string
	Err    error // *unixerr.Error or *SenseError
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s on %s: %v", e.Op, e.Device, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Sense keys
const (
	SenseNoSense        = 0x0
	SenseRecoveredError = 0x1
	SenseNotReady       = 0x2
	SenseMediumError    = 0x3
	SenseHardwareError  = 0x4
	SenseIllegalRequest = 0x5
	SenseUnitAttention  = 0x6
)

var senseKeyNames = map[byte]string{
	SenseNoSense:        "NO SENSE",
	SenseRecoveredError: "RECOVERED ERROR",
	SenseNotReady:       "NOT READY",
	SenseMediumError:    "MEDIUM ERROR",
	SenseHardwareError:  "HARDWARE ERROR",
	SenseIllegalRequest: "ILLEGAL REQUEST",
	SenseUnitAttention:  "UNIT ATTENTION",
}

// SenseError is a command the device completed with a check condition.
type SenseError struct {
	Status       byte
	HostStatus   uint16
	DriverStatus uint16
	Key          byte // sense key
	ASC          byte // additional sense code
	ASCQ         byte // additional sense code qualifier
}

func newSenseError(r *Response) *SenseError {
	key, asc, ascq := ParseSense(r.Sense)
	return &SenseError{
		Status:       r.Status,
		HostStatus:   r.HostStatus,
		DriverStatus: r.DriverStatus,
		Key:          key,
		ASC:          asc,
		ASCQ:         ascq,
	}
}

func (e *SenseError) Error() string {
	name, ok := senseKeyNames[e.Key]
	if !ok {
		name = "UNKNOWN"
	}
	return fmt.Sprintf("check condition: SCSI status %#02x, host status %#02x, driver status %#02x, sense key %#x (%s), asc/ascq %#02x/%#02x",
		e.Status, e.HostStatus, e.DriverStatus, e.Key, name, e.ASC, e.ASCQ)
}

// ParseSense extracts the sense key, ASC and ASCQ from fixed (0x70/0x71) or
// descriptor (0x72/0x73) format sense data. Unknown formats yield zeros.
// This is a pure function.
func ParseSense(sense []byte) (key, asc, ascq byte) {
	if len(sense) < 1 {
		return 0, 0, 0
	}
	switch sense[0] & 0x7F {
	case 0x70, 0x71:
		if len(sense) < 14 {
			if len(sense) > 2 {
				return sense[2] & 0x0F, 0, 0
			}
			return 0, 0, 0
		}
		return sense[2] & 0x0F, sense[12], sense[13]
	case 0x72, 0x73:
		if len(sense) < 4 {
			return 0, 0, 0
		}
		return sense[1] & 0x0F, sense[2], sense[3]
	default:
		return 0, 0, 0
	}
}
