package scsi

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// USB Mass Storage Bulk-Only protocol constants
const (
	CBWSignature = 0x43425355 // "USBC" little-endian
	CSWSignature = 0x53425355 // "USBS" little-endian
	CBWSize      = 31
	CSWSize      = 13
)

// CBW flags byte (bit 7 = data-in)
const (
	cbwFlagsOut = 0x00 // Host to device
	cbwFlagsIn  = 0x80 // Device to host
)

// CSW status values
const (
	StatusPassed     = 0x00
	StatusFailed     = 0x01
	StatusPhaseError = 0x02
)

// ErrBadCSW is returned for a status wrapper that is short, unsigned or
// answers a different command.
var ErrBadCSW = errors.New("scsi: invalid command status wrapper")

// CSW represents a Command Status Wrapper
type CSW struct {
	Tag     uint32
	Residue uint32
	Status  byte
}

// BuildCBW wraps cdb in a Command Block Wrapper for the given tag.
// This is a pure function: (tag, lun, request) → 31 bytes
func BuildCBW(tag uint32, lun byte, req Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cbw := make([]byte, CBWSize)
	binary.LittleEndian.PutUint32(cbw[0:4], CBWSignature)
	binary.LittleEndian.PutUint32(cbw[4:8], tag)
	binary.LittleEndian.PutUint32(cbw[8:12], uint32(req.DataLen))
	cbw[12] = cbwFlagsOut
	if req.Direction == FromDevice && req.DataLen > 0 {
		cbw[12] = cbwFlagsIn
	}
	cbw[13] = lun & 0x0F
	cbw[14] = byte(len(req.CDB))
	copy(cbw[15:15+MaxCDBLength], req.CDB)

	return cbw, nil
}

// ParseCSW decodes a 13-byte CSW and checks it answers tag.
// This is a pure function: bytes → (CSW, error)
func ParseCSW(data []byte, tag uint32) (CSW, error) {
	if len(data) < CSWSize {
		return CSW{}, fmt.Errorf("%w: %d bytes", ErrBadCSW, len(data))
	}

	if sig := binary.LittleEndian.Uint32(data[0:4]); sig != CSWSignature {
		return CSW{}, fmt.Errorf("%w: signature %#08x", ErrBadCSW, sig)
	}

	csw := CSW{
		Tag:     binary.LittleEndian.Uint32(data[4:8]),
		Residue: binary.LittleEndian.Uint32(data[8:12]),
		Status:  data[12],
	}
	if csw.Tag != tag {
		return csw, fmt.Errorf("%w: tag %d, want %d", ErrBadCSW, csw.Tag, tag)
	}
	return csw, nil
}
