package cdda

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// READ SUB-CHANNEL data formats
const (
	formatMCN  = 0x02
	formatISRC = 0x03
)

const (
	subChannelHeaderSize = 4
	subChannelBlockSize  = 24
	validBit             = 0x80

	mcnOffset  = 9
	mcnLength  = 13
	isrcOffset = 9
	isrcLength = 12
)

// DecodeMCN decodes a READ SUB-CHANNEL media catalog number response.
// A response whose MCVal bit is clear yields "" and no error: most discs
// carry no catalog number.
//
// Byte 4: format code (02h)
// Byte 8: MCVal (bit 7)
// Bytes 9-21: 13 ASCII digits
//
// This is a pure function.
func DecodeMCN(raw []byte) (string, error) {
	block, ok, err := subChannelBlock(raw, formatMCN)
	if err != nil || !ok {
		return "", err
	}
	if block[8]&validBit == 0 {
		return "", nil
	}
	return asciiField(block[mcnOffset : mcnOffset+mcnLength]), nil
}

// DecodeISRC decodes a READ SUB-CHANNEL ISRC response.
// A response whose TCVal bit is clear yields "" and no error.
//
// Byte 4: format code (03h)
// Byte 5: ADR/Control
// Byte 6: track number
// Byte 8: TCVal (bit 7)
// Bytes 9-20: 12 ASCII characters
//
// This is a pure function.
func DecodeISRC(raw []byte) (string, error) {
	block, ok, err := subChannelBlock(raw, formatISRC)
	if err != nil || !ok {
		return "", err
	}
	if block[8]&validBit == 0 {
		return "", nil
	}
	return asciiField(block[isrcOffset : isrcOffset+isrcLength]), nil
}

// subChannelBlock checks the sub-channel header. ok is false when the drive
// returned a header announcing no data.
func subChannelBlock(raw []byte, format byte) (block []byte, ok bool, err error) {
	if len(raw) < subChannelHeaderSize {
		return nil, false, fmt.Errorf("%w: sub-channel response is %d bytes", ErrIntegrity, len(raw))
	}
	if binary.BigEndian.Uint16(raw[2:4]) == 0 {
		return nil, false, nil
	}
	if len(raw) < subChannelBlockSize {
		return nil, false, fmt.Errorf("%w: sub-channel response is %d bytes, want %d", ErrIntegrity, len(raw), subChannelBlockSize)
	}
	if raw[4] != format {
		return nil, false, fmt.Errorf("%w: sub-channel format %#02x, want %#02x", ErrIntegrity, raw[4], format)
	}
	return raw[:subChannelBlockSize], true, nil
}

// asciiField trims trailing NULs and spaces and replaces anything outside
// printable ASCII with '?'.
func asciiField(b []byte) string {
	s := strings.TrimRight(string(b), "\x00 ")
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7E {
			return '?'
		}
		return r
	}, s)
}
