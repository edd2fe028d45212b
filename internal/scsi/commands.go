package scsi

import "encoding/binary"

// SCSI command opcodes
const (
	OpTestUnitReady  = 0x00
	OpInquiry        = 0x12
	OpReadSubChannel = 0x42
	OpReadTOC        = 0x43
)

// MaxCDBLength is the largest command the passthrough envelope accepts.
const MaxCDBLength = 16

// READ TOC/PMA/ATIP format codes (CDB byte 2, low nibble)
const (
	TOCFormatTOC = 0x00
)

// READ SUB-CHANNEL data format codes (CDB byte 3)
const (
	SubChannelCurrentPosition = 0x01
	SubChannelMCN             = 0x02
	SubChannelISRC            = 0x03
)

// Response sizes
const (
	TOCHeaderSize     = 4
	TOCDescriptorSize = 8
	MaxTOCEntries     = 100 + 1 // track descriptors + lead-out

	// TOCAllocationLength holds a header plus a descriptor for every
	// possible track and the lead-out.
	TOCAllocationLength = TOCHeaderSize + MaxTOCEntries*TOCDescriptorSize

	SubChannelISRCLength = 24
	SubChannelMCNLength  = 24

	InquiryLength = 36
)

const (
	msfBit  = 0x02 // CDB byte 1 bit 1: report addresses as MSF
	subQBit = 0x40 // READ SUB-CHANNEL byte 2 bit 6: return Q sub-channel data
)

// BuildTestUnitReady creates the CDB for TEST UNIT READY command.
// Returns 6-byte CDB.
func BuildTestUnitReady() []byte {
	return []byte{OpTestUnitReady, 0, 0, 0, 0, 0}
}

// BuildInquiry creates the CDB for INQUIRY command.
// Returns 6-byte CDB requesting 36 bytes of response.
func BuildInquiry() []byte {
	return []byte{OpInquiry, 0, 0, 0, InquiryLength, 0}
}

// BuildReadTOC creates the CDB for READ TOC/PMA/ATIP, format 0 (TOC),
// starting at track 1. With msf set the drive reports addresses as
// minute/second/frame instead of LBA.
// Returns 10-byte CDB.
func BuildReadTOC(msf bool) []byte {
	// Byte 0: Opcode (0x43)
	// Byte 1: bit 1 = MSF
	// Byte 2: Format (0 = TOC)
	// Byte 3-5: Reserved
	// Byte 6: Starting track
	// Byte 7-8: Allocation length
	// Byte 9: Control
	cdb := make([]byte, 10)
	cdb[0] = OpReadTOC
	if msf {
		cdb[1] = msfBit
	}
	cdb[2] = TOCFormatTOC
	cdb[6] = 1
	binary.BigEndian.PutUint16(cdb[7:9], TOCAllocationLength)
	return cdb
}

// BuildReadISRC creates the READ SUB-CHANNEL CDB asking for the ISRC of track.
// Returns 10-byte CDB.
func BuildReadISRC(track byte) []byte {
	return buildReadSubChannel(SubChannelISRC, track, SubChannelISRCLength)
}

// BuildReadMCN creates the READ SUB-CHANNEL CDB asking for the media catalog number.
// Returns 10-byte CDB.
func BuildReadMCN() []byte {
	return buildReadSubChannel(SubChannelMCN, 0, SubChannelMCNLength)
}

func buildReadSubChannel(format, track byte, allocLen uint16) []byte {
	// Byte 0: Opcode (0x42)
	// Byte 1: bit 1 = MSF (unused, addresses are not requested)
	// Byte 2: bit 6 = SubQ
	// Byte 3: Sub-channel data format
	// Byte 4-5: Reserved
	// Byte 6: Track number (ISRC only)
	// Byte 7-8: Allocation length
	// Byte 9: Control
	cdb := make([]byte, 10)
	cdb[0] = OpReadSubChannel
	cdb[2] = subQBit
	cdb[3] = format
	cdb[6] = track
	binary.BigEndian.PutUint16(cdb[7:9], allocLen)
	return cdb
}

// InquiryData represents parsed INQUIRY response
type InquiryData struct {
	DeviceType byte   // Peripheral device type (5 = CD/DVD)
	Removable  bool   // RMB bit
	Vendor     string // 8 chars
	Product    string // 16 chars
	Revision   string // 4 chars
}

// DeviceTypeMMC is the peripheral device type of optical drives.
const DeviceTypeMMC = 0x05

// ParseInquiry parses a 36-byte INQUIRY response.
// This is a pure function.
func ParseInquiry(data []byte) InquiryData {
	if len(data) < InquiryLength {
		return InquiryData{}
	}

	return InquiryData{
		DeviceType: data[0] & 0x1F,
		Removable:  data[1]&0x80 != 0,
		Vendor:     trimString(data[8:16]),
		Product:    trimString(data[16:32]),
		Revision:   trimString(data[32:36]),
	}
}

// trimString trims trailing spaces and NULs from ASCII bytes
func trimString(b []byte) string {
	end := len(b)
	for end > 0 && (b[end-1] == ' ' || b[end-1] == 0) {
		end--
	}
	return string(b[:end])
}
