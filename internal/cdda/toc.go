package cdda

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrIntegrity means the drive's response contradicts itself: track numbers
// out of sequence, a missing lead-out, or a length that cannot hold the
// entries it announces. The aggregate is never returned partially filled.
var ErrIntegrity = errors.New("cdda: inconsistent drive response")

// LeadOutTrack is the track number the drive reports for the lead-out entry.
const LeadOutTrack = 0xAA

// Control nibble bits of a TOC entry
const (
	ControlPreEmphasis   = 0x1
	ControlCopyPermitted = 0x2
	ControlData          = 0x4
	ControlFourChannel   = 0x8
)

// Red Book timing
const (
	FramesPerSecond  = 75
	SecondsPerMinute = 60
	LeadInFrames     = 150 // 2 second pregap before LBA 0
)

const (
	headerSize     = 4
	descriptorSize = 8
	maxEntries     = 101 // 100 tracks + lead-out
)

// RawTrack is one TOC entry.
type RawTrack struct {
	Number  int    `json:"number"`  // LeadOutTrack for the lead-out entry
	Address int    `json:"address"` // LBA, or absolute frames when read in MSF mode
	Control byte   `json:"control"`
	ADR     byte   `json:"adr"`
	ISRC    string `json:"isrc,omitempty"`
}

func (t RawTrack) IsData() bool        { return t.Control&ControlData != 0 }
func (t RawTrack) IsAudio() bool       { return !t.IsData() }
func (t RawTrack) CopyPermitted() bool { return t.Control&ControlCopyPermitted != 0 }
func (t RawTrack) PreEmphasis() bool   { return !t.IsData() && t.Control&ControlPreEmphasis != 0 }
func (t RawTrack) FourChannel() bool   { return !t.IsData() && t.Control&ControlFourChannel != 0 }

// IsLeadOut reports whether t is the lead-out entry.
func (t RawTrack) IsLeadOut() bool { return t.Number == LeadOutTrack }

// TableOfContents is the decoded disc layout.
//
// Tracks[0] always holds the lead-out; Tracks[i] for i >= 1 holds track
// First+i-1, so len(Tracks) == Last-First+2. Use Track to index by track
// number.
type TableOfContents struct {
	Device string     `json:"device"`
	First  int        `json:"first"`
	Last   int        `json:"last"`
	MSF    bool       `json:"msf"`
	Tracks []RawTrack `json:"tracks"`
	MCN    string     `json:"mcn,omitempty"`
}

// LeadOut returns the lead-out entry.
func (toc *TableOfContents) LeadOut() RawTrack {
	return toc.Tracks[0]
}

// Track returns the entry for track number n.
func (toc *TableOfContents) Track(n int) (RawTrack, bool) {
	if n < toc.First || n > toc.Last {
		return RawTrack{}, false
	}
	return toc.Tracks[n-toc.First+1], true
}

// Count is the number of regular tracks.
func (toc *TableOfContents) Count() int {
	return toc.Last - toc.First + 1
}

// Offset returns where track n starts in frames from the start of the
// lead-in area, the unit disc ids are computed over. Track 0 or
// LeadOutTrack returns the lead-out offset.
func (toc *TableOfContents) Offset(n int) int {
	var t RawTrack
	if n == 0 || n == LeadOutTrack {
		t = toc.LeadOut()
	} else {
		var ok bool
		if t, ok = toc.Track(n); !ok {
			return 0
		}
	}
	if toc.MSF {
		return t.Address
	}
	return t.Address + LeadInFrames
}

// Len returns the length of track n in sectors: the distance to the next
// track, or to the lead-out for the last one.
func (toc *TableOfContents) Len(n int) int {
	if n < toc.First || n > toc.Last {
		return 0
	}
	var next int
	if n < toc.Last {
		next = toc.Offset(n + 1)
	} else {
		next = toc.Offset(LeadOutTrack)
	}
	return next - toc.Offset(n)
}

// SetISRC records the ISRC for track n.
func (toc *TableOfContents) SetISRC(n int, isrc string) {
	if n < toc.First || n > toc.Last {
		return
	}
	toc.Tracks[n-toc.First+1].ISRC = isrc
}

// MSFToFrames converts a minute/second/frame address to absolute frames.
func MSFToFrames(m, s, f byte) int {
	return (int(m)*SecondsPerMinute+int(s))*FramesPerSecond + int(f)
}

// FramesToMSF is the inverse of MSFToFrames.
func FramesToMSF(frames int) (m, s, f byte) {
	f = byte(frames % FramesPerSecond)
	frames /= FramesPerSecond
	s = byte(frames % SecondsPerMinute)
	m = byte(frames / SecondsPerMinute)
	return m, s, f
}

// DecodeTOC decodes the response to READ TOC format 0.
// msf must match the addressing mode the command was issued with.
//
// Every entry from first to last must carry its own track number, in
// order, and the entry after the last track must be the lead-out.
// Anything else is ErrIntegrity.
//
// This is a pure function: input bytes → TableOfContents.
func DecodeTOC(raw []byte, msf bool) (*TableOfContents, error) {
	if len(raw) < headerSize {
		return nil, fmt.Errorf("%w: TOC response is %d bytes, need a %d byte header", ErrIntegrity, len(raw), headerSize)
	}

	// Length counts the bytes after the length field itself
	dataEnd := int(binary.BigEndian.Uint16(raw[0:2])) + 2
	if dataEnd > len(raw) {
		dataEnd = len(raw)
	}
	first := int(raw[2])
	last := int(raw[3])

	if first < 1 || first > last {
		return nil, fmt.Errorf("%w: track range %d..%d", ErrIntegrity, first, last)
	}
	entries := last - first + 2
	if entries > maxEntries {
		return nil, fmt.Errorf("%w: %d tracks", ErrIntegrity, last-first+1)
	}
	if need := headerSize + entries*descriptorSize; dataEnd < need {
		return nil, fmt.Errorf("%w: TOC response is %d bytes, %d tracks need %d", ErrIntegrity, dataEnd, last-first+1, need)
	}

	toc := &TableOfContents{
		First:  first,
		Last:   last,
		MSF:    msf,
		Tracks: make([]RawTrack, entries),
	}

	for i := 0; i < entries; i++ {
		t := decodeDescriptor(raw[headerSize+i*descriptorSize:], msf)

		if i == entries-1 {
			if t.Number != LeadOutTrack {
				return nil, fmt.Errorf("%w: entry after track %d is %d, want lead-out %#x", ErrIntegrity, last, t.Number, LeadOutTrack)
			}
			toc.Tracks[0] = t
			continue
		}

		if want := first + i; t.Number != want {
			return nil, fmt.Errorf("%w: entry %d is track %d, want %d", ErrIntegrity, i, t.Number, want)
		}
		toc.Tracks[i+1] = t
	}

	return toc, nil
}

// Track descriptor:
// Byte 0: Reserved
// Byte 1: ADR (upper 4 bits) / Control (lower 4 bits)
// Byte 2: Track number (0xAA = lead-out)
// Byte 3: Reserved
// Bytes 4-7: LBA (big-endian), or reserved/M/S/F
func decodeDescriptor(d []byte, msf bool) RawTrack {
	t := RawTrack{
		Number:  int(d[2]),
		Control: d[1] & 0x0F,
		ADR:     d[1] >> 4,
	}
	if msf {
		t.Address = MSFToFrames(d[5], d[6], d[7])
	} else {
		t.Address = int(int32(binary.BigEndian.Uint32(d[4:8])))
	}
	return t
}
