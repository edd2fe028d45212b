package cdrom

import (
	"encoding/binary"
	"fmt"

	"github.com/binaryphile/cdtoc/internal/scsi"
)

// fakeTransport answers commands from canned responses and records every
// request it is handed.
type fakeTransport struct {
	device   string
	requests []scsi.Request
	// respond returns the data for a request, or an error.
	respond  func(req scsi.Request) ([]byte, error)
	closed   bool
}

func (f *fakeTransport) Do(req scsi.Request) (*scsi.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	f.requests = append(f.requests, req)
	data, err := f.respond(req)
	if err != nil {
		return nil, &scsi.IOError{Op: req.Op, Device: f.device, Err: err}
	}
	buf := make([]byte, req.DataLen)
	copy(buf, data)
	resid := 0
	if len(data) < req.DataLen {
		resid = req.DataLen - len(data)
	}
	return &scsi.Response{Data: buf, Resid: resid}, nil
}

func (f *fakeTransport) Device() string { return f.device }

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

func (f *fakeTransport) ops() []string {
	var ops []string
	for _, r := range f.requests {
		ops = append(ops, r.Op)
	}
	return ops
}

// disc is what a fakeTransport drive holds.
type disc struct {
	lbas    []int // track starts, first track 1
	leadout int
	isrcs   map[int]string
	mcn     string
}

func (d disc) transport() *fakeTransport {
	return &fakeTransport{device: "/dev/fake", respond: d.respond}
}

func (d disc) respond(req scsi.Request) ([]byte, error) {
	switch req.CDB[0] {
	case scsi.OpReadTOC:
		return d.toc(), nil
	case scsi.OpReadSubChannel:
		switch req.CDB[3] {
		case scsi.SubChannelISRC:
			return subChannel(0x03, d.isrcs[int(req.CDB[6])]), nil
		case scsi.SubChannelMCN:
			return subChannel(0x02, d.mcn), nil
		}
	}
	return nil, fmt.Errorf("unexpected command %#02x", req.CDB[0])
}

func (d disc) toc() []byte {
	last := len(d.lbas)
	raw := make([]byte, 4+8*(last+1))
	binary.BigEndian.PutUint16(raw[0:2], uint16(len(raw)-2))
	raw[2] = 1
	raw[3] = byte(last)
	for i, lba := range append(d.lbas, d.leadout) {
		e := raw[4+8*i:]
		e[1] = 0x10
		e[2] = byte(i + 1)
		if i == last {
			e[2] = 0xAA
		}
		binary.BigEndian.PutUint32(e[4:8], uint32(lba))
	}
	return raw
}

func subChannel(format byte, value string) []byte {
	raw := make([]byte, 24)
	raw[3] = 20
	raw[4] = format
	if value != "" {
		raw[8] = 0x80
		copy(raw[9:], value)
	}
	return raw
}

var testDisc = disc{
	lbas:    []int{0, 18100, 36350},
	leadout: 54600,
	isrcs:   map[int]string{1: "GBAYE0601498", 3: "USRC17607839"},
	mcn:     "0724384960650",
}
