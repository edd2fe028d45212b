package scsi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTestUnitReady(t *testing.T) {
	cdb := BuildTestUnitReady()

	if len(cdb) != 6 {
		t.Errorf("CDB length = %d, want 6", len(cdb))
	}
	if cdb[0] != OpTestUnitReady {
		t.Errorf("Opcode = 0x%02x, want 0x%02x", cdb[0], OpTestUnitReady)
	}
}

func TestBuildInquiry(t *testing.T) {
	cdb := BuildInquiry()

	if len(cdb) != 6 {
		t.Errorf("CDB length = %d, want 6", len(cdb))
	}
	if cdb[0] != OpInquiry {
		t.Errorf("Opcode = 0x%02x, want 0x%02x", cdb[0], OpInquiry)
	}
	if cdb[4] != 36 {
		t.Errorf("Allocation length = %d, want 36", cdb[4])
	}
}

func TestBuildReadTOC_LBA(t *testing.T) {
	cdb := BuildReadTOC(false)

	want := []byte{
		0x43,       // READ TOC/PMA/ATIP
		0x00,       // LBA addressing
		0x00,       // format 0: TOC
		0, 0, 0,    // reserved
		0x01,       // starting track
		0x03, 0x2C, // allocation length 812
		0x00, // control
	}
	assert.Equal(t, want, cdb)
}

func TestBuildReadTOC_MSF(t *testing.T) {
	cdb := BuildReadTOC(true)

	require.Len(t, cdb, 10)
	assert.Equal(t, byte(0x02), cdb[1], "MSF is bit 1 of byte 1")
	assert.Equal(t, byte(TOCFormatTOC), cdb[2]&0x0F)
}

func TestTOCAllocationLength(t *testing.T) {
	// 4-byte header + 100 track descriptors + lead-out, 8 bytes each
	assert.Equal(t, 812, TOCAllocationLength)
}

func TestBuildReadISRC(t *testing.T) {
	cdb := BuildReadISRC(7)

	want := []byte{
		0x42,       // READ SUB-CHANNEL
		0x00,       // no MSF
		0x40,       // SubQ
		0x03,       // ISRC
		0, 0,       // reserved
		0x07,       // track
		0x00, 0x18, // allocation length 24
		0x00, // control
	}
	assert.Equal(t, want, cdb)
}

func TestBuildReadMCN(t *testing.T) {
	cdb := BuildReadMCN()

	want := []byte{
		0x42,       // READ SUB-CHANNEL
		0x00,       // no MSF
		0x40,       // SubQ
		0x02,       // media catalog number
		0, 0,       // reserved
		0x00,       // track (unused)
		0x00, 0x18, // allocation length 24
		0x00, // control
	}
	assert.Equal(t, want, cdb)
}

func TestBuilders_NeverExceedCeiling(t *testing.T) {
	cdbs := [][]byte{
		BuildTestUnitReady(),
		BuildInquiry(),
		BuildReadTOC(false),
		BuildReadTOC(true),
		BuildReadMCN(),
	}
	for track := 0; track <= 255; track++ {
		cdbs = append(cdbs, BuildReadISRC(byte(track)))
	}

	for _, cdb := range cdbs {
		assert.LessOrEqual(t, len(cdb), MaxCDBLength)
	}
}

func TestParseInquiry(t *testing.T) {
	data := make([]byte, 36)
	data[0] = 0x05 // CD-ROM device type
	data[1] = 0x80 // removable

	copy(data[8:16], "HL-DT-ST")
	copy(data[16:32], "DVDRAM GP65NB60 ")
	copy(data[32:36], "1.00")

	info := ParseInquiry(data)

	if info.DeviceType != DeviceTypeMMC {
		t.Errorf("DeviceType = %d, want 5 (CD-ROM)", info.DeviceType)
	}
	if !info.Removable {
		t.Error("Removable = false, want true")
	}
	if info.Vendor != "HL-DT-ST" {
		t.Errorf("Vendor = %q, want %q", info.Vendor, "HL-DT-ST")
	}
	if info.Product != "DVDRAM GP65NB60" {
		t.Errorf("Product = %q, want %q", info.Product, "DVDRAM GP65NB60")
	}
	if info.Revision != "1.00" {
		t.Errorf("Revision = %q, want %q", info.Revision, "1.00")
	}
}

func TestParseInquiry_TooShort(t *testing.T) {
	info := ParseInquiry(make([]byte, 10))

	assert.Equal(t, InquiryData{}, info)
}
