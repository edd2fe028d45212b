package cdrom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const procInfo = `CD-ROM information, Id: cdrom.c 3.20 2003/12/17

drive name:		sr1	sr0
drive speed:		24	48
drive # of slots:	1	1
Can close tray:		1	1
`

func TestParseDriveList(t *testing.T) {
	tests := []struct {
		name    string
		info    string
		index   int
		want    string
		wantErr bool
	}{
		{"first after reversal", "drive name:\tsr1\tsr0", 0, "/dev/sr0", false},
		{"second", "drive name:\tsr1\tsr0", 1, "/dev/sr1", false},
		{"out of range", "drive name:\tsr1\tsr0", 2, "", true},
		{"negative", "drive name:\tsr1\tsr0", -1, "", true},
		{"proc file", procInfo, 0, "/dev/sr0", false},
		{"single drive", "drive name:\t\tsr0\n", 0, "/dev/sr0", false},
		{"no drives", "drive name:\n", 0, "", true},
		{"no drive line", "CD-ROM information\n", 0, "", true},
		{"empty", "", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDriveList(strings.NewReader(tt.info), tt.index)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoDevice)
				assert.Empty(t, got)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
