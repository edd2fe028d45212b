package scsi

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"ten byte", NewRequest("read toc", BuildReadTOC(false), TOCAllocationLength), nil},
		{"sixteen byte", NewRequest("x", make([]byte, 16), 0), nil},
		{"seventeen byte", NewRequest("x", make([]byte, 17), 0), ErrCommandTooLong},
		{"empty", NewRequest("x", nil, 0), ErrEmptyCommand},
		{"negative length", Request{Op: "x", CDB: []byte{0}, DataLen: -1}, ErrEmptyCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewRequest_Direction(t *testing.T) {
	assert.Equal(t, FromDevice, NewRequest("x", BuildReadMCN(), SubChannelMCNLength).Direction)
	assert.Equal(t, NoTransfer, NewRequest("x", BuildTestUnitReady(), 0).Direction)
}

func TestRequest_Timeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, Request{}.timeout())
	assert.Equal(t, time.Second, Request{Timeout: time.Second}.timeout())
}

func TestEnvelope_Layout(t *testing.T) {
	cdb := BuildReadISRC(3)
	env, err := newEnvelope(NewRequest("isrc", cdb, SubChannelISRCLength))
	require.NoError(t, err)

	assert.Len(t, env.buf, len(cdb)+SenseLength+SubChannelISRCLength)
	assert.Equal(t, cdb, env.cmd)
	assert.Len(t, env.sense, SenseLength)
	assert.Len(t, env.data, SubChannelISRCLength)

	// the three areas are adjacent views of one buffer
	env.buf[len(cdb)] = 0x70
	env.buf[len(cdb)+SenseLength] = 0xAB
	assert.Equal(t, byte(0x70), env.sense[0])
	assert.Equal(t, byte(0xAB), env.data[0])
}

func TestEnvelope_RejectsOversizedCommand(t *testing.T) {
	env, err := newEnvelope(NewRequest("huge", make([]byte, 20), 8))

	assert.Nil(t, env)
	assert.ErrorIs(t, err, ErrCommandTooLong)
}

func TestEnvelope_ResponseIsDetached(t *testing.T) {
	env, err := newEnvelope(NewRequest("mcn", BuildReadMCN(), 4))
	require.NoError(t, err)
	copy(env.data, []byte{1, 2, 3, 4})

	resp := env.response()
	env.data[0] = 9

	assert.Equal(t, []byte{1, 2, 3, 4}, resp.Data)
}

func TestInfo(t *testing.T) {
	assert.Equal(t, InfoOK, Info(0).Status())
	assert.Equal(t, InfoCheck, Info(1).Status())
	assert.Equal(t, IOModeIndirect, Info(1).IOMode())
	assert.Equal(t, IOModeDirect, Info(0x2).IOMode())
	assert.Equal(t, IOModeMixed, Info(0x5).IOMode())
	assert.Equal(t, "mixed", IOModeMixed.String())
}

func TestResponse_OK(t *testing.T) {
	assert.True(t, (&Response{}).OK())
	assert.False(t, (&Response{Info: Info(InfoCheck)}).OK())
	assert.False(t, (&Response{Status: 0x02}).OK())
	assert.False(t, (&Response{HostStatus: 0x07}).OK())
	assert.False(t, (&Response{DriverStatus: 0x08}).OK())
}

func TestResponse_Transferred(t *testing.T) {
	r := &Response{Data: []byte{1, 2, 3, 4}, Resid: 1}
	assert.Equal(t, []byte{1, 2, 3}, r.Transferred())

	r.Resid = 10
	assert.Empty(t, r.Transferred())

	r.Resid = -3
	assert.Equal(t, []byte{1, 2, 3, 4}, r.Transferred())
}

func TestResponse_CheckError(t *testing.T) {
	sense := make([]byte, 18)
	sense[0] = 0x70
	sense[2] = SenseIllegalRequest
	sense[12] = 0x24
	sense[13] = 0x00

	r := &Response{Status: 0x02, DriverStatus: 0x08, Info: Info(InfoCheck), Sense: sense}
	err := r.checkError()

	var se *SenseError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, byte(SenseIllegalRequest), se.Key)
	assert.Equal(t, byte(0x24), se.ASC)
	assert.Contains(t, se.Error(), "ILLEGAL REQUEST")
}

func TestParseSense(t *testing.T) {
	tests := []struct {
		name           string
		sense          []byte
		key, asc, ascq byte
	}{
		{"empty", nil, 0, 0, 0},
		{"fixed", []byte{0xF0, 0, 0x02, 0, 0, 0, 0, 10, 0, 0, 0, 0, 0x3A, 0x01}, SenseNotReady, 0x3A, 0x01},
		{"fixed short", []byte{0x70, 0, 0x06}, SenseUnitAttention, 0, 0},
		{"descriptor", []byte{0x72, 0x05, 0x24, 0x00}, SenseIllegalRequest, 0x24, 0x00},
		{"unknown format", []byte{0x00, 0x05, 0x24, 0x00}, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, asc, ascq := ParseSense(tt.sense)
			assert.Equal(t, tt.key, key, "key")
			assert.Equal(t, tt.asc, asc, "asc")
			assert.Equal(t, tt.ascq, ascq, "ascq")
		})
	}
}

func TestIOError(t *testing.T) {
	inner := &SenseError{Status: 0x02, Key: SenseMediumError}
	err := &IOError{Op: "retrieve table of contents", Device: "/dev/sr0", Err: inner}

	assert.Contains(t, err.Error(), "failed to retrieve table of contents on /dev/sr0")
	assert.Contains(t, err.Error(), "MEDIUM ERROR")

	var se *SenseError
	assert.True(t, errors.As(err, &se))
}
