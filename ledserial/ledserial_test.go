package ledserial

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetPacketFraming(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteIncomingPacket(&buf, SetPacket{Pix: []uint8{0, 0, 255}}))

	// type + 3 pixel bytes + crc32
	assert.Equal(t, 1+3+4, buf.Len())
	assert.Equal(t, byte(TypeSetPacket), buf.Bytes()[0])

	p, err := ReadIncomingPacket(&buf, ReadContext{NumLEDs: 1})
	require.NoError(t, err)
	assert.Equal(t, SetPacket{Pix: []uint8{0, 0, 255}}, p)
	assert.Zero(t, buf.Len())
}

func TestPacketStream(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutgoingPacket(&buf, LogPacket{Message: "feeding watchdog"}))
	require.NoError(t, WriteOutgoingPacket(&buf, AckPacket{IncomingPacketType: TypeSetPacket}))
	require.NoError(t, WriteOutgoingPacket(&buf, PanicPacket{}))

	var got []OutgoingPacket
	for buf.Len() > 0 {
		p, err := ReadOutgoingPacket(&buf)
		require.NoError(t, err)
		got = append(got, p)
	}

	assert.Equal(t, []OutgoingPacket{
		LogPacket{Message: "feeding watchdog"},
		AckPacket{IncomingPacketType: TypeSetPacket},
		PanicPacket{},
	}, got)
}

func TestChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteIncomingPacket(&buf, InitializePacket{NumLEDs: 4}))

	b := buf.Bytes()
	b[1] ^= 0xFF

	_, err := ReadIncomingPacket(bytes.NewReader(b), ReadContext{})
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestUnknownPacketType(t *testing.T) {
	_, err := ReadOutgoingPacket(bytes.NewReader([]byte{0xEE}))
	assert.ErrorContains(t, err, "OutgoingPacketType(238)")
}
