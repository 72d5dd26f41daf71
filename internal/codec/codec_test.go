package codec

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/waveacq/rtadp/internal/cmn"
)

func TestParseEnvelopeRoundTrip(t *testing.T) {
	payload := make([]byte, 4128-4)
	for i := range payload {
		payload[i] = byte(i)
	}
	raw := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(raw[:4], uint32(len(payload)))
	copy(raw[4:], payload)

	n, got, err := ParseEnvelope(raw)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.Equal(t, payload, got)
}

func TestParseEnvelopeShortPacket(t *testing.T) {
	_, _, err := ParseEnvelope([]byte{1, 2, 3})
	require.Error(t, err)
	require.Equal(t, cmn.KindShortPacket, cmn.KindOf(err))
}

func TestParseEnvelopeExactlyFourBytesIsShortPacket(t *testing.T) {
	// A message of size exactly 4 bytes is the size prefix with a
	// zero-length payload; spec §8 "Boundary behaviors" treats it as
	// ShortPacket since there is no payload to classify.
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, 0)
	_, _, err := ParseEnvelope(raw)
	require.Error(t, err)
	require.Equal(t, cmn.KindShortPacket, cmn.KindOf(err))
}

func TestParseEnvelopeInvalidSize(t *testing.T) {
	raw := make([]byte, 10)
	binary.LittleEndian.PutUint32(raw[:4], 999) // disagrees with the 6 remaining bytes
	_, _, err := ParseEnvelope(raw)
	require.Error(t, err)
	require.Equal(t, cmn.KindInvalidSize, cmn.KindOf(err))
}

func TestEncodeClassifyRoundTrip(t *testing.T) {
	for _, kind := range []Kind{KindDefaultA0, KindStartAcq, KindStopAcq} {
		for _, runID := range []uint16{0, 1, 42, 65535} {
			frame, err := EncodeControl(kind, runID, 7)
			require.NoError(t, err)

			classified, err := Classify(frame)
			require.NoError(t, err)
			require.Equal(t, kind, classified.Kind)

			hdr := ParseHeader(frame)
			require.Equal(t, byte(startByte), hdr.Start)
			require.Equal(t, runID, hdr.RunID)
			require.False(t, hdr.IsTelemetry())
		}
	}
}

func TestClassifyUnknownType(t *testing.T) {
	payload := make([]byte, headerSize+2)
	payload[0] = startByte
	payload[headerSize] = 0xFF
	payload[headerSize+1] = 0xFF
	classified, err := Classify(payload)
	require.NoError(t, err)
	require.Equal(t, KindUnknown, classified.Kind)
}

// CRC-32 reference vectors, computed by running crcTable and the
// left-shift update loop from packet.cpp's crc32() against the same
// inputs out-of-band (this is not the textbook reflected CRC-32/IEEE
// checksum, so no published check value applies here).
func TestCRC32Vectors(t *testing.T) {
	cases := []struct {
		in   string
		want uint32
	}{
		{"", 0xFFFFFFFF},
		{"123456789", 0xE52603B5},
		{"a", 0x70BE461C},
	}
	for _, c := range cases {
		got := CRC32([]byte(c.in))
		require.Equal(t, c.want, got, "CRC32(%q)", c.in)
	}
}

func TestCRC32Deterministic(t *testing.T) {
	data := []byte("waveform-packet-body")
	require.Equal(t, CRC32(data), CRC32(data))
}

func TestDecodeWaveformBodyUnpacksHighThenLow(t *testing.T) {
	body := make([]byte, waveformSubheaderSize+4)
	binary.LittleEndian.PutUint32(body[waveformSubheaderSize:], 0x00020001) // word: high=0x0002, low=0x0001

	// pad remaining words with zero so the word-count check passes
	full := make([]byte, waveformBodySize)
	copy(full, body)

	_, samples, err := DecodeWaveformBody(full)
	require.NoError(t, err)
	require.Equal(t, uint16(0x0002), samples[0])
	require.Equal(t, uint16(0x0001), samples[1])
	require.Len(t, samples, waveformWordCount*2)
}
