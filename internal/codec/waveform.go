package codec

import (
	"encoding/binary"

	"github.com/waveacq/rtadp/internal/cmn"
)

const (
	waveformSubheaderSize = 44
	waveformWordCount     = 1020
	waveformBodySize      = waveformSubheaderSize + waveformWordCount*4
)

// WaveformSubheader is the 44-byte acquisition sub-header preceding the
// packed sample words in a Waveform body (spec §6 "Waveform body").
// Field widths are grounded on
// original_source/c++/gs_examples_communication/.../ccsds/include/packet.h;
// only the fields the core observes are exposed.
type WaveformSubheader struct {
	SessionID   uint32
	ConfigID    uint32
	TimestampS  uint32
	TimestampUS uint32
	Decimation  uint32
	SampleOffset uint32
	SampleSize  uint16
}

// DecodeWaveformSubheader parses the fixed 44-byte sub-header at the
// front of a Waveform body.
func DecodeWaveformSubheader(body []byte) (WaveformSubheader, error) {
	if len(body) < waveformSubheaderSize {
		return WaveformSubheader{}, cmn.NewError(cmn.KindShortPacket, "waveform body shorter than sub-header")
	}
	return WaveformSubheader{
		SessionID:    binary.LittleEndian.Uint32(body[0:4]),
		ConfigID:     binary.LittleEndian.Uint32(body[4:8]),
		TimestampS:   binary.LittleEndian.Uint32(body[8:12]),
		TimestampUS:  binary.LittleEndian.Uint32(body[12:16]),
		Decimation:   binary.LittleEndian.Uint32(body[16:20]),
		SampleOffset: binary.LittleEndian.Uint32(body[20:24]),
		SampleSize:   binary.LittleEndian.Uint16(body[24:26]),
	}, nil
}

// DecodeWaveformBody unpacks the 1020 32-bit words following the
// sub-header into 2040 16-bit samples: each word contributes its high
// half first, then its low half (spec §6 "Waveform body").
func DecodeWaveformBody(body []byte) (WaveformSubheader, []uint16, error) {
	sh, err := DecodeWaveformSubheader(body)
	if err != nil {
		return WaveformSubheader{}, nil, err
	}
	words := body[waveformSubheaderSize:]
	if len(words) < waveformWordCount*4 {
		return WaveformSubheader{}, nil, cmn.NewError(cmn.KindShortPacket, "waveform body shorter than expected word count")
	}
	samples := make([]uint16, 0, waveformWordCount*2)
	for i := 0; i < waveformWordCount; i++ {
		w := binary.LittleEndian.Uint32(words[i*4 : i*4+4])
		samples = append(samples, uint16(w>>16), uint16(w&0xFFFF))
	}
	return sh, samples, nil
}
