// Package codec implements the wire envelope described in spec §4.2 and
// §6: the 4-byte length prefix, the 12-byte fixed header, packet
// classification, CRC-32, and the control-frame encoder. All functions
// here are pure and allocate only the slices they return.
package codec

import (
	"encoding/binary"

	"github.com/waveacq/rtadp/internal/cmn"
)

const (
	headerSize = 12
	startByte  = 0x8D

	classBit = 0x80 // APID bit: 0 = TC (telecommand), 1 = TM (telemetry)

	groupStandAlone = 0x3 << 14 // SEQUENCE.group field, "stand-alone" packet
)

// Kind enumerates the body types the core recognises (spec §6).
type Kind int

const (
	KindUnknown Kind = iota
	KindWaveform
	KindWaveformHeader
	KindHousekeeping
	KindStartAcq
	KindStopAcq
	KindDefaultA0
)

// typeSubtype identifies a body kind by its (type, subtype) byte pair.
type typeSubtype struct{ typ, sub byte }

var kindByTypeSubtype = map[typeSubtype]Kind{
	{0xA1, 0x02}: KindWaveform,
	{0xA1, 0x01}: KindWaveformHeader,
	{0x03, 0x01}: KindHousekeeping,
	{0xA0, 0x04}: KindStartAcq,
	{0xA0, 0x05}: KindStopAcq,
	{0xA0, 0x99}: KindDefaultA0,
}

var typeSubtypeByKind = map[Kind]typeSubtype{
	KindWaveform:       {0xA1, 0x02},
	KindWaveformHeader: {0xA1, 0x01},
	KindHousekeeping:   {0x03, 0x01},
	KindStartAcq:       {0xA0, 0x04},
	KindStopAcq:        {0xA0, 0x05},
	KindDefaultA0:      {0xA0, 0x99},
}

// Header is the 12-byte fixed envelope header (spec §6).
type Header struct {
	Start    byte
	APID     byte
	Sequence uint16
	RunID    uint16
	DataSize uint16
	CRC      uint32
}

// IsTelemetry reports whether the header's class bit marks a TM frame
// (as opposed to a TC/telecommand frame).
func (h Header) IsTelemetry() bool { return h.APID&classBit != 0 }

// ParseEnvelope strips the 4-byte little-endian length prefix from raw,
// returning the declared size and the payload slice. It fails with
// KindShortPacket if raw is 4 bytes or fewer (no payload after the size
// prefix), or KindInvalidSize if the declared size doesn't match the
// remaining byte count.
func ParseEnvelope(raw []byte) (size int, payload []byte, err error) {
	if len(raw) <= 4 {
		return 0, nil, cmn.NewError(cmn.KindShortPacket, "envelope has no payload after 4-byte size prefix")
	}
	n := int(binary.LittleEndian.Uint32(raw[:4]))
	rest := raw[4:]
	if n <= 0 || n != len(rest) {
		return 0, nil, cmn.NewError(cmn.KindInvalidSize, "declared size does not match payload length")
	}
	return n, rest, nil
}

// ParseHeader reads the fixed 12-byte header from the front of payload.
// Callers must ensure len(payload) >= 12 before calling.
func ParseHeader(payload []byte) Header {
	return Header{
		Start:    payload[0],
		APID:     payload[1],
		Sequence: binary.LittleEndian.Uint16(payload[2:4]),
		RunID:    binary.LittleEndian.Uint16(payload[4:6]),
		DataSize: binary.LittleEndian.Uint16(payload[6:8]),
		CRC:      binary.LittleEndian.Uint32(payload[8:12]),
	}
}

// Classified is the result of Classify: the recognised Kind (or
// KindUnknown), plus the raw type/subtype byte pair for logging.
type Classified struct {
	Kind    Kind
	Type    byte
	Subtype byte
}

// Classify reads the type/subtype byte pair immediately following the
// 12-byte header within payload and maps it to a Kind. Non-matching
// pairs classify as KindUnknown (caller logs and drops, per spec §4.6).
func Classify(payload []byte) (Classified, error) {
	if len(payload) < headerSize+2 {
		return Classified{}, cmn.NewError(cmn.KindShortPacket, "payload too short to contain type/subtype")
	}
	t, s := payload[headerSize], payload[headerSize+1]
	k := kindByTypeSubtype[typeSubtype{t, s}]
	return Classified{Kind: k, Type: t, Subtype: s}, nil
}

// EncodeControl builds a header-plus-type-subtype control frame for
// kind, with the telecommand class bit set, a stand-alone sequence tag,
// the given runID, and a CRC-32 computed over the body — matching
// encode_control in spec §4.2. counter is folded into the low 14 bits of
// the sequence field. The returned bytes are in "payload" form (no
// 4-byte length prefix): Classify(EncodeControl(...)) round-trips
// directly, and callers that put this on the wire (e.g. CtrlClient) are
// responsible for whatever framing their transport requires.
func EncodeControl(kind Kind, runID uint16, counter uint16) ([]byte, error) {
	ts, ok := typeSubtypeByKind[kind]
	if !ok {
		return nil, cmn.NewError(cmn.KindUnknownPacketType, "unsupported control kind")
	}
	buf := make([]byte, headerSize+2)
	buf[0] = startByte
	buf[1] = 0 // class bit unset: telecommand
	binary.LittleEndian.PutUint16(buf[2:4], uint16(groupStandAlone)|(counter&0x3FFF))
	binary.LittleEndian.PutUint16(buf[4:6], runID)
	binary.LittleEndian.PutUint16(buf[6:8], 2) // data_size: the trailing type/subtype pair
	// CRC covers the body (the bytes after the header, i.e. type/subtype
	// here), so those bytes are written first and the CRC over them goes
	// into bytes [8:12].
	buf[headerSize] = ts.typ
	buf[headerSize+1] = ts.sub
	crc := CRC32(buf[headerSize:])
	binary.LittleEndian.PutUint32(buf[8:12], crc)
	return buf, nil
}
