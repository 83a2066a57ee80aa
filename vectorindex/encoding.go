package vectorindex

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/LLabsTech/EstateSearchAI/core"
)

// Entry wire layout, all values little-endian:
//
//	u16 idLen, id bytes
//	u16 townLen, town bytes
//	u16 summaryLen, summary bytes
//	f64 price
//	u8  property type
//	u32 vecLen, vecLen * f32
//
// The encoding is shared by the snapshot file of the memory backend and the
// per-key values of the badger backend.

// maxFieldLen is the largest string a u16 length prefix can carry.
const maxFieldLen = math.MaxUint16

// MarshalEntry encodes an entry to bytes. Fields longer than the u16 length
// prefix allows are rejected rather than silently truncated.
func MarshalEntry(e *Entry) ([]byte, error) {
	if len(e.ID) > maxFieldLen {
		return nil, fmt.Errorf("%w: identifier is %d bytes", ErrEntryTooLarge, len(e.ID))
	}
	if len(e.Meta.Town) > maxFieldLen {
		return nil, fmt.Errorf("%w: town is %d bytes", ErrEntryTooLarge, len(e.Meta.Town))
	}
	if len(e.Meta.Summary) > maxFieldLen {
		return nil, fmt.Errorf("%w: summary is %d bytes", ErrEntryTooLarge, len(e.Meta.Summary))
	}

	size := 2 + len(e.ID) + 2 + len(e.Meta.Town) + 2 + len(e.Meta.Summary) +
		8 + 1 + 4 + 4*len(e.Vector)
	buf := make([]byte, 0, size)

	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(e.ID)))
	buf = append(buf, e.ID...)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(e.Meta.Town)))
	buf = append(buf, e.Meta.Town...)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(e.Meta.Summary)))
	buf = append(buf, e.Meta.Summary...)
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(e.Meta.Price))
	buf = append(buf, byte(e.Meta.Type))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(e.Vector)))
	for _, v := range e.Vector {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}

	return buf, nil
}

// UnmarshalEntry decodes an entry and returns it together with the number of
// bytes consumed, so snapshot readers can decode entries back to back.
func UnmarshalEntry(data []byte) (*Entry, int, error) {
	off := 0

	id, n, err := readString16(data[off:])
	if err != nil {
		return nil, 0, fmt.Errorf("%w: identifier", ErrTruncatedEntry)
	}
	off += n

	town, n, err := readString16(data[off:])
	if err != nil {
		return nil, 0, fmt.Errorf("%w: town", ErrTruncatedEntry)
	}
	off += n

	summary, n, err := readString16(data[off:])
	if err != nil {
		return nil, 0, fmt.Errorf("%w: summary", ErrTruncatedEntry)
	}
	off += n

	if len(data[off:]) < 8+1+4 {
		return nil, 0, fmt.Errorf("%w: metadata", ErrTruncatedEntry)
	}
	price := math.Float64frombits(binary.LittleEndian.Uint64(data[off:]))
	off += 8
	ptype := core.PropertyType(data[off])
	off++

	vecLen := int(binary.LittleEndian.Uint32(data[off:]))
	off += 4
	if len(data[off:]) < 4*vecLen {
		return nil, 0, fmt.Errorf("%w: vector", ErrTruncatedEntry)
	}
	vector := make([]float32, vecLen)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
		off += 4
	}

	return &Entry{
		ID:     id,
		Vector: vector,
		Meta: Metadata{
			Town:    town,
			Price:   price,
			Type:    ptype,
			Summary: summary,
		},
	}, off, nil
}

func readString16(data []byte) (string, int, error) {
	if len(data) < 2 {
		return "", 0, ErrTruncatedEntry
	}
	n := int(binary.LittleEndian.Uint16(data))
	if len(data) < 2+n {
		return "", 0, ErrTruncatedEntry
	}
	return string(data[2 : 2+n]), 2 + n, nil
}
