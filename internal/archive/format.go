package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/vk/onepack/internal/manifest"
)

// Magic identifies the archive format, last in the footer so the whole blob
// can be validated from its tail. The trailing byte is the format version.
var Magic = [8]byte{'O', 'P', 'A', 'K', 'A', 'R', '0', '1'}

// FooterSize is the fixed byte length of the archive footer:
// index offset + index length + index checksum + magic.
const FooterSize = 8 + 8 + 8 + 8

// entryFlagCompressed marks a zstd-compressed payload.
const entryFlagCompressed = 0x01

// IndexEntry describes one stored payload. Offsets are relative to the start
// of the archive blob; Checksum is the xxhash64 of the uncompressed payload.
type IndexEntry struct {
	ID         string
	Kind       manifest.Kind
	Compressed bool
	Offset     uint64
	StoredLen  uint64
	RawLen     uint64
	Checksum   uint64
}

// Archive is the finished immutable blob plus its decoded index, handed from
// the builder to the launcher generator.
type Archive struct {
	Blob  []byte
	Index []IndexEntry
}

// CorruptError reports an integrity failure while decoding or verifying an
// archive. It carries only a category and, where safe, the offending
// identifier — never internal build paths.
type CorruptError struct {
	Detail string
	ID     string
}

// Error implements the error interface.
func (e *CorruptError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("corrupted archive: %s (entry %q)", e.Detail, e.ID)
	}
	return "corrupted archive: " + e.Detail
}

// encodeIndex serializes index entries, which must already be in identifier
// order; the on-disk order is the in-memory order.
func encodeIndex(entries []IndexEntry) ([]byte, error) {
	var buf bytes.Buffer
	var scratch [8]byte

	binary.LittleEndian.PutUint32(scratch[:4], uint32(len(entries)))
	buf.Write(scratch[:4])

	for _, e := range entries {
		if len(e.ID) > math.MaxUint16 {
			return nil, fmt.Errorf("identifier %q exceeds the index length limit", e.ID)
		}
		binary.LittleEndian.PutUint16(scratch[:2], uint16(len(e.ID)))
		buf.Write(scratch[:2])
		buf.WriteString(e.ID)

		flags := byte(0)
		if e.Compressed {
			flags |= entryFlagCompressed
		}
		buf.WriteByte(byte(e.Kind))
		buf.WriteByte(flags)

		for _, v := range []uint64{e.Offset, e.StoredLen, e.RawLen, e.Checksum} {
			binary.LittleEndian.PutUint64(scratch[:], v)
			buf.Write(scratch[:])
		}
	}
	return buf.Bytes(), nil
}

// decodeIndex parses an index section.
func decodeIndex(data []byte) ([]IndexEntry, error) {
	if len(data) < 4 {
		return nil, &CorruptError{Detail: "index section truncated"}
	}
	count := binary.LittleEndian.Uint32(data[:4])
	data = data[4:]

	entries := make([]IndexEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(data) < 2 {
			return nil, &CorruptError{Detail: "index entry truncated"}
		}
		idLen := int(binary.LittleEndian.Uint16(data[:2]))
		data = data[2:]
		if len(data) < idLen+2+32 {
			return nil, &CorruptError{Detail: "index entry truncated"}
		}
		id := string(data[:idLen])
		data = data[idLen:]

		kind := manifest.Kind(data[0])
		flags := data[1]
		data = data[2:]

		var fields [4]uint64
		for j := range fields {
			fields[j] = binary.LittleEndian.Uint64(data[:8])
			data = data[8:]
		}

		entries = append(entries, IndexEntry{
			ID:         id,
			Kind:       kind,
			Compressed: flags&entryFlagCompressed != 0,
			Offset:     fields[0],
			StoredLen:  fields[1],
			RawLen:     fields[2],
			Checksum:   fields[3],
		})
	}
	if len(data) != 0 {
		return nil, &CorruptError{Detail: "trailing bytes after index"}
	}
	return entries, nil
}

// encodeFooter serializes the fixed-size footer.
func encodeFooter(indexOffset, indexLength uint64, index []byte) []byte {
	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint64(footer[0:8], indexOffset)
	binary.LittleEndian.PutUint64(footer[8:16], indexLength)
	binary.LittleEndian.PutUint64(footer[16:24], xxhash.Sum64(index))
	copy(footer[24:32], Magic[:])
	return footer
}
