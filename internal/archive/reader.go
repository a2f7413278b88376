package archive

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
)

// ErrNotFound reports a lookup of an identifier absent from the index.
type ErrNotFound struct {
	ID string
}

// Error implements the error interface.
func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("entry %q not found in archive", e.ID)
}

// Reader provides random access to the entries of a finished archive blob.
// It holds an in-memory index keyed by identifier; payloads are decoded and
// integrity-checked on demand, mirroring the launcher's lazy resolution.
type Reader struct {
	blob  []byte
	index []IndexEntry
	byID  map[string]int
	dec   *zstd.Decoder
}

// OpenBlob decodes the footer and index of an archive blob. The index
// checksum is verified up front; entry payloads are verified lazily on read.
func OpenBlob(blob []byte) (*Reader, error) {
	if len(blob) < FooterSize {
		return nil, &CorruptError{Detail: "blob shorter than footer"}
	}
	footer := blob[len(blob)-FooterSize:]
	if [8]byte(footer[24:32]) != Magic {
		return nil, &CorruptError{Detail: "bad format magic"}
	}

	indexOffset := binary.LittleEndian.Uint64(footer[0:8])
	indexLength := binary.LittleEndian.Uint64(footer[8:16])
	indexChecksum := binary.LittleEndian.Uint64(footer[16:24])

	end := uint64(len(blob) - FooterSize)
	if indexOffset > end || indexLength > end-indexOffset {
		return nil, &CorruptError{Detail: "index section out of bounds"}
	}
	indexBytes := blob[indexOffset : indexOffset+indexLength]
	if xxhash.Sum64(indexBytes) != indexChecksum {
		return nil, &CorruptError{Detail: "index checksum mismatch"}
	}

	index, err := decodeIndex(indexBytes)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]int, len(index))
	for i, e := range index {
		if e.Offset > indexOffset || e.StoredLen > indexOffset-e.Offset {
			return nil, &CorruptError{Detail: "entry out of bounds", ID: e.ID}
		}
		if _, dup := byID[e.ID]; dup {
			return nil, &CorruptError{Detail: "duplicate identifier in index", ID: e.ID}
		}
		byID[e.ID] = i
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Errorf("zstd decoder init: %w", err))
	}

	return &Reader{blob: blob, index: index, byID: byID, dec: dec}, nil
}

// Index returns the decoded index entries in stored (identifier) order.
func (r *Reader) Index() []IndexEntry {
	return append([]IndexEntry(nil), r.index...)
}

// Len returns the number of index entries.
func (r *Reader) Len() int {
	return len(r.index)
}

// Contains reports whether the identifier is present.
func (r *Reader) Contains(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Entry returns the index entry for an identifier.
func (r *Reader) Entry(id string) (IndexEntry, error) {
	i, ok := r.byID[id]
	if !ok {
		return IndexEntry{}, &ErrNotFound{ID: id}
	}
	return r.index[i], nil
}

// Read returns the uncompressed payload for an identifier, verifying its
// checksum. A mismatch surfaces as a CorruptError; a corrupted entry must
// never be handed to the caller.
func (r *Reader) Read(id string) ([]byte, error) {
	entry, err := r.Entry(id)
	if err != nil {
		return nil, err
	}

	stored := r.blob[entry.Offset : entry.Offset+entry.StoredLen]
	payload := stored
	if entry.Compressed {
		payload, err = r.dec.DecodeAll(stored, nil)
		if err != nil {
			return nil, &CorruptError{Detail: "payload decompression failed", ID: id}
		}
	}
	if uint64(len(payload)) != entry.RawLen {
		return nil, &CorruptError{Detail: "payload length mismatch", ID: id}
	}
	if xxhash.Sum64(payload) != entry.Checksum {
		return nil, &CorruptError{Detail: "payload checksum mismatch", ID: id}
	}
	return payload, nil
}

// Verify reads every entry, checking all stored checksums. It is the
// build-time equivalent of the launcher's startup integrity pass.
func (r *Reader) Verify() error {
	for _, e := range r.index {
		if _, err := r.Read(e.ID); err != nil {
			return err
		}
	}
	return nil
}
