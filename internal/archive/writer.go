package archive

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/vk/onepack/internal/manifest"
)

// alreadyCompressedExts lists data-resource extensions whose payloads gain
// nothing from recompression.
var alreadyCompressedExts = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".webp": {},
	".zip": {}, ".gz": {}, ".bz2": {}, ".xz": {}, ".zst": {},
	".ogg": {}, ".mp3": {}, ".mp4": {}, ".woff": {}, ".woff2": {},
}

// dedupKey identifies byte-identical payloads for the optional content
// deduplication. Checksum plus length keeps accidental collisions out of
// correctness-relevant territory; a full byte compare confirms the match.
type dedupKey struct {
	checksum uint64
	rawLen   uint64
}

// region records where a payload landed in the data section.
type region struct {
	offset     uint64
	storedLen  uint64
	compressed bool
	raw        []byte
}

// Writer assembles an archive. Entries must be added in identifier order;
// the builder guarantees this by sorting the manifest before assembly.
type Writer struct {
	buf     bytes.Buffer
	entries []IndexEntry
	seen    map[string]struct{}
	dedup   map[dedupKey]region
	enc     *zstd.Encoder
}

// NewWriter creates an empty archive writer.
func NewWriter() *Writer {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		// The default encoder options are static; failure here is a bug.
		panic(fmt.Errorf("zstd encoder init: %w", err))
	}
	return &Writer{
		seen:  make(map[string]struct{}),
		dedup: make(map[dedupKey]region),
		enc:   enc,
	}
}

// Add appends one archive entry for the given module reference. The payload
// is checksummed before compression so the launcher can verify integrity
// against the decompressed bytes. Byte-identical payloads share a single
// data region; the index still exposes every identifier.
func (w *Writer) Add(ref manifest.Ref, payload []byte) error {
	if len(w.entries) > 0 && w.entries[len(w.entries)-1].ID >= ref.ID {
		return fmt.Errorf("entry %q added out of identifier order", ref.ID)
	}
	if _, dup := w.seen[ref.ID]; dup {
		return fmt.Errorf("duplicate entry %q", ref.ID)
	}
	w.seen[ref.ID] = struct{}{}

	checksum := xxhash.Sum64(payload)
	key := dedupKey{checksum: checksum, rawLen: uint64(len(payload))}
	reg, shared := w.dedup[key]
	if shared && !bytes.Equal(reg.raw, payload) {
		shared = false
	}

	if !shared {
		stored := payload
		compressed := false
		if w.shouldCompress(ref) {
			if c := w.enc.EncodeAll(payload, nil); len(c) < len(payload) {
				stored = c
				compressed = true
			}
		}
		reg = region{
			offset:     uint64(w.buf.Len()),
			storedLen:  uint64(len(stored)),
			compressed: compressed,
			raw:        payload,
		}
		w.buf.Write(stored)
		w.dedup[key] = reg
	}

	w.entries = append(w.entries, IndexEntry{
		ID:         ref.ID,
		Kind:       ref.Kind,
		Compressed: reg.compressed,
		Offset:     reg.offset,
		StoredLen:  reg.storedLen,
		RawLen:     uint64(len(payload)),
		Checksum:   checksum,
	})
	return nil
}

// shouldCompress applies the compression policy: source payloads compress,
// native payloads stay raw for alignment, data resources compress unless
// their format already is.
func (w *Writer) shouldCompress(ref manifest.Ref) bool {
	switch ref.Kind {
	case manifest.KindSource:
		return true
	case manifest.KindNative:
		return false
	case manifest.KindData:
		ext := strings.ToLower(filepath.Ext(ref.Path))
		_, already := alreadyCompressedExts[ext]
		return !already
	}
	return false
}

// Close finalizes the archive: the index and footer are appended after the
// data section and the completed immutable blob is returned.
func (w *Writer) Close() (*Archive, error) {
	index, err := encodeIndex(w.entries)
	if err != nil {
		return nil, err
	}

	indexOffset := uint64(w.buf.Len())
	w.buf.Write(index)
	w.buf.Write(encodeFooter(indexOffset, uint64(len(index)), index))

	return &Archive{
		Blob:  w.buf.Bytes(),
		Index: append([]IndexEntry(nil), w.entries...),
	}, nil
}
