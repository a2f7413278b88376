package launcher

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/vk/onepack/internal/archive"
)

// TrailerMagic terminates every generated artifact; the stub reads the last
// TrailerSize bytes of its own file to locate the appended archive and the
// entry module it must transfer control to.
var TrailerMagic = [8]byte{'O', 'P', 'A', 'K', 'E', 'X', 'E', '1'}

// TrailerSize is the fixed byte length of the trailer:
// archive offset + archive length + entry identifier length + magic.
// The entry identifier itself is stored immediately before the trailer, so
// the stub resolves it with one fixed-size read from the tail plus one seek.
const TrailerSize = 8 + 8 + 8 + 8

// encodeTrailer serializes the artifact suffix: the entry module identifier
// followed by the fixed-size locator.
func encodeTrailer(archiveOffset, archiveLength uint64, entryID string) []byte {
	suffix := make([]byte, len(entryID)+TrailerSize)
	copy(suffix, entryID)

	trailer := suffix[len(entryID):]
	binary.LittleEndian.PutUint64(trailer[0:8], archiveOffset)
	binary.LittleEndian.PutUint64(trailer[8:16], archiveLength)
	binary.LittleEndian.PutUint64(trailer[16:24], uint64(len(entryID)))
	copy(trailer[24:32], TrailerMagic[:])
	return suffix
}

// OpenArtifact opens an already-built artifact and returns a reader over its
// embedded archive plus the entry module identifier recorded in the trailer.
// This is the introspection path for external diagnostics tooling; it never
// re-runs any pipeline stage.
func OpenArtifact(path string) (*archive.Reader, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read artifact %s: %w", path, err)
	}
	if len(data) < TrailerSize {
		return nil, "", &archive.CorruptError{Detail: "artifact shorter than trailer"}
	}

	trailer := data[len(data)-TrailerSize:]
	if [8]byte(trailer[24:32]) != TrailerMagic {
		return nil, "", &archive.CorruptError{Detail: "bad trailer magic"}
	}
	offset := binary.LittleEndian.Uint64(trailer[0:8])
	length := binary.LittleEndian.Uint64(trailer[8:16])
	entryLen := binary.LittleEndian.Uint64(trailer[16:24])

	end := uint64(len(data) - TrailerSize)
	if entryLen == 0 || entryLen > end {
		return nil, "", &archive.CorruptError{Detail: "entry identifier out of bounds"}
	}
	entryID := string(data[end-entryLen : end])

	end -= entryLen
	if offset > end || length > end-offset {
		return nil, "", &archive.CorruptError{Detail: "archive location out of bounds"}
	}
	reader, err := archive.OpenBlob(data[offset : offset+length])
	if err != nil {
		return nil, "", err
	}
	return reader, entryID, nil
}
