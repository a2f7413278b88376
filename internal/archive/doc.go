// Package archive implements the embedded module store appended to every
// generated launcher.
//
// The format is a minimal read-only key-value store and is treated with
// storage-engine rigor: a data section of contiguous payloads, an index
// section mapping identifier → {offset, length, raw length, checksum,
// compression flag}, and a fixed-size footer locating and checksumming the
// index. The launcher resolves modules lazily at run time, so every entry is
// random-access; nothing requires scanning the whole blob.
//
// The index is laid out in identifier order and the format is stable across
// builds for a given toolchain version — external diagnostics tooling may
// introspect an already-built archive without re-running the pipeline.
// Archives are never mutated in place; a rebuild replaces the whole artifact.
package archive
