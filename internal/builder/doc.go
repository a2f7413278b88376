// Package builder turns a manifest into the archive embedded in the
// generated launcher.
//
// Payload reads are independently parallel across a worker pool, with every
// filesystem read bounded by the bundle's read timeout — a build fails
// rather than hangs. Assembly is strictly deterministic: entries enter the
// archive in identifier order after all per-entry work completes, so an
// unchanged filesystem and configuration always yield a byte-identical
// archive.
//
// A payload that vanishes or turns unreadable between the analyzer and the
// builder indicates an external mutation of the source tree racing the
// build; it is fatal and never retried.
package builder
