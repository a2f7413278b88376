// Package launcher emits the final executable artifact: a prebuilt native
// bootstrap stub for the target platform, the module archive appended after
// it, and a trailer recording the archive location and the entry module
// identifier so the stub (and external diagnostics tooling) can find both
// without parsing the stub.
//
// Stubs are shipped binaries, one per platform and presentation mode,
// discovered from the stubs directory at startup and registered before any
// bundle is generated. Presentation (windowed vs console) is baked into stub
// selection, not decided at run time.
//
// At run time the stub locates the archive via the trailer, verifies its
// integrity, resolves modules against the archive index instead of the
// filesystem, and transfers control to the entry module. Its exit-code
// contract lives here so build-side tooling and the stub agree on it.
package launcher
