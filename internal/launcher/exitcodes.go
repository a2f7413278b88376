package launcher

// Exit codes of the generated launcher. Zero is reserved for a successful
// hand-off, after which the target application's own exit code passes
// through. Each bootstrap failure category gets a distinct code so external
// tooling can script around failures; the diagnostics verify mode reuses
// them.
const (
	ExitOK                  = 0
	ExitCorruptedArchive    = 3
	ExitMissingEntryModule  = 4
	ExitUnsupportedPlatform = 5
)
