// Package cli parses command-line arguments and environment defaults into
// the application configuration. Flags win over environment variables; both
// are read exactly once before the pipeline starts.
package cli
