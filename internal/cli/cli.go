package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/vk/onepack/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// envDefaults are the environment-variable defaults for flags, applied
// before flag parsing so explicit flags always win.
type envDefaults struct {
	LogLevel  string `env:"ONEPACK_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"ONEPACK_LOG_FORMAT" envDefault:"text"`
	Workers   int    `env:"ONEPACK_WORKERS" envDefault:"8"`
	StubsPath string `env:"ONEPACK_STUBS_PATH" envDefault:"stubs"`
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	var defaults envDefaults
	if err := env.Parse(&defaults); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	flagSet := flag.NewFlagSet("onepack", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
onepack - A declarative single-executable bundler.

Usage:
  onepack [options] [SPEC_PATH]

Arguments:
  SPEC_PATH
    Path to a single .hcl spec file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	specFlag := flagSet.String("spec", "", "Path to the spec file or directory.")
	sFlag := flagSet.String("s", "", "Path to the spec file or directory (shorthand).")
	stubsPathFlag := flagSet.String("stubs-path", defaults.StubsPath, "Path to the directory containing bootstrap stubs.")
	logFormatFlag := flagSet.String("log-format", defaults.LogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", defaults.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", defaults.Workers, "Number of concurrent workers per pipeline stage.")
	inspectFlag := flagSet.String("inspect", "", "Dump the archive index of an already-built artifact and exit.")
	verifyFlag := flagSet.String("verify", "", "Verify the archive integrity of an already-built artifact and exit.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *specFlag != "" {
		path = *specFlag
	} else if *sFlag != "" {
		path = *sFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Spec path determined.", "path", path)

	if path == "" && *inspectFlag == "" && *verifyFlag == "" {
		slog.Debug("No spec path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		SpecPath:    path,
		StubsPath:   *stubsPathFlag,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
		WorkerCount: *workersFlag,
		InspectPath: *inspectFlag,
		VerifyPath:  *verifyFlag,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
