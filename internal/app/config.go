package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	SpecPath  string // hcl spec file or directory
	StubsPath string // prebuilt bootstrap stubs

	LogFormat   string
	LogLevel    string
	WorkerCount int

	// InspectPath and VerifyPath select the diagnostics modes that operate
	// on an already-built artifact instead of running the pipeline.
	InspectPath string
	VerifyPath  string
}

// NewConfig validates a Config value.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.SpecPath == "" && cfg.InspectPath == "" && cfg.VerifyPath == "" {
		return nil, errors.New("SpecPath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount < 1 {
		return nil, errors.New("WorkerCount must be at least 1")
	}
	return &cfg, nil
}
