// Package app wires the pipeline together: it owns the application
// lifecycle, the isolated logger, the loaded spec model and the stub
// registry, and drives each bundle through the three stages in strict
// order — analyzer, builder, generator — with no stage reading back from a
// later one.
package app
