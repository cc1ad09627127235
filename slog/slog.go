// Package slog provides logging decorators for intel interfaces.
// Each decorator logs one line per call with its duration and error.
package slog
