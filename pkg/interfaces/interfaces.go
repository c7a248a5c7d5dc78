// Package interfaces defines the small interfaces shared between packages.
package interfaces

// RateLimiter limits how often a repeated diagnostic is emitted.
type RateLimiter interface {
	Allow() bool
	Reset()
}

// ExitCoder is implemented by sources that run a child process and can
// report its exit status once it has finished.
type ExitCoder interface {
	ExitCode() int
}
