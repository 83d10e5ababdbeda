// Package fskind defines the closed error taxonomy the core pipeline
// uses. Only ConfigError is ever surfaced to a caller; every other kind
// is logged at the component level and the triggering event is dropped —
// callers of query() never see a partial or errored stream.
package fskind

import "fmt"

// ConfigError means the root path was missing or not a directory at
// construction time. Fatal: surfaced to the caller, nothing is started.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: root %q: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// TransientFsError covers a file vanishing between notification and
// read, permission denial, or any other I/O failure mid-read. The
// triggering event is dropped; the component that hit it keeps running.
type TransientFsError struct {
	Path string
	Err  error
}

func (e *TransientFsError) Error() string {
	return fmt.Sprintf("transient fs error for %q: %v", e.Path, e.Err)
}

func (e *TransientFsError) Unwrap() error { return e.Err }

// EncodingError means a file's bytes were not valid UTF-8. Logged and
// dropped; never a fatal condition.
type EncodingError struct {
	Path string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("not valid UTF-8: %q", e.Path)
}

// WatchServiceFailure means the OS watch key could not be reset, or the
// watch service itself terminated. The component that hit it closes its
// output channel, propagating end-of-stream downstream.
type WatchServiceFailure struct {
	Err error
}

func (e *WatchServiceFailure) Error() string {
	return fmt.Sprintf("watch service failure: %v", e.Err)
}

func (e *WatchServiceFailure) Unwrap() error { return e.Err }

// InvariantViolation means the race-free read protocol observed
// mtime-after-read strictly less than mtime-before-read, which should be
// impossible on any reasonable filesystem. Asserted in debug builds;
// logged and the event dropped otherwise.
type InvariantViolation struct {
	Path    string
	Message string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violated for %q: %s", e.Path, e.Message)
}

// ObserverError is a domain-stack-only classification: a secondary index
// (pathindex, contentsearch) failed to absorb an update. It never
// affects IndexDb's state and is always logged and elided, same as
// TransientFsError.
type ObserverError struct {
	Observer string
	Path     string
	Err      error
}

func (e *ObserverError) Error() string {
	return fmt.Sprintf("observer %q failed for %q: %v", e.Observer, e.Path, e.Err)
}

func (e *ObserverError) Unwrap() error { return e.Err }
