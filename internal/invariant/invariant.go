// Package invariant wraps ZanzyTHEbar/assert-lib with the single call
// shape the loader needs: assert a condition that should be impossible
// on any reasonable filesystem, without hand-rolling a
// build-tag-gated panic at every call site.
package invariant

import (
	"context"

	assert "github.com/ZanzyTHEbar/assert-lib"
)

// Handler asserts invariants that must hold true regardless of caller;
// a failed assertion panics in a debug build and is a no-op (the caller
// is expected to log and drop the event itself) otherwise.
type Handler struct {
	h *assert.AssertHandler
}

// New returns a Handler backed by a fresh assert.AssertHandler.
func New() *Handler {
	return &Handler{h: assert.NewAssertHandler()}
}

// Require asserts that cond holds, given a human-readable description of
// what was violated.
func (h *Handler) Require(cond bool, msg string) {
	h.h.Assert(context.Background(), cond, msg)
}
