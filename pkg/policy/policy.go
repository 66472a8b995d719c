// Package policy decides whether a file needs (re)processing given its
// existing sidecar record and the run flags.
package policy

import "github.com/tomsv/metascan/pkg/types"

// Existing describes what a sidecar read produced for one file.
type Existing struct {
	// Found is true when a sidecar file exists, parseable or not.
	Found bool
	// Record is the parsed record, nil when absent or malformed.
	Record types.Record
}

// Valid reports whether the existing record counts as a completed scan.
// A malformed sidecar is present but never valid.
func (e Existing) Valid() bool {
	return e.Found && e.Record != nil && e.Record.Valid()
}

// ShouldProcess applies the eligibility table, first match wins:
//
//	Force                                  -> process
//	!OnlyNew                               -> process
//	no existing record                     -> process
//	existing invalid/failed, RetryFailed   -> process
//	existing valid                         -> skip
//	existing invalid/failed, !RetryFailed  -> skip
//
// What counts as invalid is delegated to the record's kind-specific
// Valid method.
func ShouldProcess(existing Existing, p types.RunPolicy) bool {
	if p.Force {
		return true
	}
	if !p.OnlyNew {
		return true
	}
	if !existing.Found {
		return true
	}
	if existing.Valid() {
		return false
	}
	return p.RetryFailed
}
