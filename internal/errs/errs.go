// Package errs holds the sentinel errors for the repair taxonomy
// (spec §7): InvalidArgument, NotImplemented, SourceReadFailure,
// InsufficientSources, CorruptInput, Cancelled. Call sites wrap these
// with block-group/repair identity via github.com/pkg/errors so
// errors.Cause still recovers the taxonomy class.
package errs

import "github.com/pkg/errors"

var (
	ErrInvalidArgument    = errors.New("trace-repair: invalid argument")
	ErrNotImplemented     = errors.New("trace-repair: not implemented")
	ErrSourceReadFailure  = errors.New("trace-repair: source read failure")
	ErrInsufficientSources = errors.New("trace-repair: insufficient sources")
	ErrCorruptInput       = errors.New("trace-repair: corrupt input")
	ErrCancelled          = errors.New("trace-repair: repair cancelled")
)
