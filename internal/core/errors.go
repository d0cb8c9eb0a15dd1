package core

import (
	"github.com/ZanzyTHEbar/errbuilder-go"

	"avular-packages/internal/types"
)

// errorMeta carries the Severity/Recoverable pair SPEC_FULL §4.9.2
// attaches to every error taxonomy member, alongside the errbuilder
// code that already selects the CLI exit code.
type errorMeta struct {
	Severity    types.Severity
	Recoverable bool
}

// WrapError builds an errbuilder error carrying both an error code
// (for exit-code mapping, per the teacher's exitCodeForError) and a
// severity/recoverability pair (for logging and retry decisions).
func WrapError(code errbuilder.ErrCode, severity types.Severity, recoverable bool, msg string, cause error) error {
	b := errbuilder.New().WithCode(code).WithMsg(msg)
	if cause != nil {
		b = b.WithCause(cause)
	}
	return metaError{ErrBuilder: b, meta: errorMeta{Severity: severity, Recoverable: recoverable}}
}

// metaError decorates an *errbuilder.ErrBuilder with the severity pair
// while still satisfying errors.As(err, &*errbuilder.ErrBuilder) for
// the teacher's own errorMessage/exitCodeForError helpers.
type metaError struct {
	*errbuilder.ErrBuilder
	meta errorMeta
}

func (e metaError) Unwrap() error { return e.ErrBuilder }

// SeverityOf extracts the Severity attached by WrapError, defaulting
// to SeverityMedium for errors built without it (e.g. bare errbuilder
// errors from the teacher's own surviving code paths).
func SeverityOf(err error) types.Severity {
	var me metaError
	if asMetaError(err, &me) {
		return me.meta.Severity
	}
	return types.SeverityMedium
}

// RecoverableOf extracts the Recoverable flag attached by WrapError,
// defaulting to false (fail closed) when absent.
func RecoverableOf(err error) bool {
	var me metaError
	if asMetaError(err, &me) {
		return me.meta.Recoverable
	}
	return false
}

func asMetaError(err error, target *metaError) bool {
	for err != nil {
		if me, ok := err.(metaError); ok {
			*target = me
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// ExitCode maps an error to the process exit code spec.md §6 defines:
// 0 success, 1 generic failure, 2 invalid usage, 3 unsatisfiable
// resolution, 4 I/O error, 130 cancelled. Extends the teacher's own
// exitCodeForError switch with the Unsatisfiable/Cancelled cases
// SPEC_FULL §4.9.2 calls for.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if IsCancelled(err) {
		return 130
	}
	code := errbuilder.CodeOf(err)
	switch code {
	case errbuilder.CodeInvalidArgument, errbuilder.CodeAlreadyExists:
		return 2
	case errbuilder.CodeFailedPrecondition:
		return 3
	case errbuilder.CodeNotFound, errbuilder.CodeInternal:
		return 4
	default:
		return 1
	}
}

// IsCancelled reports whether err originates from context cancellation
// (Ctrl-C during solve/build/cp, per SPEC_FULL §5).
func IsCancelled(err error) bool {
	for err != nil {
		if err.Error() == "context canceled" {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
