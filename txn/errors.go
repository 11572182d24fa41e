package txn

import "errors"

var (
	// ErrAlreadyNotarized is returned when signing or notarizing a notarized context.
	ErrAlreadyNotarized = errors.New("txn: transaction already notarized")
	// ErrNotNotarized is returned when a notarized payload is requested too early.
	ErrNotNotarized = errors.New("txn: transaction not notarized")
	// ErrEnvelopeMismatch marks an envelope whose recorded values do not match
	// the recompiled intent or whose signatures do not verify.
	ErrEnvelopeMismatch = errors.New("txn: envelope does not match recompiled intent")
	// ErrMissingCompiler is returned when a nil Compiler is passed.
	ErrMissingCompiler = errors.New("txn: missing compiler")
	// ErrMissingSigner is returned when a nil Signer is passed.
	ErrMissingSigner = errors.New("txn: missing signer")
)

// IsAlreadyNotarized reports whether err is ErrAlreadyNotarized.
func IsAlreadyNotarized(err error) bool { return errors.Is(err, ErrAlreadyNotarized) }
