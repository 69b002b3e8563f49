package launch

import "errors"

// Guard errors returned directly by Deploy without touching saga state.
var (
	// ErrDeploymentInProgress rejects a second Deploy while an attempt is
	// in a non-terminal stage.
	ErrDeploymentInProgress = errors.New("deployment already in progress")

	// ErrAlreadyCompleted rejects Deploy after a completed attempt; the
	// caller must Reset first to issue another token.
	ErrAlreadyCompleted = errors.New("deployment already completed, reset required")

	// ErrAttemptAbandoned ends an attempt that Reset superseded before
	// its transaction was submitted. Nothing reached the chain and no
	// further record writes were made.
	ErrAttemptAbandoned = errors.New("deployment attempt abandoned by reset")
)

// Kind classifies where in the saga a failure occurred.
type Kind string

const (
	// KindValidation covers drafts that fail the defensive re-check at
	// the start of the saga. Normally the wizard's gate catches these
	// before Deploy is ever called.
	KindValidation Kind = "validation"

	// KindPersistence covers record store failures before anything was
	// submitted on chain.
	KindPersistence Kind = "persistence"

	// KindWallet covers signer acquisition failures.
	KindWallet Kind = "wallet"

	// KindDeployment covers chain submission failures, reverts and
	// confirmation timeouts.
	KindDeployment Kind = "deployment"

	// KindReconciliation marks the one divergent case: the chain
	// deployment confirmed but the final record patch failed. The
	// record keeps its tx hash and a null contract address so the
	// reconciler can repair it out of band.
	KindReconciliation Kind = "reconciliation"
)

// Error is the kinded failure captured into the failed stage. It is what
// Deploy returns in place of an exception; callers always receive a
// structured value.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from an error chain, or "" when the
// error did not originate in the saga.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}
