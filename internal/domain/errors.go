package domain

import (
	"errors"
	"fmt"
)

// Workflow step sentinels. Orchestrators wrap the causing error with one of
// these so callers can branch on which step aborted the workflow while the
// underlying rejection tag stays reachable through errors.As.
var (
	// ErrNoSession is returned when an operation is invoked without an
	// authenticated session. Absence of a session means "no operations
	// available", it is not a remote fault.
	ErrNoSession = errors.New("no active session")

	// ErrApprovalFailed aborts a deposit in step 1 (token ledger approve).
	ErrApprovalFailed = errors.New("approval failed")

	// ErrDepositFailed aborts a deposit in step 2. The approval granted in
	// step 1 remains in place; callers may re-drive the deposit.
	ErrDepositFailed = errors.New("deposit failed")

	// ErrWithdrawFailed aborts a withdrawal.
	ErrWithdrawFailed = errors.New("withdraw failed")

	// ErrFaucetFailed aborts a faucet issuance.
	ErrFaucetFailed = errors.New("faucet issuance failed")
)

// TransportError reports that a remote call never produced a ledger-side
// answer: unreachable gateway, timeout, or a malformed response envelope.
type TransportError struct {
	Op  string // qualified call, e.g. "exchange.getOrders"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps a wire-level failure for the given operation.
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

// RemoteRejection is an explicit error variant returned by a ledger. Tag
// carries the ledger's variant name verbatim (e.g. "InsufficientBalance",
// "OrderIdNotFound") so the user-facing message can name the precise reason.
type RemoteRejection struct {
	Op  string
	Tag string
}

func (e *RemoteRejection) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Op, e.Tag)
}

// RegistryError reports a lookup miss against the local asset registry.
// Kind is "symbol" or "address". This is a local configuration/consistency
// fault, distinct from anything a remote ledger returned.
type RegistryError struct {
	Kind  string
	Value string
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("unknown asset %s %q", e.Kind, e.Value)
}

// ValidationError is raised locally, before any remote call is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
