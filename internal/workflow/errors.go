package workflow

import (
	"fmt"

	"intakeflow/internal/domain"
)

// TransitionDeniedError reports an illegal edge or a role mismatch. It
// always carries both the attempted edge and the acting role so callers
// can explain the refusal.
type TransitionDeniedError struct {
	From domain.Status
	To   domain.Status
	Role domain.Role
}

func (e TransitionDeniedError) Error() string {
	return fmt.Sprintf("transitie van %s naar %s niet toegestaan voor rol %s", e.From, e.To, e.Role)
}

// PermissionDeniedError reports a missing feedback capability.
type PermissionDeniedError struct {
	Capability string
	Role       domain.Role
}

func (e PermissionDeniedError) Error() string {
	return fmt.Sprintf("rol %s mist permissie %s", e.Role, e.Capability)
}

// MalformedImportError reports unparseable or structurally invalid
// import payloads. Nothing is stored when it occurs.
type MalformedImportError struct {
	Reason string
	Err    error
}

func (e MalformedImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ongeldig importbestand: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("ongeldig importbestand: %s", e.Reason)
}

func (e MalformedImportError) Unwrap() error { return e.Err }

// PersistenceError wraps a failed write-through. The in-memory state and
// the durable state may now diverge; callers must not assume the
// operation succeeded.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("opslag mislukt (%s): %v", e.Op, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }
