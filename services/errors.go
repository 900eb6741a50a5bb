package services

import "fmt"

// PreconditionNotMetError blocks a phase transition or launch and names the
// missing artifact so the caller can guide the user back to the right phase.
type PreconditionNotMetError struct {
	Phase   string
	Missing string
}

func (e *PreconditionNotMetError) Error() string {
	return fmt.Sprintf("phase %q precondition not met: missing %s", e.Phase, e.Missing)
}

// ValidationError reports a malformed input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NotFoundError reports an unknown record id
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// ConflictError reports a lost concurrent-update race. The caller may reload
// and retry.
type ConflictError struct {
	Resource string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("concurrent update conflict on %s", e.Resource)
}
