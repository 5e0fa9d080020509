package inspection

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/crucial707/remote-inspect/internal/models"
)

var (
	// ErrNotFound is returned when a referenced inspection, object, or photo does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a concurrent write changed the inspection first.
	ErrConflict = errors.New("inspection was modified concurrently")
	// ErrInvalidStatus is returned for a status outside the known enum.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidTransition is returned when the transition table forbids a status change.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNotEditable is returned when content fields are updated after dispatch.
	ErrNotEditable = errors.New("inspection can only be edited before dispatch")
)

// NotFoundError names the missing entity. It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Entity string
	ID     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound returns a NotFoundError for entity id.
func NotFound(entity string, id int) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// TransitionError reports a forbidden status change. It matches ErrInvalidTransition.
type TransitionError struct {
	From models.Status
	To   models.Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change status from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// ValidationError carries every field-level problem found in one request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
