package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a resolution failure for reporting and propagation logic.
type ErrorKind string

const (
	// KindManifestStructure indicates the manifest is missing required
	// top-level fields or contains malformed declarations.
	KindManifestStructure ErrorKind = "manifest_structure"

	// KindUnknownEnvironment indicates the requested environment is not
	// declared in the manifest.
	KindUnknownEnvironment ErrorKind = "unknown_environment"

	// KindUnknownComponentType indicates a component type is not present
	// in the registry.
	KindUnknownComponentType ErrorKind = "unknown_component_type"

	// KindSchemaValidation indicates a resolved configuration failed its
	// component type's schema.
	KindSchemaValidation ErrorKind = "schema_validation"

	// KindCrossFieldInvariant indicates a conditional cross-field rule
	// failed after merging and defaulting.
	KindCrossFieldInvariant ErrorKind = "cross_field_invariant"

	// KindMissingDependency indicates an explicit dependency names a
	// component not present in the manifest.
	KindMissingDependency ErrorKind = "missing_dependency"

	// KindMissingBindingTarget indicates a binding's target names a
	// component not present in the manifest.
	KindMissingBindingTarget ErrorKind = "missing_binding_target"

	// KindCircularDependency indicates the dependency/binding graph
	// contains a cycle.
	KindCircularDependency ErrorKind = "circular_dependency"

	// KindCapabilityMismatch indicates a binding requests a capability the
	// producer does not expose, or an access level it does not allow.
	KindCapabilityMismatch ErrorKind = "capability_mismatch"

	// KindPolicyViolation indicates a manifest failed policy audit
	// (for example a patch without a justification).
	KindPolicyViolation ErrorKind = "policy_violation"

	// KindInternal indicates a bug in the resolver itself.
	KindInternal ErrorKind = "internal"
)

// ResolutionError is a classified resolution failure with context.
// Every failure produced by the resolver carries the offending component
// and, where applicable, the configuration field path.
type ResolutionError struct {
	// Kind is the failure classification.
	Kind ErrorKind `json:"kind"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Component is the manifest component name that caused the error, if applicable.
	Component string `json:"component,omitempty"`

	// Path is the configuration field path the error refers to (e.g. "compliance.objectLock.enabled").
	Path string `json:"path,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`

	// Details contains additional context-specific information.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", e.Kind, e.Message)
	if e.Component != "" && e.Path != "" {
		fmt.Fprintf(&sb, " (component=%s, path=%s)", e.Component, e.Path)
	} else if e.Component != "" {
		fmt.Fprintf(&sb, " (component=%s)", e.Component)
	} else if e.Path != "" {
		fmt.Fprintf(&sb, " (path=%s)", e.Path)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %s", e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying error for error chain inspection.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
// Two resolution errors match when their kinds match.
func (e *ResolutionError) Is(target error) bool {
	t, ok := target.(*ResolutionError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewError creates a new resolution error of the given kind.
func NewError(kind ErrorKind, message string) *ResolutionError {
	return &ResolutionError{
		Kind:    kind,
		Message: message,
	}
}

// Errorf creates a new resolution error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...interface{}) *ResolutionError {
	return &ResolutionError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithComponent adds component context to an error.
func (e *ResolutionError) WithComponent(name string) *ResolutionError {
	e.Component = name
	return e
}

// WithPath adds a configuration field path to an error.
func (e *ResolutionError) WithPath(path string) *ResolutionError {
	e.Path = path
	return e
}

// WithCause wraps an underlying error.
func (e *ResolutionError) WithCause(err error) *ResolutionError {
	e.Err = err
	return e
}

// WithDetail adds a detail field to the error context.
func (e *ResolutionError) WithDetail(key string, value interface{}) *ResolutionError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsKind reports whether err is a ResolutionError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *ResolutionError
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of a resolution error, or KindInternal for any
// other error value.
func KindOf(err error) ErrorKind {
	var e *ResolutionError
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ErrorList aggregates resolution errors collected across components so a
// run can report every failure in one pass instead of stopping at the first.
type ErrorList struct {
	errs []*ResolutionError
}

// Append adds errors to the list. Nil errors are ignored; plain errors are
// wrapped as internal resolution errors.
func (l *ErrorList) Append(errs ...error) {
	for _, err := range errs {
		if err == nil {
			continue
		}
		var re *ResolutionError
		if errors.As(err, &re) {
			l.errs = append(l.errs, re)
			continue
		}
		l.errs = append(l.errs, NewError(KindInternal, err.Error()).WithCause(err))
	}
}

// Empty reports whether no errors were collected.
func (l *ErrorList) Empty() bool {
	return len(l.errs) == 0
}

// Len returns the number of collected errors.
func (l *ErrorList) Len() int {
	return len(l.errs)
}

// Errors returns the collected errors in append order.
func (l *ErrorList) Errors() []*ResolutionError {
	return l.errs
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (l *ErrorList) Unwrap() []error {
	out := make([]error, len(l.errs))
	for i, e := range l.errs {
		out[i] = e
	}
	return out
}

// Err returns the list as a single error, or nil when empty.
func (l *ErrorList) Err() error {
	if len(l.errs) == 0 {
		return nil
	}
	return l
}

// Error implements the error interface by joining all messages.
func (l *ErrorList) Error() string {
	if len(l.errs) == 1 {
		return l.errs[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d resolution errors:", len(l.errs))
	for _, e := range l.errs {
		sb.WriteString("\n  - ")
		sb.WriteString(e.Error())
	}
	return sb.String()
}
