package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseGenerate Phase = "generate" // source rewriting and glue emission
	PhaseProbe    Phase = "probe"    // layout probe and registration
	PhaseRuntime  Phase = "runtime"  // thin reference and box operations
	PhaseConfig   Phase = "config"   // generator configuration
)

// Kind categorizes the error
type Kind string

const (
	KindNotInterface        Kind = "not_interface"
	KindNotStruct           Kind = "not_struct"
	KindNotImplemented      Kind = "not_implemented"
	KindMissingSlot         Kind = "missing_slot"
	KindDuplicateSlot       Kind = "duplicate_slot"
	KindOffsetMismatch      Kind = "offset_mismatch"
	KindGenericType         Kind = "generic_type"
	KindInvalidCapability   Kind = "invalid_capability"
	KindDuplicateCapability Kind = "duplicate_capability"
	KindNotInitialized      Kind = "not_initialized"
	KindNilPointer          Kind = "nil_pointer"
	KindNotFound            Kind = "not_found"
	KindInvalidInput        Kind = "invalid_input"
	KindUnsupported         Kind = "unsupported"
	KindNameConflict        Kind = "name_conflict"
	KindIO                  Kind = "io"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value      any
	Cause      error
	Phase      Phase
	Kind       Kind
	Type       string
	Capability string
	Pos        string
	Detail     string
	Path       []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Pos != "" {
		b.WriteString(e.Pos)
		b.WriteString(": ")
	}

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Type != "" || e.Capability != "" {
		b.WriteString(": ")
		if e.Type != "" && e.Capability != "" {
			b.WriteString("type ")
			b.WriteString(e.Type)
			b.WriteString(", capability ")
			b.WriteString(e.Capability)
		} else if e.Type != "" {
			b.WriteString("type ")
			b.WriteString(e.Type)
		} else {
			b.WriteString("capability ")
			b.WriteString(e.Capability)
		}
	}

	if e.Detail != "" {
		if e.Type != "" || e.Capability != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Type sets the concrete Go type name
func (b *Builder) Type(t string) *Builder {
	b.err.Type = t
	return b
}

// Capability sets the capability (interface) name
func (b *Builder) Capability(c string) *Builder {
	b.err.Capability = c
	return b
}

// Pos sets the source position
func (b *Builder) Pos(pos string) *Builder {
	b.err.Pos = pos
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// NotInterface creates an error for a capability argument that is not an interface
func NotInterface(phase Phase, capability string) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindNotInterface,
		Capability: capability,
		Detail:     "capability must be an interface type",
	}
}

// NotStruct creates an error for a concrete type that cannot carry slots
func NotStruct(phase Phase, typeName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotStruct,
		Type:   typeName,
		Detail: "only struct types can embed capabilities",
	}
}

// NotImplemented creates an error for a type missing the capability's methods
func NotImplemented(phase Phase, typeName, capability string) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindNotImplemented,
		Type:       typeName,
		Capability: capability,
		Detail:     "type does not implement capability",
	}
}

// MissingSlot creates an error for a type with no slot for the capability
func MissingSlot(phase Phase, typeName, capability string) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindMissingSlot,
		Type:       typeName,
		Capability: capability,
		Detail:     "no slot field for capability",
	}
}

// DuplicateSlot creates an error for a type carrying more than one slot per capability
func DuplicateSlot(phase Phase, typeName, capability string, fields ...string) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindDuplicateSlot,
		Type:       typeName,
		Capability: capability,
		Detail:     fmt.Sprintf("capability embedded more than once (fields %s)", strings.Join(fields, ", ")),
	}
}

// OffsetMismatch creates an error for an offset that does not point at the slot field
func OffsetMismatch(phase Phase, typeName, capability string, got, want uintptr) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindOffsetMismatch,
		Type:       typeName,
		Capability: capability,
		Detail:     fmt.Sprintf("offset %d does not match slot field offset %d", got, want),
		Value:      got,
	}
}

// GenericType creates an error for a parameterized type requesting embedding
func GenericType(pos, typeName string) *Error {
	return &Error{
		Phase:  PhaseGenerate,
		Kind:   KindGenericType,
		Type:   typeName,
		Pos:    pos,
		Detail: "generic types cannot embed capabilities",
	}
}

// InvalidCapability creates an error for a capability argument that is not a named interface
func InvalidCapability(pos, typeName, capability, detail string) *Error {
	return &Error{
		Phase:      PhaseGenerate,
		Kind:       KindInvalidCapability,
		Type:       typeName,
		Capability: capability,
		Pos:        pos,
		Detail:     detail,
	}
}

// DuplicateCapability creates an error for a capability requested twice on one type
func DuplicateCapability(pos, typeName, capability string) *Error {
	return &Error{
		Phase:      PhaseGenerate,
		Kind:       KindDuplicateCapability,
		Type:       typeName,
		Capability: capability,
		Pos:        pos,
		Detail:     "capability listed more than once",
	}
}

// NameConflict creates an error for a generated identifier that is already declared
func NameConflict(pos, typeName, capability, name, existing string) *Error {
	return &Error{
		Phase:      PhaseGenerate,
		Kind:       KindNameConflict,
		Type:       typeName,
		Capability: capability,
		Pos:        pos,
		Detail:     fmt.Sprintf("generated name %s is already declared at %s", name, existing),
	}
}

// NotInitialized creates an error for a slot that was never initialized
func NotInitialized(phase Phase, capability string) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindNotInitialized,
		Capability: capability,
		Detail:     "slot not initialized",
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		Type:   goType,
		Detail: "nil pointer",
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// List collects several errors from one pass, such as all rejected targets of a
// generator run.
type List struct {
	Errors []error
}

// Add appends err when it is non-nil
func (l *List) Add(err error) {
	if err != nil {
		l.Errors = append(l.Errors, err)
	}
}

// Len returns the number of collected errors
func (l *List) Len() int {
	return len(l.Errors)
}

// Err returns nil for an empty list, the single error for a list of one, or the list itself
func (l *List) Err() error {
	switch len(l.Errors) {
	case 0:
		return nil
	case 1:
		return l.Errors[0]
	default:
		return l
	}
}

func (l *List) Error() string {
	if len(l.Errors) == 0 {
		return "no errors"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%d error(s):", len(l.Errors)))
	for _, err := range l.Errors {
		b.WriteString("\n  ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap exposes the collected errors to errors.Is/As
func (l *List) Unwrap() []error {
	return l.Errors
}
