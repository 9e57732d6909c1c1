// Package errors provides structured error types for the vptr module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the concrete Go type, the capability involved, an optional
// source position and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseProbe, errors.KindMissingSlot).
//		Type("shapes.Rectangle").
//		Capability("shapes.Shape").
//		Detail("no vptr.Slot field").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotImplemented(errors.PhaseProbe, "*shapes.Rectangle", "shapes.Shape")
//	err := errors.DuplicateCapability(pos, "Rectangle", "Shape")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
