// Package generator wires capability slots into struct types.
//
// A struct requests slots with a directive in its doc comment:
//
//	//vptr:embed Shape fmt.Stringer
//	type Rectangle struct {
//	    W, H float64
//	}
//
// or with a target entry in vptrgen.yaml / vptrgen.toml. For every requested
// capability the generator appends one vptr.Slot field to the declaration
// and emits glue into a separate file of the same package:
//
//	var cellRectangle_Shape vptr.Cell[Rectangle, Shape]
//
//	func (x *Rectangle) VPtrShape() *vptr.Slot[Shape] { ... }
//	func (x *Rectangle) VPtrInit() *Rectangle { ... }
//
// # Slot Naming
//
// Structs with named fields get a slot named after the capability:
// Shape becomes vptrShape and fmt.Stringer becomes vptrFmtStringer. Structs
// with no named fields (empty or embedded-only) get positional names
// vptr<N>, where N is the field's index in the declaration.
//
// # Validation
//
// Requests are rejected for generic types, non-struct types, capabilities
// that are not named non-generic method-set interfaces, and capabilities
// listed twice. A type whose pointer does not implement the capability is a
// warning, or an error in strict mode.
//
// # Idempotence
//
// Running the generator again on its own output changes nothing: slots are
// recognized by type, and the glue file is rebuilt from the same inputs.
package generator
