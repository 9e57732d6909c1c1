// Package layout computes Go struct layouts from declared field order.
//
// Offsets are derived from each field's size and alignment the way the gc
// compiler lays out structs:
//   - Fields are placed sequentially, each aligned to its own alignment
//   - The struct alignment is the maximum field alignment
//   - A trailing zero-size field gets one byte of padding so that its
//     address never points past the end of the object
//   - The total size is rounded up to the struct alignment
//
// The result is used to cross-check offsets taken from unsafe.Offsetof and
// reflect before a slot offset is trusted.
//
// This package is internal to vptr.
package layout
