// Package iface splits and merges the two-word representation of Go
// interface values.
//
// The gc runtime stores a non-empty interface as {itab, data} and an empty
// interface as {type, data}. In both cases the first word is fully determined
// by the dynamic type and the interface type, and the second word is the
// pointer itself when the dynamic type is pointer-shaped. This package relies
// on exactly that relationship and nothing else:
//
//	┌──────────────┬──────────────┐
//	│ tab (itab)   │ data (*T)    │   interface value C holding *T
//	└──────────────┴──────────────┘
//
// Callers must only instantiate these functions with interface types and only
// merge a tab with a data pointer of the dynamic type the tab was taken from.
//
// This package is internal to vptr.
package iface
