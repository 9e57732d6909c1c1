package generator

import (
	"fmt"
	"strings"
	"unicode"
)

// slotSuffix converts a capability as written to the suffix shared by the
// slot field, the accessor and the cell variable.
// e.g., "Shape" → "Shape", "fmt.Stringer" → "FmtStringer"
func slotSuffix(capability string) string {
	var b strings.Builder
	for _, part := range strings.Split(capability, ".") {
		b.WriteString(toPascal(part))
	}
	return b.String()
}

// SlotFieldName returns the slot field name for a capability on a struct
// with named fields.
func SlotFieldName(capability string) string {
	return "vptr" + slotSuffix(capability)
}

// PositionalFieldName returns the slot field name for the index-th field of
// a struct with no named fields.
func PositionalFieldName(index int) string {
	return fmt.Sprintf("vptr%d", index)
}

// AccessorName returns the generated accessor method name.
func AccessorName(capability string) string {
	return "VPtr" + slotSuffix(capability)
}

// CellName returns the package-level metadata cell variable name. The type
// name is kept as written, since types may differ only in letter case; the
// suffix never contains an underscore, so the separator is unambiguous.
func CellName(typeName, capability string) string {
	return "cell" + typeName + "_" + slotSuffix(capability)
}

// toPascal upper-cases the first letter and drops underscores.
func toPascal(s string) string {
	var b strings.Builder
	nextUpper := true
	for _, r := range s {
		if r == '_' {
			nextUpper = true
			continue
		}
		if nextUpper {
			b.WriteRune(unicode.ToUpper(r))
			nextUpper = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
