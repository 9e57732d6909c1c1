package vptr

// noCopy may be embedded into structs which must not be copied after first
// use. It has zero size and is recognized by go vet's copylocks check.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
