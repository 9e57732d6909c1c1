// Package table stores thin owning boxes under integer handles.
//
// Each live entry costs one word: the slot address of the owned object. The
// full interface value is rebuilt from the object's embedded slot whenever an
// entry is read.
//
//	t := table.New[Shape]()
//
//	// Move a box into the table, get a handle
//	b := vptr.NewBox(rect.VPtrShape())
//	h, err := t.Insert(&b)
//
//	// Read through the handle
//	shape, ok := t.Get(h)
//
//	// Take ownership back out, or destroy in place
//	box, ok := t.Remove(h)
//	ok = t.Drop(h)
//
// # Borrows
//
// Borrow returns a vptr.Ref and pins the entry until ReturnBorrow; Remove and
// Drop fail while borrows are outstanding.
//
// # Observers
//
// Register observers to track lifecycle events:
//
//	type logger struct{}
//
//	func (*logger) OnEvent(e table.Event[Shape]) {
//	    log.Printf("%s %d", e.Type, e.Handle)
//	}
//
//	obs := &logger{}
//	t.Subscribe(obs)
//	defer t.Unsubscribe(obs)
//
// # Memory Management
//
// Entries are not garbage collected while the table holds them. Remove or
// Drop each handle, or Close the table to drop everything.
package table
