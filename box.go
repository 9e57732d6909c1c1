package vptr

// Dropper is optionally implemented by objects that need cleanup when the
// Box owning them is dropped.
type Dropper interface {
	Drop()
}

// Box is a one-word owning handle. The object is destroyed by Drop, which
// calls the object's Drop method if it implements Dropper, or handed back by
// IntoOwned. Box must not be copied.
type Box[C any] struct {
	_    noCopy
	slot *Slot[C]
}

// NewBox takes ownership of the object that contains s.
func NewBox[C any](s *Slot[C]) Box[C] {
	return Box[C]{slot: s}
}

// FromOwned takes ownership of the object held by owned. The dynamic value
// must be a pointer to a struct carrying a Slot[C]; its slot is initialized
// atomically if it is still zero. The caller must not use owned afterwards.
func FromOwned[C any](owned C) (Box[C], error) {
	return FromOwnedIn(defaultRegistrar, owned)
}

// FromOwnedIn is FromOwned against a specific registrar.
func FromOwnedIn[C any](r *Registrar, owned C) (Box[C], error) {
	s, err := slotOf(r, owned)
	if err != nil {
		return Box[C]{}, err
	}
	return Box[C]{slot: s}, nil
}

// IsNil reports whether the box is empty.
func (b *Box[C]) IsNil() bool {
	return b.slot == nil
}

// Get rebuilds the full interface value without giving up ownership.
func (b *Box[C]) Get() C {
	if b.slot == nil {
		var zero C
		return zero
	}
	return load(b.slot)
}

// Ref returns a shared reference to the boxed object.
func (b *Box[C]) Ref() Ref[C] {
	return Ref[C]{slot: b.slot}
}

// IntoOwned returns the full interface value and empties the box.
func (b *Box[C]) IntoOwned() C {
	if b.slot == nil {
		var zero C
		return zero
	}
	c := load(b.slot)
	b.slot = nil
	return c
}

// Release empties the box and returns the raw slot address. The caller takes
// over the obligation to drop the object, usually by wrapping the slot in a
// new Box.
func (b *Box[C]) Release() *Slot[C] {
	s := b.slot
	b.slot = nil
	return s
}

// Drop destroys the boxed object. The object's Drop method runs at most once;
// dropping an empty box does nothing.
func (b *Box[C]) Drop() {
	if b.slot == nil {
		return
	}
	c := b.IntoOwned()
	if d, ok := any(c).(Dropper); ok {
		d.Drop()
	}
}
