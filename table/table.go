package table

import (
	"errors"
	"sync"

	"github.com/wippyai/vptr"
)

var (
	ErrClosed            = errors.New("table closed")
	ErrEmptyBox          = errors.New("cannot insert an empty box")
	ErrOutstandingBorrow = errors.New("cannot remove entry with outstanding borrows")
)

// Table owns objects through thin boxes. It is safe for concurrent use.
type Table[C any] struct {
	slots     []*vptr.Slot[C] // nil marks a free entry
	borrows   map[Handle]uint32
	freeList  []Handle
	observers []Observer[C]
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool
}

// New creates an empty table.
func New[C any]() *Table[C] {
	return &Table[C]{
		slots:    make([]*vptr.Slot[C], 0, 64),
		borrows:  make(map[Handle]uint32),
		freeList: make([]Handle, 0, 16),
	}
}

// Insert moves the box into the table and returns its handle. The box is
// empty afterwards.
func (t *Table[C]) Insert(b *vptr.Box[C]) (Handle, error) {
	if b.IsNil() {
		return 0, ErrEmptyBox
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, ErrClosed
	}

	value := b.Get()
	s := b.Release()

	var handle Handle
	if n := len(t.freeList); n > 0 {
		handle = t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		t.slots[handle-1] = s
	} else {
		t.slots = append(t.slots, s)
		handle = Handle(len(t.slots))
	}
	t.mu.Unlock()

	t.notify(Event[C]{Type: EventCreated, Handle: handle, Value: value})
	return handle, nil
}

// lookup returns the live slot for handle. Callers hold t.mu.
func (t *Table[C]) lookup(handle Handle) *vptr.Slot[C] {
	if handle == 0 || int(handle) > len(t.slots) {
		return nil
	}
	return t.slots[handle-1]
}

// Get rebuilds the object stored under handle.
func (t *Table[C]) Get(handle Handle) (C, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := t.lookup(handle)
	if s == nil {
		var zero C
		return zero, false
	}
	return vptr.NewRef(s).Get(), true
}

// Ref returns a thin reference to the object stored under handle. The
// reference is not tracked; use Borrow when the entry must stay alive.
func (t *Table[C]) Ref(handle Handle) (vptr.Ref[C], bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := t.lookup(handle)
	if s == nil {
		return vptr.Ref[C]{}, false
	}
	return vptr.NewRef(s), true
}

// Borrow returns a tracked reference. The entry cannot be removed until the
// borrow is returned.
func (t *Table[C]) Borrow(handle Handle) (vptr.Ref[C], bool) {
	t.mu.Lock()
	s := t.lookup(handle)
	if s == nil {
		t.mu.Unlock()
		return vptr.Ref[C]{}, false
	}
	t.borrows[handle]++
	t.mu.Unlock()

	r := vptr.NewRef(s)
	t.notify(Event[C]{Type: EventBorrowed, Handle: handle, Value: r.Get()})
	return r, true
}

// ReturnBorrow releases one borrow of handle.
func (t *Table[C]) ReturnBorrow(handle Handle) bool {
	t.mu.Lock()
	s := t.lookup(handle)
	n := t.borrows[handle]
	if s == nil || n == 0 {
		t.mu.Unlock()
		return false
	}
	if n == 1 {
		delete(t.borrows, handle)
	} else {
		t.borrows[handle] = n - 1
	}
	t.mu.Unlock()

	t.notify(Event[C]{Type: EventBorrowReturned, Handle: handle, Value: vptr.NewRef(s).Get()})
	return true
}

// take detaches the slot for handle.
func (t *Table[C]) take(handle Handle) (*vptr.Slot[C], error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.lookup(handle)
	if s == nil {
		return nil, nil
	}
	if t.borrows[handle] > 0 {
		return nil, ErrOutstandingBorrow
	}

	t.slots[handle-1] = nil
	t.freeList = append(t.freeList, handle)
	return s, nil
}

// Remove hands ownership of the entry back to the caller.
func (t *Table[C]) Remove(handle Handle) (vptr.Box[C], bool) {
	s, err := t.take(handle)
	if s == nil || err != nil {
		return vptr.Box[C]{}, false
	}

	t.notify(Event[C]{Type: EventRemoved, Handle: handle, Value: vptr.NewRef(s).Get()})
	return vptr.NewBox(s), true
}

// Drop destroys the entry. It reports false for invalid handles and for
// entries with outstanding borrows.
func (t *Table[C]) Drop(handle Handle) bool {
	s, err := t.take(handle)
	if s == nil || err != nil {
		return false
	}

	value := vptr.NewRef(s).Get()
	b := vptr.NewBox(s)
	b.Drop()

	t.notify(Event[C]{Type: EventDropped, Handle: handle, Value: value})
	return true
}

// Len returns the number of live entries.
func (t *Table[C]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.slots) - len(t.freeList)
}

// Each iterates over live entries in handle order until fn returns false.
func (t *Table[C]) Each(fn func(Handle, vptr.Ref[C]) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i, s := range t.slots {
		if s == nil {
			continue
		}
		if !fn(Handle(i+1), vptr.NewRef(s)) {
			break
		}
	}
}

// Clear drops every entry without outstanding borrows.
func (t *Table[C]) Clear() {
	// Collect handles first to avoid holding the lock during Drop
	var handles []Handle
	t.Each(func(h Handle, _ vptr.Ref[C]) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		t.Drop(h)
	}
}

// Close drops every entry, borrowed or not, and stops accepting inserts.
func (t *Table[C]) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	slots := t.slots
	t.slots = nil
	t.freeList = nil
	t.borrows = nil
	t.mu.Unlock()

	for _, s := range slots {
		if s != nil {
			b := vptr.NewBox(s)
			b.Drop()
		}
	}
	return nil
}

// Subscribe adds an observer for lifecycle events.
func (t *Table[C]) Subscribe(o Observer[C]) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes the first observer equal to o. Unknown observers are
// ignored.
func (t *Table[C]) Unsubscribe(o Observer[C]) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

func (t *Table[C]) notify(e Event[C]) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnEvent(e)
	}
}
