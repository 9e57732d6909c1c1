package table

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"unsafe"

	"github.com/wippyai/vptr"
)

type Named interface {
	Name() string
}

type file struct {
	path     string
	closes   *int
	vptrName vptr.Slot[Named]
}

func (f *file) Name() string { return f.path }

func (f *file) Drop() { *f.closes++ }

func (x *file) VPtrNamed() *vptr.Slot[Named] {
	if x.vptrName.IsZero() {
		x.vptrName = vptr.SlotFor[file, Named](unsafe.Offsetof(x.vptrName))
	}
	return &x.vptrName
}

func newFile(path string, closes *int) *vptr.Box[Named] {
	f := &file{path: path, closes: closes}
	b := vptr.NewBox(f.VPtrNamed())
	return &b
}

type testObserver struct {
	events []Event[Named]
}

func (o *testObserver) OnEvent(e Event[Named]) {
	o.events = append(o.events, e)
}

func TestTable_Basic(t *testing.T) {
	var closes int
	tbl := New[Named]()

	b := newFile("/tmp/a", &closes)
	h, err := tbl.Insert(b)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}
	if !b.IsNil() {
		t.Fatal("Insert should empty the box")
	}

	got, ok := tbl.Get(h)
	if !ok {
		t.Fatal("Get failed")
	}
	if got.Name() != "/tmp/a" {
		t.Fatalf("Expected /tmp/a, got %s", got.Name())
	}

	r, ok := tbl.Ref(h)
	if !ok || r.Get().Name() != "/tmp/a" {
		t.Fatal("Ref failed")
	}
	if unsafe.Sizeof(r) != unsafe.Sizeof(uintptr(0)) {
		t.Fatalf("Ref should be one word, got %d bytes", unsafe.Sizeof(r))
	}

	box, ok := tbl.Remove(h)
	if !ok {
		t.Fatal("Remove failed")
	}
	if box.Get().Name() != "/tmp/a" {
		t.Fatal("Removed box lost its object")
	}
	if closes != 0 {
		t.Fatal("Remove must not run the destructor")
	}
	if tbl.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Remove")
	}

	box.Drop()
	if closes != 1 {
		t.Fatalf("Expected 1 close, got %d", closes)
	}
}

func TestTable_InvalidHandle(t *testing.T) {
	tbl := New[Named]()

	tests := []struct {
		name   string
		handle Handle
	}{
		{"zero", 0},
		{"out of range", 99},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := tbl.Get(tt.handle); ok {
				t.Error("Get should fail")
			}
			if _, ok := tbl.Ref(tt.handle); ok {
				t.Error("Ref should fail")
			}
			if _, ok := tbl.Remove(tt.handle); ok {
				t.Error("Remove should fail")
			}
			if tbl.Drop(tt.handle) {
				t.Error("Drop should fail")
			}
		})
	}
}

func TestTable_EmptyBox(t *testing.T) {
	tbl := New[Named]()
	var b vptr.Box[Named]
	if _, err := tbl.Insert(&b); !errors.Is(err, ErrEmptyBox) {
		t.Fatalf("Expected ErrEmptyBox, got %v", err)
	}
}

func TestTable_Drop(t *testing.T) {
	var closes int
	tbl := New[Named]()

	h, _ := tbl.Insert(newFile("a", &closes))
	if !tbl.Drop(h) {
		t.Fatal("Drop failed")
	}
	if closes != 1 {
		t.Fatalf("Expected destructor to run once, got %d", closes)
	}
	if tbl.Drop(h) {
		t.Fatal("Second Drop should fail")
	}
	if closes != 1 {
		t.Fatal("Destructor ran twice")
	}
}

func TestTable_Observer(t *testing.T) {
	var closes int
	tbl := New[Named]()
	obs := &testObserver{}
	tbl.Subscribe(obs)

	h, _ := tbl.Insert(newFile("a", &closes))
	if len(obs.events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(obs.events))
	}
	if obs.events[0].Type != EventCreated {
		t.Fatal("Expected EventCreated")
	}
	if obs.events[0].Handle != h {
		t.Fatal("Wrong handle in event")
	}
	if obs.events[0].Value.Name() != "a" {
		t.Fatal("Wrong value in event")
	}

	tbl.Drop(h)
	if len(obs.events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(obs.events))
	}
	if obs.events[1].Type != EventDropped {
		t.Fatal("Expected EventDropped")
	}

	h, _ = tbl.Insert(newFile("b", &closes))
	tbl.Remove(h)
	if obs.events[3].Type != EventRemoved {
		t.Fatalf("Expected EventRemoved, got %s", obs.events[3].Type)
	}

	tbl.Unsubscribe(obs)
	tbl.Insert(newFile("c", &closes))
	if len(obs.events) != 4 {
		t.Fatal("Unsubscribed observer should not receive events")
	}
}

func TestTable_UnsubscribeOne(t *testing.T) {
	var closes int
	tbl := New[Named]()
	first := &testObserver{}
	second := &testObserver{}
	tbl.Subscribe(first)
	tbl.Subscribe(second)

	tbl.Unsubscribe(second)
	tbl.Unsubscribe(&testObserver{})
	tbl.Insert(newFile("a", &closes))

	if len(first.events) != 1 {
		t.Fatalf("Remaining observer got %d events, want 1", len(first.events))
	}
	if len(second.events) != 0 {
		t.Fatalf("Unsubscribed observer got %d events", len(second.events))
	}
}

func TestTable_Borrow(t *testing.T) {
	var closes int
	tbl := New[Named]()
	obs := &testObserver{}
	tbl.Subscribe(obs)

	h, _ := tbl.Insert(newFile("a", &closes))

	r, ok := tbl.Borrow(h)
	if !ok || r.Get().Name() != "a" {
		t.Fatal("Borrow failed")
	}
	if tbl.Drop(h) {
		t.Fatal("Drop should fail with outstanding borrow")
	}
	if _, ok := tbl.Remove(h); ok {
		t.Fatal("Remove should fail with outstanding borrow")
	}

	if !tbl.ReturnBorrow(h) {
		t.Fatal("ReturnBorrow failed")
	}
	if tbl.ReturnBorrow(h) {
		t.Fatal("ReturnBorrow without borrow should fail")
	}
	if !tbl.Drop(h) {
		t.Fatal("Drop should succeed after borrow returned")
	}

	want := []EventType{EventCreated, EventBorrowed, EventBorrowReturned, EventDropped}
	if len(obs.events) != len(want) {
		t.Fatalf("Expected %d events, got %d", len(want), len(obs.events))
	}
	for i, typ := range want {
		if obs.events[i].Type != typ {
			t.Errorf("event %d: expected %s, got %s", i, typ, obs.events[i].Type)
		}
	}
}

func TestTable_HandleReuse(t *testing.T) {
	var closes int
	tbl := New[Named]()

	h1, _ := tbl.Insert(newFile("1", &closes))
	h2, _ := tbl.Insert(newFile("2", &closes))
	tbl.Drop(h1)

	h3, _ := tbl.Insert(newFile("3", &closes))
	if h3 != h1 {
		t.Fatalf("Expected freed handle %d to be reused, got %d", h1, h3)
	}

	got, _ := tbl.Get(h2)
	if got.Name() != "2" {
		t.Fatal("Reuse disturbed another entry")
	}
	got, _ = tbl.Get(h3)
	if got.Name() != "3" {
		t.Fatal("Reused handle has the wrong object")
	}
}

func TestTable_Each(t *testing.T) {
	var closes int
	tbl := New[Named]()
	for i := range 5 {
		tbl.Insert(newFile(fmt.Sprint(i), &closes))
	}
	tbl.Drop(2)

	var names []string
	tbl.Each(func(h Handle, r vptr.Ref[Named]) bool {
		names = append(names, r.Get().Name())
		return true
	})
	if fmt.Sprint(names) != "[0 2 3 4]" {
		t.Fatalf("Unexpected iteration order %v", names)
	}

	count := 0
	tbl.Each(func(Handle, vptr.Ref[Named]) bool {
		count++
		return count < 2
	})
	if count != 2 {
		t.Fatalf("Each should stop early, visited %d", count)
	}
}

func TestTable_ClearAndClose(t *testing.T) {
	var closes int
	tbl := New[Named]()
	for i := range 3 {
		tbl.Insert(newFile(fmt.Sprint(i), &closes))
	}

	held, _ := tbl.Borrow(1)
	tbl.Clear()
	if closes != 2 {
		t.Fatalf("Clear should skip borrowed entries, closed %d", closes)
	}
	if tbl.Len() != 1 {
		t.Fatalf("Expected 1 entry left, got %d", tbl.Len())
	}
	if held.Get().Name() != "0" {
		t.Fatal("Borrowed entry was disturbed")
	}

	if err := tbl.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if closes != 3 {
		t.Fatalf("Close should drop everything, closed %d", closes)
	}
	if err := tbl.Close(); err != nil {
		t.Fatal("Second Close should be a no-op")
	}
	if _, err := tbl.Insert(newFile("late", &closes)); !errors.Is(err, ErrClosed) {
		t.Fatalf("Expected ErrClosed, got %v", err)
	}
}

func TestTable_Concurrent(t *testing.T) {
	var mu sync.Mutex
	var closes int
	tbl := New[Named]()

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 50 {
				f := &file{path: fmt.Sprintf("%d-%d", i, j), closes: new(int)}
				b := vptr.NewBox(f.VPtrNamed())
				h, err := tbl.Insert(&b)
				if err != nil {
					t.Error(err)
					return
				}
				if got, ok := tbl.Get(h); !ok || got.Name() != f.path {
					t.Errorf("handle %d: wrong object", h)
				}
				tbl.Drop(h)
				mu.Lock()
				closes += *f.closes
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if tbl.Len() != 0 {
		t.Fatalf("Expected empty table, got %d", tbl.Len())
	}
	if closes != 16*50 {
		t.Fatalf("Expected %d closes, got %d", 16*50, closes)
	}
}

func TestEventType_String(t *testing.T) {
	tests := []struct {
		typ  EventType
		want string
	}{
		{EventCreated, "created"},
		{EventDropped, "dropped"},
		{EventRemoved, "removed"},
		{EventBorrowed, "borrowed"},
		{EventBorrowReturned, "borrow_returned"},
		{EventType(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("%d: got %q, want %q", uint8(tt.typ), got, tt.want)
		}
	}
}
