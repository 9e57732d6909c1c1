package vptr

import (
	"fmt"
	"sync"
	"testing"
	"unsafe"

	vperrors "github.com/wippyai/vptr/errors"
)

func TestThinHandlesAreOneWord(t *testing.T) {
	word := unsafe.Sizeof(uintptr(0))

	sizes := map[string]uintptr{
		"Slot":      unsafe.Sizeof(Slot[Shape]{}),
		"Ref":       unsafe.Sizeof(Ref[Shape]{}),
		"Mut":       unsafe.Sizeof(Mut[Shape]{}),
		"PinnedRef": unsafe.Sizeof(PinnedRef[Shape]{}),
		"Box":       unsafe.Sizeof(Box[Shape]{}),
		"Ref[any]":  unsafe.Sizeof(Ref[any]{}),
	}
	for name, size := range sizes {
		if size != word {
			t.Errorf("sizeof(%s) = %d, want %d", name, size, word)
		}
	}

	var full Shape
	if unsafe.Sizeof(full) != 2*word {
		t.Errorf("interface values are expected to be two words, got %d", unsafe.Sizeof(full))
	}
}

func TestNilRef(t *testing.T) {
	var none Ref[Shape]
	if !none.IsNil() {
		t.Error("zero Ref should be nil")
	}
	if none.Get() != nil {
		t.Error("nil Ref should yield a nil interface")
	}
	if none.Base() != nil || none.Metadata() != nil {
		t.Error("nil Ref has no base or metadata")
	}
	if !RefOf[Rectangle, Shape](nil, (*Rectangle).VPtrShape).IsNil() {
		t.Error("RefOf(nil) should be nil")
	}
}

func TestRectangleArea(t *testing.T) {
	rect := &Rectangle{W: 10.0, H: 5.0}
	r := NewRef(rect.VPtrShape())

	if got := r.Get().Area(); got != 50.0 {
		t.Errorf("Area() = %v, want 50", got)
	}
	if r.Base() != unsafe.Pointer(rect) {
		t.Errorf("Base() = %p, want %p", r.Base(), rect)
	}
}

func TestRoundTripMatchesDirectDispatch(t *testing.T) {
	rects := []*Rectangle{
		{W: 1, H: 1},
		{W: 2.5, H: 4},
		{W: 0, H: 7},
		{W: -3, H: 3},
	}

	for _, rect := range rects {
		var direct Shape = rect
		thin := RefOf(rect, (*Rectangle).VPtrShape)

		if thin.Get().Area() != direct.Area() {
			t.Errorf("%v: thin Area %v != direct %v", rect, thin.Get().Area(), direct.Area())
		}
		if thin.Get() != direct {
			t.Errorf("%v: rebuilt interface should equal the direct one", rect)
		}
	}
}

func TestTwoCapabilitiesDoNotInterfere(t *testing.T) {
	rect := (&Rectangle{W: 10, H: 5}).VPtrInit()

	shape := NewRef(rect.VPtrShape())
	text := NewRef(rect.VPtrFmtStringer())

	if got := shape.Get().Area(); got != 50 {
		t.Errorf("Area() = %v, want 50", got)
	}
	if got := text.Get().String(); got != "Rectangle(10x5)" {
		t.Errorf("String() = %q, want %q", got, "Rectangle(10x5)")
	}
	if got := fmt.Sprint(text.Get()); got != "Rectangle(10x5)" {
		t.Errorf("Sprint = %q", got)
	}

	if shape.Metadata().Offset() == text.Metadata().Offset() {
		t.Error("offsets should differ")
	}
	if shape.Base() != text.Base() {
		t.Error("both references must resolve to the same object")
	}
}

func TestMutationVisibleThroughPlainReference(t *testing.T) {
	rect := &Rectangle{W: 1, H: 1}

	m := NewMut(rect.VPtrResizer())
	m.Get().Resize(20, 5)

	if rect.W != 20 || rect.H != 5 {
		t.Errorf("rect = %+v, mutation not visible", rect)
	}
	if got := NewRef(rect.VPtrShape()).Get().Area(); got != 100 {
		t.Errorf("Area() = %v, want 100", got)
	}

	shared := m.Ref()
	if shared.Base() != unsafe.Pointer(rect) {
		t.Error("reborrow must point to the same object")
	}
}

func TestMutOf(t *testing.T) {
	rect := &Rectangle{W: 2, H: 2}
	m := MutOf(rect, (*Rectangle).VPtrResizer)
	if m.IsNil() {
		t.Fatal("MutOf should not be nil")
	}
	m.Get().Resize(3, 3)
	if rect.Area() != 9 {
		t.Errorf("Area() = %v", rect.Area())
	}
	if m.Base() != unsafe.Pointer(rect) {
		t.Error("Base mismatch")
	}

	empty := MutOf[Rectangle, Resizer](nil, (*Rectangle).VPtrResizer)
	if !empty.IsNil() || empty.Get() != nil {
		t.Error("MutOf(nil) should be empty")
	}
}

func TestFieldLessType(t *testing.T) {
	u := &Unit{}
	r := NewRef(u.VPtrNamer())

	if got := r.Get().Name(); got != "unit" {
		t.Errorf("Name() = %q", got)
	}
	if r.Metadata().Offset() != 0 {
		t.Errorf("Offset = %d, want 0", r.Metadata().Offset())
	}
	if r.Metadata().Field() != "vptr0" {
		t.Errorf("Field = %q", r.Metadata().Field())
	}
}

func TestPositionalType(t *testing.T) {
	p := &Pair{Left: Left{A: 40}, Right: Right{B: 2}}
	r := NewRef(p.VPtrSummer())

	if got := r.Get().Sum(); got != 42 {
		t.Errorf("Sum() = %d, want 42", got)
	}
	if want := int(unsafe.Offsetof(p.vptr2)); r.Metadata().Offset() != want {
		t.Errorf("Offset = %d, want %d", r.Metadata().Offset(), want)
	}
}

func TestCopiedObjectKeepsValidSlot(t *testing.T) {
	orig := (&Rectangle{W: 3, H: 3}).VPtrInit()
	cp := *orig
	cp.W = 4

	if got := NewRef(&cp.vptrShape).Get().Area(); got != 12 {
		t.Errorf("copy Area() = %v, want 12", got)
	}
	if got := NewRef(&orig.vptrShape).Get().Area(); got != 9 {
		t.Errorf("original Area() = %v, want 9", got)
	}
}

func TestRefFrom(t *testing.T) {
	var s Shape = &Rectangle{W: 2, H: 3}

	r, err := RefFrom(s)
	if err != nil {
		t.Fatalf("RefFrom: %v", err)
	}
	if got := r.Get().Area(); got != 6 {
		t.Errorf("Area() = %v, want 6", got)
	}
	if r.Get() != s {
		t.Error("rebuilt value should equal the source")
	}
}

func TestRefFromConcurrentInit(t *testing.T) {
	rect := &Rectangle{W: 4, H: 5}
	var s Shape = rect

	const workers = 16
	slots := make([]*Slot[Shape], workers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			r, err := RefFrom(s)
			if err != nil {
				t.Errorf("RefFrom: %v", err)
				return
			}
			if got := r.Get().Area(); got != 20 {
				t.Errorf("Area() = %v, want 20", got)
			}
			slots[i] = r.Slot()
		}()
	}
	close(start)
	wg.Wait()

	for i, slot := range slots {
		if slot != &rect.vptrShape {
			t.Errorf("worker %d got slot %p, want %p", i, slot, &rect.vptrShape)
		}
	}
	if rect.vptrShape.IsZero() {
		t.Error("slot should be initialized")
	}
}

func TestRefFromErrors(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		_, err := RefFrom[Shape](nil)
		assertKind(t, err, vperrors.PhaseRuntime, vperrors.KindNilPointer)
	})

	t.Run("typed_nil", func(t *testing.T) {
		var rect *Rectangle
		_, err := RefFrom[Shape](rect)
		assertKind(t, err, vperrors.PhaseRuntime, vperrors.KindNilPointer)
	})

	t.Run("value_type", func(t *testing.T) {
		_, err := RefFrom[Shape](valueShape{w: 1})
		assertKind(t, err, vperrors.PhaseRuntime, vperrors.KindUnsupported)
	})

	t.Run("no_slot", func(t *testing.T) {
		_, err := RefFrom[Shape](&noSlot{w: 1})
		assertKind(t, err, vperrors.PhaseProbe, vperrors.KindMissingSlot)
	})
}

func TestZeroSlotPanics(t *testing.T) {
	var rect Rectangle

	defer func() {
		err, ok := recover().(*vperrors.Error)
		if !ok {
			t.Fatal("expected *errors.Error panic")
		}
		if err.Kind != vperrors.KindNotInitialized || err.Capability != "vptr.Shape" {
			t.Errorf("panic = %v", err)
		}
	}()
	NewRef(&rect.vptrShape).Get()
}

func TestSlotAccessorInitializesLazily(t *testing.T) {
	var rect Rectangle
	if !rect.vptrShape.IsZero() {
		t.Fatal("new slot should be zero")
	}
	s := rect.VPtrShape()
	if s.IsZero() || s.Metadata() == nil {
		t.Fatal("accessor should initialize the slot")
	}
	if s != &rect.vptrShape {
		t.Error("accessor must return the field address")
	}
}
