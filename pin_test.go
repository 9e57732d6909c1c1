package vptr

import (
	"testing"
	"unsafe"
)

func TestPinnedRef(t *testing.T) {
	rect := (&Rectangle{W: 6, H: 7}).VPtrInit()

	p := Pin(rect)
	defer p.Unpin()

	r := PinnedRefOf(p, (*Rectangle).VPtrShape)
	if r.IsNil() {
		t.Fatal("pinned ref should not be nil")
	}
	if got := r.Get().Area(); got != 42 {
		t.Errorf("Area() = %v, want 42", got)
	}
	if r.Base() != unsafe.Pointer(rect) {
		t.Error("pinned base must be the object address")
	}
	if p.Pointer() != rect {
		t.Error("Pointer() mismatch")
	}
}

func TestPinnedRefAfterUnpin(t *testing.T) {
	p := Pin(&Rectangle{W: 1, H: 1})
	p.Unpin()

	r := PinnedRefOf(p, (*Rectangle).VPtrShape)
	if !r.IsNil() {
		t.Error("unpinned marker should yield nil references")
	}
	if r.Get() != nil {
		t.Error("nil pinned ref should yield nil interface")
	}

	var none *Pinned[Rectangle]
	if !PinnedRefOf(none, (*Rectangle).VPtrShape).IsNil() {
		t.Error("nil marker should yield nil reference")
	}
}
