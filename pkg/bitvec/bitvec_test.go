package bitvec

import "testing"

func TestBitVecPushGet(t *testing.T) {
	v := New()
	bits := []bool{true, false, false, true, true, true, false, true, true}
	for _, b := range bits {
		v.Push(b)
	}
	if v.Len() != len(bits) {
		t.Fatalf("len = %d, want %d", v.Len(), len(bits))
	}
	for i, want := range bits {
		if got := v.Get(i); got != want {
			t.Errorf("bit %d: got %v, want %v", i, got, want)
		}
	}
}

func TestBitVecSetOverwrite(t *testing.T) {
	v := New()
	for i := 0; i < 70; i++ {
		v.Push(false)
	}
	v.Set(65, true)
	if !v.Get(65) {
		t.Fatal("expected bit 65 to be set")
	}
	if v.Get(64) || v.Get(66) {
		t.Fatal("neighboring bits should remain clear")
	}
}

func TestBitVecClear(t *testing.T) {
	v := New()
	v.Push(true)
	v.Push(true)
	v.Clear()
	if v.Len() != 0 {
		t.Fatalf("len after clear = %d", v.Len())
	}
}

func TestBitVecOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	New().Get(0)
}

func TestBitVecWordsRoundTrip(t *testing.T) {
	v := New()
	for i := 0; i < 200; i++ {
		v.Push(i%3 == 0)
	}
	restored := FromWords(v.Words(), v.Len())
	for i := 0; i < v.Len(); i++ {
		if restored.Get(i) != v.Get(i) {
			t.Fatalf("bit %d mismatch after round trip", i)
		}
	}
}

func TestNibbleListPushGet(t *testing.T) {
	n := NewNibbleList()
	values := []uint8{0, 1, 2, 15, 9, 8, 7, 6, 5}
	for _, v := range values {
		n.Push(v)
	}
	if n.Len() != len(values) {
		t.Fatalf("len = %d, want %d", n.Len(), len(values))
	}
	for i, want := range values {
		if got := n.Get(i); got != want {
			t.Errorf("nibble %d: got %d, want %d", i, got, want)
		}
	}
}

func TestNibbleListSetOverwrite(t *testing.T) {
	n := NewNibbleList()
	for i := 0; i < 5; i++ {
		n.Push(0)
	}
	n.Set(2, 13)
	if got := n.Get(2); got != 13 {
		t.Fatalf("got %d, want 13", got)
	}
	if n.Get(1) != 0 || n.Get(3) != 0 {
		t.Fatal("neighboring nibbles should remain clear")
	}
}

func TestNibbleListMasksHighBits(t *testing.T) {
	n := NewNibbleList()
	n.Push(0xFF)
	if got := n.Get(0); got != 0x0F {
		t.Fatalf("got %#x, want 0x0F", got)
	}
}

func TestNibbleListBytesRoundTrip(t *testing.T) {
	n := NewNibbleList()
	for i := uint8(0); i < 20; i++ {
		n.Push(i % 16)
	}
	restored := FromBytes(n.Bytes(), n.Len())
	for i := 0; i < n.Len(); i++ {
		if restored.Get(i) != n.Get(i) {
			t.Fatalf("nibble %d mismatch after round trip", i)
		}
	}
}
