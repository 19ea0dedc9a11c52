package bitstream

import "testing"

func TestWriteReadBits(t *testing.T) {
	tests := []struct {
		name  string
		value uint64
		nbits int
	}{
		{"zero", 0, 8},
		{"byte", 0xAB, 8},
		{"word", 0xBEEF, 16},
		{"dword", 0xDEADBEEF, 32},
		{"single bit set", 1, 1},
		{"single bit clear", 0, 1},
		{"full 64", 0xFFFFFFFFFFFFFFFF, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New()
			b.WriteBits(tt.value, tt.nbits)
			b.SetBitCursor(0)
			got := b.ReadBits(tt.nbits)
			mask := uint64(1)<<uint(tt.nbits) - 1
			if tt.nbits == 64 {
				mask = ^uint64(0)
			}
			if got != tt.value&mask {
				t.Errorf("got %#x, want %#x", got, tt.value&mask)
			}
		})
	}
}

func TestPeekDoesNotAdvance(t *testing.T) {
	b := New()
	b.WriteBits(0x3C, 8)
	b.SetBitCursor(0)
	peeked := b.PeekBits(8)
	if peeked != 0x3C {
		t.Fatalf("peek got %#x", peeked)
	}
	if b.BitCursor() != 0 {
		t.Fatalf("peek advanced cursor to %d", b.BitCursor())
	}
	read := b.ReadBits(8)
	if read != 0x3C {
		t.Fatalf("read got %#x", read)
	}
	if b.BitCursor() != 8 {
		t.Fatalf("read left cursor at %d", b.BitCursor())
	}
}

func TestWriteReadBitSequence(t *testing.T) {
	b := New()
	bits := []uint64{1, 0, 1, 1, 0, 0, 1, 0, 1, 1, 1, 0}
	for _, bit := range bits {
		b.WriteBit(bit)
	}
	b.SetBitCursor(0)
	for i, want := range bits {
		got := b.ReadBit()
		if got != want {
			t.Errorf("bit %d: got %d, want %d", i, got, want)
		}
	}
}

func TestCompressedRoundTripPositive(t *testing.T) {
	b := New()
	var values []int32
	for v := int32(0); v < 31000; v += 37 {
		values = append(values, v)
	}
	const exponent = 6
	for _, v := range values {
		b.WriteCompressed(exponent, v)
	}
	b.SetBitCursor(0)
	for i, want := range values {
		got := b.ReadCompressed(exponent)
		if got != want {
			t.Fatalf("value %d: got %d, want %d", i, got, want)
		}
	}
}

func TestCompressedRoundTripNegative(t *testing.T) {
	b := New()
	var values []int32
	for v := int32(-31000); v < 0; v += 41 {
		values = append(values, v)
	}
	const exponent = 7
	for _, v := range values {
		b.WriteCompressed(exponent, v)
	}
	b.SetBitCursor(0)
	for i, want := range values {
		got := b.ReadCompressed(exponent)
		if got != want {
			t.Fatalf("value %d: got %d, want %d", i, got, want)
		}
	}
}

func TestCompressedZeroExponent(t *testing.T) {
	b := New()
	values := []int32{0, 1, 2, 3, 17, -1, -2, -17}
	for _, v := range values {
		b.WriteCompressed(0, v)
	}
	b.SetBitCursor(0)
	for i, want := range values {
		got := b.ReadCompressed(0)
		if got != want {
			t.Fatalf("value %d: got %d, want %d", i, got, want)
		}
	}
}

func TestCompressedLongUnaryRun(t *testing.T) {
	// Exercises the fast all-ones word scan in ReadCompressed: a quotient
	// large enough to span several 16/32/64-bit bursts.
	b := New()
	const exponent = 2
	values := []int32{500, -500, 1000, -1000}
	for _, v := range values {
		b.WriteCompressed(exponent, v)
	}
	b.SetBitCursor(0)
	for i, want := range values {
		got := b.ReadCompressed(exponent)
		if got != want {
			t.Fatalf("value %d: got %d, want %d", i, got, want)
		}
	}
}

func TestDivisorExponentRoundTrip(t *testing.T) {
	b := New()
	for exp := uint32(0); exp <= 15; exp++ {
		b.WriteDivisorExponent(exp)
	}
	b.SetBitCursor(0)
	for exp := uint32(0); exp <= 15; exp++ {
		got := b.ReadDivisorExponent()
		if got != exp {
			t.Fatalf("got %d, want %d", got, exp)
		}
	}
}

func TestDivisorExponentOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range exponent")
		}
	}()
	New().WriteDivisorExponent(16)
}

func TestSeekAndWordsRoundTrip(t *testing.T) {
	b := New()
	b.WriteU32(0xCAFEBABE)
	b.WriteU16(0xBEEF)
	saved := b.Words()
	cursor := b.BitCursor()

	restored := FromWords(saved, cursor)
	restored.SetBitCursor(0)
	if got := restored.ReadU32(); got != 0xCAFEBABE {
		t.Fatalf("got %#x", got)
	}
	if got := restored.ReadU16(); got != 0xBEEF {
		t.Fatalf("got %#x", got)
	}
}

func TestBoundaryAcrossWord(t *testing.T) {
	b := New()
	b.SetBitCursor(126)
	b.WriteU8(7)
	b.SetBitCursor(126)
	if got := b.ReadU8(); got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
}

func BenchmarkCompressedRoundTrip(b *testing.B) {
	bs := New()
	for i := 0; i < b.N; i++ {
		bs.WriteCompressed(5, int32(i%2000-1000))
	}
}
