// Package frame implements the per-channel predictive frame codec and the
// column-oriented directory of frame headers that backs seeking.
package frame

import "github.com/formeo/adhoc-audio/pkg/bitvec"

// FrameHeader records everything needed to either skip over a frame
// without decoding it, or resume decoding mid-stream at its boundary.
type FrameHeader struct {
	Exponent     uint8
	IsInit       bool
	Size         uint32
	BitCursor    uint64
	StackHistory [3]int16
}

// FrameHeaders is a column-oriented directory of FrameHeader entries: each
// field lives in its own parallel array (or packed vector, for the
// exponent and init-flag columns) rather than as a slice of structs. Push
// either appends past the current cursor or overwrites the entry the
// cursor already points at, and always advances the cursor by one —
// this lets adhoc.Codec re-encode from a seeked position without growing
// the directory.
type FrameHeaders struct {
	exponents      *bitvec.NibbleList
	initFlags      *bitvec.BitVec
	sizes          []uint32
	bitCursors     []uint64
	stackHistories [][3]int16
	cursor         int
}

// NewFrameHeaders returns an empty directory.
func NewFrameHeaders() *FrameHeaders {
	return &FrameHeaders{
		exponents: bitvec.NewNibbleList(),
		initFlags: bitvec.New(),
	}
}

// Len returns the number of recorded headers.
func (h *FrameHeaders) Len() int {
	return len(h.sizes)
}

// Cursor returns the current directory cursor.
func (h *FrameHeaders) Cursor() int {
	return h.cursor
}

// SetCursor repositions the directory cursor for replay.
func (h *FrameHeaders) SetCursor(pos int) {
	h.cursor = pos
}

// Reset rewinds the cursor to the start of the directory without
// discarding recorded headers.
func (h *FrameHeaders) Reset() {
	h.cursor = 0
}

// Push records hdr at the current cursor: if the cursor is at or past the
// end of the directory, hdr is appended; otherwise it overwrites the
// existing entry there. Either way the cursor advances by one.
func (h *FrameHeaders) Push(hdr FrameHeader) {
	exp := hdr.Exponent
	if h.cursor >= len(h.sizes) {
		h.exponents.Push(exp)
		h.initFlags.Push(hdr.IsInit)
		h.sizes = append(h.sizes, hdr.Size)
		h.bitCursors = append(h.bitCursors, hdr.BitCursor)
		h.stackHistories = append(h.stackHistories, hdr.StackHistory)
	} else {
		h.exponents.Set(h.cursor, exp)
		h.initFlags.Set(h.cursor, hdr.IsInit)
		h.sizes[h.cursor] = hdr.Size
		h.bitCursors[h.cursor] = hdr.BitCursor
		h.stackHistories[h.cursor] = hdr.StackHistory
	}
	h.cursor++
}

// Get returns the header at index i.
func (h *FrameHeaders) Get(i int) FrameHeader {
	return FrameHeader{
		Exponent:     h.exponents.Get(i),
		IsInit:       h.initFlags.Get(i),
		Size:         h.sizes[i],
		BitCursor:    h.bitCursors[i],
		StackHistory: h.stackHistories[i],
	}
}

// Next returns the header at the current cursor and advances it, or
// (FrameHeader{}, false) once the directory is exhausted.
func (h *FrameHeaders) Next() (FrameHeader, bool) {
	if h.cursor >= len(h.sizes) {
		return FrameHeader{}, false
	}
	hdr := h.Get(h.cursor)
	h.cursor++
	return hdr, true
}
