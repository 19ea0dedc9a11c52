package adhoc

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/formeo/adhoc-audio/pkg/bitstream"
	"github.com/formeo/adhoc-audio/pkg/bitvec"
	"github.com/formeo/adhoc-audio/pkg/frame"
)

// containerMagic identifies an adhoc container. No existing wire-format
// library in the retrieval pack reproduces the exact fixed-width,
// length-prefixed layout this format requires, so (de)serialization is
// hand-rolled on encoding/binary — see DESIGN.md.
var containerMagic = [4]byte{'A', 'D', 'H', 'C'}

const containerVersion = 1

// Save serializes the codec's compression level, stream info, and every
// channel's encoded frames and header directory to w.
func Save(c *Codec, w io.Writer) error {
	c.requireInit()
	bw := bufio.NewWriter(w)

	if _, err := bw.Write(containerMagic[:]); err != nil {
		return fmt.Errorf("adhoc: write magic: %w", err)
	}
	if err := writeU8(bw, containerVersion); err != nil {
		return err
	}
	if err := writeU8(bw, uint8(c.compressionLevel)); err != nil {
		return err
	}
	if err := writeU32(bw, c.audio.Info.SampleRate); err != nil {
		return err
	}
	if err := writeU16(bw, c.audio.Info.Channels); err != nil {
		return err
	}

	if err := writeU64(bw, uint64(len(c.channels))); err != nil {
		return err
	}
	for _, ch := range c.channels {
		if err := writeFrameHeaders(bw, ch.Headers()); err != nil {
			return err
		}
	}

	if err := writeBitStream(bw, c.audio.Stream); err != nil {
		return err
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("adhoc: flush: %w", err)
	}
	return nil
}

// Load reads a container previously written by Save and returns a ready-
// to-decode Codec (Init already applied).
func Load(r io.Reader) (*Codec, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("adhoc: read magic: %w", err)
	}
	if magic != containerMagic {
		return nil, fmt.Errorf("adhoc: not an adhoc container (bad magic %q)", magic)
	}
	version, err := readU8(br)
	if err != nil {
		return nil, err
	}
	if version != containerVersion {
		return nil, fmt.Errorf("adhoc: unsupported container version %d", version)
	}
	level, err := readU8(br)
	if err != nil {
		return nil, err
	}
	sampleRate, err := readU32(br)
	if err != nil {
		return nil, err
	}
	channels, err := readU16(br)
	if err != nil {
		return nil, err
	}

	codec := NewCodec(int(level))
	codec.Init(StreamInfo{SampleRate: sampleRate, Channels: channels})

	numChannels, err := readU64(br)
	if err != nil {
		return nil, err
	}
	if int(numChannels) != len(codec.channels) {
		return nil, fmt.Errorf("adhoc: container has %d channel directories, stream info says %d", numChannels, len(codec.channels))
	}
	for _, ch := range codec.channels {
		hdrs, err := readFrameHeaders(br)
		if err != nil {
			return nil, err
		}
		ch.SetHeaders(hdrs)
	}

	stream, err := readBitStream(br)
	if err != nil {
		return nil, err
	}
	stream.SeekStart()
	codec.audio.Stream = stream
	for _, ch := range codec.channels {
		ch.SetStream(stream)
	}

	return codec, nil
}

func writeFrameHeaders(w io.Writer, h *frame.FrameHeaders) error {
	n := h.Len()
	if err := writeU64(w, uint64(n)); err != nil {
		return err
	}
	nibbles := bitvec.NewNibbleList()
	initFlags := bitvec.New()
	for i := 0; i < n; i++ {
		hdr := h.Get(i)
		nibbles.Push(hdr.Exponent)
		initFlags.Push(hdr.IsInit)
	}
	exponents := nibbles.Bytes()
	if err := writeU64(w, uint64(len(exponents))); err != nil {
		return err
	}
	if _, err := w.Write(exponents); err != nil {
		return fmt.Errorf("adhoc: write exponents: %w", err)
	}

	initWords := initFlags.Words()
	if err := writeU64(w, uint64(len(initWords))); err != nil {
		return err
	}
	for _, word := range initWords {
		if err := writeU64(w, word); err != nil {
			return err
		}
	}

	for i := 0; i < n; i++ {
		if err := writeU32(w, h.Get(i).Size); err != nil {
			return err
		}
	}
	for i := 0; i < n; i++ {
		if err := writeU64(w, h.Get(i).BitCursor); err != nil {
			return err
		}
	}
	for i := 0; i < n; i++ {
		sh := h.Get(i).StackHistory
		for _, s := range sh {
			if err := writeU16(w, uint16(s)); err != nil {
				return err
			}
		}
	}
	return nil
}

func readFrameHeaders(r io.Reader) (*frame.FrameHeaders, error) {
	n, err := readU64(r)
	if err != nil {
		return nil, err
	}
	exponentByteLen, err := readU64(r)
	if err != nil {
		return nil, err
	}
	exponentBytes := make([]byte, exponentByteLen)
	if _, err := io.ReadFull(r, exponentBytes); err != nil {
		return nil, fmt.Errorf("adhoc: read exponents: %w", err)
	}
	nibbles := bitvec.FromBytes(exponentBytes, int(n))

	initWordLen, err := readU64(r)
	if err != nil {
		return nil, err
	}
	initWords := make([]uint64, initWordLen)
	for i := range initWords {
		v, err := readU64(r)
		if err != nil {
			return nil, err
		}
		initWords[i] = v
	}
	initFlags := bitvec.FromWords(initWords, int(n))

	sizes := make([]uint32, n)
	for i := range sizes {
		v, err := readU32(r)
		if err != nil {
			return nil, err
		}
		sizes[i] = v
	}
	bitCursors := make([]uint64, n)
	for i := range bitCursors {
		v, err := readU64(r)
		if err != nil {
			return nil, err
		}
		bitCursors[i] = v
	}
	histories := make([][3]int16, n)
	for i := range histories {
		for j := 0; j < 3; j++ {
			v, err := readU16(r)
			if err != nil {
				return nil, err
			}
			histories[i][j] = int16(v)
		}
	}

	hdrs := frame.NewFrameHeaders()
	for i := 0; i < int(n); i++ {
		hdrs.Push(frame.FrameHeader{
			Exponent:     nibbles.Get(i),
			IsInit:       initFlags.Get(i),
			Size:         sizes[i],
			BitCursor:    bitCursors[i],
			StackHistory: histories[i],
		})
	}
	hdrs.Reset()
	return hdrs, nil
}

func writeBitStream(w io.Writer, bs *bitstream.BitStream) error {
	words := bs.Words()
	if err := writeU64(w, uint64(len(words))); err != nil {
		return err
	}
	for _, word := range words {
		if err := writeU64(w, word); err != nil {
			return err
		}
	}
	return writeU64(w, uint64(bs.BitCursor()))
}

func readBitStream(r io.Reader) (*bitstream.BitStream, error) {
	n, err := readU64(r)
	if err != nil {
		return nil, err
	}
	words := make([]uint64, n)
	for i := range words {
		v, err := readU64(r)
		if err != nil {
			return nil, err
		}
		words[i] = v
	}
	cursor, err := readU64(r)
	if err != nil {
		return nil, err
	}
	bs := bitstream.FromWords(words, int(cursor))
	return bs, nil
}

func writeU8(w io.Writer, v uint8) error {
	if err := binary.Write(w, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("adhoc: write u8: %w", err)
	}
	return nil
}

func writeU16(w io.Writer, v uint16) error {
	if err := binary.Write(w, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("adhoc: write u16: %w", err)
	}
	return nil
}

func writeU32(w io.Writer, v uint32) error {
	if err := binary.Write(w, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("adhoc: write u32: %w", err)
	}
	return nil
}

func writeU64(w io.Writer, v uint64) error {
	if err := binary.Write(w, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("adhoc: write u64: %w", err)
	}
	return nil
}

func readU8(r io.Reader) (uint8, error) {
	var v uint8
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, fmt.Errorf("adhoc: read u8: %w", err)
	}
	return v, nil
}

func readU16(r io.Reader) (uint16, error) {
	var v uint16
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, fmt.Errorf("adhoc: read u16: %w", err)
	}
	return v, nil
}

func readU32(r io.Reader) (uint32, error) {
	var v uint32
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, fmt.Errorf("adhoc: read u32: %w", err)
	}
	return v, nil
}

func readU64(r io.Reader) (uint64, error) {
	var v uint64
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, fmt.Errorf("adhoc: read u64: %w", err)
	}
	return v, nil
}
