package frame

import (
	"fmt"

	"github.com/formeo/adhoc-audio/pkg/bitstream"
	"github.com/formeo/adhoc-audio/pkg/dsp"
)

// CodecState tracks where a FrameCodec sits in its lifecycle. A freshly
// constructed codec starts in StateInit; it moves to StateEncoding after
// writing its first frame, or to StateDecoding after reading one.
type CodecState int

const (
	StateInit CodecState = iota
	StateEncoding
	StateDecoding
)

// maxDivisorExponent bounds the Rice divisor search; it must not exceed
// what bitstream's 4-bit exponent field can hold.
const maxDivisorExponent = 15

// FrameCodec predicts each sample from the three before it with a fitted
// parabola, Rice-codes the prediction residual against a per-frame
// divisor chosen to minimize bit cost, and records one FrameHeader per
// encoded frame (consuming one per decoded frame) so the frame boundary
// can be found again later.
//
// It speaks f32 samples in [-1, 1] at its boundary, exactly like the rest
// of the codec's public surface; internally every prediction, residual,
// and history entry is truncated to i16, matching the original's integer
// entropy coding. Scale and dither are the orchestrator's job: by the time
// a sample reaches EncodeFrame it has already been attenuated and
// dithered, and a frame codec borrows only the shared stream plus its own
// header directory and history.
type FrameCodec struct {
	state   CodecState
	headers *FrameHeaders
	history *dsp.CircularStack[int16]
	stream  *bitstream.BitStream
}

// NewFrameCodec builds a codec writing to (or reading from) stream.
func NewFrameCodec(stream *bitstream.BitStream) *FrameCodec {
	return &FrameCodec{
		headers: NewFrameHeaders(),
		history: dsp.NewCircularStack[int16](),
		stream:  stream,
	}
}

// State returns the codec's current lifecycle state.
func (c *FrameCodec) State() CodecState { return c.state }

// Headers exposes the frame-header directory, used by adhoc.Codec to seek.
func (c *FrameCodec) Headers() *FrameHeaders { return c.headers }

// History exposes the live sample-history stack so adhoc.Codec can prime it
// after a seek lands on a non-initial frame.
func (c *FrameCodec) History() *dsp.CircularStack[int16] { return c.history }

// SetState forces the lifecycle state, used by adhoc.Codec when resuming
// decoding after a seek.
func (c *FrameCodec) SetState(s CodecState) { c.state = s }

// SetHeaders replaces the header directory wholesale, used when loading a
// container: the directory is read from disk rather than built up by
// encoding.
func (c *FrameCodec) SetHeaders(h *FrameHeaders) { c.headers = h }

// SetStream rebinds the codec to a different backing bit stream, used
// when loading a container: all channels share the stream reconstructed
// from the saved payload.
func (c *FrameCodec) SetStream(s *bitstream.BitStream) { c.stream = s }

// predict fits the parabola through the three most recent history samples
// (normalized to f32) and returns the i16 prediction for the next sample.
func predict(h *dsp.CircularStack[int16]) int16 {
	f0 := dsp.Normalize(h.Prev(3))
	f1 := dsp.Normalize(h.Prev(2))
	f2 := dsp.Normalize(h.Prev(1))
	p := dsp.NewFixedParabola(f0, f1, f2)
	return dsp.Truncate(p.Eval(3))
}

// entropyOf computes the clamped integer prediction residual the stream
// actually codes.
func entropyOf(current, predicted int16) int16 {
	diff := int32(current) - int32(predicted)
	if diff > 32766 {
		diff = 32766
	}
	if diff < -32766 {
		diff = -32766
	}
	return int16(diff)
}

// riceBitCost returns the number of bits write_compressed would spend on
// entropy at divisor exponent k: a unary quotient, its terminating zero,
// the sign bit, and k remainder bits.
func riceBitCost(entropy int16, k uint) uint64 {
	mag := int32(entropy)
	if mag < 0 {
		mag = -mag
	}
	return (uint64(mag) >> k) + 1 + uint64(k) + 1
}

// chooseDivisorExponent replays prediction over samples against a cloned
// history (CircularStack is a plain value type, so copying it is enough
// to isolate the trial from the live codec state) for every candidate
// exponent in [1, 15], summing the Rice bit cost each would produce, and
// returns the cheapest. Ties keep the smaller exponent; an all-silent
// frame returns 1.
func chooseDivisorExponent(history *dsp.CircularStack[int16], samples []float32) uint32 {
	if len(samples) == 0 {
		return 1
	}
	var bitSum [maxDivisorExponent + 1]uint64
	for k := 1; k <= maxDivisorExponent; k++ {
		h := *history
		var sum uint64
		for _, s := range samples {
			current := dsp.Truncate(s)
			predicted := predict(&h)
			entropy := entropyOf(current, predicted)
			sum += riceBitCost(entropy, uint(k))
			h.Push(current)
		}
		bitSum[k] = sum
	}
	best := uint32(1)
	bestSum := bitSum[1]
	allZero := true
	for k := 1; k <= maxDivisorExponent; k++ {
		if bitSum[k] != 0 {
			allZero = false
		}
		if bitSum[k] < bestSum {
			bestSum = bitSum[k]
			best = uint32(k)
		}
	}
	if allZero {
		return 1
	}
	return best
}

// EncodeFrame writes samples (already dithered and scaled by the
// orchestrator, in [-1, 1]) as one frame: the first call (state
// StateInit) also writes three raw seed samples before switching to
// StateEncoding. Each call with at least one sample records exactly one
// FrameHeader; an empty samples slice writes nothing.
func (c *FrameCodec) EncodeFrame(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}
	bitCursor := uint64(c.stream.BitCursor())
	isInit := c.state == StateInit
	startIdx := 0
	if isInit {
		if len(samples) < 3 {
			return fmt.Errorf("frame: init frame needs at least 3 seed samples, got %d", len(samples))
		}
		for i := 0; i < 3; i++ {
			s := dsp.Truncate(samples[i])
			c.stream.WriteU16(uint16(s))
			c.history.Push(s)
		}
		startIdx = 3
	}

	exponent := chooseDivisorExponent(c.history, samples[startIdx:])
	c.stream.WriteDivisorExponent(exponent)
	c.headers.Push(FrameHeader{
		Exponent:     uint8(exponent),
		IsInit:       isInit,
		Size:         uint32(len(samples)),
		BitCursor:    bitCursor,
		StackHistory: [3]int16{c.history.Prev(3), c.history.Prev(2), c.history.Prev(1)},
	})

	for i := startIdx; i < len(samples); i++ {
		predicted := predict(c.history)
		current := dsp.Truncate(samples[i])
		entropy := entropyOf(current, predicted)
		c.stream.WriteCompressed(exponent, int32(entropy))
		c.history.Push(current)
	}

	if isInit {
		c.state = StateEncoding
	}
	return nil
}

// DecodeFrame reads the next frame from the stream, advancing the header
// directory first so seeking and sequential decoding share one code path.
// It returns (nil, false) once the directory is exhausted. Decoded
// samples are normalized f32 in [-1, 1], matching EncodeFrame's input
// domain.
func (c *FrameCodec) DecodeFrame() ([]float32, bool) {
	hdr, ok := c.headers.Next()
	if !ok {
		return nil, false
	}

	var out []float32
	startIdx := 0
	if hdr.IsInit {
		for i := 0; i < 3; i++ {
			s := int16(c.stream.ReadU16())
			c.history.Push(s)
			out = append(out, dsp.Normalize(s))
		}
		startIdx = 3
		c.state = StateDecoding
	}

	exponent := c.stream.ReadDivisorExponent()
	for i := startIdx; i < int(hdr.Size); i++ {
		entropy := int16(c.stream.ReadCompressed(exponent))
		predicted := predict(c.history)
		current := int32(entropy) + int32(predicted)
		if current > 32767 {
			current = 32767
		}
		if current < -32768 {
			current = -32768
		}
		s := int16(current)
		c.history.Push(s)
		decoded := dsp.Normalize(s)
		if decoded > 1 {
			decoded = 1
		}
		if decoded < -1 {
			decoded = -1
		}
		out = append(out, decoded)
	}
	return out, true
}
