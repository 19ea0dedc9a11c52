package adhoc

import (
	"fmt"

	"github.com/formeo/adhoc-audio/pkg/dsp"
	"github.com/formeo/adhoc-audio/pkg/frame"
)

// MaxDecodeAttempts bounds how many refill/drain rounds Decode will run
// before giving up on filling the requested number of interleaved
// sample-frames, guarding against a malformed stream where one channel's
// frames never line up with the others.
const MaxDecodeAttempts = 10

// DitherAmplitude is the fixed triangular-PDF dither amplitude: Encode adds
// noise scaled by DitherAmplitude*(1-1/scale) to every input sample before
// attenuating it.
const DitherAmplitude = 0.001

// MinCompressionLevel and MaxCompressionLevel bound the compression level
// accepted by NewCodec; values outside this range are clamped rather than
// rejected, since the CLI's --comp-level flag has no validation of its own.
const (
	MinCompressionLevel = 0
	MaxCompressionLevel = 10
)

// Codec is the multi-channel adaptive lossy audio codec: one FrameCodec
// per channel, all writing into (and reading from) a single shared
// AudioStream so frames interleave in encode order within one bit stream.
// Scale, inv_scale, and the dither generator belong to the orchestrator,
// not to any individual channel: a FrameCodec borrows only the shared
// stream and its own header directory and history.
type Codec struct {
	audio            *AudioStream
	channels         []*frame.FrameCodec
	buffers          [][]float32
	compressionLevel int
	scale            float32
	invScale         float32
	dither           *dsp.PseudoRandom
}

// ditherSeed seeds the single dither generator shared across every
// channel, so the dither sequence (and therefore the encoded bytes) is
// deterministic independent of channel count.
const ditherSeed = 314

// NewCodec returns an uninitialized codec at the given compression level
// (clamped to [MinCompressionLevel, MaxCompressionLevel]). Init must be
// called before Encode, Decode, or Seek.
func NewCodec(compressionLevel int) *Codec {
	if compressionLevel < MinCompressionLevel {
		compressionLevel = MinCompressionLevel
	}
	if compressionLevel > MaxCompressionLevel {
		compressionLevel = MaxCompressionLevel
	}
	scale := float32(int(1) << uint(compressionLevel))
	return &Codec{
		audio:            NewAudioStream(),
		compressionLevel: compressionLevel,
		scale:            scale,
		invScale:         1 / scale,
		dither:           dsp.NewPseudoRandom(ditherSeed),
	}
}

// CompressionLevel returns the level this codec was constructed with.
func (c *Codec) CompressionLevel() int { return c.compressionLevel }

// Info returns the stream's channel layout, or nil if Init has not been
// called yet.
func (c *Codec) Info() *StreamInfo { return c.audio.Info }

// Init binds a channel layout to the codec, allocating one FrameCodec per
// channel over the shared bit stream. It must be called exactly once,
// before any Encode/Decode/Seek.
func (c *Codec) Init(info StreamInfo) {
	c.audio.Info = &info
	numCh := info.NumChannels()
	c.channels = make([]*frame.FrameCodec, numCh)
	c.buffers = make([][]float32, numCh)
	for ch := 0; ch < numCh; ch++ {
		c.channels[ch] = frame.NewFrameCodec(c.audio.Stream)
	}
}

func (c *Codec) requireInit() {
	if c.audio.Info == nil {
		panic("adhoc: codec used before Init")
	}
}

// Encode writes one block of interleaved f32 PCM samples in [-1, 1]
// (length must be a multiple of the channel count), de-interleaving it
// into a scratch buffer per channel, attenuating and dithering each
// scratch sample (drawn from a single shared dither stream, in
// de-interleave order), then handing the scratch buffer to that
// channel's FrameCodec.
func (c *Codec) Encode(interleaved []float32) error {
	c.requireInit()
	numCh := len(c.channels)
	if numCh == 0 {
		return nil
	}
	if len(interleaved)%numCh != 0 {
		return fmt.Errorf("adhoc: sample count %d not divisible by channel count %d", len(interleaved), numCh)
	}
	perChannel := len(interleaved) / numCh
	amplitude := DitherAmplitude * (1 - c.invScale)
	strided := make([]float32, perChannel)
	for ch := 0; ch < numCh; ch++ {
		for i := 0; i < perChannel; i++ {
			strided[i] = interleaved[i*numCh+ch]
		}
		for i := range strided {
			n := c.dither.Triangle()
			strided[i] = (strided[i] + n*amplitude) * c.invScale
		}
		if err := c.channels[ch].EncodeFrame(strided); err != nil {
			return fmt.Errorf("adhoc: channel %d: %w", ch, err)
		}
	}
	return nil
}

// Decode produces up to n interleaved sample-frames (n*NumChannels()
// samples) as f32 PCM in [-1, 1]. It refills each channel's buffer by
// decoding one frame at a time and drains samples round-robin across
// channels so the output stays interleaved even when channels' frame
// lengths differ, then scales every produced sample by the codec's
// compression-level scale factor. It returns false only when no samples
// at all could be produced (end of stream).
func (c *Codec) Decode(n int) ([]float32, bool) {
	c.requireInit()
	numCh := len(c.channels)
	if numCh == 0 || n <= 0 {
		return nil, false
	}
	out := make([]float32, 0, n*numCh)
	framesProduced := 0
	attemptsSinceRefill := 0

	for framesProduced < n {
		refilled := false
		for ch := 0; ch < numCh; ch++ {
			if len(c.buffers[ch]) == 0 {
				samples, ok := c.channels[ch].DecodeFrame()
				if ok {
					c.buffers[ch] = samples
					refilled = true
				}
			}
		}

		drained := false
		for framesProduced < n {
			ready := true
			for ch := 0; ch < numCh; ch++ {
				if len(c.buffers[ch]) == 0 {
					ready = false
					break
				}
			}
			if !ready {
				break
			}
			for ch := 0; ch < numCh; ch++ {
				out = append(out, c.buffers[ch][0])
				c.buffers[ch] = c.buffers[ch][1:]
			}
			framesProduced++
			drained = true
		}

		if !refilled && !drained {
			attemptsSinceRefill++
			if attemptsSinceRefill >= MaxDecodeAttempts {
				break
			}
		} else {
			attemptsSinceRefill = 0
		}
		if !refilled {
			// Every channel is exhausted and nothing more can be drained.
			allExhausted := true
			for ch := 0; ch < numCh; ch++ {
				if len(c.buffers[ch]) != 0 {
					allExhausted = false
					break
				}
			}
			if allExhausted {
				break
			}
		}
	}

	for i := range out {
		out[i] *= c.scale
	}
	return out, framesProduced > 0
}

// Seek repositions every channel to the frame covering sampleOffset
// (measured in per-channel sample-frames from the start) and primes each
// channel's prediction history so decoding resumes correctly from there.
// Only seeking relative to the start of the stream is supported.
func (c *Codec) Seek(sampleOffset int) error {
	c.requireInit()
	numCh := len(c.channels)
	if numCh == 0 {
		return nil
	}
	if sampleOffset < 0 {
		panic("adhoc: seek offset must be non-negative")
	}

	numBlocks := c.channels[0].Headers().Len()
	samplesSkipped := 0
	blockIdx := 0
	for blockIdx < numBlocks {
		size := int(c.channels[0].Headers().Get(blockIdx).Size)
		if samplesSkipped+size > sampleOffset {
			break
		}
		samplesSkipped += size
		blockIdx++
	}

	if blockIdx >= numBlocks {
		for ch := 0; ch < numCh; ch++ {
			c.channels[ch].Headers().SetCursor(numBlocks)
			c.buffers[ch] = nil
		}
		return nil
	}

	landing := c.channels[0].Headers().Get(blockIdx)
	c.audio.Stream.SetBitCursor(int(landing.BitCursor))

	for ch := 0; ch < numCh; ch++ {
		hdr := c.channels[ch].Headers().Get(blockIdx)
		c.channels[ch].Headers().SetCursor(blockIdx)
		if !hdr.IsInit {
			history := c.channels[ch].History()
			history.Push(hdr.StackHistory[0])
			history.Push(hdr.StackHistory[1])
			history.Push(hdr.StackHistory[2])
			c.channels[ch].SetState(frame.StateDecoding)
		} else {
			c.channels[ch].SetState(frame.StateInit)
		}
		samples, ok := c.channels[ch].DecodeFrame()
		if !ok {
			return fmt.Errorf("adhoc: seek landed on unreadable frame for channel %d", ch)
		}
		c.buffers[ch] = samples
	}

	drop := sampleOffset - samplesSkipped
	for ch := 0; ch < numCh; ch++ {
		if drop >= len(c.buffers[ch]) {
			c.buffers[ch] = nil
		} else {
			c.buffers[ch] = c.buffers[ch][drop:]
		}
	}
	return nil
}

// FilesizeUpperBound estimates the container's on-disk size in bytes before
// it is actually serialized. It is intentionally generous: a fixed 64-byte
// allowance plus one 64-bit bit stream word per encoded sample, which is
// far more than the entropy coder will ever need. The sample count is
// summed from the frame sizes in every channel's header directory.
func (c *Codec) FilesizeUpperBound() uint64 {
	c.requireInit()
	var totalSamples uint64
	for _, ch := range c.channels {
		headers := ch.Headers()
		for i := 0; i < headers.Len(); i++ {
			totalSamples += uint64(headers.Get(i).Size)
		}
	}
	const headerOverhead = 64
	return headerOverhead + totalSamples*8
}
