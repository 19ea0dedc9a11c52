// Package wave reads and writes the WAVE (RIFF/PCM) files adhoc converts
// to and from: go-audio/wav handles the reader side, a direct
// encoding/binary writer matches the exact RIFF layout adhoc needs on the
// way out.
package wave

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// PCM holds decoded, interleaved 16-bit PCM samples plus the format
// metadata needed to reconstruct a WAVE file or feed an adhoc encoder.
type PCM struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Decode reads a WAVE file and returns its audio as interleaved 16-bit
// PCM. Only 8-bit and 16-bit integer PCM input is supported; anything
// else (float PCM, compressed formats) is rejected rather than silently
// misinterpreted.
func Decode(r io.Reader) (*PCM, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("wave: read input: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	decoder := wav.NewDecoder(rs)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("wave: not a valid WAVE file")
	}
	if err := decoder.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("wave: locate PCM data: %w", err)
	}
	if decoder.WavAudioFormat != 0 && decoder.WavAudioFormat != 1 {
		return nil, fmt.Errorf("wave: unsupported audio format %d, only PCM is supported", decoder.WavAudioFormat)
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth != 8 && bitDepth != 16 {
		return nil, fmt.Errorf("wave: unsupported bit depth %d, only 8-bit and 16-bit PCM is supported", bitDepth)
	}

	sampleRate := int(decoder.SampleRate)
	channels := int(decoder.NumChans)

	const chunkSize = 4096
	format := &audio.Format{SampleRate: sampleRate, NumChannels: channels}
	raw := make([]int, 0, chunkSize)
	tmp := &audio.IntBuffer{Data: make([]int, chunkSize), Format: format}
	for {
		n, err := decoder.PCMBuffer(tmp)
		if err != nil {
			return nil, fmt.Errorf("wave: decode PCM: %w", err)
		}
		if n == 0 {
			break
		}
		raw = append(raw, tmp.Data[:n]...)
	}

	samples := make([]int16, len(raw))
	if bitDepth == 8 {
		for i, s := range raw {
			samples[i] = eightBitToSixteenBit(uint8(s))
		}
	} else {
		for i, s := range raw {
			samples[i] = int16(s)
		}
	}

	return &PCM{Samples: samples, SampleRate: sampleRate, Channels: channels}, nil
}

// eightBitToSixteenBit converts an unsigned 8-bit PCM sample to signed
// 16-bit, matching the original codec's exact conversion: map [0, 255] to
// [-1, 1] then scale by the largest magnitude a 16-bit sample can safely
// hold without risking overflow at either extreme.
func eightBitToSixteenBit(s uint8) int16 {
	normalized := (float64(s)/255.0)*2.0 - 1.0
	if normalized > 1 {
		normalized = 1
	}
	if normalized < -1 {
		normalized = -1
	}
	return int16(normalized * 32766)
}

// Encode writes pcm as a canonical 16-bit PCM WAVE file.
func Encode(w io.Writer, pcm *PCM) error {
	if pcm == nil || len(pcm.Samples) == 0 {
		return fmt.Errorf("wave: no samples to encode")
	}
	if pcm.Channels <= 0 {
		return fmt.Errorf("wave: invalid channel count %d", pcm.Channels)
	}

	const bitsPerSample = 16
	const bytesPerSample = bitsPerSample / 8
	dataSize := len(pcm.Samples) * bytesPerSample
	byteRate := pcm.SampleRate * pcm.Channels * bytesPerSample
	blockAlign := pcm.Channels * bytesPerSample
	riffSize := 36 + dataSize

	if _, err := w.Write([]byte("RIFF")); err != nil {
		return fmt.Errorf("wave: write RIFF: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(riffSize)); err != nil {
		return fmt.Errorf("wave: write RIFF size: %w", err)
	}
	if _, err := w.Write([]byte("WAVE")); err != nil {
		return fmt.Errorf("wave: write WAVE tag: %w", err)
	}

	if _, err := w.Write([]byte("fmt ")); err != nil {
		return fmt.Errorf("wave: write fmt tag: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(16)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(1)); err != nil { // PCM
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(pcm.Channels)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(pcm.SampleRate)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(byteRate)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(blockAlign)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(bitsPerSample)); err != nil {
		return err
	}

	if _, err := w.Write([]byte("data")); err != nil {
		return fmt.Errorf("wave: write data tag: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(dataSize)); err != nil {
		return err
	}
	for _, s := range pcm.Samples {
		if err := binary.Write(w, binary.LittleEndian, s); err != nil {
			return fmt.Errorf("wave: write sample: %w", err)
		}
	}
	return nil
}
