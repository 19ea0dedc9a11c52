// Package inspect reports format/duration/sample-rate/channel metadata for
// any of the file types adhoc's CLI tooling touches: WAVE and adhoc
// itself, plus FLAC/OGG/MP3 for parity with the teacher's own multi-format
// info tooling even though the codec never transcodes to or from them.
package inspect

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// Format identifies which decoder Inspect should use.
type Format int

const (
	FormatUnknown Format = iota
	FormatWAV
	FormatAdhoc
	FormatFLAC
	FormatOGG
	FormatMP3
)

func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "wav"
	case FormatAdhoc:
		return "adhoc"
	case FormatFLAC:
		return "flac"
	case FormatOGG:
		return "ogg"
	case FormatMP3:
		return "mp3"
	default:
		return "unknown"
	}
}

// DetectFormat classifies a file by its extension.
func DetectFormat(path string) Format {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "wav", "wave":
		return FormatWAV
	case "adhoc":
		return FormatAdhoc
	case "flac":
		return FormatFLAC
	case "ogg", "oga", "ogv":
		return FormatOGG
	case "mp3":
		return FormatMP3
	default:
		return FormatUnknown
	}
}

// Info describes a decoded or sniffed audio file.
type Info struct {
	Format           Format
	Duration         float64 // seconds; 0 if unknown without a full decode
	SampleRate       int
	Channels         int
	BitDepth         int
	CompressionLevel int // only meaningful for FormatAdhoc
}

// Inspect reads r as the given format and reports what metadata can be
// read without fully decoding the payload.
func Inspect(r io.Reader, format Format) (*Info, error) {
	switch format {
	case FormatWAV:
		return inspectWAV(r)
	case FormatAdhoc:
		return inspectAdhoc(r)
	case FormatFLAC:
		return inspectFLAC(r)
	case FormatOGG:
		return inspectOGG(r)
	case FormatMP3:
		return inspectMP3(r)
	default:
		return nil, fmt.Errorf("inspect: unsupported format")
	}
}

func inspectWAV(r io.Reader) (*Info, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		rs = bytes.NewReader(data)
	}
	decoder := wav.NewDecoder(rs)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("inspect: invalid WAV file")
	}
	dur, err := decoder.Duration()
	if err != nil {
		return nil, fmt.Errorf("inspect: WAV duration: %w", err)
	}
	return &Info{
		Format:     FormatWAV,
		Duration:   dur.Seconds(),
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
		BitDepth:   int(decoder.BitDepth),
	}, nil
}

// inspectAdhoc reads only the container's fixed header (magic, version,
// compression level, StreamInfo) without walking the frame directories or
// decoding any audio, so it stays cheap even for a large file.
func inspectAdhoc(r io.Reader) (*Info, error) {
	br := bufio.NewReader(r)
	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("inspect: read magic: %w", err)
	}
	if magic != [4]byte{'A', 'D', 'H', 'C'} {
		return nil, fmt.Errorf("inspect: not an adhoc container")
	}
	var version, level uint8
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &level); err != nil {
		return nil, err
	}
	var sampleRate uint32
	if err := binary.Read(br, binary.LittleEndian, &sampleRate); err != nil {
		return nil, err
	}
	var channels uint16
	if err := binary.Read(br, binary.LittleEndian, &channels); err != nil {
		return nil, err
	}
	return &Info{
		Format:           FormatAdhoc,
		SampleRate:       int(sampleRate),
		Channels:         int(channels),
		BitDepth:         16,
		CompressionLevel: int(level),
	}, nil
}

func inspectFLAC(r io.Reader) (*Info, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		rs = bytes.NewReader(data)
	}
	stream, err := flac.New(rs)
	if err != nil {
		return nil, fmt.Errorf("inspect: open FLAC stream: %w", err)
	}
	defer stream.Close()
	info := stream.Info
	var duration float64
	if info.SampleRate > 0 {
		duration = float64(info.NSamples) / float64(info.SampleRate)
	}
	return &Info{
		Format:     FormatFLAC,
		Duration:   duration,
		SampleRate: int(info.SampleRate),
		Channels:   int(info.NChannels),
		BitDepth:   int(info.BitsPerSample),
	}, nil
}

func inspectOGG(r io.Reader) (*Info, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		rs = bytes.NewReader(data)
	}
	decoder, err := oggvorbis.NewReader(rs)
	if err != nil {
		return nil, fmt.Errorf("inspect: open OGG stream: %w", err)
	}
	return &Info{
		Format:     FormatOGG,
		Duration:   decoder.Length().Seconds(),
		SampleRate: decoder.SampleRate(),
		Channels:   decoder.Channels(),
		BitDepth:   16,
	}, nil
}

func inspectMP3(r io.Reader) (*Info, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("inspect: open MP3 stream: %w", err)
	}
	sampleRate := decoder.SampleRate()
	duration := float64(decoder.Length()) / float64(sampleRate) / 4
	return &Info{
		Format:     FormatMP3,
		Duration:   duration,
		SampleRate: sampleRate,
		Channels:   2,
		BitDepth:   16,
	}, nil
}

// Formats lists every format Inspect understands, for `adhoc formats`.
func Formats() []Format {
	return []Format{FormatWAV, FormatAdhoc, FormatFLAC, FormatOGG, FormatMP3}
}
