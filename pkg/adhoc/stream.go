package adhoc

import "github.com/formeo/adhoc-audio/pkg/bitstream"

// AudioStream pairs an optional StreamInfo with the underlying bit-level
// payload. Info is nil until Init is called (or a container finishes
// loading), matching the original's Option<StreamInfo>: a codec can be
// constructed before its sample rate/channel count are known.
type AudioStream struct {
	Info   *StreamInfo
	Stream *bitstream.BitStream
}

// NewAudioStream returns an AudioStream with no info set yet and an empty
// bit stream.
func NewAudioStream() *AudioStream {
	return &AudioStream{Stream: bitstream.New()}
}
