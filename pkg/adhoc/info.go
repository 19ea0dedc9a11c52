// Package adhoc implements the adaptive lossy audio codec: a multi-channel
// orchestrator over pkg/frame's per-channel predictive frame codec, plus
// the container format used to persist an encoded stream to disk.
package adhoc

// StreamInfo describes the channel layout and sample rate of an audio
// stream. It carries no per-sample data; AudioStream pairs it with the
// bit-level payload.
type StreamInfo struct {
	SampleRate uint32
	Channels   uint16
}

// NumChannels is a convenience accessor mirroring the original's field
// name in contexts that read more naturally channel-first.
func (s StreamInfo) NumChannels() int {
	return int(s.Channels)
}
