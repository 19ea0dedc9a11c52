package inspect

import (
	"fmt"
	"io"

	shinemp3 "github.com/braheezy/shine-mp3/pkg/mp3"

	"github.com/formeo/adhoc-audio/pkg/wave"
)

// PreviewMP3 encodes pcm as an MP3 stream, for quickly listening to
// decoded adhoc or WAVE audio without a dedicated player. This is a CLI
// convenience only: it has no bearing on adhoc's own on-disk format.
func PreviewMP3(w io.Writer, pcm *wave.PCM) error {
	if pcm == nil || len(pcm.Samples) == 0 {
		return fmt.Errorf("inspect: no samples to preview")
	}
	encoder := shinemp3.NewEncoder(pcm.SampleRate, pcm.Channels)
	if err := encoder.Write(w, pcm.Samples); err != nil {
		return fmt.Errorf("inspect: encode MP3 preview: %w", err)
	}
	return nil
}
