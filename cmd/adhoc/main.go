// adhoc is a command-line tool for the adhoc adaptive lossy audio codec.
// It converts WAVE files to .adhoc and back, without any external
// dependency on ffmpeg or a system codec library.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/formeo/adhoc-audio/pkg/adhoc"
	"github.com/formeo/adhoc-audio/pkg/dsp"
	"github.com/formeo/adhoc-audio/pkg/inspect"
	"github.com/formeo/adhoc-audio/pkg/wave"
)

// toF32 and fromF32 cross the boundary between pkg/wave's int16 PCM and
// the codec's normalized f32 domain.
func toF32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = dsp.Normalize(s)
	}
	return out
}

func fromF32(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = dsp.Truncate(s)
	}
	return out
}

var (
	version   = "0.1.0"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// Flags
var (
	outDir    string
	compLevel int
	quiet     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !quiet {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "adhoc [INPUT...]",
	Short: "Encode/decode the adhoc adaptive lossy audio codec",
	Long: `adhoc - an adaptive lossy audio codec and its CLI

Converts WAVE files to .adhoc and .adhoc files back to WAVE. Multiple
INPUT files are converted concurrently, each through its own codec
instance.

Examples:
  adhoc song.wav
  adhoc a.wav b.wav c.wav --outdir ./out --comp-level 8
  adhoc song.adhoc -o ./decoded`,
	Version: version,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runConvert,
}

func init() {
	rootCmd.Flags().StringVarP(&outDir, "outdir", "o", "./", "Output directory")
	rootCmd.Flags().IntVarP(&compLevel, "comp-level", "c", 5, "Compression level (0-10)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all output")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(formatsCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(versionCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	st, err := os.Stat(outDir)
	if err != nil || !st.IsDir() {
		return fmt.Errorf("adhoc: output directory %q is not usable: %w", outDir, err)
	}

	var g errgroup.Group
	for _, input := range args {
		input := input
		g.Go(func() error {
			return convertFile(input)
		})
	}
	return g.Wait()
}

// convertFile classifies input by extension and converts it, skipping
// (with a warning, not an error) anything that isn't .wav or .adhoc —
// matching the original CLI's silent-skip behavior for unrecognized
// inputs.
func convertFile(input string) error {
	ext := strings.ToLower(filepath.Ext(input))
	base := strings.TrimSuffix(filepath.Base(input), ext)

	switch ext {
	case ".wav", ".wave":
		return convertWAVToAdhoc(input, base)
	case ".adhoc":
		return convertAdhocToWAV(input, base)
	default:
		if !quiet {
			fmt.Fprintf(os.Stderr, "adhoc: skipping %s (unrecognized extension %q)\n", input, ext)
		}
		return nil
	}
}

func convertWAVToAdhoc(input, base string) error {
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("adhoc: open %s: %w", input, err)
	}
	defer f.Close()

	pcm, err := wave.Decode(f)
	if err != nil {
		return fmt.Errorf("adhoc: decode %s: %w", input, err)
	}

	start := time.Now()
	codec := adhoc.NewCodec(compLevel)
	codec.Init(adhoc.StreamInfo{SampleRate: uint32(pcm.SampleRate), Channels: uint16(pcm.Channels)})
	if err := codec.Encode(toF32(pcm.Samples)); err != nil {
		return fmt.Errorf("adhoc: encode %s: %w", input, err)
	}

	outPath := filepath.Join(outDir, base+".adhoc")
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("adhoc: create %s: %w", outPath, err)
	}
	defer out.Close()

	if err := adhoc.Save(codec, out); err != nil {
		return fmt.Errorf("adhoc: write %s: %w", outPath, err)
	}

	if !quiet {
		fmt.Printf("%s -> %s (%v)\n", input, outPath, time.Since(start).Round(time.Millisecond))
	}
	return nil
}

func convertAdhocToWAV(input, base string) error {
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("adhoc: open %s: %w", input, err)
	}
	defer f.Close()

	start := time.Now()
	codec, err := adhoc.Load(f)
	if err != nil {
		return fmt.Errorf("adhoc: load %s: %w", input, err)
	}

	info := codec.Info()
	numCh := info.NumChannels()
	var samples []float32
	for {
		chunk, ok := codec.Decode(4096)
		if len(chunk) > 0 {
			samples = append(samples, chunk...)
		}
		if !ok {
			break
		}
	}

	pcm := &wave.PCM{Samples: fromF32(samples), SampleRate: int(info.SampleRate), Channels: numCh}
	outPath := filepath.Join(outDir, base+".wav")
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("adhoc: create %s: %w", outPath, err)
	}
	defer out.Close()

	if err := wave.Encode(out, pcm); err != nil {
		return fmt.Errorf("adhoc: write %s: %w", outPath, err)
	}

	if !quiet {
		fmt.Printf("%s -> %s (%v)\n", input, outPath, time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// Subcommands

var infoCmd = &cobra.Command{
	Use:   "info FILE",
	Short: "Show audio file information",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showFileInfo(args[0])
	},
}

func showFileInfo(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("adhoc: open %s: %w", path, err)
	}
	defer f.Close()

	stat, _ := f.Stat()
	format := inspect.DetectFormat(path)
	if format == inspect.FormatUnknown {
		return fmt.Errorf("adhoc: unrecognized format for %s", path)
	}

	info, err := inspect.Inspect(f, format)
	if err != nil {
		return fmt.Errorf("adhoc: inspect %s: %w", path, err)
	}

	fmt.Printf("File:        %s\n", path)
	fmt.Printf("Size:        %s\n", formatSize(stat.Size()))
	fmt.Printf("Format:      %s\n", info.Format)
	fmt.Printf("Duration:    %.2f seconds\n", info.Duration)
	fmt.Printf("Sample Rate: %d Hz\n", info.SampleRate)
	fmt.Printf("Channels:    %d\n", info.Channels)
	fmt.Printf("Bit Depth:   %d\n", info.BitDepth)
	if info.Format == inspect.FormatAdhoc {
		fmt.Printf("Comp Level:  %d\n", info.CompressionLevel)
	}
	return nil
}

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported formats",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Supported formats (info):")
		for _, f := range inspect.Formats() {
			fmt.Printf("  - %s\n", f)
		}
		fmt.Println("\nSupported conversions:")
		fmt.Println("  wav -> adhoc")
		fmt.Println("  adhoc -> wav")
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview INPUT OUTPUT.mp3",
	Short: "Decode any supported input and re-encode it as a quick-listen MP3",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPreview(args[0], args[1])
	},
}

func runPreview(input, output string) error {
	var pcm *wave.PCM
	ext := strings.ToLower(filepath.Ext(input))

	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("adhoc: open %s: %w", input, err)
	}
	defer f.Close()

	if ext == ".adhoc" {
		codec, err := adhoc.Load(f)
		if err != nil {
			return fmt.Errorf("adhoc: load %s: %w", input, err)
		}
		info := codec.Info()
		var samples []float32
		for {
			chunk, ok := codec.Decode(4096)
			samples = append(samples, chunk...)
			if !ok {
				break
			}
		}
		pcm = &wave.PCM{Samples: fromF32(samples), SampleRate: int(info.SampleRate), Channels: info.NumChannels()}
	} else {
		pcm, err = wave.Decode(f)
		if err != nil {
			return fmt.Errorf("adhoc: decode %s: %w", input, err)
		}
	}

	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("adhoc: create %s: %w", output, err)
	}
	defer out.Close()

	if err := inspect.PreviewMP3(out, pcm); err != nil {
		return fmt.Errorf("adhoc: preview %s: %w", input, err)
	}
	if !quiet {
		fmt.Printf("%s -> %s\n", input, output)
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("adhoc %s\n", version)
		fmt.Printf("  Build time: %s\n", buildTime)
		fmt.Printf("  Git commit: %s\n", gitCommit)
		fmt.Printf("  Go version: %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

// Helpers

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
