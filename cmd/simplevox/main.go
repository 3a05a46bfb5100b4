// Command simplevox works with raw 16-bit little-endian PCM files.
//
//	simplevox enroll -in keyword.raw -out keyword.mfc
//	simplevox match  -in utterance.raw -ref keyword.mfc -threshold 180
//	simplevox vad    -in utterance.raw
//
// Tracing is controlled through the environment (TRACE_EXPORTER=stdout|otlp).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/MechaUma/SimpleVox/pkg/audio"
	"github.com/MechaUma/SimpleVox/pkg/dtw"
	"github.com/MechaUma/SimpleVox/pkg/matcher"
	"github.com/MechaUma/SimpleVox/pkg/mfcc"
	"github.com/MechaUma/SimpleVox/pkg/trace"
	"github.com/MechaUma/SimpleVox/pkg/vad"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s <enroll|match|vad> [flags]\n", os.Args[0])
	os.Exit(2)
}

func main() {
	godotenv.Load()

	if len(os.Args) < 2 {
		usage()
	}

	ctx := context.Background()
	if os.Getenv("TRACE_EXPORTER") != "" {
		if err := trace.Initialize(ctx, trace.DefaultConfig()); err != nil {
			log.Fatalf("tracing: %v", err)
		}
		defer trace.Shutdown(ctx)
	}

	var err error
	switch os.Args[1] {
	case "enroll":
		err = runEnroll(ctx, os.Args[2:])
	case "match":
		err = runMatch(ctx, os.Args[2:])
	case "vad":
		err = runVad(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		log.Fatal(err)
	}
}

func readSamples(path string) ([]int16, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return audio.BytesToSamples(data), nil
}

func runEnroll(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("enroll", flag.ExitOnError)
	in := fs.String("in", "", "input raw PCM file (16-bit LE)")
	out := fs.String("out", "keyword.mfc", "output feature file")
	rate := fs.Int("rate", 16000, "sample rate (8000 or 16000)")
	fs.Parse(args)

	if *in == "" {
		return fmt.Errorf("enroll: -in is required")
	}
	pcm, err := readSamples(*in)
	if err != nil {
		return err
	}

	cfg := mfcc.DefaultConfig()
	cfg.SampleRate = *rate

	engine := &mfcc.Engine{}
	if err := engine.Init(cfg); err != nil {
		return err
	}
	defer engine.Deinit()

	var feature *mfcc.Feature
	err = trace.WithSpan(ctx, "cli.enroll", func(ctx context.Context) error {
		var err error
		feature, err = engine.CreateFromAudio(pcm)
		return err
	})
	if err != nil {
		return err
	}

	if err := mfcc.SaveFile(*out, feature); err != nil {
		return err
	}
	log.Printf("enrolled %s: %d frames x %d coefficients -> %s",
		*in, feature.Frames(), feature.Dim(), *out)
	return nil
}

func runMatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	in := fs.String("in", "", "input raw PCM file (16-bit LE)")
	ref := fs.String("ref", "keyword.mfc", "reference feature file")
	rate := fs.Int("rate", 16000, "sample rate (8000 or 16000)")
	threshold := fs.Uint("threshold", 180, "match threshold (DTW distance)")
	fs.Parse(args)

	if *in == "" {
		return fmt.Errorf("match: -in is required")
	}
	pcm, err := readSamples(*in)
	if err != nil {
		return err
	}
	reference, err := mfcc.LoadFile(*ref)
	if err != nil {
		return err
	}

	cfg := matcher.DefaultConfig()
	cfg.Mfcc.SampleRate = *rate
	cfg.Vad.SampleRate = *rate
	cfg.Threshold = uint32(*threshold)

	m, err := matcher.New(cfg, nil)
	if err != nil {
		return err
	}
	defer m.Close()
	m.SetReference(reference)

	result, err := m.Match(ctx, pcm)
	if err != nil {
		return err
	}
	if result.Distance == dtw.Invalid {
		fmt.Println("distance: invalid (incomparable features)")
		return nil
	}
	fmt.Printf("distance: %d, matched: %v\n", result.Distance, result.Matched)
	return nil
}

func runVad(args []string) error {
	fs := flag.NewFlagSet("vad", flag.ExitOnError)
	in := fs.String("in", "", "input raw PCM file (16-bit LE)")
	rate := fs.Int("rate", 16000, "sample rate (8000 or 16000)")
	mode := fs.Int("mode", 0, "aggression level 0-4")
	maxMs := fs.Int("max-ms", 10000, "capture buffer length in milliseconds")
	fs.Parse(args)

	if *in == "" {
		return fmt.Errorf("vad: -in is required")
	}
	pcm, err := readSamples(*in)
	if err != nil {
		return err
	}

	cfg := vad.DefaultConfig()
	cfg.SampleRate = *rate
	cfg.Mode = vad.Mode(*mode)

	engine := &vad.Engine{}
	if err := engine.Init(cfg, nil); err != nil {
		return err
	}
	defer engine.Deinit()

	frameLength := cfg.FrameLength()
	dest := make([]int16, (*maxMs)*(*rate)/1000)

	for offset := 0; offset+frameLength <= len(pcm); offset += frameLength {
		frame := pcm[offset : offset+frameLength]
		if length := engine.Detect(dest, frame); length > 0 {
			fmt.Printf("detected segment: %d samples (%d ms) ending near %d ms\n",
				length, length*1000/(*rate), (offset+frameLength)*1000/(*rate))
			engine.Reset()
		}
	}
	return nil
}
