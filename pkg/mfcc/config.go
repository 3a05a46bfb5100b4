package mfcc

import (
	"fmt"

	"github.com/MechaUma/SimpleVox/pkg/dsp"
)

// Fixed-point scale factors. These are part of the on-disk interchange
// format and must not change.
const (
	preEmphaScale = 100
	windowScale   = 10000
	dctScale      = 10000
	normScale     = 1000
)

// Config holds the MFCC front-end parameters.
type Config struct {
	// FFTNum is the FFT length in points. Must be a power of two.
	FFTNum int

	// MelChannels is the number of mel filter bank channels.
	MelChannels int

	// CoefNum is the number of cepstral coefficients to keep.
	// Coefficient 0 (the DC term) is always dropped, so CoefNum of 12
	// yields coefficients 1..12.
	CoefNum int

	// PreEmphasis is the high-frequency emphasis coefficient in percent
	// (97 means 0.97).
	PreEmphasis int

	// SampleRate of the input audio. 8000 or 16000 Hz.
	SampleRate int

	// FrameTimeMs is the length of one analysis frame in milliseconds.
	// Typical values are 20-40 ms; 32 ms at 16 kHz gives 512 samples,
	// a round number for the FFT.
	FrameTimeMs int
}

// DefaultConfig returns the default front-end configuration for 16 kHz audio.
func DefaultConfig() Config {
	return Config{
		FFTNum:      512,
		MelChannels: 24,
		CoefNum:     12,
		PreEmphasis: 97,
		SampleRate:  16000,
		FrameTimeMs: 32,
	}
}

// FrameLength returns the analysis frame length in samples.
func (c Config) FrameLength() int { return c.FrameTimeMs * c.SampleRate / 1000 }

// HopLength returns the stride between successive frames in samples.
func (c Config) HopLength() int { return c.FrameLength() / 2 }

// IsValid validates the configuration.
func (c Config) IsValid() error {
	if !dsp.IsPowerOfTwo(c.FFTNum) {
		return fmt.Errorf("invalid FFTNum %d: must be a power of two", c.FFTNum)
	}
	if c.MelChannels <= 0 {
		return fmt.Errorf("invalid MelChannels %d", c.MelChannels)
	}
	if c.CoefNum <= 0 || c.CoefNum > c.MelChannels {
		return fmt.Errorf("invalid CoefNum %d: must be in 1..%d", c.CoefNum, c.MelChannels)
	}
	if c.PreEmphasis < 0 {
		return fmt.Errorf("invalid PreEmphasis %d", c.PreEmphasis)
	}
	if c.SampleRate != 8000 && c.SampleRate != 16000 {
		return fmt.Errorf("invalid SampleRate %d: valid values are 8000 and 16000", c.SampleRate)
	}
	if c.FrameTimeMs <= 0 {
		return fmt.Errorf("invalid FrameTimeMs %d", c.FrameTimeMs)
	}
	if c.FrameLength() > c.FFTNum {
		return fmt.Errorf("frame length %d exceeds FFTNum %d", c.FrameLength(), c.FFTNum)
	}
	return nil
}
