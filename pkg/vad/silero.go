//go:build vad

package vad

import (
	"fmt"

	"github.com/streamer45/silero-vad-go/speech"
)

// sileroWindow is the inference window the Silero model expects at 16 kHz.
const sileroWindow = 512

// Aggression level probability thresholds for the Silero model.
var sileroThresholds = [5]float32{0.3, 0.4, 0.5, 0.65, 0.8}

// SileroClassifier adapts the Silero VAD model to the per-frame Classifier
// interface. Incoming 10 ms frames are buffered to the model's window
// size; the most recent model decision is reported until the next window
// completes, so decisions lag the stream by up to one window.
type SileroClassifier struct {
	detector  *speech.Detector
	buf       []float32
	threshold float32
	speaking  bool
}

// SileroClassifierConfig configures the adapter.
type SileroClassifierConfig struct {
	// ModelPath locates the silero_vad.onnx model file.
	ModelPath string
	// SampleRate of the input audio. The model supports 8000 and 16000.
	SampleRate int
	// Mode maps to a model probability threshold.
	Mode Mode
}

// NewSileroClassifier creates a classifier backed by the Silero model.
func NewSileroClassifier(cfg SileroClassifierConfig) (*SileroClassifier, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("silero classifier: model path is required")
	}
	if cfg.Mode < AggressionLV0 || cfg.Mode > AggressionLV4 {
		return nil, fmt.Errorf("silero classifier: invalid mode %d", cfg.Mode)
	}

	threshold := sileroThresholds[cfg.Mode]
	detector, err := speech.NewDetector(speech.DetectorConfig{
		ModelPath:  cfg.ModelPath,
		SampleRate: cfg.SampleRate,
		Threshold:  threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("silero classifier: %w", err)
	}

	return &SileroClassifier{
		detector:  detector,
		buf:       make([]float32, 0, sileroWindow),
		threshold: threshold,
	}, nil
}

// Classify implements Classifier.
func (c *SileroClassifier) Classify(frame []int16) (bool, error) {
	for _, s := range frame {
		c.buf = append(c.buf, float32(s)/32768)
	}
	for len(c.buf) >= sileroWindow {
		window := c.buf[:sileroWindow]
		segments, err := c.detector.Detect(window)
		if err != nil {
			return c.speaking, fmt.Errorf("silero classifier: %w", err)
		}
		for _, seg := range segments {
			if seg.SpeechStartAt > 0 {
				c.speaking = true
			}
			if seg.SpeechEndAt > 0 {
				c.speaking = false
			}
		}
		c.buf = c.buf[sileroWindow:]
	}
	return c.speaking, nil
}

// Reset implements Classifier.
func (c *SileroClassifier) Reset() error {
	c.buf = c.buf[:0]
	c.speaking = false
	return c.detector.Reset()
}

// Destroy implements Classifier.
func (c *SileroClassifier) Destroy() error {
	return c.detector.Destroy()
}
