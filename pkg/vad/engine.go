package vad

import (
	"fmt"
	"log"
)

// State is the segmentation state of the engine. The ordering is part of
// the contract: clients compare with >= (for example State >= Speech means
// a segment is being captured).
type State int

const (
	StateWarmup State = iota
	StateSetup
	StateSilence
	// StatePreDetection: judging whether the trigger was momentary noise.
	StatePreDetection
	// StateSpeech: speech is being captured.
	StateSpeech
	// StatePostDetection: judging whether speech ended or merely paused.
	StatePostDetection
	StateDetected
)

func (s State) String() string {
	switch s {
	case StateWarmup:
		return "Warmup"
	case StateSetup:
		return "Setup"
	case StateSilence:
		return "Silence"
	case StatePreDetection:
		return "PreDetection"
	case StateSpeech:
		return "Speech"
	case StatePostDetection:
		return "PostDetection"
	case StateDetected:
		return "Detected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// FrameTimeMs is the fixed classifier frame length in milliseconds.
const FrameTimeMs = 10

// Config holds the segmentation parameters. All times are milliseconds.
type Config struct {
	// WarmupTimeMs is audio discarded at start, for microphones whose
	// hardware needs settling time.
	WarmupTimeMs int

	// HangbeforeMs is audio retained from before speech onset.
	HangbeforeMs int

	// DecisionTimeMs is how long speech must persist before the segment
	// is committed to.
	DecisionTimeMs int

	// HangoverMs is how long silence must persist before the segment is
	// considered finished.
	HangoverMs int

	// SampleRate of the input audio. 8000 or 16000 Hz.
	SampleRate int

	// Mode is the classifier aggression level.
	Mode Mode
}

// DefaultConfig returns the default segmentation parameters for 16 kHz.
func DefaultConfig() Config {
	return Config{
		WarmupTimeMs:   0,
		HangbeforeMs:   100,
		DecisionTimeMs: 200,
		HangoverMs:     200,
		SampleRate:     16000,
		Mode:           AggressionLV0,
	}
}

// FrameLength returns the classifier frame length in samples.
func (c Config) FrameLength() int { return FrameTimeMs * c.SampleRate / 1000 }

// WarmupLength returns the warmup time in samples.
func (c Config) WarmupLength() int { return c.WarmupTimeMs * c.SampleRate / 1000 }

// BeforeLength returns the hangbefore time in samples.
func (c Config) BeforeLength() int { return c.HangbeforeMs * c.SampleRate / 1000 }

// DecisionLength returns the decision time in samples.
func (c Config) DecisionLength() int { return c.DecisionTimeMs * c.SampleRate / 1000 }

// OverLength returns the hangover time in samples.
func (c Config) OverLength() int { return c.HangoverMs * c.SampleRate / 1000 }

// IsValid validates the configuration.
func (c Config) IsValid() error {
	if c.SampleRate != 8000 && c.SampleRate != 16000 {
		return fmt.Errorf("invalid SampleRate %d: valid values are 8000 and 16000", c.SampleRate)
	}
	if c.WarmupTimeMs < 0 {
		return fmt.Errorf("invalid WarmupTimeMs %d", c.WarmupTimeMs)
	}
	if c.HangbeforeMs < 0 || c.DecisionTimeMs < 0 || c.HangoverMs < 0 {
		return fmt.Errorf("invalid timers: hangbefore=%d decision=%d hangover=%d",
			c.HangbeforeMs, c.DecisionTimeMs, c.HangoverMs)
	}
	if c.Mode < AggressionLV0 || c.Mode > AggressionLV4 {
		return fmt.Errorf("invalid Mode %d", c.Mode)
	}
	return nil
}

// Engine is the six-state segmentation controller. Not safe for
// concurrent use.
type Engine struct {
	classifier Classifier
	cfg        Config

	state                  State
	stateCount             int // frames since entering the current state
	frameCount             int // frames included in the growing segment
	hasSatisfiedHangbefore bool
}

// Config returns the configuration the engine was initialized with.
func (e *Engine) Config() Config { return e.cfg }

// State returns the current segmentation state.
func (e *Engine) State() State { return e.state }

// Init prepares the engine with the given classifier. A nil classifier
// selects the built-in energy classifier at the configured aggression
// level. Init fails on an already initialized engine.
func (e *Engine) Init(cfg Config, classifier Classifier) error {
	if e.classifier != nil {
		return fmt.Errorf("vad engine already initialized")
	}
	if err := cfg.IsValid(); err != nil {
		return fmt.Errorf("vad config: %w", err)
	}

	if classifier == nil {
		classifier = NewEnergyClassifier(cfg.SampleRate, cfg.Mode)
	}

	e.classifier = classifier
	e.cfg = cfg
	e.Reset()
	return nil
}

// Deinit destroys the classifier and releases the engine.
func (e *Engine) Deinit() {
	if e.classifier == nil {
		return
	}
	if err := e.classifier.Destroy(); err != nil {
		log.Printf("[vad] classifier destroy: %v", err)
	}
	e.classifier = nil
}

// Reset returns the engine to Warmup with all counters cleared. Required
// before a new detection after a segment completes.
func (e *Engine) Reset() {
	e.frameCount = 0
	e.stateCount = 0
	e.hasSatisfiedHangbefore = false
	e.state = StateWarmup
	if e.classifier != nil {
		if err := e.classifier.Reset(); err != nil {
			log.Printf("[vad] classifier reset: %v", err)
		}
	}
}

func divCeil(dividend, divisor int) int {
	return (dividend + divisor - 1) / divisor
}

// Process advances the state machine by one frame and returns the
// post-transition state. frame must hold exactly Config().FrameLength()
// samples. The classifier is consulted only once the hangbefore window
// has been satisfied; before that every frame counts as non-speech.
func (e *Engine) Process(frame []int16) State {
	frameLength := e.cfg.FrameLength()

	e.stateCount++
	stateLength := frameLength * e.stateCount

	isSpeech := false
	if e.hasSatisfiedHangbefore {
		speech, err := e.classifier.Classify(frame)
		if err != nil {
			log.Printf("[vad] classify: %v", err)
		} else {
			isSpeech = speech
		}
	}

	switch e.state {
	case StateWarmup:
		if stateLength >= e.cfg.WarmupLength() {
			e.stateCount = 0
			e.state = StateSetup
		}
	case StateSetup:
		e.stateCount = 0
		e.state = StateSilence
	case StateSilence:
		if !e.hasSatisfiedHangbefore {
			e.frameCount++
			if stateLength >= e.cfg.BeforeLength() {
				e.hasSatisfiedHangbefore = true
			}
			break
		}
		if isSpeech {
			e.stateCount = 0
			e.frameCount++
			e.state = StatePreDetection
		}
	case StatePreDetection:
		if isSpeech {
			passCount := divCeil(e.cfg.DecisionLength(), frameLength)
			e.frameCount++
			if e.stateCount >= passCount {
				e.stateCount = 0
				e.state = StateSpeech
			}
		} else {
			// Momentary noise: retract the tentative frames.
			e.frameCount -= e.stateCount
			e.stateCount = 0
			e.state = StateSilence
		}
	case StateSpeech:
		e.frameCount++
		if !isSpeech {
			e.stateCount = 0
			e.state = StatePostDetection
		}
	case StatePostDetection:
		e.frameCount++
		if isSpeech {
			e.stateCount = 0
			e.state = StateSpeech
		} else {
			overCount := divCeil(e.cfg.OverLength(), frameLength)
			if e.stateCount >= overCount {
				e.stateCount = 0
				e.state = StateDetected
			}
		}
	case StateDetected:
		// NOP
	default:
		e.stateCount = 0
		e.frameCount = 0
		e.state = StateWarmup
	}
	return e.state
}

// Detect advances the state machine like Process while keeping a
// contiguous copy of the in-segment audio at dest[0 : frameLength*frameCount].
// It returns the detected segment length in samples once the state reaches
// Detected, or a negative value while detection is still in progress.
//
// When dest cannot hold one more frame, the frame is not processed: Detect
// returns the current segment length if the segment is already committed
// (state >= Speech), otherwise -1.
func (e *Engine) Detect(dest []int16, frame []int16) int {
	frameLength := e.cfg.FrameLength()
	soundLength := frameLength * e.frameCount

	if e.state == StateDetected {
		return soundLength
	}

	if len(dest) < soundLength+frameLength {
		if e.state >= StateSpeech {
			return soundLength
		}
		return -1
	}

	prevFrameCount := e.frameCount
	state := e.Process(frame)

	if prevFrameCount+1 == e.frameCount {
		copy(dest[soundLength:], frame[:frameLength])
	} else if state == StateSilence && prevFrameCount >= e.frameCount {
		// Still in Silence without growth: a retract from PreDetection, or
		// one more silence frame once the hangbefore window is full. Drop
		// the oldest frames at the head and append this one, so dest holds
		// the most recent frameCount frames. When the retained prefix is no
		// longer than the shift (Setup -> Silence), there is nothing to move.
		shiftCount := prevFrameCount - e.frameCount + 1
		shiftLength := frameLength * shiftCount
		if soundLength > shiftLength {
			copy(dest, dest[shiftLength:soundLength])
			copy(dest[soundLength-shiftLength:], frame[:frameLength])
		}
	}

	if state == StateDetected {
		return frameLength * e.frameCount
	}
	return -1
}
