// Package matcher ties the three engines together into a keyword matcher:
// the VAD segments the stream, the MFCC front-end turns each segment into
// a feature matrix, and the DTW distance compares it against an enrolled
// reference.
//
// Two flows are supported. Match compares a complete captured segment in
// one call. Feed is the streaming flow: MFCC frames are computed
// incrementally while the VAD is still deciding, the pre-speech window is
// trimmed as silence rolls by, and the decision lands as soon as the
// segment completes (or the frame budget runs out) without re-reading the
// audio.
package matcher

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/MechaUma/SimpleVox/pkg/audio"
	"github.com/MechaUma/SimpleVox/pkg/dtw"
	"github.com/MechaUma/SimpleVox/pkg/mfcc"
	"github.com/MechaUma/SimpleVox/pkg/trace"
	"github.com/MechaUma/SimpleVox/pkg/vad"
)

// Config holds the matcher parameters.
type Config struct {
	// Mfcc configures the feature front-end.
	Mfcc mfcc.Config

	// Vad configures the segmenter. Must share Mfcc's sample rate.
	Vad vad.Config

	// Threshold is the DTW distance below which a segment counts as a
	// match. Needs tuning per keyword and speaker.
	Threshold uint32

	// MaxSegmentMs caps the audio converted to features for one
	// decision. Segments still in Speech when the cap is reached are
	// judged from what was captured.
	MaxSegmentMs int
}

// DefaultConfig returns matcher defaults for 16 kHz audio.
func DefaultConfig() Config {
	return Config{
		Mfcc:         mfcc.DefaultConfig(),
		Vad:          vad.DefaultConfig(),
		Threshold:    180,
		MaxSegmentMs: 3000,
	}
}

// IsValid validates the configuration.
func (c Config) IsValid() error {
	if err := c.Mfcc.IsValid(); err != nil {
		return err
	}
	if err := c.Vad.IsValid(); err != nil {
		return err
	}
	if c.Mfcc.SampleRate != c.Vad.SampleRate {
		return fmt.Errorf("sample rate mismatch: mfcc %d, vad %d", c.Mfcc.SampleRate, c.Vad.SampleRate)
	}
	if c.Threshold == 0 {
		return fmt.Errorf("invalid Threshold 0")
	}
	if c.MaxSegmentMs*c.Mfcc.SampleRate/1000 < c.Mfcc.FrameLength() {
		return fmt.Errorf("MaxSegmentMs %d shorter than one analysis frame", c.MaxSegmentMs)
	}
	return nil
}

// Result is one segment decision.
type Result struct {
	// SegmentID identifies the segment across logs and traces.
	SegmentID string

	// Distance is the DTW distance to the reference, or dtw.Invalid
	// when no comparison was possible.
	Distance uint32

	// Matched reports whether Distance passed the threshold.
	Matched bool

	// Feature is the segment's feature matrix. Callers may keep it, for
	// example to enroll it as the new reference.
	Feature *mfcc.Feature

	// State is the VAD state at decision time.
	State vad.State
}

// Matcher runs the detection pipeline. Not safe for concurrent use.
type Matcher struct {
	cfg Config

	mfccEngine *mfcc.Engine
	vadEngine  *vad.Engine
	reference  *mfcc.Feature

	// PreFilter, when set, is applied in place to every frame before
	// segmentation. Hook for an external noise suppressor.
	PreFilter func(frame []int16)

	pending    *audio.SampleQueue // raw samples awaiting feature extraction
	frameBuf   []int16            // one analysis frame, reused
	feats      []float32          // growing coefficient matrix
	featCount  int
	maxFrames  int
	keepFrames int // pre-speech MFCC frames retained while state < Speech
}

func divCeil(dividend, divisor int) int {
	return (dividend + divisor - 1) / divisor
}

// New creates a matcher and initializes both engines. A nil classifier
// selects the built-in energy classifier.
func New(cfg Config, classifier vad.Classifier) (*Matcher, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("matcher config: %w", err)
	}

	m := &Matcher{cfg: cfg}

	m.mfccEngine = &mfcc.Engine{}
	if err := m.mfccEngine.Init(cfg.Mfcc); err != nil {
		return nil, err
	}

	m.vadEngine = &vad.Engine{}
	if err := m.vadEngine.Init(cfg.Vad, classifier); err != nil {
		m.mfccEngine.Deinit()
		return nil, err
	}

	frameLength := cfg.Mfcc.FrameLength()
	hopLength := cfg.Mfcc.HopLength()
	maxSamples := cfg.MaxSegmentMs * cfg.Mfcc.SampleRate / 1000

	m.pending = audio.NewSampleQueue(frameLength + cfg.Vad.FrameLength())
	m.frameBuf = make([]int16, frameLength)
	m.maxFrames = (maxSamples - (frameLength - hopLength)) / hopLength
	m.feats = make([]float32, m.maxFrames*cfg.Mfcc.CoefNum)

	// Audio retained ahead of a committed segment: the hangbefore window
	// plus the frames spent inside the decision window, in MFCC frames.
	vadFrame := cfg.Vad.FrameLength()
	keepSamples := vadFrame * (divCeil(cfg.Vad.BeforeLength(), vadFrame) + divCeil(cfg.Vad.DecisionLength(), vadFrame))
	m.keepFrames = (keepSamples - (frameLength - hopLength)) / hopLength
	if m.keepFrames < 1 {
		m.keepFrames = 1
	}
	return m, nil
}

// Close releases both engines.
func (m *Matcher) Close() {
	m.vadEngine.Deinit()
	m.mfccEngine.Deinit()
}

// Config returns the configuration the matcher was created with.
func (m *Matcher) Config() Config { return m.cfg }

// State returns the segmenter's current state.
func (m *Matcher) State() vad.State { return m.vadEngine.State() }

// Reference returns the enrolled reference feature, if any.
func (m *Matcher) Reference() *mfcc.Feature { return m.reference }

// SetReference installs a previously built feature as the reference.
func (m *Matcher) SetReference(f *mfcc.Feature) { m.reference = f }

// Enroll builds the reference feature from a captured keyword utterance.
func (m *Matcher) Enroll(ctx context.Context, pcm []int16) (*mfcc.Feature, error) {
	_, span := trace.StartSpan(ctx, "matcher.Enroll")
	defer span.End()

	feature, err := m.mfccEngine.CreateFromAudio(pcm)
	if err != nil {
		trace.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(trace.FeatureAttrs(feature.Frames(), feature.Dim())...)

	m.reference = feature
	log.Printf("[matcher] enrolled reference: %d frames x %d coefficients", feature.Frames(), feature.Dim())
	return feature, nil
}

// Match compares one complete segment against the reference.
func (m *Matcher) Match(ctx context.Context, pcm []int16) (*Result, error) {
	_, span := trace.StartSpan(ctx, "matcher.Match")
	defer span.End()

	if m.reference == nil {
		err := fmt.Errorf("no reference enrolled")
		trace.RecordError(span, err)
		return nil, err
	}

	feature, err := m.mfccEngine.CreateFromAudio(pcm)
	if err != nil {
		trace.RecordError(span, err)
		return nil, err
	}

	return m.judge(span, feature), nil
}

// Feed advances the streaming flow by one VAD frame (10 ms at the
// configured rate). It returns a Result when a segment decision was made
// on this frame and nil otherwise. After a Result the matcher has already
// reset itself and keeps listening.
func (m *Matcher) Feed(ctx context.Context, frame []int16) (*Result, error) {
	if len(frame) != m.cfg.Vad.FrameLength() {
		return nil, fmt.Errorf("frame length %d, want %d", len(frame), m.cfg.Vad.FrameLength())
	}

	if m.PreFilter != nil {
		m.PreFilter(frame)
	}

	state := m.vadEngine.Process(frame)

	// Anything from Silence on may end up inside the segment.
	if state >= vad.StateSilence {
		m.pending.Push(frame)
	}

	frameLength := m.cfg.Mfcc.FrameLength()
	hopLength := m.cfg.Mfcc.HopLength()
	coefNum := m.cfg.Mfcc.CoefNum

	for m.pending.Len() >= frameLength && m.featCount < m.maxFrames {
		m.pending.Peek(m.frameBuf, frameLength)
		m.mfccEngine.Calculate(m.frameBuf, m.feats[m.featCount*coefNum:(m.featCount+1)*coefNum])
		m.featCount++
		m.pending.Pop(hopLength)
	}

	// Until the segment is committed, keep only the pre-speech window.
	if state < vad.StateSpeech && m.featCount > m.keepFrames {
		shift := m.featCount - m.keepFrames
		copy(m.feats, m.feats[shift*coefNum:m.featCount*coefNum])
		m.featCount -= shift
	}

	if state == vad.StateDetected || (state >= vad.StateSpeech && m.featCount >= m.maxFrames) {
		_, span := trace.StartSpan(ctx, "matcher.Segment")
		defer span.End()

		feature, err := m.mfccEngine.CreateFromFloatMatrix(m.feats, m.featCount, coefNum)
		m.resetStream()
		if err != nil {
			trace.RecordError(span, err)
			return nil, err
		}

		result := m.judge(span, feature)
		result.State = state
		return result, nil
	}
	return nil, nil
}

// Reset drops any in-flight segment and returns the matcher to listening.
func (m *Matcher) Reset() {
	m.resetStream()
}

func (m *Matcher) resetStream() {
	m.pending.Reset()
	m.featCount = 0
	m.vadEngine.Reset()
}

// judge compares a segment feature against the reference and assembles
// the Result.
func (m *Matcher) judge(span oteltrace.Span, feature *mfcc.Feature) *Result {
	segmentID := uuid.New().String()

	distance := uint32(dtw.Invalid)
	if m.reference != nil {
		distance = dtw.Distance(m.reference, feature)
	}
	matched := distance < m.cfg.Threshold

	span.SetAttributes(trace.SegmentAttrs(segmentID, feature.Frames())...)
	span.SetAttributes(trace.MatchAttrs(distance, m.cfg.Threshold, matched)...)

	log.Printf("[matcher] segment %s: %d frames, distance %d, matched=%v",
		segmentID, feature.Frames(), distance, matched)

	return &Result{
		SegmentID: segmentID,
		Distance:  distance,
		Matched:   matched,
		Feature:   feature,
	}
}
