package matcher

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MechaUma/SimpleVox/pkg/dtw"
	"github.com/MechaUma/SimpleVox/pkg/vad"
)

func newTestMatcher(t *testing.T) (*Matcher, *bool) {
	t.Helper()
	speech := new(bool)
	classifier := &vad.MockClassifier{
		ClassifyFunc: func(frame []int16) (bool, error) {
			return *speech, nil
		},
	}
	m, err := New(DefaultConfig(), classifier)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m, speech
}

func sinePCM(samples, sampleRate int) []int16 {
	pcm := make([]int16, samples)
	for i := range pcm {
		pcm[i] = int16(8000 * math.Sin(2*math.Pi*1000*float64(i)/float64(sampleRate)))
	}
	return pcm
}

func TestConfigValidation(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.IsValid())

	cfg.Vad.SampleRate = 8000
	assert.Error(t, cfg.IsValid(), "sample rate mismatch must be rejected")

	cfg = DefaultConfig()
	cfg.Threshold = 0
	assert.Error(t, cfg.IsValid())

	cfg = DefaultConfig()
	cfg.MaxSegmentMs = 10
	assert.Error(t, cfg.IsValid())
}

func TestEnrollThenMatchIdentity(t *testing.T) {
	m, _ := newTestMatcher(t)
	ctx := context.Background()

	pcm := sinePCM(16000, 16000)
	feature, err := m.Enroll(ctx, pcm)
	require.NoError(t, err)
	require.NotNil(t, feature)
	assert.Same(t, feature, m.Reference())

	result, err := m.Match(ctx, pcm)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), result.Distance)
	assert.True(t, result.Matched)
	assert.NotEmpty(t, result.SegmentID)
}

func TestMatchWithoutReference(t *testing.T) {
	m, _ := newTestMatcher(t)

	_, err := m.Match(context.Background(), sinePCM(16000, 16000))
	assert.Error(t, err)
}

func TestEnrollTooShort(t *testing.T) {
	m, _ := newTestMatcher(t)

	_, err := m.Enroll(context.Background(), make([]int16, 100))
	assert.Error(t, err)
}

func TestFeedRejectsWrongFrameLength(t *testing.T) {
	m, _ := newTestMatcher(t)

	_, err := m.Feed(context.Background(), make([]int16, 99))
	assert.Error(t, err)
}

// TestFeedStreamingDetection drives the full streaming flow: silence,
// a burst of "speech", then silence again, and expects one segment
// decision when the VAD completes.
func TestFeedStreamingDetection(t *testing.T) {
	m, speech := newTestMatcher(t)
	ctx := context.Background()

	_, err := m.Enroll(ctx, sinePCM(16000, 16000))
	require.NoError(t, err)

	frameLength := m.cfg.Vad.FrameLength()
	silence := make([]int16, frameLength)
	tone := sinePCM(frameLength, 16000)

	var result *Result
	feed := func(n int, frame []int16, isSpeech bool) {
		t.Helper()
		*speech = isSpeech
		for i := 0; i < n && result == nil; i++ {
			r, err := m.Feed(ctx, frame)
			require.NoError(t, err)
			result = r
		}
	}

	feed(60, silence, false)
	require.Nil(t, result, "no decision during silence")

	feed(40, tone, true)
	require.Nil(t, result, "no decision while speech continues")

	feed(40, silence, false)
	require.NotNil(t, result, "hangover must complete the segment")

	assert.Equal(t, vad.StateDetected, result.State)
	assert.NotNil(t, result.Feature)
	assert.Equal(t, m.cfg.Mfcc.CoefNum, result.Feature.Dim())
	assert.NotEqual(t, uint32(dtw.Invalid), result.Distance)
	assert.NotEmpty(t, result.SegmentID)

	// The matcher resets itself after a decision and keeps listening.
	assert.Equal(t, vad.StateWarmup, m.State())
	r, err := m.Feed(ctx, silence)
	require.NoError(t, err)
	assert.Nil(t, r)
}

// TestFeedDecisionWithoutReference still emits a segment, flagged as
// incomparable, so callers can enroll from the stream.
func TestFeedDecisionWithoutReference(t *testing.T) {
	m, speech := newTestMatcher(t)
	ctx := context.Background()

	frameLength := m.cfg.Vad.FrameLength()
	silence := make([]int16, frameLength)
	tone := sinePCM(frameLength, 16000)

	var result *Result
	feedUntil := func(n int, frame []int16, isSpeech bool) {
		*speech = isSpeech
		for i := 0; i < n && result == nil; i++ {
			r, err := m.Feed(ctx, frame)
			require.NoError(t, err)
			result = r
		}
	}

	feedUntil(60, silence, false)
	feedUntil(40, tone, true)
	feedUntil(40, silence, false)

	require.NotNil(t, result)
	assert.Equal(t, uint32(dtw.Invalid), result.Distance)
	assert.False(t, result.Matched)
	assert.NotNil(t, result.Feature)
}

func TestPreFilterRuns(t *testing.T) {
	m, _ := newTestMatcher(t)

	called := 0
	m.PreFilter = func(frame []int16) { called++ }

	_, err := m.Feed(context.Background(), make([]int16, m.cfg.Vad.FrameLength()))
	require.NoError(t, err)
	assert.Equal(t, 1, called)
}
