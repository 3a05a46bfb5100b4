package vad

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineFrame(length int, amplitude float64) []int16 {
	frame := make([]int16, length)
	for i := range frame {
		frame[i] = int16(amplitude * math.Sin(2*math.Pi*float64(i)/32))
	}
	return frame
}

func TestEnergyClassifierQuietIsNotSpeech(t *testing.T) {
	c := NewEnergyClassifier(16000, AggressionLV0)
	quiet := sineFrame(160, 20)

	for i := 0; i < 20; i++ {
		speech, err := c.Classify(quiet)
		require.NoError(t, err)
		assert.False(t, speech, "frame %d", i)
	}
}

func TestEnergyClassifierDetectsLoudOnset(t *testing.T) {
	c := NewEnergyClassifier(16000, AggressionLV0)
	quiet := sineFrame(160, 20)
	loud := sineFrame(160, 8000)

	for i := 0; i < 10; i++ {
		c.Classify(quiet)
	}
	speech, err := c.Classify(loud)
	require.NoError(t, err)
	assert.True(t, speech)
}

func TestEnergyClassifierAggressionOrdering(t *testing.T) {
	// A frame just above the permissive threshold: LV0 fires, LV4 does
	// not, given the same quiet history.
	quiet := sineFrame(160, 200)
	borderline := sineFrame(160, 400)

	classify := func(mode Mode) bool {
		c := NewEnergyClassifier(16000, mode)
		for i := 0; i < 10; i++ {
			c.Classify(quiet)
		}
		speech, err := c.Classify(borderline)
		require.NoError(t, err)
		return speech
	}

	assert.True(t, classify(AggressionLV0))
	assert.False(t, classify(AggressionLV4))
}

func TestEnergyClassifierReset(t *testing.T) {
	c := NewEnergyClassifier(16000, AggressionLV0)
	loud := sineFrame(160, 8000)

	// First frame after reset only primes the floor.
	c.Classify(loud)
	require.NoError(t, c.Reset())
	speech, err := c.Classify(loud)
	require.NoError(t, err)
	assert.False(t, speech)
}
