package vad

import "math"

// Aggression level thresholds: how far above the noise floor a frame's
// energy must sit before it counts as speech.
var energyRatios = [5]float64{2.0, 3.0, 4.5, 6.5, 9.0}

// energyAbsFloor rejects frames that are quiet in absolute terms no
// matter what the noise floor has adapted to. Roughly -54 dBFS mean power.
const energyAbsFloor = 4096

// EnergyClassifier is the built-in per-frame classifier: a short-term
// energy detector with an adaptive noise floor. It is deliberately simple;
// callers needing a stronger front line can plug any Classifier (for
// example the silero adapter built with the "vad" tag).
type EnergyClassifier struct {
	sampleRate int
	ratio      float64
	noiseFloor float64
	primed     bool
}

// NewEnergyClassifier creates an energy classifier for the given sample
// rate and aggression level.
func NewEnergyClassifier(sampleRate int, mode Mode) *EnergyClassifier {
	ratio := energyRatios[0]
	if mode >= AggressionLV0 && mode <= AggressionLV4 {
		ratio = energyRatios[mode]
	}
	return &EnergyClassifier{
		sampleRate: sampleRate,
		ratio:      ratio,
	}
}

// Classify implements Classifier. The noise floor tracks frame energy
// quickly downward and slowly upward, so brief speech cannot drag the
// floor up while quiet passages re-anchor it.
func (c *EnergyClassifier) Classify(frame []int16) (bool, error) {
	var sum float64
	for _, s := range frame {
		v := float64(s)
		sum += v * v
	}
	energy := sum / float64(len(frame))

	if !c.primed {
		c.noiseFloor = energy
		c.primed = true
		return false, nil
	}

	if energy < c.noiseFloor {
		c.noiseFloor += (energy - c.noiseFloor) * 0.5
	} else {
		c.noiseFloor += (energy - c.noiseFloor) * 0.01
	}
	if c.noiseFloor < 1 {
		c.noiseFloor = 1
	}

	threshold := math.Max(c.noiseFloor*c.ratio, energyAbsFloor)
	return energy > threshold, nil
}

// Reset implements Classifier.
func (c *EnergyClassifier) Reset() error {
	c.noiseFloor = 0
	c.primed = false
	return nil
}

// Destroy implements Classifier.
func (c *EnergyClassifier) Destroy() error {
	return nil
}
