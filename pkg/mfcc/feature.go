package mfcc

// Feature is an immutable matrix of standardised, quantised cepstral
// coefficients for one utterance. Values are the standardised coefficients
// multiplied by 1000 and saturated to the int16 range.
type Feature struct {
	frameNum int
	coefNum  int
	data     []int16
}

func newFeature(frameNum, coefNum int) *Feature {
	return &Feature{
		frameNum: frameNum,
		coefNum:  coefNum,
		data:     make([]int16, frameNum*coefNum),
	}
}

// Frames returns the number of feature frames.
func (f *Feature) Frames() int { return f.frameNum }

// Dim returns the dimension of each frame (the coefficient count).
func (f *Feature) Dim() int { return f.coefNum }

// Row returns the coefficients of frame i.
func (f *Feature) Row(i int) []int16 {
	return f.data[i*f.coefNum : (i+1)*f.coefNum]
}
