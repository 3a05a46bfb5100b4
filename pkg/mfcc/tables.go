package mfcc

import "math"

// hammingWindow builds a Hamming window of the given length, scaled by
// windowScale so it can be stored as int16.
func hammingWindow(length int) []int16 {
	window := make([]int16, length)
	for i := range window {
		w := 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(length-1))
		window[i] = int16(math.Round(windowScale * w))
	}
	return window
}

func hzToMel(freq float64) float64 {
	return 2595.0 * math.Log(freq/700.0+1.0)
}

func melToHz(mel float64) float64 {
	return 700.0 * (math.Exp(mel/2595.0) - 1.0)
}

// melPositions builds the FFT-bin index of each mel triangle centre.
//
// Adjacent triangles share arms: the distance from one centre to its end
// equals the distance from the next triangle's start to its centre, so the
// centre positions alone determine every slope. The returned slice holds
// the start bin (0), the channelNum centres, and the end bin (fftNum/2).
func melPositions(sampleRate, fftNum, channelNum int) []int16 {
	nyquist := float64(sampleRate) / 2
	melNyquist := hzToMel(nyquist)
	deltaMel := melNyquist / float64(channelNum+1)
	deltaFreq := float64(sampleRate) / float64(fftNum)

	position := make([]int16, channelNum+2)
	for i := 1; i <= channelNum; i++ {
		centerFreq := melToHz(float64(i) * deltaMel)
		position[i] = int16(math.Round(centerFreq / deltaFreq))
	}
	position[0] = 0
	position[channelNum+1] = int16(fftNum / 2)
	return position
}

// dctTable builds the DCT-II basis scaled by dctScale. Row i holds the
// basis for coefficient i+1; coefficient 0 is the DC term and is skipped.
func dctTable(coefNum, melChannels int) []int16 {
	table := make([]int16, coefNum*melChannels)
	for i := 0; i < coefNum; i++ {
		for j := 0; j < melChannels; j++ {
			v := math.Cos(math.Pi / float64(melChannels) * (float64(j) + 0.5) * float64(i+1))
			table[i*melChannels+j] = int16(math.Round(dctScale * v))
		}
	}
	return table
}
