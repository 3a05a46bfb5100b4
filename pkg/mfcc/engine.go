// Package mfcc implements the MFCC front-end: per-frame cepstral analysis
// with fixed-point tables, whole-utterance standardisation into quantised
// int16 features, and a versioned binary file codec.
//
// The engine holds precomputed tables (Hamming window, mel filter positions,
// DCT-II basis) scaled to int16, and a process-wide real-FFT driver from
// pkg/dsp. Init acquires everything or nothing; Deinit releases the tables
// and the FFT driver.
package mfcc

import (
	"fmt"
	"log"
	"math"

	"github.com/MechaUma/SimpleVox/pkg/dsp"
)

// melFloor keeps zero-energy mel bins out of the log. Without it a silent
// bin would produce -Inf and poison the standardisation pass.
const melFloor = 1e-10

// Engine computes MFCC features. Valid only between Init and Deinit.
// An Engine is not safe for concurrent use; distinct engines contend for
// the process-wide FFT driver.
type Engine struct {
	cfg Config

	window      []int16 // Hamming window, scaled by windowScale
	melPosition []int16 // FFT-bin index of each filter triangle centre
	dctIITable  []int16 // DCT-II basis, scaled by dctScale

	melData []float32 // mel spectrum scratch, MelChannels long
	fftData []float32 // FFT scratch, FFTNum long
}

// Config returns the configuration the engine was initialized with.
func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) release() {
	e.fftData = nil
	e.melData = nil
	e.dctIITable = nil
	e.melPosition = nil
	e.window = nil
}

// Init prepares the engine. It validates the configuration, builds the
// fixed-point tables and acquires the FFT driver. On any failure all
// previously built state is released and the engine stays unusable.
func (e *Engine) Init(cfg Config) error {
	if err := cfg.IsValid(); err != nil {
		return fmt.Errorf("mfcc config: %w", err)
	}

	e.window = hammingWindow(cfg.FrameLength())
	e.melPosition = melPositions(cfg.SampleRate, cfg.FFTNum, cfg.MelChannels)
	e.dctIITable = dctTable(cfg.CoefNum, cfg.MelChannels)
	e.melData = make([]float32, cfg.MelChannels)
	e.fftData = make([]float32, cfg.FFTNum)

	if err := dsp.Init(cfg.FFTNum); err != nil {
		e.release()
		return fmt.Errorf("fft driver: %w", err)
	}

	e.cfg = cfg
	return nil
}

// Deinit releases the tables and the FFT driver. Safe to call on an
// uninitialized engine.
func (e *Engine) Deinit() {
	if e.dctIITable == nil {
		return
	}
	dsp.Deinit()
	e.release()
}

// Calculate computes the MFCC of a single frame. frame must hold
// Config().FrameLength() samples; out receives Config().CoefNum values.
func (e *Engine) Calculate(frame []int16, out []float32) {
	frameLength := e.cfg.FrameLength()
	fftNum := e.cfg.FFTNum

	// Pre-emphasis and windowing. The emphasis term uses integer division
	// and prev tracks the unemphasised sample; both are load-bearing for
	// compatibility with existing recordings.
	preEmphasis := e.cfg.PreEmphasis
	prev := 0
	for i := 0; i < frameLength; i++ {
		cur := int(frame[i])
		emphasised := float32(cur - preEmphasis*prev/preEmphaScale)
		e.fftData[i] = emphasised * float32(e.window[i]) / windowScale
		prev = cur
	}
	for i := frameLength; i < fftNum; i++ {
		e.fftData[i] = 0
	}

	if err := dsp.RealForward(e.fftData); err != nil {
		log.Printf("[mfcc] fft: %v", err)
		for i := range out[:e.cfg.CoefNum] {
			out[i] = 0
		}
		return
	}

	// Power spectrum, in place. The read index stays ahead of the write
	// index so the overwrite never races the packed spectrum.
	powerSpectrum := e.fftData
	for k := 0; k < fftNum/2; k++ {
		re := e.fftData[2*k]
		im := e.fftData[2*k+1]
		powerSpectrum[k] = re*re + im*im
	}

	melChannels := e.cfg.MelChannels
	applyMelFilter(powerSpectrum, e.melPosition, melChannels, e.melData)

	logmel := e.melData
	for i := 0; i < melChannels; i++ {
		v := e.melData[i]
		if v < melFloor {
			v = melFloor
		}
		logmel[i] = 10 * float32(math.Log10(float64(v)))
	}

	coefNum := e.cfg.CoefNum
	for i := 0; i < coefNum; i++ {
		dct := e.dctIITable[i*melChannels : (i+1)*melChannels]
		var acc float32
		for j := 0; j < melChannels; j++ {
			acc += logmel[j] * float32(dct[j]) / dctScale
		}
		out[i] = acc
	}
}

// applyMelFilter sums the power spectrum through each triangular filter.
// The rising arm grows from 0 to 1 with the increment added before each
// sample; the falling arm mirrors it. When two adjacent positions coincide
// the corresponding loop body never runs, so the infinite slope is never
// referenced.
func applyMelFilter(src []float32, melPosition []int16, channelNum int, dest []float32) {
	for i := 1; i <= channelNum; i++ {
		increment := 1 / float32(melPosition[i]-melPosition[i-1])
		coef := float32(0)
		dest[i-1] = 0
		for j := melPosition[i-1]; j < melPosition[i]; j++ {
			coef += increment
			dest[i-1] += coef * src[j]
		}
		decrement := 1 / float32(melPosition[i+1]-melPosition[i])
		for j := melPosition[i]; j < melPosition[i+1]; j++ {
			coef -= decrement
			dest[i-1] += coef * src[j]
		}
	}
}

// floatEpsilon is the smallest float32 step at 1.0, the all-equal-input
// cutoff for the variance.
const floatEpsilon = 1.1920929e-7

// normalize standardises src (frameNum x coefNum) to zero mean and unit
// variance, scales by normScale and saturates into dest. Most standardised
// values fall in -3..3, so the x1000 quantisation keeps three decimal
// digits inside int16; pathological inputs clip at the int16 bounds.
func normalize(src []float32, frameNum, coefNum int, dest []int16) {
	n := frameNum * coefNum

	var sum float32
	for _, v := range src[:n] {
		sum += v
	}
	mean := sum / float32(n)

	sum = 0
	for _, v := range src[:n] {
		d := v - mean
		sum += d * d
	}
	// All-equal input: use 1 to avoid dividing by zero.
	stddev := float32(1)
	if float32(math.Abs(float64(sum))) >= floatEpsilon {
		stddev = float32(math.Sqrt(float64(sum / float32(n))))
	}

	for i, v := range src[:n] {
		normalized := normScale * (v - mean) / stddev
		switch {
		case normalized < math.MinInt16:
			dest[i] = math.MinInt16
		case normalized > math.MaxInt16:
			dest[i] = math.MaxInt16
		default:
			dest[i] = int16(normalized)
		}
	}
}

// CreateFromAudio partitions raw PCM into frames, computes the MFCC of
// each and returns the standardised feature matrix. It fails when the
// audio is too short for a single frame.
func (e *Engine) CreateFromAudio(rawAudio []int16) (*Feature, error) {
	frameLength := e.cfg.FrameLength()
	hopLength := e.cfg.HopLength()
	coefNum := e.cfg.CoefNum

	frameNum := (len(rawAudio) - (frameLength - hopLength)) / hopLength
	if frameNum <= 0 {
		return nil, fmt.Errorf("audio too short: %d samples, need at least %d", len(rawAudio), frameLength)
	}

	temp := make([]float32, frameNum*coefNum)
	for f := 0; f < frameNum; f++ {
		frame := rawAudio[f*hopLength : f*hopLength+frameLength]
		e.Calculate(frame, temp[f*coefNum:(f+1)*coefNum])
	}

	return e.CreateFromFloatMatrix(temp, frameNum, coefNum)
}

// CreateFromFloatMatrix standardises an already computed float coefficient
// matrix into a quantised feature.
func (e *Engine) CreateFromFloatMatrix(mfccs []float32, frameNum, coefNum int) (*Feature, error) {
	if frameNum <= 0 || coefNum <= 0 || len(mfccs) < frameNum*coefNum {
		return nil, fmt.Errorf("invalid matrix: %d values for %dx%d", len(mfccs), frameNum, coefNum)
	}
	feature := newFeature(frameNum, coefNum)
	normalize(mfccs, frameNum, coefNum, feature.data)
	return feature, nil
}
