// Package dsp provides the real-FFT driver used by the MFCC front-end.
//
// The driver is process-wide: Init allocates the twiddle tables for a single
// transform length and Deinit releases them. Only one engine may hold the
// driver at a time; a second Init without an intervening Deinit fails.
//
// Usage:
//
//	if err := dsp.Init(512); err != nil {
//	    log.Fatal(err)
//	}
//	defer dsp.Deinit()
//
//	dsp.RealForward(buf) // buf holds 512 real samples in, packed spectrum out
package dsp

import (
	"fmt"
	"math"
	"sync"
)

var (
	mu       sync.Mutex
	fftSize  int
	twiddles []complex128
	scratch  []complex128
)

// Init prepares the driver for transforms of length fftNum.
// fftNum must be a power of two. Init fails if the driver is already held.
func Init(fftNum int) error {
	mu.Lock()
	defer mu.Unlock()

	if fftSize != 0 {
		return fmt.Errorf("fft driver already initialized (size %d)", fftSize)
	}
	if fftNum <= 0 || !IsPowerOfTwo(fftNum) {
		return fmt.Errorf("fft length must be a power of two, got %d", fftNum)
	}

	// One twiddle per butterfly stage angle: W_N^k for k < N/2.
	tw := make([]complex128, fftNum/2)
	for k := range tw {
		angle := -2 * math.Pi * float64(k) / float64(fftNum)
		tw[k] = complex(math.Cos(angle), math.Sin(angle))
	}

	fftSize = fftNum
	twiddles = tw
	scratch = make([]complex128, fftNum)
	return nil
}

// Deinit releases the driver. Safe to call when not initialized.
func Deinit() {
	mu.Lock()
	defer mu.Unlock()

	fftSize = 0
	twiddles = nil
	scratch = nil
}

// Size returns the configured transform length, or 0 when uninitialized.
func Size() int {
	mu.Lock()
	defer mu.Unlock()
	return fftSize
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// RealForward transforms len(buf) real samples in place into a packed
// half-complex spectrum: buf[2k] = Re(X[k]), buf[2k+1] = Im(X[k]) for
// k in [0, len(buf)/2). len(buf) must equal the initialized length.
func RealForward(buf []float32) error {
	mu.Lock()
	defer mu.Unlock()

	n := fftSize
	if n == 0 {
		return fmt.Errorf("fft driver not initialized")
	}
	if len(buf) != n {
		return fmt.Errorf("fft input length %d, want %d", len(buf), n)
	}

	for i, v := range buf {
		scratch[i] = complex(float64(v), 0)
	}
	transform(scratch, twiddles)
	for k := 0; k < n/2; k++ {
		buf[2*k] = float32(real(scratch[k]))
		buf[2*k+1] = float32(imag(scratch[k]))
	}
	return nil
}

// transform runs an iterative radix-2 Cooley-Tukey FFT in place.
// len(x) is a power of two and twiddle holds W_N^k for k < len(x)/2.
func transform(x []complex128, twiddle []complex128) {
	n := len(x)
	if n <= 1 {
		return
	}

	// Bit-reversal permutation.
	j := 0
	for i := 1; i < n; i++ {
		bit := n >> 1
		for j&bit != 0 {
			j ^= bit
			bit >>= 1
		}
		j ^= bit
		if i < j {
			x[i], x[j] = x[j], x[i]
		}
	}

	for size := 2; size <= n; size <<= 1 {
		half := size / 2
		stride := n / size
		for start := 0; start < n; start += size {
			for k := 0; k < half; k++ {
				w := twiddle[k*stride]
				u := x[start+k]
				t := w * x[start+k+half]
				x[start+k] = u + t
				x[start+k+half] = u - t
			}
		}
	}
}
