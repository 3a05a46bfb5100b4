package dsp

import (
	"math"
	"testing"
)

func initDriver(t *testing.T, n int) {
	t.Helper()
	Deinit()
	if err := Init(n); err != nil {
		t.Fatalf("Init(%d) error: %v", n, err)
	}
	t.Cleanup(Deinit)
}

func TestInitRejectsNonPowerOfTwo(t *testing.T) {
	Deinit()
	for _, n := range []int{0, -8, 3, 100, 511} {
		if err := Init(n); err == nil {
			Deinit()
			t.Errorf("Init(%d) succeeded, want error", n)
		}
	}
}

func TestInitRefusesDoubleInit(t *testing.T) {
	initDriver(t, 256)
	if err := Init(256); err == nil {
		t.Fatal("second Init succeeded, want error")
	}
}

func TestRealForwardDC(t *testing.T) {
	initDriver(t, 64)

	buf := make([]float32, 64)
	for i := range buf {
		buf[i] = 1
	}
	if err := RealForward(buf); err != nil {
		t.Fatalf("RealForward error: %v", err)
	}

	// All energy in bin 0: Re(X[0]) = N, every other bin near zero.
	if got := buf[0]; math.Abs(float64(got)-64) > 1e-3 {
		t.Errorf("bin 0 real = %v, want 64", got)
	}
	for k := 1; k < 32; k++ {
		re, im := float64(buf[2*k]), float64(buf[2*k+1])
		if math.Hypot(re, im) > 1e-3 {
			t.Errorf("bin %d magnitude = %v, want ~0", k, math.Hypot(re, im))
		}
	}
}

func TestRealForwardSingleTone(t *testing.T) {
	initDriver(t, 128)

	// Cosine at bin 8: X[8] = N/2, everything else ~0.
	buf := make([]float32, 128)
	for i := range buf {
		buf[i] = float32(math.Cos(2 * math.Pi * 8 * float64(i) / 128))
	}
	if err := RealForward(buf); err != nil {
		t.Fatalf("RealForward error: %v", err)
	}

	for k := 0; k < 64; k++ {
		mag := math.Hypot(float64(buf[2*k]), float64(buf[2*k+1]))
		want := 0.0
		if k == 8 {
			want = 64
		}
		if math.Abs(mag-want) > 1e-2 {
			t.Errorf("bin %d magnitude = %v, want %v", k, mag, want)
		}
	}
}

func TestRealForwardLengthMismatch(t *testing.T) {
	initDriver(t, 64)
	if err := RealForward(make([]float32, 32)); err == nil {
		t.Fatal("RealForward with wrong length succeeded, want error")
	}
}

func TestRealForwardUninitialized(t *testing.T) {
	Deinit()
	if err := RealForward(make([]float32, 64)); err == nil {
		t.Fatal("RealForward without Init succeeded, want error")
	}
}
