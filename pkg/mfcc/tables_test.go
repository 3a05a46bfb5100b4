package mfcc

import "testing"

func TestHammingWindowSymmetry(t *testing.T) {
	for _, length := range []int{256, 320, 512} {
		window := hammingWindow(length)
		for i := 0; i < length/2; i++ {
			a, b := window[i], window[length-1-i]
			if d := int(a) - int(b); d < -1 || d > 1 {
				t.Errorf("length %d: window[%d]=%d, window[%d]=%d, want within +-1",
					length, i, a, length-1-i, b)
			}
		}
	}
}

func TestHammingWindowEndpoints(t *testing.T) {
	window := hammingWindow(512)
	// 0.54 - 0.46 = 0.08 at the edges, 0.54 + 0.46 = 1.0 at the centre.
	if window[0] != 800 {
		t.Errorf("window[0] = %d, want 800", window[0])
	}
	if window[len(window)-1] != 800 {
		t.Errorf("window[last] = %d, want 800", window[len(window)-1])
	}
	max := int16(0)
	for _, w := range window {
		if w > max {
			max = w
		}
	}
	if max != 10000 {
		t.Errorf("window peak = %d, want 10000", max)
	}
}

func TestMelPositionsMonotone(t *testing.T) {
	tests := []struct {
		sampleRate, fftNum, channels int
	}{
		{16000, 512, 24},
		{8000, 256, 24},
		{16000, 512, 40},
		{8000, 512, 12},
	}
	for _, tt := range tests {
		pos := melPositions(tt.sampleRate, tt.fftNum, tt.channels)
		if len(pos) != tt.channels+2 {
			t.Fatalf("len(pos) = %d, want %d", len(pos), tt.channels+2)
		}
		if pos[0] != 0 {
			t.Errorf("pos[0] = %d, want 0", pos[0])
		}
		if pos[tt.channels+1] != int16(tt.fftNum/2) {
			t.Errorf("pos[last] = %d, want %d", pos[tt.channels+1], tt.fftNum/2)
		}
		for i := 1; i < len(pos); i++ {
			if pos[i] < pos[i-1] {
				t.Errorf("rate=%d fft=%d ch=%d: pos[%d]=%d < pos[%d]=%d",
					tt.sampleRate, tt.fftNum, tt.channels, i, pos[i], i-1, pos[i-1])
			}
		}
	}
}

func TestDctTableValues(t *testing.T) {
	table := dctTable(12, 24)
	if len(table) != 12*24 {
		t.Fatalf("len = %d, want %d", len(table), 12*24)
	}
	// Row 0 is coefficient 1: cos(pi*(j+0.5)/24).
	if table[0] != 9979 {
		t.Errorf("table[0][0] = %d, want 9979", table[0])
	}
	if table[23] != -9979 {
		t.Errorf("table[0][23] = %d, want -9979", table[23])
	}
	for i, v := range table {
		if v < -10000 || v > 10000 {
			t.Errorf("table[%d] = %d out of [-10000, 10000]", i, v)
		}
	}
}
