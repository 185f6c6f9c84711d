package dsp

import (
	"math"
	"testing"
)

func TestHammingWindow(t *testing.T) {
	window := HammingWindow(FFTSize)

	if len(window) != FFTSize {
		t.Fatalf("expected %d points, got %d", FFTSize, len(window))
	}

	// Края окна Хэмминга равны 0.54-0.46 = 0.08
	if math.Abs(window[0]-0.08) > 1e-9 {
		t.Errorf("window[0] = %f, want 0.08", window[0])
	}
	if math.Abs(window[len(window)-1]-0.08) > 1e-9 {
		t.Errorf("window[last] = %f, want 0.08", window[len(window)-1])
	}

	// Симметрия
	for i := 0; i < len(window)/2; i++ {
		j := len(window) - 1 - i
		if math.Abs(window[i]-window[j]) > 1e-9 {
			t.Fatalf("window not symmetric at %d/%d: %f vs %f", i, j, window[i], window[j])
		}
	}

	// Максимум в центре близок к 1
	mid := window[len(window)/2]
	if mid < 0.99 || mid > 1.0 {
		t.Errorf("window center = %f, want ~1.0", mid)
	}
}

func TestMelFilterBankShape(t *testing.T) {
	filters := NewMelFilterBank(FFTSize, NumMelFilters, SampleRate, 0, 8000)

	if len(filters) != NumMelFilters {
		t.Fatalf("expected %d filters, got %d", NumMelFilters, len(filters))
	}

	numBins := FFTSize/2 + 1
	for i, f := range filters {
		if len(f) != numBins {
			t.Fatalf("filter %d: expected %d bins, got %d", i, numBins, len(f))
		}

		var sum float64
		for _, w := range f {
			if w < 0 {
				t.Fatalf("filter %d has negative weight", i)
			}
			sum += w
		}
		if sum == 0 {
			t.Errorf("filter %d is empty", i)
		}
	}
}

func TestExtractFrameCount(t *testing.T) {
	proc := NewProcessor(DefaultConfig())

	tests := []struct {
		name    string
		samples int
		frames  int
	}{
		{"shorter than frame", FFTSize - 1, 0},
		{"exactly one frame", FFTSize, 1},
		{"two hops", FFTSize + 2*HopSize, 3},
		{"tail dropped", FFTSize + HopSize + 100, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := makeSine(tt.samples, 440)
			frames := proc.Extract(samples)
			if len(frames) != tt.frames {
				t.Errorf("got %d frames, want %d", len(frames), tt.frames)
			}
			for _, frame := range frames {
				if len(frame) != NumCoeffs {
					t.Fatalf("frame has %d coeffs, want %d", len(frame), NumCoeffs)
				}
			}
		})
	}
}

func TestExtractDeterministic(t *testing.T) {
	proc := NewProcessor(DefaultConfig())
	samples := makeSine(SampleRate, 220)

	first := proc.Extract(samples)
	second := proc.Extract(samples)

	if len(first) != len(second) {
		t.Fatalf("frame counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		for j := range first[i] {
			if first[i][j] != second[i][j] {
				t.Fatalf("coeff [%d][%d] differs: %v vs %v", i, j, first[i][j], second[i][j])
			}
		}
	}
}

func TestPowerSpectrumPeak(t *testing.T) {
	proc := NewProcessor(DefaultConfig())

	// 1000 Hz тон: пик мощности должен попасть в ожидаемый бин
	freq := 1000.0
	frame := makeSine(FFTSize, freq)
	spectrum := proc.PowerSpectrum(frame)

	if len(spectrum) != FFTSize/2+1 {
		t.Fatalf("expected %d bins, got %d", FFTSize/2+1, len(spectrum))
	}

	peakBin := 0
	for i, p := range spectrum {
		if p > spectrum[peakBin] {
			peakBin = i
		}
	}

	expectedBin := int(freq * FFTSize / SampleRate)
	if peakBin < expectedBin-1 || peakBin > expectedBin+1 {
		t.Errorf("peak at bin %d, expected around %d", peakBin, expectedBin)
	}
}

func TestLogMelFrameSize(t *testing.T) {
	proc := NewProcessor(DefaultConfig())
	frame := makeSine(FFTSize, 300)

	logMel := proc.LogMelFrame(frame)
	if len(logMel) != NumMelFilters {
		t.Fatalf("expected %d mel values, got %d", NumMelFilters, len(logMel))
	}

	mfcc := proc.ComputeFrame(frame)
	if len(mfcc) != NumCoeffs {
		t.Fatalf("expected %d coefficients, got %d", NumCoeffs, len(mfcc))
	}
}

func makeSine(n int, freq float64) []float32 {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/SampleRate))
	}
	return samples
}
