package signature

import (
	"errors"
	"math"
	"testing"

	"voicegate/dsp"
)

func TestExtractEmptyAudio(t *testing.T) {
	e := NewExtractor(dsp.DefaultConfig())

	_, err := e.Extract(nil)
	if !errors.Is(err, ErrEmptyAudio) {
		t.Fatalf("expected ErrEmptyAudio, got %v", err)
	}

	_, err = e.Extract([]float32{})
	if !errors.Is(err, ErrEmptyAudio) {
		t.Fatalf("expected ErrEmptyAudio, got %v", err)
	}
}

func TestExtractTooShort(t *testing.T) {
	e := NewExtractor(dsp.DefaultConfig())

	// Буфер короче одного фрейма: не ошибка, но подпись с пустыми векторами
	sig, err := e.Extract(make([]float32, dsp.FFTSize-1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sig.Mean) != 0 || len(sig.Variance) != 0 || len(sig.DeltaMean) != 0 {
		t.Errorf("expected empty vectors, got mean=%d variance=%d delta=%d",
			len(sig.Mean), len(sig.Variance), len(sig.DeltaMean))
	}
	if sig.FrameCount != 0 {
		t.Errorf("expected 0 frames, got %f", sig.FrameCount)
	}
}

func TestExtractSignatureShape(t *testing.T) {
	e := NewExtractor(dsp.DefaultConfig())
	samples := makeTestTone(dsp.SampleRate, 200) // 1 секунда

	sig, err := e.Extract(samples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sig.Mean) != dsp.NumCoeffs {
		t.Errorf("mean has %d coeffs, want %d", len(sig.Mean), dsp.NumCoeffs)
	}
	if len(sig.Variance) != dsp.NumCoeffs {
		t.Errorf("variance has %d coeffs, want %d", len(sig.Variance), dsp.NumCoeffs)
	}
	if len(sig.DeltaMean) != dsp.NumCoeffs {
		t.Errorf("deltaMean has %d coeffs, want %d", len(sig.DeltaMean), dsp.NumCoeffs)
	}

	for i, v := range sig.Variance {
		if v < 0 {
			t.Errorf("variance[%d] = %f, must be non-negative", i, v)
		}
	}

	expectedFrames := float64(1 + (len(samples)-dsp.FFTSize)/dsp.HopSize)
	if sig.FrameCount != expectedFrames {
		t.Errorf("frameCount = %f, want %f", sig.FrameCount, expectedFrames)
	}
	if sig.Degraded() {
		t.Errorf("1-second signature should not be degraded (frames=%f)", sig.FrameCount)
	}
}

func TestDegraded(t *testing.T) {
	e := NewExtractor(dsp.DefaultConfig())

	// 9 фреймов: 512 + 8*256 сэмплов
	short := makeTestTone(dsp.FFTSize+8*dsp.HopSize, 200)
	sig, err := e.Extract(short)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.FrameCount != 9 {
		t.Fatalf("frameCount = %f, want 9", sig.FrameCount)
	}
	if !sig.Degraded() {
		t.Error("9-frame signature should be degraded")
	}
}

func TestEnergy(t *testing.T) {
	tests := []struct {
		name    string
		samples []float32
		want    float64
	}{
		{"empty", nil, 0},
		{"silence", make([]float32, 100), 0},
		{"constant half", []float32{0.5, 0.5, 0.5, 0.5}, 0.25},
		{"unit", []float32{1, -1, 1, -1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Energy(tt.samples)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Energy() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestZeroCrossingRate(t *testing.T) {
	tests := []struct {
		name    string
		samples []float32
		want    float64
	}{
		{"empty", nil, 0},
		{"constant", []float32{0.5, 0.5, 0.5, 0.5}, 0},
		{"alternating", []float32{1, -1, 1, -1}, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ZeroCrossingRate(tt.samples)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ZeroCrossingRate() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestComputeDeltaPassthrough(t *testing.T) {
	// Меньше трёх фреймов: вход возвращается как есть
	frames := [][]float64{{1, 2}, {3, 4}}
	deltas := computeDelta(frames)
	if len(deltas) != 2 || deltas[0][0] != 1 || deltas[1][1] != 4 {
		t.Fatalf("expected passthrough for 2 frames, got %v", deltas)
	}

	// Три фрейма: одна дельта (f[2]-f[0])/2
	frames = [][]float64{{0, 0}, {5, 5}, {4, 8}}
	deltas = computeDelta(frames)
	if len(deltas) != 1 {
		t.Fatalf("expected 1 delta frame, got %d", len(deltas))
	}
	if deltas[0][0] != 2 || deltas[0][1] != 4 {
		t.Errorf("delta = %v, want [2 4]", deltas[0])
	}
}

func makeTestTone(n int, freq float64) []float32 {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/dsp.SampleRate))
	}
	return samples
}
