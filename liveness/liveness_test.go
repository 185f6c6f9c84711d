package liveness

import (
	"math"
	"testing"

	"voicegate/dsp"
)

// makeSpeechLike генерирует детерминированный сигнал с характеристиками живой
// речи: плавающая частота, амплитудная огибающая, широкополосный шум и тихие
// "дыхательные" паузы. Каждая из пяти проверок проходит с запасом
func makeSpeechLike(n int) []float32 {
	samples := make([]float32, n)
	phase := 0.0
	for i := 0; i < n; i++ {
		t := float64(i) / dsp.SampleRate

		if inBreathGap(i) {
			samples[i] = float32(0.02 * pseudoNoise(i))
			continue
		}

		freq := 180 + 40*math.Sin(2*math.Pi*1.3*t)
		phase += 2 * math.Pi * freq / dsp.SampleRate
		env := 0.25 * (0.6 + 0.4*math.Sin(2*math.Pi*2.5*t))
		samples[i] = float32(env*math.Sin(phase) + 0.05*pseudoNoise(i))
	}
	return samples
}

func inBreathGap(i int) bool {
	return (i >= 4000 && i < 5600) || (i >= 14000 && i < 15600) || (i >= 24000 && i < 25600)
}

// pseudoNoise детерминированный шум в [-1, 1) без зависимости от math/rand
func pseudoNoise(i int) float64 {
	x := math.Sin(float64(i)*12.9898) * 43758.5453
	return (x-math.Floor(x))*2 - 1
}

func TestAnalyzeSpeechLike(t *testing.T) {
	d := NewDetector()
	result := d.Analyze(makeSpeechLike(2 * dsp.SampleRate))

	if !result.IsHuman {
		t.Fatalf("speech-like signal flagged as synthetic: confidence=%f reasons=%v metrics=%+v",
			result.Confidence, result.Reasons, result.Metrics)
	}
	if result.Confidence < humanThreshold {
		t.Errorf("confidence = %f, want >= %f", result.Confidence, humanThreshold)
	}
	if len(result.Reasons) != 1 || result.Reasons[0] != reasonHuman {
		t.Errorf("human verdict must carry the single affirmative reason, got %v", result.Reasons)
	}
}

func TestAnalyzeConstantBuffer(t *testing.T) {
	d := NewDetector()
	buf := make([]float32, dsp.SampleRate)
	for i := range buf {
		buf[i] = 0.5
	}

	result := d.Analyze(buf)
	if result.IsHuman {
		t.Fatalf("constant buffer must be synthetic: %+v", result)
	}
	if result.Confidence != 0 {
		t.Errorf("constant buffer confidence = %f, want 0", result.Confidence)
	}
	if len(result.Reasons) != numChecks {
		t.Errorf("expected %d failure reasons, got %d: %v", numChecks, len(result.Reasons), result.Reasons)
	}
}

func TestAnalyzePureTone(t *testing.T) {
	d := NewDetector()
	tone := make([]float32, dsp.SampleRate)
	for i := range tone {
		tone[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/dsp.SampleRate))
	}

	result := d.Analyze(tone)
	if result.IsHuman {
		t.Fatalf("pure tone must be synthetic: %+v", result)
	}
	if result.Confidence != 0 {
		t.Errorf("pure tone confidence = %f, want 0", result.Confidence)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	d := NewDetector()
	buf := makeSpeechLike(dsp.SampleRate)

	first := d.Analyze(buf)
	second := d.Analyze(buf)

	if first.IsHuman != second.IsHuman || first.Confidence != second.Confidence {
		t.Fatalf("verdict not deterministic: %+v vs %+v", first, second)
	}
	if first.Metrics != second.Metrics {
		t.Errorf("metrics differ between runs: %+v vs %+v", first.Metrics, second.Metrics)
	}
}

func TestAnalyzeEmptyBuffer(t *testing.T) {
	d := NewDetector()
	result := d.Analyze(nil)
	if result.IsHuman {
		t.Fatal("empty buffer must not pass liveness")
	}
}
