package signature

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Значения по умолчанию для legacy-формата (голый массив из 13 коэффициентов,
// записанный до того как появились variance/delta/energy). Шим совместимости:
// подпись восстановима, но точность матчинга по ней снижена
const (
	legacyVariance   = 0.1
	legacyDeltaMean  = 0.0
	legacyEnergy     = 0.01
	legacyZCR        = 0.1
	legacyFrameCount = 50
)

// Marshal сериализует подпись в стабильный JSON вид
// Имена полей фиксированы, числа пишутся с полной точностью float64.
// Подпись без вектора средних (неудачное извлечение) не сериализуема:
// Unmarshal такой объект не принимает, поэтому отказ симметричен
func Marshal(s *VoiceSignature) ([]byte, error) {
	if s == nil || len(s.Mean) == 0 {
		return nil, ErrInvalidSignature
	}
	return json.Marshal(s)
}

// Unmarshal восстанавливает подпись из JSON
// Принимает современный объект и legacy голый массив коэффициентов.
// Повреждённые данные дают ErrInvalidSignature, никогда не панику
func Unmarshal(data []byte) (*VoiceSignature, error) {
	var s VoiceSignature
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return &s, nil
}

// sigAlias защищает от рекурсии в UnmarshalJSON
type sigAlias VoiceSignature

// UnmarshalJSON декодирует объект или legacy массив
func (s *VoiceSignature) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	// Современный формат: объект со стабильными именами полей
	var obj sigAlias
	if err := json.Unmarshal(data, &obj); err == nil {
		if len(obj.Mean) > 0 {
			dim := len(obj.Mean)
			if len(obj.Variance) != dim || len(obj.DeltaMean) != dim {
				return ErrDimensionMismatch
			}
			*s = VoiceSignature(obj)
			return nil
		}
		// Объект без mean - не подпись
		if len(data) > 0 && data[0] == '{' {
			return fmt.Errorf("%w: missing mean vector", ErrInvalidSignature)
		}
	}

	// Legacy формат: голый массив коэффициентов
	var coeffs []float64
	if err := json.Unmarshal(data, &coeffs); err != nil || len(coeffs) == 0 {
		return ErrInvalidSignature
	}

	*s = *fromLegacyCoeffs(coeffs)
	return nil
}

// fromLegacyCoeffs строит подпись из одного вектора коэффициентов
// с документированными значениями по умолчанию для новых полей
func fromLegacyCoeffs(coeffs []float64) *VoiceSignature {
	s := &VoiceSignature{
		Mean:             make([]float64, len(coeffs)),
		Variance:         make([]float64, len(coeffs)),
		DeltaMean:        make([]float64, len(coeffs)),
		Energy:           legacyEnergy,
		ZeroCrossingRate: legacyZCR,
		FrameCount:       legacyFrameCount,
	}
	copy(s.Mean, coeffs)
	for i := range s.Variance {
		s.Variance[i] = legacyVariance
	}
	return s
}
