// Package signature предоставляет статистические голосовые подписи:
// построение из MFCC, агрегацию при регистрации, сериализацию и строгую верификацию
package signature

import "errors"

// Ошибки некорректного входа. Возвращаются явно и проверяются через errors.Is -
// ничего в этом пакете не паникует и не роняет процесс
var (
	// ErrEmptyAudio пустой аудио буфер
	ErrEmptyAudio = errors.New("empty audio buffer")
	// ErrNoSignatures пустой список подписей для усреднения
	ErrNoSignatures = errors.New("no signatures to average")
	// ErrDimensionMismatch размерности сравниваемых векторов не совпадают
	ErrDimensionMismatch = errors.New("signature dimension mismatch")
	// ErrInvalidSignature повреждённая или нераспознанная сериализованная подпись
	ErrInvalidSignature = errors.New("no valid signature")
)

// MinReliableFrames минимальное число фреймов для надёжной подписи.
// Меньше - подпись считается деградированной (короткая запись), но не ошибкой
const MinReliableFrames = 10

// VoiceSignature статистический дескриптор голоса фиксированного размера.
// Все векторные поля одной длины (13 коэффициентов). Создаётся билдером из
// одного аудио буфера, читается агрегатором и верификатором, персистится
// внешним хранилищем как непрозрачный JSON блоб
type VoiceSignature struct {
	Mean             []float64 `json:"mean"`             // среднее MFCC по фреймам
	Variance         []float64 `json:"variance"`         // поэлементная дисперсия (популяционная)
	DeltaMean        []float64 `json:"deltaMean"`        // среднее velocity-коэффициентов
	Energy           float64   `json:"energy"`           // средний квадрат сэмпла
	ZeroCrossingRate float64   `json:"zeroCrossingRate"` // доля смен знака
	FrameCount       float64   `json:"frameCount"`       // количество MFCC фреймов
}

// Degraded сообщает, что подпись построена по слишком короткой записи
// и её надёжность снижена. Вызывающий решает, принимать ли такую подпись
func (s *VoiceSignature) Degraded() bool {
	return s.FrameCount < MinReliableFrames || len(s.Mean) == 0
}

// Clone возвращает глубокую копию подписи
func (s *VoiceSignature) Clone() *VoiceSignature {
	c := &VoiceSignature{
		Mean:             make([]float64, len(s.Mean)),
		Variance:         make([]float64, len(s.Variance)),
		DeltaMean:        make([]float64, len(s.DeltaMean)),
		Energy:           s.Energy,
		ZeroCrossingRate: s.ZeroCrossingRate,
		FrameCount:       s.FrameCount,
	}
	copy(c.Mean, s.Mean)
	copy(c.Variance, s.Variance)
	copy(c.DeltaMean, s.DeltaMean)
	return c
}
