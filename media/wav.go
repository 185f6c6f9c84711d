package media

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
)

// WAVWriter потоковый писатель WAV файлов (PCM16)
type WAVWriter struct {
	file           *os.File
	filePath       string
	sampleRate     int
	channels       int
	bitsPerSample  int
	samplesWritten int64
	mu             sync.Mutex
}

// NewWAVWriter создаёт новый WAV writer
func NewWAVWriter(filePath string, sampleRate, channels int) (*WAVWriter, error) {
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create WAV file: %w", err)
	}

	w := &WAVWriter{
		file:          file,
		filePath:      filePath,
		sampleRate:    sampleRate,
		channels:      channels,
		bitsPerSample: 16,
	}

	// Placeholder header, финальный размер пишется при Close
	if err := w.writeHeader(); err != nil {
		file.Close()
		return nil, err
	}

	return w, nil
}

func (w *WAVWriter) writeHeader() error {
	w.file.Seek(0, 0)

	byteRate := w.sampleRate * w.channels * w.bitsPerSample / 8
	blockAlign := w.channels * w.bitsPerSample / 8
	dataSize := uint32(w.samplesWritten * int64(w.bitsPerSample/8))

	// RIFF header
	w.file.WriteString("RIFF")
	binary.Write(w.file, binary.LittleEndian, uint32(36+dataSize))
	w.file.WriteString("WAVE")

	// fmt chunk
	w.file.WriteString("fmt ")
	binary.Write(w.file, binary.LittleEndian, uint32(16))           // chunk size
	binary.Write(w.file, binary.LittleEndian, uint16(1))            // PCM
	binary.Write(w.file, binary.LittleEndian, uint16(w.channels))   // channels
	binary.Write(w.file, binary.LittleEndian, uint32(w.sampleRate)) // sample rate
	binary.Write(w.file, binary.LittleEndian, uint32(byteRate))     // byte rate
	binary.Write(w.file, binary.LittleEndian, uint16(blockAlign))   // block align
	binary.Write(w.file, binary.LittleEndian, uint16(w.bitsPerSample))

	// data chunk
	w.file.WriteString("data")
	binary.Write(w.file, binary.LittleEndian, dataSize)

	return nil
}

// Write записывает float32 сэмплы (конвертирует в PCM16)
func (w *WAVWriter) Write(samples []float32) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		sample := int16(s * 32767)
		if err := binary.Write(w.file, binary.LittleEndian, sample); err != nil {
			return err
		}
		w.samplesWritten++
	}

	return nil
}

// SamplesWritten возвращает количество записанных сэмплов
func (w *WAVWriter) SamplesWritten() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.samplesWritten
}

// Close дописывает финальный header и закрывает файл
func (w *WAVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.writeHeader(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// FilePath возвращает путь к файлу
func (w *WAVWriter) FilePath() string {
	return w.filePath
}

// LoadWAVMono читает PCM16 WAV файл и возвращает моно float32 с целевой
// частотой дискретизации. Многоканальный вход сводится усреднением
func LoadWAVMono(filePath string, targetSampleRate int) ([]float32, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read WAV file: %w", err)
	}

	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a WAV file: %s", filePath)
	}

	// Ищем fmt и data chunks (между ними могут быть LIST/INFO и пр.)
	var sampleRate, channels, bitsPerSample int
	var pcm []byte

	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+chunkSize > len(data) {
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, fmt.Errorf("malformed fmt chunk")
			}
			format := int(binary.LittleEndian.Uint16(data[body:]))
			if format != 1 {
				return nil, fmt.Errorf("unsupported WAV format: %d (PCM only)", format)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[body+14:]))
		case "data":
			pcm = data[body : body+chunkSize]
		}

		pos = body + chunkSize
		if chunkSize%2 == 1 {
			pos++ // chunks выровнены по 2 байта
		}
	}

	if sampleRate == 0 || channels == 0 || pcm == nil {
		return nil, fmt.Errorf("missing fmt or data chunk: %s", filePath)
	}
	if bitsPerSample != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (16-bit only)", bitsPerSample)
	}

	frames := len(pcm) / (2 * channels)
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			s := int16(binary.LittleEndian.Uint16(pcm[(i*channels+c)*2:]))
			sum += float32(s) / 32768.0
		}
		mono[i] = sum / float32(channels)
	}

	if sampleRate != targetSampleRate {
		mono = ResampleLinear(mono, sampleRate, targetSampleRate)
	}

	return mono, nil
}
