// Package media читает и пишет аудио-файлы голосовых образцов
// (MP3, WAV) и конвертирует PCM между форматами. Чистый Go, без FFmpeg
package media

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// MP3Reader декодирует MP3 файл в PCM
type MP3Reader struct {
	decoder    *mp3.Decoder
	file       *os.File
	sampleRate int
	length     int64 // длина в байтах (signed 16-bit stereo PCM)
}

// OpenMP3 открывает MP3 файл для чтения
func OpenMP3(filePath string) (*MP3Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create MP3 decoder: %w", err)
	}

	return &MP3Reader{
		decoder:    decoder,
		file:       file,
		sampleRate: decoder.SampleRate(),
		length:     decoder.Length(),
	}, nil
}

// SampleRate возвращает частоту дискретизации исходного файла
func (r *MP3Reader) SampleRate() int {
	return r.sampleRate
}

// Duration возвращает длительность в секундах
func (r *MP3Reader) Duration() float64 {
	// go-mp3 всегда декодирует в 16-bit stereo: 4 байта на сэмпл
	samples := r.length / 4
	return float64(samples) / float64(r.sampleRate)
}

// ReadAllMono читает весь файл и возвращает моно float32 [-1, 1]
// (среднее левого и правого каналов) с исходной частотой дискретизации
func (r *MP3Reader) ReadAllMono() ([]float32, error) {
	pcmData := make([]byte, r.length)
	n, err := io.ReadFull(r.decoder, pcmData)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("failed to read PCM data: %w", err)
	}

	numSamples := n / 4 // 2 bytes * 2 channels
	mono := make([]float32, numSamples)

	for i := 0; i < numSamples; i++ {
		left := int16(binary.LittleEndian.Uint16(pcmData[i*4:]))
		right := int16(binary.LittleEndian.Uint16(pcmData[i*4+2:]))
		mono[i] = (float32(left) + float32(right)) / 2.0 / 32768.0
	}

	return mono, nil
}

// Close закрывает файл
func (r *MP3Reader) Close() error {
	return r.file.Close()
}

// LoadMP3Mono читает MP3 файл целиком и приводит к целевой частоте
// дискретизации. Основной путь загрузки голосовых образцов из файлов
func LoadMP3Mono(filePath string, targetSampleRate int) ([]float32, error) {
	reader, err := OpenMP3(filePath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	mono, err := reader.ReadAllMono()
	if err != nil {
		return nil, err
	}

	srcRate := reader.SampleRate()
	if srcRate != targetSampleRate {
		mono = ResampleLinear(mono, srcRate, targetSampleRate)
	}

	log.Printf("[Media] Loaded %s: %.1f sec -> %d samples @ %d Hz",
		filePath, reader.Duration(), len(mono), targetSampleRate)

	return mono, nil
}
