package media

import (
	"fmt"
	"os"
	"sync"

	"github.com/braheezy/shine-mp3/pkg/mp3"
)

// MP3Writer пишет моно PCM в MP3 через shine-mp3 (чистый Go)
// Используется для сохранения голосовых образцов рядом с профилем
type MP3Writer struct {
	file       *os.File
	encoder    *mp3.Encoder
	filePath   string
	sampleRate int

	// shine кодирует блоками по 1152 сэмпла, накапливаем до кратного размера
	buffer []int16

	samplesWritten int64
	mu             sync.Mutex
	closed         bool
}

// NewMP3Writer создаёт MP3 writer для моно потока
func NewMP3Writer(filePath string, sampleRate int) (*MP3Writer, error) {
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &MP3Writer{
		file:       file,
		encoder:    mp3.NewEncoder(sampleRate, 1),
		filePath:   filePath,
		sampleRate: sampleRate,
		buffer:     make([]int16, 0, 8192),
	}, nil
}

// Write записывает float32 сэмплы [-1, 1]
func (w *MP3Writer) Write(samples []float32) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("writer is closed")
	}

	for _, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		w.buffer = append(w.buffer, int16(s*32767))
	}
	w.samplesWritten += int64(len(samples))

	// Пишем блоками по 4 кадра Layer III
	const minBufferSize = 1152 * 4
	if len(w.buffer) >= minBufferSize {
		w.encoder.Write(w.file, w.buffer)
		w.buffer = w.buffer[:0]
	}

	return nil
}

// SamplesWritten возвращает количество записанных сэмплов
func (w *MP3Writer) SamplesWritten() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.samplesWritten
}

// FilePath возвращает путь к файлу
func (w *MP3Writer) FilePath() string {
	return w.filePath
}

// Close дописывает хвост буфера (с выравниванием нулями до кадра) и
// закрывает файл
func (w *MP3Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if len(w.buffer) > 0 {
		const blockSize = 1152
		for len(w.buffer)%blockSize != 0 {
			w.buffer = append(w.buffer, 0)
		}
		w.encoder.Write(w.file, w.buffer)
	}

	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// SaveMP3Mono записывает буфер сэмплов в MP3 файл одним вызовом
func SaveMP3Mono(filePath string, samples []float32, sampleRate int) error {
	w, err := NewMP3Writer(filePath, sampleRate)
	if err != nil {
		return err
	}
	if err := w.Write(samples); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
