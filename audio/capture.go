// Package audio захватывает голос с микрофона через malgo (miniaudio)
package audio

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"voicegate/dsp"
	"voicegate/media"
)

// Device аудио устройство захвата
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Capture управляет захватом голоса с микрофона
// Устройство пишет на родной частоте 48 kHz, наружу отдаются сэмплы,
// приведённые к dsp.SampleRate
type Capture struct {
	ctx *malgo.AllocatedContext

	device   *malgo.Device
	deviceID *malgo.DeviceID

	dataChan chan []float32
	mu       sync.Mutex
	running  bool
}

const captureRate = 48000

// NewCapture инициализирует аудио-контекст
func NewCapture() (*Capture, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}

	return &Capture{
		ctx:      ctx,
		dataChan: make(chan []float32, 1000), // Большой буфер чтобы не терять данные
	}, nil
}

// ListDevices возвращает доступные устройства захвата
func (c *Capture) ListDevices() ([]Device, error) {
	captureDevices, err := c.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate capture devices: %w", err)
	}

	devices := make([]Device, 0, len(captureDevices))
	for _, dev := range captureDevices {
		devices = append(devices, Device{
			ID:   deviceIDToString(dev.ID),
			Name: dev.Name(),
		})
	}

	return devices, nil
}

// SetDeviceByName выбирает микрофон по имени (частичное совпадение)
// Пустое имя означает устройство по умолчанию
func (c *Capture) SetDeviceByName(name string) error {
	if name == "" || name == "default" {
		c.deviceID = nil
		return nil
	}

	devices, err := c.ctx.Devices(malgo.Capture)
	if err != nil {
		return err
	}

	nameLower := strings.ToLower(name)
	for _, dev := range devices {
		if strings.Contains(strings.ToLower(dev.Name()), nameLower) {
			id := dev.ID
			c.deviceID = &id
			log.Printf("[Audio] Microphone set: %s", dev.Name())
			return nil
		}
	}
	return fmt.Errorf("device not found: %s", name)
}

// Start начинает захват
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return fmt.Errorf("already running")
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = captureRate
	deviceConfig.Alsa.NoMMap = 1

	if c.deviceID != nil {
		deviceConfig.Capture.DeviceID = c.deviceID.Pointer()
	}

	onRecvFrames := func(pOutputSample, pInputSamples []byte, framecount uint32) {
		sampleCount := int(framecount)

		if len(pInputSamples) != sampleCount*4 {
			return
		}

		samples := make([]float32, sampleCount)
		for i := 0; i < sampleCount; i++ {
			bits := uint32(pInputSamples[i*4]) | uint32(pInputSamples[i*4+1])<<8 | uint32(pInputSamples[i*4+2])<<16 | uint32(pInputSamples[i*4+3])<<24
			samples[i] = math.Float32frombits(bits)
		}

		// Блокируемся если буфер полон - данные важнее latency
		c.dataChan <- samples
	}

	var err error
	c.device, err = malgo.InitDevice(c.ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onRecvFrames,
	})
	if err != nil {
		return err
	}

	if err := c.device.Start(); err != nil {
		c.device.Uninit()
		c.device = nil
		return err
	}

	c.running = true
	log.Println("[Audio] Microphone capture started")
	return nil
}

// Stop останавливает захват
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return nil
	}

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}

	c.running = false
	log.Println("[Audio] Microphone capture stopped")
	return nil
}

// Data возвращает канал с захваченными сэмплами (48 kHz моно)
func (c *Capture) Data() <-chan []float32 {
	return c.dataChan
}

// ClearBuffers выбрасывает накопленные данные перед новой записью
func (c *Capture) ClearBuffers() {
	for {
		select {
		case <-c.dataChan:
		default:
			return
		}
	}
}

// Record записывает голос заданной длительности и возвращает моно
// сэмплы, приведённые к dsp.SampleRate. Захват должен быть запущен
func (c *Capture) Record(ctx context.Context, duration time.Duration) ([]float32, error) {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()
	if !running {
		return nil, fmt.Errorf("capture not started")
	}

	c.ClearBuffers()

	target := int(duration.Seconds() * captureRate)
	raw := make([]float32, 0, target)
	deadline := time.After(duration + 2*time.Second)

	for len(raw) < target {
		select {
		case samples := <-c.dataChan:
			raw = append(raw, samples...)
		case <-deadline:
			return nil, fmt.Errorf("recording timed out: got %d of %d samples", len(raw), target)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	raw = raw[:target]

	return media.ResampleLinear(raw, captureRate, dsp.SampleRate), nil
}

// Close освобождает ресурсы
func (c *Capture) Close() {
	c.Stop()
	if c.ctx != nil {
		c.ctx.Uninit()
		c.ctx.Free()
	}
}

func deviceIDToString(id malgo.DeviceID) string {
	var result strings.Builder
	for _, b := range id[:32] {
		if b == 0 {
			break
		}
		result.WriteByte(b)
	}
	return result.String()
}
