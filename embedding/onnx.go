package embedding

import (
	"fmt"
	"log"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"voicegate/dsp"
)

var (
	onnxInitMu      sync.Mutex
	onnxInitialized bool
)

// ONNXEncoderConfig конфигурация ONNX энкодера голоса
type ONNXEncoderConfig struct {
	ModelPath  string
	SampleRate int
	NumMels    int
	HopLength  int
	FFTSize    int
}

// DefaultONNXEncoderConfig возвращает стандартную конфигурацию для WeSpeaker ResNet34
func DefaultONNXEncoderConfig(modelPath string) ONNXEncoderConfig {
	return ONNXEncoderConfig{
		ModelPath:  modelPath,
		SampleRate: 16000,
		NumMels:    80,  // WeSpeaker использует 80 mels
		HopLength:  160, // 10ms
		FFTSize:    512,
	}
}

// ONNXEncoder извлекает эмбеддинги через onnxruntime
type ONNXEncoder struct {
	config  ONNXEncoderConfig
	session *ort.DynamicAdvancedSession
	proc    *dsp.Processor
	dim     int
	mu      sync.Mutex
}

// NewONNXEncoder создаёт энкодер из ONNX модели
func NewONNXEncoder(config ONNXEncoderConfig) (*ONNXEncoder, error) {
	if _, err := os.Stat(config.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", config.ModelPath)
	}

	e := &ONNXEncoder{
		config: config,
		proc: dsp.NewProcessor(dsp.Config{
			SampleRate: config.SampleRate,
			FFTSize:    config.FFTSize,
			HopSize:    config.HopLength,
			NumFilters: config.NumMels,
			NumCoeffs:  config.NumMels,
			MinFreq:    0,
			MaxFreq:    float64(config.SampleRate) / 2,
		}),
	}

	if err := initONNXRuntime(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
	}

	if err := e.loadModel(); err != nil {
		return nil, err
	}

	return e, nil
}

func (e *ONNXEncoder) loadModel() error {
	inputInfo, outputInfo, err := ort.GetInputOutputInfo(e.config.ModelPath)
	if err != nil {
		return fmt.Errorf("failed to get model info: %w", err)
	}

	inputNames := make([]string, len(inputInfo))
	for i, info := range inputInfo {
		inputNames[i] = info.Name
	}
	outputNames := make([]string, len(outputInfo))
	for i, info := range outputInfo {
		outputNames[i] = info.Name
	}

	log.Printf("[Embedding] ONNX encoder inputs: %v, outputs: %v", inputNames, outputNames)

	options, err := ort.NewSessionOptions()
	if err != nil {
		return fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(
		e.config.ModelPath,
		inputNames,
		outputNames,
		options,
	)
	if err != nil {
		return fmt.Errorf("failed to create ONNX session: %w", err)
	}

	// Размерность выхода, если модель её декларирует
	if len(outputInfo) > 0 {
		dims := outputInfo[0].Dimensions
		if len(dims) > 0 && dims[len(dims)-1] > 0 {
			e.dim = int(dims[len(dims)-1])
		}
	}

	e.session = session
	return nil
}

// Encode извлекает эмбеддинг из аудио
func (e *ONNXEncoder) Encode(samples []float32) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil, fmt.Errorf("encoder not initialized")
	}

	if len(samples) < e.config.SampleRate/10 {
		return nil, fmt.Errorf("audio too short")
	}

	// 1. Log-mel спектрограмма
	melSpec := e.proc.LogMel(samples)
	numFrames := len(melSpec)
	if numFrames == 0 {
		return nil, fmt.Errorf("audio too short")
	}

	// 2. Входной тензор [1, numFrames, numMels] (WeSpeaker принимает [B, T, D])
	flatInput := make([]float32, numFrames*e.config.NumMels)
	for t := 0; t < numFrames; t++ {
		for m := 0; m < e.config.NumMels; m++ {
			flatInput[t*e.config.NumMels+m] = float32(melSpec[t][m])
		}
	}

	inputShape := ort.NewShape(1, int64(numFrames), int64(e.config.NumMels))
	inputTensor, err := ort.NewTensor(inputShape, flatInput)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	// 3. Инференс
	outputs := []ort.Value{nil}
	if err := e.session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	defer func() {
		for _, out := range outputs {
			if out != nil {
				out.Destroy()
			}
		}
	}()

	// 4. Результат, нормализованный до единичной длины
	outputTensor := outputs[0].(*ort.Tensor[float32])
	normalized := Normalize(outputTensor.GetData())

	// Копируем, так как outputTensor будет уничтожен
	result := make([]float32, len(normalized))
	copy(result, normalized)

	if e.dim == 0 {
		e.dim = len(result)
	}

	return result, nil
}

// Dim возвращает размерность эмбеддинга
func (e *ONNXEncoder) Dim() int {
	return e.dim
}

// Name возвращает имя бэкенда
func (e *ONNXEncoder) Name() string {
	return "onnxruntime"
}

// Close освобождает ONNX сессию
func (e *ONNXEncoder) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		e.session.Destroy()
		e.session = nil
	}
}

// initONNXRuntime инициализирует onnxruntime один раз на процесс
func initONNXRuntime() error {
	onnxInitMu.Lock()
	defer onnxInitMu.Unlock()

	if onnxInitialized {
		return nil
	}

	libPath := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")
	if libPath == "" {
		searchPaths := []string{
			"./libonnxruntime.dylib",
			"./libonnxruntime.so",
			"../Resources/libonnxruntime.dylib",
		}
		for _, path := range searchPaths {
			if _, err := os.Stat(path); err == nil {
				libPath = path
				break
			}
		}
	}

	if libPath == "" {
		return fmt.Errorf("ONNX Runtime library not found")
	}

	log.Printf("[Embedding] Using ONNX Runtime library: %s", libPath)
	ort.SetSharedLibraryPath(libPath)

	if err := ort.InitializeEnvironment(); err != nil {
		return err
	}

	onnxInitialized = true
	return nil
}
