// Package models предоставляет реестр и загрузку моделей speaker embedding
package models

// ModelInfo информация о модели
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Size        string `json:"size"`
	SizeBytes   int64  `json:"sizeBytes"`
	Description string `json:"description"`
	Dim         int    `json:"dim"` // Размерность эмбеддинга
	Recommended bool   `json:"recommended,omitempty"`
	DownloadURL string `json:"downloadUrl"`
}

// ModelStatus статус модели на устройстве
type ModelStatus string

const (
	ModelStatusNotDownloaded ModelStatus = "not_downloaded"
	ModelStatusDownloading   ModelStatus = "downloading"
	ModelStatusDownloaded    ModelStatus = "downloaded"
)

// ModelState состояние модели с информацией
type ModelState struct {
	ModelInfo
	Status ModelStatus `json:"status"`
	Path   string      `json:"path,omitempty"`
}

// Registry реестр доступных моделей speaker embedding (sherpa-onnx сборки)
var Registry = []ModelInfo{
	{
		ID:          "wespeaker-voxceleb-resnet34",
		Name:        "WeSpeaker ResNet34",
		Size:        "26 MB",
		SizeBytes:   26_851_029,
		Description: "Speaker embedding (WeSpeaker ResNet34, VoxCeleb)",
		Dim:         256,
		Recommended: true,
		DownloadURL: "https://github.com/k2-fsa/sherpa-onnx/releases/download/speaker-recongition-models/wespeaker_en_voxceleb_resnet34.onnx",
	},
	{
		ID:          "wespeaker-voxceleb-cam-plus-plus",
		Name:        "WeSpeaker CAM++",
		Size:        "28 MB",
		SizeBytes:   28_000_000,
		Description: "Speaker embedding (WeSpeaker CAM++, VoxCeleb) - быстрее ResNet34",
		Dim:         512,
		DownloadURL: "https://github.com/k2-fsa/sherpa-onnx/releases/download/speaker-recongition-models/wespeaker_en_voxceleb_CAM%2B%2B.onnx",
	},
	{
		ID:          "3dspeaker-speech-eres2net",
		Name:        "3D-Speaker ERes2Net",
		Size:        "25 MB",
		SizeBytes:   25_000_000,
		Description: "Speaker embedding (3D-Speaker, Alibaba)",
		Dim:         512,
		DownloadURL: "https://github.com/k2-fsa/sherpa-onnx/releases/download/speaker-recongition-models/3dspeaker_speech_eres2net_base_sv_zh-cn_3dspeaker_16k.onnx",
	},
	{
		ID:          "nemo-titanet-small",
		Name:        "NeMo TitaNet Small",
		Size:        "25 MB",
		SizeBytes:   25_000_000,
		Description: "Speaker embedding (NVIDIA NeMo TitaNet Small)",
		Dim:         192,
		DownloadURL: "https://github.com/k2-fsa/sherpa-onnx/releases/download/speaker-recongition-models/nemo_en_titanet_small.onnx",
	},
}

// GetModelByID возвращает модель по ID
func GetModelByID(id string) *ModelInfo {
	for _, m := range Registry {
		if m.ID == id {
			return &m
		}
	}
	return nil
}

// GetRecommendedModel возвращает модель по умолчанию
func GetRecommendedModel() *ModelInfo {
	for _, m := range Registry {
		if m.Recommended {
			return &m
		}
	}
	return &Registry[0]
}
