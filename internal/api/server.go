// Package api предоставляет внешние интерфейсы сервера: WebSocket для
// клиентов и gRPC управляющий канал через именованный pipe
package api

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"voicegate/audio"
	"voicegate/internal/config"
	"voicegate/internal/service"
	"voicegate/media"
	"voicegate/models"
	"voicegate/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	Config   *config.Config
	Auth     *service.AuthService
	ModelMgr *models.Manager
	Capture  *audio.Capture // nil если захват с микрофона недоступен
	Uptime   *service.Uptime

	clients map[*websocket.Conn]bool
	mu      sync.Mutex
}

func NewServer(cfg *config.Config, auth *service.AuthService, modMgr *models.Manager, cap *audio.Capture) *Server {
	return &Server{
		Config:   cfg,
		Auth:     auth,
		ModelMgr: modMgr,
		Capture:  cap,
		Uptime:   service.NewUptime(),
		clients:  make(map[*websocket.Conn]bool),
	}
}

func (s *Server) Start() {
	http.HandleFunc("/ws", s.handleWebSocket)

	log.Printf("Backend listening on :%s", s.Config.Port)
	if err := http.ListenAndServe(":"+s.Config.Port, nil); err != nil {
		log.Fatal("ListenAndServe:", err)
	}
}

func (s *Server) broadcast(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.clients {
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("Write error: %v", err)
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade:", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			log.Println("Read:", err)
			break
		}
		s.processMessage(conn, msg)
	}
}

// messageWriter абстрагирует канал ответа: WebSocket соединение или
// gRPC stream
type messageWriter interface {
	WriteJSON(v interface{}) error
}

// decodeAudio декодирует base64 PCM16 в float32 сэмплы
func decodeAudio(encoded string) ([]float32, error) {
	if encoded == "" {
		return nil, fmt.Errorf("audio is required")
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 audio: %w", err)
	}
	return media.DecodePCM16(raw), nil
}

func (s *Server) processMessage(conn messageWriter, msg Message) {
	switch msg.Type {
	case "status":
		conn.WriteJSON(Message{
			Type:          "status",
			Strategy:      s.Auth.Engine.StrategyName(),
			ProfileCount:  s.Auth.Store.Count(),
			UptimeSeconds: s.Uptime.Seconds(),
		})

	case "get_devices":
		if s.Capture == nil {
			conn.WriteJSON(Message{Type: "error", Data: "audio capture not available"})
			return
		}
		devices, err := s.Capture.ListDevices()
		if err != nil {
			conn.WriteJSON(Message{Type: "error", Data: err.Error()})
			return
		}
		conn.WriteJSON(Message{Type: "devices", Devices: devices})

	case "get_models":
		conn.WriteJSON(Message{Type: "models_list", Models: s.ModelMgr.GetAllModelsState()})

	case "download_model":
		if msg.ModelID == "" {
			conn.WriteJSON(Message{Type: "error", Data: "modelId is required"})
			return
		}
		conn.WriteJSON(Message{Type: "download_started", ModelID: msg.ModelID})
		go func(modelID string) {
			if _, err := s.ModelMgr.EnsureModel(context.Background(), modelID); err != nil {
				s.broadcast(Message{Type: "download_error", ModelID: modelID, Error: err.Error()})
				return
			}
			s.broadcast(Message{Type: "model_downloaded", ModelID: modelID})
			s.broadcast(Message{Type: "models_list", Models: s.ModelMgr.GetAllModelsState()})
		}(msg.ModelID)

	case "delete_model":
		if msg.ModelID == "" {
			conn.WriteJSON(Message{Type: "error", Data: "modelId is required"})
			return
		}
		if err := s.ModelMgr.DeleteModel(msg.ModelID); err != nil {
			conn.WriteJSON(Message{Type: "error", Data: err.Error()})
			return
		}
		conn.WriteJSON(Message{Type: "model_deleted", ModelID: msg.ModelID})
		conn.WriteJSON(Message{Type: "models_list", Models: s.ModelMgr.GetAllModelsState()})

	case "enroll":
		if msg.Name == "" {
			conn.WriteJSON(Message{Type: "error", Data: "name is required"})
			return
		}
		if len(msg.Samples) == 0 {
			conn.WriteJSON(Message{Type: "error", Data: "samples are required"})
			return
		}

		buffers := make([][]float32, 0, len(msg.Samples))
		for i, encoded := range msg.Samples {
			samples, err := decodeAudio(encoded)
			if err != nil {
				conn.WriteJSON(Message{Type: "error", Data: fmt.Sprintf("sample %d: %v", i, err)})
				return
			}
			buffers = append(buffers, samples)
		}

		profile, err := s.Auth.EnrollProfile(msg.Name, buffers, "ws")
		if err != nil {
			conn.WriteJSON(Message{Type: "enroll_failed", Error: err.Error()})
			return
		}
		conn.WriteJSON(Message{Type: "enrolled", Profile: profile})

	case "verify":
		if msg.ProfileID == "" {
			conn.WriteJSON(Message{Type: "error", Data: "profileId is required"})
			return
		}
		samples, err := decodeAudio(msg.Audio)
		if err != nil {
			conn.WriteJSON(Message{Type: "error", Data: err.Error()})
			return
		}

		outcome, err := s.Auth.VerifyProfile(msg.ProfileID, samples)
		if err != nil {
			conn.WriteJSON(Message{Type: "error", Data: err.Error()})
			return
		}
		conn.WriteJSON(Message{Type: "verified", ProfileID: msg.ProfileID, Outcome: outcome})

	case "identify":
		samples, err := decodeAudio(msg.Audio)
		if err != nil {
			conn.WriteJSON(Message{Type: "error", Data: err.Error()})
			return
		}

		match, analysis, err := s.Auth.Identify(samples)
		if err != nil {
			conn.WriteJSON(Message{Type: "error", Data: err.Error()})
			return
		}
		conn.WriteJSON(Message{Type: "identified", Match: match, Liveness: analysis})

	case "identify_all":
		samples, err := decodeAudio(msg.Audio)
		if err != nil {
			conn.WriteJSON(Message{Type: "error", Data: err.Error()})
			return
		}

		threshold := msg.Threshold
		if threshold == 0 {
			threshold = store.ThresholdLow
		}
		matches, err := s.Auth.IdentifyAll(samples, threshold)
		if err != nil {
			conn.WriteJSON(Message{Type: "error", Data: err.Error()})
			return
		}
		conn.WriteJSON(Message{Type: "identified_all", Matches: matches})

	case "liveness":
		samples, err := decodeAudio(msg.Audio)
		if err != nil {
			conn.WriteJSON(Message{Type: "error", Data: err.Error()})
			return
		}
		analysis := s.Auth.DetectLiveness(samples)
		conn.WriteJSON(Message{Type: "liveness_result", Liveness: &analysis})

	case "list_profiles":
		conn.WriteJSON(Message{Type: "profiles_list", Profiles: s.Auth.ListProfiles()})

	case "rename_profile":
		if msg.ProfileID == "" || msg.Name == "" {
			conn.WriteJSON(Message{Type: "error", Data: "profileId and name are required"})
			return
		}
		if err := s.Auth.RenameProfile(msg.ProfileID, msg.Name); err != nil {
			conn.WriteJSON(Message{Type: "error", Data: err.Error()})
			return
		}
		conn.WriteJSON(Message{Type: "profile_renamed", ProfileID: msg.ProfileID, Name: msg.Name})

	case "delete_profile":
		if msg.ProfileID == "" {
			conn.WriteJSON(Message{Type: "error", Data: "profileId is required"})
			return
		}
		if err := s.Auth.DeleteProfile(msg.ProfileID); err != nil {
			conn.WriteJSON(Message{Type: "error", Data: err.Error()})
			return
		}
		conn.WriteJSON(Message{Type: "profile_deleted", ProfileID: msg.ProfileID})

	default:
		conn.WriteJSON(Message{Type: "error", Data: "unknown message type: " + msg.Type})
	}
}
