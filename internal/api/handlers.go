// internal/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/tahcohcat/qwen-tts-web/internal/logger"
	"github.com/tahcohcat/qwen-tts-web/internal/models"
	"github.com/tahcohcat/qwen-tts-web/internal/services"
	"github.com/tahcohcat/qwen-tts-web/internal/tts"
	"github.com/tahcohcat/qwen-tts-web/internal/websocket"
)

const (
	EventGenerationStarted   = "generation.started"
	EventGenerationCompleted = "generation.completed"
	EventGenerationFailed    = "generation.failed"
	EventCredentialReset     = "credential.reset"
)

// CredentialChecker pre-checks a key before it is stored.
type CredentialChecker interface {
	CheckCredential(ctx context.Context, credential string) bool
}

type Options struct {
	Synthesizer tts.Synthesizer
	Settings    *services.SettingsService
	History     *services.HistoryService // optional
	Hub         *websocket.Hub           // optional
	Engine      string
	// FallbackCredential is used when no key has been stored through the UI
	FallbackCredential string
	DefaultVoice       tts.Voice
	DefaultStream      bool
}

type Handler struct {
	synth              tts.Synthesizer
	settings           *services.SettingsService
	history            *services.HistoryService
	hub                *websocket.Hub
	engine             string
	fallbackCredential string
	defaultVoice       tts.Voice
	defaultStream      bool
	logger             *logger.Log
	now                func() time.Time
}

func NewHandler(opts Options) *Handler {
	voice := opts.DefaultVoice
	if _, ok := tts.ParseVoice(string(voice)); !ok {
		voice = tts.VoiceChelsie
	}
	engine := opts.Engine
	if engine == "" {
		engine = tts.EngineTypeDashScope.String()
	}

	return &Handler{
		synth:              opts.Synthesizer,
		settings:           opts.Settings,
		history:            opts.History,
		hub:                opts.Hub,
		engine:             engine,
		fallbackCredential: opts.FallbackCredential,
		defaultVoice:       voice,
		defaultStream:      opts.DefaultStream,
		logger:             logger.New().WithModule("api"),
		now:                time.Now,
	}
}

// credential returns the stored key, or the configured one when none is stored
func (h *Handler) credential() (string, error) {
	key, err := h.settings.Credential()
	if err != nil {
		return "", err
	}
	if key == "" {
		key = h.fallbackCredential
	}
	return key, nil
}

// purgeCredential drops the stored key after the API rejected it.
func (h *Handler) purgeCredential() {
	if err := h.settings.ResetCredential(); err != nil {
		h.logger.WithError(err).Error("Failed to reset credential")
		return
	}
	h.logger.Warn("Stored API key was rejected and has been removed")
	h.hub.Publish(EventCredentialReset, "", nil)
}

// GET /api/v1/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	state, err := h.settings.Load()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state.Public())
}

// PUT /api/v1/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req models.SettingsUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	state, err := h.settings.Apply(req)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state.Public())
}

func (h *Handler) checkCredential(ctx context.Context, key string) bool {
	checker, ok := h.synth.(CredentialChecker)
	if !ok {
		return true
	}
	return checker.CheckCredential(ctx, key)
}

// PUT /api/v1/settings/credential - verify, then store the key
func (h *Handler) SaveCredential(w http.ResponseWriter, r *http.Request) {
	var req models.CredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.APIKey == "" {
		writeBadRequest(w, "api_key is required")
		return
	}

	if !h.checkCredential(r.Context(), req.APIKey) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: errorDetail{
			Kind:    tts.KindAuthInvalid.String(),
			Message: "The API key was rejected, please check it and try again",
			Action:  ActionReenterCredential,
		}})
		return
	}

	if err := h.settings.SaveCredential(req.APIKey); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	h.GetSettings(w, r)
}

// DELETE /api/v1/settings/credential
func (h *Handler) ResetCredential(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.ResetCredential(); err != nil {
		writeError(w, err)
		return
	}
	h.hub.Publish(EventCredentialReset, "", nil)
	h.GetSettings(w, r)
}

// POST /api/v1/settings/credential/check - checks the supplied key, or the stored one
func (h *Handler) CheckCredential(w http.ResponseWriter, r *http.Request) {
	var req models.CredentialRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "Invalid request body")
			return
		}
	}

	key := req.APIKey
	if key == "" {
		var err error
		if key, err = h.credential(); err != nil {
			writeError(w, err)
			return
		}
	}
	if key == "" {
		writeJSON(w, http.StatusOK, map[string]bool{"valid": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"valid": h.checkCredential(r.Context(), key)})
}

// GET /api/v1/history?limit=N
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"generations": []models.Generation{}})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	generations, err := h.history.Recent(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	stats, err := h.history.Stats()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"generations": generations,
		"stats":       stats,
	})
}

// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"engine": h.synth.Name(),
	})
}

func RegisterRoutes(r *mux.Router, h *Handler) {
	r.HandleFunc("/tts/generate", h.Generate).Methods("POST")
	r.HandleFunc("/tts/voices", h.ListVoices).Methods("GET")
	r.HandleFunc("/settings", h.GetSettings).Methods("GET")
	r.HandleFunc("/settings", h.UpdateSettings).Methods("PUT")
	r.HandleFunc("/settings/credential", h.SaveCredential).Methods("PUT")
	r.HandleFunc("/settings/credential", h.ResetCredential).Methods("DELETE")
	r.HandleFunc("/settings/credential/check", h.CheckCredential).Methods("POST")
	r.HandleFunc("/history", h.ListHistory).Methods("GET")
}
