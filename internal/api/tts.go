package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tahcohcat/qwen-tts-web/internal/metrics"
	"github.com/tahcohcat/qwen-tts-web/internal/models"
	"github.com/tahcohcat/qwen-tts-web/internal/tts"
)

type GenerateRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Stream *bool  `json:"stream"`
}

type GenerateResponse struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	URL         string     `json:"url,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	AudioBase64 string     `json:"audio_base64,omitempty"`
	Filename    string     `json:"filename"`
	Usage       *tts.Usage `json:"usage,omitempty"`
}

// POST /api/v1/tts/generate - returns audio/wav, or JSON with ?format=json
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var body GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	req := tts.Request{
		Text:      body.Text,
		Voice:     h.defaultVoice,
		Streaming: h.defaultStream,
	}
	if body.Voice != "" {
		req.Voice = tts.Voice(body.Voice)
		if v, ok := tts.ParseVoice(body.Voice); ok {
			req.Voice = v
		}
	}
	if body.Stream != nil {
		req.Streaming = *body.Stream
	}

	credential, err := h.credential()
	if err != nil {
		writeError(w, err)
		return
	}

	id := uuid.NewString()
	chars := utf8.RuneCountInString(req.Text)
	record := &models.Generation{
		ID:        id,
		Engine:    h.engine,
		Voice:     string(req.Voice),
		TextChars: chars,
	}

	h.hub.Publish(EventGenerationStarted, id, map[string]interface{}{"voice": req.Voice, "chars": chars})

	start := h.now()
	resp, err := h.synth.Synthesize(r.Context(), credential, req)
	if err != nil {
		h.fail(w, record, start, err)
		return
	}

	filename := tts.Filename(start)
	record.Outcome = resp.Kind()
	record.Filename = filename
	if u := resp.TokenUsage(); u != nil {
		record.InputTokens, record.OutputTokens, record.TotalTokens = u.InputTokens, u.OutputTokens, u.TotalTokens
		metrics.RecordTokens(u.InputTokens, u.OutputTokens)
	}

	if r.URL.Query().Get("format") == "json" {
		out := GenerateResponse{ID: id, Kind: resp.Kind(), Filename: filename, Usage: resp.TokenUsage()}
		switch a := resp.(type) {
		case *tts.InlineAudio:
			out.AudioBase64 = base64.StdEncoding.EncodeToString(a.Data)
			record.AudioBytes = len(a.Data)
		case *tts.HostedAudio:
			out.URL = a.URL
			record.AudioURL = a.URL
			if !a.ExpiresAt.IsZero() {
				exp := a.ExpiresAt
				out.ExpiresAt = &exp
			}
		}
		h.succeed(record, start)
		writeJSON(w, http.StatusOK, out)
		return
	}

	if hosted, ok := resp.(*tts.HostedAudio); ok {
		record.AudioURL = hosted.URL
	}
	audio, err := tts.AudioBytes(r.Context(), h.synth, resp)
	if err != nil {
		h.fail(w, record, start, err)
		return
	}
	record.AudioBytes = len(audio)
	h.succeed(record, start)

	w.Header().Set("Content-Type", tts.MimeTypeWAV)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Generation-Id", id)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		h.logger.WithError(err).Warn("Failed to stream audio")
	}
}

func (h *Handler) succeed(record *models.Generation, start time.Time) {
	elapsed := h.now().Sub(start)
	record.DurationMS = elapsed.Milliseconds()
	metrics.RecordGeneration(h.engine, record.Outcome, elapsed.Seconds())
	h.save(record)

	h.logger.Info(fmt.Sprintf("Generated %s audio %s (%d chars, voice %s)", record.Outcome, record.ID, record.TextChars, record.Voice))
	h.hub.Publish(EventGenerationCompleted, record.ID, record)
}

func (h *Handler) fail(w http.ResponseWriter, record *models.Generation, start time.Time, err error) {
	elapsed := h.now().Sub(start)
	kind := tts.KindOf(err)
	if kind == "" {
		kind = "internal"
	}

	record.Outcome = kind.String()
	record.ErrorMessage = err.Error()
	record.DurationMS = elapsed.Milliseconds()
	metrics.RecordGeneration(h.engine, record.Outcome, elapsed.Seconds())

	// local rejections never reached the API and are not worth keeping
	if kind != tts.KindValidation {
		h.save(record)
	}

	h.logger.WithError(err).Warn("Generation " + record.ID + " failed")
	h.hub.Publish(EventGenerationFailed, record.ID, map[string]string{"kind": record.Outcome})

	if tts.IsAuthInvalid(err) {
		h.purgeCredential()
	}
	writeError(w, err)
}

func (h *Handler) save(record *models.Generation) {
	if h.history == nil {
		return
	}
	if err := h.history.Record(record); err != nil {
		h.logger.WithError(err).Error("Failed to record generation")
	}
}

// GET /api/v1/tts/voices
func (h *Handler) ListVoices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"voices":  tts.Voices(),
		"default": h.defaultVoice,
	})
}
