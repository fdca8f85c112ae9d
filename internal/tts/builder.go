package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

type generationRequest struct {
	Model  string          `json:"model"`
	Input  generationInput `json:"input"`
	Stream bool            `json:"stream"`
}

type generationInput struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// RequestBuilder validates a Request and turns it into a DashScope HTTP call.
type RequestBuilder struct {
	Endpoint string
	Model    string
	MaxChars int
}

func NewRequestBuilder(endpoint, model string, maxChars int) *RequestBuilder {
	if maxChars <= 0 || maxChars > MaxTextLength {
		maxChars = MaxTextLength
	}
	return &RequestBuilder{Endpoint: endpoint, Model: model, MaxChars: maxChars}
}

// Validate rejects a request locally. Length is counted in runes.
func (b *RequestBuilder) Validate(req Request) error {
	n := utf8.RuneCountInString(req.Text)
	if n == 0 || strings.TrimSpace(req.Text) == "" {
		return ValidationError("text is required")
	}
	if n > b.MaxChars {
		return ValidationError("text is %d characters, max is %d", n, b.MaxChars)
	}
	if req.Voice == "" {
		return ValidationError("voice is required")
	}
	if _, ok := ParseVoice(string(req.Voice)); !ok {
		if s := SuggestVoice(string(req.Voice)); s != "" {
			return ValidationError("unsupported voice %q, did you mean %q?", req.Voice, s)
		}
		return ValidationError("unsupported voice %q", req.Voice)
	}
	return nil
}

// Build validates req and returns the POST request carrying the bearer credential.
func (b *RequestBuilder) Build(ctx context.Context, credential string, req Request) (*http.Request, error) {
	if err := b.Validate(req); err != nil {
		return nil, err
	}
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, newError(KindAuthInvalid, 0, "no API key configured")
	}

	voice, _ := ParseVoice(string(req.Voice))
	body, err := json.Marshal(generationRequest{
		Model:  b.Model,
		Input:  generationInput{Text: req.Text, Voice: string(voice)},
		Stream: req.Streaming,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+credential)
	if req.Streaming {
		httpReq.Header.Set("X-DashScope-SSE", "enable")
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	return httpReq, nil
}
