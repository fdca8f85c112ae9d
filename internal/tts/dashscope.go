package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tahcohcat/qwen-tts-web/config"
	"github.com/tahcohcat/qwen-tts-web/internal/logger"
)

const (
	defaultTimeout = 30 * time.Second
	// bodies are held in memory whole; hosted WAVs for 512 chars stay well under this
	maxBodyBytes = 64 << 20
)

// DashScope calls the qwen-tts multimodal-generation endpoint.
type DashScope struct {
	builder    *RequestBuilder
	httpClient *http.Client
	timeout    time.Duration
	logger     *logger.Log
	now        func() time.Time
}

type DashScopeOption func(*DashScope)

// WithHTTPClient swaps the transport, e.g. for tests
func WithHTTPClient(c *http.Client) DashScopeOption {
	return func(d *DashScope) { d.httpClient = c }
}

func WithClock(now func() time.Time) DashScopeOption {
	return func(d *DashScope) { d.now = now }
}

func NewDashScope(cfg *config.DashScopeConfig, opts ...DashScopeOption) *DashScope {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	d := &DashScope{
		builder:    NewRequestBuilder(cfg.Endpoint(), cfg.Model, cfg.MaxChars),
		httpClient: &http.Client{},
		timeout:    timeout,
		logger:     logger.New().WithModule("dashscope"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *DashScope) Name() string {
	return "DashScope qwen-tts"
}

func (d *DashScope) Builder() *RequestBuilder {
	return d.builder
}

// Synthesize validates, sends and interprets one generation. The call is
// aborted after the configured timeout and reported as KindTimeout.
func (d *DashScope) Synthesize(ctx context.Context, credential string, req Request) (Response, error) {
	if err := d.builder.Validate(req); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	httpReq, err := d.builder.Build(ctx, credential, req)
	if err != nil {
		return nil, err
	}

	d.logger.Debug(fmt.Sprintf("Generating audio with voice %s (%d chars, stream=%t)",
		req.Voice, len([]rune(req.Text)), req.Streaming))

	status, body, err := d.do(ctx, httpReq)
	if err != nil {
		return nil, err
	}

	resp, err := Interpret(status, body)
	if err != nil {
		d.logger.WithError(err).Warn("TTS call failed")
		return nil, err
	}

	d.logger.Debug(fmt.Sprintf("Received %s audio", resp.Kind()))
	return resp, nil
}

// FetchHosted downloads a HostedAudio URL within the client timeout.
func (d *DashScope) FetchHosted(ctx context.Context, audio *HostedAudio) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	return FetchHostedURL(ctx, d.httpClient, audio, d.now())
}

// CheckCredential makes a minimal call to see whether the key is accepted.
// Only 401/403 mean invalid; any other outcome, including transport failure,
// is treated as valid.
func (d *DashScope) CheckCredential(ctx context.Context, credential string) bool {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	httpReq, err := d.builder.Build(ctx, credential, Request{Text: "验证密钥", Voice: VoiceChelsie})
	if err != nil {
		return !IsAuthInvalid(err)
	}

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		d.logger.WithError(err).Debug("credential check failed, assuming valid")
		return true
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	return resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusForbidden
}

func (d *DashScope) do(ctx context.Context, httpReq *http.Request) (int, []byte, error) {
	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, classifyTransport(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, classifyTransport(ctx, err)
	}
	return resp.StatusCode, body, nil
}

func classifyTransport(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return wrapError(KindTimeout, "request timed out", err)
	}
	return wrapError(KindTransport, "request failed", err)
}
