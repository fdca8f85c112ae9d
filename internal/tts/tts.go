package tts

import (
	"bytes"
	"context"
	"fmt"
	"time"
)

const (
	MaxTextLength = 512
	MimeTypeWAV   = "audio/wav"
)

// Request is one user-initiated generation.
type Request struct {
	Text      string `json:"text"`
	Voice     Voice  `json:"voice"`
	Streaming bool   `json:"stream"`
}

// Usage mirrors the token accounting DashScope attaches to a result
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Response is either *InlineAudio or *HostedAudio.
type Response interface {
	Kind() string
	TokenUsage() *Usage
}

type InlineAudio struct {
	Data     []byte
	MimeType string
	Usage    *Usage
}

func (a *InlineAudio) Kind() string       { return "inline" }
func (a *InlineAudio) TokenUsage() *Usage { return a.Usage }

// HostedAudio must be fetched by the caller before ExpiresAt.
type HostedAudio struct {
	URL       string
	ExpiresAt time.Time
	ID        string
	Usage     *Usage
}

func (a *HostedAudio) Kind() string       { return "hosted" }
func (a *HostedAudio) TokenUsage() *Usage { return a.Usage }

// Expired reports whether the URL is past its expiry at now. A zero ExpiresAt never expires.
func (a *HostedAudio) Expired(now time.Time) bool {
	return !a.ExpiresAt.IsZero() && !now.Before(a.ExpiresAt)
}

// Synthesizer turns a Request into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, credential string, req Request) (Response, error)
	Name() string
}

// Filename suggests a download name for audio generated at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("qwen-tts-%d.wav", t.UnixMilli())
}

// IsWAV checks for a RIFF/WAVE header.
func IsWAV(b []byte) bool {
	return len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WAVE"))
}
