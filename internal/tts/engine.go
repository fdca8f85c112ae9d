package tts

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tahcohcat/qwen-tts-web/config"
)

type EngineType string

const (
	EngineTypeDashScope EngineType = "dashscope"
	EngineTypeGoogle    EngineType = "google"
	EngineTypeDummy     EngineType = "dummy"
)

func (e EngineType) String() string {
	return string(e)
}

// NewSynthesizer creates the engine named by cfg.Tts.Type
func NewSynthesizer(ctx context.Context, cfg *config.Config) (Synthesizer, error) {
	switch EngineType(cfg.Tts.Type) {
	case EngineTypeDashScope, "":
		return NewDashScope(&cfg.DashScope), nil
	case EngineTypeGoogle:
		return NewGoogleTTS(ctx, cfg)
	case EngineTypeDummy:
		return NewDummyTts(), nil
	default:
		return nil, fmt.Errorf("unsupported TTS engine type: %s", cfg.Tts.Type)
	}
}

// HostedFetcher is implemented by engines that may return HostedAudio.
type HostedFetcher interface {
	FetchHosted(ctx context.Context, audio *HostedAudio) ([]byte, error)
}

// AudioBytes resolves resp to playable bytes. Hosted audio is fetched through
// s when it implements HostedFetcher, otherwise with http.DefaultClient.
func AudioBytes(ctx context.Context, s Synthesizer, resp Response) ([]byte, error) {
	switch r := resp.(type) {
	case *InlineAudio:
		return r.Data, nil
	case *HostedAudio:
		if f, ok := s.(HostedFetcher); ok {
			return f.FetchHosted(ctx, r)
		}
		return FetchHostedURL(ctx, http.DefaultClient, r, time.Now())
	default:
		return nil, newError(KindMalformedResponse, 0, fmt.Sprintf("unknown response %T", resp))
	}
}
