package tts

import (
	"context"
	"fmt"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	ttspb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"

	"github.com/tahcohcat/qwen-tts-web/config"
	"github.com/tahcohcat/qwen-tts-web/internal/logger"
)

// Chirp voices standing in for each qwen-tts speaker
var googleVoices = map[Voice]string{
	VoiceChelsie: "Chirp3-HD-Aoede",
	VoiceCherry:  "Chirp3-HD-Leda",
	VoiceEthan:   "Chirp3-HD-Charon",
	VoiceSerena:  "Chirp3-HD-Kore",
	VoiceDylan:   "Chirp3-HD-Puck",
	VoiceJada:    "Chirp3-HD-Zephyr",
	VoiceSunny:   "Chirp3-HD-Callirrhoe",
}

// GoogleTTS synthesizes through Google Cloud Text-to-Speech. The credential
// argument is unused; Google auth comes from the service account.
type GoogleTTS struct {
	client     *texttospeech.Client
	builder    *RequestBuilder
	language   string
	sampleRate int32
	logger     *logger.Log
}

func NewGoogleTTS(ctx context.Context, cfg *config.Config) (*GoogleTTS, error) {
	var opts []option.ClientOption
	if cfg.Google.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Google.CredentialsFile))
	}

	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google TTS client: %w", err)
	}

	return &GoogleTTS{
		client:     client,
		builder:    NewRequestBuilder("", "", cfg.DashScope.MaxChars),
		language:   cfg.Google.LanguageCode,
		sampleRate: int32(cfg.Google.SampleRate),
		logger:     logger.New().WithModule("google-tts"),
	}, nil
}

// GoogleVoiceName maps a speaker to a full Google voice name, e.g. "en-US-Chirp3-HD-Aoede".
func GoogleVoiceName(language string, voice Voice) string {
	name, ok := googleVoices[voice]
	if !ok {
		name = googleVoices[VoiceChelsie]
	}
	return language + "-" + name
}

func (g *GoogleTTS) Synthesize(ctx context.Context, _ string, req Request) (Response, error) {
	if err := g.builder.Validate(req); err != nil {
		return nil, err
	}
	voice, _ := ParseVoice(string(req.Voice))

	ttsReq := &ttspb.SynthesizeSpeechRequest{
		Input: &ttspb.SynthesisInput{
			InputSource: &ttspb.SynthesisInput_Text{Text: strings.TrimSpace(req.Text)},
		},
		Voice: &ttspb.VoiceSelectionParams{
			LanguageCode: g.language,
			Name:         GoogleVoiceName(g.language, voice),
		},
		AudioConfig: &ttspb.AudioConfig{
			// LINEAR16 comes back with a WAV header
			AudioEncoding:   ttspb.AudioEncoding_LINEAR16,
			SampleRateHertz: g.sampleRate,
		},
	}

	g.logger.Debug(fmt.Sprintf("Generating Google TTS audio with voice: %s", ttsReq.Voice.Name))

	resp, err := g.client.SynthesizeSpeech(ctx, ttsReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, classifyTransport(ctx, err)
		}
		return nil, wrapError(KindServerError, "failed to synthesize speech", err)
	}

	if len(resp.AudioContent) == 0 {
		return nil, newError(KindMalformedResponse, 0, "empty audio content received from Google TTS")
	}

	return &InlineAudio{Data: resp.AudioContent, MimeType: MimeTypeWAV}, nil
}

func (g *GoogleTTS) Name() string {
	return "Google Cloud Text-to-Speech"
}

func (g *GoogleTTS) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
