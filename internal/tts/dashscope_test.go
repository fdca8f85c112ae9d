package tts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahcohcat/qwen-tts-web/config"
)

func newTestDashScope(t *testing.T, handler http.HandlerFunc, opts ...DashScopeOption) (*DashScope, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.DashScopeConfig{
		Host:     srv.URL,
		Path:     "/api/v1/services/aigc/multimodal-generation/generation",
		Model:    "qwen-tts",
		Timeout:  5,
		MaxChars: 512,
	}
	return NewDashScope(cfg, opts...), srv
}

func TestDashScope_SynthesizeSSE(t *testing.T) {
	var gotBody map[string]any
	d, _ := newTestDashScope(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/services/aigc/multimodal-generation/generation", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "enable", r.Header.Get("X-DashScope-SSE"))
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "id:1\nevent:result\ndata:{\"output\":{\"finish_reason\":\"null\"}}\n\n")
		io.WriteString(w, "id:2\nevent:result\ndata:{\"output\":{\"audio\":{\"data\":\""+SampleWAV+"\"}},\"usage\":{\"total_tokens\":9}}\n\n")
	})

	resp, err := d.Synthesize(context.Background(), "sk-test", Request{Text: "今天天气真好", Voice: VoiceSerena, Streaming: true})
	require.NoError(t, err)

	inline := resp.(*InlineAudio)
	assert.True(t, IsWAV(inline.Data))
	assert.Equal(t, 9, inline.Usage.TotalTokens)
	assert.Equal(t, "qwen-tts", gotBody["model"])
}

func TestDashScope_SynthesizeUnauthorized(t *testing.T) {
	d, _ := newTestDashScope(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"code":"InvalidApiKey","message":"Invalid API-key provided."}`)
	})

	_, err := d.Synthesize(context.Background(), "invalid-key", Request{Text: "测试", Voice: VoiceChelsie})
	requireKind(t, err, KindAuthInvalid)
	assert.True(t, IsAuthInvalid(err))
}

func TestDashScope_ValidationNeverHitsNetwork(t *testing.T) {
	var calls int32
	d, _ := newTestDashScope(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := d.Synthesize(context.Background(), "sk-test", Request{Text: strings.Repeat("测", 513), Voice: VoiceChelsie})
	requireKind(t, err, KindValidation)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestDashScope_Timeout(t *testing.T) {
	release := make(chan struct{})
	d, _ := newTestDashScope(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := d.Synthesize(ctx, "sk-test", Request{Text: "hi", Voice: VoiceChelsie})
	ce := requireKind(t, err, KindTimeout)
	assert.True(t, ce.Retryable())
}

func TestDashScope_TransportFailure(t *testing.T) {
	d, srv := newTestDashScope(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := d.Synthesize(context.Background(), "sk-test", Request{Text: "hi", Voice: VoiceChelsie})
	requireKind(t, err, KindTransport)
}

func TestDashScope_FetchHosted(t *testing.T) {
	wav, err := DecodeBase64(SampleWAV)
	require.NoError(t, err)

	d, srv := newTestDashScope(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/audio.wav":
			w.Header().Set("Content-Type", "audio/wav")
			w.Write(wav)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	got, err := d.FetchHosted(context.Background(), &HostedAudio{URL: srv.URL + "/audio.wav"})
	require.NoError(t, err)
	assert.Equal(t, wav, got)

	_, err = d.FetchHosted(context.Background(), &HostedAudio{URL: srv.URL + "/missing.wav"})
	ce := requireKind(t, err, KindHttpError)
	assert.Equal(t, http.StatusNotFound, ce.Status)
}

func TestDashScope_FetchHostedStatuses(t *testing.T) {
	tests := []struct {
		status int
		kind   Kind
	}{
		{http.StatusUnauthorized, KindHttpError},
		{http.StatusForbidden, KindHttpError},
		{http.StatusNotFound, KindHttpError},
		{http.StatusGone, KindHttpError},
		{http.StatusBadRequest, KindHttpError},
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusInternalServerError, KindServerError},
		{http.StatusServiceUnavailable, KindServerError},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			d, srv := newTestDashScope(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Empty(t, r.Header.Get("Authorization"))
				w.WriteHeader(tt.status)
				io.WriteString(w, `<Error><Code>AccessDenied</Code></Error>`)
			})

			_, err := d.FetchHosted(context.Background(), &HostedAudio{URL: srv.URL + "/audio.wav"})
			ce := requireKind(t, err, tt.kind)
			assert.Equal(t, tt.status, ce.Status)
			assert.False(t, ce.AuthInvalid())
			assert.False(t, IsAuthInvalid(err))
		})
	}
}

func TestDashScope_FetchHostedEmptyBody(t *testing.T) {
	d, srv := newTestDashScope(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := d.FetchHosted(context.Background(), &HostedAudio{URL: srv.URL + "/audio.wav"})
	requireKind(t, err, KindMalformedResponse)
}

func TestDashScope_FetchHostedExpired(t *testing.T) {
	now := time.Unix(2000, 0)
	d, srv := newTestDashScope(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("expired URL must not be fetched")
	}, WithClock(func() time.Time { return now }))

	_, err := d.FetchHosted(context.Background(), &HostedAudio{URL: srv.URL, ExpiresAt: time.Unix(1000, 0)})
	requireKind(t, err, KindMalformedResponse)
}

func TestDashScope_CheckCredential(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{"ok", http.StatusOK, true},
		{"bad request still valid", http.StatusBadRequest, true},
		{"rate limited still valid", http.StatusTooManyRequests, true},
		{"unauthorized", http.StatusUnauthorized, false},
		{"forbidden", http.StatusForbidden, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := newTestDashScope(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			assert.Equal(t, tt.want, d.CheckCredential(context.Background(), "sk-test"))
		})
	}
}

func TestDashScope_CheckCredentialLenientOnTransportFailure(t *testing.T) {
	d, srv := newTestDashScope(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	assert.True(t, d.CheckCredential(context.Background(), "sk-test"))
	assert.False(t, d.CheckCredential(context.Background(), "  "))
}

func TestAudioBytes(t *testing.T) {
	wav, _ := DecodeBase64(SampleWAV)
	d, srv := newTestDashScope(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(wav)
	})

	got, err := AudioBytes(context.Background(), d, &InlineAudio{Data: []byte("abc")})
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	got, err = AudioBytes(context.Background(), d, &HostedAudio{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, wav, got)

	got, err = AudioBytes(context.Background(), NewDummyTts(), &HostedAudio{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, wav, got)
}

func TestAudioBytes_FallbackFetchStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := AudioBytes(context.Background(), NewDummyTts(), &HostedAudio{URL: srv.URL})
	ce := requireKind(t, err, KindHttpError)
	assert.False(t, ce.AuthInvalid())

	_, err = AudioBytes(context.Background(), NewDummyTts(), &HostedAudio{URL: srv.URL, ExpiresAt: time.Now().Add(-time.Minute)})
	requireKind(t, err, KindMalformedResponse)
}

func TestDummyTts(t *testing.T) {
	d := NewDummyTts()
	assert.Equal(t, "dummy", d.Name())

	resp, err := d.Synthesize(context.Background(), "", Request{Text: "hi", Voice: VoiceSunny})
	require.NoError(t, err)
	assert.True(t, IsWAV(resp.(*InlineAudio).Data))

	_, err = d.Synthesize(context.Background(), "", Request{Text: "", Voice: VoiceSunny})
	requireKind(t, err, KindValidation)
}

func TestNewSynthesizer(t *testing.T) {
	s, err := NewSynthesizer(context.Background(), &config.Config{Tts: config.TtsConfig{Type: "dummy"}})
	require.NoError(t, err)
	assert.Equal(t, "dummy", s.Name())

	s, err = NewSynthesizer(context.Background(), &config.Config{Tts: config.TtsConfig{Type: "dashscope"}})
	require.NoError(t, err)
	assert.IsType(t, &DashScope{}, s)

	_, err = NewSynthesizer(context.Background(), &config.Config{Tts: config.TtsConfig{Type: "espeak"}})
	assert.Error(t, err)
}

func TestGoogleVoiceName(t *testing.T) {
	assert.Equal(t, "en-US-Chirp3-HD-Charon", GoogleVoiceName("en-US", VoiceEthan))
	assert.Equal(t, "cmn-CN-Chirp3-HD-Aoede", GoogleVoiceName("cmn-CN", "nobody"))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "qwen-tts-1700000000123.wav", Filename(time.UnixMilli(1700000000123)))
}
