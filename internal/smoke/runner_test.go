package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahcohcat/qwen-tts-web/config"
	"github.com/tahcohcat/qwen-tts-web/internal/tts"
)

func newFakeDashScope(t *testing.T, handler http.HandlerFunc) *tts.DashScope {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return tts.NewDashScope(&config.DashScopeConfig{
		Host:     srv.URL,
		Path:     "/generation",
		Model:    "qwen-tts",
		Timeout:  5,
		MaxChars: tts.MaxTextLength,
	})
}

// acceptsKey answers like the live API: 401 for invalid-key, audio otherwise.
func acceptsKey(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") == "Bearer invalid-key" {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"code":"InvalidApiKey","message":"Invalid API-key provided."}`)
		return
	}
	io.WriteString(w, "data:{\"output\":{\"audio\":{\"data\":\""+tts.SampleWAV+"\"}}}\n\n")
}

func TestRunner_DefaultSuitePasses(t *testing.T) {
	synth := newFakeDashScope(t, acceptsKey)
	var out bytes.Buffer

	res, err := NewRunner(synth, "sk-test", WithRate(0, 0), WithOutput(&out)).Run(context.Background(), DefaultCases())
	require.NoError(t, err)

	assert.Equal(t, len(DefaultCases()), res.Total)
	assert.Equal(t, res.Total, res.Passed, res.Errors)
	assert.Zero(t, res.Failed)
	assert.Equal(t, 100.0, res.SuccessRate())
	assert.Contains(t, out.String(), "Success rate: 100.0%")
}

func TestRunner_RateLimitedIsSkipped(t *testing.T) {
	synth := newFakeDashScope(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	res, err := NewRunner(synth, "sk-test", WithRate(0, 0), WithOutput(io.Discard)).Run(context.Background(), QuickCases())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 3, res.Skipped)
	assert.Zero(t, res.Failed)
}

func TestRunner_FailuresAreReported(t *testing.T) {
	synth := newFakeDashScope(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	cases := []Case{
		{Name: "audio", Text: "测试", Voice: tts.VoiceChelsie},
		{Name: "local", Text: "", Voice: tts.VoiceChelsie, Expect: ExpectValidation},
		{Name: "any", Text: "测试", Voice: tts.VoiceChelsie, Expect: ExpectAnyError},
	}
	res, err := NewRunner(synth, "sk-test", WithRate(0, 0), WithOutput(io.Discard)).Run(context.Background(), cases)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Passed)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "audio", res.Errors[0].Case)
	assert.Contains(t, res.Errors[0].Error, "server_error")
	assert.InDelta(t, 66.7, res.SuccessRate(), 0.1)
}

func TestRunner_ValidationCasesSkipNetwork(t *testing.T) {
	var calls int32
	synth := newFakeDashScope(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	var validation []Case
	for _, c := range DefaultCases() {
		if c.Expect == ExpectValidation {
			validation = append(validation, c)
		}
	}
	require.Len(t, validation, 3)

	res, err := NewRunner(synth, "sk-test", WithOutput(io.Discard)).Run(context.Background(), validation)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Passed)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestRunner_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewRunner(tts.NewDummyTts(), "", WithRate(1, 1), WithOutput(io.Discard)).Run(ctx, QuickCases())
	assert.Error(t, err)
	assert.Zero(t, res.Total)
}

func TestResults_JSON(t *testing.T) {
	res := &Results{Passed: 1, Total: 2, Failed: 1, Errors: []CaseError{{Case: "x", Error: "boom"}}}
	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"passed":1,"failed":1,"skipped":0,"total":2,"errors":[{"case":"x","error":"boom"}]}`, string(b))
	assert.Equal(t, 50.0, res.SuccessRate())
}

func TestExpectationString(t *testing.T) {
	assert.Equal(t, "audio", ExpectAudio.String())
	assert.Equal(t, "auth invalid", ExpectAuthInvalid.String())
}
