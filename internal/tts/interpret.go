package tts

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

type wireMessage struct {
	RequestID string          `json:"request_id"`
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	Output    *wireOutput     `json:"output"`
	Audio     json.RawMessage `json:"audio"` // some proxies hoist audio out of output
	Usage     *Usage          `json:"usage"`
	Error     json.RawMessage `json:"error"`
}

type wireOutput struct {
	Audio        json.RawMessage `json:"audio"`
	FinishReason string          `json:"finish_reason"`
}

type wireAudio struct {
	URL       string `json:"url"`
	Data      string `json:"data"`
	ID        string `json:"id"`
	ExpiresAt int64  `json:"expires_at"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// present reports whether raw carries a value; null, "" and false count as missing.
func present(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", `""`, "false":
		return false
	}
	return true
}

// hasError also ignores an empty object, which carries neither code nor message.
func (m *wireMessage) hasError() bool {
	if !present(m.Error) {
		return false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(m.Error, &obj); err == nil && len(obj) == 0 {
		return false
	}
	return true
}

// audio returns output.audio, falling back to a top-level audio field.
func (m *wireMessage) audio() json.RawMessage {
	if m.Output != nil && present(m.Output.Audio) {
		return m.Output.Audio
	}
	if present(m.Audio) {
		return m.Audio
	}
	return nil
}

func (m *wireMessage) hasAudio() bool {
	return m.audio() != nil
}

func (m *wireMessage) hasFinishReason() bool {
	return m.Output != nil && m.Output.FinishReason != ""
}

// Interpret classifies one raw TTS HTTP response.
//
// Non-2xx statuses are classified without looking at the body. A 2xx body is
// scanned as SSE first; the first `data:` frame carrying output.audio or an
// error ends the scan. Bodies without a resolving frame are parsed as a single
// JSON document.
func Interpret(status int, body []byte) (Response, error) {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, newError(KindAuthInvalid, status, "credential rejected")
	case status == http.StatusTooManyRequests:
		return nil, newError(KindRateLimited, status, "rate limited, try again later")
	case status >= 500 && status <= 599:
		return nil, newError(KindServerError, status, http.StatusText(status))
	case status < 200 || status > 299:
		return nil, newError(KindHttpError, status, http.StatusText(status))
	}

	msg, err := resolveMessage(body)
	if err != nil {
		return nil, err
	}
	return resolveAudio(status, msg)
}

func resolveMessage(body []byte) (*wireMessage, error) {
	var candidate *wireMessage

	frames := newFrameScanner(body)
	for frames.Scan() {
		var frame wireMessage
		if err := json.Unmarshal(frames.Data(), &frame); err != nil {
			continue
		}
		if frame.hasError() || frame.hasAudio() {
			return &frame, nil
		}
		if frame.hasFinishReason() {
			f := frame
			candidate = &f
		}
	}

	if candidate != nil {
		return candidate, nil
	}

	var whole wireMessage
	if err := json.Unmarshal(bytes.TrimSpace(body), &whole); err != nil {
		return nil, wrapError(KindMalformedResponse, "response is neither SSE nor JSON", err)
	}
	return &whole, nil
}

func resolveAudio(status int, msg *wireMessage) (Response, error) {
	if msg.hasError() {
		code, message := decodeWireError(msg.Error)
		return nil, apiError(status, code, message)
	}
	// DashScope also reports failures as a top-level code/message pair
	if msg.Code != "" && !msg.hasAudio() {
		return nil, apiError(status, msg.Code, msg.Message)
	}
	if !msg.hasAudio() {
		return nil, newError(KindMalformedResponse, 0, "no output.audio in response")
	}

	raw := bytes.TrimSpace(msg.audio())

	// older responses carried output.audio as a bare Base64 string
	if raw[0] == '"' {
		var data string
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, wrapError(KindMalformedResponse, "unreadable output.audio", err)
		}
		return inlineAudio(data, msg.Usage)
	}

	var audio wireAudio
	if err := json.Unmarshal(raw, &audio); err != nil {
		return nil, wrapError(KindMalformedResponse, "unreadable output.audio", err)
	}

	switch {
	case audio.URL != "":
		hosted := &HostedAudio{URL: audio.URL, ID: audio.ID, Usage: msg.Usage}
		if audio.ExpiresAt > 0 {
			hosted.ExpiresAt = time.Unix(audio.ExpiresAt, 0)
		}
		return hosted, nil
	case audio.Data != "":
		return inlineAudio(audio.Data, msg.Usage)
	default:
		return nil, newError(KindMalformedResponse, 0, "output.audio has neither url nor data")
	}
}

func inlineAudio(data string, usage *Usage) (Response, error) {
	decoded, err := DecodeBase64(data)
	if err != nil {
		return nil, wrapError(KindMalformedResponse, "audio data is not valid Base64", err)
	}
	if len(decoded) == 0 {
		return nil, newError(KindMalformedResponse, 0, "audio data is empty")
	}
	return &InlineAudio{Data: decoded, MimeType: MimeTypeWAV, Usage: usage}, nil
}

// DecodeBase64 accepts padded or unpadded standard Base64.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	b, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return b, nil
	}
	if b, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); rawErr == nil {
		return b, nil
	}
	return nil, err
}

func decodeWireError(raw json.RawMessage) (string, string) {
	var we wireError
	if err := json.Unmarshal(raw, &we); err == nil {
		if we.Message == "" {
			we.Message = "API call failed"
		}
		return we.Code, we.Message
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return "", s
	}
	return "", "API call failed"
}
