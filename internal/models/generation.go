package models

import "time"

// Generation is the persisted record of one TTS call. Audio itself is never stored.
type Generation struct {
	ID           string    `json:"id" db:"id"`
	Engine       string    `json:"engine" db:"engine"`
	Voice        string    `json:"voice" db:"voice"`
	TextChars    int       `json:"text_chars" db:"text_chars"`
	Outcome      string    `json:"outcome" db:"outcome"` // "inline", "hosted" or an error kind
	Filename     string    `json:"filename,omitempty" db:"filename"`
	AudioURL     string    `json:"audio_url,omitempty" db:"audio_url"`
	AudioBytes   int       `json:"audio_bytes" db:"audio_bytes"`
	InputTokens  int       `json:"input_tokens" db:"input_tokens"`
	OutputTokens int       `json:"output_tokens" db:"output_tokens"`
	TotalTokens  int       `json:"total_tokens" db:"total_tokens"`
	ErrorMessage string    `json:"error_message,omitempty" db:"error_message"`
	DurationMS   int64     `json:"duration_ms" db:"duration_ms"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Succeeded reports whether audio was produced
func (g *Generation) Succeeded() bool {
	return g.Outcome == "inline" || g.Outcome == "hosted"
}

// AppSettings is the browser-visible part of the application state.
type AppSettings struct {
	HasCredential bool   `json:"has_credential"`
	Theme         string `json:"theme_color"`
	DontAskAgain  bool   `json:"dont_ask_again"`
}

// SettingsUpdateRequest is a partial update; nil fields are left unchanged
type SettingsUpdateRequest struct {
	Theme        *string `json:"theme_color"`
	DontAskAgain *bool   `json:"dont_ask_again"`
}

type CredentialRequest struct {
	APIKey string `json:"api_key"`
}
