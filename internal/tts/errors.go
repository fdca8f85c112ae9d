package tts

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failed TTS call by the recovery action it calls for.
type Kind string

const (
	KindAuthInvalid       Kind = "auth_invalid"
	KindRateLimited       Kind = "rate_limited"
	KindServerError       Kind = "server_error"
	KindHttpError         Kind = "http_error"
	KindApiError          Kind = "api_error"
	KindMalformedResponse Kind = "malformed_response"
	KindTimeout           Kind = "timeout"
	KindValidation        Kind = "validation_error"
	KindTransport         Kind = "transport_error"
)

func (k Kind) String() string {
	return string(k)
}

// ClassifiedError is the only error shape the interpreter and client return.
type ClassifiedError struct {
	Kind    Kind
	Status  int    // HTTP status when one was received
	Code    string // API error code for KindApiError
	Message string
	// authInvalid is set for KindAuthInvalid and for API errors carrying an auth code
	authInvalid bool
	err         error
}

func (e *ClassifiedError) Error() string {
	var b strings.Builder
	b.WriteString("tts ")
	b.WriteString(string(e.Kind))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Status)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.err != nil {
		b.WriteString(": ")
		b.WriteString(e.err.Error())
	}
	return b.String()
}

func (e *ClassifiedError) Unwrap() error {
	return e.err
}

// AuthInvalid reports whether the caller should drop the stored credential.
func (e *ClassifiedError) AuthInvalid() bool {
	return e.authInvalid || e.Kind == KindAuthInvalid
}

// Retryable reports whether trying again later could succeed.
func (e *ClassifiedError) Retryable() bool {
	switch e.Kind {
	case KindRateLimited, KindTimeout, KindServerError, KindTransport:
		return true
	}
	return false
}

func newError(kind Kind, status int, msg string) *ClassifiedError {
	return &ClassifiedError{Kind: kind, Status: status, Message: msg, authInvalid: kind == KindAuthInvalid}
}

func wrapError(kind Kind, msg string, err error) *ClassifiedError {
	return &ClassifiedError{Kind: kind, Message: msg, err: err}
}

// ValidationError builds a local rejection; no request was sent.
func ValidationError(format string, args ...any) *ClassifiedError {
	return newError(KindValidation, 0, fmt.Sprintf(format, args...))
}

func apiError(status int, code, message string) *ClassifiedError {
	return &ClassifiedError{
		Kind:        KindApiError,
		Status:      status,
		Code:        code,
		Message:     message,
		authInvalid: isAuthCode(code),
	}
}

var authCodes = []string{
	"invalidapikey",
	"invalid_api_key",
	"unauthorized",
	"accessdenied",
	"access_denied",
	"authenticationerror",
}

func isAuthCode(code string) bool {
	c := strings.ToLower(code)
	for _, ac := range authCodes {
		if c == ac || strings.HasPrefix(c, ac+".") {
			return true
		}
	}
	return false
}

// KindOf returns the classification of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

func IsAuthInvalid(err error) bool {
	var ce *ClassifiedError
	return errors.As(err, &ce) && ce.AuthInvalid()
}
