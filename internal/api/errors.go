package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tahcohcat/qwen-tts-web/internal/tts"
)

const (
	ActionReenterCredential = "reenter_credential"
	ActionRetryLater        = "retry_later"
	ActionNone              = "none"
)

type errorDetail struct {
	Kind    string `json:"kind"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Action  string `json:"action"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

// statusFor maps a classified error to the HTTP status and the action the UI should take.
func statusFor(ce *tts.ClassifiedError) (int, string) {
	if ce.AuthInvalid() {
		return http.StatusUnauthorized, ActionReenterCredential
	}

	switch ce.Kind {
	case tts.KindValidation:
		return http.StatusBadRequest, ActionNone
	case tts.KindRateLimited:
		return http.StatusTooManyRequests, ActionRetryLater
	case tts.KindTimeout:
		return http.StatusGatewayTimeout, ActionRetryLater
	case tts.KindServerError, tts.KindTransport:
		return http.StatusBadGateway, ActionRetryLater
	default:
		return http.StatusBadGateway, ActionNone
	}
}

func writeError(w http.ResponseWriter, err error) {
	var ce *tts.ClassifiedError
	if !errors.As(err, &ce) {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: errorDetail{
			Kind:    "internal",
			Message: err.Error(),
			Action:  ActionNone,
		}})
		return
	}

	status, action := statusFor(ce)
	msg := ce.Message
	if msg == "" {
		msg = ce.Error()
	}
	writeJSON(w, status, errorResponse{Error: errorDetail{
		Kind:    ce.Kind.String(),
		Code:    ce.Code,
		Message: msg,
		Action:  action,
	}})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: errorDetail{
		Kind:    tts.KindValidation.String(),
		Message: msg,
		Action:  ActionNone,
	}})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
