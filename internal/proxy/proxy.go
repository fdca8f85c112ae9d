// Package proxy forwards the TTS generation endpoint to DashScope so a browser
// on localhost can call it without cross-origin failures.
package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/tahcohcat/qwen-tts-web/config"
	"github.com/tahcohcat/qwen-tts-web/internal/logger"
	"github.com/tahcohcat/qwen-tts-web/internal/metrics"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// New returns a pass-through handler for upstream. Bodies are relayed untouched
// and flushed as they arrive so SSE frames are not buffered.
func New(upstream string) (http.Handler, error) {
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream %q: %w", upstream, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid upstream %q: scheme and host are required", upstream)
	}

	log := logger.New().WithModule("proxy")

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			log.Info(fmt.Sprintf("Proxy request: %s %s", pr.In.Method, pr.In.URL.RequestURI()))
		},
		FlushInterval: -1,
		ModifyResponse: func(resp *http.Response) error {
			log.Info(fmt.Sprintf("Proxy response: %d", resp.StatusCode))
			metrics.RecordProxyResponse(resp.StatusCode)
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.WithError(err).Error("Proxy error")
			metrics.RecordProxyResponse(0)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(errorBody{Error: "proxy error", Message: err.Error()})
		},
	}, nil
}

// RegisterRoutes mounts the proxy at the generation path of cfg.
func RegisterRoutes(r *mux.Router, cfg config.DashScopeConfig) error {
	h, err := New(cfg.Host)
	if err != nil {
		return err
	}
	r.Handle(cfg.Path, h)
	return nil
}
