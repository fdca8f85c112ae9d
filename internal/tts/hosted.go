package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// hostedStatusError maps the status of a hosted-audio GET. The URL is a signed
// storage link fetched without the API key, so a 401/403 there means the link
// was denied or has expired and never says anything about the credential.
func hostedStatusError(status int) error {
	switch {
	case status >= 200 && status <= 299:
		return nil
	case status == http.StatusTooManyRequests:
		return newError(KindRateLimited, status, "audio download rate limited, try again later")
	case status >= 500 && status <= 599:
		return newError(KindServerError, status, http.StatusText(status))
	case status == http.StatusUnauthorized || status == http.StatusForbidden ||
		status == http.StatusNotFound || status == http.StatusGone:
		return newError(KindHttpError, status, "hosted audio URL was denied or has expired")
	default:
		return newError(KindHttpError, status, http.StatusText(status))
	}
}

// FetchHostedURL downloads hosted audio with client. Expired URLs fail without a request.
func FetchHostedURL(ctx context.Context, client *http.Client, audio *HostedAudio, now time.Time) ([]byte, error) {
	if audio.Expired(now) {
		return nil, newError(KindMalformedResponse, 0, "hosted audio URL has expired")
	}
	if client == nil {
		client = http.DefaultClient
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, audio.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}

	if err := hostedStatusError(resp.StatusCode); err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, newError(KindMalformedResponse, resp.StatusCode, "hosted audio is empty")
	}
	return body, nil
}
