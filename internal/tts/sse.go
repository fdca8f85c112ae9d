package tts

import (
	"bufio"
	"bytes"
	"strings"
)

// frameScanner walks the `data:` lines of an SSE body.
type frameScanner struct {
	scanner *bufio.Scanner
	data    []byte
}

func newFrameScanner(body []byte) *frameScanner {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	// audio frames carry Base64 payloads well past the default token size
	scanner.Buffer(make([]byte, 0, 64*1024), len(body)+1)
	return &frameScanner{scanner: scanner}
}

// Scan advances to the next data frame
func (s *frameScanner) Scan() bool {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		s.data = []byte(payload)
		return true
	}
	return false
}

func (s *frameScanner) Data() []byte {
	return s.data
}
