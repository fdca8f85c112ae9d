package tts

import (
	"context"
	"fmt"

	"github.com/tahcohcat/qwen-tts-web/internal/logger"
)

// SampleWAV is a 44-byte, zero-length 8 kHz mono WAV.
const SampleWAV = "UklGRiQAAABXQVZFZm10IBAAAAABAAEAQB8AAEAfAAABAAgAZGF0YQAAAAA="

// DummyTts returns SampleWAV for every valid request. Used offline.
type DummyTts struct {
	builder *RequestBuilder
}

func NewDummyTts() *DummyTts {
	return &DummyTts{builder: NewRequestBuilder("", "", MaxTextLength)}
}

func (d *DummyTts) Synthesize(_ context.Context, _ string, req Request) (Response, error) {
	if err := d.builder.Validate(req); err != nil {
		return nil, err
	}
	logger.New().Debug(fmt.Sprintf("no tts configured, returning sample audio for voice %s", req.Voice))

	data, err := DecodeBase64(SampleWAV)
	if err != nil {
		return nil, err
	}
	return &InlineAudio{Data: data, MimeType: MimeTypeWAV}, nil
}

func (d *DummyTts) Name() string {
	return "dummy"
}
