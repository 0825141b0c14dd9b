package decoder

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bft-labs/morsebridge/pkg/inference"
	"github.com/bft-labs/morsebridge/pkg/log"
)

// Transcriber asks the model to list the marks in an image.
type Transcriber struct {
	provider  inference.Provider
	logger    log.Logger
	maxTokens int

	mu     sync.RWMutex
	prompt string
}

// NewTranscriber creates a transcriber. An empty prompt or a non-positive
// maxTokens takes the default.
func NewTranscriber(provider inference.Provider, prompt string, maxTokens int, logger log.Logger) *Transcriber {
	if prompt == "" {
		prompt = DefaultTranscribePrompt
	}
	if maxTokens <= 0 {
		maxTokens = DefaultTranscribeMaxTokens
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Transcriber{
		provider:  provider,
		logger:    logger,
		maxTokens: maxTokens,
		prompt:    prompt,
	}
}

// SetPrompt replaces the instruction for later requests. Empty restores the
// default.
func (t *Transcriber) SetPrompt(prompt string) {
	if prompt == "" {
		prompt = DefaultTranscribePrompt
	}
	t.mu.Lock()
	t.prompt = prompt
	t.mu.Unlock()
}

// Prompt returns the current instruction.
func (t *Transcriber) Prompt() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.prompt
}

// Transcribe sends the image at path and returns the trimmed reply, or
// NoResponse if the reply carries no text. File and request errors are
// returned.
func (t *Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	mediaType, data, err := EncodeFile(path)
	if err != nil {
		return "", err
	}

	resp, err := t.provider.Messages(ctx, &inference.Request{
		MaxTokens: t.maxTokens,
		Messages: []inference.Message{inference.NewUserMessage(
			inference.ImageBlock(mediaType, data),
			inference.TextBlock(t.Prompt()),
		)},
	})
	if err != nil {
		return "", fmt.Errorf("decoder: transcribe %s: %w", path, err)
	}

	text, ok := resp.FirstText()
	if !ok {
		t.logger.Warn("transcription reply had no text", log.String("path", path))
		return NoResponse, nil
	}
	text = strings.TrimSpace(text)
	t.logger.Debug("transcription", log.String("path", path), log.String("text", text))
	return text, nil
}
