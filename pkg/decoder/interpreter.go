package decoder

import (
	"context"
	"strings"
	"sync"

	"github.com/bft-labs/morsebridge/internal/domain"
	"github.com/bft-labs/morsebridge/pkg/inference"
	"github.com/bft-labs/morsebridge/pkg/log"
)

// Interpreter asks the model to read a transcription as Morse code.
type Interpreter struct {
	provider  inference.Provider
	logger    log.Logger
	maxTokens int

	mu     sync.RWMutex
	prompt string
}

// NewInterpreter creates an interpreter. An empty prompt or a non-positive
// maxTokens takes the default.
func NewInterpreter(provider inference.Provider, prompt string, maxTokens int, logger log.Logger) *Interpreter {
	if prompt == "" {
		prompt = DefaultInterpretPrompt
	}
	if maxTokens <= 0 {
		maxTokens = DefaultInterpretMaxTokens
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Interpreter{
		provider:  provider,
		logger:    logger,
		maxTokens: maxTokens,
		prompt:    prompt,
	}
}

// SetPrompt replaces the instruction for later requests. Empty restores the
// default.
func (i *Interpreter) SetPrompt(prompt string) {
	if prompt == "" {
		prompt = DefaultInterpretPrompt
	}
	i.mu.Lock()
	i.prompt = prompt
	i.mu.Unlock()
}

// Prompt returns the current instruction.
func (i *Interpreter) Prompt() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.prompt
}

// Interpret never fails: a request error yields the ERROR sentinel and an
// empty reply yields UNKNOWN.
func (i *Interpreter) Interpret(ctx context.Context, raw string) domain.DecodedMessage {
	resp, err := i.provider.Messages(ctx, &inference.Request{
		MaxTokens: i.maxTokens,
		Messages: []inference.Message{inference.NewUserMessage(
			inference.TextBlock(i.Prompt() + raw),
		)},
	})
	if err != nil {
		i.logger.Error("interpretation request failed", log.Err(err))
		return domain.NewSentinelMessage(domain.MessageError)
	}

	text, ok := resp.FirstText()
	text = strings.TrimSpace(text)
	if !ok || text == "" {
		return domain.NewSentinelMessage(domain.MessageUnknown)
	}
	return domain.NewDecodedMessage(text)
}
