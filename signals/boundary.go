// Package signals holds the corroborating-signal adapters. Each adapter
// returns a best-effort structured result or its documented fallback; the
// loosely-typed JSON coming back from a generative model is decoded and
// validated here so the engine only ever sees the closed-set types.
package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sashabaranov/go-openai"

	"go-floodline/types"
)

// ChatCompleter is the slice of the OpenAI client the adapters use; tests
// substitute a canned implementation.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// decodeStrict maps a model response into out and validates it. Anything
// malformed or out of range fails closed so the caller substitutes its
// fallback instead of passing junk downstream.
func decodeStrict(raw string, out any, validate *validator.Validate) error {
	raw = strings.TrimSpace(raw)
	// Models occasionally fence their JSON despite instructions.
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode model response: %w: %w", types.ErrSignalUnavailable, err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("validate model response: %w: %w", types.ErrSignalUnavailable, err)
	}
	return nil
}

func firstChoice(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion: %w", types.ErrSignalUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

var jsonResponseFormat = &openai.ChatCompletionResponseFormat{
	Type: openai.ChatCompletionResponseFormatTypeJSONObject,
}
