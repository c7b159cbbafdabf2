package signals

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"go-floodline/types"
)

const visionSystemPrompt = "You are a disaster-response vision analyst. " +
	"Given a photo from the field and the reporter's description, estimate flood water depth in meters " +
	"(0 if none is visible), a severity label (LOW, MODERATE, SEVERE or UNKNOWN) and a one-sentence " +
	"description of what the image shows. Respond with a JSON object: " +
	`{"depth": number, "severity": string, "description": string}.`

// VisionAnalyzer reads user-submitted media through a multimodal model.
type VisionAnalyzer struct {
	client   ChatCompleter
	model    string
	validate *validator.Validate
	log      *logrus.Logger
}

func NewVisionAnalyzer(client ChatCompleter, log *logrus.Logger) *VisionAnalyzer {
	return &VisionAnalyzer{
		client:   client,
		model:    openai.GPT4oMini,
		validate: validator.New(),
		log:      log,
	}
}

// AnalyzeMedia returns the vision reading for the referenced media, or the
// documented fallback plus an error when the call or its payload fails.
func (v *VisionAnalyzer) AnalyzeMedia(ctx context.Context, mediaURL, narrative string) (types.VisionResult, error) {
	resp, err := v.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          v.model,
		ResponseFormat: jsonResponseFormat,
		MaxTokens:      300,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: visionSystemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: "Reporter says: " + narrative,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    mediaURL,
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
	})
	if err != nil {
		v.log.WithError(err).Warn("Vision analysis call failed")
		return types.FallbackVision(), fmt.Errorf("vision: %w: %w", types.ErrSignalUnavailable, err)
	}

	content, err := firstChoice(resp)
	if err != nil {
		return types.FallbackVision(), fmt.Errorf("vision: %w", err)
	}

	var out types.VisionResult
	if err := decodeStrict(content, &out, v.validate); err != nil {
		v.log.WithError(err).Warn("Vision analysis returned an unusable payload")
		return types.FallbackVision(), fmt.Errorf("vision: %w", err)
	}
	return out, nil
}
