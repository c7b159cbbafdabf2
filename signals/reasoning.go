package signals

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"go-floodline/types"
)

const reasoningSystemPrompt = "You are the verification reasoner for a disaster-response dashboard. " +
	"Correlate an incident report against satellite and weather ground truth for its zone and decide " +
	"whether the report is credible. High inundation with clear or partial cloud raises confidence; " +
	"heavy cloud requires precipitation corroboration or the imagery must be discounted. " +
	`Respond with a JSON object: {"confidence": integer 0-100, "reasoning": string, "verified": boolean}.`

// OpenAIReasoner is the generative verification pass. It implements the same
// interface as the deterministic consensus policy and is wired in when an API
// key is configured; any failure degrades to the documented neutral fallback,
// so a broken upstream never blocks a verdict.
type OpenAIReasoner struct {
	client   ChatCompleter
	model    string
	validate *validator.Validate
	log      *logrus.Logger
}

func NewOpenAIReasoner(client ChatCompleter, log *logrus.Logger) *OpenAIReasoner {
	return &OpenAIReasoner{
		client:   client,
		model:    openai.GPT4oMini,
		validate: validator.New(),
		log:      log,
	}
}

func (r *OpenAIReasoner) Reason(ctx context.Context, inc types.Incident, zone types.Zone, vision *types.VisionResult) types.ReasoningResult {
	prompt := fmt.Sprintf(
		"Incident (category %s): %q\nZone %q ground truth: inundation %.2f, cloud %s, precipitation %.1fmm.",
		inc.Category, inc.Narrative, zone.Name, zone.Inundation, zone.CloudStatus, zone.PrecipitationMM,
	)
	if vision != nil {
		prompt += fmt.Sprintf("\nMedia analysis: depth %.1fm, severity %s, %q.", vision.Depth, vision.Severity, vision.Description)
	} else {
		prompt += "\nNo media analysis is available."
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          r.model,
		ResponseFormat: jsonResponseFormat,
		MaxTokens:      300,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: reasoningSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		r.log.WithError(err).WithField("incident_id", inc.ID).Warn("Reasoning call failed, using neutral fallback")
		return types.FallbackReasoning()
	}

	content, err := firstChoice(resp)
	if err != nil {
		return types.FallbackReasoning()
	}

	var out types.ReasoningResult
	if err := decodeStrict(content, &out, r.validate); err != nil {
		r.log.WithError(err).WithField("incident_id", inc.ID).Warn("Reasoning returned an unusable payload, using neutral fallback")
		return types.FallbackReasoning()
	}
	return out
}
