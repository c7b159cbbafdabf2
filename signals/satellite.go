package signals

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"go-floodline/types"
)

const satelliteSystemPrompt = "You are a satellite imagery analyst for a flood-response dashboard. " +
	"Given the latest imagery metadata for a monitored zone, estimate the fraction of the zone that is " +
	"inundated (0 to 1) and classify cloud cover as CLEAR, PARTIAL_CLOUD or HEAVY_CLOUD. " +
	`Respond with a JSON object: {"inundationLevel": number, "status": string}.`

// SatelliteAnalyzer derives per-zone inundation estimates from imagery.
type SatelliteAnalyzer struct {
	client   ChatCompleter
	model    string
	validate *validator.Validate
	log      *logrus.Logger
}

func NewSatelliteAnalyzer(client ChatCompleter, log *logrus.Logger) *SatelliteAnalyzer {
	return &SatelliteAnalyzer{
		client:   client,
		model:    openai.GPT4oMini,
		validate: validator.New(),
		log:      log,
	}
}

// AnalyzeZone returns the imagery reading for the zone, or the documented
// fallback plus an error when the call or its payload fails.
func (s *SatelliteAnalyzer) AnalyzeZone(ctx context.Context, zone types.Zone) (types.SatelliteResult, error) {
	prompt := fmt.Sprintf(
		"Zone %q centered at lat %.4f, lng %.4f. Previous reading: inundation %.2f, cloud %s, precipitation %.1fmm.",
		zone.Name, zone.Centroid.Lat, zone.Centroid.Lng, zone.Inundation, zone.CloudStatus, zone.PrecipitationMM,
	)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          s.model,
		ResponseFormat: jsonResponseFormat,
		MaxTokens:      150,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: satelliteSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		s.log.WithError(err).WithField("zone", zone.ID).Warn("Satellite analysis call failed")
		return types.FallbackSatellite(), fmt.Errorf("satellite: %w: %w", types.ErrSignalUnavailable, err)
	}

	content, err := firstChoice(resp)
	if err != nil {
		return types.FallbackSatellite(), fmt.Errorf("satellite: %w", err)
	}

	var out types.SatelliteResult
	if err := decodeStrict(content, &out, s.validate); err != nil {
		s.log.WithError(err).WithField("zone", zone.ID).Warn("Satellite analysis returned an unusable payload")
		return types.FallbackSatellite(), fmt.Errorf("satellite: %w", err)
	}
	return out, nil
}
