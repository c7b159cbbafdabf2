package consensus

import (
	"context"
	"fmt"
	"strings"

	"go-floodline/types"
)

const (
	// NeutralConfidence is the score an incident lands on when every
	// corroborating signal is missing or failing.
	NeutralConfidence = 50

	verifyCutoff = 60

	highInundation = 0.6
	lowInundation  = 0.2

	clearSkyBoost           = 30
	partialCloudBoost       = 20
	heavyCloudDiscount      = 15
	radarCorroborationBoost = 15
	visionBoost             = 10
	heavyPrecipBoost        = 10

	// heavyPrecipMM is the rate treated as actively ongoing rainfall.
	heavyPrecipMM = 10.0
)

// Policy is the deterministic reasoning pass: it correlates an incident's
// category against the zone's satellite and weather state and produces a
// confidence score and verdict. The precipitation offset for heavy-cloud
// uncertainty is the one deliberately tunable knob.
type Policy struct {
	// RadarCorroborationMM is the precipitation rate that counts as
	// radar-equivalent corroboration when cloud cover blocks imagery.
	RadarCorroborationMM float64
}

func DefaultPolicy() Policy {
	return Policy{RadarCorroborationMM: 5.0}
}

// Reason scores the incident against the zone. Inundation evidence weighs
// fully for water-driven categories and at half weight otherwise; heavy cloud
// discounts imagery evidence unless precipitation corroborates it.
func (p Policy) Reason(_ context.Context, inc types.Incident, zone types.Zone, vision *types.VisionResult) types.ReasoningResult {
	confidence := NeutralConfidence
	var reasons []string

	waterDriven := inc.Category == types.Flood || inc.Category == types.Landslide
	weigh := func(delta int) int {
		if waterDriven {
			return delta
		}
		return delta / 2
	}

	switch {
	case zone.Inundation >= highInundation:
		switch zone.CloudStatus {
		case types.CloudClear:
			confidence += weigh(clearSkyBoost)
			reasons = append(reasons, fmt.Sprintf("Satellite shows high inundation (%.2f) under clear sky.", zone.Inundation))
		case types.CloudPartial:
			confidence += weigh(partialCloudBoost)
			reasons = append(reasons, fmt.Sprintf("Satellite shows high inundation (%.2f) through partial cloud.", zone.Inundation))
		case types.CloudHeavy:
			if zone.PrecipitationMM >= p.RadarCorroborationMM {
				confidence += weigh(radarCorroborationBoost)
				reasons = append(reasons, fmt.Sprintf("Heavy cloud over the zone; %.1fmm precipitation corroborates the inundation reading.", zone.PrecipitationMM))
			} else {
				confidence -= weigh(heavyCloudDiscount)
				reasons = append(reasons, "Heavy cloud blocks imagery and precipitation offers no corroboration; inundation reading discounted.")
			}
		}
	case zone.Inundation <= lowInundation && zone.CloudStatus == types.CloudClear && waterDriven:
		confidence -= weigh(partialCloudBoost)
		reasons = append(reasons, fmt.Sprintf("Clear imagery shows little surface water (%.2f), contradicting the report.", zone.Inundation))
	default:
		reasons = append(reasons, fmt.Sprintf("Satellite inundation (%.2f) is inconclusive.", zone.Inundation))
	}

	if zone.PrecipitationMM >= heavyPrecipMM {
		confidence += weigh(heavyPrecipBoost)
		reasons = append(reasons, fmt.Sprintf("Active rainfall of %.1fmm in the zone.", zone.PrecipitationMM))
	}

	if vision != nil {
		confidence += visionBoost
		if vision.Depth > 0 {
			reasons = append(reasons, fmt.Sprintf("Media analysis estimates %.1fm water depth (%s).", vision.Depth, vision.Severity))
		} else {
			reasons = append(reasons, fmt.Sprintf("Media analysis corroborates the report (%s).", vision.Severity))
		}
	}

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	return types.ReasoningResult{
		Confidence: confidence,
		Reasoning:  strings.Join(reasons, " "),
		Verified:   confidence >= verifyCutoff,
	}
}
