package types

// Signal payloads as handed over by the external adapters. Each comes with a
// documented fallback used whenever the upstream call fails or returns
// something the validating boundary rejects, so a broken adapter can degrade
// confidence but never block incident processing.

// VisionResult is the AI analysis of user-submitted media.
type VisionResult struct {
	Depth       float64 `json:"depth" validate:"gte=0"`
	Severity    string  `json:"severity" validate:"required"`
	Description string  `json:"description"`
}

func FallbackVision() VisionResult {
	return VisionResult{Depth: 0, Severity: "UNKNOWN", Description: "Analysis failed..."}
}

// SatelliteResult is the AI reading of satellite imagery over a zone.
type SatelliteResult struct {
	InundationLevel float64     `json:"inundationLevel" validate:"gte=0,lte=1"`
	Status          CloudStatus `json:"status" validate:"oneof=CLEAR PARTIAL_CLOUD HEAVY_CLOUD"`
}

func FallbackSatellite() SatelliteResult {
	return SatelliteResult{InundationLevel: 0.5, Status: CloudPartial}
}

// ReasoningResult is the outcome of one verification reasoning pass.
type ReasoningResult struct {
	Confidence int    `json:"confidence" validate:"gte=0,lte=100"`
	Reasoning  string `json:"reasoning"`
	Verified   bool   `json:"verified"`
}

func FallbackReasoning() ReasoningResult {
	return ReasoningResult{Confidence: 50, Reasoning: "AI Verification unavailable.", Verified: false}
}
