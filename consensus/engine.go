// Package consensus turns a raw incident plus its corroborating signals into
// a verification verdict, a confidence score and a crowd-vote tally.
package consensus

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"go-floodline/observability"
	"go-floodline/store"
	"go-floodline/types"
	"go-floodline/zones"
)

// AutoVerifyThreshold is the corroboration count that promotes an incident to
// verified-true with no reasoning pass.
const AutoVerifyThreshold = 3

// Signal adapters. Every implementation is best-effort: a returned error is
// absorbed into the documented fallback and can never block a pass.
type (
	VisionAnalyzer interface {
		AnalyzeMedia(ctx context.Context, mediaURL, narrative string) (types.VisionResult, error)
	}
	SatelliteAnalyzer interface {
		AnalyzeZone(ctx context.Context, zone types.Zone) (types.SatelliteResult, error)
	}
	WeatherFetcher interface {
		Precipitation(ctx context.Context, loc types.LatLng) (float64, error)
	}
	// Reasoner produces the verdict for one pass. The deterministic Policy is
	// the default; an AI-backed reasoner must fall back to
	// types.FallbackReasoning internally rather than return an error.
	Reasoner interface {
		Reason(ctx context.Context, inc types.Incident, zone types.Zone, vision *types.VisionResult) types.ReasoningResult
	}
)

// Deps wires the engine. Vision, Satellite and Weather may be nil: the pass
// then relies on the zone state maintained by the scheduled refreshes.
type Deps struct {
	Store     *store.Store
	Zones     *zones.Registry
	Vision    VisionAnalyzer
	Satellite SatelliteAnalyzer
	Weather   WeatherFetcher
	Reasoner  Reasoner
	Metrics   *observability.Metrics
	Log       *logrus.Logger

	// AutoVerifyThreshold defaults to the package constant when zero.
	AutoVerifyThreshold int
}

type Engine struct {
	store     *store.Store
	zones     *zones.Registry
	vision    VisionAnalyzer
	satellite SatelliteAnalyzer
	weather   WeatherFetcher
	reasoner  Reasoner
	metrics   *observability.Metrics
	log       *logrus.Logger
	threshold int
}

func New(d Deps) *Engine {
	if d.Reasoner == nil {
		d.Reasoner = DefaultPolicy()
	}
	if d.AutoVerifyThreshold <= 0 {
		d.AutoVerifyThreshold = AutoVerifyThreshold
	}
	if d.Metrics == nil {
		d.Metrics = observability.NewMetricsForTesting()
	}
	return &Engine{
		store:     d.Store,
		zones:     d.Zones,
		vision:    d.Vision,
		satellite: d.Satellite,
		weather:   d.Weather,
		reasoner:  d.Reasoner,
		metrics:   d.Metrics,
		log:       d.Log,
		threshold: d.AutoVerifyThreshold,
	}
}

// AutoVerify is the pure corroboration-count check backing the promotion rule.
func AutoVerify(inc *types.Incident, threshold int) bool {
	return inc.Corroborations >= threshold
}

// RunVerification executes one serialized reasoning pass for the incident.
// supplied carries a caller-provided vision signal (a drone or media upload);
// when nil and the incident references media, the vision adapter is consulted.
//
// A pass on an incident already in verifying fails with ErrAlreadyInProgress
// rather than queueing, and terminal verdicts are never re-opened. An
// incident parked in needs-drone accepts a new pass only alongside a fresh
// vision signal.
func (e *Engine) RunVerification(ctx context.Context, id string, supplied *types.VisionResult) (*types.Incident, error) {
	log := e.log.WithFields(logrus.Fields{
		"engine":      "consensus",
		"incident_id": id,
	})

	var prior types.VerificationStatus
	err := e.store.Update(id, func(inc *types.Incident) error {
		switch inc.Status {
		case types.VerifiedTrue, types.VerifiedFalse:
			return fmt.Errorf("verify %s: %w", id, types.ErrAlreadyVerified)
		case types.Verifying:
			return fmt.Errorf("verify %s: %w", id, types.ErrAlreadyInProgress)
		case types.NeedsDrone:
			if supplied == nil {
				return fmt.Errorf("verify %s: %w", id, types.ErrAwaitingDrone)
			}
		}
		prior = inc.Status
		inc.Status = types.Verifying
		return nil
	})
	if err != nil {
		return nil, err
	}

	snapshot, err := e.store.Get(id)
	if err != nil {
		return nil, err
	}
	zone, err := e.zones.Get(snapshot.ZoneID)
	if err != nil {
		e.revert(id, prior)
		return nil, fmt.Errorf("verify %s: location not resolvable to a zone: %w", id, err)
	}

	vision, zoneEval, unavailable := e.gatherSignals(ctx, snapshot, zone, supplied)

	if ctx.Err() != nil {
		// Consumer went away mid-fetch; discard the in-flight results.
		e.revert(id, prior)
		e.metrics.VerificationPasses.WithLabelValues("canceled").Inc()
		return nil, ctx.Err()
	}

	// Heavy cloud with no usable vision signal is an escalation, not a
	// failure: hold the incident for drone imagery.
	if zoneEval.CloudStatus == types.CloudHeavy && vision == nil {
		err := e.store.Update(id, func(inc *types.Incident) error {
			if inc.Status == types.Verifying {
				inc.Status = types.NeedsDrone
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		e.metrics.VerificationPasses.WithLabelValues("needs_drone").Inc()
		log.Info("Cloud cover unresolvable, incident escalated to needs-drone")
		return e.store.Get(id)
	}

	result := e.reasoner.Reason(ctx, *snapshot, zoneEval, vision)
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 100 {
		result.Confidence = 100
	}

	analysis := result.Reasoning
	if len(unavailable) > 0 {
		analysis = strings.TrimSpace(analysis + " " + strings.Join(unavailable, " "))
	}

	err = e.store.Update(id, func(inc *types.Incident) error {
		confidence := result.Confidence
		inc.Confidence = &confidence
		inc.Analysis = analysis
		if vision != nil {
			depth := vision.Depth
			inc.EstimatedDepth = &depth
			inc.SeverityLabel = vision.Severity
		}
		if result.Verified {
			inc.Corroborations++
		}
		// Auto-verify may have promoted the incident while signals were in
		// flight; the promotion wins and the pass only contributes its score.
		if inc.Status == types.Verifying {
			if result.Verified {
				inc.Status = types.VerifiedTrue
			} else {
				inc.Status = types.VerifiedFalse
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := e.store.Get(id)
	if err != nil {
		return nil, err
	}

	outcome := "verified_false"
	if updated.Status == types.VerifiedTrue {
		outcome = "verified_true"
	}
	e.metrics.VerificationPasses.WithLabelValues(outcome).Inc()
	log.WithFields(logrus.Fields{
		"status":     updated.Status,
		"confidence": result.Confidence,
	}).Info("Verification pass completed")
	return updated, nil
}

// RecordVote counts one sticky vote per voter identity. A confirm raises the
// corroboration count and may trip the auto-verify promotion; a duplicate
// vote fails without touching the tally.
func (e *Engine) RecordVote(id, voterID string, direction types.VoteDirection) (*types.Incident, error) {
	if direction != types.VoteUp && direction != types.VoteDown {
		return nil, fmt.Errorf("vote on %s: unknown direction %q", id, direction)
	}

	promoted := false
	err := e.store.Update(id, func(inc *types.Incident) error {
		if _, seen := inc.Voters[voterID]; seen {
			return fmt.Errorf("vote on %s: %w", id, types.ErrDuplicateVote)
		}
		inc.Voters[voterID] = direction

		if direction == types.VoteUp {
			inc.VoteTally++
			inc.Corroborations++
			if AutoVerify(inc, e.threshold) && promotable(inc.Status) {
				inc.Status = types.VerifiedTrue
				promoted = true
			}
		} else {
			inc.VoteTally--
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.metrics.VotesRecorded.WithLabelValues(string(direction)).Inc()
	if promoted {
		e.metrics.AutoVerified.Inc()
		e.log.WithFields(logrus.Fields{
			"engine":      "consensus",
			"incident_id": id,
		}).Info("Incident auto-verified by crowd corroboration")
	}
	return e.store.Get(id)
}

// promotable: auto-verify only promotes, it never demotes a terminal verdict.
func promotable(s types.VerificationStatus) bool {
	return s == types.Unverified || s == types.Verifying || s == types.NeedsDrone
}

// gatherSignals fetches the vision, satellite and weather inputs for a pass
// concurrently. Successful satellite and weather reads are merged into zone
// state through the registry's fusion operations; failures leave the zone
// untouched and substitute the documented fallback values for this pass only.
func (e *Engine) gatherSignals(ctx context.Context, inc *types.Incident, zone *types.Zone, supplied *types.VisionResult) (*types.VisionResult, types.Zone, []string) {
	var (
		visRes types.VisionResult
		visErr error
		fetchV bool

		satRes types.SatelliteResult
		satErr error
		fetchS bool

		mm     float64
		wxErr  error
		fetchW bool
	)

	g, gctx := errgroup.WithContext(ctx)

	if supplied == nil && e.vision != nil && inc.MediaURL != "" {
		fetchV = true
		g.Go(func() error {
			visRes, visErr = e.vision.AnalyzeMedia(gctx, inc.MediaURL, inc.Narrative)
			return nil
		})
	}
	if e.satellite != nil {
		fetchS = true
		g.Go(func() error {
			satRes, satErr = e.satellite.AnalyzeZone(gctx, *zone)
			return nil
		})
	}
	if e.weather != nil {
		fetchW = true
		g.Go(func() error {
			mm, wxErr = e.weather.Precipitation(gctx, zone.Centroid)
			return nil
		})
	}
	_ = g.Wait() // fetch funcs absorb their own errors

	zoneEval := *zone
	var unavailable []string

	if fetchS {
		if satErr != nil {
			e.metrics.SignalFailures.WithLabelValues("satellite").Inc()
			fb := types.FallbackSatellite()
			zoneEval.Inundation = fb.InundationLevel
			zoneEval.CloudStatus = fb.Status
			unavailable = append(unavailable, "Satellite imagery unavailable.")
		} else {
			if err := e.zones.ApplyInundationUpdate(zone.ID, satRes.InundationLevel, satRes.Status); err == nil {
				if z, err := e.zones.Get(zone.ID); err == nil {
					zoneEval = *z
				}
			}
		}
	}
	if fetchW {
		if wxErr != nil {
			e.metrics.SignalFailures.WithLabelValues("weather").Inc()
			zoneEval.PrecipitationMM = 0
			unavailable = append(unavailable, "Real-time precipitation unavailable.")
		} else {
			_ = e.zones.ApplyPrecipitationUpdate(zone.ID, mm)
			if mm < 0 {
				mm = 0
			}
			zoneEval.PrecipitationMM = mm
		}
	}

	// A caller-supplied vision signal takes precedence over any fetch.
	vision := supplied
	if fetchV {
		if visErr != nil {
			e.metrics.SignalFailures.WithLabelValues("vision").Inc()
			unavailable = append(unavailable, "Media analysis unavailable.")
		} else {
			vision = &visRes
		}
	}

	return vision, zoneEval, unavailable
}

func (e *Engine) revert(id string, prior types.VerificationStatus) {
	err := e.store.Update(id, func(inc *types.Incident) error {
		if inc.Status == types.Verifying {
			inc.Status = prior
		}
		return nil
	})
	if err != nil {
		e.log.WithError(err).WithField("incident_id", id).Warn("Failed to release verifying state")
	}
}
