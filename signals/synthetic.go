package signals

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"go-floodline/types"
	"go-floodline/zones"
)

// ReportSink accepts a raw report for ingestion.
type ReportSink interface {
	Ingest(ctx context.Context, rep types.RawReport) (*types.Incident, error)
}

var syntheticTemplates = map[types.Category][]string{
	types.Flood: {
		"Water level rising fast near %s, street knee deep already.",
		"%s underpass fully submerged, vehicles stranded.",
	},
	types.Landslide: {
		"Slope collapse reported on the embankment road by %s.",
	},
	types.Medical: {
		"Elderly resident near %s needs evacuation, no ambulance access.",
	},
	types.FoodShortage: {
		"Relief point at %s ran out of dry rations this morning.",
	},
	types.Infrastructure: {
		"Power lines down across the main road in %s.",
	},
}

var syntheticCategories = []types.Category{
	types.Flood, types.Flood, types.Flood, // weighted toward the common case
	types.Landslide, types.Medical, types.FoodShortage, types.Infrastructure,
}

// SyntheticGenerator feeds simulated ground reports into the pipeline for
// demos and drills. It is an explicit repeatable task: Run ticks until the
// context is canceled, nothing fires in the background otherwise.
type SyntheticGenerator struct {
	sink     ReportSink
	registry *zones.Registry
	rng      *rand.Rand
	log      *logrus.Logger
}

func NewSyntheticGenerator(sink ReportSink, registry *zones.Registry, log *logrus.Logger) *SyntheticGenerator {
	return &SyntheticGenerator{
		sink:     sink,
		registry: registry,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		log:      log,
	}
}

// Run emits one report per interval until ctx is canceled.
func (g *SyntheticGenerator) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	g.log.WithField("interval", interval).Info("Synthetic report generator running")
	for {
		select {
		case <-ctx.Done():
			g.log.Info("Synthetic report generator stopped")
			return
		case <-ticker.C:
			if _, err := g.Generate(ctx); err != nil {
				g.log.WithError(err).Warn("Synthetic report rejected")
			}
		}
	}
}

// Generate ingests a single simulated report in a random zone.
func (g *SyntheticGenerator) Generate(ctx context.Context) (*types.Incident, error) {
	all := g.registry.All()
	if len(all) == 0 {
		return nil, fmt.Errorf("synthetic generator: no zones seeded")
	}
	zone := all[g.rng.Intn(len(all))]
	category := syntheticCategories[g.rng.Intn(len(syntheticCategories))]
	templates := syntheticTemplates[category]

	// Jitter the report point around the zone centroid.
	lat := zone.Centroid.Lat + (g.rng.Float64()-0.5)*0.01
	lng := zone.Centroid.Lng + (g.rng.Float64()-0.5)*0.01

	return g.sink.Ingest(ctx, types.RawReport{
		Origin:    types.OriginSynthetic,
		Narrative: fmt.Sprintf(templates[g.rng.Intn(len(templates))], zone.Name),
		Lat:       &lat,
		Lng:       &lng,
		Category:  category,
	})
}
