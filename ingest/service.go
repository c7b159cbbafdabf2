// Package ingest funnels every report channel (direct POST, SOS shortcut,
// social feed pull, synthetic generator) through one validating pipeline into
// the incident store.
package ingest

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"go-floodline/geocode"
	"go-floodline/observability"
	"go-floodline/store"
	"go-floodline/types"
	"go-floodline/zones"
)

type Service struct {
	store    *store.Store
	zones    *zones.Registry
	geocoder geocode.Resolver // nil when no maps key is configured
	metrics  *observability.Metrics
	clock    clockwork.Clock
	log      *logrus.Logger
}

func NewService(st *store.Store, registry *zones.Registry, geocoder geocode.Resolver, metrics *observability.Metrics, clock clockwork.Clock, log *logrus.Logger) *Service {
	return &Service{
		store:    st,
		zones:    registry,
		geocoder: geocoder,
		metrics:  metrics,
		clock:    clock,
		log:      log,
	}
}

// Ingest validates a raw report, resolves its location to a zone and appends
// the resulting unverified incident to the store.
func (s *Service) Ingest(ctx context.Context, rep types.RawReport) (*types.Incident, error) {
	log := s.log.WithFields(logrus.Fields{
		"service": "ingest",
		"origin":  rep.Origin,
	})

	if rep.Narrative == "" {
		return nil, fmt.Errorf("ingest: empty narrative")
	}
	if _, err := types.ParseCategory(string(rep.Category)); err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	geo, err := s.resolveLocation(ctx, rep)
	if err != nil {
		return nil, err
	}

	grid := s.zones.Project(geo)
	zone, err := s.zones.Resolve(grid)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	inc := types.NewIncident(rep, types.Location{Geo: geo, Grid: grid}, zone.ID, s.clock.Now())
	if err := s.store.Append(inc); err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	s.metrics.ReportsIngested.WithLabelValues(string(rep.Origin)).Inc()
	s.metrics.IncidentCount.Set(float64(s.store.Len()))

	log.WithFields(logrus.Fields{
		"incident_id": inc.ID,
		"category":    inc.Category,
		"zone":        zone.ID,
	}).Info("Report ingested")
	return inc.Clone(), nil
}

func (s *Service) resolveLocation(ctx context.Context, rep types.RawReport) (types.LatLng, error) {
	if rep.Lat != nil && rep.Lng != nil {
		return types.LatLng{Lat: *rep.Lat, Lng: *rep.Lng}, nil
	}

	if rep.PlaceName != "" && s.geocoder != nil {
		geo, err := s.geocoder.ResolvePlace(ctx, rep.PlaceName)
		if err == nil {
			return geo, nil
		}
		s.metrics.SignalFailures.WithLabelValues("geocode").Inc()
		s.log.WithError(err).WithField("place", rep.PlaceName).Warn("Geocoding failed")
	}

	// Last resort: a place name that matches a zone name lands on that
	// zone's centroid.
	if rep.PlaceName != "" {
		for _, z := range s.zones.All() {
			if z.Name == rep.PlaceName || z.ID == rep.PlaceName {
				return z.Centroid, nil
			}
		}
	}

	return types.LatLng{}, fmt.Errorf("ingest: %w", types.ErrNoLocation)
}
