package ingest

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-floodline/geocode"
	"go-floodline/observability"
	"go-floodline/store"
	"go-floodline/types"
	"go-floodline/zones"
)

type fakeResolver struct {
	geo types.LatLng
	err error
}

func (f *fakeResolver) ResolvePlace(context.Context, string) (types.LatLng, error) {
	return f.geo, f.err
}

func newTestService(t *testing.T, geocoder *fakeResolver) (*Service, *store.Store, *clockwork.FakeClock) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	registry, err := zones.NewRegistry(log, clockwork.NewFakeClock())
	require.NoError(t, err)
	st := store.New(log)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 7, 14, 9, 0, 0, 0, time.UTC))

	var resolver geocode.Resolver
	if geocoder != nil {
		resolver = geocoder
	}
	svc := NewService(st, registry, resolver, observability.NewMetricsForTesting(), clock, log)
	return svc, st, clock
}

func floatPtr(v float64) *float64 { return &v }

func TestIngestWithCoordinates(t *testing.T) {
	svc, st, clock := newTestService(t, nil)

	inc, err := svc.Ingest(context.Background(), types.RawReport{
		Origin:    types.OriginCitizen,
		Narrative: "water entering ground floor",
		Category:  types.Flood,
		Lat:       floatPtr(23.725),
		Lng:       floatPtr(90.3825),
	})
	require.NoError(t, err)

	assert.Equal(t, types.Unverified, inc.Status)
	assert.Equal(t, "old-town", inc.ZoneID)
	assert.Equal(t, clock.Now(), inc.CreatedAt)
	assert.Equal(t, 1, inc.Corroborations)
	assert.InDelta(t, 22.5, inc.Location.Grid.X, 1e-9)
	assert.InDelta(t, 115, inc.Location.Grid.Y, 1e-9)
	assert.Equal(t, 1, st.Len())
}

func TestIngestGeocodesPlaceName(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeResolver{geo: types.LatLng{Lat: 23.82, Lng: 90.405}})

	inc, err := svc.Ingest(context.Background(), types.RawReport{
		Origin:    types.OriginCitizen,
		Narrative: "embankment overtopped",
		Category:  types.Flood,
		PlaceName: "north embankment sluice gate",
	})
	require.NoError(t, err)
	assert.Equal(t, "north-embankment", inc.ZoneID)
}

func TestIngestFallsBackToZoneNameOnGeocodeFailure(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeResolver{err: errors.New("quota exceeded")})

	inc, err := svc.Ingest(context.Background(), types.RawReport{
		Origin:    types.OriginCitizen,
		Narrative: "relief point out of stock",
		Category:  types.FoodShortage,
		PlaceName: "Old Town Riverfront",
	})
	require.NoError(t, err)
	assert.Equal(t, "old-town", inc.ZoneID)
}

func TestIngestRejectsUnlocatableReport(t *testing.T) {
	svc, st, _ := newTestService(t, nil)

	_, err := svc.Ingest(context.Background(), types.RawReport{
		Origin:    types.OriginCitizen,
		Narrative: "something happened",
		Category:  types.Flood,
		PlaceName: "somewhere unknown",
	})
	require.ErrorIs(t, err, types.ErrNoLocation)
	assert.Zero(t, st.Len())
}

func TestIngestRejectsBadInput(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	_, err := svc.Ingest(context.Background(), types.RawReport{
		Origin:   types.OriginCitizen,
		Category: types.Flood,
		Lat:      floatPtr(23.7), Lng: floatPtr(90.4),
	})
	assert.Error(t, err, "empty narrative")

	_, err = svc.Ingest(context.Background(), types.RawReport{
		Origin:    types.OriginCitizen,
		Narrative: "text",
		Category:  "wildfire",
		Lat:       floatPtr(23.7), Lng: floatPtr(90.4),
	})
	assert.Error(t, err, "category outside the closed set")
}
