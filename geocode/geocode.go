package geocode

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"go-floodline/types"
)

// Resolver turns a free-text place name into a geodetic point.
type Resolver interface {
	ResolvePlace(ctx context.Context, name string) (types.LatLng, error)
}

// MapsResolver backs Resolver with the Google Maps Geocoding API. The client
// is an explicit handle owned by the caller, so tests can substitute a fake
// resolver instead of reaching for a process-wide singleton.
type MapsResolver struct {
	client *maps.Client
}

func NewMapsResolver(apiKey string) (*MapsResolver, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("geocode: maps API key not set")
	}
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("geocode: create maps client: %w", err)
	}
	return &MapsResolver{client: client}, nil
}

// ResolvePlace forward-geocodes the place name and returns the first match.
func (m *MapsResolver) ResolvePlace(ctx context.Context, name string) (types.LatLng, error) {
	results, err := m.client.Geocode(ctx, &maps.GeocodingRequest{Address: name})
	if err != nil {
		return types.LatLng{}, fmt.Errorf("geocode %q: %w: %w", name, types.ErrSignalUnavailable, err)
	}
	if len(results) == 0 {
		return types.LatLng{}, fmt.Errorf("geocode %q: no results: %w", name, types.ErrSignalUnavailable)
	}
	loc := results[0].Geometry.Location
	return types.LatLng{Lat: loc.Lat, Lng: loc.Lng}, nil
}
