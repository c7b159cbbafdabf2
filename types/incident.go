package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Origin is the ingestion channel a report arrived through.
type Origin string

const (
	OriginCitizen   Origin = "citizen"
	OriginSocial    Origin = "social"
	OriginSynthetic Origin = "synthetic"
	OriginSOS       Origin = "sos"
)

type Category string

const (
	Flood          Category = "flood"
	Landslide      Category = "landslide"
	Medical        Category = "medical"
	FoodShortage   Category = "food-shortage"
	Infrastructure Category = "infrastructure"
)

// ParseCategory maps free-form input to the closed category set.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case Flood, Landslide, Medical, FoodShortage, Infrastructure:
		return Category(s), nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

type VerificationStatus string

const (
	Unverified    VerificationStatus = "unverified"
	Verifying     VerificationStatus = "verifying"
	VerifiedTrue  VerificationStatus = "verified-true"
	VerifiedFalse VerificationStatus = "verified-false"
	NeedsDrone    VerificationStatus = "needs-drone"
)

// GridPoint is a position in the local schematic-map projection.
type GridPoint struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

type LatLng struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Location carries both coordinate systems: the geodetic point for
// real-world lookups and the grid point for schematic rendering.
type Location struct {
	Geo  LatLng    `json:"geo"`
	Grid GridPoint `json:"grid"`
}

type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// Incident is a reported hazard occurrence. ID, Origin, Narrative, MediaURL,
// CreatedAt, Location and Category are immutable after creation; the
// verification fields are mutated only through the store's atomic Update.
type Incident struct {
	ID        string             `json:"id"`
	Origin    Origin             `json:"origin"`
	Narrative string             `json:"narrative"`
	MediaURL  string             `json:"mediaUrl,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	Location  Location           `json:"location"`
	Category  Category           `json:"category"`
	ZoneID    string             `json:"zoneId"`
	Status    VerificationStatus `json:"status"`

	// Set by verification passes.
	Confidence     *int     `json:"confidence,omitempty"`
	Analysis       string   `json:"analysis,omitempty"`
	EstimatedDepth *float64 `json:"estimatedDepth,omitempty"`
	SeverityLabel  string   `json:"severityLabel,omitempty"`

	// Crowd consensus. Voters maps voter identity to the direction of the
	// single vote that identity is allowed; first vote is sticky.
	VoteTally      int                      `json:"voteTally"`
	Corroborations int                      `json:"corroborations"`
	Voters         map[string]VoteDirection `json:"-"`
}

// RawReport is the channel-independent shape every ingestion path produces.
// Lat/Lng may be nil when only a place name is known.
type RawReport struct {
	Origin    Origin
	Narrative string
	MediaURL  string
	PlaceName string
	Lat       *float64
	Lng       *float64
	Category  Category
}

// NewIncident assembles an unverified incident from an ingested report.
// The corroboration count starts at 1: the report itself is the first signal.
func NewIncident(rep RawReport, loc Location, zoneID string, now time.Time) *Incident {
	return &Incident{
		ID:             uuid.NewString(),
		Origin:         rep.Origin,
		Narrative:      rep.Narrative,
		MediaURL:       rep.MediaURL,
		CreatedAt:      now,
		Location:       loc,
		Category:       rep.Category,
		ZoneID:         zoneID,
		Status:         Unverified,
		Corroborations: 1,
		Voters:         make(map[string]VoteDirection),
	}
}

// Clone returns a deep copy so readers never observe in-place mutation.
func (i *Incident) Clone() *Incident {
	out := *i
	if i.Confidence != nil {
		c := *i.Confidence
		out.Confidence = &c
	}
	if i.EstimatedDepth != nil {
		d := *i.EstimatedDepth
		out.EstimatedDepth = &d
	}
	out.Voters = make(map[string]VoteDirection, len(i.Voters))
	for k, v := range i.Voters {
		out.Voters[k] = v
	}
	return &out
}
