package types

// CloudStatus is the satellite imagery condition over a zone.
type CloudStatus string

const (
	CloudClear   CloudStatus = "CLEAR"
	CloudPartial CloudStatus = "PARTIAL_CLOUD"
	CloudHeavy   CloudStatus = "HEAVY_CLOUD"
)

// Zone is a geographic polygon with independently refreshed satellite and
// weather attributes. ID, Name, Boundary and Centroid are fixed at seed time;
// CloudStatus/Inundation move only on a satellite refresh and
// PrecipitationMM only on a weather refresh.
type Zone struct {
	ID       string      `json:"id" yaml:"id"`
	Name     string      `json:"name" yaml:"name"`
	Boundary []GridPoint `json:"boundary" yaml:"boundary"`
	Centroid LatLng      `json:"centroid" yaml:"centroid"`

	CloudStatus     CloudStatus `json:"cloudStatus" yaml:"-"`
	Inundation      float64     `json:"inundation" yaml:"-"`
	PrecipitationMM float64     `json:"precipitationMm" yaml:"-"`
	LastRefresh     string      `json:"lastRefresh" yaml:"-"`
}

// Clone returns a copy safe to hand to readers.
func (z *Zone) Clone() *Zone {
	out := *z
	out.Boundary = append([]GridPoint(nil), z.Boundary...)
	return &out
}
