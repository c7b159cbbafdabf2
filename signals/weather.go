package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"go-floodline/types"
)

// WeatherClient fetches real-time precipitation from the Open-Meteo API.
type WeatherClient struct {
	baseURL string
	client  *http.Client
	log     *logrus.Logger
}

func NewWeatherClient(baseURL string, log *logrus.Logger) *WeatherClient {
	return &WeatherClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

type currentWeatherResponse struct {
	Current struct {
		Precipitation float64 `json:"precipitation"`
	} `json:"current"`
}

// Precipitation returns the current rate in mm for the point, or 0 plus an
// error when the upstream call fails.
func (w *WeatherClient) Precipitation(ctx context.Context, loc types.LatLng) (float64, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", loc.Lat))
	q.Set("longitude", fmt.Sprintf("%.4f", loc.Lng))
	q.Set("current", "precipitation")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("weather: %w: %w", types.ErrSignalUnavailable, err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		w.log.WithError(err).Warn("Weather fetch failed")
		return 0, fmt.Errorf("weather: %w: %w", types.ErrSignalUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("weather: %w: status %s", types.ErrSignalUnavailable, resp.Status)
	}

	var out currentWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("weather: %w: %w", types.ErrSignalUnavailable, err)
	}

	mm := out.Current.Precipitation
	if mm < 0 {
		mm = 0
	}
	return mm, nil
}
