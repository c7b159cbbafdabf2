package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-floodline/consensus"
	"go-floodline/ingest"
	"go-floodline/observability"
	"go-floodline/routes"
	"go-floodline/store"
	"go-floodline/types"
	"go-floodline/zones"
)

type api struct {
	router *gin.Engine
	store  *store.Store
	clock  *clockwork.FakeClock
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC))

	registry, err := zones.NewRegistry(log, clock)
	require.NoError(t, err)
	st := store.New(log)
	svc := ingest.NewService(st, registry, nil, observability.NewMetricsForTesting(), clock, log)
	engine := consensus.New(consensus.Deps{
		Store: st,
		Zones: registry,
		Log:   log,
	})

	return &api{
		router: routes.SetupRouter(routes.Deps{
			Store:  st,
			Zones:  registry,
			Engine: engine,
			Ingest: svc,
			Clock:  clock,
		}),
		store: st,
		clock: clock,
	}
}

func (a *api) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeIncident(t *testing.T, w *httptest.ResponseRecorder) types.Incident {
	t.Helper()
	var inc types.Incident
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inc))
	return inc
}

func TestCreateReport(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, http.MethodPost, "/api/floodline/reports", gin.H{
		"narrative": "Water knee deep near the ferry ghat",
		"category":  "flood",
		"lat":       23.725,
		"lng":       90.3825,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	inc := decodeIncident(t, w)
	assert.NotEmpty(t, inc.ID)
	assert.Equal(t, types.OriginCitizen, inc.Origin)
	assert.Equal(t, types.Flood, inc.Category)
	assert.Equal(t, "old-town", inc.ZoneID)
	assert.Equal(t, types.Unverified, inc.Status)
	assert.Equal(t, 1, inc.Corroborations)
}

func TestCreateReportRejectsMissingFields(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, http.MethodPost, "/api/floodline/reports", gin.H{
		"category": "flood",
		"lat":      23.725,
		"lng":      90.3825,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateReportWithoutLocation(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, http.MethodPost, "/api/floodline/reports", gin.H{
		"narrative": "Something is happening",
		"category":  "flood",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "location")
}

func TestCreateSOS(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, http.MethodPost, "/api/floodline/sos", gin.H{
		"lat": 23.725,
		"lng": 90.3825,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	inc := decodeIncident(t, w)
	assert.Equal(t, types.OriginSOS, inc.Origin)
	assert.Equal(t, types.Medical, inc.Category)
	assert.Contains(t, inc.Narrative, "SOS")
}

func TestGetReport(t *testing.T) {
	a := newAPI(t)

	created := decodeIncident(t, a.do(t, http.MethodPost, "/api/floodline/reports", gin.H{
		"narrative": "Road under water",
		"category":  "flood",
		"lat":       23.725,
		"lng":       90.3825,
	}))

	w := a.do(t, http.MethodGet, "/api/floodline/reports/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decodeIncident(t, w).ID)

	w = a.do(t, http.MethodGet, "/api/floodline/reports/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVoteReport(t *testing.T) {
	a := newAPI(t)

	created := decodeIncident(t, a.do(t, http.MethodPost, "/api/floodline/reports", gin.H{
		"narrative": "Embankment breached near the sluice gate",
		"category":  "flood",
		"lat":       23.725,
		"lng":       90.3825,
	}))
	votePath := fmt.Sprintf("/api/floodline/reports/%s/vote", created.ID)

	w := a.do(t, http.MethodPost, votePath, gin.H{"voterId": "v1", "direction": "up"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeIncident(t, w).VoteTally)

	// same voter again
	w = a.do(t, http.MethodPost, votePath, gin.H{"voterId": "v1", "direction": "up"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// direction outside up/down never reaches the engine
	w = a.do(t, http.MethodPost, votePath, gin.H{"voterId": "v2", "direction": "sideways"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// third corroboration (report + two voters) auto-verifies
	w = a.do(t, http.MethodPost, votePath, gin.H{"voterId": "v2", "direction": "up"})
	require.Equal(t, http.StatusOK, w.Code)
	inc := decodeIncident(t, w)
	assert.Equal(t, types.VerifiedTrue, inc.Status)
	assert.Equal(t, 3, inc.Corroborations)
}

func TestFeedFilters(t *testing.T) {
	a := newAPI(t)

	a.do(t, http.MethodPost, "/api/floodline/reports", gin.H{
		"narrative": "Old flooding report",
		"category":  "flood",
		"lat":       23.725,
		"lng":       90.3825,
	})
	a.clock.Advance(8 * time.Hour)
	a.do(t, http.MethodPost, "/api/floodline/reports", gin.H{
		"narrative": "Bridge approach washed out",
		"category":  "infrastructure",
		"lat":       23.725,
		"lng":       90.3825,
	})

	var feed struct {
		Count     int              `json:"count"`
		Incidents []types.Incident `json:"incidents"`
	}

	// default 6h window hides the old report
	w := a.do(t, http.MethodGet, "/api/floodline/feed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	require.Equal(t, 1, feed.Count)
	assert.Equal(t, types.Infrastructure, feed.Incidents[0].Category)

	// widening the window brings it back
	w = a.do(t, http.MethodGet, "/api/floodline/feed?hours=24", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	assert.Equal(t, 2, feed.Count)

	// category filter
	w = a.do(t, http.MethodGet, "/api/floodline/feed?hours=24&categories=flood", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	require.Equal(t, 1, feed.Count)
	assert.Equal(t, types.Flood, feed.Incidents[0].Category)

	// nothing verified yet
	w = a.do(t, http.MethodGet, "/api/floodline/feed?hours=24&verified=true", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	assert.Equal(t, 0, feed.Count)

	w = a.do(t, http.MethodGet, "/api/floodline/feed?hours=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestZonesEndpoint(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, http.MethodGet, "/api/floodline/zones", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Zones []types.Zone `json:"zones"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Zones, 5)
	assert.Equal(t, types.CloudClear, body.Zones[0].CloudStatus)
}

func TestHealthz(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
