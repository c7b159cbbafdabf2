package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-floodline/ingest"
	"go-floodline/store"
	"go-floodline/types"
)

// CreateReport ingests a direct citizen report.
func CreateReport(c *gin.Context, svc *ingest.Service) {
	var request struct {
		Narrative string   `json:"narrative" binding:"required"`
		Category  string   `json:"category" binding:"required"`
		MediaURL  string   `json:"mediaUrl"`
		PlaceName string   `json:"placeName"`
		Lat       *float64 `json:"lat"`
		Lng       *float64 `json:"lng"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inc, err := svc.Ingest(c.Request.Context(), types.RawReport{
		Origin:    types.OriginCitizen,
		Narrative: request.Narrative,
		MediaURL:  request.MediaURL,
		PlaceName: request.PlaceName,
		Lat:       request.Lat,
		Lng:       request.Lng,
		Category:  types.Category(request.Category),
	})
	if err != nil {
		if errors.Is(err, types.ErrNoLocation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, inc)
}

// CreateSOS is the emergency shortcut: location only, medical category.
func CreateSOS(c *gin.Context, svc *ingest.Service) {
	var request struct {
		Narrative string   `json:"narrative"`
		Lat       *float64 `json:"lat" binding:"required"`
		Lng       *float64 `json:"lng" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if request.Narrative == "" {
		request.Narrative = "SOS: immediate assistance required."
	}

	inc, err := svc.Ingest(c.Request.Context(), types.RawReport{
		Origin:    types.OriginSOS,
		Narrative: request.Narrative,
		Lat:       request.Lat,
		Lng:       request.Lng,
		Category:  types.Medical,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, inc)
}

// GetReport returns a single incident by id.
func GetReport(c *gin.Context, st *store.Store) {
	inc, err := st.Get(c.Param("id"))
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, inc)
}
