package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"go-floodline/store"
	"go-floodline/types"
	"go-floodline/visibility"
	"go-floodline/zones"
)

const defaultWindowHours = 6

// Feed returns the currently visible incident subset for the map and list
// views. Query params: hours (1-24), categories (comma separated),
// verified (bool).
func Feed(c *gin.Context, st *store.Store, clock clockwork.Clock) {
	opts := visibility.Options{WindowHours: defaultWindowHours}

	if raw := c.Query("hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be an integer"})
			return
		}
		opts.WindowHours = hours
	}
	if raw := c.Query("categories"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			category, err := types.ParseCategory(strings.TrimSpace(part))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			opts.Categories = append(opts.Categories, category)
		}
	}
	if raw := c.Query("verified"); raw != "" {
		verified, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "verified must be a boolean"})
			return
		}
		opts.VerifiedOnly = verified
	}

	incidents := visibility.Collect(visibility.Visible(st.All(), clock.Now(), opts))
	c.JSON(http.StatusOK, gin.H{
		"count":     len(incidents),
		"incidents": incidents,
	})
}

// Zones returns the zone set with current satellite/weather state for the
// heatmap overlay and weather panel.
func Zones(c *gin.Context, registry *zones.Registry) {
	c.JSON(http.StatusOK, gin.H{"zones": registry.All()})
}
