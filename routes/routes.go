package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-floodline/consensus"
	"go-floodline/handlers"
	"go-floodline/ingest"
	"go-floodline/store"
	"go-floodline/zones"
)

// Deps carries everything the HTTP surface forwards to.
type Deps struct {
	Store  *store.Store
	Zones  *zones.Registry
	Engine *consensus.Engine
	Ingest *ingest.Service
	Clock  clockwork.Clock
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Hello, welcome to Floodline!",
		})
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "incidents": d.Store.Len()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// api routes
	api := r.Group("/api/floodline")
	{
		api.POST("/reports", func(c *gin.Context) { handlers.CreateReport(c, d.Ingest) })
		api.POST("/sos", func(c *gin.Context) { handlers.CreateSOS(c, d.Ingest) })
		api.GET("/reports/:id", func(c *gin.Context) { handlers.GetReport(c, d.Store) })
		api.POST("/reports/:id/verify", func(c *gin.Context) { handlers.VerifyReport(c, d.Engine) })
		api.POST("/reports/:id/vote", func(c *gin.Context) { handlers.VoteReport(c, d.Engine) })
		api.GET("/feed", func(c *gin.Context) { handlers.Feed(c, d.Store, d.Clock) })
		api.GET("/zones", func(c *gin.Context) { handlers.Zones(c, d.Zones) })
	}

	return r
}
