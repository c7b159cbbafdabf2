package cronjobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"go-floodline/config"
	"go-floodline/consensus"
	"go-floodline/ingest"
	"go-floodline/signals"
	"go-floodline/zones"
)

const refreshTimeout = 45 * time.Second

// Deps names the background refreshers. Nil entries are skipped when
// scheduling, so a deployment without an OpenAI key simply has no
// satellite sweep.
type Deps struct {
	Zones     *zones.Registry
	Satellite consensus.SatelliteAnalyzer
	Weather   *signals.WeatherClient
	Social    *ingest.FeedPuller
	Log       *logrus.Logger
}

// Init schedules the periodic refreshers and starts the scheduler.
// The returned cron can be stopped on shutdown.
func Init(cfg *config.Config, d Deps) *cron.Cron {
	d.Log.Info("Starting Cron Jobs -------------------------------------------------------")
	c := cron.New()

	if d.Satellite != nil {
		_, err := c.AddFunc(cfg.SatelliteRefreshSpec, func() {
			d.Log.Info("CronJob: Satellite Sweep Running")
			refreshSatellite(d)
		})
		if err != nil {
			d.Log.WithError(err).Error("Error scheduling Satellite Sweep")
		}
	}

	if d.Weather != nil {
		_, err := c.AddFunc(cfg.WeatherRefreshSpec, func() {
			d.Log.Info("CronJob: Weather Refresh Running")
			refreshWeather(d)
		})
		if err != nil {
			d.Log.WithError(err).Error("Error scheduling Weather Refresh")
		}
	}

	if d.Social != nil {
		_, err := c.AddFunc(cfg.SocialPullSpec, func() {
			d.Log.Info("CronJob: Social Feed Running")
			ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
			defer cancel()
			n, err := d.Social.Pull(ctx)
			if err != nil {
				d.Log.WithError(err).Error("Error pulling social feed")
				return
			}
			d.Log.WithField("ingested", n).Info("CronJob: Social Feed Done")
		})
		if err != nil {
			d.Log.WithError(err).Error("Error scheduling Social Feed")
		}
	}

	c.Start()
	return c
}

// refreshSatellite re-reads inundation for every zone. A failed zone is
// skipped so one cloudy tile does not stall the sweep.
func refreshSatellite(d Deps) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	for _, zone := range d.Zones.All() {
		res, err := d.Satellite.AnalyzeZone(ctx, *zone)
		if err != nil {
			d.Log.WithError(err).WithField("zone", zone.ID).Warn("satellite refresh skipped")
			continue
		}
		if err := d.Zones.ApplyInundationUpdate(zone.ID, res.InundationLevel, res.Status); err != nil {
			d.Log.WithError(err).WithField("zone", zone.ID).Error("inundation update failed")
		}
	}
}

func refreshWeather(d Deps) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	for _, zone := range d.Zones.All() {
		mm, err := d.Weather.Precipitation(ctx, zone.Centroid)
		if err != nil {
			d.Log.WithError(err).WithField("zone", zone.ID).Warn("weather refresh skipped")
			continue
		}
		if err := d.Zones.ApplyPrecipitationUpdate(zone.ID, mm); err != nil {
			d.Log.WithError(err).WithField("zone", zone.ID).Error("precipitation update failed")
		}
	}
}
