package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"go-floodline/config"
	"go-floodline/consensus"
	"go-floodline/cronjobs"
	"go-floodline/geocode"
	"go-floodline/ingest"
	"go-floodline/observability"
	"go-floodline/routes"
	"go-floodline/signals"
	"go-floodline/store"
	"go-floodline/zones"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	if cfg.OpenAIKey != "" {
		log.Info("OPENAI_API_KEY loaded")
	}
	if cfg.ClientURL != "" {
		log.WithField("clientUrl", cfg.ClientURL).Info("client origin configured")
	}

	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics()

	registry, err := zones.NewRegistry(log, clock)
	if err != nil {
		log.WithError(err).Fatal("Failed to seed zone registry")
	}
	st := store.New(log)

	// AI-backed signal adapters come up only when a key is present; the
	// engine falls back to zone state and the deterministic policy without them.
	var (
		vision    consensus.VisionAnalyzer
		satellite consensus.SatelliteAnalyzer
		reasoner  consensus.Reasoner
	)
	if cfg.OpenAIKey != "" {
		client := openai.NewClient(cfg.OpenAIKey)
		vision = signals.NewVisionAnalyzer(client, log)
		satellite = signals.NewSatelliteAnalyzer(client, log)
		reasoner = signals.NewOpenAIReasoner(client, log)
	} else {
		reasoner = consensus.Policy{RadarCorroborationMM: cfg.RadarCorroborationMM}
	}

	weather := signals.NewWeatherClient(cfg.WeatherBaseURL, log)

	var geocoder geocode.Resolver
	if cfg.MapsKey != "" {
		mapsResolver, err := geocode.NewMapsResolver(cfg.MapsKey)
		if err != nil {
			log.WithError(err).Fatal("Failed to create Maps resolver")
		}
		geocoder = mapsResolver
	}

	svc := ingest.NewService(st, registry, geocoder, metrics, clock, log)

	engine := consensus.New(consensus.Deps{
		Store:               st,
		Zones:               registry,
		Vision:              vision,
		Satellite:           satellite,
		Weather:             weather,
		Reasoner:            reasoner,
		Metrics:             metrics,
		Log:                 log,
		AutoVerifyThreshold: cfg.AutoVerifyThreshold,
	})

	var puller *ingest.FeedPuller
	if cfg.SocialFeedURI != "" {
		puller = ingest.NewFeedPuller(cfg.SocialFeedHost, cfg.SocialFeedURI, cfg.SocialFeedMax, svc, registry, log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.SyntheticIntervalSec > 0 {
		gen := signals.NewSyntheticGenerator(svc, registry, log)
		go gen.Run(ctx, time.Duration(cfg.SyntheticIntervalSec)*time.Second)
	}

	scheduler := cronjobs.Init(cfg, cronjobs.Deps{
		Zones:     registry,
		Satellite: satellite,
		Weather:   weather,
		Social:    puller,
		Log:       log,
	})
	defer scheduler.Stop()

	r := routes.SetupRouter(routes.Deps{
		Store:  st,
		Zones:  registry,
		Engine: engine,
		Ingest: svc,
		Clock:  clock,
	})
	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}
