package main

import (
	"context"
	"fmt"
	"os"

	"complaint-service/internal/auth"
	"complaint-service/internal/config"
	"complaint-service/internal/db"
	"complaint-service/internal/gateway"
	"complaint-service/internal/geocode"
	httphandler "complaint-service/internal/http"
	"complaint-service/internal/http/middleware"
	"complaint-service/internal/logger"
	"complaint-service/internal/media"
	"complaint-service/internal/repository"
	"complaint-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	mediaStore, err := media.NewStore(cfg.Media.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare media directory")
	}

	var (
		classifier gateway.Classifier
		verifier   gateway.Verifier
		reporter   gateway.Reporter
		fallback   gateway.Classifier
	)
	if cfg.AI.BaseURL != "" {
		client := gateway.NewHTTPClient(cfg.AI.BaseURL, cfg.AI.Timeout, cfg.AI.MaxRetries, log)
		classifier, verifier, reporter = client, client, client
		if cfg.AI.MockFallback {
			fallback = gateway.MockAdapter{}
		}
	} else {
		mock := gateway.MockAdapter{}
		classifier, verifier, reporter = mock, mock, mock
		log.Warn().Msg("AI gateway not configured, running with mock adapter")
	}

	var geocoder geocode.Geocoder
	if cfg.Geocode.Enabled {
		geocoder = &geocode.NominatimGeocoder{
			BaseURL:    cfg.Geocode.BaseURL,
			UserAgent:  cfg.Geocode.UserAgent,
			MaxRetries: cfg.Geocode.MaxRetries,
		}
	}

	complaintRepo := repository.NewComplaintRepository(database)
	ticketRepo := repository.NewTicketRepository(database)
	directoryRepo := repository.NewDirectoryRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)

	directoryService := service.NewDirectoryService(directoryRepo, log)
	complaintService := service.NewComplaintService(
		complaintRepo, ticketRepo, directoryService, geocoder,
		classifier, fallback, mediaStore, cfg.Media.MaxImageSize, log,
	)
	ticketService := service.NewTicketService(
		ticketRepo, directoryRepo, notificationRepo,
		verifier, reporter, mediaStore,
		cfg.Geofence.RadiusMeters, cfg.Geofence.Enforced,
		cfg.Media.MaxImageSize, log,
	)
	notificationService := service.NewNotificationService(notificationRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go complaintService.RunCleanupLoop(ctx, cfg.Cleanup.At)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(complaintService, ticketService, directoryService, notificationService, log)
	router := httphandler.NewRouter(handler, middleware.Auth(tokenParser), cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting complaints service")

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
