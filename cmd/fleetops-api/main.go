// README: Entry point; loads config, wires services, starts HTTP server and the merge scan scheduler.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"fleetops/internal/audit"
	"fleetops/internal/config"
	httptransport "fleetops/internal/http"
	"fleetops/internal/http/handlers"
	"fleetops/internal/infra"
	"fleetops/internal/maps"
	"fleetops/internal/modules/costing"
	"fleetops/internal/modules/fleet"
	"fleetops/internal/modules/payroll"
	"fleetops/internal/modules/trip"
)

// snapshots bridges the subscribed caches into the HTTP layer.
type snapshots struct {
	trips *trip.FirestoreStore
	fleet *fleet.Store
}

func (s snapshots) Trips() []*trip.Trip        { return s.trips.Cached() }
func (s snapshots) Vehicles() []*fleet.Vehicle { return s.fleet.Vehicles() }
func (s snapshots) Drivers() []*fleet.Driver   { return s.fleet.Drivers() }

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}
	if cfg.Firebase.ProjectID == "" {
		log.Fatal().Msg("FLEET_FIREBASE_PROJECT_ID is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := infra.NewApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("firebase init")
	}
	defer app.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	distanceCache := maps.NewDistanceCache(redisClient, 24*time.Hour)

	var router costing.Router
	var geo handlers.Geo
	if cfg.Maps.APIKey != "" {
		routeSvc, err := maps.NewRouteService(cfg.Maps.APIKey, cfg.Maps.Region, distanceCache)
		if err != nil {
			log.Fatal().Err(err).Msg("maps init")
		}
		router = routeSvc
		geo = routeSvc
	} else {
		log.Warn().Msg("FLEET_MAPS_API_KEY unset; routed distances degrade to 0")
	}

	sink := audit.NewSink(audit.NewFirestoreWriter(app.Firestore), log)
	costSvc := costing.NewService(router, log)

	payrollStore := payroll.NewFirestoreStore(app.Firestore)
	payrollSvc := payroll.NewService(payrollStore, cfg.Currency)

	tripStore := trip.NewFirestoreStore(app.Firestore, log)
	tripSvc := trip.NewService(tripStore, costSvc, router, sink, payrollSvc, cfg.Merge, cfg.Currency, log)
	scanner := trip.NewScanner(tripStore, log)

	fleetStore := fleet.NewStore(app.Firestore, log)
	if vehicles, err := fleetStore.ListVehicles(ctx); err != nil {
		log.Fatal().Err(err).Msg("firestore connectivity check")
	} else {
		log.Info().Int("vehicles", len(vehicles)).Msg("fleet loaded")
	}

	// A new or edited trip request should be considered for merging right
	// away rather than on the next tick.
	tripStore.OnUpdate(func(trips []*trip.Trip) {
		scanner.Kick()
	})
	fleetStore.OnVehicles(func(vs []*fleet.Vehicle) {
		log.Debug().Int("vehicles", len(vs)).Msg("vehicle snapshot refreshed")
	})
	fleetStore.OnDrivers(func(ds []*fleet.Driver) {
		log.Debug().Int("drivers", len(ds)).Msg("driver snapshot refreshed")
	})

	fleetStore.WatchAll(ctx)
	tripStore.Watch(ctx)

	server := httptransport.NewServer(httptransport.ServerDeps{
		Trips:     tripSvc,
		Scanner:   scanner,
		Payroll:   payrollSvc,
		Snapshots: snapshots{trips: tripStore, fleet: fleetStore},
		Units:     fleetStore,
		Geo:       geo,
		Verifier:  app,
		Log:       log,
	})

	go scanner.Run(ctx, time.Duration(cfg.Merge.ScanIntervalSeconds)*time.Second)

	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: server.Routes()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.HTTP.Addr).Msg("starting fleetops api")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
