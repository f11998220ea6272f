package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/route-optimization-engine/internal/config"
	"github.com/route-optimization-engine/internal/domain"
	"github.com/route-optimization-engine/internal/infrastructure/overpass"
	"github.com/route-optimization-engine/internal/pkg/logger"
	"github.com/route-optimization-engine/internal/repository/postgres"
	"github.com/route-optimization-engine/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	importID := uuid.New().String()
	log = log.With(zap.String("import_id", importID))

	log.Info("Starting parking import")

	bbox := domain.BoundingBox{
		MinLat: cfg.Import.MinLat,
		MinLon: cfg.Import.MinLon,
		MaxLat: cfg.Import.MaxLat,
		MaxLon: cfg.Import.MaxLon,
	}
	if bbox.MinLat >= bbox.MaxLat || bbox.MinLon >= bbox.MaxLon {
		log.Fatal("Import bounding box is inverted, check IMPORT_BBOX_MIN_LAT/MIN_LON/MAX_LAT/MAX_LON")
	}

	log.Info("Configuration loaded",
		zap.Float64("min_lat", bbox.MinLat),
		zap.Float64("min_lon", bbox.MinLon),
		zap.Float64("max_lat", bbox.MaxLat),
		zap.Float64("max_lon", bbox.MaxLon),
		zap.Float64("spacing_m", cfg.Import.SpacingM))

	// 3. Connect to PostgreSQL
	db, err := postgres.New(cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

	// 4. Initialize repositories
	store := postgres.NewParkingStoreRepository(db)
	poi := overpass.NewOverpassClient(&cfg.Overpass, log)

	// 5. Initialize sampler
	sampler := usecase.NewSegmentSampler(&cfg.Import, log)

	// 6. Setup cancellation on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 7. Fetch parking segments for the region
	segments, err := poi.GetParkingSegments(ctx, bbox)
	if err != nil {
		log.Fatal("Failed to fetch parking segments", zap.Error(err))
	}

	log.Info("Segments fetched", zap.Int("segments", len(segments)))

	// 8. Sample segments into parking candidates
	locations := sampler.Sample(segments)
	if len(locations) == 0 {
		log.Warn("No parking candidates produced, nothing to import")
		return
	}

	// 9. Insert candidates into the store
	inserted, err := store.BulkInsert(ctx, locations)
	if err != nil {
		log.Fatal("Failed to insert parking candidates", zap.Error(err))
	}

	total, err := store.Count(ctx)
	if err != nil {
		log.Error("Failed to count stored candidates", zap.Error(err))
	}

	log.Info("Parking import complete",
		zap.Int("sampled", len(locations)),
		zap.Int("inserted", inserted),
		zap.Int64("total_in_store", total))
}
