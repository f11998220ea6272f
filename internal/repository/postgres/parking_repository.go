package postgres

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/route-optimization-engine/internal/domain"
	"github.com/route-optimization-engine/internal/domain/repository"
	"github.com/route-optimization-engine/internal/pkg/errors"
	"github.com/route-optimization-engine/internal/pkg/geo"
	"go.uber.org/zap"
)

// LimitParkingNearby ограничивает число строк, извлекаемых одним запросом
const LimitParkingNearby = 200

type parkingStoreRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewParkingStoreRepository(db *DB) repository.ParkingStoreRepository {
	return &parkingStoreRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

func (r *parkingStoreRepository) GetNearby(
	ctx context.Context,
	lat, lon, radiusKm float64,
	tags []string,
) ([]*domain.ParkingLocation, error) {
	// Предварительный отбор по прямоугольнику, точное расстояние считается
	// после выборки
	latDelta := radiusKm / 111.0
	lonDelta := radiusKm / (111.0 * math.Cos(lat*math.Pi/180.0))

	query := `
		SELECT id, name, lat, lon, osm_way_id, tag, created_at
		FROM parking_locations
		WHERE lat BETWEEN $1 AND $2
		  AND lon BETWEEN $3 AND $4
	`

	args := []interface{}{lat - latDelta, lat + latDelta, lon - lonDelta, lon + lonDelta}
	argIdx := 5

	if len(tags) > 0 {
		query += fmt.Sprintf(" AND tag = ANY($%d)", argIdx)
		args = append(args, pq.Array(tags))
		argIdx++
	}

	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, LimitParkingNearby)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to get nearby parking locations", zap.Error(err))
		return nil, errors.ErrDatabaseError
	}
	defer rows.Close()

	type scored struct {
		location *domain.ParkingLocation
		distance float64
	}

	var found []scored
	for rows.Next() {
		var loc domain.ParkingLocation
		err := rows.Scan(&loc.ID, &loc.Name, &loc.Lat, &loc.Lon, &loc.OSMWayID, &loc.Tag, &loc.CreatedAt)
		if err != nil {
			r.logger.Error("Failed to scan parking location", zap.Error(err))
			continue
		}

		distance := geo.HaversineDistance(lat, lon, loc.Lat, loc.Lon)
		if distance > radiusKm {
			continue
		}
		found = append(found, scored{location: &loc, distance: distance})
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].distance < found[j].distance
	})

	locations := make([]*domain.ParkingLocation, 0, len(found))
	for _, f := range found {
		locations = append(locations, f.location)
	}
	return locations, nil
}

func (r *parkingStoreRepository) BulkInsert(
	ctx context.Context,
	locations []*domain.ParkingLocation,
) (int, error) {
	if len(locations) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return 0, errors.ErrDatabaseError
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO parking_locations (name, lat, lon, osm_way_id, tag)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (lat, lon) DO NOTHING
	`)
	if err != nil {
		r.logger.Error("Failed to prepare insert", zap.Error(err))
		return 0, errors.ErrDatabaseError
	}
	defer stmt.Close()

	inserted := 0
	for _, loc := range locations {
		res, err := stmt.ExecContext(ctx, loc.Name, loc.Lat, loc.Lon, loc.OSMWayID, loc.Tag)
		if err != nil {
			r.logger.Error("Failed to insert parking location",
				zap.Float64("lat", loc.Lat),
				zap.Float64("lon", loc.Lon),
				zap.Error(err))
			return 0, errors.ErrDatabaseError
		}
		if affected, err := res.RowsAffected(); err == nil {
			inserted += int(affected)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit bulk insert", zap.Error(err))
		return 0, errors.ErrDatabaseError
	}

	return inserted, nil
}

func (r *parkingStoreRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM parking_locations"); err != nil {
		r.logger.Error("Failed to count parking locations", zap.Error(err))
		return 0, errors.ErrDatabaseError
	}
	return count, nil
}
