package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
)

// SeedParkingLocations inserts static parking rows for tests. Each row is
// (name, lat, lon, tag); osm_way_id is left empty.
func SeedParkingLocations(db *sql.DB, rows [][4]interface{}) error {
	for _, row := range rows {
		_, err := db.ExecContext(context.Background(), `
			INSERT INTO parking_locations (name, lat, lon, tag)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (lat, lon) DO NOTHING
		`, row[0], row[1], row[2], row[3])
		if err != nil {
			return fmt.Errorf("seed parking location: %w", err)
		}
	}
	return nil
}
