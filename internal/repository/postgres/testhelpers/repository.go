package testhelpers

import (
	"github.com/jmoiron/sqlx"
	"github.com/route-optimization-engine/internal/domain/repository"
	"github.com/route-optimization-engine/internal/repository/postgres"
	"go.uber.org/zap"
)

// NewDBForTest creates a postgres.DB with test database and logger
func NewDBForTest(db *sqlx.DB, logger *zap.Logger) *postgres.DB {
	return postgres.NewDBForTest(db, logger)
}

// NewParkingStoreForTest creates a parking store repository with test database and logger
func NewParkingStoreForTest(db *sqlx.DB, logger *zap.Logger) repository.ParkingStoreRepository {
	pgDB := NewDBForTest(db, logger)
	return postgres.NewParkingStoreRepository(pgDB)
}
