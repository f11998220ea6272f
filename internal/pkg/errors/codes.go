package errors

import "errors"

// Infeasible input errors are the only errors surfaced to planning callers.
// Everything else is degraded internally to a fallback tier.
var (
	ErrNoGeolocatedStops = New(
		"NO_GEOLOCATED_STOPS",
		"No stops with valid coordinates to plan",
	)

	ErrNoAvailableDrivers = New(
		"NO_AVAILABLE_DRIVERS",
		"No drivers available for assignment",
	)

	ErrDepotNotGeocoded = New(
		"DEPOT_NOT_GEOCODED",
		"Depot has no valid coordinates",
	)

	ErrInvalidPlanOptions = New(
		"INVALID_PLAN_OPTIONS",
		"Invalid planning options",
	)
)

// Internal errors: logged, never returned from the planner.
var (
	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
	)

	ErrInvalidRadius = New(
		"INVALID_RADIUS",
		"Invalid radius value",
	)

	ErrRoutingUnavailable = New(
		"ROUTING_UNAVAILABLE",
		"Road network service unreachable",
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
	)
)

// IsInfeasible reports whether err belongs to the caller facing family of
// infeasible input errors.
func IsInfeasible(err error) bool {
	return errors.Is(err, ErrNoGeolocatedStops) ||
		errors.Is(err, ErrNoAvailableDrivers) ||
		errors.Is(err, ErrDepotNotGeocoded) ||
		errors.Is(err, ErrInvalidPlanOptions)
}
