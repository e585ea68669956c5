// Package directory provides read access to the city's master data: the
// collection points, the vehicle fleet and the staff roster. The planner
// only ever sees the eligible subsets.
package directory

import (
	"context"

	"wasteroutes/internal/model"
)

// Directory answers who and what can take part in today's plan.
type Directory interface {
	// ListActivePoints returns active collection points with valid
	// coordinates, ordered by id.
	ListActivePoints(ctx context.Context) ([]model.CollectionPoint, error)
	// ListAvailableVehicles returns vehicles in the available state,
	// ordered by id.
	ListAvailableVehicles(ctx context.Context) ([]model.Vehicle, error)
	// ListActiveDrivers returns active staff with the driver role,
	// ordered by id.
	ListActiveDrivers(ctx context.Context) ([]model.Staff, error)
}
