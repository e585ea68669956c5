package directory

import (
	"context"
	"sort"
	"sync"

	"wasteroutes/internal/geo"
	"wasteroutes/internal/model"
)

// Memory is an in-process Directory backed by slices. It serves tests and
// single-node deployments seeded from a fixture file.
type Memory struct {
	mu       sync.Mutex
	points   []model.CollectionPoint
	vehicles []model.Vehicle
	staff    []model.Staff
}

func NewMemory() *Memory { return &Memory{} }

// Replace swaps the full dataset in one step.
func (m *Memory) Replace(points []model.CollectionPoint, vehicles []model.Vehicle, staff []model.Staff) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = append([]model.CollectionPoint(nil), points...)
	m.vehicles = append([]model.Vehicle(nil), vehicles...)
	m.staff = append([]model.Staff(nil), staff...)
}

func (m *Memory) ListActivePoints(ctx context.Context) ([]model.CollectionPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.CollectionPoint
	for _, p := range m.points {
		if p.Status != model.PointActive {
			continue
		}
		if geo.Validate(p.Latitude, p.Longitude) != nil {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListAvailableVehicles(ctx context.Context) ([]model.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Vehicle
	for _, v := range m.vehicles {
		if v.Status == model.VehicleAvailable {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListActiveDrivers(ctx context.Context) ([]model.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Staff
	for _, s := range m.staff {
		if s.Status == model.StaffActive && s.Role == model.RoleDriver {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
