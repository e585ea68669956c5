package planner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"wasteroutes/internal/config"
	"wasteroutes/internal/directory"
	"wasteroutes/internal/model"
	"wasteroutes/internal/store"
)

func fixedClock() func() time.Time {
	at := time.Date(2026, 8, 29, 6, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func driverID(id int64) *int64 { return &id }

func seedDirectory(nPoints int, demand float64) *directory.Memory {
	dir := directory.NewMemory()
	points := make([]model.CollectionPoint, 0, nPoints)
	for i := 0; i < nPoints; i++ {
		points = append(points, model.CollectionPoint{
			ID:   int64(i + 1),
			Name: "point", Status: model.PointActive,
			Latitude:        13.7563 + 0.01*float64(i%5+1),
			Longitude:       100.5018 + 0.01*float64(i/5+1),
			RegularDemandKg: demand, RecycleDemandKg: demand / 2,
		})
	}
	vehicles := []model.Vehicle{
		{ID: 1, RegistrationNumber: "81-1111", FuelType: model.FuelDiesel,
			RegularCapacityKg: 500, RecycleCapacityKg: 250, DepreciationPerYear: 36500,
			Status: model.VehicleAvailable, CurrentDriverID: driverID(11)},
		{ID: 2, RegistrationNumber: "81-2222", FuelType: model.FuelGasoline,
			RegularCapacityKg: 300, RecycleCapacityKg: 150, DepreciationPerYear: 36500,
			Status: model.VehicleAvailable},
	}
	staff := []model.Staff{
		{ID: 11, FirstName: "A", Role: model.RoleDriver, Status: model.StaffActive},
		{ID: 12, FirstName: "B", Role: model.RoleDriver, Status: model.StaffActive},
	}
	dir.Replace(points, vehicles, staff)
	return dir
}

func newTestPlanner(dir *directory.Memory) (*Planner, *store.Memory) {
	st := store.NewMemory()
	p := New(config.Default(), dir, st, zap.NewNop())
	p.Now = fixedClock()
	return p, st
}

func TestGenerateTodayPersistsPlan(t *testing.T) {
	p, st := newTestPlanner(seedDirectory(10, 50))
	res, err := p.GenerateToday(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.RouteDate != "2026-08-29" {
		t.Fatalf("route date = %q", res.RouteDate)
	}
	if res.BatchID == "" {
		t.Fatalf("missing batch id")
	}
	if len(res.Routes) == 0 || len(res.UnassignedPoints) != 0 {
		t.Fatalf("routes=%d unassigned=%d", len(res.Routes), len(res.UnassignedPoints))
	}
	if res.Summary.TotalVehiclesAvailable != 2 {
		t.Fatalf("vehicles available = %d", res.Summary.TotalVehiclesAvailable)
	}
	stored, err := st.GetDailyPlan(context.Background(), "2026-08-29")
	if err != nil {
		t.Fatalf("stored plan missing: %v", err)
	}
	if stored.BatchID != res.BatchID {
		t.Fatalf("stored batch %q != returned %q", stored.BatchID, res.BatchID)
	}
	for _, r := range stored.Routes {
		if r.TotalCost != r.FuelCost+r.FixedCost {
			t.Fatalf("route %d cost mismatch", r.RouteID)
		}
	}
}

func TestGenerateTodaySecondCallConflicts(t *testing.T) {
	p, _ := newTestPlanner(seedDirectory(5, 10))
	if _, err := p.GenerateToday(context.Background()); err != nil {
		t.Fatalf("first generate: %v", err)
	}
	_, err := p.GenerateToday(context.Background())
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestGenerateTodayConcurrentSingleWinner(t *testing.T) {
	p, st := newTestPlanner(seedDirectory(10, 20))
	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = p.GenerateToday(context.Background())
		}(i)
	}
	wg.Wait()
	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else if !errors.Is(err, store.ErrAlreadyExists) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("winners = %d, want 1", wins)
	}
	if _, err := st.GetDailyPlan(context.Background(), "2026-08-29"); err != nil {
		t.Fatalf("plan not stored: %v", err)
	}
}

// flakyStore fails writes on demand while delegating everything else.
type flakyStore struct {
	*store.Memory
	failPut bool
}

func (f *flakyStore) PutDailyPlan(ctx context.Context, plan model.DailyPlan) error {
	if f.failPut {
		return errors.New("connection reset by peer")
	}
	return f.Memory.PutDailyPlan(ctx, plan)
}

func TestGenerateTodayStorageFailureReportsNoSuccess(t *testing.T) {
	fs := &flakyStore{Memory: store.NewMemory(), failPut: true}
	p := New(config.Default(), seedDirectory(5, 10), fs, zap.NewNop())
	p.Now = fixedClock()

	if _, err := p.GenerateToday(context.Background()); err == nil {
		t.Fatal("write failure must not report success")
	} else if errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("failure misreported as conflict: %v", err)
	}
	if _, err := fs.GetDailyPlan(context.Background(), "2026-08-29"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("failed write left state behind: %v", err)
	}

	// The failed attempt left nothing behind, so a retry wins cleanly.
	fs.failPut = false
	res, err := p.GenerateToday(context.Background())
	if err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if res.BatchID == "" || len(res.Routes) == 0 {
		t.Fatalf("retry produced incomplete plan: %+v", res)
	}
}

func TestGenerateTodayCancelledContextPersistsNothing(t *testing.T) {
	p, st := newTestPlanner(seedDirectory(5, 10))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.GenerateToday(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if _, err := st.GetDailyPlan(context.Background(), "2026-08-29"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("cancelled run persisted a plan: %v", err)
	}
}

func TestGenerateTodayNoVehicles(t *testing.T) {
	dir := directory.NewMemory()
	dir.Replace([]model.CollectionPoint{{ID: 1, Name: "p", Status: model.PointActive,
		Latitude: 13.8, Longitude: 100.6, RegularDemandKg: 10}}, nil, nil)
	p, _ := newTestPlanner(dir)
	res, err := p.GenerateToday(context.Background())
	if err != nil {
		t.Fatalf("empty fleet should not error: %v", err)
	}
	if res.Reason != model.ReasonNoEligibleVehicles {
		t.Fatalf("reason = %q", res.Reason)
	}
	if len(res.Routes) != 0 {
		t.Fatalf("routes = %d", len(res.Routes))
	}
}

func TestGenerateTodayReportsUnassigned(t *testing.T) {
	// 10 points at 100kg regular against 800kg of fleet capacity.
	p, _ := newTestPlanner(seedDirectory(10, 100))
	res, err := p.GenerateToday(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Reason != model.ReasonCapacityInfeasible {
		t.Fatalf("reason = %q", res.Reason)
	}
	if len(res.UnassignedPoints) == 0 {
		t.Fatalf("expected unassigned points")
	}
}

func TestCrewVehiclesKeepsAssignedDriver(t *testing.T) {
	vehicles := []model.Vehicle{
		{ID: 1, Status: model.VehicleAvailable, CurrentDriverID: driverID(12)},
		{ID: 2, Status: model.VehicleAvailable},
		{ID: 3, Status: model.VehicleAvailable},
	}
	drivers := []model.Staff{
		{ID: 11, Role: model.RoleDriver, Status: model.StaffActive},
		{ID: 12, Role: model.RoleDriver, Status: model.StaffActive},
	}
	agents := crewVehicles(vehicles, drivers)
	if len(agents) != 2 {
		t.Fatalf("agents = %d, want 2", len(agents))
	}
	if agents[0].Vehicle.ID != 1 || agents[0].DriverID != 12 {
		t.Fatalf("vehicle 1 crew = %d", agents[0].DriverID)
	}
	if agents[1].Vehicle.ID != 2 || agents[1].DriverID != 11 {
		t.Fatalf("vehicle 2 crew = %d", agents[1].DriverID)
	}
}

func TestTodayNotFound(t *testing.T) {
	p, _ := newTestPlanner(seedDirectory(3, 10))
	if _, err := p.Today(context.Background()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestTodayViewFramesRoutesWithHub(t *testing.T) {
	p, _ := newTestPlanner(seedDirectory(6, 20))
	if _, err := p.GenerateToday(context.Background()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	view, err := p.Today(context.Background())
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if len(view.Routes) == 0 {
		t.Fatalf("no routes in view")
	}
	for _, r := range view.Routes {
		if len(r.Stops) < 3 {
			t.Fatalf("route %d too short: %d stops", r.RouteID, len(r.Stops))
		}
		first, last := r.Stops[0], r.Stops[len(r.Stops)-1]
		if first.PointID != 0 || last.PointID != 0 {
			t.Fatalf("route %d not hub framed", r.RouteID)
		}
		for i, s := range r.Stops {
			if s.StopSeq != i {
				t.Fatalf("stop seq %d at index %d", s.StopSeq, i)
			}
		}
		if r.FuelCostEstimate <= 0 || r.FixedCost <= 0 {
			t.Fatalf("route %d missing cost estimates", r.RouteID)
		}
	}
}

func TestTodayViewUnaffectedByDirectoryChanges(t *testing.T) {
	dir := seedDirectory(6, 20)
	p, _ := newTestPlanner(dir)
	if _, err := p.GenerateToday(context.Background()); err != nil {
		t.Fatalf("generate: %v", err)
	}

	// Wipe the master data after generation; the stored plan must still
	// render exactly what was dispatched.
	dir.Replace(nil, nil, nil)

	view, err := p.Today(context.Background())
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	for _, r := range view.Routes {
		if r.RegularCapacity <= 0 || r.RecycleCapacity <= 0 {
			t.Fatalf("route %d lost vehicle capacities", r.RouteID)
		}
		for _, s := range r.Stops[1 : len(r.Stops)-1] {
			if s.PointName == "" || s.Latitude == 0 || s.Longitude == 0 {
				t.Fatalf("stop %d degraded: %+v", s.StopSeq, s)
			}
		}
	}

	dirs, err := p.TodayDirections(context.Background())
	if err != nil {
		t.Fatalf("directions: %v", err)
	}
	for _, r := range dirs.Routes {
		for _, seg := range r.Segments {
			for _, gp := range seg {
				if gp.Lat == 0 && gp.Lng == 0 {
					t.Fatalf("route %d path passes through (0,0)", r.RouteID)
				}
			}
		}
	}
}

func TestTodayDirectionsEncodesPolylines(t *testing.T) {
	p, _ := newTestPlanner(seedDirectory(6, 20))
	if _, err := p.GenerateToday(context.Background()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	dirs, err := p.TodayDirections(context.Background())
	if err != nil {
		t.Fatalf("directions: %v", err)
	}
	for _, r := range dirs.Routes {
		if len(r.Segments) == 0 {
			t.Fatalf("route %d has no segments", r.RouteID)
		}
		if len(r.Polylines) != len(r.Segments) {
			t.Fatalf("route %d polylines %d != segments %d", r.RouteID, len(r.Polylines), len(r.Segments))
		}
		for _, pl := range r.Polylines {
			if pl == "" {
				t.Fatalf("route %d empty polyline", r.RouteID)
			}
		}
	}
}
