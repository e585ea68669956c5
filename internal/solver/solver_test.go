package solver

import (
	"context"
	"reflect"
	"testing"
	"time"

	"wasteroutes/internal/geo"
	"wasteroutes/internal/model"
)

var hub = model.GeoPoint{Lat: 13.7563, Lng: 100.5018}

func pt(id int64, lat, lng, reg, rec float64) model.CollectionPoint {
	return model.CollectionPoint{ID: id, Name: "p", Latitude: lat, Longitude: lng, Status: model.PointActive, RegularDemandKg: reg, RecycleDemandKg: rec}
}

func veh(id int64, reg, rec float64) VehicleAgent {
	return VehicleAgent{Vehicle: model.Vehicle{ID: id, RegularCapacityKg: reg, RecycleCapacityKg: rec, Status: model.VehicleAvailable}, DriverID: 100 + id}
}

func gridPoints(n int, reg, rec float64) []model.CollectionPoint {
	pts := make([]model.CollectionPoint, 0, n)
	for i := 0; i < n; i++ {
		lat := hub.Lat + 0.01*float64(i%5+1)
		lng := hub.Lng + 0.01*float64(i/5+1)
		pts = append(pts, pt(int64(i+1), lat, lng, reg, rec))
	}
	return pts
}

func TestFitsRejectsEitherDimension(t *testing.T) {
	v := model.Vehicle{RegularCapacityKg: 100, RecycleCapacityKg: 50}
	if !Fits(v, Load{RegularKg: 90, RecycleKg: 40}, pt(1, 0, 0, 10, 10)) {
		t.Fatalf("point at exact capacity should fit")
	}
	if Fits(v, Load{RegularKg: 95}, pt(1, 0, 0, 10, 0)) {
		t.Fatalf("regular overflow admitted")
	}
	if Fits(v, Load{RecycleKg: 45}, pt(1, 0, 0, 0, 10)) {
		t.Fatalf("recycle overflow admitted")
	}
}

func TestSolveNoVehicles(t *testing.T) {
	sol, m := Solve(context.Background(), Problem{Hub: hub, Points: gridPoints(3, 10, 5)})
	if sol.Reason != model.ReasonNoEligibleVehicles {
		t.Fatalf("reason = %q", sol.Reason)
	}
	if len(sol.Routes) != 0 || m.TimedOut {
		t.Fatalf("unexpected routes or timeout")
	}
}

func TestSolveNoPoints(t *testing.T) {
	sol, _ := Solve(context.Background(), Problem{Hub: hub, Vehicles: []VehicleAgent{veh(1, 500, 200)}})
	if sol.Reason != model.ReasonNoEligiblePoints {
		t.Fatalf("reason = %q", sol.Reason)
	}
}

func TestSolveAssignsAllWhenCapacitySuffices(t *testing.T) {
	p := Problem{
		Hub:           hub,
		Points:        gridPoints(10, 50, 50),
		Vehicles:      []VehicleAgent{veh(1, 500, 500), veh(2, 300, 300), veh(3, 200, 200)},
		MaxIterations: 5000,
		TimeBudget:    2 * time.Second,
	}
	sol, _ := Solve(context.Background(), p)
	if len(sol.Unassigned) != 0 {
		t.Fatalf("unassigned = %v", sol.Unassigned)
	}
	if sol.Reason != "" {
		t.Fatalf("reason = %q", sol.Reason)
	}
	assigned := 0
	for ri, r := range sol.Routes {
		assigned += len(r.Order)
		if r.Load.RegularKg > p.Vehicles[ri].Vehicle.RegularCapacityKg {
			t.Fatalf("route %d over regular capacity", ri)
		}
		if r.Load.RecycleKg > p.Vehicles[ri].Vehicle.RecycleCapacityKg {
			t.Fatalf("route %d over recycle capacity", ri)
		}
	}
	if assigned != 10 {
		t.Fatalf("assigned %d of 10 points", assigned)
	}
}

func TestSolveReportsUnassignedOnOverflow(t *testing.T) {
	// Total demand 400kg regular against 250kg of capacity.
	p := Problem{
		Hub:        hub,
		Points:     gridPoints(8, 50, 0),
		Vehicles:   []VehicleAgent{veh(1, 150, 100), veh(2, 100, 100)},
		TimeBudget: time.Second,
	}
	sol, _ := Solve(context.Background(), p)
	if sol.Reason != model.ReasonCapacityInfeasible {
		t.Fatalf("reason = %q", sol.Reason)
	}
	if len(sol.Unassigned) != 3 {
		t.Fatalf("unassigned = %d, want 3", len(sol.Unassigned))
	}
	placed := 0
	for _, r := range sol.Routes {
		placed += len(r.Order)
	}
	if placed != 5 {
		t.Fatalf("placed %d, want 5", placed)
	}
}

func TestSolveDeterministic(t *testing.T) {
	build := func() (Solution, Metrics) {
		return Solve(context.Background(), Problem{
			Hub:           hub,
			Points:        gridPoints(15, 30, 20),
			Vehicles:      []VehicleAgent{veh(2, 300, 200), veh(1, 300, 200)},
			MaxIterations: 10000,
			TimeBudget:    2 * time.Second,
		})
	}
	a, _ := build()
	b, _ := build()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("two runs disagree:\n%+v\n%+v", a, b)
	}
	// Vehicles are normalized by id, lowest first.
	if a.Routes[0].VehicleID != 1 || a.Routes[1].VehicleID != 2 {
		t.Fatalf("route order %d,%d", a.Routes[0].VehicleID, a.Routes[1].VehicleID)
	}
}

func TestSolveRespectsMaxStops(t *testing.T) {
	p := Problem{
		Hub:              hub,
		Points:           gridPoints(10, 1, 1),
		Vehicles:         []VehicleAgent{veh(1, 1000, 1000)},
		MaxStopsPerRoute: 4,
		TimeBudget:       time.Second,
	}
	sol, _ := Solve(context.Background(), p)
	if len(sol.Routes[0].Order) != 4 {
		t.Fatalf("route length %d, want 4", len(sol.Routes[0].Order))
	}
	if len(sol.Unassigned) != 6 {
		t.Fatalf("unassigned %d, want 6", len(sol.Unassigned))
	}
}

func TestSolveTimedOutFlagReturnsBestSoFar(t *testing.T) {
	p := Problem{
		Hub:           hub,
		Points:        gridPoints(12, 10, 5),
		Vehicles:      []VehicleAgent{veh(1, 1000, 1000), veh(2, 1000, 1000)},
		MaxIterations: 1,
	}
	sol, m := Solve(context.Background(), p)
	if !m.TimedOut {
		t.Fatal("exhausted iteration budget should set TimedOut")
	}
	placed := 0
	for ri, r := range sol.Routes {
		placed += len(r.Order)
		if r.Load.RegularKg > p.Vehicles[ri].Vehicle.RegularCapacityKg ||
			r.Load.RecycleKg > p.Vehicles[ri].Vehicle.RecycleCapacityKg {
			t.Fatalf("route %d over capacity after early stop", ri)
		}
	}
	if placed+len(sol.Unassigned) != 12 {
		t.Fatalf("points lost on early stop: placed %d unassigned %d", placed, len(sol.Unassigned))
	}
}

func TestSolveCancelledContextStillReturnsPlan(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := Problem{
		Hub:      hub,
		Points:   gridPoints(20, 10, 5),
		Vehicles: []VehicleAgent{veh(1, 1000, 1000), veh(2, 1000, 1000)},
	}
	sol, _ := Solve(ctx, p)
	placed := 0
	for _, r := range sol.Routes {
		placed += len(r.Order)
	}
	if placed+len(sol.Unassigned) != 20 {
		t.Fatalf("points lost: placed %d unassigned %d", placed, len(sol.Unassigned))
	}
}

func TestRouteDistanceStartsAndEndsAtHub(t *testing.T) {
	p := Problem{Hub: hub, Points: gridPoints(2, 1, 1)}
	direct := geo.DistanceKm(hub, p.Points[0].Location()) +
		geo.DistanceKm(p.Points[0].Location(), p.Points[1].Location()) +
		geo.DistanceKm(p.Points[1].Location(), hub)
	got := RouteDistanceKm(&p, []int{0, 1})
	if diff := got - direct; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("distance %f, want %f", got, direct)
	}
	if RouteDistanceKm(&p, nil) != 0 {
		t.Fatalf("empty route should be zero distance")
	}
}
