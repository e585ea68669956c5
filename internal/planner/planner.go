// Package planner orchestrates daily route generation: it snapshots the
// directory, runs the solver, prices the routes and persists the result
// exactly once per date.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wasteroutes/internal/config"
	"wasteroutes/internal/directory"
	"wasteroutes/internal/geo"
	"wasteroutes/internal/metrics"
	"wasteroutes/internal/model"
	"wasteroutes/internal/solver"
	"wasteroutes/internal/store"
)

const dateLayout = "2006-01-02"

// Sink receives the plan after it has been persisted. Implementations fan
// the event out to brokers and notification endpoints.
type Sink interface {
	PlanGenerated(plan model.DailyPlan)
}

type Planner struct {
	cfg config.Config
	dir directory.Directory
	st  store.Store
	est *geo.CostEstimator
	log *zap.Logger

	// Now is the clock; tests pin it to a fixed date.
	Now func() time.Time
	// Sink is optional.
	Sink Sink

	mu    sync.Mutex
	dates map[string]*sync.Mutex
}

func New(cfg config.Config, dir directory.Directory, st store.Store, log *zap.Logger) *Planner {
	return &Planner{
		cfg:   cfg,
		dir:   dir,
		st:    st,
		est:   geo.NewCostEstimator(cfg.Costs.FuelRatePerKm, cfg.Costs.WorkingDaysPerYear),
		log:   log,
		Now:   time.Now,
		dates: make(map[string]*sync.Mutex),
	}
}

// dateLock serializes generation attempts for one route date within this
// process. The store's unique key still guards across processes.
func (p *Planner) dateLock(date string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.dates[date]
	if !ok {
		l = &sync.Mutex{}
		p.dates[date] = l
	}
	return l
}

func (p *Planner) today() string {
	return p.Now().Format(dateLayout)
}

// GenerateToday builds and persists today's plan. A second call for the
// same date returns store.ErrAlreadyExists and leaves the stored plan
// untouched. An empty fleet or point set is not an error: the persisted
// plan carries a reason code instead.
func (p *Planner) GenerateToday(ctx context.Context) (model.GenerateTodayResult, error) {
	date := p.today()
	lock := p.dateLock(date)
	lock.Lock()
	defer lock.Unlock()

	if _, err := p.st.GetDailyPlan(ctx, date); err == nil {
		metrics.PlanGenerations.WithLabelValues("duplicate").Inc()
		return model.GenerateTodayResult{}, fmt.Errorf("plan for %s: %w", date, store.ErrAlreadyExists)
	} else if !errors.Is(err, store.ErrNotFound) {
		return model.GenerateTodayResult{}, err
	}

	plan, err := p.build(ctx, date)
	if err != nil {
		metrics.PlanGenerations.WithLabelValues("error").Inc()
		return model.GenerateTodayResult{}, err
	}

	// Cancelled work must not be persisted.
	if err := ctx.Err(); err != nil {
		metrics.PlanGenerations.WithLabelValues("cancelled").Inc()
		return model.GenerateTodayResult{}, err
	}
	if err := p.st.PutDailyPlan(ctx, plan); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			metrics.PlanGenerations.WithLabelValues("duplicate").Inc()
			return model.GenerateTodayResult{}, fmt.Errorf("plan for %s: %w", date, err)
		}
		metrics.PlanGenerations.WithLabelValues("error").Inc()
		return model.GenerateTodayResult{}, err
	}

	metrics.PlanGenerations.WithLabelValues("ok").Inc()
	metrics.UnassignedPoints.Observe(float64(len(plan.UnassignedPoints)))
	p.log.Info("daily plan generated",
		zap.String("route_date", date),
		zap.String("batch_id", plan.BatchID),
		zap.Int("routes", len(plan.Routes)),
		zap.Int("unassigned", len(plan.UnassignedPoints)),
		zap.Bool("timed_out", plan.TimedOut))
	if p.Sink != nil {
		p.Sink.PlanGenerated(plan)
	}

	return model.GenerateTodayResult{
		RouteDate:        plan.RouteDate,
		BatchID:          plan.BatchID,
		Routes:           plan.Routes,
		Summary:          plan.Summary,
		UnassignedPoints: plan.UnassignedPoints,
		Reason:           plan.Reason,
		TimedOut:         plan.TimedOut,
	}, nil
}

// build snapshots the directory, runs the solver and prices the result.
func (p *Planner) build(ctx context.Context, date string) (model.DailyPlan, error) {
	points, err := p.dir.ListActivePoints(ctx)
	if err != nil {
		return model.DailyPlan{}, fmt.Errorf("list points: %w", err)
	}
	vehicles, err := p.dir.ListAvailableVehicles(ctx)
	if err != nil {
		return model.DailyPlan{}, fmt.Errorf("list vehicles: %w", err)
	}
	drivers, err := p.dir.ListActiveDrivers(ctx)
	if err != nil {
		return model.DailyPlan{}, fmt.Errorf("list drivers: %w", err)
	}

	agents := crewVehicles(vehicles, drivers)
	hub := model.GeoPoint{Lat: p.cfg.Hub.Lat, Lng: p.cfg.Hub.Lng}
	prob := solver.Problem{
		Hub:              hub,
		Points:           points,
		Vehicles:         agents,
		MaxStopsPerRoute: p.cfg.Solver.MaxStopsPerRoute,
		MaxIterations:    p.cfg.Solver.MaxIterations,
		TimeBudget:       p.cfg.Solver.TimeBudget(),
	}
	sol, sm := solver.Solve(ctx, prob)
	metrics.SolverDuration.Observe(sm.Elapsed.Seconds())
	metrics.SolverIterations.Observe(float64(sm.Iterations))

	plan := model.DailyPlan{
		RouteDate:   date,
		BatchID:     uuid.NewString(),
		GeneratedAt: p.Now().UTC().Format(time.RFC3339),
		Reason:      sol.Reason,
		TimedOut:    sm.TimedOut,
	}
	for _, idx := range sol.Unassigned {
		plan.UnassignedPoints = append(plan.UnassignedPoints, points[idx].ID)
	}

	routeID := int64(0)
	for _, r := range sol.Routes {
		if len(r.Order) == 0 {
			continue
		}
		routeID++
		km := solver.RouteDistanceKm(&prob, r.Order)
		v := agents[vehicleIndexByID(agents, r.VehicleID)].Vehicle
		fuel := p.est.FuelCost(km, v.FuelType)
		fixed := p.est.FixedCost(v)
		ids := make([]int64, len(r.Order))
		stops := make([]model.PlanStop, len(r.Order))
		for i, oi := range r.Order {
			pt := points[oi]
			ids[i] = pt.ID
			stops[i] = model.PlanStop{
				PointID: pt.ID, Name: pt.Name,
				Latitude: pt.Latitude, Longitude: pt.Longitude,
			}
		}
		plan.Routes = append(plan.Routes, model.RoutePlan{
			RouteID:             routeID,
			RouteDate:           date,
			DriverID:            r.DriverID,
			VehicleID:           r.VehicleID,
			PointIDs:            ids,
			Stops:               stops,
			EstimatedDistanceKm: km,
			FuelCost:            fuel,
			FixedCost:           fixed,
			TotalCost:           fuel + fixed,
			RegularLoadKg:       r.Load.RegularKg,
			RecycleLoadKg:       r.Load.RecycleKg,
			RegularCapacityKg:   v.RegularCapacityKg,
			RecycleCapacityKg:   v.RecycleCapacityKg,
		})
		plan.Summary.TotalFuelCost += fuel
		plan.Summary.TotalFixedCost += fixed
		plan.Summary.TotalCost += fuel + fixed
		plan.Summary.TotalDistanceM += km * 1000
	}
	plan.Summary.TotalVehicles = len(plan.Routes)
	plan.Summary.TotalVehiclesAvailable = len(vehicles)
	return plan, nil
}

// crewVehicles pairs each available vehicle with a driver. A vehicle keeps
// its assigned driver when that driver is still active; vehicles without
// one draw from the remaining active drivers in id order. A vehicle that
// cannot be crewed is left out.
func crewVehicles(vehicles []model.Vehicle, drivers []model.Staff) []solver.VehicleAgent {
	active := make(map[int64]bool, len(drivers))
	for _, d := range drivers {
		active[d.ID] = true
	}
	taken := make(map[int64]bool)

	var agents []solver.VehicleAgent
	var pool []model.Vehicle
	for _, v := range vehicles {
		if v.CurrentDriverID != nil && active[*v.CurrentDriverID] && !taken[*v.CurrentDriverID] {
			taken[*v.CurrentDriverID] = true
			agents = append(agents, solver.VehicleAgent{Vehicle: v, DriverID: *v.CurrentDriverID})
			continue
		}
		pool = append(pool, v)
	}
	for _, v := range pool {
		assigned := false
		for _, d := range drivers {
			if !taken[d.ID] {
				taken[d.ID] = true
				agents = append(agents, solver.VehicleAgent{Vehicle: v, DriverID: d.ID})
				assigned = true
				break
			}
		}
		if !assigned {
			break
		}
	}
	return agents
}

func vehicleIndexByID(agents []solver.VehicleAgent, id int64) int {
	for i, a := range agents {
		if a.Vehicle.ID == id {
			return i
		}
	}
	return 0
}

// Today returns the stored plan for today's date projected into the
// dashboard table shape. The projection reads the plan document alone, so
// master-data edits after generation cannot change what was dispatched.
// store.ErrNotFound passes through when nothing has been generated yet.
func (p *Planner) Today(ctx context.Context) (model.TodayViewResult, error) {
	plan, err := p.st.GetDailyPlan(ctx, p.today())
	if err != nil {
		return model.TodayViewResult{}, err
	}
	return projectTable(plan, p.cfg.Hub), nil
}

// TodayDirections returns today's routes as overlapping coordinate
// segments with encoded polylines, read purely from the stored plan.
func (p *Planner) TodayDirections(ctx context.Context) (model.TodayDirectionsResult, error) {
	plan, err := p.st.GetDailyPlan(ctx, p.today())
	if err != nil {
		return model.TodayDirectionsResult{}, err
	}
	hub := model.GeoPoint{Lat: p.cfg.Hub.Lat, Lng: p.cfg.Hub.Lng}
	return projectDirections(plan, hub, p.cfg.Directions.MaxWaypointsPerSegment), nil
}
