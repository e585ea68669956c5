// Package solver assigns collection points to vehicles for a single day.
// It builds routes by cheapest feasible insertion and then improves them
// with 2-opt, relocate and swap moves under a deterministic, budgeted
// local search. Given the same problem it always produces the same plan.
package solver

import (
	"context"
	"sort"
	"time"

	"wasteroutes/internal/geo"
	"wasteroutes/internal/model"
)

// Moves whose gain is below this are treated as no improvement, so float
// noise cannot flip the scan order between runs.
const improveEps = 1e-9

// VehicleAgent pairs an available vehicle with the driver assigned to it.
type VehicleAgent struct {
	Vehicle  model.Vehicle
	DriverID int64
}

// Problem is one day's routing input. Points and Vehicles are assumed
// pre-filtered for eligibility and coordinate validity.
type Problem struct {
	Hub              model.GeoPoint
	Points           []model.CollectionPoint
	Vehicles         []VehicleAgent
	MaxStopsPerRoute int
	MaxIterations    int
	TimeBudget       time.Duration
}

// Route is one vehicle's tour. Order holds indices into Problem.Points;
// the hub bounds the tour on both ends and is not part of Order.
type Route struct {
	VehicleID int64
	DriverID  int64
	Order     []int
	Load      Load
}

// Solution is the assignment the search settled on. Unassigned lists point
// indices no vehicle could take; Reason is set when the plan is empty or
// partial so callers can report why without treating it as an error.
type Solution struct {
	Routes     []Route
	Unassigned []int
	Reason     string
}

// Metrics describes how the search ran.
type Metrics struct {
	Iterations   int
	Improvements int
	Elapsed      time.Duration
	TimedOut     bool
}

// RouteDistanceKm is the tour length hub -> stops -> hub.
func RouteDistanceKm(p *Problem, order []int) float64 {
	if len(order) == 0 {
		return 0
	}
	total := geo.DistanceKm(p.Hub, p.Points[order[0]].Location())
	for i := 1; i < len(order); i++ {
		total += geo.DistanceKm(p.Points[order[i-1]].Location(), p.Points[order[i]].Location())
	}
	total += geo.DistanceKm(p.Points[order[len(order)-1]].Location(), p.Hub)
	return total
}

// Solve builds and improves one day's routes. It never returns an error:
// infeasibility is reported through Unassigned and Reason, and a blown
// budget or cancelled context yields the best plan found so far with
// Metrics.TimedOut set.
func Solve(ctx context.Context, p Problem) (Solution, Metrics) {
	start := time.Now()
	var m Metrics

	if len(p.Vehicles) == 0 {
		m.Elapsed = time.Since(start)
		return Solution{Reason: model.ReasonNoEligibleVehicles}, m
	}
	if len(p.Points) == 0 {
		m.Elapsed = time.Since(start)
		return Solution{Reason: model.ReasonNoEligiblePoints}, m
	}

	s := newSearch(&p, start)
	sol := s.construct()
	s.improve(ctx, &sol)

	if len(sol.Unassigned) > 0 {
		sol.Reason = model.ReasonCapacityInfeasible
	}

	m.Iterations = s.iterations
	m.Improvements = s.improvements
	m.TimedOut = s.timedOut
	m.Elapsed = time.Since(start)
	return sol, m
}

type search struct {
	p        *Problem
	deadline time.Time

	iterations   int
	improvements int
	timedOut     bool
}

func newSearch(p *Problem, start time.Time) *search {
	s := &search{p: p}
	if p.TimeBudget > 0 {
		s.deadline = start.Add(p.TimeBudget)
	}
	return s
}

// exhausted counts one candidate evaluation against the budget and reports
// whether the search has to stop.
func (s *search) exhausted(ctx context.Context) bool {
	s.iterations++
	if s.p.MaxIterations > 0 && s.iterations > s.p.MaxIterations {
		s.timedOut = true
		return true
	}
	// Checking the clock every evaluation is wasteful; every 64th is enough.
	if s.iterations%64 == 0 {
		if !s.deadline.IsZero() && time.Now().After(s.deadline) {
			s.timedOut = true
			return true
		}
		select {
		case <-ctx.Done():
			s.timedOut = true
			return true
		default:
		}
	}
	return false
}

func (s *search) maxStops() int {
	if s.p.MaxStopsPerRoute > 0 {
		return s.p.MaxStopsPerRoute
	}
	return len(s.p.Points)
}

func (s *search) loc(idx int) model.GeoPoint {
	return s.p.Points[idx].Location()
}

// stopAt resolves position pos of a route where -1 and len(order) both mean
// the hub.
func (s *search) stopAt(order []int, pos int) model.GeoPoint {
	if pos < 0 || pos >= len(order) {
		return s.p.Hub
	}
	return s.loc(order[pos])
}

// insertionDelta is the distance added by inserting point idx before
// position pos of order.
func (s *search) insertionDelta(order []int, pos, idx int) float64 {
	prev := s.stopAt(order, pos-1)
	next := s.stopAt(order, pos)
	at := s.loc(idx)
	return geo.DistanceKm(prev, at) + geo.DistanceKm(at, next) - geo.DistanceKm(prev, next)
}

// removalGain is the distance saved by dropping the stop at position pos.
func (s *search) removalGain(order []int, pos int) float64 {
	prev := s.stopAt(order, pos-1)
	at := s.loc(order[pos])
	next := s.stopAt(order, pos+1)
	return geo.DistanceKm(prev, at) + geo.DistanceKm(at, next) - geo.DistanceKm(prev, next)
}

// construct seeds one empty route per vehicle, then inserts points one at a
// time, nearest to the hub first, each at its cheapest feasible slot.
// Vehicles and positions are scanned in ascending order with strict
// comparison, so cost ties resolve to the lower vehicle id and the earlier
// slot without any randomness.
func (s *search) construct() Solution {
	sort.Slice(s.p.Vehicles, func(i, j int) bool {
		return s.p.Vehicles[i].Vehicle.ID < s.p.Vehicles[j].Vehicle.ID
	})

	routes := make([]Route, len(s.p.Vehicles))
	for i, va := range s.p.Vehicles {
		routes[i] = Route{VehicleID: va.Vehicle.ID, DriverID: va.DriverID}
	}

	seq := make([]int, len(s.p.Points))
	for i := range seq {
		seq[i] = i
	}
	sort.Slice(seq, func(a, b int) bool {
		da := geo.DistanceKm(s.p.Hub, s.loc(seq[a]))
		db := geo.DistanceKm(s.p.Hub, s.loc(seq[b]))
		if da != db {
			return da < db
		}
		return s.p.Points[seq[a]].ID < s.p.Points[seq[b]].ID
	})

	var unassigned []int
	for _, idx := range seq {
		bestRoute, bestPos := -1, -1
		bestDelta := 0.0
		for ri := range routes {
			r := &routes[ri]
			if len(r.Order) >= s.maxStops() {
				continue
			}
			if !Fits(s.p.Vehicles[ri].Vehicle, r.Load, s.p.Points[idx]) {
				continue
			}
			for pos := 0; pos <= len(r.Order); pos++ {
				delta := s.insertionDelta(r.Order, pos, idx)
				if bestRoute < 0 || delta < bestDelta-improveEps {
					bestRoute, bestPos, bestDelta = ri, pos, delta
				}
			}
		}
		if bestRoute < 0 {
			unassigned = append(unassigned, idx)
			continue
		}
		r := &routes[bestRoute]
		r.Order = append(r.Order, 0)
		copy(r.Order[bestPos+1:], r.Order[bestPos:])
		r.Order[bestPos] = idx
		r.Load = Add(r.Load, s.p.Points[idx])
	}

	return Solution{Routes: routes, Unassigned: unassigned}
}

// improve runs first-improvement passes of 2-opt, relocate and swap until a
// full pass finds nothing or the budget runs out. First-improvement over a
// fixed scan order keeps the result reproducible.
func (s *search) improve(ctx context.Context, sol *Solution) {
	for {
		changed := false
		for ri := range sol.Routes {
			if s.twoOpt(ctx, &sol.Routes[ri]) {
				changed = true
			}
			if s.timedOut {
				return
			}
		}
		if s.relocate(ctx, sol) {
			changed = true
		}
		if s.timedOut {
			return
		}
		if s.swap(ctx, sol) {
			changed = true
		}
		if s.timedOut || !changed {
			return
		}
	}
}

// twoOpt reverses route segments while a reversal shortens the tour.
func (s *search) twoOpt(ctx context.Context, r *Route) bool {
	improved := false
	for again := true; again; {
		again = false
		n := len(r.Order)
		for i := 0; i < n-1; i++ {
			for k := i + 1; k < n; k++ {
				if s.exhausted(ctx) {
					return improved
				}
				prev := s.stopAt(r.Order, i-1)
				a := s.loc(r.Order[i])
				b := s.loc(r.Order[k])
				next := s.stopAt(r.Order, k+1)
				delta := geo.DistanceKm(prev, b) + geo.DistanceKm(a, next) -
					geo.DistanceKm(prev, a) - geo.DistanceKm(b, next)
				if delta < -improveEps {
					for l, h := i, k; l < h; l, h = l+1, h-1 {
						r.Order[l], r.Order[h] = r.Order[h], r.Order[l]
					}
					s.improvements++
					improved, again = true, true
				}
			}
		}
	}
	return improved
}

// relocate moves one stop from its route to a cheaper feasible slot on
// another route.
func (s *search) relocate(ctx context.Context, sol *Solution) bool {
	improved := false
	for ai := range sol.Routes {
		a := &sol.Routes[ai]
		for i := 0; i < len(a.Order); i++ {
			idx := a.Order[i]
			gain := s.removalGain(a.Order, i)
			moved := false
			for bi := range sol.Routes {
				if bi == ai || moved {
					continue
				}
				b := &sol.Routes[bi]
				if len(b.Order) >= s.maxStops() {
					continue
				}
				if !Fits(s.p.Vehicles[bi].Vehicle, b.Load, s.p.Points[idx]) {
					continue
				}
				for pos := 0; pos <= len(b.Order); pos++ {
					if s.exhausted(ctx) {
						return improved
					}
					delta := s.insertionDelta(b.Order, pos, idx)
					if delta-gain < -improveEps {
						a.Order = append(a.Order[:i], a.Order[i+1:]...)
						a.Load = Load{RegularKg: a.Load.RegularKg - s.p.Points[idx].RegularDemandKg,
							RecycleKg: a.Load.RecycleKg - s.p.Points[idx].RecycleDemandKg}
						b.Order = append(b.Order, 0)
						copy(b.Order[pos+1:], b.Order[pos:])
						b.Order[pos] = idx
						b.Load = Add(b.Load, s.p.Points[idx])
						s.improvements++
						improved, moved = true, true
						i--
						break
					}
				}
			}
		}
	}
	return improved
}

// swap exchanges one stop between two routes when the trade shortens the
// combined tours and both loads stay within capacity.
func (s *search) swap(ctx context.Context, sol *Solution) bool {
	improved := false
	for ai := range sol.Routes {
		a := &sol.Routes[ai]
		for bi := ai + 1; bi < len(sol.Routes); bi++ {
			b := &sol.Routes[bi]
			for i := 0; i < len(a.Order); i++ {
				for j := 0; j < len(b.Order); j++ {
					if s.exhausted(ctx) {
						return improved
					}
					pa, pb := s.p.Points[a.Order[i]], s.p.Points[b.Order[j]]
					la := Load{RegularKg: a.Load.RegularKg - pa.RegularDemandKg + pb.RegularDemandKg,
						RecycleKg: a.Load.RecycleKg - pa.RecycleDemandKg + pb.RecycleDemandKg}
					lb := Load{RegularKg: b.Load.RegularKg - pb.RegularDemandKg + pa.RegularDemandKg,
						RecycleKg: b.Load.RecycleKg - pb.RecycleDemandKg + pa.RecycleDemandKg}
					if la.RegularKg > s.p.Vehicles[ai].Vehicle.RegularCapacityKg ||
						la.RecycleKg > s.p.Vehicles[ai].Vehicle.RecycleCapacityKg ||
						lb.RegularKg > s.p.Vehicles[bi].Vehicle.RegularCapacityKg ||
						lb.RecycleKg > s.p.Vehicles[bi].Vehicle.RecycleCapacityKg {
						continue
					}
					delta := s.swapDelta(a.Order, i, b.Order, j)
					if delta < -improveEps {
						a.Order[i], b.Order[j] = b.Order[j], a.Order[i]
						a.Load, b.Load = la, lb
						s.improvements++
						improved = true
					}
				}
			}
		}
	}
	return improved
}

func (s *search) swapDelta(a []int, i int, b []int, j int) float64 {
	seg := func(order []int, pos, idx int) float64 {
		prev := s.stopAt(order, pos-1)
		next := s.stopAt(order, pos+1)
		at := s.loc(idx)
		return geo.DistanceKm(prev, at) + geo.DistanceKm(at, next)
	}
	before := seg(a, i, a[i]) + seg(b, j, b[j])
	after := seg(a, i, b[j]) + seg(b, j, a[i])
	return after - before
}
