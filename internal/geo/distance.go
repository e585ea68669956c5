package geo

import (
	"errors"
	"fmt"
	"math"

	"wasteroutes/internal/model"
)

// ErrInvalidCoordinate rejects malformed latitude/longitude input before any
// point reaches the solver.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

const earthRadiusM = 6371000.0

// Validate checks that a coordinate is finite and within range.
func Validate(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return fmt.Errorf("%w: (%v, %v)", ErrInvalidCoordinate, lat, lng)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return fmt.Errorf("%w: (%v, %v) out of range", ErrInvalidCoordinate, lat, lng)
	}
	return nil
}

// DistanceKm returns the haversine distance between two coordinates in
// kilometers. Callers must not rely on symmetry or the triangle inequality;
// a routed-network provider may replace this estimator later.
func DistanceKm(a, b model.GeoPoint) float64 {
	return haversineMeters(a.Lat, a.Lng, b.Lat, b.Lng) / 1000.0
}

func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// CostEstimator derives fuel and fixed costs from distance and vehicle
// parameters. Rates come from configuration; cost is monotonically
// increasing in distance for any fuel type.
type CostEstimator struct {
	ratePerKm          map[string]float64
	workingDaysPerYear int
}

func NewCostEstimator(ratePerKm map[string]float64, workingDaysPerYear int) *CostEstimator {
	if workingDaysPerYear <= 0 {
		workingDaysPerYear = 365
	}
	return &CostEstimator{ratePerKm: ratePerKm, workingDaysPerYear: workingDaysPerYear}
}

// FuelCost returns the fuel cost of driving km with the given fuel type.
// Unknown fuel types fall back to the diesel rate.
func (e *CostEstimator) FuelCost(km float64, fuelType string) float64 {
	if km < 0 {
		km = 0
	}
	rate, ok := e.ratePerKm[fuelType]
	if !ok {
		rate = e.ratePerKm[model.FuelDiesel]
	}
	return km * rate
}

// FixedCost amortizes a vehicle's yearly depreciation over working days,
// charged once per route regardless of distance.
func (e *CostEstimator) FixedCost(v model.Vehicle) float64 {
	if v.DepreciationPerYear <= 0 {
		return 0
	}
	return v.DepreciationPerYear / float64(e.workingDaysPerYear)
}
