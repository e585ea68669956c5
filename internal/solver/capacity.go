package solver

import "wasteroutes/internal/model"

// Load is the running demand total of a route, tracked separately for
// regular and recyclable waste.
type Load struct {
	RegularKg float64
	RecycleKg float64
}

// Fits reports whether adding one more point keeps both demand dimensions
// within the vehicle's capacities. Fails closed: a point that would exceed
// either dimension is rejected, never admitted with truncation.
func Fits(v model.Vehicle, load Load, pt model.CollectionPoint) bool {
	if load.RegularKg+pt.RegularDemandKg > v.RegularCapacityKg {
		return false
	}
	if load.RecycleKg+pt.RecycleDemandKg > v.RecycleCapacityKg {
		return false
	}
	return true
}

// Add returns the load after collecting pt.
func Add(load Load, pt model.CollectionPoint) Load {
	return Load{
		RegularKg: load.RegularKg + pt.RegularDemandKg,
		RecycleKg: load.RecycleKg + pt.RecycleDemandKg,
	}
}
