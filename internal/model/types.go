package model

// Core domain types for daily waste-collection route planning.

// Collection point status values.
const (
	PointActive   = "active"
	PointInactive = "inactive"
)

// Vehicle status values.
const (
	VehicleAvailable      = "available"
	VehicleInUse          = "in_use"
	VehicleMaintenance    = "maintenance"
	VehicleDecommissioned = "decommissioned"
)

// Fuel types accepted by the fleet.
const (
	FuelDiesel   = "diesel"
	FuelGasoline = "gasoline"
)

// Staff roles and status values.
const (
	RoleDriver    = "driver"
	RoleCollector = "collector"
	RoleAdmin     = "admin"

	StaffActive = "active"
)

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CollectionPoint is a pickup location under city management. Only active
// points with finite coordinates are eligible for routing.
type CollectionPoint struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Address         string  `json:"address,omitempty"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Status          string  `json:"status"`
	RegularDemandKg float64 `json:"regular_capacity"`
	RecycleDemandKg float64 `json:"recycle_capacity"`
	ProblemReported string  `json:"problem_reported,omitempty"`
}

// Location returns the point's coordinates as a GeoPoint.
func (p CollectionPoint) Location() GeoPoint {
	return GeoPoint{Lat: p.Latitude, Lng: p.Longitude}
}

// Vehicle is a collection truck. Only available vehicles with a resolvable
// driver are eligible for today's routing.
type Vehicle struct {
	ID                  int64   `json:"id"`
	RegistrationNumber  string  `json:"registration_number"`
	VehicleType         string  `json:"vehicle_type,omitempty"`
	FuelType            string  `json:"fuel_type"`
	RegularCapacityKg   float64 `json:"regular_waste_capacity_kg"`
	RecycleCapacityKg   float64 `json:"recyclable_waste_capacity_kg"`
	DepreciationPerYear float64 `json:"depreciation_value_per_year,omitempty"`
	Status              string  `json:"status"`
	CurrentDriverID     *int64  `json:"current_driver_id,omitempty"`
}

// Staff covers drivers, collectors and admins.
type Staff struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role"`
	Status    string `json:"status"`
}

// PlanStop freezes one stop's display fields at generation time so views
// never depend on the live directory.
type PlanStop struct {
	PointID   int64   `json:"point_id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RoutePlan is one vehicle's route for one day. The stop sequence excludes
// the hub; every rendered route starts and ends at the hub. Stops and the
// vehicle capacities are snapshots taken when the plan was generated.
type RoutePlan struct {
	RouteID             int64      `json:"route_id"`
	RouteDate           string     `json:"route_date"`
	DriverID            int64      `json:"driver_id"`
	VehicleID           int64      `json:"vehicle_id"`
	PointIDs            []int64    `json:"point_ids"`
	Stops               []PlanStop `json:"stops"`
	EstimatedDistanceKm float64    `json:"estimated_distance_km"`
	FuelCost            float64    `json:"fuel_cost"`
	FixedCost           float64    `json:"fixed_cost"`
	TotalCost           float64    `json:"total_cost"`
	RegularLoadKg       float64    `json:"regular_load_kg"`
	RecycleLoadKg       float64    `json:"recycle_load_kg"`
	RegularCapacityKg   float64    `json:"vehicle_regular_capacity_kg"`
	RecycleCapacityKg   float64    `json:"vehicle_recycle_capacity_kg"`
}

// PlanSummary aggregates a day's routes for the dashboard header.
type PlanSummary struct {
	TotalCost              float64 `json:"total_cost"`
	TotalFixedCost         float64 `json:"total_fixed_cost"`
	TotalFuelCost          float64 `json:"total_fuel_cost"`
	TotalVehicles          int     `json:"total_vehicles"`
	TotalVehiclesAvailable int     `json:"total_vehicles_available"`
	TotalDistanceM         float64 `json:"total_distance_m"`
}

// Plan reason codes. Empty reason means a normal feasible solve.
const (
	ReasonNoEligiblePoints   = "no_eligible_points"
	ReasonNoEligibleVehicles = "no_eligible_vehicles"
	ReasonCapacityInfeasible = "capacity_infeasible"
)

// DailyPlan is the persisted result of one generation run. At most one exists
// per route date; it is immutable once stored.
type DailyPlan struct {
	RouteDate        string      `json:"route_date"`
	BatchID          string      `json:"batch_id,omitempty"`
	GeneratedAt      string      `json:"generated_at,omitempty"`
	Routes           []RoutePlan `json:"routes"`
	Summary          PlanSummary `json:"summary"`
	UnassignedPoints []int64     `json:"unassigned_points,omitempty"`
	Reason           string      `json:"reason,omitempty"`
	TimedOut         bool        `json:"timed_out,omitempty"`
}

// Read models for API responses.

// StopView is one ordered stop in the today view, hub included at both ends.
// The hub carries point_id 0.
type StopView struct {
	StopSeq   int     `json:"stop_seq"`
	PointID   int64   `json:"point_id"`
	PointName string  `json:"point_name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type RouteView struct {
	RouteID             int64      `json:"route_id"`
	RouteDate           string     `json:"route_date"`
	DriverID            int64      `json:"driver_id"`
	VehicleID           int64      `json:"vehicle_id"`
	EstimatedDistanceKm float64    `json:"estimated_distance_km"`
	FuelCostEstimate    float64    `json:"fuel_cost_estimate_thb"`
	DepreciationCost    float64    `json:"depreciation_estimate_thb"`
	FixedCost           float64    `json:"fixed_cost"`
	RegularCapacity     float64    `json:"regular_capacity"`
	RecycleCapacity     float64    `json:"recycle_capacity"`
	Stops               []StopView `json:"stops"`
}

type TodayViewResult struct {
	RouteDate string      `json:"route_date"`
	Routes    []RouteView `json:"routes"`
}

// RouteDirectionsView carries the chunked coordinate segments of one route
// alongside their encoded polylines. Segments overlap by one point so the
// rendered path stays continuous across downstream waypoint limits.
type RouteDirectionsView struct {
	RouteID   int64        `json:"route_id"`
	VehicleID int64        `json:"vehicle_id"`
	Segments  [][]GeoPoint `json:"segments"`
	Polylines []string     `json:"polylines"`
}

type TodayDirectionsResult struct {
	RouteDate string                `json:"route_date"`
	Routes    []RouteDirectionsView `json:"routes"`
}

type GenerateTodayResult struct {
	RouteDate        string      `json:"route_date"`
	BatchID          string      `json:"batch_id,omitempty"`
	Routes           []RoutePlan `json:"routes"`
	Summary          PlanSummary `json:"summary"`
	UnassignedPoints []int64     `json:"unassigned_points,omitempty"`
	Reason           string      `json:"reason,omitempty"`
	TimedOut         bool        `json:"timed_out,omitempty"`
}
