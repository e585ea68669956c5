package planner

import (
	"github.com/twpayne/go-polyline"

	"wasteroutes/internal/config"
	"wasteroutes/internal/model"
)

// hubPointID marks the hub stop in rendered routes.
const hubPointID = 0

// projectTable renders a stored plan as the dashboard table: each route
// framed by hub stops, costs split into fuel and depreciation, and the
// vehicle capacities captured at generation time alongside. It reads
// nothing but the plan document.
func projectTable(plan model.DailyPlan, hub config.HubConfig) model.TodayViewResult {
	out := model.TodayViewResult{RouteDate: plan.RouteDate}
	for _, r := range plan.Routes {
		rv := model.RouteView{
			RouteID:             r.RouteID,
			RouteDate:           r.RouteDate,
			DriverID:            r.DriverID,
			VehicleID:           r.VehicleID,
			EstimatedDistanceKm: r.EstimatedDistanceKm,
			FuelCostEstimate:    r.FuelCost,
			DepreciationCost:    r.FixedCost,
			FixedCost:           r.FixedCost,
			RegularCapacity:     r.RegularCapacityKg,
			RecycleCapacity:     r.RecycleCapacityKg,
		}
		rv.Stops = append(rv.Stops, model.StopView{
			StopSeq: 0, PointID: hubPointID, PointName: hub.Name,
			Latitude: hub.Lat, Longitude: hub.Lng,
		})
		for i, st := range r.Stops {
			rv.Stops = append(rv.Stops, model.StopView{
				StopSeq: i + 1, PointID: st.PointID, PointName: st.Name,
				Latitude: st.Latitude, Longitude: st.Longitude,
			})
		}
		rv.Stops = append(rv.Stops, model.StopView{
			StopSeq: len(r.Stops) + 1, PointID: hubPointID, PointName: hub.Name,
			Latitude: hub.Lat, Longitude: hub.Lng,
		})
		out.Routes = append(out.Routes, rv)
	}
	return out
}

// projectDirections renders each route as coordinate segments sized for a
// downstream directions API that caps intermediate waypoints. Coordinates
// come from the stop snapshots stored in the plan. A segment holds at most
// maxWaypoints stops plus its origin and destination, and consecutive
// segments share their boundary stop so the rendered path has no gaps.
func projectDirections(plan model.DailyPlan, hub model.GeoPoint, maxWaypoints int) model.TodayDirectionsResult {
	out := model.TodayDirectionsResult{RouteDate: plan.RouteDate}
	for _, r := range plan.Routes {
		path := make([]model.GeoPoint, 0, len(r.Stops)+2)
		path = append(path, hub)
		for _, st := range r.Stops {
			path = append(path, model.GeoPoint{Lat: st.Latitude, Lng: st.Longitude})
		}
		path = append(path, hub)

		segs := chunkPath(path, maxWaypoints)
		dv := model.RouteDirectionsView{RouteID: r.RouteID, VehicleID: r.VehicleID, Segments: segs}
		for _, seg := range segs {
			coords := make([][]float64, len(seg))
			for i, gp := range seg {
				coords[i] = []float64{gp.Lat, gp.Lng}
			}
			dv.Polylines = append(dv.Polylines, string(polyline.EncodeCoords(coords)))
		}
		out.Routes = append(out.Routes, dv)
	}
	return out
}

// chunkPath splits path into runs of at most maxWaypoints+2 points. The
// last point of each run repeats as the first of the next.
func chunkPath(path []model.GeoPoint, maxWaypoints int) [][]model.GeoPoint {
	if len(path) < 2 {
		return nil
	}
	limit := maxWaypoints + 2
	if limit < 2 {
		limit = 2
	}
	var segs [][]model.GeoPoint
	for start := 0; start < len(path)-1; {
		end := start + limit - 1
		if end > len(path)-1 {
			end = len(path) - 1
		}
		seg := append([]model.GeoPoint(nil), path[start:end+1]...)
		segs = append(segs, seg)
		start = end
	}
	return segs
}
