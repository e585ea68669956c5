package directory

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"

	"wasteroutes/internal/geo"
	"wasteroutes/internal/model"
)

// Postgres reads master data from the city database. It shares the *sql.DB
// with the plan store so both ride one pool.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) ListActivePoints(ctx context.Context) ([]model.CollectionPoint, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(address,''), latitude, longitude, status,
		       regular_capacity_kg, recycle_capacity_kg, COALESCE(problem_reported,'')
		FROM collection_points
		WHERE status = $1
		ORDER BY id`, model.PointActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.CollectionPoint
	for rows.Next() {
		var cp model.CollectionPoint
		if err := rows.Scan(&cp.ID, &cp.Name, &cp.Address, &cp.Latitude, &cp.Longitude,
			&cp.Status, &cp.RegularDemandKg, &cp.RecycleDemandKg, &cp.ProblemReported); err != nil {
			return nil, err
		}
		if geo.Validate(cp.Latitude, cp.Longitude) != nil {
			continue
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

func (p *Postgres) ListAvailableVehicles(ctx context.Context) ([]model.Vehicle, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, registration_number, COALESCE(vehicle_type,''), fuel_type,
		       regular_waste_capacity_kg, recyclable_waste_capacity_kg,
		       COALESCE(depreciation_value_per_year,0), status, current_driver_id
		FROM vehicles
		WHERE status = $1
		ORDER BY id`, model.VehicleAvailable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Vehicle
	for rows.Next() {
		var v model.Vehicle
		var driver sql.NullInt64
		if err := rows.Scan(&v.ID, &v.RegistrationNumber, &v.VehicleType, &v.FuelType,
			&v.RegularCapacityKg, &v.RecycleCapacityKg, &v.DepreciationPerYear,
			&v.Status, &driver); err != nil {
			return nil, err
		}
		if driver.Valid {
			id := driver.Int64
			v.CurrentDriverID = &id
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (p *Postgres) ListActiveDrivers(ctx context.Context) ([]model.Staff, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, first_name, COALESCE(last_name,''), role, status
		FROM staff
		WHERE status = $1 AND role = $2
		ORDER BY id`, model.StaffActive, model.RoleDriver)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Staff
	for rows.Next() {
		var s model.Staff
		if err := rows.Scan(&s.ID, &s.FirstName, &s.LastName, &s.Role, &s.Status); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
