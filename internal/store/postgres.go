package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"wasteroutes/internal/model"
)

// Postgres persists plans in two tables: daily_plans holds one row per
// date with the full plan document, route_plans holds one row per route
// for reporting queries. Both are written in one transaction; the unique
// key on daily_plans.route_date is the idempotency guard.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{db: db}, nil
}

// DB exposes the pool so the directory can share it.
func (p *Postgres) DB() *sql.DB { return p.db }

func (p *Postgres) GetDailyPlan(ctx context.Context, routeDate string) (model.DailyPlan, error) {
	var raw []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT plan FROM daily_plans WHERE route_date = $1`, routeDate).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DailyPlan{}, ErrNotFound
	}
	if err != nil {
		return model.DailyPlan{}, err
	}
	var plan model.DailyPlan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return model.DailyPlan{}, fmt.Errorf("decode plan %s: %w", routeDate, err)
	}
	return plan, nil
}

func (p *Postgres) PutDailyPlan(ctx context.Context, plan model.DailyPlan) error {
	raw, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO daily_plans (route_date, batch_id, generated_at, plan)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (route_date) DO NOTHING`,
		plan.RouteDate, plan.BatchID, plan.GeneratedAt, raw)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyExists
	}

	for _, r := range plan.Routes {
		pointIDs, err := json.Marshal(r.PointIDs)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO route_plans
			  (route_id, route_date, driver_id, vehicle_id, point_ids,
			   estimated_distance_km, fuel_cost, fixed_cost, total_cost,
			   regular_load_kg, recycle_load_kg)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			r.RouteID, r.RouteDate, r.DriverID, r.VehicleID, pointIDs,
			r.EstimatedDistanceKm, r.FuelCost, r.FixedCost, r.TotalCost,
			r.RegularLoadKg, r.RecycleLoadKg); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }
