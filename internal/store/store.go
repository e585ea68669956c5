// Package store persists daily plans. Exactly one plan may exist per route
// date; the first successful write wins and every later attempt for the
// same date fails with ErrAlreadyExists.
package store

import (
	"context"
	"errors"

	"wasteroutes/internal/model"
)

var (
	// ErrNotFound means no plan has been generated for the date.
	ErrNotFound = errors.New("plan not found")
	// ErrAlreadyExists means a plan for the date was already persisted.
	ErrAlreadyExists = errors.New("plan already exists")
)

// Store is the plan repository. PutDailyPlan is atomic per date: either the
// whole plan lands or nothing does, and concurrent writers for one date see
// exactly one success.
type Store interface {
	GetDailyPlan(ctx context.Context, routeDate string) (model.DailyPlan, error)
	PutDailyPlan(ctx context.Context, plan model.DailyPlan) error
	// Ping reports backend health for readiness checks.
	Ping(ctx context.Context) error
	Close() error
}
