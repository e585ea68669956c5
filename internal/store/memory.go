package store

import (
	"context"
	"sync"

	"wasteroutes/internal/model"
)

// Memory keeps plans in a map keyed by route date. The check-and-set in
// PutDailyPlan runs under one lock, so the first writer for a date wins.
type Memory struct {
	mu    sync.Mutex
	plans map[string]model.DailyPlan
}

func NewMemory() *Memory {
	return &Memory{plans: make(map[string]model.DailyPlan)}
}

func (m *Memory) GetDailyPlan(ctx context.Context, routeDate string) (model.DailyPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	plan, ok := m.plans[routeDate]
	if !ok {
		return model.DailyPlan{}, ErrNotFound
	}
	return plan, nil
}

func (m *Memory) PutDailyPlan(ctx context.Context, plan model.DailyPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[plan.RouteDate]; ok {
		return ErrAlreadyExists
	}
	m.plans[plan.RouteDate] = plan
	return nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
