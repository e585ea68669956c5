// Package api exposes the daily-route service over HTTP: plan generation,
// the dashboard views, event streaming and the operational endpoints.
package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"wasteroutes/internal/config"
	"wasteroutes/internal/metrics"
	"wasteroutes/internal/model"
	"wasteroutes/internal/planner"
	"wasteroutes/internal/store"
)

// topicPlans carries plan lifecycle events on the broker.
const topicPlans = "plans"

type Server struct {
	Cfg     config.Config
	Planner *planner.Planner
	Store   store.Store
	Broker  EventBroker
	Log     *zap.Logger
}

func NewServer(cfg config.Config, p *planner.Planner, st store.Store, broker EventBroker, log *zap.Logger) *Server {
	return &Server{Cfg: cfg, Planner: p, Store: st, Broker: broker, Log: log}
}

// Routes builds the full handler tree with middleware applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Daily routes
	mux.HandleFunc("/v1/daily-routes/generate-today", s.GenerateTodayHandler)
	mux.HandleFunc("/v1/daily-routes/today", s.TodayHandler)
	mux.HandleFunc("/v1/daily-routes/today-directions", s.TodayDirectionsHandler)

	// Plan event streaming
	mux.HandleFunc("/v1/daily-routes/events/stream", s.EventsStreamHandler)
	mux.HandleFunc("/v1/daily-routes/events/ws", s.EventsWSHandler)

	// Health and operations
	mux.HandleFunc("/healthz", s.HealthHandler)
	mux.HandleFunc("/readyz", s.ReadyHandler)
	mux.HandleFunc("/debug/info", s.DebugJSON)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	return s.chain(mux)
}

// PlanEvents adapts the broker into the planner's sink so a generated plan
// reaches stream and websocket subscribers.
type PlanEvents struct {
	Broker EventBroker
}

func (p PlanEvents) PlanGenerated(plan model.DailyPlan) {
	p.Broker.Publish(topicPlans, SSEEvent{
		Type: "plan.generated",
		Data: map[string]any{
			"route_date": plan.RouteDate,
			"batch_id":   plan.BatchID,
			"routes":     len(plan.Routes),
			"unassigned": len(plan.UnassignedPoints),
			"timed_out":  plan.TimedOut,
		},
	})
}
