// Package notify pushes plan events to configured HTTP endpoints. Payloads
// are signed with each endpoint's shared secret and failed deliveries are
// retried with exponential backoff until the attempt cap.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"wasteroutes/internal/config"
	"wasteroutes/internal/metrics"
	"wasteroutes/internal/model"
)

const eventPlanGenerated = "plan.generated"

type delivery struct {
	endpoint  config.NotifyEndpoint
	eventType string
	payload   []byte
	attempts  int
	due       time.Time
}

type Notifier struct {
	cfg  config.NotifyConfig
	http *http.Client
	log  *zap.Logger

	mu      sync.Mutex
	pending []delivery
	stop    chan struct{}
	done    chan struct{}
}

func New(cfg config.NotifyConfig, log *zap.Logger) *Notifier {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &Notifier{
		cfg:  cfg,
		http: &http.Client{Timeout: 5 * time.Second},
		log:  log,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (n *Notifier) Start() {
	go func() {
		defer close(n.done)
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-n.stop:
				return
			case <-ticker.C:
				n.processOnce()
			}
		}
	}()
}

func (n *Notifier) Close() {
	close(n.stop)
	<-n.done
}

// PlanGenerated queues one delivery per configured endpoint. It satisfies
// the planner's sink and never blocks the generation path.
func (n *Notifier) PlanGenerated(plan model.DailyPlan) {
	if len(n.cfg.Endpoints) == 0 {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"id":   fmt.Sprintf("evt_%d", time.Now().UnixNano()),
		"type": eventPlanGenerated,
		"ts":   time.Now().UTC().Format(time.RFC3339),
		"data": plan,
	})
	if err != nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ep := range n.cfg.Endpoints {
		n.pending = append(n.pending, delivery{
			endpoint: ep, eventType: eventPlanGenerated, payload: payload, due: time.Now(),
		})
	}
}

func (n *Notifier) processOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	n.mu.Lock()
	var due, later []delivery
	now := time.Now()
	for _, d := range n.pending {
		if d.due.After(now) {
			later = append(later, d)
		} else {
			due = append(due, d)
		}
	}
	n.pending = later
	n.mu.Unlock()

	for _, d := range due {
		if n.deliver(ctx, d) {
			continue
		}
		d.attempts++
		if d.attempts >= n.cfg.MaxAttempts {
			metrics.NotifyDeliveries.WithLabelValues(d.eventType, "dropped").Inc()
			n.log.Warn("notification dropped",
				zap.String("url", d.endpoint.URL),
				zap.Int("attempts", d.attempts))
			continue
		}
		d.due = time.Now().Add(nextBackoff(d.attempts))
		n.mu.Lock()
		n.pending = append(n.pending, d)
		n.mu.Unlock()
	}
}

func (n *Notifier) deliver(ctx context.Context, d delivery) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint.URL, bytes.NewReader(d.payload))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", d.eventType)
	if d.endpoint.Secret != "" {
		req.Header.Set("X-Signature", signPayload(d.endpoint.Secret, d.payload))
	}
	start := time.Now()
	resp, err := n.http.Do(req)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.NotifyDeliveries.WithLabelValues(d.eventType, "error").Inc()
		return false
	}
	defer resp.Body.Close()
	status := "ok"
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		status = "retry"
	}
	metrics.NotifyDeliveries.WithLabelValues(d.eventType, status).Inc()
	metrics.NotifyLatency.WithLabelValues(d.eventType, status).Observe(latency)
	return status == "ok"
}

func nextBackoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > 10 {
		attempts = 10
	}
	base := time.Second * time.Duration(1<<attempts)
	if base > time.Hour {
		base = time.Hour
	}
	return base
}
