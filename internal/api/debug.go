package api

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"wasteroutes/internal/buildinfo"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"PORT":             s.Cfg.Port,
			"HUB":              s.Cfg.Hub.Name,
			"RATE_RPS":         s.Cfg.RateRPS,
			"RATE_BURST":       s.Cfg.RateBurst,
			"NOTIFY_ENDPOINTS": len(s.Cfg.Notify.Endpoints),
			"HAS_DATABASE_URL": os.Getenv("DATABASE_URL") != "",
			"HAS_REDIS_URL":    os.Getenv("REDIS_URL") != "",
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(info)
}
