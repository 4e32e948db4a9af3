package app

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	authapi "skygate/cmd/internal/auth/api"
	"skygate/cmd/internal/metrics"
)

// routes holds what the top-level mux needs. db is nil in in-memory mode.
type routes struct {
	log      *slog.Logger
	cfg      Config
	db       pinger
	metrics  *metrics.Metrics
	auth     *authapi.Handler
	hostname func() (string, error)
}

func registerHTTP(mux *http.ServeMux, rt routes) {
	if rt.hostname == nil {
		rt.hostname = os.Hostname
	}

	mux.HandleFunc("/live", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rt.log.Debug("http.live")
		writeJSON(w, http.StatusOK, map[string]string{"status": "live"})
	})

	mux.HandleFunc("/os", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		host, err := rt.hostname()
		if err != nil {
			rt.log.Warn("http.os.hostname.fail", "err", err)
		}
		writeJSON(w, http.StatusOK, map[string]string{"os": host, "env": rt.cfg.Env})
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if rt.cfg.ReadinessRequireDB && rt.db == nil {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}

		if rt.db != nil {
			if err := PingDB(r.Context(), rt.db, 2*time.Second); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				rt.log.Info("readyz.db.not_ready", "err", err)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	if rt.auth != nil {
		rt.auth.Register(mux)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
