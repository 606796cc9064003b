// Package healthprobe implements the §6.6 health-probe HTTP surface: the
// only CLI/operator-facing endpoint the core pipeline exposes. It validates
// KV connectivity and runs a trivial SELECT against the columnar table
// store, so an orchestrator can tell a wedged process from a healthy one
// without reasoning about bus subjects.
package healthprobe

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	logger "github.com/rs/zerolog/log"

	"github.com/web3ekko/ekko-streams/pkg/kv"
)

// probeKey is the KV key touched on every health check. It carries no
// meaning beyond existing; SetIfAbsent is cheap and idempotent.
const probeKey = "healthprobe.ping"

// Server serves GET /healthz, checking KV and the columnar store.
type Server struct {
	r     *mux.Router
	store kv.Store
	db    *sql.DB

	checkTimeout time.Duration
}

// New returns a health-probe server backed by store and db.
func New(store kv.Store, db *sql.DB) *Server {
	s := &Server{
		r:            mux.NewRouter(),
		store:        store,
		db:           db,
		checkTimeout: 5 * time.Second,
	}
	s.r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	return s
}

// Serve starts listening on port (e.g. ":8080").
func (s *Server) Serve(port string) error {
	srv := &http.Server{
		Addr:         port,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  120 * time.Second,
		Handler:      s.r,
	}
	return srv.ListenAndServe()
}

type healthStatus struct {
	KV      string `json:"kv"`
	Table   string `json:"table"`
	Healthy bool   `json:"healthy"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.checkTimeout)
	defer cancel()

	status := healthStatus{KV: "ok", Table: "ok", Healthy: true}

	if _, err := s.store.SetIfAbsent(ctx, probeKey, []byte("1"), time.Minute); err != nil {
		logger.Error().Err(err).Msg("healthprobe: kv check failed")
		status.KV = err.Error()
		status.Healthy = false
	}

	if err := s.db.PingContext(ctx); err != nil {
		logger.Error().Err(err).Msg("healthprobe: table store ping failed")
		status.Table = err.Error()
		status.Healthy = false
	} else {
		var one int
		row := s.db.QueryRowContext(ctx, "SELECT 1")
		if err := row.Scan(&one); err != nil {
			logger.Error().Err(err).Msg("healthprobe: table store select failed")
			status.Table = err.Error()
			status.Healthy = false
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}
