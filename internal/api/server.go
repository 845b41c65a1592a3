// Package api provides the HTTP API for observing a running simulation.
// Every endpoint is a read-only GET.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/vcity/internal/engine"
	"github.com/talgya/vcity/internal/persistence"
	"github.com/talgya/vcity/internal/world"
)

// Server serves the run state over HTTP.
type Server struct {
	Sim   *engine.Simulation
	Eng   *engine.Engine
	DB    *persistence.DB // optional; history is served from memory without it
	RunID string          // empty serves the database's latest run
	Port  int
}

// runID returns the recorded run to serve, or "" when nothing is recorded.
func (s *Server) runID() string {
	if s.DB == nil {
		return ""
	}
	if s.RunID != "" {
		return s.RunID
	}
	id, err := s.DB.GetMeta("last_run")
	if err != nil {
		return ""
	}
	return id
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/stats/history", s.handleStatsHistory)
	mux.HandleFunc("/api/v1/regions", s.handleRegions)
	mux.HandleFunc("/api/v1/route", s.handleRoute)
	return corsMiddleware(mux)
}

// Start serves the API until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", srv.Addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Sim.Status()
	status := map[string]any{
		"name":       "vcity",
		"time":       st.Time,
		"day":        st.Day,
		"tick":       st.Tick,
		"population": st.Population,
		"infected":   st.Infected,
		"in_transit": st.InTransit,
		"regions":    s.Sim.City.NumRegions(),
	}
	if s.Eng != nil {
		status["speed"] = s.Eng.Speed
	}
	if run := s.runID(); run != "" {
		status["run"] = run
	}
	writeJSON(w, status)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events, err := s.recentEvents(limit)
	if err != nil {
		slog.Error("events query failed", "error", err)
		http.Error(w, "events unavailable", http.StatusInternalServerError)
		return
	}

	// Optional region filter: only events mentioning this region.
	if region := r.URL.Query().Get("region"); region != "" {
		var filtered []engine.Event
		for _, e := range events {
			if strings.HasSuffix(e.Description, " in "+region) {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	if events == nil {
		events = []engine.Event{}
	}
	writeJSON(w, events)
}

// recentEvents returns up to limit of the latest events, oldest first. When
// a run is recorded, finished days come from the database and today's
// events from memory.
func (s *Server) recentEvents(limit int) ([]engine.Event, error) {
	today := s.Sim.RecentEvents(limit)
	run := s.runID()
	if run == "" || len(today) >= limit {
		return today, nil
	}

	stored, err := s.DB.RecentEvents(run, limit-len(today))
	if err != nil {
		return nil, err
	}
	slices.Reverse(stored)
	return append(stored, today...), nil
}

func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	run := s.runID()
	if run == "" {
		writeJSON(w, s.Sim.DayHistory())
		return
	}

	rows, err := s.DB.DayStats(run)
	if err != nil {
		slog.Error("stats history query failed", "error", err)
		http.Error(w, "stats history unavailable", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []engine.DayStats{}
	}
	writeJSON(w, rows)
}

type regionSummary struct {
	ID       world.RegionID `json:"id"`
	Name     string         `json:"name"`
	Kind     string         `json:"kind"`
	Address  string         `json:"address"`
	Normal   int            `json:"normal"`
	Infected int            `json:"infected"`
}

// handleRegions lists every leaf region with its occupancy. An optional
// kind filter takes a Kind name such as "business".
func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	c := s.Sim.City
	kind := r.URL.Query().Get("kind")

	out := []regionSummary{}
	for _, id := range c.Leaves() {
		reg := c.Region(id)
		if kind != "" && reg.Kind.String() != kind {
			continue
		}
		normal, infected := c.Occupants(id)
		out = append(out, regionSummary{
			ID:       id,
			Name:     reg.Name,
			Kind:     reg.Kind.String(),
			Address:  c.Address(id).Format(c),
			Normal:   len(normal),
			Infected: len(infected),
		})
	}
	writeJSON(w, out)
}

// handleRoute answers GET /api/v1/route?from=ID&to=ID with the hop
// distance and the next port on a shortest route.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	c := s.Sim.City
	from, err1 := strconv.ParseInt(r.URL.Query().Get("from"), 10, 64)
	to, err2 := strconv.ParseInt(r.URL.Query().Get("to"), 10, 64)
	if err1 != nil || err2 != nil {
		http.Error(w, "from and to must be region ids", http.StatusBadRequest)
		return
	}
	origin, target := world.RegionID(from), world.RegionID(to)
	if c.Region(origin) == nil || c.Region(target) == nil {
		http.Error(w, "region not found", http.StatusNotFound)
		return
	}

	port, err := c.FindPort(origin, target, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	p := c.Port(port)
	result := map[string]any{
		"from": c.Address(origin).Format(c),
		"to":   c.Address(target).Format(c),
		"next": map[string]any{
			"port":  p.ID,
			"owner": c.Region(p.Owner).Name,
			"level": p.Level,
			"x":     p.Pos.X(),
			"y":     p.Pos.Y(),
		},
	}
	if d, ok := c.Distance(origin, target); ok {
		result["distance"] = d
	}
	writeJSON(w, result)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
