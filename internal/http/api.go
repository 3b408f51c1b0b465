package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"time"

	"tailscale-dashboard/internal/collector"
	"tailscale-dashboard/internal/info"
	"tailscale-dashboard/internal/model"
)

type dashboardSource interface {
	Snapshot(ctx context.Context, req collector.Request) model.DashboardSnapshot
	Deriver(ctx context.Context, languages ...string) (*info.Info, error)
	Ready() bool
	Now() time.Time
}

type historyReader interface {
	List(ctx context.Context, limit int) ([]model.HistoryEntry, error)
}

// Options configures the optional parts of the API. A nil History disables
// /api/v1/warnings/history; an empty JWTSecret disables bearer auth.
type Options struct {
	PollInterval time.Duration
	WebRoot      string
	JWTSecret    []byte
	History      historyReader
	Logger       *slog.Logger
}

// API hosts the read-only dashboard endpoints and static UI.
type API struct {
	source       dashboardSource
	history      historyReader
	pollInterval time.Duration
	jwtSecret    []byte
	log          *slog.Logger
	handler      http.Handler
}

func New(source dashboardSource, opts Options) *API {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.WebRoot == "" {
		opts.WebRoot = "web"
	}

	api := &API{
		source:       source,
		history:      opts.History,
		pollInterval: opts.PollInterval,
		jwtSecret:    opts.JWTSecret,
		log:          opts.Logger,
	}

	v1 := http.NewServeMux()
	v1.HandleFunc("/api/v1/dashboard", api.handleDashboard)
	v1.HandleFunc("/api/v1/status", api.view(func(i *info.Info, _ *http.Request) any { return i.StatusInfo() }))
	v1.HandleFunc("/api/v1/connection", api.view(func(i *info.Info, _ *http.Request) any { return i.ConnectionInfo() }))
	v1.HandleFunc("/api/v1/summary", api.view(func(i *info.Info, _ *http.Request) any { return i.DashboardInfo() }))
	v1.HandleFunc("/api/v1/peers", api.view(func(i *info.Info, _ *http.Request) any { return i.PeerStatus() }))
	v1.HandleFunc("/api/v1/warnings", api.view(func(i *info.Info, _ *http.Request) any { return i.Warnings(api.source.Now()) }))
	v1.HandleFunc("/api/v1/exit-nodes", api.view(func(i *info.Info, _ *http.Request) any {
		return exitNodesResponse{ExitNodes: i.ExitNodes(), Current: i.CurrentExitNode()}
	}))
	v1.HandleFunc("/api/v1/lock", api.view(func(i *info.Info, _ *http.Request) any { return i.LockDetails() }))
	v1.HandleFunc("/api/v1/funnel", api.view(func(i *info.Info, _ *http.Request) any { return i.FunnelInfo() }))
	v1.HandleFunc("/api/v1/routes", api.view(func(i *info.Info, _ *http.Request) any { return i.Routes() }))
	v1.HandleFunc("/api/v1/dns-name", api.handleDNSName)
	v1.HandleFunc("/api/v1/warnings/history", api.handleHistory)
	v1.HandleFunc("/api/v1/ws", api.handleWS)

	var v1Handler http.Handler = v1
	if len(api.jwtSecret) > 0 {
		v1Handler = withAuth(api.jwtSecret, v1)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", v1Handler)
	mux.HandleFunc("/healthz", api.handleHealthz)
	mux.HandleFunc("/readyz", api.handleReadyz)
	mux.Handle("/", http.FileServer(http.Dir(opts.WebRoot)))

	api.handler = WithCORS(mux)
	return api
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	snapshot := a.source.Snapshot(r.Context(), requestFor(r))

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, dashboardResponse{
		DashboardSnapshot: snapshot,
		PollIntervalMS:    a.pollInterval.Milliseconds(),
	})
}

// view serves one projection of a freshly fetched deriver. Unlike the dashboard
// endpoint there is no offline payload, so an unreachable tailscaled is a 503.
func (a *API) view(project func(*info.Info, *http.Request) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}

		deriver, ok := a.deriver(w, r)
		if !ok {
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, project(deriver, r))
	}
}

func (a *API) handleDNSName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	deriver, ok := a.deriver(w, r)
	if !ok {
		return
	}

	name, err := deriver.DNSName()
	if errors.Is(err, info.ErrDNSNameUnset) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"dns_name": name})
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if a.history == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "warning history disabled"})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	entries, err := a.history.List(r.Context(), limit)
	if err != nil {
		a.log.Error("list warning history", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, entries)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if !a.source.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]bool{"ready": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func (a *API) deriver(w http.ResponseWriter, r *http.Request) (*info.Info, bool) {
	deriver, err := a.source.Deriver(r.Context(), languages(r)...)
	if err != nil {
		a.log.Warn("tailscaled unreachable", slog.String("path", r.URL.Path), slog.Any("error", err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "tailscaled unreachable"})
		return nil, false
	}
	return deriver, true
}

func requestFor(r *http.Request) collector.Request {
	return collector.Request{
		Languages:  languages(r),
		ServerAddr: serverAddr(r),
	}
}

// languages returns ?lang= ahead of the Accept-Language header.
func languages(r *http.Request) []string {
	var out []string
	if lang := r.URL.Query().Get("lang"); lang != "" {
		out = append(out, lang)
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		out = append(out, accept)
	}
	return out
}

// serverAddr is the local IP the request arrived on, without port or brackets.
func serverAddr(r *http.Request) string {
	addr, ok := r.Context().Value(http.LocalAddrContextKey).(net.Addr)
	if !ok || addr == nil {
		return ""
	}
	if ap, err := netip.ParseAddrPort(addr.String()); err == nil {
		return ap.Addr().Unmap().String()
	}
	return addr.String()
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type dashboardResponse struct {
	model.DashboardSnapshot
	PollIntervalMS int64 `json:"poll_interval_ms"`
}

type exitNodesResponse struct {
	ExitNodes []model.ExitNode `json:"exit_nodes"`
	Current   string           `json:"current"`
}
