package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"tailscale-dashboard/internal/auth"
	"tailscale-dashboard/internal/collector"
	"tailscale-dashboard/internal/info"
	"tailscale-dashboard/internal/model"
	"tailscale-dashboard/internal/tailscale"
	"tailscale-dashboard/internal/unraid"
)

type fakeSource struct {
	status   string
	err      error
	ready    bool
	snapshot model.DashboardSnapshot
	lastReq  *collector.Request
}

func (f *fakeSource) Snapshot(_ context.Context, req collector.Request) model.DashboardSnapshot {
	f.lastReq = &req
	return f.snapshot
}

func (f *fakeSource) Deriver(context.Context, ...string) (*info.Info, error) {
	if f.err != nil {
		return nil, f.err
	}
	var status tailscale.Status
	if f.status != "" {
		if err := json.Unmarshal([]byte(f.status), &status); err != nil {
			return nil, err
		}
	}
	return info.New(info.Snapshot{Status: &status}, unraid.Settings{}, nil), nil
}

func (f *fakeSource) Ready() bool { return f.ready }

func (f *fakeSource) Now() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

type fakeHistory struct {
	entries []model.HistoryEntry
	err     error
	limit   int
}

func (f *fakeHistory) List(_ context.Context, limit int) ([]model.HistoryEntry, error) {
	f.limit = limit
	return f.entries, f.err
}

const peersStatus = `{
	"Self":{"HostName":"tower","DNSName":"tower.example.ts.net."},
	"Peer":{
		"nodekey:b":{"ID":"n2","DNSName":"beta.example.ts.net.","Online":true,"ExitNodeOption":true},
		"nodekey:a":{"ID":"n1","DNSName":"alpha.example.ts.net.","Online":true,"Active":true,"ExitNode":true}
	}
}`

func get(t *testing.T, h http.Handler, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestDashboardEndpointReturnsSnapshot(t *testing.T) {
	src := &fakeSource{
		snapshot: model.DashboardSnapshot{
			GeneratedAt:  time.Date(2026, 2, 6, 10, 0, 0, 0, time.UTC),
			SourceOnline: true,
			TailnetName:  "example.com",
		},
		ready: true,
	}
	api := New(src, Options{PollInterval: 5 * time.Second})

	rr := get(t, api, "/api/v1/dashboard?lang=de", http.Header{"Accept-Language": {"es"}})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("expected no-store cache header")
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected CORS header")
	}

	var payload struct {
		model.DashboardSnapshot
		PollIntervalMS int64 `json:"poll_interval_ms"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if !payload.SourceOnline || payload.TailnetName != "example.com" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.PollIntervalMS != 5000 {
		t.Fatalf("unexpected poll interval ms: %d", payload.PollIntervalMS)
	}
	if src.lastReq == nil || strings.Join(src.lastReq.Languages, ",") != "de,es" {
		t.Fatalf("expected ?lang= ahead of Accept-Language, got %+v", src.lastReq)
	}
}

func TestDashboardEndpointOfflineIsStillOK(t *testing.T) {
	msg := "dial unix: no such file"
	api := New(&fakeSource{snapshot: model.DashboardSnapshot{SourceOnline: false, SourceError: &msg}}, Options{})

	rr := get(t, api, "/api/v1/dashboard", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for offline snapshot, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"source_online":false`) {
		t.Fatalf("expected offline payload, got %s", rr.Body.String())
	}
}

func TestDashboardEndpointMethodNotAllowed(t *testing.T) {
	api := New(&fakeSource{ready: true}, Options{})

	for _, path := range []string{"/api/v1/dashboard", "/api/v1/peers", "/api/v1/warnings/history", "/healthz"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		rr := httptest.NewRecorder()
		api.ServeHTTP(rr, req)

		if rr.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected 405, got %d", path, rr.Code)
		}
	}
}

func TestPreflightSkipsAuth(t *testing.T) {
	api := New(&fakeSource{}, Options{JWTSecret: []byte("s3cret")})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/peers", nil)
	rr := httptest.NewRecorder()
	api.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rr.Code)
	}
}

func TestViewEndpoints(t *testing.T) {
	api := New(&fakeSource{status: peersStatus, ready: true}, Options{})

	rr := get(t, api, "/api/v1/peers", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var peers []model.PeerStatus
	if err := json.Unmarshal(rr.Body.Bytes(), &peers); err != nil {
		t.Fatalf("decode peers: %v", err)
	}
	if len(peers) != 2 || peers[0].Name != "beta.example.ts.net" || peers[1].Name != "alpha.example.ts.net" {
		t.Fatalf("expected peers in source order, got %+v", peers)
	}

	rr = get(t, api, "/api/v1/exit-nodes", nil)
	var exits exitNodesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &exits); err != nil {
		t.Fatalf("decode exit nodes: %v", err)
	}
	if len(exits.ExitNodes) != 1 || exits.ExitNodes[0].ID != "n2" || exits.Current != "n1" {
		t.Fatalf("unexpected exit nodes: %+v", exits)
	}

	rr = get(t, api, "/api/v1/dns-name", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"tower.example.ts.net."`) {
		t.Fatalf("unexpected dns-name response: %d %s", rr.Code, rr.Body.String())
	}

	for _, path := range []string{"/api/v1/status", "/api/v1/connection", "/api/v1/summary", "/api/v1/warnings", "/api/v1/lock", "/api/v1/funnel", "/api/v1/routes"} {
		if rr := get(t, api, path, nil); rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rr.Code)
		}
	}
}

func TestViewEndpointsUnavailableWhenTailscaledIsDown(t *testing.T) {
	api := New(&fakeSource{err: errors.New("dial failed")}, Options{})

	rr := get(t, api, "/api/v1/status", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestDNSNameUnset(t *testing.T) {
	api := New(&fakeSource{status: `{"Self":{"HostName":"tower"}}`}, Options{})

	rr := get(t, api, "/api/v1/dns-name", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestWarningHistory(t *testing.T) {
	disabled := New(&fakeSource{}, Options{})
	if rr := get(t, disabled, "/api/v1/warnings/history", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 with history disabled, got %d", rr.Code)
	}

	hist := &fakeHistory{entries: []model.HistoryEntry{{ID: 1, Code: "LOCK_UNSIGNED", Occurrences: 3}}}
	api := New(&fakeSource{}, Options{History: hist})

	rr := get(t, api, "/api/v1/warnings/history?limit=5", nil)
	if rr.Code != http.StatusOK || hist.limit != 5 {
		t.Fatalf("unexpected response: %d limit=%d", rr.Code, hist.limit)
	}
	var entries []model.HistoryEntry
	if err := json.Unmarshal(rr.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(entries) != 1 || entries[0].Occurrences != 3 {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	if rr := get(t, api, "/api/v1/warnings/history?limit=x", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rr.Code)
	}

	hist.err = errors.New("database is locked")
	if rr := get(t, api, "/api/v1/warnings/history", nil); rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on store failure, got %d", rr.Code)
	}
}

func TestBearerAuth(t *testing.T) {
	secret := []byte("s3cret")
	api := New(&fakeSource{ready: true}, Options{JWTSecret: secret})

	if rr := get(t, api, "/api/v1/dashboard", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}
	if rr := get(t, api, "/api/v1/dashboard", http.Header{"Authorization": {"Bearer nope"}}); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rr.Code)
	}

	token, err := auth.Sign(secret, "unraid", time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if rr := get(t, api, "/api/v1/dashboard", http.Header{"Authorization": {"Bearer " + token}}); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", rr.Code)
	}
	if rr := get(t, api, "/api/v1/dashboard?token="+token, nil); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with query token, got %d", rr.Code)
	}

	// Probes stay open for the container runtime.
	if rr := get(t, api, "/healthz", nil); rr.Code != http.StatusOK {
		t.Fatalf("expected healthz without auth, got %d", rr.Code)
	}
}

func TestReadyz(t *testing.T) {
	readyAPI := New(&fakeSource{ready: true}, Options{})
	notReadyAPI := New(&fakeSource{ready: false}, Options{})

	if rr := get(t, readyAPI, "/readyz", nil); rr.Code != http.StatusOK {
		t.Fatalf("expected ready status 200, got %d", rr.Code)
	}
	if rr := get(t, notReadyAPI, "/readyz", nil); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected not ready status 503, got %d", rr.Code)
	}
}

func TestServerAddrStripsPort(t *testing.T) {
	cases := map[string]string{
		"100.64.0.1:8080":         "100.64.0.1",
		"[fd7a:115c:a1e0::1]:443": "fd7a:115c:a1e0::1",
		"[::ffff:100.64.0.1]:80":  "100.64.0.1",
	}
	for in, want := range cases {
		addr, err := net.ResolveTCPAddr("tcp", in)
		if err != nil {
			t.Fatalf("resolve %s: %v", in, err)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), http.LocalAddrContextKey, net.Addr(addr)))
		if got := serverAddr(req); got != want {
			t.Fatalf("serverAddr(%s) = %q, want %q", in, got, want)
		}
	}

	if got := serverAddr(httptest.NewRequest(http.MethodGet, "/", nil)); got != "" {
		t.Fatalf("expected empty address without a local addr, got %q", got)
	}
}

func TestWebsocketPushesSnapshots(t *testing.T) {
	src := &fakeSource{snapshot: model.DashboardSnapshot{SourceOnline: true, TailnetName: "example.com"}}
	srv := httptest.NewServer(New(src, Options{PollInterval: 20 * time.Millisecond}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	for n := 0; n < 2; n++ {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var payload dashboardResponse
		if err := conn.ReadJSON(&payload); err != nil {
			t.Fatalf("read snapshot %d: %v", n, err)
		}
		if payload.TailnetName != "example.com" || payload.PollIntervalMS != 20 {
			t.Fatalf("unexpected payload: %+v", payload)
		}
	}
}
