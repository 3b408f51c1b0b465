package tailscale

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	addr := ts.Listener.Addr().String()
	return NewClientWithDialer(func(ctx context.Context, network, _ string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", addr)
	}, 2*time.Second)
}

func TestGetJSONRejectsUnknownPath(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	var out map[string]any
	err := client.getJSON(context.Background(), "/localapi/v0/logout", &out)
	if err == nil {
		t.Fatalf("expected error for blocked path")
	}
	if !strings.Contains(err.Error(), "not allowed") {
		t.Fatalf("expected allowlist error, got %v", err)
	}
}

func TestGetStatusPreservesPeerOrderAndAbsence(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/localapi/v0/status" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		_, _ = w.Write([]byte(`{
			"Version":"1.84.0",
			"BackendState":"Running",
			"TailscaleIPs":["100.64.0.1","fd7a:115c:a1e0::1"],
			"Self":{"ID":"self","HostName":"tower","DNSName":"tower.example.ts.net.","Online":true,
				"CapMap":{"https://tailscale.com/cap/funnel-ports?ports=443,8443":null}},
			"Peer":{
				"nodekey:zz":{"ID":"n3","DNSName":"zulu.example.ts.net.","UserID":1},
				"nodekey:aa":{"ID":"n1","DNSName":"alpha.example.ts.net.","UserID":1},
				"nodekey:mm":{"ID":"n2","DNSName":"mike.example.ts.net.","UserID":2}
			},
			"User":{"1":{"ID":1,"LoginName":"alice@example.com"},"2":{"ID":2,"LoginName":"bob@example.com"}}
		}`))
	})

	status, err := client.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if status.Version == nil || *status.Version != "1.84.0" {
		t.Fatalf("unexpected version: %v", status.Version)
	}
	if status.MagicDNSSuffix != nil {
		t.Fatalf("expected absent MagicDNSSuffix to stay nil")
	}
	if status.Health != nil {
		t.Fatalf("expected absent Health to stay nil")
	}
	if status.Self.KeyExpiry != nil {
		t.Fatalf("expected absent KeyExpiry to stay nil")
	}

	var ids []string
	for pair := status.Peer.Oldest(); pair != nil; pair = pair.Next() {
		ids = append(ids, pair.Value.ID)
	}
	if strings.Join(ids, ",") != "n3,n1,n2" {
		t.Fatalf("expected source peer order, got %v", ids)
	}
	if status.User["2"].LoginName != "bob@example.com" {
		t.Fatalf("unexpected user table: %+v", status.User)
	}
	if status.Self.CapMap == nil || status.Self.CapMap.Len() != 1 {
		t.Fatalf("expected capmap to be decoded")
	}
}

func TestGetLockStatusAcceptsNull(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/localapi/v0/tka/status" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`null`))
	})

	lock, err := client.GetLockStatus(context.Background())
	if err != nil {
		t.Fatalf("GetLockStatus failed: %v", err)
	}
	if lock != nil {
		t.Fatalf("expected nil lock status, got %+v", lock)
	}
}

func TestGetServeConfigDecodesFunnelMap(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/localapi/v0/serve-config" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"AllowFunnel":{"tower.example.ts.net:443":true}}`))
	})

	serve, err := client.GetServeConfig(context.Background())
	if err != nil {
		t.Fatalf("GetServeConfig failed: %v", err)
	}
	if serve.AllowFunnel == nil || serve.AllowFunnel.Oldest().Key != "tower.example.ts.net:443" {
		t.Fatalf("unexpected funnel map: %+v", serve)
	}
}

func TestGetPrefsReportsStatusErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "access denied", http.StatusForbidden)
	})

	_, err := client.GetPrefs(context.Background())
	if err == nil {
		t.Fatalf("expected error for 403 response")
	}
	if !strings.Contains(err.Error(), "status 403") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestGetPrefsWrapsTransportFailure(t *testing.T) {
	client := NewClientWithDialer(func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("socket missing")
	}, time.Second)

	_, err := client.GetPrefs(context.Background())
	if !errors.Is(err, ErrFailedRequest) {
		t.Fatalf("expected ErrFailedRequest, got %v", err)
	}
}
