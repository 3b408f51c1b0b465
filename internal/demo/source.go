// Package demo serves canned LocalAPI documents so the dashboard can run without
// tailscaled.
package demo

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"tailscale-dashboard/internal/tailscale"
)

//go:embed fixtures/*.json
var fixtures embed.FS

const (
	kib = 1024
	mib = 1024 * kib
)

// Source implements info.Source from embedded fixtures. Traffic counters and the
// key expiry move with wall-clock time so the UI has something to show.
type Source struct {
	startAt time.Time
	now     func() time.Time
}

func NewSource() *Source {
	return &Source{
		startAt: time.Now().UTC(),
		now:     time.Now,
	}
}

func (s *Source) GetStatus(ctx context.Context) (*tailscale.Status, error) {
	var out tailscale.Status
	if err := load("status.json", &out); err != nil {
		return nil, err
	}

	now := s.now()
	elapsed := int64(now.Sub(s.startAt).Seconds()) + 1

	// Twelve days out keeps the key-expiry warning at "warn".
	expiry := now.Add(12*24*time.Hour + time.Hour).UTC().Truncate(time.Second)
	out.Self.KeyExpiry = &expiry

	for pair := out.Peer.Oldest(); pair != nil; pair = pair.Next() {
		peer := pair.Value
		if !peer.Active {
			continue
		}
		peer.TxBytes = elapsed * 180 * kib
		peer.RxBytes = elapsed * 2 * mib
		out.Peer.Set(pair.Key, peer)
	}

	return &out, nil
}

func (s *Source) GetPrefs(ctx context.Context) (*tailscale.Prefs, error) {
	var out tailscale.Prefs
	if err := load("prefs.json", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Source) GetLockStatus(ctx context.Context) (*tailscale.LockStatus, error) {
	var out tailscale.LockStatus
	if err := load("tka.json", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Source) GetServeConfig(ctx context.Context) (*tailscale.ServeConfig, error) {
	var out tailscale.ServeConfig
	if err := load("serve.json", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func load(name string, out any) error {
	raw, err := fixtures.ReadFile("fixtures/" + name)
	if err != nil {
		return fmt.Errorf("read demo fixture %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode demo fixture %s: %w", name, err)
	}
	return nil
}
