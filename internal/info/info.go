// Package info derives display-ready view models from the tailscaled LocalAPI
// snapshots. Every accessor degrades to a placeholder when its source field is
// absent; DNSName is the only one that reports an error.
package info

import (
	"context"
	"errors"
	"fmt"

	"tailscale-dashboard/internal/tailscale"
	"tailscale-dashboard/internal/unraid"
)

// ErrDNSNameUnset means tailscaled has not published this node's identity yet.
var ErrDNSNameUnset = errors.New("DNSName not set in Tailscale status")

// TranslateFunc resolves a dotted message key to localized text.
type TranslateFunc func(key string) string

// Source is the read-only view of tailscaled that Fetch needs.
type Source interface {
	GetStatus(ctx context.Context) (*tailscale.Status, error)
	GetPrefs(ctx context.Context) (*tailscale.Prefs, error)
	GetLockStatus(ctx context.Context) (*tailscale.LockStatus, error)
	GetServeConfig(ctx context.Context) (*tailscale.ServeConfig, error)
}

// Snapshot holds the four LocalAPI documents a single Info derives from.
type Snapshot struct {
	Status *tailscale.Status
	Prefs  *tailscale.Prefs
	Lock   *tailscale.LockStatus
	Serve  *tailscale.ServeConfig
}

// Fetch queries every LocalAPI document once.
func Fetch(ctx context.Context, src Source) (Snapshot, error) {
	status, err := src.GetStatus(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get status: %w", err)
	}
	prefs, err := src.GetPrefs(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get prefs: %w", err)
	}
	lock, err := src.GetLockStatus(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get lock status: %w", err)
	}
	serve, err := src.GetServeConfig(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get serve config: %w", err)
	}

	return Snapshot{Status: status, Prefs: prefs, Lock: lock, Serve: serve}, nil
}

// Info is a request-scoped deriver. It never mutates the snapshot it holds.
type Info struct {
	status   *tailscale.Status
	prefs    *tailscale.Prefs
	lock     *tailscale.LockStatus
	serve    *tailscale.ServeConfig
	settings unraid.Settings
	tr       TranslateFunc
}

func New(snap Snapshot, settings unraid.Settings, tr TranslateFunc) *Info {
	if snap.Status == nil {
		snap.Status = &tailscale.Status{}
	}
	if snap.Prefs == nil {
		snap.Prefs = &tailscale.Prefs{}
	}
	if snap.Serve == nil {
		snap.Serve = &tailscale.ServeConfig{}
	}
	if tr == nil {
		tr = func(key string) string { return key }
	}

	return &Info{
		status:   snap.Status,
		prefs:    snap.Prefs,
		lock:     snap.Lock,
		serve:    snap.Serve,
		settings: settings,
		tr:       tr,
	}
}

func (i *Info) self() tailscale.PeerStatus {
	if i.status.Self == nil {
		return tailscale.PeerStatus{}
	}
	return *i.status.Self
}

func (i *Info) yesNo(v bool) string {
	if v {
		return i.tr("yes")
	}
	return i.tr("no")
}

// triState renders yes/no when the flag is present and unknown otherwise.
func (i *Info) triState(v *bool) string {
	if v == nil {
		return i.tr("unknown")
	}
	return i.yesNo(*v)
}

func (i *Info) stringOr(v *string, fallbackKey string) string {
	if v == nil {
		return i.tr(fallbackKey)
	}
	return *v
}

func (i *Info) IsOnline() bool {
	return i.self().IsOnline()
}

func (i *Info) AuthURL() string {
	if i.status.AuthURL == nil {
		return ""
	}
	return *i.status.AuthURL
}

func (i *Info) NeedsLogin() bool {
	return i.status.BackendState != nil && *i.status.BackendState == "NeedsLogin"
}

func (i *Info) TailnetName() string {
	if i.status.CurrentTailnet == nil {
		return ""
	}
	return i.status.CurrentTailnet.Name
}

// DNSName returns this node's MagicDNS name; callers treat it as required identity.
func (i *Info) DNSName() (string, error) {
	self := i.self()
	if self.DNSName == nil {
		return "", ErrDNSNameUnset
	}
	return *self.DNSName, nil
}

// ConnectedViaTS reports whether serverAddr, the address the request arrived on,
// is one of this node's Tailscale IPs.
func (i *Info) ConnectedViaTS(serverAddr string) bool {
	for _, ip := range i.status.TailscaleIPs {
		if ip == serverAddr {
			return true
		}
	}
	return false
}
