package collector

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"tailscale-dashboard/internal/i18n"
	"tailscale-dashboard/internal/info"
	"tailscale-dashboard/internal/model"
	"tailscale-dashboard/internal/unraid"
)

const CodeSourceUnreachable = "SOURCE_UNREACHABLE"

// Request carries the per-request inputs that are not part of tailscaled state.
type Request struct {
	Languages  []string
	ServerAddr string
}

// Collector builds a fresh deriver for every request. Nothing is cached between
// calls apart from whether the last fetch succeeded.
type Collector struct {
	source    info.Source
	catalog   *i18n.Catalog
	unraidDir string
	log       *slog.Logger
	now       func() time.Time

	ready atomic.Bool
}

func New(source info.Source, catalog *i18n.Catalog, unraidDir string, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		source:    source,
		catalog:   catalog,
		unraidDir: unraidDir,
		log:       logger,
		now:       time.Now,
	}
}

// Ready reports whether the most recent fetch reached tailscaled.
func (c *Collector) Ready() bool {
	return c.ready.Load()
}

// Now is the clock used for key-expiry arithmetic.
func (c *Collector) Now() time.Time {
	return c.now()
}

func (c *Collector) Translator(languages ...string) info.TranslateFunc {
	return c.catalog.Translator(languages...)
}

// Deriver fetches the current LocalAPI snapshots and wraps them in an info.Info.
func (c *Collector) Deriver(ctx context.Context, languages ...string) (*info.Info, error) {
	snap, err := info.Fetch(ctx, c.source)
	if err != nil {
		c.ready.Store(false)
		return nil, err
	}
	c.ready.Store(true)

	settings, err := unraid.Load(c.unraidDir)
	if err != nil {
		c.log.Warn("unraid settings unreadable", slog.String("dir", c.unraidDir), slog.Any("error", err))
		settings = unraid.Settings{}
	}

	return info.New(snap, settings, c.Translator(languages...)), nil
}

// Snapshot always returns a payload; an unreachable tailscaled yields an offline
// snapshot carrying a single error warning.
func (c *Collector) Snapshot(ctx context.Context, req Request) model.DashboardSnapshot {
	now := c.now()

	deriver, err := c.Deriver(ctx, req.Languages...)
	if err != nil {
		c.log.Error("tailscaled unreachable", slog.Any("error", err))
		return unreachableSnapshot(now, err, c.Translator(req.Languages...))
	}

	return Build(deriver, now, req.ServerAddr)
}

// Build assembles every view model of one deriver into a dashboard payload.
func Build(i *info.Info, now time.Time, serverAddr string) model.DashboardSnapshot {
	status := i.StatusInfo()
	connection := i.ConnectionInfo()
	summary := i.DashboardInfo()

	return model.DashboardSnapshot{
		GeneratedAt:    now.UTC(),
		SourceOnline:   true,
		SourceError:    nil,
		TailnetName:    i.TailnetName(),
		NeedsLogin:     i.NeedsLogin(),
		AuthURL:        i.AuthURL(),
		ConnectedViaTS: i.ConnectedViaTS(serverAddr),
		Status:         &status,
		Connection:     &connection,
		Summary:        &summary,
		Peers:          i.PeerStatus(),
		ExitNodes:      i.ExitNodes(),
		CurrentExit:    i.CurrentExitNode(),
		Routes:         i.Routes(),
		Lock:           i.LockDetails(),
		Funnel:         i.FunnelInfo(),
		Warnings:       i.Warnings(now),
	}
}

func unreachableSnapshot(now time.Time, err error, tr info.TranslateFunc) model.DashboardSnapshot {
	errText := err.Error()
	return model.DashboardSnapshot{
		GeneratedAt:  now.UTC(),
		SourceOnline: false,
		SourceError:  &errText,
		Peers:        []model.PeerStatus{},
		ExitNodes:    []model.ExitNode{},
		Routes:       []model.Route{},
		Lock:         model.LockDetails{Pending: map[string]string{}},
		Funnel:       model.FunnelInfo{AllowedPorts: []int{}},
		Warnings: []model.Warning{{
			Code:     CodeSourceUnreachable,
			Message:  tr("warnings.unreachable"),
			Priority: model.PriorityError,
		}},
	}
}
