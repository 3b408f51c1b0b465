// Package monitor periodically evaluates the warning set and records it.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"tailscale-dashboard/internal/info"
	"tailscale-dashboard/internal/model"
)

type deriverSource interface {
	Deriver(ctx context.Context, languages ...string) (*info.Info, error)
	Now() time.Time
}

type recorder interface {
	Record(ctx context.Context, warnings []model.Warning, at time.Time) error
}

type Monitor struct {
	source   deriverSource
	recorder recorder
	log      *slog.Logger
	timeout  time.Duration
	cron     *cron.Cron
}

func New(source deriverSource, rec recorder, timeout time.Duration, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		source:   source,
		recorder: rec,
		log:      logger,
		timeout:  timeout,
	}
}

// Start schedules Sweep and returns once the scheduler is running. The
// scheduler stops when ctx is done.
func (m *Monitor) Start(ctx context.Context, schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		sweepCtx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()
		if _, err := m.Sweep(sweepCtx); err != nil {
			m.log.Error("warning sweep failed", slog.Any("error", err))
		}
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", schedule, err)
	}
	m.cron = c
	c.Start()

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()

	return nil
}

// Sweep derives the current warnings, logs each one at a level matching its
// priority, and records them.
func (m *Monitor) Sweep(ctx context.Context) ([]model.Warning, error) {
	deriver, err := m.source.Deriver(ctx)
	if err != nil {
		return nil, err
	}

	now := m.source.Now()
	warnings := deriver.Warnings(now)
	for _, w := range warnings {
		m.log.Log(ctx, levelFor(w.Priority), "tailscale warning",
			slog.String("code", w.Code),
			slog.String("message", w.Message),
		)
	}

	if m.recorder != nil {
		if err := m.recorder.Record(ctx, warnings, now); err != nil {
			return warnings, fmt.Errorf("record warnings: %w", err)
		}
	}

	return warnings, nil
}

func levelFor(priority string) slog.Level {
	switch priority {
	case model.PriorityError:
		return slog.LevelError
	case model.PriorityWarn:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
