package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS pushes a dashboard snapshot on connect and then every poll interval
// until the client goes away. Inbound messages are read and discarded so close
// frames are noticed.
func (a *API) handleWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	req := requestFor(r)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	// The server's ReadTimeout deadline survives the hijack.
	_ = conn.SetReadDeadline(time.Time{})

	log := a.log.With(slog.String("remote", r.RemoteAddr))
	if subject := subjectFromCtx(r); subject != "" {
		log = log.With(slog.String("subject", subject))
	}
	log.Debug("dashboard websocket opened")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	interval := a.pollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		payload := dashboardResponse{
			DashboardSnapshot: a.source.Snapshot(ctx, req),
			PollIntervalMS:    interval.Milliseconds(),
		}
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(payload); err != nil {
			log.Debug("dashboard websocket closed", slog.Any("error", err))
			return
		}

		select {
		case <-ctx.Done():
			log.Debug("dashboard websocket closed")
			return
		case <-ticker.C:
		}
	}
}
