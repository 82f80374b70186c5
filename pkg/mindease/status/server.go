// Package status exposes an operator-facing HTTP endpoint reporting per-channel
// sampling rates and the latest headset readings. It has no bearing on the
// data path.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hesamdc/mindease/pkg/tgam"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
)

type Server struct {
	srv     *http.Server
	monitor *tgam.RateMonitor
	port    int
	logger  zerolog.Logger
	started time.Time
}

func NewServer(port int, monitor *tgam.RateMonitor, logger zerolog.Logger) *Server {
	return &Server{
		srv:     &http.Server{Addr: fmt.Sprintf(":%d", port)},
		monitor: monitor,
		port:    port,
		logger:  logger,
	}
}

func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}

func (s *Server) Run(ctx context.Context) error {
	s.started = time.Now()

	handler := httprouter.New()
	handler.GET("/status", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(struct {
			UptimeSeconds float64              `json:"uptime_seconds"`
			Channels      []tgam.ChannelStatus `json:"channels"`
		}{
			UptimeSeconds: time.Since(s.started).Seconds(),
			Channels:      s.monitor.Snapshot(),
		})
	})
	s.srv.Handler = handler

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Int("port", s.port).Msg("status server starting")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}
