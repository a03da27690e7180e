// Package admin runs a side-channel HTTP server separate from the core
// listener's own single-request file/upgrade path: health, prometheus
// scraping, and a connection-debug endpoint. Grounded on the teacher's gin
// usage for its own API surface; this is deliberately a full net/http
// router, unlike the core listener, which spec.md's Non-goals forbid from
// growing routing/keep-alive beyond static-file resolution.
package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wsforge-go/wsforge"
	"github.com/wsforge-go/wsforge/logger"
	"github.com/wsforge-go/wsforge/metrics"
)

// Server is the admin HTTP server. Build one with New, then Run it
// alongside the core Router's Listen call.
type Server struct {
	engine   *gin.Engine
	registry *wsforge.ConnectionRegistry
	addr     string
}

// New builds an admin server scraping connRegistry for its debug and
// metrics endpoints. promReg may be nil to use a fresh registry.
func New(addr string, connRegistry *wsforge.ConnectionRegistry, promReg *prometheus.Registry) *Server {
	if promReg == nil {
		promReg = prometheus.NewRegistry()
	}
	metrics.MustRegister(promReg)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{engine: engine, registry: connRegistry, addr: addr}

	engine.GET("/healthz", s.handleHealth)
	engine.GET("/debug/connections", s.handleConnections)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})))

	return s
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": s.registry.Count(),
	})
}

func (s *Server) handleConnections(c *gin.Context) {
	conns := s.registry.AllConnections()
	out := make([]gin.H, 0, len(conns))
	for _, conn := range conns {
		info := conn.Info()
		out = append(out, gin.H{
			"id":           info.ID,
			"remote_addr":  info.RemoteAddr,
			"connected_at": info.ConnectedAt,
			"protocol":     info.Protocol,
		})
	}
	c.JSON(http.StatusOK, gin.H{"connections": out})
}

// Run starts the HTTP server and a background sampler that mirrors the
// registry's live count onto the connections_active gauge, until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.engine}

	go s.sampleConnections(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Admin().Info().Str("addr", s.addr).Msg("admin server started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) sampleConnections(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.SetConnectionsActive(s.registry.Count())
		}
	}
}
