// Package server exposes the tribunal over HTTP and a websocket command channel.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nerdscourt/canon-core/internal/agent"
	"github.com/nerdscourt/canon-core/internal/archive"
	"github.com/nerdscourt/canon-core/internal/backend"
	"github.com/nerdscourt/canon-core/internal/media"
)

const shutdownTimeout = 10 * time.Second

// Deps are the collaborators the handlers call.
type Deps struct {
	Archive *archive.Archive
	Agents  *agent.Registry
	Backend *backend.Client
	Media   *media.Bridge
	Logger  *zap.Logger

	// Registry receives the server metrics. Nil uses a private registry.
	Registry *prometheus.Registry
}

// Server is the HTTP service.
type Server struct {
	apiKey   string
	mediaDir string
	deps     Deps
	logger   *zap.Logger
	metrics  *metrics
	engine   *gin.Engine

	pingPeriod time.Duration
}

// New wires routes. apiKey guards every route except /health and /metrics.
func New(apiKey, mediaDir string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	if deps.Backend == nil {
		deps.Backend = backend.New("", "", 0, deps.Logger)
	}

	s := &Server{
		apiKey:   apiKey,
		mediaDir: mediaDir,
		deps:     deps,
		logger:   deps.Logger.Named("server"),
		metrics:  newMetrics(deps.Registry),

		pingPeriod: pingPeriod,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Conversation-Id"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(zapLogger(s.logger), s.metrics.middleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	api := r.Group("/", bearerAuth(apiKey))
	api.POST("/sendMessage", s.sendMessage)
	api.POST("/getResponse", s.getResponse)
	api.POST("/generateTrial", s.generateTrial)
	api.POST("/generatePersona", s.generatePersona)
	api.POST("/queryNerdBible", s.queryNerdBible)
	api.POST("/generateAudio", s.generateAudio)
	api.POST("/generateImage", s.generateImage)
	api.POST("/generateVideo", s.generateVideo)
	api.Static("/media", mediaDir)
	api.GET("/ws", s.serveWS)

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the server on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
