package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/victornm/quizgrade/internal/api"
	"github.com/victornm/quizgrade/internal/attempt"
	"github.com/victornm/quizgrade/internal/event"
	"github.com/victornm/quizgrade/internal/leaderboard"
	"github.com/victornm/quizgrade/internal/quiz"
	"github.com/victornm/quizgrade/internal/storage"
	"github.com/victornm/quizgrade/internal/telemetry"
)

type Config struct {
	Log telemetry.LogConfig

	HTTP struct {
		Port int32
	}

	GRPC struct {
		Port int32
	}

	Storage storage.Config

	Redis struct {
		Leaderboard struct {
			Addrs  []string
			Pass   string
			Prefix string
			// PublishInterval throttles leaderboard.updated per quiz.
			PublishInterval time.Duration
		}

		Pubsub struct {
			Addrs  []string
			Pass   string
			Prefix string
		}
	}

	Grading struct {
		DefaultPassingScore int
	}

	Event struct {
		PoolSize int
		Timeout  time.Duration
	}
}

// DefaultConfig is a single-node setup backed by a local SQLite file and Redis.
func DefaultConfig() Config {
	var c Config
	c.Log.Level = "info"
	c.Log.Format = "text"
	c.HTTP.Port = 8080
	c.GRPC.Port = 8081
	c.Storage.Driver = storage.DriverSQLite
	c.Redis.Leaderboard.Addrs = []string{"localhost:6379"}
	c.Redis.Leaderboard.Prefix = "quizgrade"
	c.Redis.Leaderboard.PublishInterval = 200 * time.Millisecond
	c.Redis.Pubsub.Addrs = []string{"localhost:6379"}
	c.Redis.Pubsub.Prefix = "quizgrade"
	c.Grading.DefaultPassingScore = 70
	c.Event.PoolSize = 1000
	c.Event.Timeout = 30 * time.Second
	return c
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis struct {
			leaderboard redis.UniversalClient
			pubsub      redis.UniversalClient
		}

		store storage.Store
	}

	service struct {
		quiz        *quiz.Service
		attempt     *attempt.Service
		leaderboard *leaderboard.Service
	}

	http   *http.Server
	grpc   *grpc.Server
	health *health.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	s.eb = event.NewBus(
		event.WithPoolSize(c.Event.PoolSize),
		event.WithTimeout(c.Event.Timeout),
	)

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	s.initService()
	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := s.initStorage(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	return nil
}

func (s *Server) initRedis() error {
	connect := func(addrs []string, pass string) (redis.UniversalClient, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		r := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    addrs,
			Password: pass,
		})

		if err := telemetry.MonitorRedis(r); err != nil {
			return nil, err
		}

		if err := r.Ping(ctx).Err(); err != nil {
			return nil, err
		}

		return r, nil
	}

	var err error
	s.infra.redis.leaderboard, err = connect(s.c.Redis.Leaderboard.Addrs, s.c.Redis.Leaderboard.Pass)
	if err != nil {
		return fmt.Errorf("leaderboard: %w", err)
	}

	s.infra.redis.pubsub, err = connect(s.c.Redis.Pubsub.Addrs, s.c.Redis.Pubsub.Pass)
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}

	return nil
}

func (s *Server) initStorage() (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.infra.store, err = storage.Open(ctx, s.c.Storage)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.c.Storage.Driver, err)
	}

	slog.InfoContext(ctx, "server: storage opened", "driver", s.c.Storage.Driver)
	return nil
}

func (s *Server) initService() {
	s.service.quiz = quiz.NewService(quiz.Config{
		Repository: s.infra.store,
	})

	s.service.attempt = attempt.NewService(attempt.Config{
		EventBus:            s.eb,
		Quizzes:             s.infra.store,
		Repository:          s.infra.store,
		DefaultPassingScore: s.c.Grading.DefaultPassingScore,
	})

	s.service.leaderboard = leaderboard.NewService(leaderboard.Config{
		EventBus:        s.eb,
		Redis:           s.infra.redis.leaderboard,
		Prefix:          s.c.Redis.Leaderboard.Prefix,
		PublishInterval: s.c.Redis.Leaderboard.PublishInterval,
	})
}

func (s *Server) initAPI() {
	e := newEngine(slog.Default(), s.healthz)

	api.New(api.Config{
		Router:       e.Group("/api/v1"),
		EventBus:     s.eb,
		Quiz:         s.service.quiz,
		Attempt:      s.service.attempt,
		Leaderboard:  s.service.leaderboard,
		Redis:        s.infra.redis.pubsub,
		PubsubPrefix: s.c.Redis.Pubsub.Prefix,
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}

	s.grpc = grpc.NewServer(telemetry.GRPCServerInterceptor(slog.Default()))
	s.health = health.NewServer()
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)
}

// newEngine builds the root router. Middlewares only wrap routes registered
// after them, so they go first.
func newEngine(l *slog.Logger, healthz gin.HandlerFunc) *gin.Engine {
	e := gin.New()
	e.Use(gin.Recovery(), telemetry.GinLogger(l))

	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	e.GET("/healthz", healthz)
	pprof.Register(e, "/debug/pprof")
	return e
}

func (s *Server) healthz(c *gin.Context) {
	ctx := c.Request.Context()

	for name, r := range map[string]redis.UniversalClient{
		"leaderboard": s.infra.redis.leaderboard,
		"pubsub":      s.infra.redis.pubsub,
	} {
		if err := r.Ping(ctx).Err(); err != nil {
			slog.ErrorContext(ctx, "server: health check failed", "redis", name, "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Start() {
	ctx := context.TODO()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.c.GRPC.Port))
	if err != nil {
		slog.ErrorContext(ctx, "grpc server: listen failed", "error", err)
		panic(err)
	}

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: gRPC listening on port %d", s.c.GRPC.Port))
		return s.grpc.Serve(lis)
	})

	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	err = eg.Wait()
	if err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.health.Shutdown()
	s.grpc.GracefulStop()
	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()
	s.infra.store.Close()

	for _, r := range []redis.UniversalClient{s.infra.redis.leaderboard, s.infra.redis.pubsub} {
		if err := r.Close(); err != nil {
			slog.ErrorContext(ctx, "server: close redis failed", "error", err)
		}
	}

	slog.InfoContext(ctx, "server: shutdown completed")
}
