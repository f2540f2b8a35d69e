package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/ghostai/api/rest"
	"github.com/kasuganosora/ghostai/api/sse"
	"github.com/kasuganosora/ghostai/audit"
	"github.com/kasuganosora/ghostai/cache"
	"github.com/kasuganosora/ghostai/config"
	dbadapter "github.com/kasuganosora/ghostai/db"
	"github.com/kasuganosora/ghostai/game/ghost/strategy"
	"github.com/kasuganosora/ghostai/game/world"
	"github.com/kasuganosora/ghostai/hook"
	mw "github.com/kasuganosora/ghostai/middleware"
	"github.com/kasuganosora/ghostai/model"
	"github.com/kasuganosora/ghostai/resource"
	"github.com/kasuganosora/ghostai/scheduler"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// Warn loudly if admin endpoints will be disabled.
	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Journal ----
	journal := audit.New(db, logger)
	defer journal.Stop(context.Background())

	// ---- Cache / PubSub ----
	backend, err := cache.Open(cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	})
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	defer backend.Close()
	logger.Info("Cache initialized", zap.String("backend", backend.Kind))

	// ---- Boards ----
	boards := resource.NewLoader(cfg.Game.BoardsDir)
	if err := boards.Load(); err != nil {
		log.Fatalf("boards: %v", err)
	}
	logger.Info("Boards loaded", zap.Strings("boards", boards.Names()))

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	// ---- Hooks ----
	hooks := hook.NewCenter()
	registerHooks(hooks, logger)

	// ---- World ----
	phases, err := schedulePhases(cfg.Game.Schedule)
	if err != nil {
		log.Fatalf("game.schedule: %v", err)
	}
	wm := world.NewWorldManager(boards, sched, world.Options{
		TickInterval:  cfg.Game.TickInterval(),
		Phases:        phases,
		LegacyArrival: cfg.Game.LegacyArrival,
		Seed:          cfg.Game.Seed,
		MaxRooms:      cfg.Game.MaxRooms,
		JournalMoves:  cfg.Game.JournalMoves,
		SnapshotTTL:   cfg.Cache.SnapshotTTL,
		RoomLifetime:  cfg.Game.RoomLifetime,
		Hooks:         hooks,
	}, db, journal, backend.Cache, backend.PubSub, logger)
	defer wm.StopAll()

	if cfg.Game.AutoCreate {
		room, err := wm.Create(cfg.Game.DefaultBoard, 0)
		if err != nil {
			log.Fatalf("auto create room: %v", err)
		}
		logger.Info("Default room opened", zap.String("room_id", room.ID))
	}

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger, "/health"), mw.Recovery(logger))
	r.Use(mw.Origins(cfg.Security.AllowedOrigins))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	adminIPs, err := mw.IPAllow(cfg.Security.AdminIPs)
	if err != nil {
		log.Fatalf("security.admin_ips: %v", err)
	}

	// ---- REST API routes ----
	roomH := apirest.NewRoomHandler(wm, db, backend.Cache, cfg.Game.DefaultBoard, logger)
	adminH := apirest.NewAdminHandler(wm, sched, journal, backend.Kind, logger)
	apirest.Register(r, roomH, adminH, adminIPs, apirest.AdminAuth(cfg.Server.AdminKey))

	// ---- SSE ----
	sseH := sse.NewHandler(wm, backend.PubSub, backend.Cache, logger)
	r.GET("/sse/rooms/:id", sseH.ServeRoom)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		logger.Info("Server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	// Deferred: rooms stop, scheduler stops, journal flushes, cache closes.
}

// loadConfig reads path, falling back to built-in defaults when the file
// does not exist.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Printf("config: %s not found, using defaults", path)
		return config.Default()
	}
	return config.Load(path)
}

// schedulePhases converts configured phases. An empty list keeps the
// classic timings.
func schedulePhases(in []config.PhaseConfig) ([]world.Phase, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]world.Phase, 0, len(in))
	for i, p := range in {
		mode, err := strategy.ParseMode(p.Mode)
		if err != nil {
			return nil, fmt.Errorf("phase %d: %w", i, err)
		}
		out = append(out, world.Phase{Mode: mode, Duration: p.Duration})
	}
	return out, nil
}

// registerHooks installs the built-in room observers.
func registerHooks(h *hook.Center, logger *zap.Logger) {
	h.Register(hook.OnCapture, 100, "capture-log", func(_ context.Context, _ string, data interface{}) (interface{}, error) {
		if snap, ok := data.(world.Snapshot); ok {
			logger.Info("capture",
				zap.String("room_id", snap.RoomID),
				zap.Int64("tick", snap.Tick),
				zap.Int("captures", snap.Captures),
				zap.Int("player_x", snap.Player.X),
				zap.Int("player_y", snap.Player.Y))
		}
		return data, nil
	})
	h.Register(hook.OnModeChange, 100, "mode-log", func(_ context.Context, _ string, data interface{}) (interface{}, error) {
		if ev, ok := data.(world.ModeEvent); ok {
			logger.Debug("mode event", zap.Int64("tick", ev.Tick), zap.String("to", string(ev.To)))
		}
		return data, nil
	})
}
