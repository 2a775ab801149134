package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/spexcher/Pictionary/auth"
	"github.com/spexcher/Pictionary/config"
	"github.com/spexcher/Pictionary/crypto"
	"github.com/spexcher/Pictionary/game"
	"github.com/spexcher/Pictionary/hub"
	"github.com/spexcher/Pictionary/leaderboard"
	"github.com/spexcher/Pictionary/logger"
	"github.com/spexcher/Pictionary/migrations"
	"github.com/spexcher/Pictionary/storage"
	"github.com/spexcher/Pictionary/words"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.SetTrustedProxies([]string{"127.0.0.1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})
	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

// gameStore is what both the engine and the leaderboard need from storage.
type gameStore interface {
	game.Store
	leaderboard.SortedSet
}

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		bootLog := logger.New(false)
		bootLog.Fatal().Err(err).Msg("loading config")
	}
	log := logger.New(cfg.Debug)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	var store gameStore
	if cfg.RedisURL != "" {
		rs, err := storage.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connecting to redis")
		}
		defer rs.Close()
		store = rs
		log.Info().Msg("using redis store")
	} else {
		store = storage.NewMemoryStore()
		log.Warn().Msg("REDIS_URL not set, rooms live in process memory")
	}

	deps := game.Deps{
		Store:  store,
		Hasher: crypto.NewArgon2idHasher(cfg.Argon2Time, cfg.Argon2MemoryKB, 32, 16, 1),
		Logger: log,
	}

	var wordLoader words.Loader
	var history historyReader
	if cfg.PostgresURL != "" {
		if err := migrations.Migrate(cfg.PostgresURL); err != nil {
			log.Fatal().Err(err).Msg("running migrations")
		}
		pg, err := storage.NewPostgresRepo(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connecting to postgres")
		}
		defer pg.Close()
		wordLoader = pg
		history = pg
		deps.Recorder = pg
	}

	wordService := words.NewService(store, wordLoader, log)
	if err := wordService.Init(ctx); err != nil {
		log.Warn().Err(err).Msg("word cache not written")
	}
	log.Info().Interface("words", wordService.CountByDifficulty()).Msg("word pool ready")
	deps.Words = wordService

	board := leaderboard.NewService(store)
	deps.Scores = board

	hb := hub.New(log)
	deps.Broadcaster = hb
	engine := game.NewEngine(deps, cfg.Game())

	var verifier hub.TokenVerifier
	r := CreateServer(cfg.Origins())
	if cfg.JWTKey != "" {
		jwt := crypto.NewJWTManager(cfg.JWTKey, cfg.JWTTTL)
		verifier = jwt
		auth.NewHandler(jwt, cfg.JWTTTL, log).Register(r.Group("/auth"))
	} else {
		log.Warn().Msg("JWT_KEY not set, every player is anonymous")
	}

	opts := hub.DefaultOptions()
	opts.AllowedOrigins = cfg.Origins()
	r.GET("/ws", hub.NewHandler(engine, hb, verifier, opts, log).ServeWS)
	r.GET("/leaderboard", leaderboardHandler(board, log))
	if history != nil {
		r.GET("/history/:playerId", historyHandler(history, log))
	}

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()
	log.Info().Str("port", cfg.Port).Msg("server started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, os.Interrupt)
	<-sigCh
	log.Info().Msg("SIGTERM or SIGINT received, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := engine.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("engine shutdown")
	}
	log.Info().Msg("shutdown complete")
}
