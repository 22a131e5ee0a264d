// Command server runs the SkillQuest HTTP API and background jobs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	activityapi "github.com/skillquest/skillquest/internal/api/activities"
	"github.com/skillquest/skillquest/internal/auth"
	"github.com/skillquest/skillquest/internal/cache"
	"github.com/skillquest/skillquest/internal/clock"
	"github.com/skillquest/skillquest/internal/config"
	"github.com/skillquest/skillquest/internal/notify"
	"github.com/skillquest/skillquest/internal/photos"
	"github.com/skillquest/skillquest/internal/repository"
	"github.com/skillquest/skillquest/internal/rewards"
	"github.com/skillquest/skillquest/internal/service/activities"
	"github.com/skillquest/skillquest/internal/service/challenge"
	"github.com/skillquest/skillquest/internal/service/happening"
	"github.com/skillquest/skillquest/internal/service/leaderboard"
	"github.com/skillquest/skillquest/internal/service/puzzle"
	"github.com/skillquest/skillquest/internal/service/review"
	"github.com/skillquest/skillquest/internal/service/scheduler"
	"github.com/skillquest/skillquest/internal/service/skills"
	"github.com/skillquest/skillquest/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	table, err := rewards.LoadTable(cfg.Engagement.RewardTable)
	if err != nil {
		return fmt.Errorf("load reward table: %w", err)
	}

	if cfg.Database.Postgres.RunMigrations {
		if err := repository.RunMigrations(cfg.Database.Postgres.URL(), log); err != nil {
			return err
		}
	}

	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	if err := repository.SeedReferenceData(ctx, db, table, log); err != nil {
		return err
	}

	redisCache, err := cache.NewRedisCache(&cfg.Database.Redis, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisCache.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Redis")
		}
	}()

	storage, err := photos.NewFileStorage(&cfg.Photos, log.Component("photos"))
	if err != nil {
		return err
	}
	notifier := notify.NewClient(&cfg.Notifications, log.Component("notify"))
	clk := clock.System{}

	// Repositories
	activityRepo := repository.NewActivityRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	rewardRepo := repository.NewRewardRepository(db, redisCache, time.Duration(cfg.Database.Redis.CacheTTL)*time.Second, log)
	skillRepo := repository.NewSkillRepository(db)
	userRepo := repository.NewUserRepository(db)
	uow := repository.NewUnitOfWork(db)

	// Services
	skillService := skills.NewService(skillRepo, userRepo, uow, log)
	activityService := activities.NewService(activityRepo, userRepo, skillService, uow, notifier, clk,
		activities.Limits{
			CreationWindow:   cfg.Engagement.CreationWindow(),
			BasePendingLimit: cfg.Engagement.BasePendingLimit,
		}, log)
	puzzleService := puzzle.NewService(activityRepo, engagementRepo, userRepo, skillService, table, uow, notifier, clk, log)
	happeningService := happening.NewService(activityRepo, engagementRepo, userRepo, skillService, table, uow, storage, notifier, clk,
		cfg.Engagement.CompletionWindow(), log)
	challengeService := challenge.NewService(activityRepo, engagementRepo, userRepo, skillService, table, uow, storage, notifier, clk, log)
	reviewService := review.NewService(activityRepo, reviewRepo, rewardRepo, skillService, uow, log)
	leaderboardService := leaderboard.NewService(activityRepo, reviewRepo, userRepo, skillRepo, clk, log)

	schedulerService := scheduler.NewService(cfg, activityRepo, clk, log)
	if err := schedulerService.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer schedulerService.Stop()

	// Router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		checks := gin.H{"database": "ok", "redis": "ok"}
		if err := db.Health(); err != nil {
			status = http.StatusServiceUnavailable
			checks["database"] = err.Error()
		}
		if err := redisCache.Health(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			checks["redis"] = err.Error()
		}
		c.JSON(status, gin.H{"checks": checks, "timestamp": time.Now().UTC()})
	})

	if cfg.Metrics.Prometheus.Enabled {
		router.GET(cfg.Metrics.Prometheus.Path, gin.WrapH(promhttp.Handler()))
	}

	// Photos are served locally only when their public URLs are relative.
	if strings.HasPrefix(cfg.Photos.BaseURL, "/") {
		router.GET(strings.TrimRight(cfg.Photos.BaseURL, "/")+"/:public_id", servePhoto(storage))
	}

	handler := activityapi.NewHandler(activityapi.Services{
		Activities:  activityService,
		Puzzles:     puzzleService,
		Happenings:  happeningService,
		Challenges:  challengeService,
		Reviews:     reviewService,
		Skills:      skillService,
		Leaderboard: leaderboardService,
	}, log)
	api := router.Group("/api/v1", auth.Middleware(auth.NewManager(&cfg.Auth)))
	handler.RegisterRoutes(api, auth.RequireModerator())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("environment", cfg.Server.Environment).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	log.Info().Msg("Server stopped")
	return nil
}

func servePhoto(storage *photos.FileStorage) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := storage.Open(c.Param("public_id"))
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
	}
}
