package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/theatre-booking/internal/clock"
	"github.com/iliyamo/theatre-booking/internal/config"
	"github.com/iliyamo/theatre-booking/internal/database"
	"github.com/iliyamo/theatre-booking/internal/handler"
	"github.com/iliyamo/theatre-booking/internal/logging"
	"github.com/iliyamo/theatre-booking/internal/media"
	"github.com/iliyamo/theatre-booking/internal/middleware"
	"github.com/iliyamo/theatre-booking/internal/queue"
	"github.com/iliyamo/theatre-booking/internal/repository"
	"github.com/iliyamo/theatre-booking/internal/router"
	"github.com/iliyamo/theatre-booking/internal/service"
)

func main() {
	configPath := flag.String("config", "config.yml", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Log)

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(cfg.DB, database.Up); err != nil {
			logger.Fatal().Err(err).Msg("migrate")
		}
	}
	db, err := database.Open(cfg.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		logger.Warn().Str("addr", cfg.Redis.Address()).Msg("redis unreachable, cache and rate limit disabled")
	} else {
		defer rdb.Close()
	}

	pub := queue.NewPublisher(cfg.Broker)
	defer pub.Close()

	users := repository.NewUserRepo(db)
	if cfg.Admin.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := users.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.BcryptCost)
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("bootstrap admin")
		}
		logger.Info().Str("email", cfg.Admin.Email).Msg("admin account ensured")
	}

	clk := clock.NewSystem()
	tx := repository.NewTxRunner(db)
	halls := repository.NewHallRepo(db)
	plays := repository.NewPlayRepo(db)
	perfs := repository.NewPerformanceRepo(db)
	tickets := repository.NewTicketRepo(db)
	reservations := repository.NewReservationRepo(db)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dM", cfg.Media.MaxUploadMiB+1)))

	router.RegisterRoutes(e, db, cfg.Media)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(db), clk), cfg.JWTSecret)
	router.RegisterTheatre(e, router.Theatre{
		Halls:        handler.NewHallHandler(halls),
		Genres:       handler.NewGenreHandler(repository.NewGenreRepo(db)),
		Actors:       handler.NewActorHandler(repository.NewActorRepo(db)),
		Plays:        handler.NewPlayHandler(plays, media.NewStore(cfg.Media.Root, cfg.Media.MaxUploadBytes()), cfg.Media.URLPrefix),
		Performances: handler.NewPerformanceHandler(perfs),
		Tickets:      handler.NewTicketHandler(tickets, service.NewTicketService(tx, perfs, tickets)),
		Reservations: handler.NewReservationHandler(service.NewReservationService(tx, perfs, tickets, reservations, clk, pub)),
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		Cache:     cfg.Cache,
		RateLimit: cfg.RateLimit,
		Redis:     rdb,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Str("broker", cfg.Broker.Normalized()).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}
