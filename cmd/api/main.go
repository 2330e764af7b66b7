package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/slugbotics/sluggo/internal/api/http"
	"github.com/slugbotics/sluggo/internal/api/http/handlers"
	"github.com/slugbotics/sluggo/internal/auth"
	"github.com/slugbotics/sluggo/internal/config"
	"github.com/slugbotics/sluggo/internal/events"
	"github.com/slugbotics/sluggo/internal/observability"
	"github.com/slugbotics/sluggo/internal/persistence"
	"github.com/slugbotics/sluggo/internal/repository"
	"github.com/slugbotics/sluggo/internal/service"
	"github.com/slugbotics/sluggo/internal/tree"
	"github.com/slugbotics/sluggo/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	memberRepo := repository.NewMemberRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	nodeRepo := repository.NewTicketNodeRepository(pool)
	statusRepo := repository.NewTicketStatusRepository(pool)
	tagRepo := repository.NewTagRepository(pool)
	ticketTagRepo := repository.NewTicketTagRepository(pool)
	commentRepo := repository.NewTicketCommentRepository(pool)
	eventRepo := repository.NewEventRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	ticketTree := tree.NewTicketTree(nodeRepo)

	authService := service.NewAuthService(*cfg, userRepo)
	teamService := service.NewTeamService(service.TeamDependencies{
		TeamRepo:   teamRepo,
		MemberRepo: memberRepo,
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:    ticketRepo,
		TeamRepo:      teamRepo,
		UserRepo:      userRepo,
		StatusRepo:    statusRepo,
		TicketTagRepo: ticketTagRepo,
		TagRepo:       tagRepo,
		Tree:          ticketTree,
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	tagService := service.NewTagService(tagRepo, statusRepo, teamRepo)
	commentService := service.NewCommentService(commentRepo, ticketRepo, dispatcher, logger)
	activityService := service.NewActivityService(dispatcher, eventRepo, redis, logger)
	worker.StartActivityWorker(activityService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Teams:          handlers.NewTeamsHandler(teamService, activityService),
		Tickets:        handlers.NewTicketsHandler(ticketService, teamService, commentService),
		Tags:           handlers.NewTagsHandler(tagService, teamService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
