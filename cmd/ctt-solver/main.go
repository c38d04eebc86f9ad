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
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/ctt-evolver/api/swagger"
	"github.com/noah-isme/ctt-evolver/internal/dto"
	"github.com/noah-isme/ctt-evolver/internal/handler"
	internalmiddleware "github.com/noah-isme/ctt-evolver/internal/middleware"
	"github.com/noah-isme/ctt-evolver/internal/models"
	"github.com/noah-isme/ctt-evolver/internal/repository"
	"github.com/noah-isme/ctt-evolver/internal/service"
	"github.com/noah-isme/ctt-evolver/pkg/cache"
	"github.com/noah-isme/ctt-evolver/pkg/config"
	"github.com/noah-isme/ctt-evolver/pkg/ctt"
	"github.com/noah-isme/ctt-evolver/pkg/database"
	"github.com/noah-isme/ctt-evolver/pkg/export"
	"github.com/noah-isme/ctt-evolver/pkg/logger"
	corsmiddleware "github.com/noah-isme/ctt-evolver/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/ctt-evolver/pkg/middleware/requestid"
	"github.com/noah-isme/ctt-evolver/pkg/storage"
)

// @title CTT Evolver Status API
// @version 0.1.0
// @description Read-only status of the curriculum timetabling solver
// @BasePath /
// @schemes http
func main() {
	flags := pflag.NewFlagSet("ctt-solver", pflag.ExitOnError)
	config.RegisterFlags(flags)
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Sugar().Fatalw("solver failed", "error", err)
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	if cfg.Solver.InstancePath == "" && cfg.Solver.InstancesDir == "" {
		return errors.New("no problem instance given, use --instance, --instances-dir or SOLVER_INSTANCE")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	table := service.NewSolutionTable()

	generator := service.NewGeneratorService(table, service.GeneratorConfig{
		Workers:           cfg.Generator.Workers,
		MaxRetries:        cfg.Generator.MaxRetries,
		RetryDelay:        cfg.Generator.RetryDelay,
		PlacementAttempts: cfg.Generator.PlacementAttempts,
		Seed:              cfg.Solver.Seed,
	}, logr)
	evaluator := service.NewEvaluatorService(table, cfg.Solver.Workers, logr)
	breeder := service.NewBreederService(table, service.NeighborhoodRecombination{}, service.RoomPeriodMutation{}, service.BreederConfig{
		Offspring:      cfg.Solver.OffspringPerGeneration,
		MutationRate:   cfg.Solver.MutationRate,
		TournamentSize: cfg.Solver.TournamentSize,
		Workers:        cfg.Solver.Workers,
		Seed:           cfg.Solver.Seed,
	}, logr)
	eliminator := service.NewEliminatorService(table, service.EliminatorConfig{
		Rate:              cfg.Solver.EliminationRate,
		PlacementAttempts: cfg.Generator.PlacementAttempts,
		Seed:              cfg.Solver.Seed,
	}, logr)
	deps := service.EngineDeps{
		Table:      table,
		Generator:  generator,
		Evaluator:  evaluator,
		Breeder:    breeder,
		Eliminator: eliminator,
		Metrics:    metrics,
		Logger:     logr,
	}
	if cfg.Solver.InitialSolutionDir != "" {
		seeds, err := storage.OpenLocalStorage(cfg.Solver.InitialSolutionDir)
		if err != nil {
			return fmt.Errorf("initial solutions: %w", err)
		}
		deps.Preloader = service.NewInitialSolutionService(seeds, table, logr)
	}
	engine := service.NewEngineService(deps, cfg.Solver.Iterations)

	history, closeStores, err := openHistory(ctx, cfg, metrics, logr)
	if err != nil {
		return err
	}
	defer closeStores()

	if cfg.Server.Enabled {
		srv := newStatusServer(cfg, logr, metrics, engine, history)
		go func() {
			logr.Sugar().Infow("status server starting", "addr", srv.Addr, "env", cfg.Env)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logr.Sugar().Errorw("status server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	store, err := storage.NewLocalStorage(cfg.Output.Dir)
	if err != nil {
		return err
	}
	exporter := service.NewExportService(store, export.NewCSVExporter(0), export.NewPDFExporter(), cfg.Output.Formats, logr)
	finish := publishRun(exporter, history, logr)

	if cfg.Solver.InstancesDir != "" {
		instances, err := storage.OpenLocalStorage(cfg.Solver.InstancesDir)
		if err != nil {
			return fmt.Errorf("instances directory: %w", err)
		}
		batch := service.NewBatchService(instances, engine, store, finish, service.BatchConfig{Iterations: cfg.Solver.Iterations}, logr)
		summaries, err := batch.RunAll(ctx)
		if err != nil {
			return err
		}
		logr.Sugar().Infow("batch report written", "file", service.BatchReportFile, "dir", cfg.Output.Dir, "instances", len(summaries))
		return nil
	}

	instance, err := ctt.ReadInstanceFile(cfg.Solver.InstancePath)
	if err != nil {
		return err
	}
	logr.Sugar().Infow("instance loaded",
		"name", instance.Name,
		"courses", len(instance.Courses),
		"rooms", instance.NumberOfRooms(),
		"curricula", instance.NumberOfCurricula(),
		"periods", instance.NumberOfPeriods(),
	)

	summary, err := engine.Run(ctx, instance)
	if err != nil {
		return err
	}
	return finish(ctx, summary, engine.BestSolution())
}

// publishRun exports the best timetable of a finished run and records it.
func publishRun(exporter *service.ExportService, history *service.RunHistoryService, logr *zap.Logger) service.RunHook {
	return func(_ context.Context, summary *dto.RunSummary, best *models.Solution) error {
		if best != nil {
			if _, err := exporter.Export(summary, best); err != nil {
				return err
			}
		} else {
			logr.Sugar().Warnw("no feasible solution found, nothing exported", "run_id", summary.RunID)
		}

		recordCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := history.Record(recordCtx, summary, best); err != nil {
			logr.Sugar().Errorw("failed to record run", "run_id", summary.RunID, "error", err)
		}

		logr.Sugar().Infow("solver finished",
			"run_id", summary.RunID,
			"instance", summary.Instance,
			"generations", summary.Generations,
			"initial_solutions", summary.InitialSolutions,
			"best_penalty", summary.BestPenalty,
			"best_fairness", summary.BestFairness,
			"duration", summary.Duration.String(),
			"cancelled", summary.Cancelled,
		)
		return nil
	}
}

// openHistory connects the optional PostgreSQL and Redis backends.
func openHistory(ctx context.Context, cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) (*service.RunHistoryService, func(), error) {
	var (
		runs      service.RunStore
		snapshots service.SnapshotStore
		db        *sqlx.DB
		rdb       *redis.Client
	)
	closeAll := func() {
		if db != nil {
			_ = db.Close()
		}
		if rdb != nil {
			_ = rdb.Close()
		}
	}

	if cfg.RunHistory.Enabled {
		conn, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, closeAll, fmt.Errorf("connect run history database: %w", err)
		}
		db = conn
		repo := repository.NewRunRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, func() {}, err
		}
		runs = repo
	}
	if cfg.Snapshot.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("connect snapshot cache: %w", err)
		}
		rdb = client
		snapshots = repository.NewSnapshotRepository(rdb, logr)
	}

	history := service.NewRunHistoryService(runs, snapshots, service.RunHistoryConfig{
		SnapshotKey: cfg.Snapshot.Key,
		SnapshotTTL: cfg.Snapshot.TTL,
	}, validator.New(), metrics, logr)
	return history, closeAll, nil
}

func newStatusServer(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, engine *service.EngineService, history *service.RunHistoryService) *http.Server {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.Server.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics, "/metrics"))
	r.Use(internalmiddleware.ResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics, engine)
	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	runHandler := handler.NewRunHandler(engine, history)
	api := r.Group("/api/v1")
	api.GET("/runs", runHandler.List)
	api.GET("/runs/current", runHandler.Current)
	api.GET("/runs/best", runHandler.Best)

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
