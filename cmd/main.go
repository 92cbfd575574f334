package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/hellofresh/health-go/v5"
	healthPostgres "github.com/hellofresh/health-go/v5/checks/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/gabrielvss/ecclesia/internal/api"
	"github.com/gabrielvss/ecclesia/internal/auth"
	"github.com/gabrielvss/ecclesia/internal/config"
	"github.com/gabrielvss/ecclesia/internal/db"
	"github.com/gabrielvss/ecclesia/internal/repository"
	"github.com/gabrielvss/ecclesia/internal/service"
	"github.com/gabrielvss/ecclesia/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("starting application")

	dsn := cfg.Database.DSN()

	if err = db.RunMigrations(dsn, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		log.Fatal("failed to parse database config", zap.Error(err))
	}
	poolCfg.MaxConns = int32(cfg.Database.PoolMax)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err = pool.Ping(context.Background()); err != nil {
		log.Fatal("failed to ping database", zap.Error(err))
	}

	log.Info("database connection established")

	transactor := db.NewPgxTransactor(pool)

	memberRepo := repository.NewPgxMemberRepository(pool)
	departmentRepo := repository.NewPgxDepartmentRepository(pool)
	cellRepo := repository.NewPgxCellRepository(pool)
	userRepo := repository.NewPgxUserRepository(pool)

	tokens := auth.NewTokenManager(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)

	authSvc := service.NewAuthService(tokens).WithUserRepo(userRepo)
	members := service.NewMemberService(transactor).WithMemberRepo(memberRepo)
	departments := service.NewDepartmentService(transactor).WithDepartmentRepo(departmentRepo).WithMemberRepo(memberRepo)
	cells := service.NewCellService().WithCellRepo(cellRepo)
	users := service.NewUserService().WithUserRepo(userRepo)
	summary := service.NewSummaryService().
		WithMemberRepo(memberRepo).
		WithDepartmentRepo(departmentRepo).
		WithCellRepo(cellRepo).
		WithUserRepo(userRepo)
	export := service.NewExportService().WithMemberRepo(memberRepo)

	healthChecker := api.MustNewHealthChecker(health.Config{
		Name:    "postgres",
		Timeout: 5 * time.Second,
		Check:   healthPostgres.New(healthPostgres.Config{DSN: dsn}),
	})

	e := echo.New()

	handler := api.NewHandler(log, tokens).
		WithHealthChecker(healthChecker).
		WithAuthService(authSvc).
		WithMemberService(members).
		WithDepartmentService(departments).
		WithCellService(cells).
		WithUserService(users).
		WithSummaryService(summary).
		WithExportService(export)

	handler.RegisterRoutes(e)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("server starting", zap.String("addr", addr))
	if err = e.Start(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}
