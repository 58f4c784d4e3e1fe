package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"caseflow/internal/access"
	"caseflow/internal/api"
	"caseflow/internal/config"
	"caseflow/internal/core/postgres/repository"
	"caseflow/internal/dispatcher"
	"caseflow/internal/domain"
	infraredis "caseflow/internal/infrastructure/redis"
	"caseflow/internal/logger"
	"caseflow/internal/service"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(
			&domain.Department{},
			&domain.WorkflowState{},
			&domain.User{},
			&domain.Expediente{},
			&domain.Transition{},
			&domain.Task{},
			&domain.TaskDependency{},
			&domain.Notification{},
		); err != nil {
			log.Fatal("database migration failed", zap.Error(err))
		}
	}

	redisClient, err := infraredis.NewClient(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	notifier := infraredis.NewNotifier(redisClient, log)

	expedienteRepo := repository.NewExpedienteRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	workflowService := service.NewWorkflowService(expedienteRepo, taskRepo, referenceRepo, userRepo, notifier, log)
	taskService := service.NewTaskService(taskRepo, expedienteRepo, referenceRepo, userRepo, workflowService, notifier, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inboxDispatcher := dispatcher.New(notifier, notificationRepo, log)
	go func() {
		if err := inboxDispatcher.Start(ctx); err != nil {
			log.Error("notification dispatcher stopped", zap.Error(err))
		}
	}()

	router := api.NewRouter(
		cfg.Server.Mode,
		workflowService,
		taskService,
		referenceRepo,
		userRepo,
		notificationRepo,
		access.NewChecker(),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
