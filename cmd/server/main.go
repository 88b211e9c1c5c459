package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/opsboard/opsboard/internal/api"
	"github.com/opsboard/opsboard/internal/api/handlers"
	"github.com/opsboard/opsboard/internal/config"
	"github.com/opsboard/opsboard/internal/core/agentquery"
	"github.com/opsboard/opsboard/internal/core/appointment"
	"github.com/opsboard/opsboard/internal/core/auth"
	"github.com/opsboard/opsboard/internal/core/catalog"
	"github.com/opsboard/opsboard/internal/core/chat"
	"github.com/opsboard/opsboard/internal/core/contact"
	"github.com/opsboard/opsboard/internal/core/validation"
	"github.com/opsboard/opsboard/internal/core/workflow"
	"github.com/opsboard/opsboard/internal/logger"
	"github.com/opsboard/opsboard/internal/observability"
	"github.com/opsboard/opsboard/internal/storage/blob"
	"github.com/opsboard/opsboard/internal/storage/postgres"
	"github.com/opsboard/opsboard/internal/storage/redis"
	"github.com/opsboard/opsboard/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()

	db, err := postgres.NewClient(cfg.Database.Postgres)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()
	log.Info("connected to postgres", zap.String("host", cfg.Database.Postgres.Host))

	cache := redis.NewClient(cfg.Database.Redis)
	if err := cache.Ping(context.Background()); err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer cache.Close()
	log.Info("connected to redis", zap.String("address", cfg.Database.Redis.Address))

	files, err := blob.NewLocalStore(cfg.Uploads.BasePath)
	if err != nil {
		log.Fatal("failed to initialize file storage", zap.Error(err))
	}

	recorder := observability.PipelineRecorder{}
	validator := validation.NewValidator()
	filePolicy := validation.NewFilePolicy(cfg.Uploads.AllowedTypes, cfg.Uploads.MaxSizeBytes)
	hooks := webhook.NewClient(cfg.Webhook.Timeout(), cfg.App.Name)

	authService := auth.NewService(auth.NewRepository(db), cache, &cfg.JWT)
	workflowService := workflow.NewService(workflow.NewRepository(db), hooks, cfg.Webhook.WorkflowTriggerURL, recorder, log)
	appointmentService := appointment.NewService(appointment.NewRepository(db), recorder, log)
	contactService := contact.NewService(contact.NewRepository(db), recorder, log)
	chatService := chat.NewService(chat.NewRepository(db), recorder, log)
	catalogService := catalog.NewService(catalog.NewRepository(db), files, cfg.Uploads.Bucket, filePolicy, validator, recorder, log)
	agentQueryService := agentquery.NewService(agentquery.NewRepository(db), recorder, log)

	router := api.NewRouter(
		authService,
		log,
		handlers.NewAuthHandler(authService),
		handlers.NewWorkflowHandler(workflowService),
		handlers.NewAppointmentHandler(appointmentService),
		handlers.NewContactHandler(contactService),
		handlers.NewChatHandler(chatService),
		handlers.NewCatalogHandler(catalogService),
		handlers.NewAgentQueryHandler(agentQueryService),
	)

	engine := router.Setup(cfg.Server.Mode)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: engine,
	}

	go func() {
		log.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
}
