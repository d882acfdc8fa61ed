package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dkp-kub/bantuan-kub/internal/application/dispatcher"
	"github.com/dkp-kub/bantuan-kub/internal/application/service"
	"github.com/dkp-kub/bantuan-kub/internal/config"
	"github.com/dkp-kub/bantuan-kub/internal/domain/event"
	"github.com/dkp-kub/bantuan-kub/internal/infrastructure/persistence/repository"
	"github.com/dkp-kub/bantuan-kub/internal/infrastructure/persistence/sqlite"
	"github.com/dkp-kub/bantuan-kub/internal/infrastructure/storage"
	httpserver "github.com/dkp-kub/bantuan-kub/internal/interfaces/http"
	"github.com/dkp-kub/bantuan-kub/pkg/utils"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting KUB assistance service",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port))

	db, err := openDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	kv := utils.NewKeyValueLogger(logger)

	pengajuanRepo := repository.NewPengajuanRepository(db.DB, logger)
	itemRepo := repository.NewLineItemRepository(db.DB, logger)
	bastRepo := repository.NewBASTRepository(db.DB, logger)
	kelompokRepo := repository.NewKelompokRepository(db.DB, logger)
	monitoringRepo := repository.NewMonitoringRepository(db.DB, logger)
	historyRepo := repository.NewHistoryRepository(db.DB, logger)
	txManager := sqlite.NewDB(db.DB, logger)

	files := storage.NewLocalFileStorage(cfg.Storage.BaseDir, logger)
	signer := storage.NewJWTURLSigner(cfg.Storage.SigningKey, cfg.Storage.PublicBaseURL, cfg.Auth.Issuer)

	events := dispatcher.NewDispatcher(dispatcher.WithLogger(kv))
	defer events.Close()
	events.SubscribeAll("audit-log", auditLogHandler(logger))

	services := httpserver.Services{
		Pengajuan: service.NewPengajuanService(service.PengajuanDeps{
			Pengajuan:  pengajuanRepo,
			Items:      itemRepo,
			BAST:       bastRepo,
			Kelompok:   kelompokRepo,
			History:    historyRepo,
			TxManager:  txManager,
			Files:      files,
			Signer:     signer,
			Dispatcher: events,
			Logger:     kv,
			URLTTL:     cfg.Storage.URLTTL,
		}),
		Monitoring: service.NewMonitoringService(monitoringRepo, kelompokRepo, historyRepo, txManager, events, kv),
		Kelompok:   service.NewKelompokService(kelompokRepo, txManager, kv),
		Documents:  service.NewDocumentService(files, signer, kv),
	}

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
		Issuer:         cfg.Auth.Issuer,
	}, services, kv)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		return err
	}
	logger.Info("Server exited")
	return nil
}

// auditLogHandler writes every committed transition to the process log
func auditLogHandler(logger *zap.Logger) dispatcher.Handler {
	audit := logger.Named("audit")
	return func(ctx context.Context, evt *event.Event) error {
		audit.Info("Workflow event",
			zap.String("event_id", evt.ID),
			zap.String("type", string(evt.Type)),
			zap.String("kind", string(evt.Kind)),
			zap.Int64("entity_id", evt.EntityID),
			zap.Int64("actor_id", evt.Actor.UserID),
			zap.String("actor_role", string(evt.Actor.Role)),
			zap.String("correlation_id", evt.CorrelationID),
			zap.Any("payload", evt.Payload))
		return nil
	}
}
