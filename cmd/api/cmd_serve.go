package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/stock-control-api/internal/application/auth"
	"github.com/jhoicas/stock-control-api/internal/application/media"
	"github.com/jhoicas/stock-control-api/internal/application/usecase"
	"github.com/jhoicas/stock-control-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-control-api/internal/infrastructure/postgres/migrations"
	"github.com/jhoicas/stock-control-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/stock-control-api/internal/interfaces/http"
	"github.com/jhoicas/stock-control-api/pkg/config"
	"github.com/jhoicas/stock-control-api/pkg/jwt"
	"github.com/jhoicas/stock-control-api/pkg/logger"
	"github.com/jhoicas/stock-control-api/pkg/password"
)

var swaggerFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Inicia el servidor HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

func init() {
	serveCmd.Flags().StringVar(&swaggerFile, "swagger", "./docs/swagger.json", "ruta al swagger.json servido en /docs")
}

func newLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
	})
}

func serve(cfg *config.Config) error {
	log := newLogger(cfg)
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	// Sin secreto no se puede emitir ni validar sesiones: no se arranca.
	tokens, err := jwt.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.Expiration)*time.Minute, cfg.JWT.Issuer)
	if err != nil {
		log.Error().Err(err).Msg("JWT_SECRET requerido")
		return fmt.Errorf("JWT_SECRET requerido: %w", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("conexión a PostgreSQL")
		return fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		if err := migrations.Up(ctx, pool); err != nil {
			log.Error().Err(err).Msg("migraciones")
			return fmt.Errorf("migraciones: %w", err)
		}
		log.Info().Msg("migraciones aplicadas")
	}

	disk, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Error().Err(err).Msg("storage de imágenes")
		return fmt.Errorf("storage de imágenes: %w", err)
	}
	images := media.NewLifecycle(disk, log, cfg.Storage.MaxUploadBytes)

	userRepo := postgres.NewUserRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	productRepo := postgres.NewProductRepository(pool)

	serverCfg := httpRouter.ServerConfig{
		AppName:        cfg.App.Name,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		SwaggerFile:    swaggerFile,
	}
	if local, ok := disk.(*storage.LocalDisk); ok {
		serverCfg.UploadsPrefix = cfg.Storage.PublicPrefix
		serverCfg.UploadsRoot = local.Root()
	}

	app := httpRouter.NewApp(serverCfg, httpRouter.RouterDeps{
		AuthUC:     auth.NewAuthUseCase(userRepo, password.NewHasher(), tokens, log),
		UserUC:     usecase.NewUserUseCase(userRepo, log),
		CategoryUC: usecase.NewCategoryUseCase(categoryRepo, productRepo, log),
		ProductUC:  usecase.NewProductUseCase(productRepo, images, log),
		Tokens:     tokens,
		Log:        log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
	return nil
}
