package http

import (
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/stock-control-api/pkg/logger"
	"github.com/jhoicas/stock-control-api/pkg/metrics"
)

// ServerConfig opciones del servidor HTTP.
type ServerConfig struct {
	AppName        string
	MaxUploadBytes int64
	// UploadsPrefix y UploadsRoot sirven el disco local; vacíos si se usa S3.
	UploadsPrefix string
	UploadsRoot   string
	// SwaggerFile ruta al swagger.json; si no existe no se monta /docs.
	SwaggerFile string
}

// NewApp construye la aplicación Fiber con middlewares, rutas de soporte
// (/health, /metrics, archivos subidos, /docs) y las rutas de la API.
func NewApp(cfg ServerConfig, deps RouterDeps) *fiber.App {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
		deps.Log = log
	}
	bodyLimit := 4 * 1024 * 1024
	if cfg.MaxUploadBytes > 0 {
		// margen para los demás campos del formulario
		bodyLimit = int(cfg.MaxUploadBytes) + 1024*1024
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		BodyLimit:    bodyLimit,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: ErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(metrics.Middleware())

	if cfg.SwaggerFile != "" {
		if _, err := os.Stat(cfg.SwaggerFile); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: cfg.SwaggerFile,
				Path:     "docs",
				Title:    "Stock Control API",
			}))
		} else {
			log.Warn().Str("file", cfg.SwaggerFile).Msg("swagger no disponible")
		}
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.AppName})
	})
	app.Get("/metrics", metrics.Handler())

	if cfg.UploadsRoot != "" {
		app.Static(cfg.UploadsPrefix, cfg.UploadsRoot, fiber.Static{MaxAge: 3600})
	}

	Router(app, deps)
	return app
}
