package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/erp-fulfillment/internal/application/count"
	"github.com/jhoicas/erp-fulfillment/internal/application/fulfillment"
	"github.com/jhoicas/erp-fulfillment/internal/application/inventory"
	"github.com/jhoicas/erp-fulfillment/internal/application/ledger"
	"github.com/jhoicas/erp-fulfillment/internal/application/usecase"
	"github.com/jhoicas/erp-fulfillment/internal/infrastructure/lock"
	"github.com/jhoicas/erp-fulfillment/internal/infrastructure/memory"
	"github.com/jhoicas/erp-fulfillment/internal/infrastructure/postgres"
	infrapubsub "github.com/jhoicas/erp-fulfillment/internal/infrastructure/pubsub"
	infraredis "github.com/jhoicas/erp-fulfillment/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/erp-fulfillment/internal/interfaces/http"
	"github.com/jhoicas/erp-fulfillment/pkg/config"
	"github.com/jhoicas/erp-fulfillment/pkg/logger"
)

//go:generate swag init -g cmd/api/main.go -d ../../ -o ../../docs --outputTypes json

// @title						ERP Fulfillment API
// @version					1.0
// @description				Libro de stock FIFO, pedidos de venta y conteos físicos.
// @BasePath					/
// @securityDefinitions.apikey	Bearer
// @in							header
// @name						Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET no definido")
	}

	ctx := context.Background()

	// Almacenamiento: PostgreSQL (SELECT FOR UPDATE por fila) o memoria para desarrollo.
	var tx ledger.TxRunner
	switch cfg.Storage {
	case "memory":
		tx = memory.New()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migración del esquema")
		}
		tx = postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout)
	}

	// Candado por artículo: Redis entre instancias, en proceso si no hay Redis.
	var locker ledger.Locker
	if cfg.Redis.Addr != "" {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = infraredis.NewLocker(rdb, cfg.App.Name+":", cfg.Redis.LockTTL, cfg.Ledger.LockTimeout, log)
	} else {
		locker = lock.NewLocal(cfg.Ledger.LockTimeout)
	}

	// Eventos hacia contabilidad y notificaciones: Pub/Sub o solo log.
	var publisher ledger.Publisher
	if cfg.PubSub.ProjectID != "" {
		client, err := infrapubsub.NewClient(ctx, cfg.PubSub)
		if err != nil {
			log.Fatal().Err(err).Msg("cliente Pub/Sub")
		}
		p := infrapubsub.NewPublisher(client, cfg.PubSub, log)
		defer p.Close()
		publisher = p
	} else {
		publisher = infrapubsub.NewLogPublisher(log)
	}

	stockLedger := ledger.New(tx, locker, publisher, log, ledger.Options{
		BusyRetries:     cfg.Ledger.BusyRetries,
		DefaultLocation: cfg.Ledger.DefaultLocation,
	})
	engine := ledger.NewAllocationEngine(stockLedger)
	orders := fulfillment.NewService(stockLedger, engine, locker, log)
	reconciler := count.NewReconciler(stockLedger, locker, cfg.Count.VarianceThresholdPct, log)
	itemUC := usecase.NewItemUseCase(stockLedger)
	replenishmentUC := inventory.NewReplenishmentUseCase(stockLedger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.App.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.App.SwaggerFile,
			Path:     "docs",
			Title:    "ERP Fulfillment API",
		}))
	} else {
		log.Warn().Str("file", cfg.App.SwaggerFile).Msg("swagger deshabilitado: archivo no encontrado")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Storage})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Items:         itemUC,
		Ledger:        stockLedger,
		Replenishment: replenishmentUC,
		Orders:        orders,
		Counts:        reconciler,
		JWTSecret:     cfg.JWT.Secret,
		Log:           log,
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
}
