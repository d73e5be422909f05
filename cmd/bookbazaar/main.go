package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"bookbazaar/internal/config"
	"bookbazaar/internal/events"
	"bookbazaar/internal/http/handlers"
	"bookbazaar/internal/likes"
	applog "bookbazaar/internal/log"
	"bookbazaar/internal/marketapi"
	"bookbazaar/internal/metrics"
	"bookbazaar/internal/repos"
	"bookbazaar/internal/services"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	lg, err := applog.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		panic(err)
	}
	defer lg.Sync()
	applog.SetLogger(lg)

	db, err := repos.OpenDB(cfg.DB.DSN)
	if err != nil {
		lg.Fatal("open db", zap.Error(err))
	}
	defer db.Close()

	// Like cache backend
	var store likes.BlobStore = repos.NewLikeCacheRepo(db)
	if cfg.Cache.Backend == "redis" {
		rdb, err := repos.NewRedisClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, lg)
		if err != nil {
			lg.Fatal("connect redis", zap.Error(err))
		}
		defer rdb.Close()
		store = repos.NewRedisBlobStore(rdb)
	}
	lg.Info("like cache backend", zap.String("backend", cfg.Cache.Backend))

	// Like events: in-process broker for the SSE stream, optionally
	// forwarded to NATS.
	broker := events.NewBroker()
	pub := events.Fanout{broker}
	if cfg.NATS.URL != "" {
		fwd, err := events.NewNATSForwarder(cfg.NATS.URL, cfg.NATS.ConnectTimeout, lg)
		if err != nil {
			lg.Warn("nats unavailable, events stay in-process", zap.Error(err))
		} else {
			defer fwd.Close()
			pub = append(pub, fwd)
		}
	}

	rec := metrics.New("bookbazaar")
	api := marketapi.New(cfg.API, lg)

	syncer := likes.NewSyncer(services.MarketToggler(api), pub, rec, lg)
	likeSvc := services.NewLikeService(syncer, store, lg)
	catalogSvc := services.NewCatalogService(api, cfg.Listing.PageSize, rec, lg)
	authSvc := services.NewAuthService(api, repos.NewSessionRepo(db), lg)
	wishSvc := services.NewWishlistService(api, likeSvc, lg)

	// Templates & app
	engine := html.New("./web/templates", ".html")
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: handlers.ErrorHandler,
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(handlers.AttachUser(authSvc))
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return strings.HasPrefix(p, "/static/") || p == "/healthz" || p == "/metrics" || p == "/api/v1/likes/stream"
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	app.Static("/static", "./web/static")

	deps := handlers.NewDeps(catalogSvc, likeSvc, authSvc, wishSvc, broker)
	handlers.Register(app, deps, authSvc)

	// Health, metrics & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(rec.Registry, promhttp.HandlerOpts{})))
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		lg.Info("shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	lg.Info("listening", zap.String("port", cfg.Port), zap.String("api", cfg.API.BaseURL))
	if err := app.Listen(":" + cfg.Port); err != nil {
		lg.Error("server stopped", zap.Error(err))
	}
}
