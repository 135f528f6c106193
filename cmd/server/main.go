package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/launderly/launderly/modules/billing"
	"github.com/launderly/launderly/pkg/config"
	"github.com/launderly/launderly/pkg/currency"
	"github.com/launderly/launderly/pkg/gateway"
	"github.com/launderly/launderly/pkg/httpserver"
	"github.com/launderly/launderly/pkg/intent"
	"github.com/launderly/launderly/pkg/logger"
	"github.com/launderly/launderly/pkg/mongo"
	"github.com/launderly/launderly/pkg/notification"
	"github.com/launderly/launderly/pkg/plan"
	"github.com/launderly/launderly/pkg/redis"
	"github.com/launderly/launderly/pkg/registration"
	"github.com/launderly/launderly/pkg/tenant"
	"github.com/launderly/launderly/pkg/token"
	"github.com/launderly/launderly/svc/lifecycle"
)

type appConfig struct {
	Name string `env:"APP_NAME" envDefault:"launderly"`
	Env  string `env:"APP_ENV" envDefault:"development"`

	// PlanCatalogPath switches the plan catalog to a YAML file. When empty
	// the catalog lives in Mongo, seeded with the built-in plans on first run.
	PlanCatalogPath string `env:"PLAN_CATALOG_PATH"`

	TokenSecret string        `env:"AUTH_TOKEN_SECRET,required"`
	TokenTTL    time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"24h"`

	PaymentRedirectURL string `env:"PAYMENT_REDIRECT_URL" envDefault:"/billing/return"`

	SweepInterval time.Duration `env:"LIFECYCLE_SWEEP_INTERVAL" envDefault:"24h"`
	// PastDueGrace cancels tenants stuck in past_due longer than the window.
	// Zero keeps them in past_due until an operator intervenes.
	PastDueGrace time.Duration `env:"LIFECYCLE_PAST_DUE_GRACE" envDefault:"0"`

	DevMailDir string `env:"DEV_MAIL_DIR" envDefault:"./tmp/mail"`
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.NewFromConfig(logCfg, cfg.Name)
	logger.SetAsDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mongoCfg mongo.Config
	config.MustLoad(&mongoCfg)
	db, err := mongo.ConnectDatabase(ctx, mongoCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Client().Disconnect(context.Background()); err != nil {
			log.Warn("mongo disconnect", slog.Any("error", err))
		}
	}()

	var redisCfg redis.Config
	config.MustLoad(&redisCfg)
	rdb, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn("redis close", slog.Any("error", err))
		}
	}()

	if err := registration.EnsureIndexes(ctx, db); err != nil {
		return err
	}
	if err := tenant.EnsureTenantIndexes(ctx, db); err != nil {
		return err
	}

	catalog, err := buildCatalog(ctx, cfg, db)
	if err != nil {
		return err
	}
	resolver := currency.MustNewResolver(currency.DefaultCountryTable())

	pending := registration.NewMongoStore(db)
	tenants := tenant.NewMongoStore(db)
	intents := intent.NewMongoStore(db)

	var gwCfg gateway.Config
	config.MustLoad(&gwCfg)
	gw, err := gateway.NewRESTGateway(gwCfg, gateway.NewRedisTokenCache(rdb))
	if err != nil {
		return err
	}

	notifier, err := buildNotifier(cfg, log)
	if err != nil {
		return err
	}

	tokens, err := token.NewIssuer(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	finalizer, err := lifecycle.NewFinalizer(pending, tenants, catalog, tokens, log)
	if err != nil {
		return err
	}
	engine, err := lifecycle.NewEngine(lifecycle.Deps{
		Pending:         pending,
		Tenants:         tenants,
		Intents:         intents,
		Catalog:         catalog,
		Currency:        resolver,
		Gateway:         gw,
		Notifier:        notifier,
		Finalizer:       finalizer,
		Logger:          log,
		RedirectBaseURL: cfg.PaymentRedirectURL,
	})
	if err != nil {
		return err
	}

	sweeper, err := lifecycle.NewSweeper(tenants, log,
		lifecycle.WithPastDueGrace(cfg.PastDueGrace))
	if err != nil {
		return err
	}
	go sweeper.Run(ctx, cfg.SweepInterval)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", httpserver.Healthcheck(log))
	r.Get("/readyz", httpserver.Healthcheck(log,
		mongo.Healthcheck(db.Client()),
		redis.Healthcheck(rdb)))
	r.Mount("/v1/billing", billing.Router(billing.Deps{
		Engine:  engine,
		Catalog: catalog,
		Intents: intents,
		Logger:  log,
	}))

	var srvCfg httpserver.Config
	config.MustLoad(&srvCfg)
	return httpserver.New(srvCfg, httpserver.WithLogger(log)).Run(ctx, r)
}

func buildCatalog(ctx context.Context, cfg appConfig, db *mongodriver.Database) (*plan.Catalog, error) {
	if cfg.PlanCatalogPath != "" {
		store, err := plan.NewYAMLStore(cfg.PlanCatalogPath)
		if err != nil {
			return nil, err
		}
		return plan.NewCatalog(store), nil
	}
	if err := plan.SeedMongo(ctx, db, plan.DefaultPlans()); err != nil {
		return nil, err
	}
	return plan.NewCatalog(plan.NewMongoStore(db)), nil
}

func buildNotifier(cfg appConfig, log *slog.Logger) (notification.CodeSender, error) {
	var mailCfg notification.Config
	config.MustLoad(&mailCfg)
	if mailCfg.PostmarkServerToken == "" && cfg.Env != "production" {
		log.Warn("postmark not configured, verification codes go to a local file",
			slog.String("dir", cfg.DevMailDir))
		return notification.NewDevSender(cfg.DevMailDir), nil
	}
	return notification.NewPostmarkSender(mailCfg)
}
