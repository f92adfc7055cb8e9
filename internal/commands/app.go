package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/myrizq/rizq/internal/activity"
	"github.com/myrizq/rizq/internal/categories"
	"github.com/myrizq/rizq/internal/config"
	"github.com/myrizq/rizq/internal/events"
	"github.com/myrizq/rizq/internal/logging"
	"github.com/myrizq/rizq/internal/metrics"
	"github.com/myrizq/rizq/internal/model"
	"github.com/myrizq/rizq/internal/rates"
	"github.com/myrizq/rizq/internal/service"
	"github.com/myrizq/rizq/internal/session"
	"github.com/myrizq/rizq/internal/storage"
	"github.com/myrizq/rizq/internal/storage/memory"
	"github.com/myrizq/rizq/internal/storage/sqlite"
)

// app is everything a subcommand needs, built from the resolved config.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     storage.EventLog
	publisher events.Publisher
	svc       *service.LedgerService
}

// openApp resolves configuration and opens storage. The publisher is AMQP
// only when withBroker is set and a URL is configured.
func openApp(g *globalFlags, withBroker bool) (*app, error) {
	cfg, err := config.Resolve(g.configPath, g.envFile)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.Setup(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	table, err := cfg.RateTable()
	if err != nil {
		return nil, err
	}
	base := cfg.Rates.Base
	if base == "" {
		base = cfg.Ledger.BaseCurrency
	}
	provider := rates.Timeout{Provider: rates.NewStatic(base, table), Limit: cfg.Rates.Timeout}

	catalog, err := categories.Load(cfg.Ledger.CategoriesFile)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	if cfg.Storage.Memory {
		a.store = memory.New()
	} else {
		if a.store, err = sqlite.Open(cfg.Storage.Path); err != nil {
			return nil, err
		}
	}

	a.publisher = events.LogPublisher{Logger: logger}
	if withBroker && cfg.Events.AMQPURL != "" {
		pub, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange, logger)
		if err != nil {
			a.store.Close()
			return nil, err
		}
		a.publisher = pub
	}

	var actLog *activity.Log
	if cfg.Activity.Path != "" {
		actLog = activity.Open(cfg.Activity.Path)
	}

	a.svc = service.New(service.Options{
		Log:                   a.store,
		Catalog:               catalog.All(),
		BaseCurrency:          cfg.Ledger.BaseCurrency,
		DefaultAlertThreshold: decimal.NewFromInt(int64(cfg.Ledger.AlertThreshold)),
		Rates:                 provider,
		CacheSize:             cfg.Cache.Size,
		CacheTTL:              cfg.Cache.TTL,
		Publisher:             a.publisher,
		Activity:              actLog,
		Metrics:               metrics.New(),
		ImportRules:           cfg.Import.Rules,
		Layouts:               cfg.Import.Layouts,
		Logger:                logger,
	})
	return a, nil
}

// Close releases the publisher and the event log.
func (a *app) Close() error {
	return errors.Join(a.publisher.Close(), a.store.Close())
}

// sessionContext attaches the caller's session to ctx.
func (g *globalFlags) sessionContext(ctx context.Context) (context.Context, error) {
	userID := g.userID
	if userID == "" {
		userID = os.Getenv("RIZQ_USER")
	}
	if userID == "" {
		return nil, fmt.Errorf("no user: pass --user or set RIZQ_USER")
	}
	sess := session.Session{UserID: userID}

	if g.asOf != "" {
		t, err := time.Parse(time.DateOnly, g.asOf)
		if err != nil {
			return nil, fmt.Errorf("parsing --as-of: %w", err)
		}
		// end of day, so the whole date counts
		sess.AsOf = t.Add(24*time.Hour - time.Nanosecond)
	}
	if g.currency != "" {
		code := strings.ToUpper(g.currency)
		if !model.ValidCurrency(code) {
			return nil, fmt.Errorf("invalid --report-currency %q: must be a 3-letter ISO code", g.currency)
		}
		sess.BaseCurrency = code
	}
	return session.WithContext(ctx, sess), nil
}

// withApp opens the app, runs fn with a session context, and closes the app.
func withApp(ctx context.Context, g *globalFlags, fn func(context.Context, *app) error) error {
	ctx, err := g.sessionContext(ctx)
	if err != nil {
		return err
	}
	a, err := openApp(g, false)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// parseDay parses a YYYY-MM-DD flag value; empty means zero.
func parseDay(flag, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing --%s: %w", flag, err)
	}
	return t, nil
}
