package main

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/moderation-platform/internal/platform/config"
	"github.com/example/moderation-platform/internal/platform/db"
	"github.com/example/moderation-platform/internal/platform/httpserver"
	"github.com/example/moderation-platform/internal/platform/logging"
	"github.com/example/moderation-platform/internal/platform/natsconn"
	"github.com/example/moderation-platform/internal/platform/run"
	"github.com/example/moderation-platform/services/moderator/internal/action"
	"github.com/example/moderation-platform/services/moderator/internal/bili"
	modcfg "github.com/example/moderation-platform/services/moderator/internal/config"
	"github.com/example/moderation-platform/services/moderator/internal/detect"
	"github.com/example/moderation-platform/services/moderator/internal/events"
	"github.com/example/moderation-platform/services/moderator/internal/harvest"
	"github.com/example/moderation-platform/services/moderator/internal/ledger"
	"github.com/example/moderation-platform/services/moderator/internal/pass"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	mod, err := modcfg.Load()
	if err != nil {
		log.Error("load moderator config", zap.Error(err))
		run.Exit(1)
	}

	ctx := context.Background()

	client := bili.New(mod.BaseURL, bili.Credential{
		SESSDATA:    mod.SESSDATA,
		BiliJCT:     mod.BiliJCT,
		ACTimeValue: mod.ACTimeValue,
	})

	if refresh, err := client.CheckCredential(ctx); err != nil {
		log.Warn("credential check failed", zap.Error(err))
	} else if refresh {
		log.Warn("credential is due for refresh, re-authenticate soon")
	} else {
		log.Info("credential is valid")
	}

	aid, err := client.ResolveVideo(ctx, mod.BVID)
	if err != nil {
		log.Error("resolve target video", zap.String("bvid", mod.BVID), zap.Error(err))
		run.Exit(1)
	}
	log.Info("moderating video", zap.String("bvid", mod.BVID), zap.Int64("aid", aid))

	store, err := openLedgerStore(ctx, mod)
	if err != nil {
		log.Error("open ledger store", zap.String("backend", mod.LedgerBackend), zap.Error(err))
		run.Exit(1)
	}
	recs, err := store.Load(ctx)
	if err != nil {
		log.Warn("ledger load failed, starting from an empty ledger", zap.Error(err))
		recs = nil
	}
	led := ledger.FromRecords(recs)
	log.Info("ledger loaded", zap.Int("records", led.Len()))

	publisher := events.New(nil, log)
	if mod.NATSURL != "" {
		nc, err := natsconn.Connect(natsconn.Options{URL: mod.NATSURL})
		if err != nil {
			log.Warn("nats connect failed, moderation events disabled", zap.Error(err))
		} else {
			defer nc.Close()
			js, err := nc.JetStream(nats.PublishAsyncMaxPending(256))
			if err != nil {
				log.Warn("jetstream unavailable, moderation events disabled", zap.Error(err))
			} else {
				publisher = events.New(js, log)
			}
		}
	}

	matcher := detect.NewMatcher(log, mod.Patterns)
	log.Info("violation patterns compiled", zap.Int("patterns", matcher.PatternCount()))

	runner := &pass.Runner{
		Log:       log,
		Harvester: harvest.New(log, client, aid, mod.MaxPages),
		Detector:  &detect.Detector{Log: log, Matcher: matcher, Ledger: led, Events: publisher},
		Executor:  action.New(log, client, led, publisher, aid),
		Ledger:    led,
		Store:     store,
		Events:    publisher,
		Interval:  mod.PassInterval,
	}

	r := chi.NewRouter()
	httpserver.SetupRouter(r)
	pass.OpsHandler{Runner: runner}.Register(r)

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	code := run.New(log).WithSignals(func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		go func() {
			if err := srv.Start(log); err != nil {
				log.Error("ops http server stopped", zap.Error(err))
			}
		}()
		return runner.Run(ctx)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

func openLedgerStore(ctx context.Context, mod modcfg.Config) (ledger.Store, error) {
	if mod.LedgerBackend == modcfg.BackendPostgres {
		pool, err := db.Open(ctx)
		if err != nil {
			return nil, err
		}
		pg := ledger.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return pg, nil
	}
	return ledger.NewFileStore(mod.LedgerPath), nil
}
