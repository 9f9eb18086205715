// Command rankwatch monitors keyword rankings for tracked domains.
//
// Usage:
//
//	rankwatch -config rankwatch.yaml           # monitor continuously
//	rankwatch -config rankwatch.yaml -once     # run one cycle and exit
//	rankwatch -config rankwatch.yaml -history  # dump ranking history
//	rankwatch -config rankwatch.yaml -purge    # delete old observations
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/rankwatch/config"
	"github.com/hazyhaar/rankwatch/monitor"
	"github.com/hazyhaar/rankwatch/serp"
	"github.com/hazyhaar/rankwatch/store"
)

func main() {
	configPath := flag.String("config", "rankwatch.yaml", "path to rankwatch.yaml config file")
	once := flag.Bool("once", false, "run one monitoring cycle and exit")
	history := flag.Bool("history", false, "print ranking history and exit")
	purge := flag.Bool("purge", false, "delete observations past the retention horizon and exit")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// .env carries SERPAPI_KEY in development; absence is fine.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *once, *history, *purge); err != nil {
		logger.Error("rankwatch: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath string, once, history, purge bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if history {
		return printHistory(ctx, st, cfg)
	}
	if purge {
		n, err := st.PurgeOlderThan(ctx, cfg.RetentionDays)
		if err != nil {
			return fmt.Errorf("purge: %w", err)
		}
		logger.Info("rankwatch: purged old observations",
			"deleted", n, "retention_days", cfg.RetentionDays)
		return nil
	}

	prober := serp.New(cfg.APIKey)
	mon := monitor.New(st, prober, monitor.Config{
		Interval:   cfg.Interval(),
		ProbeDelay: cfg.ProbeDelay(),
	}, logger)

	if err := mon.Configure(cfg.Keywords, cfg.Domains, cfg.SearchParams); err != nil {
		return err
	}

	if once {
		return mon.RunOnce(ctx)
	}

	return runContinuous(ctx, logger, st, mon, cfg)
}

func runContinuous(ctx context.Context, logger *slog.Logger, st *store.Store, mon *monitor.Monitor, cfg *config.Config) error {
	// Trim old observations once at startup; steady-state growth is
	// bounded by the cycle rate, so per-start purging is enough.
	if cfg.RetentionDays > 0 {
		n, err := st.PurgeOlderThan(ctx, cfg.RetentionDays)
		if err != nil {
			logger.Warn("rankwatch: startup purge failed", "error", err)
		} else if n > 0 {
			logger.Info("rankwatch: purged old observations", "deleted", n)
		}
	}

	mon.OnChange(func(c *monitor.RankChange) {
		logger.Info("rankwatch: ranking change detected",
			"keyword", c.Keyword,
			"domain", c.Domain,
			"previous", positionString(c.PreviousPosition),
			"current", positionString(c.CurrentPosition),
			"detected_at", c.DetectedAt.Format(time.RFC3339))
	})

	if err := mon.Start(cfg.Immediate()); err != nil {
		return err
	}

	<-ctx.Done()
	mon.Stop()
	return nil
}

func printHistory(ctx context.Context, st *store.Store, cfg *config.Config) error {
	stats, err := st.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	fmt.Printf("Ranking history: %d observations, %d keywords, %d domains\n\n",
		stats.Rankings, stats.Keywords, stats.Domains)

	// Fall back to whatever the store has seen, so history works even
	// when the config no longer lists a previously monitored pair.
	keywords, domains := cfg.Keywords, cfg.Domains
	if len(keywords) == 0 {
		if keywords, err = st.Keywords(ctx); err != nil {
			return fmt.Errorf("keywords: %w", err)
		}
	}
	if len(domains) == 0 {
		if domains, err = st.Domains(ctx); err != nil {
			return fmt.Errorf("domains: %w", err)
		}
	}

	for _, keyword := range keywords {
		for _, domain := range domains {
			fmt.Printf("Keyword %q | Domain %q\n", keyword, domain)

			hist, err := st.History(ctx, keyword, domain, 10)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			if len(hist) == 0 {
				fmt.Println("  no data")
				continue
			}
			for i, r := range hist {
				ts := time.UnixMilli(r.CheckedAt).Format("2006-01-02 15:04:05")
				if r.Found {
					fmt.Printf("  %d. [%s] position %d  %s\n", i+1, ts, *r.Position, *r.Link)
				} else {
					fmt.Printf("  %d. [%s] not found\n", i+1, ts)
				}
			}
		}
	}
	return nil
}

func positionString(p *int64) string {
	if p == nil {
		return "not found"
	}
	return fmt.Sprintf("%d", *p)
}
