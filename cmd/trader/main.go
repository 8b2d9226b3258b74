package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cho-y-j/able-sub001/internal/broker"
	"github.com/cho-y-j/able-sub001/internal/broker/bybit"
	"github.com/cho-y-j/able-sub001/internal/config"
	"github.com/cho-y-j/able-sub001/internal/logger"
	"github.com/cho-y-j/able-sub001/internal/monitoring"
	"github.com/cho-y-j/able-sub001/internal/notifications"
	"github.com/cho-y-j/able-sub001/internal/orchestrator"
	"github.com/cho-y-j/able-sub001/internal/pipeline"
	"github.com/cho-y-j/able-sub001/internal/providers"
	"github.com/cho-y-j/able-sub001/internal/session"
	"github.com/cho-y-j/able-sub001/pkg/reporting"
	"github.com/cho-y-j/able-sub001/pkg/types"
)

func main() {
	var (
		mode           = flag.String("mode", "run", "Operation: run, approve, reject, stop")
		sessionID      = flag.String("session", "", "Session ID (required for approve/reject/stop)")
		userID         = flag.String("user", "operator", "User the session belongs to")
		watchlist      = flag.String("watchlist", "", "Comma-separated stock codes, e.g. 005930,000660")
		regimeFile     = flag.String("regime-file", "", "JSON regime file; omit to run with an unknown regime")
		candidatesFile = flag.String("candidates-file", "", "JSON strategy candidates file for the search step")
		recipesFile    = flag.String("recipes-file", "", "JSON candidates file for active recipe evaluation")
		dryRun         = flag.Bool("dry-run", true, "Simulate order placement (default: true)")
		reportFile     = flag.String("report", "", "Write an xlsx session report to this path")
		envFile        = flag.String("env", ".env", "Environment file path (default: .env)")
	)
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("Warning: Could not load %s (%v), checking environment variables...", *envFile, err)
	}

	cfg := config.Load()
	if !*dryRun {
		cfg.Trading.DryRun = false
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fmt.Println("🚀 Trader Starting...")

	runID := time.Now().Format("20060102_150405")
	sessionLog, err := logger.NewLogger(cfg.LogDir, runID)
	if err != nil {
		log.Fatalf("Failed to open session log: %v", err)
	}
	defer sessionLog.Close()

	store, err := session.NewStore(cfg.StateDir, sessionLog)
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}

	startServers(cfg, sessionLog)

	runner := orchestrator.NewRunner(store, buildDeps(cfg, sessionLog, *regimeFile, *candidatesFile, *recipesFile))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	record, err := dispatch(ctx, runner, cfg, *mode, *sessionID, *userID, splitWatchlist(*watchlist))
	if err != nil {
		log.Fatalf("Session %s failed: %v", *mode, err)
	}

	report := reporting.BuildReport(record)
	reporting.NewConsoleReporter(nil).Print(report)

	if *reportFile != "" {
		if err := reporting.NewExcelReporter().Write(report, *reportFile); err != nil {
			sessionLog.LogError("excel report", err)
			fmt.Printf("⚠️  Could not write report: %v\n", err)
		} else {
			fmt.Printf("📊 Report saved to %s\n", *reportFile)
		}
	}

	if record.Session.Status == session.StatusPendingApproval {
		fmt.Printf("⏸  Session %s is waiting for approval. Resume with -mode approve -session %s\n",
			record.Session.ID, record.Session.ID)
	}
}

func dispatch(ctx context.Context, runner *orchestrator.Runner, cfg *config.Config, mode, sessionID, userID string, watchlist []string) (*session.Record, error) {
	switch mode {
	case "run":
		return runner.StartSession(ctx, userID, watchlist, pipeline.ExecutionConfig{
			DryRun:            cfg.Trading.DryRun,
			SliceInterval:     cfg.Trading.SliceInterval,
			HITLEnabled:       cfg.Trading.HITLEnabled,
			ApprovalThreshold: cfg.Trading.ApprovalThreshold,
			MaxDrawdown:       cfg.Trading.MaxDrawdown,
		})
	case "approve":
		if sessionID == "" {
			return nil, fmt.Errorf("approve requires -session")
		}
		return runner.Approve(ctx, sessionID)
	case "reject":
		if sessionID == "" {
			return nil, fmt.Errorf("reject requires -session")
		}
		return runner.Reject(ctx, sessionID)
	case "stop":
		if sessionID == "" {
			return nil, fmt.Errorf("stop requires -session")
		}
		return runner.Stop(sessionID)
	default:
		return nil, fmt.Errorf("unknown mode %q (expected run, approve, reject or stop)", mode)
	}
}

func buildDeps(cfg *config.Config, sessionLog *logger.Logger, regimeFile, candidatesFile, recipesFile string) orchestrator.Deps {
	deps := orchestrator.Deps{
		Log:      sessionLog,
		Analysis: &providers.StaticAnalysisProvider{Classification: types.RegimeUnknown},
		Search:   &providers.StaticCandidateSource{},
		Recipes:  &providers.StaticCandidateSource{},
	}

	if regimeFile != "" {
		deps.Analysis = &providers.FileAnalysisProvider{Path: regimeFile}
	}
	if candidatesFile != "" {
		deps.Search = &providers.FileCandidateSource{Path: candidatesFile}
	}
	if recipesFile != "" {
		deps.Recipes = &providers.FileCandidateSource{Path: recipesFile}
	}

	if !cfg.Trading.DryRun {
		deps.Broker = newBybitClient(cfg)
		fmt.Println("💰 LIVE trading mode")
	} else {
		fmt.Println("🧪 Dry-run mode, orders are simulated")
	}

	sinks := []notifications.Notifier{&notifications.LogSink{Log: sessionLog}}
	if cfg.Notifications.TelegramToken != "" {
		sinks = append(sinks, notifications.NewTelegramNotifier(
			cfg.Notifications.TelegramToken, cfg.Notifications.TelegramChatID))
		fmt.Println("📱 Telegram notifications enabled")
	}
	deps.Notifier = notifications.NewFanout(sessionLog, sinks...)

	return deps
}

func newBybitClient(cfg *config.Config) broker.Client {
	return bybit.NewClient(bybit.Config{
		APIKey:      cfg.Broker.APIKey,
		APISecret:   cfg.Broker.APISecret,
		Testnet:     cfg.Broker.Testnet,
		Demo:        cfg.Broker.Demo,
		Category:    cfg.Broker.Category,
		CallTimeout: cfg.Broker.CallTimeout,
	})
}

// startServers exposes metrics and health endpoints when ports are
// configured. The process is one-shot, so the servers live only for the
// duration of the invocation.
func startServers(cfg *config.Config, sessionLog *logger.Logger) {
	if cfg.Monitoring.PrometheusPort > 0 {
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
			mux := http.NewServeMux()
			mux.Handle("/metrics", monitoring.NewMetricsHandler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				sessionLog.LogError("metrics server", err)
			}
		}()
		fmt.Printf("📈 Metrics on :%d/metrics\n", cfg.Monitoring.PrometheusPort)
	}
	if cfg.Monitoring.HealthPort > 0 {
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Monitoring.HealthPort)
			mux := http.NewServeMux()
			mux.Handle("/health", monitoring.HealthHandler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				sessionLog.LogError("health server", err)
			}
		}()
		fmt.Printf("❤️  Health on :%d/health\n", cfg.Monitoring.HealthPort)
	}
}

func splitWatchlist(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if code := strings.TrimSpace(p); code != "" {
			out = append(out, code)
		}
	}
	return out
}
