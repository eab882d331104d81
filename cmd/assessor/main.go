package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/meteorguard/internal/adapters/meteorapi"
	natsadapter "github.com/samirrijal/meteorguard/internal/adapters/nats"
	"github.com/samirrijal/meteorguard/internal/adapters/postgres"
	"github.com/samirrijal/meteorguard/internal/adapters/valkey"
	"github.com/samirrijal/meteorguard/internal/core/domain"
	"github.com/samirrijal/meteorguard/internal/core/ports"
	"github.com/samirrijal/meteorguard/internal/core/usecases"
	"github.com/samirrijal/meteorguard/internal/pkg/config"
	"github.com/samirrijal/meteorguard/internal/pkg/logging"
	"github.com/samirrijal/meteorguard/internal/workflows"
)

const usage = "usage: assessor <worker | submit [--wait] <scenarios.json> | watch [--durable name]>"

func main() {
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	cfg, err := config.Load("meteorguard-assessor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(logging.LevelFromEnv(), "json")

	switch os.Args[1] {
	case "worker":
		runWorker(cfg)
	case "submit":
		runSubmit(cfg, os.Args[2:])
	case "watch":
		runWatch(cfg, os.Args[2:])
	default:
		log.Fatal(usage)
	}
}

func dialTemporal(cfg *config.Config) client.Client {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	return c
}

// runWorker executes AssessmentWorkflow activities against real adapters.
func runWorker(cfg *config.Config) {
	ctx := context.Background()

	upstream, err := meteorapi.New(meteorapi.Config{
		BaseURL:            cfg.Upstream.BaseURL,
		Timeout:            cfg.Upstream.Timeout(),
		UserAgent:          cfg.Upstream.UserAgent,
		RequiredThresholds: cfg.Overlay.Thresholds,
	})
	if err != nil {
		log.Fatalf("upstream client: %v", err)
	}

	// The saga needs a database to persist and compensate.
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()

	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr, "meteorguard"); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache = vc
	}

	overlay := usecases.NewOverlayBuilder(usecases.ThresholdsFromKeys(cfg.Overlay.Thresholds), cfg.Overlay.Steps)
	impact := usecases.NewImpactService(upstream, overlay, postgres.NewAssessmentRepo(db), pub, cache, cfg.Cache.AssessmentTTL)

	c := dialTemporal(cfg)
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.AssessmentWorkflow)
	w.RegisterActivity(&workflows.AssessmentActivities{Impact: impact})

	slog.Info("assessor worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

// runSubmit starts one AssessmentWorkflow per scenario in a JSON file.
func runSubmit(cfg *config.Config, args []string) {
	fs := pflag.NewFlagSet("submit", pflag.ExitOnError)
	wait := fs.Bool("wait", false, "wait for every workflow to finish and print its result")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		log.Fatal(usage)
	}

	scenarios, err := loadScenarios(fs.Arg(0))
	if err != nil {
		log.Fatalf("scenarios: %v", err)
	}

	c := dialTemporal(cfg)
	defer c.Close()

	ctx := context.Background()
	runs := make([]client.WorkflowRun, 0, len(scenarios))
	for _, s := range scenarios {
		run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:        workflowID(s.Scenario),
			TaskQueue: cfg.Temporal.TaskQueue,
		}, workflows.AssessmentWorkflow, s)
		if err != nil {
			log.Fatalf("start %s: %v", s.Scenario, err)
		}
		fmt.Printf("started %s  workflow=%s run=%s\n", s.Scenario, run.GetID(), run.GetRunID())
		runs = append(runs, run)
	}

	if !*wait {
		return
	}

	failed := 0
	for i, run := range runs {
		var out workflows.AssessmentOutput
		if err := run.Get(ctx, &out); err != nil {
			fmt.Printf("FAIL %s: %v\n", scenarios[i].Scenario, err)
			failed++
			continue
		}
		fmt.Printf("OK   %s  assessment=%s regime=%s e_kt=%.1f\n", out.Scenario, out.AssessmentID, out.Regime, out.EnergyKt)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// runWatch logs assessment events from the durable JetStream consumer.
func runWatch(cfg *config.Config, args []string) {
	fs := pflag.NewFlagSet("watch", pflag.ExitOnError)
	durable := fs.String("durable", "assessment-watcher", "JetStream durable consumer name")
	_ = fs.Parse(args)

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = sub.SubscribeAssessments(ctx, *durable, func(ctx context.Context, ev *domain.AssessmentEvent) error {
		slog.Info("assessment",
			"assessment_id", ev.AssessmentID,
			"regime", ev.Regime,
			"e_kt", ev.EnergyKt,
			"lat", ev.Center.Lat,
			"lon", ev.Center.Lon,
		)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("watching assessment events", "durable", *durable)
	<-ctx.Done()
}

func loadScenarios(path string) ([]workflows.AssessmentInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var scenarios []workflows.AssessmentInput
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for i := range scenarios {
		if scenarios[i].Scenario == "" {
			scenarios[i].Scenario = fmt.Sprintf("scenario-%d", i+1)
		}
		params := scenarios[i].Params.WithDefaults()
		if err := params.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", scenarios[i].Scenario, err)
		}
		scenarios[i].Params = params
	}
	return scenarios, nil
}

func workflowID(scenario string) string {
	return "assessment-" + strings.ReplaceAll(strings.ToLower(strings.TrimSpace(scenario)), " ", "-")
}
