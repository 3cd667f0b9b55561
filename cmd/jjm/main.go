// Command jjm runs one reconciliation job: ingest the six department dumps,
// reconcile them into the unified tables, write the envelope, and optionally
// persist to or load back from a database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/shiv0924/jjm-platform/internal/config"
	"github.com/shiv0924/jjm-platform/internal/logging"
	"github.com/shiv0924/jjm-platform/internal/metrics"
	"github.com/shiv0924/jjm-platform/internal/metrics/datadog"
	"github.com/shiv0924/jjm-platform/internal/metrics/prompush"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "github.com/shiv0924/jjm-platform/internal/storage/all"
)

// main is the entry point for the jjm binary. It loads the job config,
// optionally initializes a metrics backend, and executes the run.
func main() {
	var (
		cfgPath           string
		dumpDir           string
		outPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		dogstatsdAddrFlg  string
		validate          bool
		save              bool
		load              bool
	)

	flag.StringVar(&cfgPath, "config", "configs/jobs/sample.json", "job config path (JSON or YAML)")
	flag.StringVar(&dumpDir, "dumps", "", "override the job's dump directory")
	flag.StringVar(&outPath, "out", "", "envelope output path; \"-\" forces stdout")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	flag.BoolVar(&save, "save", false, "persist the reconciled tables to the configured database")
	flag.BoolVar(&load, "load", false, "skip the pipeline and read the persisted result back")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (pushgateway, datadog, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&dogstatsdAddrFlg, "dogstatsd-addr", "", "DogStatsD address (overrides env DOGSTATSD_ADDR)")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	// .env is a convenience for local runs; absence is not an error.
	_ = godotenv.Load()

	if *verbose {
		logging.SetDefault(logging.Default().Level(zerolog.DebugLevel))
	}

	job, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	if dumpDir != "" {
		job.DumpDir = dumpDir
	}

	// Validate job config.
	issues := config.ValidateJob(job)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		fatalf("configuration is invalid: %v", cfgPath)
	}

	// If validate flag is set, only validate the configuration and exit
	if validate {
		fmt.Fprintf(os.Stderr, "configuration is valid: %v\n", cfgPath)
		os.Exit(0)
	}

	setupMetrics(metricsBackendFlg, pushGatewayURLFlg, dogstatsdAddrFlg, job.Name, *verbose)

	ctx := context.Background()
	start := time.Now()

	if *verbose {
		logging.Debug().
			Str("job", job.Name).
			Str("dump_dir", job.DumpDir).
			Int("sources", len(job.Sources)).
			Str("storage", job.Storage.Kind).
			Msg("job loaded")
	}

	runErr := runJob(ctx, job, runOptions{OutPath: outPath, Save: save, Load: load})

	// Flush before deciding the exit code so failed runs still ship their
	// stage metrics.
	if err := metrics.Flush(); err != nil {
		logging.Warn().Err(err).Msg("metrics: flush error")
	}
	if runErr != nil {
		logging.Err(runErr).Str("job", job.Name).Msg("run failed")
		os.Exit(1)
	}

	logging.Info().
		Str("job", job.Name).
		Str("elapsed", time.Since(start).Truncate(time.Millisecond).String()).
		Msg("run completed")
}

// setupMetrics decides the metrics backend (flag → env → default) and
// installs it. Anything that fails here degrades to the nop backend; a run
// never aborts because the metrics sink is down.
func setupMetrics(backendFlag, gatewayFlag, dogstatsdFlag, jobName string, verbose bool) {
	backendName := backendFlag
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}

	switch backendName {
	case "pushgateway":
		// Decide Pushgateway URL: flag → env → default.
		gwURL := gatewayFlag
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}

		b, err := prompush.NewBackend(jobName, gwURL)
		if err != nil {
			logging.Warn().Err(err).Msg("metrics: failed to init prom push backend; using nop")
			return
		}
		logging.Info().Str("backend", backendName).Str("url", gwURL).Str("job", jobName).Msg("metrics enabled")
		metrics.SetBackend(b)

	case "datadog":
		addr := dogstatsdFlag
		if addr == "" {
			addr = os.Getenv("DOGSTATSD_ADDR")
		}
		if addr == "" {
			addr = "127.0.0.1:8125"
		}

		b, err := datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  "jjm.",
			GlobalTags: []string{"job:" + jobName},
		})
		if err != nil {
			logging.Warn().Err(err).Msg("metrics: failed to init datadog backend; using nop")
			return
		}
		logging.Info().Str("backend", backendName).Str("addr", addr).Msg("metrics enabled")
		metrics.SetBackend(b)

	case "", "none":
		// metrics disabled; nop backend remains
		if verbose {
			logging.Debug().Str("backend", backendName).Msg("metrics: disabled")
		}

	default:
		logging.Warn().Str("backend", backendName).Msg("metrics: unknown backend; metrics disabled")
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
