package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"labourstat/internal/config"
	"labourstat/internal/logging"
	"labourstat/internal/metrics"
	"labourstat/internal/metrics/datadog"
	"labourstat/internal/metrics/prompush"
)

// main is the entry point for the labourstat binary. It loads the pipeline
// config, optionally initializes a metrics backend, and executes one run.
func main() {
	var (
		cfgPath           string
		inputFlg          string
		outFlg            string
		metricsBackendFlg string
		pushGatewayURLFlg string
		ddAddrFlg         string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "", "pipeline config path, JSON or YAML (defaults are used when empty)")
	flag.StringVar(&inputFlg, "input", "", "input CSV path or http(s) URL (overrides source in config)")
	flag.StringVar(&outFlg, "out", "", "output directory (overrides output.dir)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use: pushgateway, datadog, none (env METRICS_BACKEND)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&ddAddrFlg, "dd-agent-addr", "", "DogStatsD address (overrides env DD_AGENT_ADDR)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	logger := logging.FromEnv(*verbose)
	slog.SetDefault(logger)

	env, err := config.LoadEnv()
	if err != nil {
		fatalf("%v", err)
	}
	p, err := loadPipeline(cfgPath, inputFlg, outFlg)
	if err != nil {
		fatalf("%v", err)
	}
	if env.RenderWorkers != 0 {
		p.Runtime.RenderWorkers = env.RenderWorkers
	}

	// Validate pipeline config.
	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		logger.Error("configuration is invalid", "config", cfgPath)
		os.Exit(1)
	}

	// If validate flag is set, only validate the configuration and exit
	if validate {
		logger.Info("configuration is valid", "config", cfgPath)
		os.Exit(0)
	}

	backendName := pick(metricsBackendFlg, env.MetricsBackend)
	gwURL := pick(pushGatewayURLFlg, env.PushgatewayURL)
	ddAddr := pick(ddAddrFlg, env.DDAgentAddr)
	if b, err := newMetricsBackend(backendName, p.Job, gwURL, ddAddr); err != nil {
		logger.Warn("metrics: backend init failed; using nop", "backend", backendName, "err", err)
	} else if b != nil {
		logger.Info("metrics: enabled", "backend", backendName, "job", p.Job)
		metrics.SetBackend(b)
		defer func() {
			if err := metrics.Flush(); err != nil {
				logger.Warn("metrics: flush error", "err", err)
			}
		}()
	} else {
		logger.Debug("metrics: disabled", "backend", backendName)
	}

	ctx := logging.WithLogger(context.Background(), logging.WithFields(logger, map[string]any{"job": p.Job}))
	start := time.Now()

	logger.Debug("pipeline",
		"source", p.Source.Kind, "parser", p.Parser.Kind, "transforms", len(p.Transform),
		"out", p.Output.Dir, "format", p.Output.Format)

	out, err := run(ctx, p)
	if err != nil {
		logger.Error("run failed", "err", err)
		// Deferred flush does not run past os.Exit.
		_ = metrics.Flush()
		os.Exit(1)
	}
	logGlobalSummary(logging.FromContext(ctx), out, time.Since(start))
}

// loadPipeline reads the config file, or starts from config.Default, and
// applies the -input and -out overrides.
func loadPipeline(cfgPath, input, out string) (config.Pipeline, error) {
	p := config.Default()
	if cfgPath != "" {
		var err error
		if p, err = config.LoadFile(cfgPath); err != nil {
			return config.Pipeline{}, err
		}
	}
	if input != "" {
		if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
			p.Source.Kind = "http"
			p.Source.HTTP.URL = input
		} else {
			p.Source.Kind = "file"
			p.Source.File.Path = input
		}
	}
	if out != "" {
		p.Output.Dir = out
	}
	return p, nil
}

// newMetricsBackend returns nil, nil when metrics are disabled.
func newMetricsBackend(name, job, gwURL, ddAddr string) (metrics.Backend, error) {
	switch name {
	case "pushgateway":
		return prompush.NewBackend(job, gwURL)
	case "datadog":
		return datadog.NewBackend(datadog.Config{
			Addr:       ddAddr,
			GlobalTags: []string{"job:" + job},
		})
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown metrics backend %q", name)
	}
}

// pick returns the first non-empty value.
func pick(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
