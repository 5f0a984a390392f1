package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Env holds the process environment the CLI falls back to when a flag is
// not given.
type Env struct {
	MetricsBackend string `envconfig:"METRICS_BACKEND" default:"none"`
	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL" default:"http://localhost:9091"`
	DDAgentAddr    string `envconfig:"DD_AGENT_ADDR" default:"127.0.0.1:8125"`
	// RenderWorkers overrides runtime.render_workers when non-zero.
	RenderWorkers int `envconfig:"LABOURSTAT_RENDER_WORKERS"`
}

// LoadEnv reads Env from the environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := envconfig.Process("", &e); err != nil {
		return Env{}, fmt.Errorf("load env: %w", err)
	}
	return e, nil
}
