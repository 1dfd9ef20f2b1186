// Package config holds the core's runtime configuration: where its
// database lives, what address the host service binds to, and the
// genetic algorithm's tunable parameters (§6 "Configuration").
package config

import (
	"os"
	"time"

	"github.com/planloom/planloom/internal/planning/ga"
)

// DefaultDebounce is the recalculation loop's modify-to-recompute delay
// (§4.G).
const DefaultDebounce = 300 * time.Second

// Config is the core's full runtime configuration. All other surface
// (CLI, HTTP/GraphQL, UI asset serving) configures itself separately.
type Config struct {
	// DatabaseURL is a SQLite data source name (modernc.org/sqlite),
	// typically a filesystem path.
	DatabaseURL string
	// Bind is the address the host service listens on. The core itself
	// never listens; this is carried for the thin service entrypoint that
	// wires a façade on top of it.
	Bind string
	// Debounce is the recalculation loop's modify-to-recompute delay.
	Debounce time.Duration
	// GA holds the genetic algorithm's tunable parameters.
	GA ga.Params
}

// New returns a Config populated with defaults; any of its fields may be
// overridden before use.
func New() Config {
	return Config{
		DatabaseURL: "planner.db",
		Bind:        ":8080",
		Debounce:    DefaultDebounce,
		GA:          ga.DefaultParams(),
	}
}

// FromEnv returns New() with DatabaseURL and Bind overridden by
// PLANNER_DB and PLANNER_BIND when set, mirroring the teacher's
// KAIROS_DB env-var pattern.
func FromEnv() Config {
	cfg := New()
	if v := os.Getenv("PLANNER_DB"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("PLANNER_BIND"); v != "" {
		cfg.Bind = v
	}
	return cfg
}
