package am

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Default values shared by SetDefaults and the Config getters.
const (
	DefaultPages             = 48
	DefaultPageSize          = 256
	DefaultMinPagesPerWorker = 4
	DefaultBackend           = "auto"
	DefaultDatabasePath      = "resonance.db"
	DefaultTickMS            = 1000
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Region layout
	v.SetDefault("region.pages", DefaultPages)
	v.SetDefault("region.page_size", DefaultPageSize)

	// Domain defaults
	v.SetDefault("domain.budget_class", 0)

	// Cluster builds run serially unless workers are configured
	v.SetDefault("cluster.workers", 0)
	v.SetDefault("cluster.min_pages_per_worker", DefaultMinPagesPerWorker)

	// Backend selection by CPU capability
	v.SetDefault("primitives.backend", DefaultBackend)

	// Metrics are opt-in
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", "")

	// Database defaults
	v.SetDefault("database.path", DefaultDatabasePath)

	// Schedule defaults
	v.SetDefault("schedule.tick_ms", DefaultTickMS)
}

// BindEnvVars explicitly binds settings commonly overridden per deployment
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("database.path", "RESONANCE_DATABASE_PATH")
	v.BindEnv("primitives.backend", "RESONANCE_BACKEND")
	v.BindEnv("metrics.address", "RESONANCE_METRICS_ADDRESS")
}

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return DefaultDatabasePath
	}
	return c.Database.Path
}

// RegionSize returns the configured region length in bytes
func (c *Config) RegionSize() int {
	return c.Region.Pages * DefaultPageSize
}

// TickInterval returns the schedule slot length
func (c *Config) TickInterval() time.Duration {
	if c.Schedule.TickMS <= 0 {
		return DefaultTickMS * time.Millisecond
	}
	return time.Duration(c.Schedule.TickMS) * time.Millisecond
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Region: {Pages: %d}, Backend: %s, Cluster: {Workers: %d}, Database: %s}",
		c.Region.Pages, c.Primitives.Backend, c.Cluster.Workers, c.Database.Path)
}
