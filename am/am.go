package am

// Config represents the resonance configuration
type Config struct {
	Region     RegionConfig     `mapstructure:"region"`
	Domain     DomainConfig     `mapstructure:"domain"`
	Cluster    ClusterConfig    `mapstructure:"cluster"`
	Primitives PrimitivesConfig `mapstructure:"primitives"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
}

// RegionConfig describes the region layout. Page size is fixed at 256 bytes.
type RegionConfig struct {
	Pages    int `mapstructure:"pages"`     // Number of 256-byte pages (default: 48)
	PageSize int `mapstructure:"page_size"` // Must be 256; present so files can state it explicitly
}

// DomainConfig configures newly created domains
type DomainConfig struct {
	BudgetClass int `mapstructure:"budget_class"` // Initial ledger value in [0,95] (default: 0)
}

// ClusterConfig configures CSR builds
type ClusterConfig struct {
	Workers           int `mapstructure:"workers"`              // 0 = serial, otherwise max goroutines per build
	MinPagesPerWorker int `mapstructure:"min_pages_per_worker"` // Smallest page range per worker (default: 4)
}

// PrimitivesConfig selects the conserved memory backend
type PrimitivesConfig struct {
	Backend string `mapstructure:"backend"` // auto, scalar, swar64, swar256 (default: auto)
}

// MetricsConfig configures prometheus instrumentation
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"` // Record metrics (default: false)
	Address string `mapstructure:"address"` // Listen address for /metrics, empty = not served
}

// DatabaseConfig configures the SQLite witness database
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ScheduleConfig configures the window ticker
type ScheduleConfig struct {
	TickMS int `mapstructure:"tick_ms"` // Slot length in milliseconds (default: 1000)
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)
