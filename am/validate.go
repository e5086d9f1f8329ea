package am

import (
	"github.com/teranos/resonance/conserve"
	"github.com/teranos/resonance/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Region: at least one page; page size is not configurable
	if c.Region.Pages <= 0 {
		return errors.Newf("region.pages must be > 0, got %d", c.Region.Pages)
	}
	if c.Region.PageSize != 0 && c.Region.PageSize != DefaultPageSize {
		return errors.Newf("region.page_size must be %d, got %d", DefaultPageSize, c.Region.PageSize)
	}

	// Budget class is the initial ledger value
	if c.Domain.BudgetClass < 0 || c.Domain.BudgetClass > 95 {
		return errors.Newf("domain.budget_class must be in [0,95], got %d", c.Domain.BudgetClass)
	}

	// Cluster workers: 0 = serial, negative = invalid
	if c.Cluster.Workers < 0 {
		return errors.Newf("cluster.workers must be >= 0, got %d", c.Cluster.Workers)
	}
	if c.Cluster.MinPagesPerWorker < 0 {
		return errors.Newf("cluster.min_pages_per_worker must be >= 0, got %d", c.Cluster.MinPagesPerWorker)
	}

	// Backend must be auto or a registered backend
	if b := c.Primitives.Backend; b != "" && b != conserve.BackendAuto && !conserve.Known(b) {
		return errors.WithHintf(
			errors.Newf("primitives.backend %q is not a known backend", b),
			"valid backends: auto, %s", conserve.BackendNames())
	}

	if c.Metrics.Address != "" && !c.Metrics.Enabled {
		return errors.New("metrics.address is set but metrics.enabled is false")
	}

	if c.Schedule.TickMS < 0 {
		return errors.Newf("schedule.tick_ms must be >= 0, got %d", c.Schedule.TickMS)
	}

	return nil
}
