package impact

import (
	"context"

	"github.com/de-tools/impact-atlas/pkg/models/domain"
)

// Model turns transformed usage into an impact estimate.
type Model interface {
	// Identifier returns the registry identifier of the model, e.g. org.boavizta.cpu.sci
	Identifier() string
	// MetricType returns the observation key holding the utilisation this model consumes
	MetricType() domain.MetricType
	// Authenticate stores opaque credentials used by later calls
	Authenticate(credentials map[string]string)
	// Configure captures the static parameters once and returns the configured model
	Configure(name string, params domain.StaticParams) (Model, error)
	// FetchData estimates the impact of a single usage input
	FetchData(ctx context.Context, usage domain.UsageInput) (domain.ImpactResult, error)
}

// Locator is implemented by models whose static parameters carry a usage location.
type Locator interface {
	Location() string
}
