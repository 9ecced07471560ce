package impact

import (
	"context"
	"fmt"

	"github.com/de-tools/impact-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Calculate runs every observation through the model, one call at a time, and returns the
// results in input order. The first failing observation aborts the batch.
func Calculate(ctx context.Context, model Model, observations []domain.Observation) ([]domain.ImpactResult, error) {
	if observations == nil {
		return nil, fmt.Errorf("%w: expecting an array of observations", domain.ErrInvalidInput)
	}

	logger := zerolog.Ctx(ctx).With().Str("model", model.Identifier()).Logger()

	var location string
	if l, ok := model.(Locator); ok {
		location = l.Location()
	}

	results := make([]domain.ImpactResult, 0, len(observations))
	for i, observation := range observations {
		sample, err := observation.Sample(model.MetricType())
		if err != nil {
			return nil, fmt.Errorf("observation %d: %w", i, err)
		}

		usage := TransformUsage(sample.Duration, sample.Metric, location)
		logger.Debug().
			Int("index", i).
			Float64("hours_use_time", usage.HoursUseTime).
			Float64("time_workload", usage.TimeWorkload).
			Msg("fetching impact")

		result, err := model.FetchData(ctx, usage)
		if err != nil {
			return nil, fmt.Errorf("observation %d: %w", i, err)
		}
		results = append(results, result)
	}

	return results, nil
}
