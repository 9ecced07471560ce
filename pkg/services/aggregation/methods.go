package aggregation

import (
	"fmt"

	"github.com/de-tools/impact-atlas/pkg/models/domain"
)

// MethodResolver resolves the aggregation method configured for a metric.
type MethodResolver interface {
	Method(metric string) domain.AggregationMethod
}

// Methods is a MethodResolver backed by a static table. Metrics without an entry are summed.
type Methods map[string]domain.AggregationMethod

func (m Methods) Method(metric string) domain.AggregationMethod {
	if method, ok := m[metric]; ok {
		return method
	}
	return domain.AggregationSum
}

// ParseMethods builds a Methods table from raw configuration values.
func ParseMethods(raw map[string]string) (Methods, error) {
	methods := make(Methods, len(raw))
	for metric, value := range raw {
		method, err := domain.ParseAggregationMethod(value)
		if err != nil {
			return nil, fmt.Errorf("metric %q: %w", metric, err)
		}
		methods[metric] = method
	}
	return methods, nil
}
