package aggregation

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/apd/v3"
	"github.com/de-tools/impact-atlas/pkg/models/domain"
)

const precision = 34

// Aggregate folds the requested metrics of every record into a single value per metric.
// A metric configured with the "none" method rejects the whole call before any record is read.
func Aggregate(
	records []domain.PluginRecord,
	metrics []string,
	resolver MethodResolver,
) (domain.AggregationResult, error) {
	metrics = unique(metrics)

	methods := make(map[string]domain.AggregationMethod, len(metrics))
	for _, metric := range metrics {
		method := resolver.Method(metric)
		if method == domain.AggregationNone {
			return nil, fmt.Errorf("%w: aggregation method %q is not supported for metric %q",
				domain.ErrAggregation, method, metric)
		}
		methods[metric] = method
	}

	ctx := apd.BaseContext.WithPrecision(precision)
	sums := make(map[string]*apd.Decimal, len(metrics))
	for _, metric := range metrics {
		sums[metric] = new(apd.Decimal)
	}

	for index, record := range records {
		for _, metric := range metrics {
			raw, ok := record[metric]
			if !ok {
				return nil, &domain.MetricMissingError{Metric: metric, Index: index}
			}

			value, err := toDecimal(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: metric %q at index %d: %v", domain.ErrAggregation, metric, index, err)
			}

			if _, err := ctx.Add(sums[metric], sums[metric], value); err != nil {
				return nil, fmt.Errorf("%w: metric %q at index %d: %v", domain.ErrAggregation, metric, index, err)
			}
		}
	}

	result := make(domain.AggregationResult, len(metrics))
	count := apd.New(int64(len(records)), 0)
	for _, metric := range metrics {
		total := sums[metric]
		if methods[metric] == domain.AggregationAvg && len(records) > 0 {
			if _, err := ctx.Quo(total, total, count); err != nil {
				return nil, fmt.Errorf("%w: metric %q: %v", domain.ErrAggregation, metric, err)
			}
		}

		f, err := total.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: metric %q: %v", domain.ErrAggregation, metric, err)
		}
		result[metric] = f
	}

	return result, nil
}

func toDecimal(v interface{}) (*apd.Decimal, error) {
	switch s := v.(type) {
	case string:
		return parseDecimal(s)
	case json.Number:
		return parseDecimal(s.String())
	}

	f, err := domain.ToFloat(v)
	if err != nil {
		return nil, err
	}
	d := new(apd.Decimal)
	if _, err := d.SetFloat64(f); err != nil {
		return nil, err
	}
	return d, nil
}

func parseDecimal(s string) (*apd.Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", s)
	}
	return d, nil
}

func unique(metrics []string) []string {
	seen := make(map[string]struct{}, len(metrics))
	out := make([]string, 0, len(metrics))
	for _, m := range metrics {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
