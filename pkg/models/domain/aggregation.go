package domain

import "fmt"

type AggregationMethod string

const (
	AggregationSum  AggregationMethod = "sum"
	AggregationAvg  AggregationMethod = "avg"
	AggregationNone AggregationMethod = "none"
)

func ParseAggregationMethod(s string) (AggregationMethod, error) {
	switch m := AggregationMethod(s); m {
	case AggregationSum, AggregationAvg, AggregationNone:
		return m, nil
	default:
		return "", fmt.Errorf("unknown aggregation method %q", s)
	}
}

// AggregationResult maps each requested metric to its aggregated value.
type AggregationResult map[string]float64
