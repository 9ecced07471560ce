package domain

import "time"

// Report is the printable outcome of a calculate or aggregate run.
type Report struct {
	Title       string            `json:"title" yaml:"title"`
	Node        string            `json:"node,omitempty" yaml:"node,omitempty"`
	Model       string            `json:"model,omitempty" yaml:"model,omitempty"`
	GeneratedAt time.Time         `json:"generated_at" yaml:"generated_at"`
	Rows        []ReportRow       `json:"rows,omitempty" yaml:"rows,omitempty"`
	Totals      AggregationResult `json:"totals" yaml:"totals"`
}

type ReportRow struct {
	Datetime interface{} `json:"datetime" yaml:"datetime"`
	Duration float64     `json:"duration" yaml:"duration"`
	Energy   float64     `json:"e" yaml:"e"`
	Embodied float64     `json:"m" yaml:"m"`
}

// NewImpactReport pairs each observation with its result and sums both phases into Totals.
func NewImpactReport(node, model string, observations []Observation, results []ImpactResult, now time.Time) *Report {
	report := &Report{
		Title:       "Impact estimate",
		Node:        node,
		Model:       model,
		GeneratedAt: now,
		Rows:        make([]ReportRow, 0, len(results)),
		Totals:      AggregationResult{"e": 0, "m": 0},
	}

	for i, r := range results {
		row := ReportRow{Energy: r.Energy, Embodied: r.Embodied}
		if i < len(observations) {
			row.Datetime = observations[i][ObservationDatetime]
			if d, err := ToFloat(observations[i][ObservationDuration]); err == nil {
				row.Duration = d
			}
		}
		report.Rows = append(report.Rows, row)
		report.Totals["e"] += r.Energy
		report.Totals["m"] += r.Embodied
	}
	return report
}

func NewAggregationReport(result AggregationResult, now time.Time) *Report {
	return &Report{
		Title:       "Aggregation",
		GeneratedAt: now,
		Totals:      result,
	}
}
