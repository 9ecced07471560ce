package export

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/de-tools/impact-atlas/pkg/models/domain"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const metricPrefix = "impact_"

var invalidMetricChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// renderPrometheus writes the report totals in the text exposition format, one gauge per total.
func renderPrometheus(report *domain.Report) ([]byte, error) {
	var labels []*dto.LabelPair
	if report.Node != "" {
		labels = append(labels, labelPair("node", report.Node))
	}
	if report.Model != "" {
		labels = append(labels, labelPair("model", report.Model))
	}

	var buf bytes.Buffer
	for _, key := range sortedKeys(report.Totals) {
		family := &dto.MetricFamily{
			Name: strPtr(metricName(key)),
			Help: strPtr(fmt.Sprintf("%s total of %q", report.Title, key)),
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{
				Label: labels,
				Gauge: &dto.Gauge{Value: float64Ptr(report.Totals[key])},
			}},
		}
		if _, err := expfmt.MetricFamilyToText(&buf, family); err != nil {
			return nil, fmt.Errorf("failed to encode metric %s: %w", key, err)
		}
	}

	if len(report.Rows) > 0 {
		family := &dto.MetricFamily{
			Name: strPtr(metricPrefix + "observations"),
			Help: strPtr("Number of observations in the report"),
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{
				Label: labels,
				Gauge: &dto.Gauge{Value: float64Ptr(float64(len(report.Rows)))},
			}},
		}
		if _, err := expfmt.MetricFamilyToText(&buf, family); err != nil {
			return nil, fmt.Errorf("failed to encode observations metric: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// metricName maps a record key such as "e" or "cpu-energy" onto a valid metric name.
func metricName(key string) string {
	switch key {
	case "e":
		return metricPrefix + "energy_kwh"
	case "m":
		return metricPrefix + "embodied_gco2eq"
	}
	return metricPrefix + invalidMetricChars.ReplaceAllString(key, "_")
}

func labelPair(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: strPtr(name), Value: strPtr(value)}
}

func strPtr(s string) *string { return &s }

func float64Ptr(f float64) *float64 { return &f }
