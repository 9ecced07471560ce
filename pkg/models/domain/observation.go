package domain

import (
	"fmt"
	"time"
)

const (
	ObservationDatetime = "datetime"
	ObservationDuration = "duration"
)

type MetricType string

const (
	MetricTypeCPU MetricType = "cpu"
	MetricTypeGPU MetricType = "gpu"
	MetricTypeRAM MetricType = "ram"
)

// Observation is a single time-bucketed usage row as read from a manifest or request body.
// Keys other than datetime, duration and the metric key are carried through untouched.
type Observation map[string]interface{}

// UsageSample is the validated view of an Observation for a given metric type.
type UsageSample struct {
	Datetime interface{}
	Duration float64 // seconds
	Metric   float64 // utilisation, 0..1
}

// Sample validates the observation against metric and returns its typed view.
func (o Observation) Sample(metric MetricType) (UsageSample, error) {
	datetime, ok := o[ObservationDatetime]
	if !ok || datetime == nil {
		return UsageSample{}, fmt.Errorf("%w: missing %q", ErrInvalidObservation, ObservationDatetime)
	}
	rawDuration, ok := o[ObservationDuration]
	if !ok {
		return UsageSample{}, fmt.Errorf("%w: missing %q", ErrInvalidObservation, ObservationDuration)
	}
	rawMetric, ok := o[string(metric)]
	if !ok {
		return UsageSample{}, fmt.Errorf("%w: missing %q", ErrInvalidObservation, metric)
	}

	duration, err := ToFloat(rawDuration)
	if err != nil {
		return UsageSample{}, fmt.Errorf("%w: %s: %v", ErrInvalidObservation, ObservationDuration, err)
	}
	if duration < 0 {
		return UsageSample{}, fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalidObservation, ObservationDuration, duration)
	}

	value, err := ToFloat(rawMetric)
	if err != nil {
		return UsageSample{}, fmt.Errorf("%w: %s: %v", ErrInvalidObservation, metric, err)
	}
	if value < 0 || value > 1 {
		return UsageSample{}, fmt.Errorf("%w: %s must be within [0,1], got %v", ErrInvalidObservation, metric, value)
	}

	return UsageSample{
		Datetime: datetime,
		Duration: duration,
		Metric:   value,
	}, nil
}

// Timestamp returns the observation datetime when it is a time value or an RFC 3339 string.
func (s UsageSample) Timestamp() (time.Time, bool) {
	switch v := s.Datetime.(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}

// UsageInput is the usage block sent to the estimation service.
type UsageInput struct {
	HoursUseTime  float64 `json:"hours_use_time" yaml:"hours_use_time"`
	TimeWorkload  float64 `json:"time_workload" yaml:"time_workload"`
	UsageLocation string  `json:"usage_location,omitempty" yaml:"usage_location,omitempty"`
}

// Record returns the usage as a plugin record.
func (u UsageInput) Record() PluginRecord {
	rec := PluginRecord{
		"hours_use_time": u.HoursUseTime,
		"time_workload":  u.TimeWorkload,
	}
	if u.UsageLocation != "" {
		rec["usage_location"] = u.UsageLocation
	}
	return rec
}
