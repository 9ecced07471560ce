package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservation_Sample(t *testing.T) {
	tests := []struct {
		name        string
		observation Observation
		metric      MetricType
		want        UsageSample
		wantErr     bool
	}{
		{
			name:        "valid",
			observation: Observation{"datetime": "2024-01-01T00:00:00Z", "duration": 3600, "cpu": 0.5},
			metric:      MetricTypeCPU,
			want:        UsageSample{Datetime: "2024-01-01T00:00:00Z", Duration: 3600, Metric: 0.5},
		},
		{
			name:        "json numbers",
			observation: Observation{"datetime": "2024-01-01T00:00:00Z", "duration": json.Number("60"), "ram": json.Number("1")},
			metric:      MetricTypeRAM,
			want:        UsageSample{Datetime: "2024-01-01T00:00:00Z", Duration: 60, Metric: 1},
		},
		{
			name:        "missing datetime",
			observation: Observation{"duration": 3600, "cpu": 0.5},
			metric:      MetricTypeCPU,
			wantErr:     true,
		},
		{
			name:        "missing metric",
			observation: Observation{"datetime": "x", "duration": 3600, "cpu": 0.5},
			metric:      MetricTypeGPU,
			wantErr:     true,
		},
		{
			name:        "negative duration",
			observation: Observation{"datetime": "x", "duration": -1, "cpu": 0.5},
			metric:      MetricTypeCPU,
			wantErr:     true,
		},
		{
			name:        "utilisation above one",
			observation: Observation{"datetime": "x", "duration": 1, "cpu": 50},
			metric:      MetricTypeCPU,
			wantErr:     true,
		},
		{
			name:        "non numeric metric",
			observation: Observation{"datetime": "x", "duration": 1, "cpu": "high"},
			metric:      MetricTypeCPU,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.observation.Sample(tt.metric)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidObservation), "expected ErrInvalidObservation, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUsageSample_Timestamp(t *testing.T) {
	ts, ok := UsageSample{Datetime: "2024-01-01T10:00:00Z"}.Timestamp()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), ts)

	now := time.Now()
	ts, ok = UsageSample{Datetime: now}.Timestamp()
	require.True(t, ok)
	assert.Equal(t, now, ts)

	_, ok = UsageSample{Datetime: "yesterday"}.Timestamp()
	assert.False(t, ok)
}

func TestUsageInput_Record(t *testing.T) {
	assert.Equal(t,
		PluginRecord{"hours_use_time": 1.0, "time_workload": 50.0},
		UsageInput{HoursUseTime: 1, TimeWorkload: 50}.Record())

	assert.Equal(t,
		PluginRecord{"hours_use_time": 1.0, "time_workload": 50.0, "usage_location": "FRA"},
		UsageInput{HoursUseTime: 1, TimeWorkload: 50, UsageLocation: "FRA"}.Record())
}

func TestToFloat(t *testing.T) {
	for _, v := range []interface{}{2, int64(2), uint(2), float32(2), 2.0, json.Number("2"), " 2 "} {
		f, err := ToFloat(v)
		require.NoError(t, err, "%T", v)
		assert.Equal(t, 2.0, f)
	}

	for _, v := range []interface{}{nil, "two", true, []int{2}} {
		_, err := ToFloat(v)
		assert.Error(t, err, "%T", v)
	}
}

func TestErrors(t *testing.T) {
	missing := &MetricMissingError{Metric: "energy", Index: 2}
	assert.ErrorIs(t, missing, ErrAggregation)
	assert.Equal(t, `invalid aggregation parameters: metric "energy" is missing from input at index 2`, missing.Error())

	cause := errors.New("exit status 3")
	procErr := &ProcessError{Command: "estimator", ExitCode: 3, Stderr: "boom", Err: cause}
	assert.ErrorIs(t, procErr, ErrProcessExecution)
	assert.ErrorIs(t, procErr, cause)
	assert.Equal(t, "process execution failed: estimator: exit status 3: boom", procErr.Error())
}

func TestNewImpactReport(t *testing.T) {
	now := time.Now()
	report := NewImpactReport("n", "m",
		[]Observation{{"datetime": "a", "duration": 60}, {"datetime": "b", "duration": "bad"}},
		[]ImpactResult{{Energy: 1, Embodied: 2}, {Energy: 3, Embodied: 4}},
		now)

	require.Len(t, report.Rows, 2)
	assert.Equal(t, 60.0, report.Rows[0].Duration)
	assert.Zero(t, report.Rows[1].Duration)
	assert.Equal(t, AggregationResult{"e": 4, "m": 6}, report.Totals)
}
