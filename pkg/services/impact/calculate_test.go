package impact

import (
	"context"
	"errors"
	"testing"

	"github.com/de-tools/impact-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockModel struct {
	mock.Mock
	location string
}

func (m *mockModel) Identifier() string              { return "test.model" }
func (m *mockModel) MetricType() domain.MetricType   { return domain.MetricTypeCPU }
func (m *mockModel) Authenticate(_ map[string]string) {}
func (m *mockModel) Location() string                 { return m.location }

func (m *mockModel) Configure(_ string, _ domain.StaticParams) (Model, error) {
	return m, nil
}

func (m *mockModel) FetchData(ctx context.Context, usage domain.UsageInput) (domain.ImpactResult, error) {
	args := m.Called(ctx, usage)
	return args.Get(0).(domain.ImpactResult), args.Error(1)
}

func observation(duration, cpu float64) domain.Observation {
	return domain.Observation{
		"datetime": "2024-01-01T00:00:00Z",
		"duration": duration,
		"cpu":      cpu,
	}
}

func TestCalculate_PreservesOrder(t *testing.T) {
	m := &mockModel{location: "FRA"}
	ctx := context.Background()

	m.On("FetchData", mock.Anything, domain.UsageInput{HoursUseTime: 1, TimeWorkload: 10, UsageLocation: "FRA"}).
		Return(domain.ImpactResult{Energy: 1, Embodied: 10}, nil)
	m.On("FetchData", mock.Anything, domain.UsageInput{HoursUseTime: 2, TimeWorkload: 50, UsageLocation: "FRA"}).
		Return(domain.ImpactResult{Energy: 2, Embodied: 20}, nil)
	m.On("FetchData", mock.Anything, domain.UsageInput{HoursUseTime: 0.5, TimeWorkload: 100, UsageLocation: "FRA"}).
		Return(domain.ImpactResult{Energy: 3, Embodied: 30}, nil)

	observations := []domain.Observation{
		observation(3600, 0.1),
		observation(7200, 0.5),
		observation(1800, 1),
	}

	results, err := Calculate(ctx, m, observations)
	require.NoError(t, err)
	require.Len(t, results, len(observations))
	assert.Equal(t, []domain.ImpactResult{
		{Energy: 1, Embodied: 10},
		{Energy: 2, Embodied: 20},
		{Energy: 3, Embodied: 30},
	}, results)
	m.AssertNumberOfCalls(t, "FetchData", 3)
}

func TestCalculate_EmptyBatch(t *testing.T) {
	results, err := Calculate(context.Background(), &mockModel{}, []domain.Observation{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCalculate_NilIsInvalidInput(t *testing.T) {
	_, err := Calculate(context.Background(), &mockModel{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "expecting an array of observations")
}

func TestCalculate_InvalidObservation(t *testing.T) {
	tests := []struct {
		name    string
		missing string
	}{
		{name: "missing duration", missing: "duration"},
		{name: "missing datetime", missing: "datetime"},
		{name: "missing metric", missing: "cpu"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockModel{}
			obs := observation(3600, 0.5)
			delete(obs, tt.missing)

			_, err := Calculate(context.Background(), m, []domain.Observation{obs})
			assert.ErrorIs(t, err, domain.ErrInvalidObservation)
			m.AssertNotCalled(t, "FetchData", mock.Anything, mock.Anything)
		})
	}
}

func TestCalculate_AbortsOnFetchError(t *testing.T) {
	m := &mockModel{}
	boom := errors.New("boom")
	m.On("FetchData", mock.Anything, mock.Anything).Return(domain.ImpactResult{}, boom).Once()

	results, err := Calculate(context.Background(), m, []domain.Observation{
		observation(3600, 0.5),
		observation(3600, 0.5),
	})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, results)
	m.AssertNumberOfCalls(t, "FetchData", 1)
}
