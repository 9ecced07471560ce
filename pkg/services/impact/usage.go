package impact

import "github.com/de-tools/impact-atlas/pkg/models/domain"

const (
	secondsPerHour = 3600.0
	percent        = 100.0
)

// TransformUsage converts a duration in seconds and a 0..1 utilisation into the estimation usage block.
func TransformUsage(durationSeconds, metric float64, location string) domain.UsageInput {
	return domain.UsageInput{
		HoursUseTime:  durationSeconds / secondsPerHour,
		TimeWorkload:  metric * percent,
		UsageLocation: location,
	}
}
