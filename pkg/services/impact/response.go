package impact

import (
	"fmt"

	"github.com/de-tools/impact-atlas/pkg/models/domain"
)

const (
	gramsPerKilogram = 1000.0
	megajoulesPerKWh = 3.6
)

// FormatResponse extracts the manufacture GWP (kgCO2eq) and use-phase primary energy (MJ) from an
// estimation response and converts them to gCO2eq and kWh. Both the nested "impacts" shape and
// the flat shape are accepted. When neither is present the response is rejected, unless lenient
// is set, in which case a zero result is returned.
func FormatResponse(body map[string]interface{}, lenient bool) (domain.ImpactResult, error) {
	impacts, ok := asMap(body["impacts"])
	if !ok {
		_, hasGWP := body["gwp"]
		_, hasPE := body["pe"]
		if !hasGWP || !hasPE {
			if lenient {
				return domain.ImpactResult{}, nil
			}
			return domain.ImpactResult{}, fmt.Errorf("%w: neither impacts nor gwp/pe present", domain.ErrUnexpectedResponse)
		}
		impacts = body
	}

	manufacture, err := lookup(impacts, "gwp", "manufacture")
	if err != nil {
		return domain.ImpactResult{}, err
	}
	use, err := lookup(impacts, "pe", "use")
	if err != nil {
		return domain.ImpactResult{}, err
	}

	return domain.ImpactResult{
		Embodied: manufacture * gramsPerKilogram,
		Energy:   use / megajoulesPerKWh,
	}, nil
}

// lookup reads impacts[criteria][phase]. Verbose responses wrap values as {"value": ...}.
func lookup(impacts map[string]interface{}, criteria, phase string) (float64, error) {
	section, ok := asMap(impacts[criteria])
	if !ok {
		return 0, fmt.Errorf("%w: %s is not an object", domain.ErrUnexpectedResponse, criteria)
	}
	raw, ok := section[phase]
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s is missing", domain.ErrUnexpectedResponse, criteria, phase)
	}
	if wrapped, ok := asMap(raw); ok {
		raw = wrapped["value"]
	}
	v, err := domain.ToFloat(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s.%s: %v", domain.ErrUnexpectedResponse, criteria, phase, err)
	}
	return v, nil
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case domain.PluginRecord:
		return m, true
	default:
		return nil, false
	}
}
