package shell

import (
	"context"
	"fmt"
	"time"

	"github.com/de-tools/impact-atlas/pkg/models/domain"
	"github.com/de-tools/impact-atlas/pkg/services/impact"
)

const Identifier = "org.impact.shell"

const (
	paramMetric   = "metric"
	paramTimeout  = "timeout"
	paramMapping  = "mapping"
	paramLocation = "location"
)

// Model adapts a plugin executable to the impact model contract. Each usage input is sent as a
// single-record batch and the first output record is read as {e, m}.
type Model struct {
	name        string
	metric      domain.MetricType
	credentials map[string]string
	location    string
	plugin      *Plugin
}

var _ impact.Model = (*Model)(nil)

func NewModel() *Model {
	return &Model{metric: domain.MetricTypeCPU}
}

func (m *Model) Identifier() string {
	return Identifier
}

func (m *Model) MetricType() domain.MetricType {
	return m.metric
}

func (m *Model) Location() string {
	return m.location
}

func (m *Model) Authenticate(credentials map[string]string) {
	m.credentials = credentials
}

func (m *Model) Configure(name string, params domain.StaticParams) (impact.Model, error) {
	if params == nil {
		params = domain.StaticParams{}
	}
	if err := m.captureStaticParams(params); err != nil {
		return nil, err
	}
	m.name = name
	return m, nil
}

func (m *Model) captureStaticParams(params domain.StaticParams) error {
	command, ok := params.String(paramCommand)
	if !ok {
		return fmt.Errorf("%w: missing %s parameter", domain.ErrConfiguration, paramCommand)
	}

	cfg := Config{Command: command}

	if raw, ok := params[paramTimeout]; ok {
		d, err := parseDuration(raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrConfiguration, paramTimeout, err)
		}
		cfg.Timeout = d
	}

	if raw, ok := params[paramMapping]; ok {
		mapping, err := parseMapping(raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrConfiguration, paramMapping, err)
		}
		cfg.Mapping = mapping
	}

	if metric, ok := params.String(paramMetric); ok {
		switch mt := domain.MetricType(metric); mt {
		case domain.MetricTypeCPU, domain.MetricTypeGPU, domain.MetricTypeRAM:
			m.metric = mt
		default:
			return fmt.Errorf("%w: unknown metric %q", domain.ErrConfiguration, metric)
		}
	}

	plugin, err := NewPlugin(cfg)
	if err != nil {
		return err
	}

	m.location, _ = params.String(paramLocation)
	m.plugin = plugin
	return nil
}

func (m *Model) FetchData(ctx context.Context, usage domain.UsageInput) (domain.ImpactResult, error) {
	if m.plugin == nil {
		return domain.ImpactResult{}, fmt.Errorf("%w: missing configuration parameters", domain.ErrConfiguration)
	}

	outputs, err := m.plugin.Execute(ctx, []domain.PluginRecord{usage.Record()})
	if err != nil {
		return domain.ImpactResult{}, err
	}
	if len(outputs) == 0 {
		return domain.ImpactResult{}, &domain.ProcessError{
			Command: m.plugin.config.Command,
			Err:     fmt.Errorf("plugin returned no outputs"),
		}
	}

	out := outputs[0]
	energy, err := field(out, "e", "energy")
	if err != nil {
		return domain.ImpactResult{}, &domain.ProcessError{Command: m.plugin.config.Command, Err: err}
	}
	embodied, err := field(out, "m", "embodied")
	if err != nil {
		return domain.ImpactResult{}, &domain.ProcessError{Command: m.plugin.config.Command, Err: err}
	}

	return domain.ImpactResult{Energy: energy, Embodied: embodied}, nil
}

func field(rec domain.PluginRecord, keys ...string) (float64, error) {
	for _, k := range keys {
		if v, ok := rec[k]; ok {
			f, err := domain.ToFloat(v)
			if err != nil {
				return 0, fmt.Errorf("output field %s: %w", k, err)
			}
			return f, nil
		}
	}
	return 0, fmt.Errorf("output has none of %v", keys)
}

func parseDuration(v interface{}) (time.Duration, error) {
	switch d := v.(type) {
	case time.Duration:
		return d, nil
	case string:
		return time.ParseDuration(d)
	default:
		secs, err := domain.ToFloat(v)
		if err != nil {
			return 0, err
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
}

func parseMapping(v interface{}) (map[string]string, error) {
	out := make(map[string]string)
	switch m := v.(type) {
	case map[string]string:
		for k, val := range m {
			out[k] = val
		}
	case map[string]interface{}:
		for k, val := range m {
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("mapping for %q must be a string", k)
			}
			out[k] = s
		}
	default:
		return nil, fmt.Errorf("expected a mapping, got %T", v)
	}
	return out, nil
}
