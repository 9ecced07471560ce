package boavizta

import (
	"context"
	"fmt"
	"strconv"

	"github.com/de-tools/impact-atlas/pkg/models/domain"
	"github.com/de-tools/impact-atlas/pkg/services/impact"
)

const (
	CPUIdentifier = "org.boavizta.cpu.sci"
	RAMIdentifier = "org.boavizta.ram.sci"

	paramName       = "name"
	paramVerbose    = "verbose"
	paramAllocation = "allocation"
	paramLocation   = "location"
	paramUsage      = "usage"
)

type component struct {
	identifier string
	kind       string
	countField string
	metric     domain.MetricType
}

var (
	cpuComponent = component{
		identifier: CPUIdentifier,
		kind:       "cpu",
		countField: "core_units",
		metric:     domain.MetricTypeCPU,
	}
	ramComponent = component{
		identifier: RAMIdentifier,
		kind:       "ram",
		countField: "units",
		metric:     domain.MetricTypeRAM,
	}
)

type Option func(*ComponentModel)

// WithLenientResponse keeps the legacy behaviour of reporting a zero impact when the response
// matches neither known shape.
func WithLenientResponse(lenient bool) Option {
	return func(m *ComponentModel) {
		m.lenient = lenient
	}
}

// ComponentModel estimates the impact of one hardware component through the component endpoint.
type ComponentModel struct {
	client    *Client
	component component
	lenient   bool

	name         string
	credentials  map[string]string
	sharedParams domain.StaticParams
	verbose      bool
	allocation   string
}

var _ impact.Model = (*ComponentModel)(nil)

func NewCPUModel(client *Client, opts ...Option) *ComponentModel {
	return newComponentModel(client, cpuComponent, opts...)
}

func NewRAMModel(client *Client, opts ...Option) *ComponentModel {
	return newComponentModel(client, ramComponent, opts...)
}

func newComponentModel(client *Client, c component, opts ...Option) *ComponentModel {
	m := &ComponentModel{
		client:     client,
		component:  c,
		allocation: DefaultAllocation,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *ComponentModel) Identifier() string {
	return m.component.identifier
}

func (m *ComponentModel) MetricType() domain.MetricType {
	return m.component.metric
}

func (m *ComponentModel) Name() string {
	return m.name
}

func (m *ComponentModel) Authenticate(credentials map[string]string) {
	m.credentials = credentials
}

func (m *ComponentModel) Configure(name string, params domain.StaticParams) (impact.Model, error) {
	if params == nil {
		params = domain.StaticParams{}
	}
	shared, err := m.captureStaticParams(params)
	if err != nil {
		return nil, err
	}
	m.name = name
	m.sharedParams = shared
	return m, nil
}

func (m *ComponentModel) Location() string {
	loc, _ := m.sharedParams.String(paramLocation)
	return loc
}

func (m *ComponentModel) captureStaticParams(params domain.StaticParams) (domain.StaticParams, error) {
	shared := params.Clone()

	verbose := false
	if raw, ok := shared[paramVerbose]; ok {
		v, err := parseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: verbose: %v", domain.ErrConfiguration, err)
		}
		verbose = v
		delete(shared, paramVerbose)
	}

	allocation := DefaultAllocation
	if a, ok := shared.String(paramAllocation); ok {
		allocation = a
	}
	delete(shared, paramAllocation)

	if !shared.Has(paramName) {
		return nil, fmt.Errorf("%w: missing %s parameter", domain.ErrConfiguration, paramName)
	}
	if !shared.Has(m.component.countField) {
		return nil, fmt.Errorf("%w: missing %s parameter", domain.ErrConfiguration, m.component.countField)
	}

	m.verbose = verbose
	m.allocation = allocation
	return shared, nil
}

func (m *ComponentModel) FetchData(ctx context.Context, usage domain.UsageInput) (domain.ImpactResult, error) {
	if m.sharedParams == nil {
		return domain.ImpactResult{}, fmt.Errorf("%w: missing configuration parameters", domain.ErrConfiguration)
	}

	payload := m.sharedParams.Clone()
	payload[paramUsage] = usage

	body, err := m.client.Component(ctx, ComponentRequest{
		Component:  m.component.kind,
		Verbose:    m.verbose,
		Allocation: m.allocation,
		Payload:    payload,
		Token:      m.credentials["token"],
	})
	if err != nil {
		return domain.ImpactResult{}, err
	}

	return impact.FormatResponse(body, m.lenient)
}

func parseBool(v interface{}) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(b)
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}
