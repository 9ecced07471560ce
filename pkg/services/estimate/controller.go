package estimate

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/de-tools/impact-atlas/pkg/adapters"
	"github.com/de-tools/impact-atlas/pkg/models/domain"
	storemodels "github.com/de-tools/impact-atlas/pkg/models/store"
	"github.com/de-tools/impact-atlas/pkg/services/aggregation"
	"github.com/de-tools/impact-atlas/pkg/services/config"
	"github.com/de-tools/impact-atlas/pkg/services/impact"
	"github.com/de-tools/impact-atlas/pkg/services/impact/shell"
	"github.com/rs/zerolog"
)

// LocationSource lists the usage locations accepted by the estimation service.
type LocationSource interface {
	SupportedLocations(ctx context.Context) ([]string, error)
}

// ResultSink persists calculated impacts.
type ResultSink interface {
	Add(ctx context.Context, records []storemodels.ImpactRecord) error
}

type Node struct {
	Name   string
	Model  string
	Metric domain.MetricType
}

// Calculation is the outcome of running a node over a batch of observations.
type Calculation struct {
	Node         string
	Model        string
	Observations []domain.Observation
	Results      []domain.ImpactResult
}

func (c *Calculation) Report(now time.Time) *domain.Report {
	return domain.NewImpactReport(c.Node, c.Model, c.Observations, c.Results, now)
}

type Controller interface {
	Nodes(ctx context.Context) ([]Node, error)
	Calculate(ctx context.Context, node string, observations []domain.Observation) (*Calculation, error)
	Persist(ctx context.Context, calc *Calculation) error
	Aggregate(ctx context.Context, records []domain.PluginRecord, metrics []string, methods map[string]string) (domain.AggregationResult, error)
	RunPlugin(ctx context.Context, records []domain.PluginRecord) ([]domain.PluginRecord, error)
	Locations(ctx context.Context) ([]string, error)
	Reload(settings *config.Settings)
}

type Options struct {
	Settings    *config.Settings
	Registry    impact.Registry
	Credentials config.CredentialRegistry
	Locations   LocationSource
	Sink        ResultSink
	Now         func() time.Time
}

type controller struct {
	mu       sync.RWMutex
	settings *config.Settings

	registry    impact.Registry
	credentials config.CredentialRegistry
	locations   LocationSource
	sink        ResultSink
	now         func() time.Time
}

func NewController(opts Options) (Controller, error) {
	if opts.Settings == nil {
		return nil, fmt.Errorf("%w: settings are required", domain.ErrConfiguration)
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("%w: model registry is required", domain.ErrConfiguration)
	}
	if opts.Credentials == nil {
		opts.Credentials = config.EmptyCredentialRegistry()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &controller{
		settings:    opts.Settings,
		registry:    opts.Registry,
		credentials: opts.Credentials,
		locations:   opts.Locations,
		sink:        opts.Sink,
		now:         opts.Now,
	}, nil
}

// Reload swaps the settings used by subsequent calls.
func (c *controller) Reload(settings *config.Settings) {
	if settings == nil {
		return
	}
	c.mu.Lock()
	c.settings = settings
	c.mu.Unlock()
}

func (c *controller) current() *config.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

func (c *controller) Nodes(ctx context.Context) ([]Node, error) {
	settings := c.current()

	nodes := make([]Node, 0, len(settings.Models))
	for _, m := range settings.Models {
		model, err := c.registry.Create(m.Model)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", m.Node, err)
		}
		nodes = append(nodes, Node{
			Name:   m.Node,
			Model:  m.Model,
			Metric: metricOf(model, m.StaticParams),
		})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	return nodes, nil
}

// metricOf reports the metric a node consumes without running the model's validation.
func metricOf(model impact.Model, params map[string]interface{}) domain.MetricType {
	if model.Identifier() == shell.Identifier {
		if m, ok := domain.StaticParams(params).String("metric"); ok {
			return domain.MetricType(m)
		}
	}
	return model.MetricType()
}

// model instantiates, authenticates and configures the model bound to node.
func (c *controller) model(ctx context.Context, node string) (impact.Model, config.ModelSettings, error) {
	settings, ok := c.current().Model(node)
	if !ok {
		return nil, settings, fmt.Errorf("%w: node %q is not configured", domain.ErrConfiguration, node)
	}

	model, err := c.registry.Create(settings.Model)
	if err != nil {
		return nil, settings, err
	}

	if settings.Profile != "" {
		creds, err := c.credentials.GetCredentials(ctx, settings.Profile)
		if err != nil {
			return nil, settings, fmt.Errorf("%w: node %s: %v", domain.ErrConfiguration, node, err)
		}
		model.Authenticate(creds)
	}

	configured, err := model.Configure(node, domain.StaticParams(settings.StaticParams).Clone())
	if err != nil {
		return nil, settings, fmt.Errorf("node %s: %w", node, err)
	}
	return configured, settings, nil
}

func (c *controller) Calculate(ctx context.Context, node string, observations []domain.Observation) (*Calculation, error) {
	logger := zerolog.Ctx(ctx).With().Str("node", node).Logger()

	model, settings, err := c.model(ctx, node)
	if err != nil {
		return nil, err
	}

	start := c.now()
	results, err := impact.Calculate(logger.WithContext(ctx), model, observations)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", node, err)
	}

	logger.Info().
		Str("model", settings.Model).
		Int("observations", len(observations)).
		Dur("elapsed", c.now().Sub(start)).
		Msg("impact calculated")

	return &Calculation{
		Node:         node,
		Model:        settings.Model,
		Observations: observations,
		Results:      results,
	}, nil
}

func (c *controller) Persist(ctx context.Context, calc *Calculation) error {
	if c.sink == nil {
		return fmt.Errorf("%w: no result sink configured", domain.ErrConfiguration)
	}
	if calc == nil || len(calc.Results) == 0 {
		return nil
	}

	now := c.now().UTC()
	records := make([]storemodels.ImpactRecord, 0, len(calc.Results))
	for i, result := range calc.Results {
		var obs domain.Observation
		if i < len(calc.Observations) {
			obs = calc.Observations[i]
		}
		records = append(records, adapters.MapImpactToStoreRecord(calc.Node, calc.Model, i, obs, result, now))
	}

	if err := c.sink.Add(ctx, records); err != nil {
		return fmt.Errorf("failed to persist results of node %s: %w", calc.Node, err)
	}
	return nil
}

// Aggregate folds records with the per-call methods layered over the configured ones.
// When metrics is empty the configured metric list is used.
func (c *controller) Aggregate(
	ctx context.Context,
	records []domain.PluginRecord,
	metrics []string,
	methods map[string]string,
) (domain.AggregationResult, error) {
	settings := c.current().Aggregation

	if len(metrics) == 0 {
		metrics = settings.Metrics
	}

	merged := make(map[string]string, len(settings.Methods)+len(methods))
	for k, v := range settings.Methods {
		merged[k] = v
	}
	for k, v := range methods {
		merged[k] = v
	}

	resolver, err := aggregation.ParseMethods(merged)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	result, err := aggregation.Aggregate(records, metrics, resolver)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Int("records", len(records)).
		Strs("metrics", metrics).
		Msg("records aggregated")
	return result, nil
}

func (c *controller) RunPlugin(ctx context.Context, records []domain.PluginRecord) ([]domain.PluginRecord, error) {
	settings := c.current().Plugin

	plugin, err := shell.NewPlugin(shell.Config{
		Command: settings.Command,
		Mapping: settings.Mapping,
		Timeout: settings.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return plugin.Execute(ctx, records)
}

func (c *controller) Locations(ctx context.Context) ([]string, error) {
	if c.locations == nil {
		return nil, fmt.Errorf("%w: no location source configured", domain.ErrConfiguration)
	}
	return c.locations.SupportedLocations(ctx)
}
