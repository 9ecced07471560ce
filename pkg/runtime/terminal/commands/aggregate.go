package commands

import (
	"fmt"

	"github.com/de-tools/impact-atlas/pkg/adapters"
	"github.com/de-tools/impact-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type AggregateCmd struct {
	env     *Env
	input   string
	metrics []string
	methods map[string]string
	upload  bool
}

func NewAggregateCmd(env *Env) *cobra.Command {
	ac := &AggregateCmd{env: env}
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate metrics over a list of records",
		RunE:  ac.run,
	}

	cmd.Flags().StringVarP(&ac.input, "input", "i", "-", "Records file (YAML or JSON), - for stdin")
	cmd.Flags().StringSliceVar(&ac.metrics, "metrics", nil, "Metrics to aggregate (defaults to aggregation.metrics)")
	cmd.Flags().StringToStringVar(&ac.methods, "method", nil, "Aggregation method per metric, e.g. energy=avg")
	cmd.Flags().BoolVar(&ac.upload, "upload", false, "Upload the rendered report to the export bucket")

	return cmd
}

func (ac *AggregateCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)

	doc, err := ac.env.readDocument(ac.input)
	if err != nil {
		return err
	}
	records, err := adapters.MapDocumentToRecords(doc)
	if err != nil {
		return err
	}

	rt, settings, err := ac.env.runtime(ctx, false)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close runtime")
		}
	}()

	result, err := rt.Controller.Aggregate(ctx, records, ac.metrics, ac.methods)
	if err != nil {
		return fmt.Errorf("failed to aggregate: %w", err)
	}

	return ac.env.emit(ctx, domain.NewAggregationReport(result, ac.env.Now()), settings, ac.upload, "aggregate")
}
