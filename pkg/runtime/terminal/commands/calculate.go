package commands

import (
	"fmt"

	"github.com/de-tools/impact-atlas/pkg/adapters"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type CalculateCmd struct {
	env     *Env
	node    string
	input   string
	persist bool
	upload  bool
}

func NewCalculateCmd(env *Env) *cobra.Command {
	cc := &CalculateCmd{env: env}
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Estimate the impact of a node over a list of observations",
		RunE:  cc.run,
	}

	cmd.Flags().StringVar(&cc.node, "node", "", "Configured node to run")
	cmd.Flags().StringVarP(&cc.input, "input", "i", "-", "Observations file (YAML or JSON), - for stdin")
	cmd.Flags().BoolVar(&cc.persist, "sink", false, "Persist results to the configured warehouse")
	cmd.Flags().BoolVar(&cc.upload, "upload", false, "Upload the rendered report to the export bucket")

	_ = cmd.MarkFlagRequired("node")

	return cmd
}

func (cc *CalculateCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)

	doc, err := cc.env.readDocument(cc.input)
	if err != nil {
		return err
	}
	observations, err := adapters.MapDocumentToObservations(doc)
	if err != nil {
		return err
	}

	rt, settings, err := cc.env.runtime(ctx, cc.persist)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close runtime")
		}
	}()

	calc, err := rt.Controller.Calculate(ctx, cc.node, observations)
	if err != nil {
		return fmt.Errorf("failed to calculate impact: %w", err)
	}

	if cc.persist {
		if err := rt.Controller.Persist(ctx, calc); err != nil {
			return err
		}
	}

	return cc.env.emit(ctx, calc.Report(cc.env.Now()), settings, cc.upload, cc.node)
}
