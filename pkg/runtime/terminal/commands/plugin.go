package commands

import (
	"fmt"

	"github.com/de-tools/impact-atlas/pkg/adapters"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type PluginCmd struct {
	env   *Env
	input string
}

func NewPluginCmd(env *Env) *cobra.Command {
	pc := &PluginCmd{env: env}
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Run the configured plugin executable over a batch of records",
		RunE:  pc.run,
	}

	cmd.Flags().StringVarP(&pc.input, "input", "i", "-", "Records file (YAML or JSON), - for stdin")

	return cmd
}

func (pc *PluginCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	doc, err := pc.env.readDocument(pc.input)
	if err != nil {
		return err
	}
	records, err := adapters.MapDocumentToRecords(doc)
	if err != nil {
		return err
	}

	rt, _, err := pc.env.runtime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	outputs, err := rt.Controller.RunPlugin(ctx, records)
	if err != nil {
		return fmt.Errorf("plugin failed: %w", err)
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(outputs); err != nil {
		return fmt.Errorf("failed to encode plugin outputs: %w", err)
	}
	return enc.Close()
}
