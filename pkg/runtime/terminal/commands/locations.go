package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewLocationsCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "List the usage locations accepted by the estimation service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			rt, _, err := env.runtime(ctx, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			locations, err := rt.Controller.Locations(ctx)
			if err != nil {
				return fmt.Errorf("failed to list locations: %w", err)
			}

			for _, l := range locations {
				cmd.Println(l)
			}
			return nil
		},
	}
}

func NewNodesCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "nodes",
		Short: "List configured nodes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			rt, _, err := env.runtime(ctx, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			nodes, err := rt.Controller.Nodes(ctx)
			if err != nil {
				return err
			}

			for _, n := range nodes {
				cmd.Printf("%s\t%s\t%s\n", n.Name, n.Model, n.Metric)
			}
			return nil
		},
	}
}
