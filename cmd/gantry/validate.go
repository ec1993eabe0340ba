package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gantryci/gantry/internal/config"
)

func newValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Parse and validate a pipeline definition without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := config.Load(configPath)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d stage(s), %d parameter(s)\n",
				pipeline.Name, len(pipeline.Stages), len(pipeline.Parameters))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to pipeline definition")
	cmd.MarkFlagRequired("config") //nolint:errcheck

	return cmd
}
