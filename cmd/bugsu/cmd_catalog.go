package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the issue names a scan can discover",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string][]string{"issues": cfg.Simulation.Catalog})
			}
			for i, name := range cfg.Simulation.Catalog {
				fmt.Fprintf(cmd.OutOrStdout(), "%2d. %s\n", i+1, name)
			}
			return nil
		},
	}
}
