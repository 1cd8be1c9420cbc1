package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugsim"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/tui"
)

func newTUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the debug tool in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			debug, _ := cmd.Flags().GetBool("debug")

			sim := cfg.Simulation
			p := tea.NewProgram(
				tui.NewModel(tui.Options{
					Tunables: sim.Tunables,
					Catalog:  sim.Catalog,
					Random:   debugsim.NewRandom(sim.Seed),
					Debug:    debug,
				}),
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
			)

			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running program: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().Bool("debug", false, "Show the activity log panel")
	return cmd
}
