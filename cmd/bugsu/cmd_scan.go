package main

import (
	"fmt"
	"io"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugsim"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/tui"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/vulnscan"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <url>",
		Short: "Run a simulated vulnerability scan against a URL",
		Long: `Run a simulated vulnerability scan. No request is sent to the target;
the findings are fabricated after the configured delay.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			if cmd.Flags().Changed("delay") {
				cfg.Scanner.Delay, _ = cmd.Flags().GetDuration("delay")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals...)
			defer stop()

			scanner := vulnscan.New(vulnscan.Options{
				Delay:              cfg.Scanner.Delay,
				MaxVulnerabilities: cfg.Scanner.MaxVulnerabilities,
				Random:             debugsim.NewRandom(cfg.Simulation.Seed),
			})
			if !jsonOut {
				fmt.Fprintf(cmd.ErrOrStderr(), "Scanning %s...\n", args[0])
			}
			result, err := scanner.Scan(ctx, args[0])
			if err != nil {
				return fmt.Errorf("scan %s: %w", args[0], err)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			printScanResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().Duration("delay", 0, "Simulated scan time (overrides config)")
	return cmd
}

func printScanResult(w io.Writer, r vulnscan.Result) {
	fmt.Fprintln(w, tui.PanelTitleStyle.Render("Scan results for "+r.URL))
	fmt.Fprintln(w, tui.DimStyle.Render(fmt.Sprintf("%s · reported duration %ds",
		r.ScanDate.Format("2006-01-02 15:04:05"), r.DurationSeconds)))

	if len(r.Vulnerabilities) == 0 {
		fmt.Fprintln(w, tui.SuccessStyle.Render("✓ No vulnerabilities found"))
		return
	}
	fmt.Fprintf(w, "%d vulnerabilities found\n", len(r.Vulnerabilities))

	for _, v := range r.Vulnerabilities {
		var b strings.Builder
		b.WriteString(tui.SeverityStyle(v.Severity).Render(strings.ToUpper(v.Severity)))
		b.WriteString(" " + lipgloss.NewStyle().Bold(true).Render(v.Name))
		b.WriteString(tui.DimStyle.Render("  " + v.CWE))
		b.WriteString("\n" + v.Description)
		b.WriteString("\n" + tui.DimStyle.Render("URL: ") + v.AffectedURL)
		b.WriteString("\n" + tui.DimStyle.Render("Steps:"))
		for i, step := range v.StepsToReproduce {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, step))
		}
		b.WriteString("\n" + tui.DimStyle.Render("Suggestion: ") + v.ExploitSuggestion)
		if !v.IsLegal {
			b.WriteString("\n" + tui.ErrorStyle.Render("⚠ "+v.LegalNotes))
		}
		fmt.Fprintln(w, tui.PanelStyle.Render(b.String()))
	}
}
