package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugsim"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugtool"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/eventloop"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/logging"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one debug session headless and print its progress",
		Long: `Run one scan and fix cycle without a UI. Stage changes, discovered
issues and fixes are printed as they happen. The command fails if the
run ends in an error.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			if cmd.Flags().Changed("seed") {
				cfg.Simulation.Seed, _ = cmd.Flags().GetUint64("seed")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals...)
			defer stop()

			sim := cfg.Simulation
			opts := runOptions{
				Tunables: sim.Tunables,
				Catalog:  sim.Catalog,
				Random:   debugsim.NewRandom(sim.Seed),
			}
			if !jsonOut {
				opts.Out = cmd.OutOrStdout()
			}

			snap, err := runHeadless(ctx, opts)
			if err != nil {
				return err
			}
			if jsonOut {
				if err := writeJSON(cmd.OutOrStdout(), snap); err != nil {
					return err
				}
			} else {
				printSummary(cmd.OutOrStdout(), snap)
			}
			if snap.Stage == debugsim.StageError {
				return fmt.Errorf("run failed: %s", snap.Error)
			}
			return nil
		},
	}
	cmd.Flags().Uint64("seed", 0, "Random seed (0 picks one)")
	return cmd
}

type runOptions struct {
	Tunables debugsim.Tunables
	Catalog  []string
	Random   debugsim.Random
	// Out receives one line per engine event; nil keeps the run quiet.
	Out io.Writer
}

// runHeadless starts a session on its own event loop and returns the
// snapshot it ends in.
func runHeadless(ctx context.Context, opts runOptions) (debugtool.Snapshot, error) {
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	loop := eventloop.New(16, logging.Discard())
	go loop.Run(loopCtx)

	var observer debugsim.Observer = debugsim.NopObserver{}
	if opts.Out != nil {
		observer = &eventPrinter{w: opts.Out, start: time.Now()}
	}
	engine := debugsim.NewEngine(loop,
		debugsim.WithTunables(opts.Tunables),
		debugsim.WithCatalog(opts.Catalog),
		debugsim.WithRandom(opts.Random),
		debugsim.WithObserver(observer),
	)

	done := make(chan debugtool.Snapshot, 1)
	var ctrl *debugtool.Controller
	err := loop.Do(ctx, func() {
		ctrl = debugtool.New(engine,
			debugtool.WithLogger(logging.Discard()),
			debugtool.OnChange(func(s debugtool.Snapshot) {
				if s.Stage.IsTerminal() {
					select {
					case done <- s:
					default:
					}
				}
			}),
		)
		ctrl.Start()
	})
	if err != nil {
		return debugtool.Snapshot{}, fmt.Errorf("start run: %w", err)
	}

	select {
	case snap := <-done:
		return snap, nil
	case <-ctx.Done():
		// Stop the tickers before the loop goes away.
		_ = loop.Do(context.Background(), ctrl.Reset)
		return debugtool.Snapshot{}, fmt.Errorf("run interrupted: %w", context.Cause(ctx))
	}
}

// eventPrinter writes engine events as plain lines. It runs on the loop
// goroutine only.
type eventPrinter struct {
	w     io.Writer
	start time.Time
}

func (p *eventPrinter) printf(format string, args ...any) {
	fmt.Fprintf(p.w, "%7.2fs  "+format+"\n", append([]any{time.Since(p.start).Seconds()}, args...)...)
}

func (p *eventPrinter) StageChanged(_ string, from, to debugsim.Stage) {
	p.printf("stage    %s -> %s", from, to)
}

func (p *eventPrinter) IssueDiscovered(_ string, issue debugsim.Issue) {
	p.printf("found    %s", issue.Name)
}

func (p *eventPrinter) IssueFixed(_ string, issue debugsim.Issue, forced bool) {
	if forced {
		p.printf("closed   %s", issue.Name)
		return
	}
	p.printf("fixed    %s", issue.Name)
}

func (p *eventPrinter) FaultInjected(_ string, phase debugsim.Stage, message string) {
	p.printf("fault    %s: %s", phase, message)
}

func printSummary(w io.Writer, snap debugtool.Snapshot) {
	switch snap.Stage {
	case debugsim.StageComplete:
		fmt.Fprintf(w, "\nDebugging complete: %d issues fixed in %.1fs\n",
			snap.FixedCount(), snap.Elapsed(snap.FinishedAt).Seconds())
	case debugsim.StageError:
		fmt.Fprintf(w, "\nRun failed: %s (%d of %d issues fixed)\n",
			snap.Error, snap.FixedCount(), len(snap.Issues))
	}
}
