package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/extlink/internal/config"
	"github.com/nao1215/extlink/internal/model"
	"github.com/nao1215/extlink/internal/watch"
	"github.com/spf13/cobra"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [path...]",
		Short: "Annotate external links and keep annotating as files change",
		Long: `Watch annotates the given paths once, then keeps watching them and
annotates every HTML file that is created or rewritten, for example by
"mkdocs serve" or another generator running in watch mode.

Changes are debounced so a rebuild writing many files is handled in one
batch. Press Ctrl+C to stop.

Examples:
  # Watch the default "site" directory
  extlink watch

  # Watch a Hugo output directory, excluding drafts
  extlink watch public -x "drafts/**"`,
		Args: cobra.ArbitraryArgs,
		RunE: runWatchCmd,
	}

	addRunFlags(cmd)

	return cmd
}

// runWatchCmd executes the watch command.
func runWatchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runWatch(ctx, cfg, logger, cmd.OutOrStdout())
}

// runWatch runs one full pass and then watches until ctx is cancelled.
func runWatch(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer) error {
	finder, err := newFinder(cfg)
	if err != nil {
		return err
	}
	processor := newProcessor(cfg, logger)

	files, err := finder.Find(cfg.Paths)
	if err != nil {
		return err
	}

	initial := model.NewRunReport(cfg.Paths, cfg.DryRun)
	if err := processor.Run(ctx, initial, files); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	printBatch(stdout, initial)

	w, err := watch.New(cfg.Paths, finder, processor,
		watch.WithDebounce(cfg.Debounce),
		watch.WithDryRun(cfg.DryRun),
		watch.WithLogger(logger),
		watch.WithOnBatch(func(r *model.RunReport) { printBatch(stdout, r) }),
	)
	if err != nil {
		return err
	}
	w.Remember(initial.Pages)

	fmt.Fprintf(stdout, "Watching %v for changes (Ctrl+C to stop)\n", cfg.Paths)
	return w.Run(ctx)
}

// printBatch writes a one line summary of a batch.
func printBatch(out io.Writer, r *model.RunReport) {
	s := r.Summary()
	verb := "annotated"
	if r.DryRun {
		verb = "would annotate"
	}
	fmt.Fprintf(out, "%s: %d file(s) checked, %s %d link(s) in %d file(s)",
		r.StartedAt.Format("15:04:05"), s.Files, verb, s.Modified, s.FilesChanged)
	if s.FilesFailed > 0 {
		fmt.Fprintf(out, ", %d failed", s.FilesFailed)
	}
	fmt.Fprintln(out)

	for _, p := range r.FailedPages() {
		fmt.Fprintf(out, "  %s: %s\n", p.Path, p.ErrorMessage)
	}
}
