package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/extlink/internal/annotator"
	"github.com/nao1215/extlink/internal/config"
	extlog "github.com/nao1215/extlink/internal/log"
	"github.com/nao1215/extlink/internal/model"
	"github.com/nao1215/extlink/internal/pipeline"
	"github.com/nao1215/extlink/internal/report"
	"github.com/nao1215/extlink/internal/site"
	"github.com/spf13/cobra"
)

// errFilesFailed is returned when at least one file could not be processed.
var errFilesFailed = errors.New("some files could not be processed")

// NewAnnotateCmd creates the annotate command.
func NewAnnotateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "annotate [path...]",
		Short: "Annotate external links in built HTML files",
		Long: `Annotate rewrites HTML files so that every link whose href contains
"https://" or "http://" opens in a new tab, with target="_blank" and
rel="noreferrer nofollow noopener".

Each path may be a directory, which is searched recursively for HTML files,
or a single file. When no path is given, the "site" directory is used.

Examples:
  # Annotate the default MkDocs output directory
  extlink annotate

  # Annotate two build directories, skipping generated API docs
  extlink annotate public/ docs/_build/html -x "api/**"

  # Show what would change without writing anything
  extlink annotate -n

  # Write a Markdown report for a CI job summary
  extlink annotate -m -o report.md`,
		Args: cobra.ArbitraryArgs,
		RunE: runAnnotateCmd,
	}

	addRunFlags(cmd)

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// addRunFlags registers the flags shared by annotate and watch.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("dry-run", "n", false,
		"Report what would change without writing files")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .extlink in current, XDG config or home directory)")
	cmd.Flags().IntP("concurrency", "p", config.DefaultConcurrency(),
		"Number of files processed at the same time")
	cmd.Flags().StringArrayP("exclude", "x", nil,
		"Glob pattern of files to skip, relative to each path (repeatable)")
}

// runAnnotateCmd executes the annotate command.
func runAnnotateCmd(cmd *cobra.Command, args []string) error {
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

	return runAnnotate(ctx, cfg, logger, cmd.OutOrStdout())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from defaults, the configuration file and
// the command flags, in that order. Report flags are read only when the
// command defines them.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly requested file must exist. Otherwise a missing file
	// just means defaults.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(file)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if flags.Changed("concurrency") {
		cfg.Concurrency, err = flags.GetInt("concurrency")
		if err != nil {
			return nil, err
		}
	}

	exclude, err := flags.GetStringArray("exclude")
	if err != nil {
		return nil, err
	}
	cfg.Exclude = append(cfg.Exclude, exclude...)

	cfg.DryRun, err = flags.GetBool("dry-run")
	if err != nil {
		return nil, err
	}

	if flags.Lookup("json") != nil {
		if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
			return nil, err
		}
		if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
			return nil, err
		}
		if cfg.ReportFile, err = flags.GetString("output"); err != nil {
			return nil, err
		}
	}

	cfg.Verbose = getVerboseFlag(cmd)

	cfg.Paths = args
	if len(cfg.Paths) == 0 {
		cfg.Paths = []string{config.DefaultPath}
	}

	return cfg, nil
}

// setupLogger creates a structured logger that redacts secrets, such as
// tokens in link query strings, from its output.
func setupLogger(verbose bool) *slog.Logger {
	return extlog.NewSecureLogger(os.Stderr, verbose)
}

// newFinder creates the file selector described by cfg.
func newFinder(cfg *config.Config) (*site.Finder, error) {
	return site.NewFinder(
		site.WithExtensions(cfg.NormalizedExtensions()...),
		site.WithExclude(cfg.Exclude...),
	)
}

// newProcessor creates the batch processor described by cfg.
func newProcessor(cfg *config.Config, logger *slog.Logger) *pipeline.BatchProcessor {
	ann := annotator.New(annotator.WithLogger(logger))
	factory := func() *pipeline.Pipeline {
		return pipeline.NewDefaultPipeline(
			pipeline.WithPipelineMaxFileSize(cfg.MaxFileSize),
			pipeline.WithPipelineDryRun(cfg.DryRun),
			pipeline.WithPipelineLogger(logger),
			pipeline.WithPipelineAnnotator(ann),
		)
	}
	return pipeline.NewBatchProcessor(factory,
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)
}

// runAnnotate discovers the files, processes them and writes the report.
func runAnnotate(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer) error {
	finder, err := newFinder(cfg)
	if err != nil {
		return err
	}

	files, err := finder.Find(cfg.Paths)
	if err != nil {
		return err
	}
	logger.Info("discovered files", "paths", cfg.Paths, "files", len(files))

	runReport := model.NewRunReport(cfg.Paths, cfg.DryRun)
	runErr := newProcessor(cfg, logger).Run(ctx, runReport, files)

	if err := outputReport(cfg, runReport, stdout); err != nil {
		return err
	}

	if runErr != nil {
		return fmt.Errorf("run interrupted: %w", runErr)
	}
	if failed := runReport.FailedPages(); len(failed) > 0 {
		return fmt.Errorf("%w: %d of %d", errFilesFailed, len(failed), len(runReport.Pages))
	}
	return nil
}

// outputReport outputs the run report in the requested format.
func outputReport(cfg *config.Config, runReport *model.RunReport, stdout io.Writer) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(runReport)
	return err
}
