package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hexdance/hexdance/internal/analyzer"
	"github.com/hexdance/hexdance/internal/fixtures"
	"github.com/hexdance/hexdance/internal/format"
	"github.com/hexdance/hexdance/internal/input"
	"github.com/hexdance/hexdance/internal/report"
	"github.com/hexdance/hexdance/internal/utils"
)

const (
	exitOK        = 0
	exitFileError = 1
	exitUsage     = 2
)

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error { return &exitError{code: exitUsage, err: err} }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", ee.err)
		}
		return ee.code
	}
	// cobra argument and flag errors
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitUsage
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hexdance",
		Short: "Identify file formats and extract their symbols and metadata",
		Long: `hexdance sniffs the leading bytes of a file to identify its format, then
extracts what that format carries:

- Mach-O (thin and universal), PE and ELF: symbol names with a kind letter
- PNG, JPEG, GIF and PDF: header fields and document information
- ZIP: entry statistics and a directory tree

Damaged input never aborts a run. Unreadable structures are skipped and
files whose header cannot be read fall back to basic metadata.`,
		Version:       utils.GetVersionString(),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newFormatsCmd())
	cmd.AddCommand(newSamplesCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

type analyzeOptions struct {
	outputFormat string
	configFile   string
	recursive    bool
	verbose      bool
	noColor      bool
	workers      int
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze <path>...",
		Short: "Analyze files and print their format, symbols and metadata",
		Long: `Analyze classifies every file given and prints the extracted records.
Directories are walked with --recursive, honoring .gitignore files and
skipping hidden entries.

Exit codes:
  0 - All files were read
  1 - One or more files could not be read
  2 - Invalid arguments or configuration error`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outputFormat, "format", "f", "text", "Output format (text, json)")
	cmd.Flags().BoolVarP(&opts.recursive, "recursive", "r", false, "Walk directories")
	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "Configuration file path")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Number of parallel workers (0 = one per CPU)")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	return cmd
}

// configOverrides maps the flags set on the command line to config keys.
func configOverrides(cmd *cobra.Command, opts analyzeOptions) map[string]interface{} {
	overrides := make(map[string]interface{})
	flags := cmd.Flags()
	if flags.Changed("format") {
		overrides["output.format"] = opts.outputFormat
	}
	if flags.Changed("recursive") {
		overrides["analysis.recursive"] = opts.recursive
	}
	if flags.Changed("workers") {
		overrides["analysis.workers"] = opts.workers
	}
	if opts.noColor {
		overrides["output.color"] = "never"
	}
	if opts.verbose {
		overrides["log_level"] = string(utils.LogLevelDebug)
	}
	return overrides
}

func runAnalyze(cmd *cobra.Command, args []string, opts analyzeOptions) error {
	config, err := utils.LoadConfigFromFile(opts.configFile, configOverrides(cmd, opts))
	if err != nil {
		return usageError(fmt.Errorf("failed to load configuration: %w", err))
	}

	logger, err := utils.NewLoggerFromConfig(config, cmd.ErrOrStderr())
	if err != nil {
		return usageError(err)
	}
	log := logger.WithComponent(utils.ComponentCLI)

	paths, err := input.Expand(args, config.Analysis.Recursive)
	if err != nil {
		return usageError(err)
	}
	log.Debugf("Analyzing %d files", len(paths))

	ctx := utils.WithLogger(cmd.Context(), logger)
	reader := input.NewReader(config.Analysis.MmapThreshold, config.Analysis.MaxFileSize)
	batch := analyzer.NewBatch(analyzer.New(analyzer.DefaultRegistry(), logger), reader, config.Analysis.Workers)

	rep, runErr := batch.Run(ctx, paths)
	if rep != nil {
		if err := writeReport(cmd, rep, config.Output); err != nil {
			return &exitError{code: exitFileError, err: fmt.Errorf("failed to output results: %w", err)}
		}
	}
	if runErr != nil {
		return &exitError{code: exitFileError, err: runErr}
	}

	if rep.Summary.Errors > 0 {
		log.Errorf("%d of %d files could not be read", rep.Summary.Errors, rep.Summary.Total)
		return &exitError{code: exitFileError}
	}
	log.Infof("Analyzed %d files", rep.Summary.Total)
	return nil
}

func writeReport(cmd *cobra.Command, rep *analyzer.Report, out utils.OutputConfig) error {
	w := cmd.OutOrStdout()
	switch strings.ToLower(out.Format) {
	case "json":
		return report.JSON(w, rep)
	case "text":
		f, _ := w.(*os.File)
		return report.Text(w, rep, report.StylesFor(report.UseColor(f, out.Color)))
	default:
		return fmt.Errorf("unsupported output format: %s", out.Format)
	}
}

func newFormatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "formats",
		Short: "List supported formats and how they are recognized",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := analyzer.DefaultRegistry()
			var sigs []format.Signature
			for _, sig := range format.Signatures() {
				if _, ok := registry.Get(sig.Tag); ok {
					sigs = append(sigs, sig)
				}
			}

			w := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(sigs)
			}
			for _, sig := range sigs {
				fmt.Fprintf(w, "%-6s %-36s %s\n", sig.Tag, sig.Description, sig.Magic)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newSamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "samples <dir>",
		Short: "Write one small sample file per supported format",
		Long: `Samples writes a minimal, well-formed file for every supported format
plus an unrecognized text file into the given directory. The files are
useful to try analyze without real binaries at hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := fixtures.WriteSamples(args[0])
			if err != nil {
				return &exitError{code: exitFileError, err: err}
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := utils.GetBuildInfo()
			w := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			fmt.Fprintf(w, "hexdance version %s\n", info.Version)
			fmt.Fprintf(w, "Commit: %s\n", info.Commit)
			fmt.Fprintf(w, "Built: %s\n", info.Date)
			fmt.Fprintf(w, "Go: %s (%s)\n", info.GoVersion, info.Platform)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
