package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/ferroxide/ferroxide/internal/clock"
	"github.com/ferroxide/ferroxide/internal/config"
	"github.com/ferroxide/ferroxide/internal/logging"
	"github.com/ferroxide/ferroxide/internal/styles"
	"github.com/ferroxide/ferroxide/internal/util"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View the log file",
	Long: `View and filter logs.txt.

By default, shows the last 50 records. Use flags to filter the output.

Examples:
  # Show the last 50 records
  ferroxide logs

  # Show everything
  ferroxide logs -n 0

  # Follow logs in real-time
  ferroxide logs -f

  # Only warnings and errors from HTTP targets
  ferroxide logs --level warn --target "http*"

  # Records from the last hour matching a pattern
  ferroxide logs --since 1h --grep "timeout|refused"`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var logsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export log records as json, text or csv",
	Args:  cobra.NoArgs,
	RunE:  runLogsExport,
}

var (
	logsTail     int
	logsFollow   bool
	logsLevel    string
	logsTarget   string
	logsSince    string
	logsGrep     string
	logsTruncate bool

	exportFormat string
	exportOutput string
)

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(logsExportCmd)

	filterFlags := logsCmd.PersistentFlags()
	filterFlags.StringVar(&logsLevel, "level", "", "Filter by minimum level (error/warn/info/debug/trace)")
	filterFlags.StringVar(&logsTarget, "target", "", "Filter by target prefix or glob (e.g. http, *.cors)")
	filterFlags.StringVar(&logsSince, "since", "", "Show records since duration ago (e.g., 1h, 30m)")
	filterFlags.StringVar(&logsGrep, "grep", "", "Filter records whose message matches pattern (regex)")

	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of records to show (0 for all)")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output (like tail -f)")
	logsCmd.Flags().BoolVar(&logsTruncate, "truncate", false, "Cut lines at the terminal width")

	logsExportCmd.Flags().StringVar(&exportFormat, "format", "json", "Export format: json, text or csv")
	logsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
}

// logsContext is the resolved input shared by the logs commands.
type logsContext struct {
	path   string
	loc    *time.Location
	filter logging.EntryFilter
}

func newLogsContext() (*logsContext, error) {
	cfg, err := config.Decode(viper.GetViper())
	if err != nil {
		return nil, err
	}
	path, err := resolveLogPath(cfg)
	if err != nil {
		return nil, err
	}
	clk, err := clock.New(cfg.Time.Zone)
	if err != nil {
		return nil, err
	}

	filter := logging.EntryFilter{Level: logsLevel, Target: logsTarget}
	if logsSince != "" {
		duration, err := time.ParseDuration(logsSince)
		if err != nil {
			return nil, fmt.Errorf("invalid duration format: %w", err)
		}
		filter.Since = clk.Now().Add(-duration)
	}
	if logsGrep != "" {
		filter.Pattern, err = regexp.Compile(logsGrep)
		if err != nil {
			return nil, fmt.Errorf("invalid grep pattern: %w", err)
		}
	}
	// Reject a bad level or target pattern before reading anything.
	if _, err := logging.FilterEntries(nil, filter); err != nil {
		return nil, err
	}

	return &logsContext{path: path, loc: clk.Location(), filter: filter}, nil
}

func (lc *logsContext) read() ([]logging.Entry, error) {
	entries, err := logging.ReadEntries(afero.NewOsFs(), lc.path, lc.loc)
	if err != nil {
		return nil, err
	}
	return logging.FilterEntries(entries, lc.filter)
}

func runLogs(cmd *cobra.Command, args []string) error {
	lc, err := newLogsContext()
	if err != nil {
		return err
	}
	view := newLogView(cmd.OutOrStdout(), logsTruncate)

	if logsFollow {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return followLogs(ctx, cmd.OutOrStdout(), lc, view)
	}

	entries, err := lc.read()
	if errors.Is(err, logging.ErrNoLogFile) {
		fmt.Fprintln(cmd.OutOrStdout(), "No logs found.")
		fmt.Fprintln(cmd.OutOrStdout(), "Logs are stored at:", lc.path)
		return nil
	}
	if err != nil {
		return err
	}

	// Apply tail limit
	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}

	for _, e := range entries {
		fmt.Fprintln(cmd.OutOrStdout(), view.render(e))
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching log entries found.")
	}
	return nil
}

// followLogs prints records appended after it starts until ctx is done.
func followLogs(ctx context.Context, out io.Writer, lc *logsContext, view *logView) error {
	fmt.Fprintf(out, "Following %s... (Ctrl+C to stop)\n\n", lc.path)

	return logging.Follow(ctx, lc.path, func(line string) {
		if strings.TrimSpace(line) == "" {
			return
		}
		kept, err := logging.FilterEntries([]logging.Entry{logging.ParseLine(line, lc.loc)}, lc.filter)
		if err != nil || len(kept) == 0 {
			return
		}
		fmt.Fprintln(out, view.render(kept[0]))
	})
}

func runLogsExport(cmd *cobra.Command, args []string) error {
	lc, err := newLogsContext()
	if err != nil {
		return err
	}
	entries, err := lc.read()
	if err != nil {
		return err
	}

	if exportOutput == "" {
		return logging.ExportEntries(cmd.OutOrStdout(), entries, exportFormat)
	}

	file, err := os.Create(exportOutput)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := logging.ExportEntries(file, entries, exportFormat); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d entries to %s\n", len(entries), exportOutput)
	return nil
}

// logView renders entries for a terminal. Colour and truncation only apply
// when out is a terminal.
type logView struct {
	renderer *lipgloss.Renderer
	muted    lipgloss.Style
	target   lipgloss.Style
	width    int
}

func newLogView(out io.Writer, truncate bool) *logView {
	r := lipgloss.NewRenderer(out)
	width := 0

	f, ok := out.(*os.File)
	if ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && truncate {
			width = w
		}
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	return &logView{
		renderer: r,
		muted:    styles.Muted(r),
		target:   styles.Target(r),
		width:    width,
	}
}

func (v *logView) render(e logging.Entry) string {
	var line string
	switch {
	case e.Raw != "":
		line = e.Raw
	case e.Header:
		line = v.muted.Render(e.String())
	default:
		line = fmt.Sprintf("%s %s %s > %s",
			v.muted.Render(clock.Format(e.Timestamp)),
			styles.Level(v.renderer, e.Level).Render(util.PadRight(e.Level, 5)),
			v.target.Render(e.Target),
			e.Message,
		)
	}
	if v.width > 0 {
		line = util.TruncateANSI(line, v.width)
	}
	return line
}
