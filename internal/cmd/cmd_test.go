package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ferroxide/ferroxide/internal/config"
	"github.com/ferroxide/ferroxide/internal/logging"
	"github.com/ferroxide/ferroxide/internal/testutil"
)

const sampleLog = `=============================[ 2024-07-01 10:00:00 ]=============================
[INFO  2024-07-01 10:00:01] ferroxide > Logger initialized successfully with level: INFO
[DEBUG 2024-07-01 10:00:02] http      > GET /health 200 3B 12µs
[WARN  2024-07-01 10:00:03] http      > GET /nope 404 19B 8µs
[ERROR 2024-07-01 10:00:04] db        > connection refused
`

// resetState clears viper and every flag so each test starts from the
// command defaults.
func resetState(t *testing.T) {
	t.Helper()

	viper.Reset()
	bindRootFlags()
	bindServeFlags()

	var reset func(c *cobra.Command)
	reset = func(c *cobra.Command) {
		for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			})
		}
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("LOG_FILTER", "")
	t.Setenv("PORT", "")
}

// executeCommand runs rootCmd with args and returns captured output
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeSampleLog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, logging.FileName), []byte(sampleLog), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "ferroxide" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "ferroxide")
	}

	expectedCmds := []string{"serve", "logs", "config"}
	cmdMap := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		cmdMap[cmd.Name()] = true
	}
	for _, expected := range expectedCmds {
		if !cmdMap[expected] {
			t.Errorf("expected subcommand %q not found", expected)
		}
	}
}

func TestLogsCommand(t *testing.T) {
	t.Run("tail", func(t *testing.T) {
		resetState(t)
		dir := writeSampleLog(t)

		out, err := executeCommand(t, "logs", "--base-dir", dir, "-n", "2")
		if err != nil {
			t.Fatalf("logs failed: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d: %q", len(lines), out)
		}
		if !strings.Contains(lines[1], "db > connection refused") {
			t.Errorf("last line = %q", lines[1])
		}
	})

	t.Run("level and target filters", func(t *testing.T) {
		resetState(t)
		dir := writeSampleLog(t)

		out, err := executeCommand(t, "logs", "--base-dir", dir, "--level", "warn", "--target", "http")
		if err != nil {
			t.Fatalf("logs failed: %v", err)
		}
		if strings.TrimSpace(out) != "2024-07-01 10:00:03 WARN  http > GET /nope 404 19B 8µs" {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("grep", func(t *testing.T) {
		resetState(t)
		dir := writeSampleLog(t)

		out, err := executeCommand(t, "logs", "--base-dir", dir, "--grep", "refused|initialized")
		if err != nil {
			t.Fatalf("logs failed: %v", err)
		}
		if n := strings.Count(out, "\n"); n != 2 {
			t.Errorf("expected 2 lines, got %q", out)
		}
	})

	t.Run("no matches", func(t *testing.T) {
		resetState(t)
		dir := writeSampleLog(t)

		out, err := executeCommand(t, "logs", "--base-dir", dir, "--target", "nothing")
		if err != nil {
			t.Fatalf("logs failed: %v", err)
		}
		if !strings.Contains(out, "No matching log entries found.") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		resetState(t)
		out, err := executeCommand(t, "logs", "--base-dir", t.TempDir())
		if err != nil {
			t.Fatalf("logs failed: %v", err)
		}
		if !strings.Contains(out, "No logs found.") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("invalid inputs", func(t *testing.T) {
		for _, args := range [][]string{
			{"--level", "loud"},
			{"--since", "yesterday"},
			{"--grep", "("},
			{"--target", "[x"},
		} {
			resetState(t)
			dir := writeSampleLog(t)
			if _, err := executeCommand(t, append([]string{"logs", "--base-dir", dir}, args...)...); err == nil {
				t.Errorf("logs %v: expected error", args)
			}
		}
	})
}

func TestLogsExportCommand(t *testing.T) {
	t.Run("csv to file", func(t *testing.T) {
		resetState(t)
		dir := writeSampleLog(t)
		outFile := filepath.Join(t.TempDir(), "out.csv")

		if _, err := executeCommand(t, "logs", "export", "--base-dir", dir, "--format", "csv", "-o", outFile, "--level", "info"); err != nil {
			t.Fatalf("export failed: %v", err)
		}

		f, err := os.Open(outFile)
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = f.Close() }()
		records, err := csv.NewReader(f).ReadAll()
		if err != nil {
			t.Fatalf("invalid CSV: %v", err)
		}
		// Header plus INFO, WARN and ERROR records.
		if len(records) != 4 {
			t.Errorf("got %d records, want 4", len(records))
		}
	})

	t.Run("json to stdout", func(t *testing.T) {
		resetState(t)
		dir := writeSampleLog(t)

		out, err := executeCommand(t, "logs", "export", "--base-dir", dir)
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if !strings.HasPrefix(strings.TrimSpace(out), "[") || !strings.Contains(out, `"target": "db"`) {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		resetState(t)
		dir := writeSampleLog(t)
		if _, err := executeCommand(t, "logs", "export", "--base-dir", dir, "--format", "xml"); err == nil {
			t.Error("expected error for xml")
		}
	})
}

func TestConfigCommands(t *testing.T) {
	t.Run("show defaults as yaml", func(t *testing.T) {
		resetState(t)
		out, err := executeCommand(t, "config", "show")
		if err != nil {
			t.Fatalf("config show failed: %v", err)
		}
		for _, want := range []string{"(none - using defaults)", "filter: info", "zone: Europe/Warsaw", "shutdown_timeout: 5s"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("show as toml", func(t *testing.T) {
		resetState(t)
		out, err := executeCommand(t, "config", "show", "--format", "toml")
		if err != nil {
			t.Fatalf("config show failed: %v", err)
		}
		if !strings.Contains(out, "[server]") || !strings.Contains(out, "shutdown_timeout = ") || !strings.Contains(out, "5s") {
			t.Errorf("output = %s", out)
		}
	})

	t.Run("show reports env overrides", func(t *testing.T) {
		resetState(t)
		t.Setenv("LOG_FILTER", "warn,http=debug")
		out, err := executeCommand(t, "config")
		if err != nil {
			t.Fatalf("config failed: %v", err)
		}
		if !strings.Contains(out, "filter: warn,http=debug") {
			t.Errorf("output = %s", out)
		}
	})

	t.Run("set then show", func(t *testing.T) {
		resetState(t)
		if _, err := executeCommand(t, "config", "set", "server.shutdown_timeout", "1m30s"); err != nil {
			t.Fatalf("config set failed: %v", err)
		}
		if _, err := executeCommand(t, "config", "set", "logging.color", "NEVER"); err != nil {
			t.Fatalf("config set failed: %v", err)
		}

		data, err := os.ReadFile(config.ConfigFile())
		if err != nil {
			t.Fatalf("config file not written: %v", err)
		}
		content := string(data)
		if !strings.Contains(content, "shutdown_timeout: 1m30s") || !strings.Contains(content, "color: never") {
			t.Errorf("config file = %s", content)
		}
	})

	t.Run("set rejects bad input", func(t *testing.T) {
		for _, args := range [][]string{
			{"nope.key", "1"},
			{"server.port", "70000"},
			{"logging.filter", "http=loud"},
			{"logging.color", "rainbow"},
			{"time.zone", "Mars/Olympus"},
			{"server.shutdown_timeout", "-1s"},
			{"server.host", " "},
		} {
			resetState(t)
			if _, err := executeCommand(t, append([]string{"config", "set"}, args...)...); err == nil {
				t.Errorf("config set %v: expected error", args)
			}
		}
	})

	t.Run("init", func(t *testing.T) {
		resetState(t)
		out, err := executeCommand(t, "config", "init")
		if err != nil {
			t.Fatalf("config init failed: %v", err)
		}
		if !strings.Contains(out, config.ConfigFile()) {
			t.Errorf("output = %q", out)
		}

		v := viper.New()
		config.ApplyDefaults(v)
		v.SetConfigFile(config.ConfigFile())
		if err := v.ReadInConfig(); err != nil {
			t.Fatalf("generated config does not parse: %v", err)
		}
		cfg, err := config.Decode(v)
		if err != nil {
			t.Fatal(err)
		}
		if *cfg != *config.Default() {
			t.Errorf("generated config = %+v, want defaults", cfg)
		}

		if _, err := executeCommand(t, "config", "init"); err == nil {
			t.Error("second init should fail")
		}
	})

	t.Run("path", func(t *testing.T) {
		resetState(t)
		out, err := executeCommand(t, "config", "path")
		if err != nil {
			t.Fatalf("config path failed: %v", err)
		}
		if !strings.Contains(out, "Default path: "+config.ConfigFile()) {
			t.Errorf("output = %q", out)
		}
	})
}

func TestServeStartup(t *testing.T) {
	resetState(t)
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.BaseDir = dir
	cfg.Logging.Color = logging.ColorNever
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "not-a-port"

	console := &testutil.SyncBuffer{}
	cmd := &cobra.Command{}
	cmd.SetErr(console)

	sink, err := openSink(cfg, cmd)
	if err != nil {
		t.Fatalf("openSink failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// The listener may or may not bind the default port; only the startup
	// records matter here.
	_ = serve(ctx, sink, cfg, true)

	content, err := os.ReadFile(filepath.Join(dir, logging.FileName))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"ferroxide > Logger initialized successfully with level: INFO",
		"ferroxide > Running with development mode enabled",
		"ferroxide > Invalid port number: ",
		"; using default port 2137",
	} {
		if !strings.Contains(string(content), want) {
			t.Errorf("log file missing %q:\n%s", want, content)
		}
	}
	if !strings.Contains(console.String(), "WARN ") {
		t.Errorf("console missing dev warning: %q", console.String())
	}
}

func TestServeUnwritableBase(t *testing.T) {
	resetState(t)
	base := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(base, nil, 0644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Paths.BaseDir = base

	if _, err := openSink(cfg, &cobra.Command{}); err == nil {
		t.Error("expected openSink to fail when the base path is a file")
	}
}
