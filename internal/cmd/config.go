package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ferroxide/ferroxide/internal/clock"
	"github.com/ferroxide/ferroxide/internal/config"
	"github.com/ferroxide/ferroxide/internal/logging"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify ferroxide configuration",
	Long: `View or modify ferroxide configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  ferroxide config set logging.filter warn,http=debug
  ferroxide config set server.port 8080

Valid keys:
  logging.filter           - Log filter ([target=]level,...[/regex])
  logging.color            - Console colour: auto, always, never
  paths.base_dir           - Directory holding logs.txt
  time.zone                - IANA timezone for timestamps
  server.port              - Listener port (1-65535)
  server.host              - Listener address
  server.shutdown_timeout  - Graceful shutdown bound (e.g. 5s)`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/ferroxide/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

var configShowFormat string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)

	configCmd.PersistentFlags().StringVar(&configShowFormat, "format", "yaml", "Output format for show: yaml or toml")
}

// configKey describes a settable key: how to coerce and check its value.
type configKey struct {
	coerce func(string) (any, error)
}

var configKeys = map[string]configKey{
	"logging.filter": {coerce: func(v string) (any, error) {
		if _, err := logging.ParseFilter(v); err != nil {
			return nil, err
		}
		return v, nil
	}},
	"logging.color": {coerce: func(v string) (any, error) {
		v = strings.ToLower(v)
		if !slices.Contains(config.ValidColorModes(), v) {
			return nil, fmt.Errorf("valid options: %s", strings.Join(config.ValidColorModes(), ", "))
		}
		return v, nil
	}},
	"paths.base_dir": {coerce: func(v string) (any, error) {
		return v, nil
	}},
	"time.zone": {coerce: func(v string) (any, error) {
		if _, err := clock.New(v); err != nil {
			return nil, err
		}
		return v, nil
	}},
	"server.port": {coerce: func(v string) (any, error) {
		port, err := config.ServerConfig{Port: v}.PortNumber()
		if err != nil {
			return nil, err
		}
		return port, nil
	}},
	"server.host": {coerce: func(v string) (any, error) {
		if strings.TrimSpace(v) == "" {
			return nil, errors.New("must not be empty")
		}
		return v, nil
	}},
	"server.shutdown_timeout": {coerce: func(v string) (any, error) {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return nil, fmt.Errorf("expected a duration: %w", err)
		}
		if d <= 0 {
			return nil, errors.New("must be positive")
		}
		return d.String(), nil
	}},
}

func validConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// configView is the configuration as shown by "config show". Durations are
// rendered as text because TOML has no duration type.
func configView(cfg *config.Config) map[string]any {
	return map[string]any{
		"logging": map[string]any{
			"filter": cfg.Logging.Filter,
			"color":  string(cfg.Logging.Color),
		},
		"paths": map[string]any{
			"base_dir": cfg.Paths.BaseDir,
		},
		"time": map[string]any{
			"zone": cfg.Time.Zone,
		},
		"server": map[string]any{
			"port":             cfg.Server.Port,
			"host":             cfg.Server.Host,
			"shutdown_timeout": cfg.Server.ShutdownTimeout.String(),
		},
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Decode(viper.GetViper())
	if err != nil {
		return err
	}

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "# Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "# Config file: (none - using defaults)\n")
	}
	for _, verr := range cfg.Validate() {
		fmt.Fprintf(out, "# WARNING: %s\n", verr.Error())
	}

	return writeConfigView(out, configView(cfg), configShowFormat)
}

func writeConfigView(w io.Writer, view map[string]any, format string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(format) {
	case "yaml", "yml":
		data, err = yaml.Marshal(view)
	case "toml":
		data, err = toml.Marshal(view)
	default:
		return fmt.Errorf("unsupported format: %s (supported: yaml, toml)", format)
	}
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	// Validate the key exists
	entry, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nValid keys: %s", key, strings.Join(validConfigKeys(), ", "))
	}

	typedValue, err := entry.coerce(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	configFile := targetConfigFile()
	doc, err := readConfigDocument(configFile)
	if err != nil {
		return err
	}
	setNested(doc, strings.Split(key, "."), typedValue)

	if err := writeConfigDocument(configFile, doc); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", configFile)

	return nil
}

// targetConfigFile is the file "config set" edits: the active one, or the
// default location.
func targetConfigFile() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return config.ConfigFile()
}

func readConfigDocument(path string) (map[string]any, error) {
	doc := map[string]any{}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return doc, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

func setNested(doc map[string]any, path []string, value any) {
	for _, part := range path[:len(path)-1] {
		next, ok := doc[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			doc[part] = next
		}
		doc = next
	}
	doc[path[len(path)-1]] = value
}

func writeConfigDocument(path string, doc map[string]any) error {
	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

const configHeader = `# ferroxide configuration
#
# logging.filter: comma-separated [target=]level directives with an optional
#   /regex message filter, e.g. "warn,http=debug". LOG_FILTER overrides it.
# logging.color: auto, always or never
# paths.base_dir: directory holding logs.txt (empty means ~/.ferroxide)
# time.zone: IANA timezone of log timestamps
# server.port: listener port; PORT overrides it
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'ferroxide config set' to modify values", configFile)
	}

	var buf bytes.Buffer
	buf.WriteString(configHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(config.Default()); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configFile, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := config.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	// Also show config search paths
	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", configFile)
	fmt.Fprintf(out, "  2. $HOME/.config/ferroxide/config.yaml\n")
	fmt.Fprintf(out, "  3. ./config.yaml (current directory)\n")
	fmt.Fprintln(out, "\nEnvironment variables: FERROXIDE_* (e.g., FERROXIDE_TIME_ZONE), LOG_FILTER, PORT")

	return nil
}
