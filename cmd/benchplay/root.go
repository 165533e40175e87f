package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/benchplay/internal/app"
	"github.com/GriffinCanCode/benchplay/internal/config"
)

// configEnv names the settings file when --config is absent.
const configEnv = "BENCHPLAY_CONFIG"

// defaultConfigFiles are looked up in the working directory.
var defaultConfigFiles = []string{"benchplay.yaml", "benchplay.yml", "benchplay.toml", ".benchplay.yaml"}

type rootOptions struct {
	configPath string
	backend    string
	site       string
	benchPath  string
	logLevel   string
	jsonOutput bool

	app *app.App
}

func newRootCmd(o *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "benchplay",
		Short:         "Send imports, snippets and bench execute calls to bench sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&o.configPath, "config", "c", "", "settings file (yaml or toml)")
	flags.StringVar(&o.backend, "backend", "", "terminal backend: tmux or pty")
	flags.StringVar(&o.site, "site", "", "site passed to bench with --site")
	flags.StringVar(&o.benchPath, "bench", "", "bench directory")
	flags.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.BoolVar(&o.jsonOutput, "json", false, "print tool results as JSON")

	rootCmd.AddCommand(
		consoleCmd(o),
		pasteCmd(o),
		pasteClipboardCmd(o),
		importCmd(o, "import", "console.import", "Import a single object into the console"),
		importCmd(o, "import-all", "console.import_all", "Import everything from the statement's module"),
		importAsCmd(o),
		runCmd(o),
		executeCmd(o),
		sitesCmd(o),
		locateCmd(o),
		sessionsCmd(o),
		toolsCmd(o),
	)
	return rootCmd
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.settingsFile())
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Terminal.Backend = o.backend
	}
	if flags.Changed("site") {
		cfg.Bench.SiteName = o.site
	}
	if flags.Changed("bench") {
		cfg.Bench.Path = o.benchPath
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}

	a, err := app.New(cfg, app.Options{
		Stdin:  os.Stdin,
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	o.app = a
	return nil
}

// close releases what setup created. It runs even when the command failed.
func (o *rootOptions) close() {
	if o.app != nil {
		o.app.Close()
		o.app = nil
	}
}

func (o *rootOptions) settingsFile() string {
	if o.configPath != "" {
		return o.configPath
	}
	if path := os.Getenv(configEnv); path != "" {
		return path
	}
	for _, name := range defaultConfigFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// run executes toolID and prints any message it produced, or the whole
// result with --json.
func (o *rootOptions) run(cmd *cobra.Command, toolID string, params map[string]interface{}) error {
	result, err := o.app.Execute(cmd.Context(), toolID, params)
	if err != nil {
		return err
	}
	if o.jsonOutput {
		return o.printJSON(cmd, result)
	}
	if msg := strings.TrimSpace(result.Message()); msg != "" {
		fmt.Fprintln(cmd.OutOrStdout(), msg)
	}
	return nil
}

func (o *rootOptions) printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
