package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/benchplay/internal/types"
)

// sourceFlags select where a statement or path comes from.
type sourceFlags struct {
	path   string
	file   string
	symbol string
	edit   bool
	attach bool
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&s.path, "path", "", "dotted python path")
	flags.StringVarP(&s.file, "file", "f", "", "python file defining --symbol")
	flags.StringVarP(&s.symbol, "symbol", "s", "", "function or class name; searched in the bench without --file")
	flags.BoolVarP(&s.edit, "edit", "e", false, "edit the scraped value before use")
	registerAttach(cmd, &s.attach)
}

func (s *sourceFlags) params(cmd *cobra.Command, args []string) map[string]interface{} {
	params := map[string]interface{}{
		"path":   s.path,
		"file":   s.file,
		"symbol": s.symbol,
		"edit":   s.edit,
	}
	if len(args) > 0 {
		params["statement"] = strings.Join(args, " ")
	}
	setAttach(cmd, params, s.attach)
	return params
}

func registerAttach(cmd *cobra.Command, attach *bool) {
	cmd.Flags().BoolVarP(attach, "attach", "a", false, "attach to the session afterwards")
}

// setAttach passes --attach only when given, leaving the backend default otherwise.
func setAttach(cmd *cobra.Command, params map[string]interface{}, attach bool) {
	if cmd.Flags().Changed("attach") {
		params["attach"] = attach
	}
}

func consoleCmd(o *rootOptions) *cobra.Command {
	var attach bool
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Open the bench console session, starting bench console on first use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := map[string]interface{}{}
			setAttach(cmd, params, attach)
			return o.run(cmd, "console.open", params)
		},
	}
	registerAttach(cmd, &attach)
	return cmd
}

func pasteCmd(o *rootOptions) *cobra.Command {
	var (
		file       string
		selections []string
		attach     bool
	)
	cmd := &cobra.Command{
		Use:   "paste [text...]",
		Short: "Paste text, or selections of a file, into the console",
		Long: "Paste each argument into the console. With --file, paste the given selections instead:\n" +
			"a line number pastes that whole line, 12-14 pastes lines 12 to 14 and\n" +
			"12:5-14:8 pastes an exact range.",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]interface{}{
				"text":       args,
				"file":       file,
				"selections": selections,
			}
			setAttach(cmd, params, attach)
			return o.run(cmd, "console.paste", params)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "file to select from")
	cmd.Flags().StringArrayVar(&selections, "select", nil, "selection: LINE, LINE-LINE or LINE:COL-LINE:COL (repeatable)")
	registerAttach(cmd, &attach)
	return cmd
}

func pasteClipboardCmd(o *rootOptions) *cobra.Command {
	var attach bool
	cmd := &cobra.Command{
		Use:   "paste-clipboard",
		Short: "Paste the clipboard into the console line by line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := map[string]interface{}{}
			setAttach(cmd, params, attach)
			return o.run(cmd, "console.paste_clipboard", params)
		},
	}
	registerAttach(cmd, &attach)
	return cmd
}

func importCmd(o *rootOptions, use, toolID, short string) *cobra.Command {
	var src sourceFlags
	cmd := &cobra.Command{
		Use:   use + " [statement]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, toolID, src.params(cmd, args))
		},
	}
	src.register(cmd)
	return cmd
}

func importAsCmd(o *rootOptions) *cobra.Command {
	var (
		src   sourceFlags
		name  string
		alias string
	)
	cmd := &cobra.Command{
		Use:   "import-as [statement]",
		Short: "Import an object under an alias",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := src.params(cmd, args)
			params["name"] = name
			if cmd.Flags().Changed("alias") {
				params["alias"] = alias
			}
			return o.run(cmd, "console.import_as", params)
		},
	}
	src.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "imported name to alias")
	cmd.Flags().StringVar(&alias, "alias", "", "alias; prompted when absent")
	return cmd
}

func runCmd(o *rootOptions) *cobra.Command {
	var (
		src  sourceFlags
		name string
		pick bool
	)
	cmd := &cobra.Command{
		Use:   "run [statement]",
		Short: "Import a function and call it without arguments",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := src.params(cmd, args)
			params["name"] = name
			params["pick"] = pick
			return o.run(cmd, "console.run", params)
		},
	}
	src.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "imported name to call")
	cmd.Flags().BoolVarP(&pick, "pick", "p", false, "choose among the imported names")
	return cmd
}

func executeCmd(o *rootOptions) *cobra.Command {
	var (
		src    sourceFlags
		args   string
		kwargs string
	)
	cmd := &cobra.Command{
		Use:   "execute [dotted.path]",
		Short: "Run bench execute on a dotted path in the execute session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			params := src.params(cmd, nil)
			if len(positional) == 1 {
				params["path"] = positional[0]
			}
			if cmd.Flags().Changed("args") {
				params["args"] = args
			}
			if cmd.Flags().Changed("kwargs") {
				params["kwargs"] = kwargs
			}
			return o.run(cmd, "execute.run", params)
		},
	}
	src.register(cmd)
	cmd.Flags().StringVar(&args, "args", "", "python list literal; prompted when absent")
	cmd.Flags().StringVar(&kwargs, "kwargs", "", "python dict literal; prompted when absent")
	return cmd
}

func sitesCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List the sites of the bench",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd, "workspace.sites", nil)
		},
	}
}

func locateCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "locate <symbol>",
		Short: "Find top level definitions of a function or class in the bench",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, "workspace.locate", map[string]interface{}{"symbol": args[0]})
		},
	}
}

func sessionsCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List sessions open in the terminal backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd, "workspace.sessions", nil)
		},
	}
}

func toolsCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools [query]",
		Short: "List the available tools, optionally matching a query",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := o.app.Services()

			var services []types.Service
			if len(args) > 0 {
				services = registry.Discover(strings.Join(args, " "), 10)
			} else {
				services = registry.List(nil)
			}
			if o.jsonOutput {
				return o.printJSON(cmd, services)
			}

			out := cmd.OutOrStdout()
			for _, svc := range services {
				fmt.Fprintf(out, "%s: %s\n", svc.ID, svc.Description)
				for _, tool := range svc.Tools {
					fmt.Fprintf(out, "  %-26s %s\n", tool.ID, tool.Description)
				}
			}
			if len(args) == 0 {
				stats := registry.Stats()
				fmt.Fprintf(out, "\n%d services, %d tools\n", stats.Services, stats.Tools)
			}
			return nil
		},
	}
}
