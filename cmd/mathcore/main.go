package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/opal-lang/mathcore/runtime/session"
)

func main() {
	rootCmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		noColor, _ := rootCmd.PersistentFlags().GetBool("no-color")
		session.FormatError(os.Stderr, err, session.ShouldUseColor(noColor))
		os.Exit(1)
	}
}

type options struct {
	configPath string
	tokens     int
	spaces     int
	debug      bool
	noColor    bool
	watch      bool
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "mathcore [script]",
		Short: "Integrate, Laplace-transform and numerically integrate polynomials",
		Long: `mathcore reads expressions, equations and commands one per line, from a
script file or from standard input. Type "help" at the prompt for the
command list.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			script := ""
			if len(args) == 1 {
				script = args[0]
			}
			r := runner{
				cfg:    cfg,
				color:  useColor(cfg.Color, opts.noColor),
				stdin:  stdin,
				stdout: stdout,
				stderr: stderr,
				logger: session.NewLogger(stderr, cfg.Debug),
			}
			if opts.watch {
				if script == "" || script == "-" {
					return fmt.Errorf("--watch needs a script file")
				}
				return r.watch(cmd.Context(), script)
			}
			return r.run(cmd.Context(), script)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().IntVar(&opts.tokens, "tokens", 0, "Capacity of every equation side in tokens")
	rootCmd.PersistentFlags().IntVar(&opts.spaces, "spaces", 0, "Number of equation spaces")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug output")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&opts.watch, "watch", "w", false, "Re-run the script whenever it changes")

	return rootCmd
}
