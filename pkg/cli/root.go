package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/devserve/pkg/server"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// deps are the process hooks the serve command relies on.
type deps struct {
	signals    func() (<-chan os.Signal, func())
	serverOpts []server.Option
	// started is called once the manager has been started.
	started func(*server.Manager)
}

// NewRootCommand returns the devserve command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(deps{signals: notifySignals}, &flagValues{})
}

func newRootCommand(d deps, f *flagValues) *cobra.Command {
	root := &cobra.Command{
		Use:   "devserve [dir]",
		Short: "devserve is a local development web server",
		Long: `devserve serves a directory over HTTP or HTTPS for local development.
It lists directories, renders velocity, freemarker and ejs templates, rewrites
requests through proxy and mock rules, and can answer unmatched requests from
an OpenAPI description.

Configuration can be provided via flags, environment variables, or a configuration file.
By default, devserve looks for ./.devserverc.yaml.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true, // We handle errors in Execute()
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := cmd.Flags().Set("dir", args[0]); err != nil {
					return err
				}
			}
			return runServe(cmd, f, d)
		},
	}

	f.register(root)
	root.AddCommand(newConfigCommand(f), newVersionCommand())
	return root
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
