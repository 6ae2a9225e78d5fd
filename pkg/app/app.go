// Package app builds the cobra command shared by the fleethub binaries.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/component-base/term"
	"k8s.io/component-base/version/verflag"
)

// RunFunc is the body of a command, called after the options are validated.
type RunFunc func() error

// App is a command line application.
type App struct {
	name        string
	shortDesc   string
	description string
	options     NamedFlagSetOptions
	runFunc     RunFunc
	args        cobra.PositionalArgs
	noConfig    bool
	cmd         *cobra.Command
}

// Option configures an App.
type Option func(*App)

func WithOptions(opts NamedFlagSetOptions) Option {
	return func(a *App) { a.options = opts }
}

func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.runFunc = run }
}

func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

// WithNoConfig drops the --config flag and environment lookup.
func WithNoConfig() Option {
	return func(a *App) { a.noConfig = true }
}

func WithValidArgs(args cobra.PositionalArgs) Option {
	return func(a *App) { a.args = args }
}

// WithDefaultValidArgs rejects any positional argument.
func WithDefaultValidArgs() Option {
	return func(a *App) {
		a.args = func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if len(arg) > 0 {
					return fmt.Errorf("%q does not take any arguments, got %q", cmd.CommandPath(), args)
				}
			}
			return nil
		}
	}
}

func NewApp(name, shortDesc string, opts ...Option) *App {
	a := &App{
		name:      name,
		shortDesc: shortDesc,
	}
	for _, o := range opts {
		o(a)
	}
	a.buildCommand()
	return a
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.shortDesc,
		Long:          a.description,
		Args:          a.args,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true
	cmd.Flags().SetNormalizeFunc(cliflag.WordSepNormalizeFunc)

	var fss cliflag.NamedFlagSets
	if a.options != nil {
		fss = a.options.Flags()
	}

	var cfgFile *string
	if !a.noConfig {
		cfgFile = addConfigFlag(a.name, fss.FlagSet("global"))
	}
	verflag.AddFlags(fss.FlagSet("global"))
	fss.FlagSet("global").BoolP("help", "h", false, fmt.Sprintf("help for %s", a.name))

	for _, f := range fss.FlagSets {
		cmd.Flags().AddFlagSet(f)
	}

	cols, _, _ := term.TerminalSize(cmd.OutOrStdout())
	cliflag.SetUsageAndHelpFunc(cmd, fss, cols)

	if a.runFunc != nil {
		cmd.RunE = func(cmd *cobra.Command, _ []string) error {
			verflag.PrintAndExitIfRequested()

			if cfgFile != nil && a.options != nil {
				if err := loadConfig(*cfgFile, cmd.Flags(), a.options); err != nil {
					return err
				}
			}
			if a.options != nil {
				if err := a.options.Complete(); err != nil {
					return err
				}
				if err := a.options.Validate(); err != nil {
					return err
				}
			}
			return a.runFunc()
		}
	}

	a.cmd = cmd
}

// Command returns the underlying cobra command, mainly to attach subcommands.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Run executes the command and exits the process with status 1 on error.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v %v\n", "Error:", err)
		os.Exit(1)
	}
}
