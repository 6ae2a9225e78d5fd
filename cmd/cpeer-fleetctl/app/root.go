package app

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/autopeer-io/fleethub/pkg/log"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

type rootOptions struct {
	Output  string
	Timeout time.Duration
	Log     *log.Options
}

func newRootOptions() *rootOptions {
	opts := &rootOptions{
		Output:  outputTable,
		Timeout: 10 * time.Second,
		Log:     log.NewOptions(),
	}
	opts.Log.Level = "warn"
	return opts
}

func (o *rootOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Output format: table or json.")
	fs.DurationVar(&o.Timeout, "timeout", o.Timeout, "Timeout for a single call to the hub.")
	o.Log.AddFlags(fs)
}

func (o *rootOptions) Validate() error {
	if o.Output != outputTable && o.Output != outputJSON {
		return fmt.Errorf("--output must be %q or %q, got %q", outputTable, outputJSON, o.Output)
	}
	if errs := o.Log.Validate(); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// NewFleetctlCommand returns the operator client for the fleet hub.
func NewFleetctlCommand(ctx context.Context) *cobra.Command {
	opts := newRootOptions()
	cmd := &cobra.Command{
		Use:           "cpeer-fleetctl",
		Short:         "Query and administer a fleet hub",
		SilenceUsage:  true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			log.Init(opts.Log)
			return nil
		},
	}
	cmd.SetContext(ctx)
	opts.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(newRequestCommand(opts), newAdminCommand(opts))
	return cmd
}
