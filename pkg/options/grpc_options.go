package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*GrpcOptions)(nil)

// GrpcOptions configure the admin gRPC port. It is unauthenticated and
// insecure, bind it to a trusted interface.
type GrpcOptions struct {
	// Network with server network.
	Network string `json:"network" mapstructure:"network"`

	// Address with server address.
	Addr string `json:"addr" mapstructure:"addr"`

	// Timeout bounds every admin call. Used by the server and by fleetctl.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// Disabled turns the admin port off.
	Disabled bool `json:"disabled" mapstructure:"disabled"`
}

// NewGrpcOptions returns GrpcOptions listening on port 8091.
func NewGrpcOptions() *GrpcOptions {
	return &GrpcOptions{
		Network: "tcp",
		Addr:    "0.0.0.0:8091",
		Timeout: 30 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *GrpcOptions) Validate() []error {
	if o == nil || o.Disabled {
		return nil
	}

	var errors []error

	if err := ValidateAddress(o.Addr); err != nil {
		errors = append(errors, err)
	}
	if o.Timeout <= 0 {
		errors = append(errors, fmt.Errorf("--grpc.timeout must be positive"))
	}

	return errors
}

// AddFlags adds flags for the admin gRPC server to the specified FlagSet.
func (o *GrpcOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Network, "grpc.network", o.Network, "Specify the network for the admin gRPC server.")
	fs.StringVar(&o.Addr, "grpc.addr", o.Addr, "Specify the admin gRPC server bind address and port.")
	fs.DurationVar(&o.Timeout, "grpc.timeout", o.Timeout, "Timeout for admin calls.")
	fs.BoolVar(&o.Disabled, "grpc.disabled", o.Disabled, "Do not start the admin gRPC server.")
}
