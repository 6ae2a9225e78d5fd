package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*WsOptions)(nil)

// WsOptions configures the websocket endpoint vehicles connect to.
type WsOptions struct {
	// Addr is the listen address. Vehicles connect to ws://{addr}/.
	Addr string `json:"addr" mapstructure:"addr"`

	// HandshakeTimeout bounds the wait for the auth frame after the upgrade.
	HandshakeTimeout time.Duration `json:"handshake-timeout" mapstructure:"handshake-timeout"`

	// MaxMessageSize is the largest frame accepted from a client, in bytes.
	MaxMessageSize int64 `json:"max-message-size" mapstructure:"max-message-size"`

	// AllowedOrigins restricts the Origin header. Empty allows any origin.
	AllowedOrigins []string `json:"allowed-origins" mapstructure:"allowed-origins"`
}

// NewWsOptions returns WsOptions listening on port 3000.
func NewWsOptions() *WsOptions {
	return &WsOptions{
		Addr:             "0.0.0.0:3000",
		HandshakeTimeout: 10 * time.Second,
		MaxMessageSize:   64 * 1024,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *WsOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if err := ValidateAddress(o.Addr); err != nil {
		errs = append(errs, err)
	}
	if o.HandshakeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("--ws.handshake-timeout must be positive"))
	}
	if o.MaxMessageSize <= 0 {
		errs = append(errs, fmt.Errorf("--ws.max-message-size must be positive"))
	}
	return errs
}

// AddFlags adds flags for the websocket endpoint to the specified FlagSet.
func (o *WsOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Addr, "ws.addr", o.Addr, "Specify the websocket bind address and port vehicles connect to.")
	fs.DurationVar(&o.HandshakeTimeout, "ws.handshake-timeout", o.HandshakeTimeout, "How long to wait for the auth frame of a new connection.")
	fs.Int64Var(&o.MaxMessageSize, "ws.max-message-size", o.MaxMessageSize, "Maximum size in bytes of a frame sent by a vehicle.")
	fs.StringSliceVar(&o.AllowedOrigins, "ws.allowed-origins", o.AllowedOrigins, "Allowed Origin header values. Empty allows any origin.")
}
