package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/fleethub/internal/fleethub"
	"github.com/autopeer-io/fleethub/pkg/app"
	"github.com/autopeer-io/fleethub/pkg/log"
	"github.com/autopeer-io/fleethub/pkg/options"
)

type FleetHubOptions struct {
	WsOptions    *options.WsOptions    `json:"ws" mapstructure:"ws"`
	StoreOptions *options.StoreOptions `json:"store" mapstructure:"store"`
	HttpOptions  *options.HttpOptions  `json:"http" mapstructure:"http"`
	GrpcOptions  *options.GrpcOptions  `json:"grpc" mapstructure:"grpc"`
	MqttOptions  *options.MqttOptions  `json:"mqtt" mapstructure:"mqtt"`
	S3Options    *options.S3Options    `json:"s3" mapstructure:"s3"`
	Log          *log.Options          `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*FleetHubOptions)(nil)

func NewFleetHubOptions() *FleetHubOptions {
	o := &FleetHubOptions{
		WsOptions:    options.NewWsOptions(),
		StoreOptions: options.NewStoreOptions(),
		HttpOptions:  options.NewHttpOptions(),
		GrpcOptions:  options.NewGrpcOptions(),
		MqttOptions:  options.NewMqttOptions(),
		S3Options:    options.NewS3Options(),
		Log:          log.NewOptions(),
	}

	return o
}

func (o *FleetHubOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.WsOptions.AddFlags(fss.FlagSet("ws"))
	o.StoreOptions.AddFlags(fss.FlagSet("store"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.GrpcOptions.AddFlags(fss.FlagSet("grpc"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.S3Options.AddFlags(fss.FlagSet("s3"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *FleetHubOptions) Complete() error {
	if o.Log.Name == "" {
		o.Log.Name = "cpeer-fleethub"
	}
	return nil
}

func (o *FleetHubOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.WsOptions.Validate()...)
	errs = append(errs, o.StoreOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.GrpcOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.S3Options.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *FleetHubOptions) Config() (*fleethub.Config, error) {
	return &fleethub.Config{
		WsOptions:    o.WsOptions,
		StoreOptions: o.StoreOptions,
		HttpOptions:  o.HttpOptions,
		GrpcOptions:  o.GrpcOptions,
		MqttOptions:  o.MqttOptions,
		S3Options:    o.S3Options,
	}, nil
}
