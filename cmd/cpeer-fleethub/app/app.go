package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/fleethub/cmd/cpeer-fleethub/app/options"
	"github.com/autopeer-io/fleethub/pkg/app"
	"github.com/autopeer-io/fleethub/pkg/log"
)

const (
	commandName = "cpeer-fleethub"
	commandDesc = `The fleet hub accepts websocket connections from vehicles, authenticates
them against the vehicle registry and answers their state queries
(getAll, getActive, getCars, getID).

The registry is kept in a snapshot file (--store.path) which is written
whenever the registry changes through the admin gRPC port.`
)

func NewApp() *app.App {
	opts := options.NewFleetHubOptions()
	application := app.NewApp(
		commandName,
		"Launch the fleet hub",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.FleetHubOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer log.Sync()

		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		server, err := cfg.NewFleetHub()
		if err != nil {
			return fmt.Errorf("failed to create fleet hub: %w", err)
		}

		return server.Run(ctx)
	}
}
