package main

import (
	"os"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/fleethub/cmd/cpeer-fleetctl/app"
)

func main() {
	ctx := genericapiserver.SetupSignalContext()
	if err := app.NewFleetctlCommand(ctx).Execute(); err != nil {
		os.Exit(1)
	}
}
