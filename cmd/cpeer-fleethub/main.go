package main

import (
	// Importing the package to automatically set GOMAXPROCS.
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/autopeer-io/fleethub/cmd/cpeer-fleethub/app"
)

func main() {
	app.NewApp().Run()
}
