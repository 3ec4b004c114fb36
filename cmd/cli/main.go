package main

import (
	"context"
	"log"
	"os"

	"github.com/taskvault/taskvault/internal/buildinfo"
	"github.com/taskvault/taskvault/internal/client/cli"
	"github.com/taskvault/taskvault/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
