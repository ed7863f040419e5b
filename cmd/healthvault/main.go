package main

import (
	"context"
	"log"
	"os"

	"github.com/mnbf9rca/family-medical-app-sub001/internal/buildinfo"
	"github.com/mnbf9rca/family-medical-app-sub001/internal/cli"
	"github.com/mnbf9rca/family-medical-app-sub001/internal/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
