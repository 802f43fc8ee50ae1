package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sremani/artifortress/internal/bootstrap"
)

// @title			Artifortress API
// @version		1.0.0
// @description	Multi-tenant, content-addressed artifact repository: upload sessions, publish, quarantine, lifecycle and search.
// @BasePath		/
func main() {
	ctx := context.Background()

	cfg := bootstrap.LoadConfig()

	service, err := bootstrap.Init(ctx, cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize artifortress service: %v\n", err)
		os.Exit(1)
	}

	if err := service.Run(ctx); err != nil {
		service.Logger.Errorf("artifortress service exited with error: %v", err)
		os.Exit(1)
	}
}
