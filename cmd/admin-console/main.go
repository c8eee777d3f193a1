package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/noah-isme/wellness-admin-console/internal/cli"
)

// @title Wellness Admin Console API
// @version 1.0.0
// @description Server-driven list views, record mutations and exports over the wellness platform admin API.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
