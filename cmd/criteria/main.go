package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joseph-ayodele/criteria-extractor/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, nil)
	stop()
	os.Exit(code)
}
