// criteriad runs the HTTP API. Configuration comes from CRITERIA_CONFIG and
// the environment; extra arguments are passed to the serve command.
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
	code := cli.Execute(ctx, append([]string{"serve"}, os.Args[1:]...))
	stop()
	os.Exit(code)
}
