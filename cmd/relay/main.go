// cmd/relay/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yishe-labs/relay/internal/cli"
)

func main() {
	// Cancel the run context on interrupt so the checkpoint is flushed
	// before the process exits. A second signal kills immediately.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.Execute(ctx)
}
