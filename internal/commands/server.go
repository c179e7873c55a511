package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"evalgo.org/stackyard/internal/api"
	"evalgo.org/stackyard/internal/reconcile"
	"evalgo.org/stackyard/internal/routing"
	"evalgo.org/stackyard/internal/runtime"
	"evalgo.org/stackyard/internal/storage"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long:  `Start the HTTP API server exposing the reconciliation engine`,
	RunE:  runServer,
}

func runServer(cmd *cobra.Command, args []string) error {
	store, err := storage.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	// A missing Docker runtime degrades restarts and status, but the
	// configuration engine stays fully usable.
	controller, err := runtime.New(&cfg.Runtime)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Docker runtime unavailable, restarts disabled: %v\n", err)
		controller = nil
	}

	pipeline := reconcile.NewPipeline(store, routing.New(&cfg.Compose), controllerOrNil(controller), &cfg.Compose)
	pipeline.Debug = cfg.Server.Debug

	server := api.New(cfg, store, pipeline, controller)

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		fmt.Println("\nShutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return nil

	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

// controllerOrNil keeps a typed nil *runtime.Controller from becoming a
// non-nil ProcessController interface value.
func controllerOrNil(c *runtime.Controller) reconcile.ProcessController {
	if c == nil {
		return nil
	}
	return c
}
