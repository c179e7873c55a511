package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"evalgo.org/stackyard/internal/reconcile"
	"evalgo.org/stackyard/internal/routing"
	"evalgo.org/stackyard/internal/runtime"
	"evalgo.org/stackyard/internal/storage"
	"evalgo.org/stackyard/models"
)

var (
	reconcileDomain   string
	reconcileTLS      bool
	reconcilePort     int
	reconcileResolver string
	reconcileAuthor   string
	reconcileRestart  bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <target> <service>",
	Short: "Rewrite a service's routing directives from intent",
	Long: `Rewrite the routing directives of one service in a target's stored
compose document, persist the result as a new version, materialize it
for the orchestration runtime, and optionally restart the stack.

This is the automated-fixer entry point: whether to restart is decided
up front with --restart, never by an interactive prompt.

Examples:
  stackyard reconcile site:42 web --domain shop.example.com --port 8080
  stackyard reconcile main web-gui --domain admin.example.com --port 8080 \
      --tls --resolver letsencrypt --restart`,
	Args: cobra.ExactArgs(2),
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileDomain, "domain", "", "hostname the service is exposed under (required)")
	reconcileCmd.Flags().BoolVar(&reconcileTLS, "tls", false, "terminate TLS and redirect plain HTTP")
	reconcileCmd.Flags().IntVar(&reconcilePort, "port", 0, "container port the router forwards to (required)")
	reconcileCmd.Flags().StringVar(&reconcileResolver, "resolver", "", "certificate resolver (default from config)")
	reconcileCmd.Flags().StringVar(&reconcileAuthor, "author", "", "operator identity for the audit trail")
	reconcileCmd.Flags().BoolVar(&reconcileRestart, "restart", false, "restart the affected stack after applying")

	_ = reconcileCmd.MarkFlagRequired("domain") //nolint:errcheck
	_ = reconcileCmd.MarkFlagRequired("port")   //nolint:errcheck
}

func runReconcile(cmd *cobra.Command, args []string) error {
	target, err := models.ParseTarget(args[0])
	if err != nil {
		return err
	}
	serviceName := args[1]

	store, err := storage.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	var controller reconcile.ProcessController
	var runtimeController *runtime.Controller
	if reconcileRestart {
		runtimeController, err = runtime.New(&cfg.Runtime)
		if err != nil {
			return fmt.Errorf("restart requested but Docker runtime unavailable: %w", err)
		}
		defer runtimeController.Close()
		controller = runtimeController
	}

	pipeline := reconcile.NewPipeline(store, routing.New(&cfg.Compose), controller, &cfg.Compose)
	pipeline.Debug = cfg.Server.Debug

	result, err := pipeline.Reconcile(context.Background(), reconcile.Request{
		Target:      target,
		ServiceName: serviceName,
		Intent: models.RoutingIntent{
			ServiceName:      serviceName,
			Domain:           reconcileDomain,
			TLSEnabled:       reconcileTLS,
			TargetPort:       reconcilePort,
			CertResolverName: reconcileResolver,
		},
		Author:      reconcileAuthor,
		AutoRestart: reconcileRestart,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Applied %s version %d\n", target, result.NewVersion)
	fmt.Printf("Materialized to %s\n", result.ArtifactPath)

	if result.Restart != nil {
		if result.Restart.OK() {
			fmt.Printf("Restarted stack %s (%d container(s))\n",
				result.Restart.Stack, len(result.Restart.Restarted))
		} else {
			fmt.Fprintf(os.Stderr, "Warning: restart of stack %s incomplete:\n%s\n",
				result.Restart.Stack, result.Restart.Output)
		}
	}

	return nil
}
