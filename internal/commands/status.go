package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"evalgo.org/stackyard/internal/runtime"
	"evalgo.org/stackyard/models"
)

var statusCmd = &cobra.Command{
	Use:   "status <target>",
	Short: "Show runtime status of a target's stack",
	Long: `List the containers of a target's stack with their runtime state.

Examples:
  stackyard status main
  stackyard status site:42`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	target, err := models.ParseTarget(args[0])
	if err != nil {
		return err
	}

	controller, err := runtime.New(&cfg.Runtime)
	if err != nil {
		return fmt.Errorf("Docker runtime unavailable: %w", err)
	}
	defer controller.Close()

	states, err := controller.Status(context.Background(), target.StackName())
	if err != nil {
		return err
	}

	if len(states) == 0 {
		fmt.Printf("Stack %s has no containers\n", target.StackName())
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tIMAGE\tSTATE\tSTATUS")
	for _, state := range states {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", state.Name, state.Image, state.State, state.Status)
	}
	return w.Flush()
}
