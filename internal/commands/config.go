package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"evalgo.org/stackyard/internal/storage"
	"evalgo.org/stackyard/internal/validation"
	"evalgo.org/stackyard/models"
)

var (
	configAuthor string
	historyLimit int
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit stored compose configurations",
	Long: `Inspect and edit the stored compose configuration of a target.

Targets are "main" (the shared edge-router stack) or "site:<id>".

Examples:
  stackyard config show main
  stackyard config apply site:42 docker-compose.yml --author ops@example.com
  stackyard config history site:42 --limit 10`,
}

var configShowCmd = &cobra.Command{
	Use:   "show <target>",
	Short: "Print the current compose document for a target",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigShow,
}

var configApplyCmd = &cobra.Command{
	Use:   "apply <target> <file>",
	Short: "Store a compose document as a new version",
	Long: `Store a full compose document as a new version for a target.

This is the manual-edit path: the document is taken as-is, checked only
for non-emptiness, and a YAML lint is printed as advisory output.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigApply,
}

var configHistoryCmd = &cobra.Command{
	Use:   "history <target>",
	Short: "List stored versions for a target, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigHistory,
}

var configRunsCmd = &cobra.Command{
	Use:   "runs <target>",
	Short: "List reconciliation runs for a target, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigRuns,
}

func init() {
	configApplyCmd.Flags().StringVar(&configAuthor, "author", "", "operator identity for the audit trail")
	configHistoryCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of versions to list")
	configRunsCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to list")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configApplyCmd)
	configCmd.AddCommand(configHistoryCmd)
	configCmd.AddCommand(configRunsCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	target, err := models.ParseTarget(args[0])
	if err != nil {
		return err
	}

	store, err := storage.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	doc, err := store.Load(target)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "# %s version %d, updated %s by %s\n",
		doc.Target, doc.Version, doc.UpdatedAt.Format("2006-01-02 15:04:05"), doc.UpdatedBy)
	fmt.Print(doc.Content)
	if !strings.HasSuffix(doc.Content, "\n") {
		fmt.Println()
	}

	return nil
}

func runConfigApply(cmd *cobra.Command, args []string) error {
	target, err := models.ParseTarget(args[0])
	if err != nil {
		return err
	}

	content, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[1], err)
	}

	if strings.TrimSpace(string(content)) == "" {
		return fmt.Errorf("refusing to store an empty document for %s", target)
	}

	store, err := storage.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	version, err := store.Save(target, string(content), configAuthor)
	if err != nil {
		return err
	}

	fmt.Printf("Stored %s version %d\n", target, version)

	if lint := validation.New().LintCompose(string(content)); !lint.Valid {
		fmt.Println("Warning: document has lint findings:")
		for _, msg := range lint.ErrorStrings() {
			fmt.Printf("  - %s\n", msg)
		}
	}

	return nil
}

func runConfigHistory(cmd *cobra.Command, args []string) error {
	target, err := models.ParseTarget(args[0])
	if err != nil {
		return err
	}

	store, err := storage.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	docs, err := store.History(target, historyLimit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tUPDATED\tAUTHOR\tSIZE")
	for _, doc := range docs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n",
			doc.Version,
			doc.UpdatedAt.Format("2006-01-02 15:04:05"),
			doc.UpdatedBy,
			len(doc.Content),
		)
	}
	return w.Flush()
}

func runConfigRuns(cmd *cobra.Command, args []string) error {
	target, err := models.ParseTarget(args[0])
	if err != nil {
		return err
	}

	store, err := storage.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(target, historyLimit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tSERVICE\tSTATUS\tVERSION\tAUTHOR")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.ServiceName,
			run.Status,
			run.NewVersion,
			run.Author,
		)
	}
	return w.Flush()
}
