package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"evalgo.org/stackyard/internal/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Lint a compose document",
	Long: `Check a compose document for YAML well-formedness and the presence
of a services section, without storing it.

Examples:
  stackyard validate docker-compose.yml`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	result := validation.New().LintCompose(string(content))
	if result.Valid {
		fmt.Printf("%s: OK\n", args[0])
		return nil
	}

	for _, msg := range result.ErrorStrings() {
		fmt.Printf("%s: %s\n", args[0], msg)
	}
	return fmt.Errorf("validation failed with %d finding(s)", len(result.Errors))
}
