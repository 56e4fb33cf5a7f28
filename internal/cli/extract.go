package cli

import (
	"fmt"
	"unicode/utf8"

	"github.com/raphaelgruber/uniassist/internal/document"
	"github.com/spf13/cobra"
)

var extractStats bool

var extractCmd = &cobra.Command{
	Use:   "extract [path]",
	Short: "Print the text the assistant reads from the reference document",
	Long: `Print the plain text extracted from a reference document, as the
assistant sees it. Defaults to UNIASSIST_REFERENCE_DOC.

Examples:
  uniassist extract
  uniassist extract brochures/DIU.pdf --stats`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&extractStats, "stats", false, "print only the character count")
}

func runExtract(cmd *cobra.Command, args []string) error {
	path := cfg.ReferenceDoc
	if len(args) == 1 {
		path = args[0]
	}

	text, err := document.NewExtractor().Extract(path)
	if err != nil {
		return err
	}
	if extractStats {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d characters\n", path, utf8.RuneCountInString(text))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
