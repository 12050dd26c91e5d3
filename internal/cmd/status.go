package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Iron-Ham/lockable/internal/allocation"
	"github.com/Iron-Ham/lockable/internal/status"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of every resource",
	Long: `Display every resource with its state (free, reserved, locked or queued)
and who holds it. With --json the per-resource state document is printed
instead: an object keyed by resource name, in definition order, with null
for free resources.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "List resource labels and how many resources are free for each",
	Args:  cobra.NoArgs,
	RunE:  runLabels,
}

var freeCmd = &cobra.Command{
	Use:   "free <label-expr>",
	Short: "Count free resources matching a label expression",
	Long: `Count the free resources matching a label expression.

Terms are joined with "&&", a leading "!" negates a term and terms with glob
metacharacters match any label of the resource:
  lockable free linux
  lockable free 'linux && x86_64'
  lockable free 'gpu-* && !flaky' --list`,
	Args: cobra.ExactArgs(1),
	RunE: runFree,
}

var (
	statusJSON  bool
	labelsCount bool
	freeList    bool
)

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(labelsCmd)
	rootCmd.AddCommand(freeCmd)

	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the state document as JSON")
	labelsCmd.Flags().BoolVar(&labelsCount, "count", false, "print only the number of distinct labels")
	freeCmd.Flags().BoolVar(&freeList, "list", false, "list the free resources instead of counting them")
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := s.view(cmd.Context()); err != nil {
		return err
	}
	doc := status.Report(s.reg.Resources())
	out := cmd.OutOrStdout()

	if statusJSON {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode state document: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	if len(doc) == 0 {
		_, err := fmt.Fprintln(out, "No resources defined")
		return err
	}
	fmt.Fprint(out, status.RenderTable(doc, terminalWidth()))
	fmt.Fprintln(out)
	fmt.Fprintln(out, status.RenderSummary(doc))
	return nil
}

func runLabels(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := s.view(cmd.Context()); err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if labelsCount {
		fmt.Fprintln(out, s.reg.NumberOfLabels())
		return nil
	}
	for _, label := range s.reg.AllLabels() {
		fmt.Fprintf(out, "%-24s %d free\n", label, s.reg.FreeResourceAmount(label))
	}
	return nil
}

func runFree(cmd *cobra.Command, args []string) error {
	pred, err := allocation.ParsePredicate(args[0])
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := s.view(cmd.Context()); err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if freeList {
		for _, res := range s.reg.FindFree(pred, -1) {
			fmt.Fprintln(out, res.Name)
		}
		return nil
	}
	fmt.Fprintln(out, s.reg.FreeAmount(pred))
	return nil
}

// terminalWidth returns the width of stdout, or 0 when it is not a
// terminal (disables truncation).
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}
