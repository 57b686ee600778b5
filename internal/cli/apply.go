package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/taskboard/internal/core"
	"github.com/valter-silva-au/taskboard/internal/report"
	"github.com/valter-silva-au/taskboard/internal/script"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

// outputFormats lists the values accepted by --output.
var outputFormats = []string{"text", "yaml", "json"}

var (
	applyOutput string
	applyPDF    string
)

var applyCmd = &cobra.Command{
	Use:   "apply <scenario.yaml>",
	Short: "Run a YAML scenario against a fresh board",
	Long: `Apply the steps of a scenario file to a new, empty board and print the
resulting board.

A scenario is a list of add, edit, remove and move steps. Tasks are addressed
by position (column and index) or by a name given with "as:" on the add step:

  name: ship
  steps:
    - add: {title: Write report, priority: High, deadline: "2024-01-01"}
      as: report
    - move: {column: todo, index: 0, to: done}
    - remove: {task: report}
  expect:
    done: 0

Task IDs are sequential so output is reproducible. Nothing is kept after the
command exits.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := script.Load(args[0])
		if err != nil {
			return err
		}

		board := newScenarioBoard()
		res, runErr := script.Run(board, sc)
		if res == nil {
			return runErr
		}

		if err := writeResult(cmd.OutOrStdout(), res, applyOutput); err != nil {
			return err
		}
		if applyPDF != "" {
			if err := writeReport(applyPDF, res); err != nil {
				return err
			}
		}
		return runErr
	},
}

// newScenarioBoard builds an empty board with sequential IDs, configured
// like the session board.
func newScenarioBoard() core.Board {
	prefix := ""
	var opts core.BoardOptions
	if Config != nil {
		prefix = Config.TaskIDPrefix
		opts.DefaultPriority = Config.DefaultPriority
	}
	board := core.NewBoard(core.NewSequentialIDGenerator(prefix), opts)
	if Logger != nil {
		board.Subscribe(core.NewChangeLogger(Logger))
	}
	return board
}

func writeResult(w io.Writer, res *script.Result, format string) error {
	switch format {
	case "", "text":
		printBoard(w, res)
		return nil
	case "yaml":
		data, err := yaml.Marshal(res)
		if err != nil {
			return fmt.Errorf("formatting result as YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	case "json":
		data, err := sonic.ConfigStd.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("formatting result as JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	return fmt.Errorf("unsupported output format %q (use %s)", format, strings.Join(outputFormats, ", "))
}

func printBoard(w io.Writer, res *script.Result) {
	if res.Name != "" {
		fmt.Fprintf(w, "Scenario %s (%d steps)\n\n", res.Name, res.Steps)
	}
	for _, col := range models.Columns {
		tasks := res.Board.Tasks(col)
		fmt.Fprintf(w, "%s (%d)\n", Config.ColumnTitle(col), len(tasks))
		if len(tasks) == 0 {
			fmt.Fprintln(w, "  -")
		}
		for i, t := range tasks {
			line := fmt.Sprintf("  %d. [%s] %s", i, t.Priority, t.Title)
			if t.Deadline != "" {
				line += "  (deadline " + t.Deadline + ")"
			}
			fmt.Fprintf(w, "%s  %s\n", line, t.ID)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Active: %d  Completed: %s\n", res.Stats.Active, res.Stats.Completed())
}

func writeReport(path string, res *script.Result) error {
	f, err := os.Create(path) //nolint:gosec // G304: output path is user supplied
	if err != nil {
		return fmt.Errorf("creating report %s: %w", path, err)
	}

	title := res.Name
	if title == "" {
		title = "Task Board"
	}
	writeErr := report.WritePDF(f, res.Board, report.Options{
		Title:     title,
		Config:    Config,
		Generated: time.Now(),
	})
	closeErr := f.Close()

	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing report %s: %w", path, closeErr)
	}
	return nil
}

func completeOutputFormats(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return outputFormats, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	applyCmd.Flags().StringVarP(&applyOutput, "output", "o", "text", "Output format: text, yaml or json")
	applyCmd.Flags().StringVar(&applyPDF, "pdf", "", "Also write the final board as a PDF report to this file")
	_ = applyCmd.RegisterFlagCompletionFunc("output", completeOutputFormats)
	rootCmd.AddCommand(applyCmd)
}
