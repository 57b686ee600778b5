package cli

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskboard/internal/observability"
)

var (
	metricsJSON  bool
	metricsSince string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display board activity metrics",
	Long: `Display aggregated metrics derived from the event log.

Metrics include how many tasks were added, edited, removed, moved and
completed, moves per destination column, and priorities at creation. The
event log outlives the board, so metrics cover earlier sessions too.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (event log may be disabled)")
		}

		sinceTime, err := observability.ParseSince(metricsSince, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		out := cmd.OutOrStdout()
		if metricsJSON {
			data, err := sonic.ConfigStd.MarshalIndent(metrics, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting metrics as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		printMetrics(out, metrics, sinceTime)
		return nil
	},
}

func printMetrics(w io.Writer, metrics *observability.Metrics, since time.Time) {
	fmt.Fprintf(w, "Metrics (since %s)\n\n", since.Format("2006-01-02"))
	fmt.Fprintf(w, "  %-24s %d\n", "Events recorded:", metrics.EventCount)
	fmt.Fprintf(w, "  %-24s %d\n", "Tasks added:", metrics.TasksAdded)
	fmt.Fprintf(w, "  %-24s %d\n", "Tasks edited:", metrics.TasksEdited)
	fmt.Fprintf(w, "  %-24s %d\n", "Tasks removed:", metrics.TasksRemoved)
	fmt.Fprintf(w, "  %-24s %d\n", "Tasks moved:", metrics.TasksMoved)
	fmt.Fprintf(w, "  %-24s %d\n", "Tasks completed:", metrics.TasksCompleted)

	printCounts(w, "Moves by destination:", metrics.MovesByDestination)
	printCounts(w, "Added by priority:", metrics.AddedByPriority)

	if metrics.OldestEvent != nil {
		fmt.Fprintf(w, "\n  %-24s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
	}
	if metrics.NewestEvent != nil {
		fmt.Fprintf(w, "  %-24s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
	}
}

func printCounts(w io.Writer, heading string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "\n  %s\n", heading)
	for _, k := range keys {
		fmt.Fprintf(w, "    %-20s %d\n", k+":", counts[k])
	}
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	metricsCmd.Flags().StringVar(&metricsSince, "since", "7d", "Time window for metrics (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(metricsCmd)
}
