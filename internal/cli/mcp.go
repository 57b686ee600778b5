package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	boardmcp "github.com/valter-silva-au/taskboard/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the taskboard MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the taskboard MCP server on stdio",
	Long: `Start the taskboard MCP server on stdio transport.

The server exposes a session board as MCP tools that AI assistants can call:
list_board, get_task, add_task, edit_task, remove_task, move_task,
board_stats, get_metrics, get_alerts. The board lives as long as the server.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil {
			return fmt.Errorf("board not initialized")
		}

		// stdout carries the protocol.
		if Logger != nil && Logger.Out == os.Stdout {
			Logger.SetOutput(io.Discard)
		}

		srv := boardmcp.NewServer(Board, MetricsCalc, AlertEngine, Logger, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
