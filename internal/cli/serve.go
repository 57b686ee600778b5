package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskboard/internal/api"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the board over a local HTTP JSON API",
	Long: `Serve an empty in-memory board over HTTP until interrupted.

Routes:
  GET    /api/board            all columns with stats
  GET    /api/stats            column counts
  GET    /api/alerts           deadline and WIP alerts
  GET    /api/stream           server-sent board snapshots
  POST   /api/tasks            add a task to To Do
  GET    /api/tasks/:id        one task with its column and index
  PATCH  /api/tasks/:id        edit fields in place
  DELETE /api/tasks/:id        remove a task
  POST   /api/tasks/:id/move   move a task to the end of another column

The listen address defaults to server.listen from .boardconfig.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil {
			return fmt.Errorf("board not initialized")
		}

		addr := serveListen
		if addr == "" && Config != nil {
			addr = Config.Server.Listen
		}
		if addr == "" {
			return fmt.Errorf("no listen address (set --listen or server.listen)")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runServer(ctx, addr)
	},
}

func runServer(ctx context.Context, addr string) error {
	e := api.NewServer(Board, AlertEngine, Logger)
	if Logger != nil {
		Logger.WithField("addr", addr).Info("serving board API")
	}
	return api.Serve(ctx, e, addr)
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Address to listen on (default from server.listen)")
	rootCmd.AddCommand(serveCmd)
}
