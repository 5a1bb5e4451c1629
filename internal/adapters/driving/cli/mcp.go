package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/skywatch/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can check a
publisher's reputation before trusting an MCP server it publishes.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

With --worker the recompute scheduler runs in the same process and the
request_recompute tool is available.

Examples:
  # Stdio mode (default)
  skywatch mcp serve

  # HTTP mode with an embedded worker
  skywatch mcp serve --port 8080 --worker`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().Bool("worker", false, "run the recompute scheduler and expose request_recompute")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	a, err := loadApp()
	if err != nil {
		return err
	}
	withWorker, _ := cmd.Flags().GetBool("worker")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ports := &mcp.Ports{Reputation: a.Reputation}
	if withWorker {
		w, err := a.NewWorker(false)
		if err != nil {
			return fmt.Errorf("building worker: %w", err)
		}
		ports.Trigger = w.Trigger
		ports.History = w.History

		schedulerDone := make(chan struct{})
		go func() {
			defer close(schedulerDone)
			if err := w.Scheduler.Start(ctx); err != nil && !isShutdown(err) {
				a.Log.Error("recompute scheduler stopped", "error", err)
			}
		}()
		defer func() {
			cancel()
			<-schedulerDone
		}()
	} else if a.NewHistory != nil {
		h, err := a.NewHistory()
		if err != nil {
			a.Log.Warn("recompute history unavailable", "error", err)
		} else {
			ports.History = h
		}
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
