package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the reputation recompute scheduler",
	Long: `Runs reputation recomputes in the background: once at startup, once after
the initial delay, and then on the configured interval. With watching
enabled, new record files also request a recompute.

Use --consume to stream the firehose in the same process.`,
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().Bool("consume", false, "also run the firehose consumer")
	workerCmd.Flags().Bool("watch", false, "recompute when new record files appear (default from config)")
	workerCmd.Flags().Bool("ephemeral", false, "keep scheduler state in memory instead of the state database")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	consume, _ := cmd.Flags().GetBool("consume")
	ephemeral, _ := cmd.Flags().GetBool("ephemeral")

	w, err := a.NewWorker(ephemeral)
	if err != nil {
		return fmt.Errorf("building worker: %w", err)
	}
	watch := a.Config.Scheduler.Watch
	if cmd.Flags().Changed("watch") {
		watch, _ = cmd.Flags().GetBool("watch")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	spawn := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !isShutdown(err) {
				errMu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", name, err)
				}
				errMu.Unlock()
				cancel()
			}
		}()
	}

	spawn("scheduler", w.Scheduler.Start)
	if watch && w.Watcher != nil {
		spawn("watcher", w.Watcher.Run)
	}
	if consume {
		consumer := a.NewConsumer(a.Config.Firehose)
		spawn("consumer", consumer.Run)
	}
	if a.Metrics != nil && a.Config.MetricsAddr != "" {
		go serveMetrics(ctx, a.Config.MetricsAddr, a.Metrics, a.Log)
	}

	cmd.Println("Worker running. Press Ctrl+C to stop.")
	wg.Wait()
	return firstErr
}

func isShutdown(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// serveMetrics serves handler at /metrics until ctx is done.
func serveMetrics(ctx context.Context, addr string, handler http.Handler, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background()) //nolint:errcheck
	}()

	if log != nil {
		log.Info("serving metrics", "addr", addr)
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && log != nil {
		log.Error("metrics server failed", "error", err)
	}
}
