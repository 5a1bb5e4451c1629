package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/skywatch/internal/core/domain"
	"github.com/custodia-labs/skywatch/internal/core/ports/driving"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Stream the firehose and save matching records",
	Long: `Subscribes to the atproto firehose and writes every record of the configured
types to <data>/firehose/<type>/<date>/<time>_<seq>.json.

Runs until interrupted, or until --max-runtime elapses. Exits non-zero if
the subscription fails.`,
	RunE: runConsume,
}

// progressInterval is how often the status line refreshes on a terminal.
var progressInterval = 500 * time.Millisecond

func init() {
	consumeCmd.Flags().Duration("max-runtime", 0, "stop after this long (0 = use config)")
	consumeCmd.Flags().Int64("cursor", 0, "resume after this sequence number")
	consumeCmd.Flags().StringSlice("type", nil, "record types to save (default from config)")
	rootCmd.AddCommand(consumeCmd)
}

func runConsume(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	cfg := a.Config
	if d, _ := cmd.Flags().GetDuration("max-runtime"); d > 0 {
		cfg = cfg.WithMaxRuntime(d)
	}
	if seq, _ := cmd.Flags().GetInt64("cursor"); seq > 0 {
		cfg = cfg.WithCursor(seq)
	}
	if types, _ := cmd.Flags().GetStringSlice("type"); len(types) > 0 {
		cfg = cfg.WithRecordTypes(types...)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.Metrics != nil && cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr, a.Metrics, a.Log)
	}

	consumer := a.NewConsumer(cfg.Firehose)
	cmd.Printf("Streaming %v from %s\n", cfg.Targets().Sorted(), cfg.Firehose.URL)

	runErr := runWithProgress(ctx, cmd, consumer, isTerminal())
	printConsumerStatus(cmd, consumer.Status())
	if runErr != nil {
		return fmt.Errorf("firehose consumer: %w", runErr)
	}
	return nil
}

// runWithProgress runs the consumer, refreshing a status line when
// attached to a terminal.
func runWithProgress(ctx context.Context, cmd *cobra.Command, consumer driving.Consumer, progress bool) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- consumer.Run(ctx)
	}()

	if !progress {
		return <-errCh
	}

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-errCh:
			cmd.Println()
			return err
		case <-ticker.C:
			s := consumer.Status()
			cmd.Printf("\r%s... %d commits, %d records saved, %d failures",
				s.State, s.Commits, s.RecordsWritten, s.WriteFailures)
		}
	}
}

func printConsumerStatus(cmd *cobra.Command, s domain.ConsumerStatus) {
	cmd.Printf("Frames: %d  Commits: %d  Skipped: %d  Records saved: %d  Write failures: %d  Block failures: %d\n",
		s.Frames, s.Commits, s.SkippedCommits, s.RecordsWritten, s.WriteFailures, s.BlockFailures)
	if s.LastSeq > 0 {
		cmd.Printf("Last sequence: %d (resume with --cursor %d)\n", s.LastSeq, s.LastSeq)
	}
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
