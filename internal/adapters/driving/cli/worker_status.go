package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/skywatch/internal/core/domain"
)

var workerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the recompute schedule and recent runs",
	Long: `Reads the scheduler state a worker recorded: when the recurring
recompute last ran, when it runs next, and the outcome of recent runs.`,
	RunE: runWorkerStatus,
}

func init() {
	workerStatusCmd.Flags().IntP("limit", "n", 10, "number of recent runs to show")
	workerCmd.AddCommand(workerStatusCmd)
}

func runWorkerStatus(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	if a.NewHistory == nil {
		return errors.New("recompute history is not available")
	}
	limit, _ := cmd.Flags().GetInt("limit")

	h, err := a.NewHistory()
	if err != nil {
		return fmt.Errorf("opening scheduler state: %w", err)
	}
	history, err := h.History(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if history.Task == nil {
		cmd.Println("No recompute has been scheduled yet. Start one with 'skywatch worker'.")
	} else {
		printTask(cmd, *history.Task)
	}
	if len(history.Runs) == 0 {
		return nil
	}
	cmd.Println()
	printRuns(cmd, history.Runs)
	return nil
}

func printTask(cmd *cobra.Command, task domain.ScheduledTask) {
	state := highStyle.Render("enabled")
	if !task.Enabled {
		state = mutedStyle.Render("disabled")
	}
	cmd.Printf("%s every %s (%s)\n", headerStyle.Render("Recompute"), task.Interval, state)
	cmd.Printf("  %s %s\n", mutedStyle.Render("last run:    "), formatWhen(task.LastRun))
	cmd.Printf("  %s %s\n", mutedStyle.Render("next run:    "), formatWhen(task.NextRun))
	cmd.Printf("  %s %s\n", mutedStyle.Render("last success:"), formatWhen(task.LastSuccess))
	if task.LastError != "" {
		cmd.Printf("  %s %s\n", mutedStyle.Render("last error:  "), lowStyle.Render(task.LastError))
	}
}

func printRuns(cmd *cobra.Command, runs []domain.TaskResult) {
	cmd.Println(cell(headerStyle, "STARTED", 22) + cell(headerStyle, "TRIGGER", 10) +
		cell(headerStyle, "RESULT", 8) + cell(headerStyle, "FILES", 7) + cell(headerStyle, "SKIPPED", 9) +
		cell(headerStyle, "IDENTITIES", 12) + cell(headerStyle, "TOOK", 9) + headerStyle.Render("RUN ID"))
	for _, r := range runs {
		result := cell(highStyle, "ok", 8)
		if !r.Success {
			result = cell(lowStyle, "failed", 8)
		}
		cmd.Println(cell(plainStyle, r.StartedAt.UTC().Format("2006-01-02 15:04:05"), 22) +
			cell(plainStyle, r.Trigger, 10) +
			result +
			cell(plainStyle, strconv.Itoa(r.ItemsProcessed), 7) +
			cell(plainStyle, strconv.Itoa(r.FilesSkipped), 9) +
			cell(plainStyle, strconv.Itoa(r.Identities), 12) +
			cell(plainStyle, r.Duration().Round(time.Millisecond).String(), 9) +
			mutedStyle.Render(r.RunID))
		if r.Error != "" {
			cmd.Printf("  %s\n", lowStyle.Render(r.Error))
		}
	}
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}
