package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/skywatch/internal/core/domain"
)

var reputationCmd = &cobra.Command{
	Use:   "reputation",
	Short: "Compute and inspect publisher reputation",
	Long: `Reputation scores reward publishers that have been seen over a long period.
A publisher seen once scores the base score; the score grows with the number
of whole days between its first and last observation, up to a cap.`,
}

var reputationRecomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Rebuild the reputation store from saved records",
	RunE:  runReputationRecompute,
}

var reputationShowCmd = &cobra.Command{
	Use:   "show [identity]",
	Short: "Show reputation scores",
	Long: `Without arguments, lists publishers ordered by score.
With an identity, shows that publisher's entry.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReputationShow,
}

func init() {
	reputationRecomputeCmd.Flags().String("type", "", "record type to scan (default from config)")
	reputationRecomputeCmd.Flags().Bool("dry-run", false, "score the corpus without writing the reputation file")
	reputationShowCmd.Flags().IntP("limit", "n", 20, "maximum entries to list (0 = all)")
	reputationShowCmd.Flags().Float64("min-score", 0, "only list entries scoring at least this much")

	reputationCmd.AddCommand(reputationRecomputeCmd)
	reputationCmd.AddCommand(reputationShowCmd)
	rootCmd.AddCommand(reputationCmd)
}

func runReputationRecompute(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	recordType, _ := cmd.Flags().GetString("type")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	svc := a.Reputation
	if dryRun {
		if a.DryRun == nil {
			return errors.New("dry run is not available")
		}
		svc = a.DryRun
	}

	start := time.Now()
	result, err := svc.Recompute(cmd.Context(), recordType)
	if err != nil {
		return fmt.Errorf("recompute failed: %w", err)
	}

	cmd.Printf("Scanned %d files in %d partitions of %s (%s)\n",
		len(result.Files), result.Partitions, result.RecordType, time.Since(start).Round(time.Millisecond))
	cmd.Printf("Applied: %d  Skipped: %d  Identities: %d\n",
		result.Applied(), result.Skipped(), result.Identities)
	for _, f := range result.Files {
		if f.Status == domain.FileSkipped {
			cmd.Printf("  skipped %s: %v\n", f.Path, f.Err)
		}
	}
	for _, sf := range result.ScoreFailures {
		cmd.Printf("  score for %s set to 0: %v\n", sf.Identity, sf.Err)
	}
	if len(result.DroppedEntries) > 0 {
		cmd.Printf("  rebuilt unreadable entries: %s\n", strings.Join(result.DroppedEntries, ", "))
	}
	if dryRun {
		cmd.Println("Dry run: reputation file not written")
	}
	return nil
}

func runReputationShow(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	if len(args) == 1 {
		entry, err := a.Reputation.Get(cmd.Context(), args[0])
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no reputation recorded for %s", args[0])
		}
		if err != nil {
			return err
		}
		printEntry(cmd, *entry)
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	minScore, _ := cmd.Flags().GetFloat64("min-score")
	entries, err := a.Reputation.List(cmd.Context(), limit, minScore)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		cmd.Println("No reputation entries. Run 'skywatch reputation recompute' first.")
		return nil
	}
	printTable(cmd, entries)
	return nil
}

func printEntry(cmd *cobra.Command, e domain.ReputationEntry) {
	cmd.Println(headerStyle.Render(e.Identity))
	cmd.Printf("  %s %s\n", mutedStyle.Render("name:      "), e.Name)
	cmd.Printf("  %s %s\n", mutedStyle.Render("score:     "), scoreStyle(e.Score).Render(formatScore(e.Score)))
	cmd.Printf("  %s %s\n", mutedStyle.Render("first seen:"), e.FirstSeen.UTC().Format(time.RFC3339))
	cmd.Printf("  %s %s\n", mutedStyle.Render("last seen: "), e.LastSeen.UTC().Format(time.RFC3339))
}

func printTable(cmd *cobra.Command, entries []domain.ReputationEntry) {
	idWidth, nameWidth := len("IDENTITY"), len("NAME")
	for _, e := range entries {
		idWidth = max(idWidth, len(e.Identity))
		nameWidth = max(nameWidth, len(e.Name))
	}

	cmd.Println(cell(headerStyle, "SCORE", 7) + cell(headerStyle, "IDENTITY", idWidth+2) +
		cell(headerStyle, "NAME", nameWidth+2) + headerStyle.Render("LAST SEEN"))
	for _, e := range entries {
		cmd.Println(cell(scoreStyle(e.Score), formatScore(e.Score), 7) +
			cell(plainStyle, e.Identity, idWidth+2) +
			cell(plainStyle, e.Name, nameWidth+2) +
			mutedStyle.Render(e.LastSeen.UTC().Format("2006-01-02")))
	}
}

func formatScore(score float64) string {
	return fmt.Sprintf("%.3f", score)
}
