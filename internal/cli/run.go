// internal/cli/run.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/yishe-labs/relay/internal/auth"
	"github.com/yishe-labs/relay/internal/runner"
	"github.com/yishe-labs/relay/internal/ui"
	"github.com/yishe-labs/relay/pkg/models"
)

var (
	startTimeArg string
	endTimeArg   string
	noProgress   bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Walk the configured source and relay every asset",
	Long: `Runs one batch: fetches the listing page by page, relays each
discovered asset (download, upload to object storage, register with the
catalog), and checkpoints after every item.

An interrupted run resumes exactly where it stopped; completed items are
never relayed twice. Scope the run to a time window with --start/--end
(RFC 3339 or epoch milliseconds).`,
	Example: `  # Full batch, resuming any saved checkpoint
  relay run

  # Only items created inside a window
  relay run --start 2026-08-01T00:00:00Z --end 2026-08-02T00:00:00Z`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

// yesterdayCmd scopes a run to the previous calendar day.
var yesterdayCmd = &cobra.Command{
	Use:   "yesterday",
	Short: "Relay only the assets created yesterday",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
		dayEnd := dayStart.AddDate(0, 0, 1).Add(-time.Millisecond)
		window := &models.TimeWindow{Start: dayStart.UnixMilli(), End: dayEnd.UnixMilli()}
		return executeRun(cmd.Context(), window)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(yesterdayCmd)

	runCmd.Flags().StringVar(&startTimeArg, "start", "", "Window start (RFC 3339 or epoch ms)")
	runCmd.Flags().StringVar(&endTimeArg, "end", "", "Window end (RFC 3339 or epoch ms)")
	runCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the per-page progress bar")
}

func runRun(cmd *cobra.Command, args []string) error {
	window, err := parseWindow(startTimeArg, endTimeArg)
	if err != nil {
		return err
	}
	return executeRun(cmd.Context(), window)
}

func executeRun(ctx context.Context, window *models.TimeWindow) error {
	a := GetApp()
	if ctx == nil {
		ctx = context.Background()
	}

	showProgress := !noProgress && !a.Config.JSONLog
	r, err := a.BuildRunner(showProgress)
	if err != nil {
		if errors.Is(err, auth.ErrNoTokens) {
			printSeedHint()
		}
		return err
	}

	summary, err := r.Run(ctx, window)
	printSummary(summary)

	switch {
	case err == nil:
		fmt.Println(ui.Success("source exhausted, checkpoint cleared"))
		return nil
	case errors.Is(err, auth.ErrFatalAuth):
		printRemediation()
		return err
	case errors.Is(err, runner.ErrRunIncomplete):
		// Non-fatal: the checkpoint holds the resume point.
		log.Warn().Err(err).Msg("run ended early, re-run to resume")
		fmt.Println(ui.Info("run incomplete; the next invocation resumes from the saved checkpoint"))
		return nil
	default:
		return err
	}
}

// parseWindow accepts both timestamps RFC 3339 and epoch milliseconds;
// both bounds must be given together.
func parseWindow(start, end string) (*models.TimeWindow, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, fmt.Errorf("--start and --end must be given together")
	}

	startMs, err := parseTimestamp(start)
	if err != nil {
		return nil, fmt.Errorf("invalid --start: %w", err)
	}
	endMs, err := parseTimestamp(end)
	if err != nil {
		return nil, fmt.Errorf("invalid --end: %w", err)
	}
	if endMs < startMs {
		return nil, fmt.Errorf("--end is before --start")
	}
	return &models.TimeWindow{Start: startMs, End: endMs}, nil
}

func parseTimestamp(s string) (int64, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}

func printSummary(summary models.RunSummary) {
	fmt.Printf("\n%s\n", ui.Bold("Run summary"))
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Source", "Uploaded", "Failed", "Skipped", "Duration"})
	table.Append([]string{
		summary.Source,
		strconv.Itoa(summary.Succeeded),
		strconv.Itoa(summary.Failed),
		strconv.Itoa(summary.Skipped),
		summary.Duration.Round(time.Second).String(),
	})
	table.Render()
}

func printSeedHint() {
	fmt.Println(ui.Error("no stored tokens for this source"))
	fmt.Println("Seed credentials first:")
	fmt.Println("  relay auth set --access <token> --refresh <token>")
}

// printRemediation explains the manual re-authentication procedure.
// It mirrors the operator runbook: the refresh token is dead, so only a
// fresh browser login can recover.
func printRemediation() {
	fmt.Println()
	fmt.Println(ui.Error("authentication expired and the refresh token was rejected"))
	fmt.Println("The checkpoint was kept; no completed work is lost.")
	fmt.Println()
	fmt.Println("To recover:")
	fmt.Println("  1. Log in to the source site again in a browser")
	fmt.Println("  2. Open DevTools (F12) -> Network and pick any API request")
	fmt.Println("  3. Copy the Authorization bearer token and the refresh token")
	fmt.Println("  4. Seed them:  relay auth set --access <token> --refresh <token>")
	fmt.Println("  5. Verify:     relay check")
	fmt.Println("  6. Resume:     relay run")
}
