// internal/cli/status.go
package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/yishe-labs/relay/internal/checkpoint"
	"github.com/yishe-labs/relay/internal/ui"
)

var statusAuditCount int

// statusCmd shows the saved checkpoint and the tail of the audit log,
// so an operator can see where an interrupted batch will resume.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the saved checkpoint and recent item outcomes",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusAuditCount, "last", 10, "Number of recent audit entries to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a := GetApp()
	cfg := a.Config

	if _, err := os.Stat(cfg.CheckpointPath); os.IsNotExist(err) {
		fmt.Println("no saved checkpoint; the next run starts from page 1")
	} else {
		store, err := checkpoint.Open(cfg.CheckpointPath, cfg.AuditLogPath, cfg.PageSize)
		if err != nil {
			return fmt.Errorf("failed to read checkpoint: %w", err)
		}
		record := store.Record()

		fmt.Println(ui.Bold("Checkpoint"))
		fmt.Printf("  started:   %s\n", record.StartedAt.Format(time.RFC3339))
		fmt.Printf("  next page: %d (page size %d)\n", record.Cursor.PageNumber, record.Cursor.PageSize)
		fmt.Printf("  completed: %d items\n", record.TotalCompleted)
	}

	entries, err := checkpoint.ReadAudit(cfg.AuditLogPath, statusAuditCount)
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	fmt.Printf("\n%s\n", ui.Bold(fmt.Sprintf("Last %d outcomes", len(entries))))
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Item", "Status", "Stage", "Detail", "Time"})
	for i, e := range entries {
		detail := e.StorageURL
		if detail == "" {
			detail = e.Reason
		}
		if detail == "" {
			detail = e.Error
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			truncateID(e.SourceID),
			string(e.Status),
			string(e.Stage),
			truncateDetail(detail),
			e.Timestamp.Format("01-02 15:04:05"),
		})
	}
	table.Render()
	return nil
}

func truncateID(id string) string {
	if len(id) > 24 {
		return id[:21] + "..."
	}
	return id
}

func truncateDetail(s string) string {
	if len(s) > 48 {
		return s[:45] + "..."
	}
	return s
}
