// internal/cli/check.go
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yishe-labs/relay/internal/auth"
	"github.com/yishe-labs/relay/internal/source/paged"
	"github.com/yishe-labs/relay/internal/ui"
	"github.com/yishe-labs/relay/pkg/models"
)

// checkCmd probes the listing endpoint with a one-item page to verify
// the stored credentials before a long batch is started.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the stored credentials against the listing endpoint",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	a := GetApp()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	mgr, err := a.AuthManager()
	if err != nil {
		if errors.Is(err, auth.ErrNoTokens) {
			printSeedHint()
		}
		return err
	}

	walker := paged.New(a.HTTP, mgr, a.Config.SourceTag, a.Config.SourceBaseURL+a.Config.ListPath, nil)
	page, err := walker.FetchPage(ctx, models.PageCursor{PageNumber: 1, PageSize: 1}, nil)
	if err != nil {
		if errors.Is(err, auth.ErrFatalAuth) {
			printRemediation()
		}
		return fmt.Errorf("credential check failed: %w", err)
	}

	fmt.Println(ui.Success("credentials are valid"))
	fmt.Printf("listing reports %d items in total\n", page.Total)
	return nil
}
