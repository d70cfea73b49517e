// internal/cli/gallery.go
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yishe-labs/relay/internal/app"
	"github.com/yishe-labs/relay/internal/runner"
	"github.com/yishe-labs/relay/internal/ui"
)

var (
	galleryPattern  string
	gallerySelector string
	galleryURLAttr  string
	galleryNameAttr string
)

// galleryCmd relays assets out of unauthenticated static HTML
// galleries. Multiple names run in parallel, each with its own
// checkpoint, so one broken gallery never blocks the others.
var galleryCmd = &cobra.Command{
	Use:   "gallery <name>...",
	Short: "Relay assets from static HTML gallery pages",
	Long: `Walks numbered gallery pages, extracts asset URLs with a CSS
selector, and relays each asset through storage and the catalog.

The page URL pattern must contain one %d verb for the page number. With
more than one name, each gallery runs concurrently against the same
pattern and selector; checkpoints are kept per gallery name.`,
	Example: `  relay gallery logos \
    --pages 'https://example.com/logos/page/%d' \
    --selector 'div.logo img' --name-attr alt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGallery,
}

func init() {
	galleryCmd.Flags().StringVar(&galleryPattern, "pages", "", "Page URL pattern with one %d verb (required)")
	galleryCmd.Flags().StringVar(&gallerySelector, "selector", "", "CSS selector for asset elements (required)")
	galleryCmd.Flags().StringVar(&galleryURLAttr, "url-attr", "src", "Attribute carrying the asset URL")
	galleryCmd.Flags().StringVar(&galleryNameAttr, "name-attr", "", "Attribute naming the asset (optional)")
	galleryCmd.MarkFlagRequired("pages")
	galleryCmd.MarkFlagRequired("selector")
	rootCmd.AddCommand(galleryCmd)
}

func runGallery(cmd *cobra.Command, args []string) error {
	a := GetApp()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	jobs := make([]runner.Job, 0, len(args))
	for _, name := range args {
		r, err := a.BuildGalleryRunner(app.GalleryOptions{
			Name:           name,
			PageURLPattern: galleryPattern,
			ItemSelector:   gallerySelector,
			URLAttr:        galleryURLAttr,
			NameAttr:       galleryNameAttr,
			ShowProgress:   len(args) == 1 && !a.Config.JSONLog,
		})
		if err != nil {
			return err
		}
		jobs = append(jobs, runner.Job{Runner: r})
	}

	results := runner.RunAll(ctx, jobs)

	incomplete := 0
	for _, res := range results {
		printSummary(res.Summary)
		switch {
		case res.Err == nil:
			fmt.Println(ui.Success(res.Summary.Source + ": source exhausted, checkpoint cleared"))
		case errors.Is(res.Err, runner.ErrRunIncomplete):
			incomplete++
			fmt.Println(ui.Info(res.Summary.Source + ": incomplete, re-run to resume"))
		default:
			return res.Err
		}
	}
	if incomplete > 0 {
		fmt.Println(ui.Info(fmt.Sprintf("%d of %d galleries incomplete", incomplete, len(results))))
	}
	return nil
}
