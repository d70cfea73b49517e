// internal/cli/root.go
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/yishe-labs/relay/internal/app"
	"github.com/yishe-labs/relay/internal/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "relay",
	Short:   "Authenticated resumable crawl-and-relay pipeline",
	Long:    `Relay walks a remote paginated source, relays each discovered asset
through object storage, registers it with the backend catalog, and
survives interruption: per-item checkpointing makes every run resumable
and an expired access token is refreshed in place.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// The context is threaded to every command so an interrupt cancels
// in-flight work instead of killing it mid-item.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	config.RegisterFlags(rootCmd)

	// Initialize the application before running commands; skipped for
	// -h/help by cobra itself.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetApp() != nil {
			return nil
		}
		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}
		application, err := app.New(cfg)
		if err != nil {
			return err
		}
		SetApp(application)
		return nil
	}

	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if a := GetApp(); a != nil {
			a.Close()
			SetApp(nil)
		}
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SilenceUsage = true
}
