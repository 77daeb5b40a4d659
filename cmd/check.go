package cmd

import (
	"context"
	"fmt"
	"time"

	"streamingapp/bootstrap"
	"streamingapp/util"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// checkResult is the JSON shape of a connectivity check
type checkResult struct {
	Endpoint string `json:"endpoint"`
	Database string `json:"database"`
	State    string `json:"state"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

// newCheckCmd creates the 'check' subcommand
func newCheckCmd() *cobra.Command {
	var showProgress bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check MongoDB connectivity and exit",
		Long:  "Perform one MongoDB bootstrap handshake with the configured settings, report the outcome and disconnect.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap.InitConfig(configFile)
			if err != nil {
				return err
			}

			conn := bootstrap.InitConnection(cfg, zap.NewNop().Sugar())
			defer conn.Close(context.Background())

			if !quiet && !outputJSON {
				infoColor.Fprintf(cmd.OutOrStdout(), "Checking MongoDB at %s\n", conn.RedactedEndpoint())
			}

			var s *spinner.Spinner
			if showProgress && !outputJSON && !quiet {
				s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
				s.Suffix = " Connecting..."
				s.Start()
			}

			start := time.Now()
			_, connErr := conn.EnsureConnected(cmd.Context())
			elapsed := time.Since(start).Round(time.Millisecond)

			if s != nil {
				s.Stop()
			}

			result := checkResult{
				Endpoint: conn.RedactedEndpoint(),
				Database: conn.DatabaseName(),
				State:    conn.State().String(),
				Duration: elapsed.String(),
			}
			if connErr != nil {
				result.Error = util.SanitizeError(connErr)
			}

			if outputJSON {
				if err := outputAsJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				renderCheckResult(cmd, result, connErr)
			}

			if connErr != nil {
				return fmt.Errorf("MongoDB is unreachable: %w", connErr)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showProgress, "progress", true, "Show progress indicator")

	return cmd
}

func renderCheckResult(cmd *cobra.Command, result checkResult, connErr error) {
	out := cmd.OutOrStdout()
	if connErr != nil {
		errorColor.Fprintf(out, "✗ %s\n", result.State)
		fmt.Fprintln(out, bootstrap.ClassifyConnectionError(connErr, result.Endpoint))
		return
	}
	if quiet {
		return
	}
	successColor.Fprintf(out, "✓ %s", result.State)
	fmt.Fprintf(out, " to database %q in %s\n", result.Database, result.Duration)
}
