package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ANIMANxd/devpath-cli/pkg/derived"
	"github.com/ANIMANxd/devpath-cli/pkg/devpath"
	"github.com/ANIMANxd/devpath-cli/pkg/report"
)

var trackCmd = &cobra.Command{
	Use:   "track <target-domain>",
	Short: "Generate a career track toward a target domain",
	Long: `Generate a learning path from the skills in the most recent analysis
report toward a target domain, e.g. 'devpath track DevOps'.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrack,
}

func init() {
	rootCmd.AddCommand(trackCmd)
}

func runTrack(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.requireLogin(); err != nil {
		return err
	}

	skills, err := currentSkills(ctx, a)
	if err != nil {
		return err
	}

	requester := derived.NewCareerTrackRequester(log, a.client)

	track, err := requester.Generate(ctx, skills, args[0])
	if err != nil {
		return fmt.Errorf("generating career track: %w", err)
	}

	a.reports.SetActiveView(report.ViewCareer)
	renderTrack(os.Stdout, track)

	return nil
}

// currentSkills loads the skill constellation the derived analyses run
// against, pulling in the most recent report when none is loaded.
func currentSkills(ctx context.Context, a *app) ([]string, error) {
	if err := a.reports.RefreshHistory(ctx); err != nil {
		return nil, fmt.Errorf("fetching report history: %w", err)
	}

	snap := a.reports.Snapshot()
	if snap.Report == nil {
		return nil, devpath.Validation("no report available, run 'devpath analyze' first")
	}

	return snap.Report.SkillConstellation, nil
}
