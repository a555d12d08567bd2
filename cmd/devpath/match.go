package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ANIMANxd/devpath-cli/pkg/derived"
	"github.com/ANIMANxd/devpath-cli/pkg/report"
)

var matchList bool

var matchCmd = &cobra.Command{
	Use:   "match <job-title>",
	Short: "Compare your skills against a job title",
	Long: `Run a gap analysis between the skills in the most recent analysis
report and a job title from the catalog, e.g.
'devpath match "DevOps Engineer"'. Use --list to print the catalog.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().BoolVar(&matchList, "list", false,
		"print the job title catalog")

	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	if matchList {
		for _, title := range derived.JobTitles {
			fmt.Println(title)
		}

		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("job title is required (see 'devpath match --list')")
	}

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

	requester := derived.NewMarketMatchRequester(log, a.client)

	analysis, err := requester.Generate(ctx, skills, args[0])
	if err != nil {
		return fmt.Errorf("generating market match: %w", err)
	}

	a.reports.SetActiveView(report.ViewMarket)
	renderMatch(os.Stdout, args[0], analysis)

	return nil
}
