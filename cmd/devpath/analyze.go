package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a fresh full-profile analysis",
	Long: `Analyze the authenticated GitHub profile through the DevPath AI
backend and print the resulting report. Analysis can take a minute;
the backend walks repositories and runs AI summarization.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	log.Info("Running full profile analysis, this can take a while")

	if err := a.reports.RunFreshAnalysis(ctx); err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	snap := a.reports.Snapshot()
	renderReport(os.Stdout, snap.Report)

	return nil
}
