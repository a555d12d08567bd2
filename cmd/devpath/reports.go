package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ANIMANxd/devpath-cli/pkg/report"
)

var deleteYes bool

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Manage persisted analysis reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the report history",
	RunE:  runReportsList,
}

var reportsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Load and print a report from the history",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportsShow,
}

var reportsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a report from the history",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportsDelete,
}

func init() {
	reportsDeleteCmd.Flags().BoolVar(&deleteYes, "yes", false,
		"skip the confirmation prompt")

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsShowCmd)
	reportsCmd.AddCommand(reportsDeleteCmd)
	rootCmd.AddCommand(reportsCmd)
}

func runReportsList(cmd *cobra.Command, args []string) error {
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

	if err := a.reports.RefreshHistory(ctx); err != nil {
		return fmt.Errorf("fetching report history: %w", err)
	}

	a.reports.SetActiveView(report.ViewHistory)
	renderHistory(os.Stdout, a.reports.Snapshot())

	return nil
}

func runReportsShow(cmd *cobra.Command, args []string) error {
	id, err := parseReportID(args[0])
	if err != nil {
		return err
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

	if err := a.reports.LoadReport(ctx, id); err != nil {
		return fmt.Errorf("loading report %d: %w", id, err)
	}

	renderReport(os.Stdout, a.reports.Snapshot().Report)

	return nil
}

func runReportsDelete(cmd *cobra.Command, args []string) error {
	id, err := parseReportID(args[0])
	if err != nil {
		return err
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

	if !deleteYes {
		a.reports.Confirm = promptConfirm
	}

	if err := a.reports.DeleteReport(ctx, id); err != nil {
		if errors.Is(err, report.ErrDeleteCanceled) {
			fmt.Println("Canceled.")

			return nil
		}

		return fmt.Errorf("deleting report %d: %w", id, err)
	}

	fmt.Printf("Report %d deleted.\n", id)

	return nil
}

func parseReportID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid report id %q", arg)
	}

	return id, nil
}
