package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.store.Credential() == "" {
		fmt.Println("Not logged in.")

		return nil
	}

	if err := a.store.ClearCredential(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	fmt.Println("Logged out.")

	return nil
}
