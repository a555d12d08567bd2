package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ANIMANxd/devpath-cli/pkg/auth"
)

var (
	loginToken  string
	loginManual bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with GitHub",
	Long: `Authenticate against the DevPath AI backend. By default the GitHub
OAuth flow is used: a local callback listener is started and the
authorize URL is printed for the browser. If OAuth is not configured
or fails, a personal access token can be entered manually.`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginToken, "token", "",
		"GitHub personal access token (skips the OAuth flow)")
	loginCmd.Flags().BoolVar(&loginManual, "manual", false,
		"prompt for a token instead of running the OAuth flow")

	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.store.Credential() != "" {
		log.Info("Already logged in, replacing existing session")
	}

	ctrl := auth.NewController(log, auth.Config{
		ClientID:       a.cfg.Auth.GitHub.ClientID,
		CallbackListen: a.cfg.Auth.GitHub.CallbackListen,
	}, a.client, a.store)
	ctrl.Notify = func(authorizeURL string) {
		fmt.Printf("Open this URL in your browser to authorize:\n\n  %s\n\n", authorizeURL)
		fmt.Println("Waiting for the GitHub redirect...")
	}

	switch {
	case loginToken != "":
		err = ctrl.LoginWithToken(ctx, loginToken)
	case loginManual:
		err = manualLogin(ctx, ctrl)
	default:
		err = ctrl.LoginWithBrowser(ctx)
		if err != nil {
			if errors.Is(err, auth.ErrOAuthNotConfigured) {
				log.Info("OAuth flow not configured, falling back to manual token entry")
			} else {
				log.WithError(err).Warn("OAuth flow failed, falling back to manual token entry")
			}

			err = manualLogin(ctx, ctrl)
		}
	}

	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Println("Logged in.")

	return nil
}

func manualLogin(ctx context.Context, ctrl *auth.Controller) error {
	token, err := promptLine("GitHub personal access token: ")
	if err != nil {
		return err
	}

	return ctrl.LoginWithToken(ctx, token)
}
