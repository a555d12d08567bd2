package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ANIMANxd/devpath-cli/pkg/config"
	"github.com/ANIMANxd/devpath-cli/pkg/devpath"
	"github.com/ANIMANxd/devpath-cli/pkg/report"
	"github.com/ANIMANxd/devpath-cli/pkg/session"
)

// app wires the configured components together for one command
// invocation.
type app struct {
	cfg     *config.Config
	store   session.Store
	client  devpath.Client
	reports *report.Controller
}

// newApp loads configuration, opens the session store, and builds the
// backend client and report controller. Callers must Close.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store := session.NewStore(log, &cfg.Database)
	if err := store.Start(ctx); err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	timeout, err := cfg.BackendTimeout()
	if err != nil {
		return nil, fmt.Errorf("parsing backend timeout: %w", err)
	}

	client := devpath.NewClient(log, cfg.Backend.URL, store, devpath.Options{
		Timeout:           timeout,
		RequestsPerMinute: cfg.Backend.RateLimit.RequestsPerMinute,
	})

	return &app{
		cfg:     cfg,
		store:   store,
		client:  client,
		reports: report.NewController(log, client, store),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Stop(); err != nil {
		log.WithError(err).Warn("Failed to close session store")
	}
}

// loadConfig merges the --config files. Without the flag the default
// config at ~/.devpath/config.yaml is used when it exists; otherwise
// built-in defaults plus DEVPATH_* environment overrides apply.
func loadConfig() (*config.Config, error) {
	paths := cfgFiles
	if len(paths) == 0 {
		if p := defaultConfigPath(); p != "" {
			if _, err := os.Stat(p); err == nil {
				paths = []string{p}
			}
		}
	}

	cfg, err := config.Load(paths...)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".devpath", "config.yaml")
}

// signalContext returns a context canceled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// requireLogin ensures a usable credential is present before a command
// that needs one runs. A session token that already carries a past
// expiry fails fast instead of burning a doomed request.
func (a *app) requireLogin() error {
	cred := a.store.Credential()
	if cred == "" {
		return fmt.Errorf("not logged in, run 'devpath login' first")
	}

	if session.TokenLooksExpired(cred, time.Now()) {
		return fmt.Errorf("session expired, run 'devpath login' again")
	}

	return nil
}

// promptLine reads one trimmed line from stdin.
func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}

	return strings.TrimSpace(line), nil
}

// promptConfirm asks a yes/no question on stdin. Anything but an
// explicit yes declines.
func promptConfirm(prompt string) bool {
	answer, err := promptLine(prompt + " [y/N] ")
	if err != nil {
		return false
	}

	answer = strings.ToLower(answer)

	return answer == "y" || answer == "yes"
}
