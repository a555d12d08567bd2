// Package session persists the client's authentication credential and
// cached display identity across process restarts.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ANIMANxd/devpath-cli/pkg/config"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store holds the current credential and an optional cached display
// identity. Every mutation is written through to the database so state
// survives restarts; reads are served from an in-memory snapshot
// hydrated at Start. The store performs no network calls and does not
// validate credential shape — emptiness is rejected by callers.
type Store interface {
	Start(ctx context.Context) error
	Stop() error

	Credential() string
	SetCredential(ctx context.Context, value string) error
	ClearCredential(ctx context.Context) error

	DisplayIdentity() string
	SetDisplayIdentity(ctx context.Context, name string) error
}

// Compile-time interface check.
var _ Store = (*store)(nil)

type store struct {
	log logrus.FieldLogger
	cfg *config.DatabaseConfig

	db *gorm.DB

	mu    sync.RWMutex
	state State
}

// NewStore creates a Store backed by the configured database driver.
func NewStore(
	log logrus.FieldLogger,
	cfg *config.DatabaseConfig,
) Store {
	return &store{
		log: log.WithField("component", "session"),
		cfg: cfg,
	}
}

// Start opens the database, runs migrations, and hydrates the snapshot
// for the fixed namespace.
func (s *store) Start(ctx context.Context) error {
	var dialector gorm.Dialector

	switch s.cfg.Driver {
	case "sqlite":
		if dir := filepath.Dir(s.cfg.SQLite.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return fmt.Errorf("creating data directory: %w", err)
			}
		}

		dialector = sqlite.Open(s.cfg.SQLite.Path)
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			s.cfg.Postgres.Host,
			s.cfg.Postgres.Port,
			s.cfg.Postgres.User,
			s.cfg.Postgres.Password,
			s.cfg.Postgres.Database,
			s.cfg.Postgres.SSLMode,
		)
		dialector = postgres.Open(dsn)
	default:
		return fmt.Errorf("unsupported database driver: %s", s.cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	s.db = db

	if err := s.db.WithContext(ctx).AutoMigrate(&State{}); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	var state State
	if err := s.db.WithContext(ctx).
		Where(State{Namespace: Namespace}).
		FirstOrCreate(&state).Error; err != nil {
		return fmt.Errorf("hydrating session state: %w", err)
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.log.WithField("driver", s.cfg.Driver).
		WithField("authenticated", state.Credential != "").
		Debug("Session store ready")

	return nil
}

// Stop closes the underlying database connection.
func (s *store) Stop() error {
	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying db: %w", err)
	}

	return sqlDB.Close()
}

// Credential returns the stored credential, or "" when absent.
func (s *store) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.Credential
}

// SetCredential stores a new credential.
func (s *store) SetCredential(ctx context.Context, value string) error {
	return s.update(ctx, func(state *State) {
		state.Credential = value
	})
}

// ClearCredential destroys the credential and the cached display
// identity together.
func (s *store) ClearCredential(ctx context.Context) error {
	return s.update(ctx, func(state *State) {
		state.Credential = ""
		state.DisplayIdentity = ""
	})
}

// DisplayIdentity returns the cached username, or "" when unknown.
func (s *store) DisplayIdentity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.DisplayIdentity
}

// SetDisplayIdentity caches the username. The identity is purely
// cosmetic and set once: a no-op when one is already present.
func (s *store) SetDisplayIdentity(ctx context.Context, name string) error {
	s.mu.RLock()
	existing := s.state.DisplayIdentity
	s.mu.RUnlock()

	if existing != "" {
		return nil
	}

	return s.update(ctx, func(state *State) {
		state.DisplayIdentity = name
	})
}

// update applies a mutation to the snapshot and writes it through.
func (s *store) update(ctx context.Context, mutate func(*State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state
	mutate(&next)

	if err := s.db.WithContext(ctx).Save(&next).Error; err != nil {
		return fmt.Errorf("persisting session state: %w", err)
	}

	s.state = next

	return nil
}
