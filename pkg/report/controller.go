// Package report owns the client-side state for the current analysis
// report and the server-persisted report history.
package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ANIMANxd/devpath-cli/pkg/devpath"
)

// View names the dashboard area a renderer should show.
type View string

const (
	ViewAnalysis View = "analysis"
	ViewCareer   View = "career"
	ViewMarket   View = "market"
	ViewHistory  View = "history"
)

// ErrDeleteCanceled means the user declined the confirmation prompt;
// no request was made.
var ErrDeleteCanceled = errors.New("delete canceled")

// Client is the slice of the backend client the controller needs.
type Client interface {
	Analyze(ctx context.Context) (*devpath.FullReport, error)
	ListReports(ctx context.Context) ([]devpath.ReportHistoryItem, error)
	GetReport(ctx context.Context, id int) (*devpath.FullReport, error)
	DeleteReport(ctx context.Context, id int) error
}

// Session is the slice of the session store the controller needs.
type Session interface {
	Credential() string
	DisplayIdentity() string
	SetDisplayIdentity(ctx context.Context, name string) error
}

// Snapshot is a point-in-time copy of the controller state. The report
// pointer is shared and must be treated as read-only.
type Snapshot struct {
	Report          *devpath.FullReport
	ReportID        *int
	ReportCreatedAt time.Time
	History         []devpath.ReportHistoryItem
	Loading         bool
	LoadingHistory  bool
	LastError       string
	ActiveView      View
}

// Controller maintains the (report, report identity, timestamp,
// history) tuple and guarantees they never desynchronize. Overlapping
// operations are fenced with a per-slot sequence number: a response
// that lost the race against a newer request is discarded.
type Controller struct {
	log     logrus.FieldLogger
	client  Client
	session Session

	// Confirm gates destructive operations. Nil means always confirmed
	// (callers that pre-confirm, e.g. a --yes flag).
	Confirm func(prompt string) bool

	now func() time.Time

	mu              sync.Mutex
	report          *devpath.FullReport
	reportID        *int
	reportCreatedAt time.Time
	history         []devpath.ReportHistoryItem
	loading         bool
	loadingHistory  bool
	lastError       string
	activeView      View
	autoLoaded      bool
	reportSeq       uint64
	historySeq      uint64
}

// NewController creates a controller with no current report.
func NewController(
	log logrus.FieldLogger,
	client Client,
	session Session,
) *Controller {
	return &Controller{
		log:        log.WithField("component", "report"),
		client:     client,
		session:    session,
		now:        time.Now,
		activeView: ViewAnalysis,
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	history := make([]devpath.ReportHistoryItem, len(c.history))
	copy(history, c.history)

	var id *int
	if c.reportID != nil {
		v := *c.reportID
		id = &v
	}

	return Snapshot{
		Report:          c.report,
		ReportID:        id,
		ReportCreatedAt: c.reportCreatedAt,
		History:         history,
		Loading:         c.loading,
		LoadingHistory:  c.loadingHistory,
		LastError:       c.lastError,
		ActiveView:      c.activeView,
	}
}

// RunFreshAnalysis triggers a new full-profile analysis. The result
// replaces the current report as an unsaved one (no identity yet); the
// history is refreshed afterwards so the server-assigned id shows up.
// On failure the prior report is left untouched.
func (c *Controller) RunFreshAnalysis(ctx context.Context) error {
	if c.session.Credential() == "" {
		return devpath.Validation("not authenticated, log in first")
	}

	c.mu.Lock()
	c.loading = true
	c.lastError = ""
	c.reportSeq++
	seq := c.reportSeq
	c.mu.Unlock()

	c.log.Info("Running full profile analysis, this may take a minute")

	result, err := c.client.Analyze(ctx)

	c.mu.Lock()
	if seq != c.reportSeq {
		c.mu.Unlock()
		c.log.Debug("Discarding stale analysis response")

		return err
	}

	c.loading = false

	if err != nil {
		c.lastError = err.Error()
		c.mu.Unlock()

		return fmt.Errorf("running analysis: %w", err)
	}

	c.report = result
	c.reportID = nil
	c.reportCreatedAt = c.now()
	c.mu.Unlock()

	c.cacheDisplayIdentity(ctx, result)

	if err := c.RefreshHistory(ctx); err != nil {
		// The analysis itself succeeded; a history refresh failure is
		// not worth failing the operation over.
		c.log.WithError(err).Warn("Failed to refresh history after analysis")
	}

	return nil
}

// RefreshHistory replaces the stored history with the server's listing
// (server ordering, most recent first). The first refresh that finds
// history while no report is loaded auto-loads the most recent entry.
func (c *Controller) RefreshHistory(ctx context.Context) error {
	c.mu.Lock()
	c.loadingHistory = true
	c.historySeq++
	seq := c.historySeq
	c.mu.Unlock()

	items, err := c.client.ListReports(ctx)

	c.mu.Lock()
	if seq != c.historySeq {
		c.mu.Unlock()

		return err
	}

	c.loadingHistory = false

	if err != nil {
		c.mu.Unlock()

		return fmt.Errorf("fetching report history: %w", err)
	}

	c.history = items

	autoLoad := !c.autoLoaded && c.report == nil && len(items) > 0
	if autoLoad {
		// One-time convenience on initial load, not on every refresh.
		c.autoLoaded = true
	}
	c.mu.Unlock()

	if autoLoad {
		latest := items[0]
		if err := c.loadIntoState(ctx, latest.ID); err != nil {
			c.log.WithError(err).
				WithField("id", latest.ID).
				Warn("Failed to auto-load most recent report")
		}
	}

	return nil
}

// LoadReport makes the given persisted report current and switches the
// active view to the analysis view.
func (c *Controller) LoadReport(ctx context.Context, id int) error {
	if err := c.loadIntoState(ctx, id); err != nil {
		c.mu.Lock()
		c.lastError = err.Error()
		c.mu.Unlock()

		return fmt.Errorf("loading report %d: %w", id, err)
	}

	c.mu.Lock()
	c.activeView = ViewAnalysis
	c.mu.Unlock()

	return nil
}

// loadIntoState fetches a report and installs it as current. The
// timestamp comes from the matching history entry when one is known.
func (c *Controller) loadIntoState(ctx context.Context, id int) error {
	c.mu.Lock()
	c.reportSeq++
	seq := c.reportSeq
	c.mu.Unlock()

	result, err := c.client.GetReport(ctx, id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if seq != c.reportSeq {
		c.mu.Unlock()
		c.log.Debug("Discarding stale report load")

		return nil
	}

	c.report = result
	c.reportID = &id
	c.reportCreatedAt = time.Time{}

	for _, item := range c.history {
		if item.ID == id {
			c.reportCreatedAt = parseCreatedAt(item.CreatedAt)

			break
		}
	}
	c.mu.Unlock()

	c.cacheDisplayIdentity(ctx, result)

	return nil
}

// DeleteReport removes a persisted report after user confirmation.
// Deleting the currently loaded report clears the current report, its
// identity, and its timestamp as one step.
func (c *Controller) DeleteReport(ctx context.Context, id int) error {
	if c.Confirm != nil {
		prompt := fmt.Sprintf("Delete analysis report %d? This cannot be undone.", id)
		if !c.Confirm(prompt) {
			return ErrDeleteCanceled
		}
	}

	if err := c.client.DeleteReport(ctx, id); err != nil {
		c.mu.Lock()
		c.lastError = err.Error()
		c.mu.Unlock()

		return fmt.Errorf("deleting report %d: %w", id, err)
	}

	c.mu.Lock()
	if c.reportID != nil && *c.reportID == id {
		c.report = nil
		c.reportID = nil
		c.reportCreatedAt = time.Time{}
	}
	c.mu.Unlock()

	c.log.WithField("id", id).Info("Report deleted")

	return c.RefreshHistory(ctx)
}

// SetActiveView records which dashboard area the user is on.
func (c *Controller) SetActiveView(v View) {
	c.mu.Lock()
	c.activeView = v
	c.mu.Unlock()
}

// cacheDisplayIdentity opportunistically fills the session's display
// identity from report contents when it is not already known.
func (c *Controller) cacheDisplayIdentity(ctx context.Context, r *devpath.FullReport) {
	if c.session.DisplayIdentity() != "" {
		return
	}

	name := DeriveDisplayIdentity(r)
	if name == "" {
		return
	}

	if err := c.session.SetDisplayIdentity(ctx, name); err != nil {
		c.log.WithError(err).Warn("Failed to cache display identity")

		return
	}

	c.log.WithField("username", name).Debug("Derived display identity from report")
}

// parseCreatedAt parses the server's RFC 3339 timestamps; a zero time
// stands in for anything unparseable.
func parseCreatedAt(value string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}

	return time.Time{}
}
