package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANIMANxd/devpath-cli/pkg/devpath"
)

const historyLimit = 3

// fakeBackend mimics the server's report persistence: analyze stores
// the produced report and the history is truncated to the three most
// recent entries, newest first.
type fakeBackend struct {
	analyzeResult *devpath.FullReport
	analyzeErr    error
	listErr       error

	reports map[int]*devpath.FullReport
	history []devpath.ReportHistoryItem
	nextID  int

	analyzeCalls int
	deleteCalls  int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		reports: map[int]*devpath.FullReport{},
		nextID:  1,
	}
}

func (f *fakeBackend) seed(id int, r *devpath.FullReport, createdAt string) {
	f.reports[id] = r
	f.history = append(f.history, devpath.ReportHistoryItem{ID: id, CreatedAt: createdAt})

	if id >= f.nextID {
		f.nextID = id + 1
	}
}

func (f *fakeBackend) Analyze(_ context.Context) (*devpath.FullReport, error) {
	f.analyzeCalls++

	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}

	id := f.nextID
	f.nextID++
	f.reports[id] = f.analyzeResult
	f.history = append([]devpath.ReportHistoryItem{{
		ID:        id,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}}, f.history...)

	if len(f.history) > historyLimit {
		f.history = f.history[:historyLimit]
	}

	return f.analyzeResult, nil
}

func (f *fakeBackend) ListReports(_ context.Context) ([]devpath.ReportHistoryItem, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	out := make([]devpath.ReportHistoryItem, len(f.history))
	copy(out, f.history)

	return out, nil
}

func (f *fakeBackend) GetReport(_ context.Context, id int) (*devpath.FullReport, error) {
	r, ok := f.reports[id]
	if !ok {
		return nil, &devpath.Error{
			Kind:    devpath.KindAPIError,
			Status:  404,
			Message: "report not found",
		}
	}

	return r, nil
}

func (f *fakeBackend) DeleteReport(_ context.Context, id int) error {
	f.deleteCalls++

	delete(f.reports, id)

	kept := f.history[:0]
	for _, item := range f.history {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	f.history = kept

	return nil
}

type fakeSession struct {
	credential string
	identity   string
}

func (f *fakeSession) Credential() string      { return f.credential }
func (f *fakeSession) DisplayIdentity() string { return f.identity }

func (f *fakeSession) SetDisplayIdentity(_ context.Context, name string) error {
	if f.identity == "" {
		f.identity = name
	}

	return nil
}

func sampleReport(skills ...string) *devpath.FullReport {
	return &devpath.FullReport{
		SkillConstellation: skills,
		DeveloperArchetype: "The Builder",
		ProjectHubs: []devpath.RepoReport{
			{Name: "octocat/hello-world", Skills: skills, AISummary: "a classic"},
		},
		FlagshipProjects: []devpath.RepoReport{
			{Name: "octocat/flagship", Skills: skills, AISummary: "the big one"},
		},
		AICodeQualitySummary: "clean",
	}
}

func newTestController(backend *fakeBackend, sess *fakeSession) *Controller {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return NewController(log, backend, sess)
}

func TestRunFreshAnalysis_RoundTripThroughHistory(t *testing.T) {
	backend := newFakeBackend()
	backend.analyzeResult = sampleReport("go", "docker")
	c := newTestController(backend, &fakeSession{credential: "tok"})
	ctx := context.Background()

	require.NoError(t, c.RunFreshAnalysis(ctx))

	snap := c.Snapshot()
	assert.Nil(t, snap.ReportID, "fresh analysis is unsaved")
	assert.False(t, snap.ReportCreatedAt.IsZero())
	require.NotEmpty(t, snap.History)

	// Loading the newest history entry yields the same report.
	require.NoError(t, c.LoadReport(ctx, snap.History[0].ID))

	snap = c.Snapshot()
	require.NotNil(t, snap.ReportID)
	assert.Equal(t, backend.history[0].ID, *snap.ReportID)
	assert.Equal(t, backend.analyzeResult, snap.Report)
}

func TestRunFreshAnalysis_RequiresCredential(t *testing.T) {
	backend := newFakeBackend()
	c := newTestController(backend, &fakeSession{})

	err := c.RunFreshAnalysis(context.Background())
	require.Error(t, err)
	assert.True(t, devpath.IsKind(err, devpath.KindValidation))
	assert.Zero(t, backend.analyzeCalls, "guard must fire before the network")
}

func TestRunFreshAnalysis_FailureKeepsPriorReport(t *testing.T) {
	backend := newFakeBackend()
	backend.analyzeResult = sampleReport("go")
	c := newTestController(backend, &fakeSession{credential: "tok"})
	ctx := context.Background()

	require.NoError(t, c.RunFreshAnalysis(ctx))
	prior := c.Snapshot().Report

	backend.analyzeErr = errors.New("model overloaded")

	err := c.RunFreshAnalysis(ctx)
	require.Error(t, err)

	snap := c.Snapshot()
	assert.Equal(t, prior, snap.Report, "failed analysis must not overwrite")
	assert.Contains(t, snap.LastError, "model overloaded")
	assert.False(t, snap.Loading)
}

func TestRefreshHistory_AutoLoadsMostRecentOnce(t *testing.T) {
	backend := newFakeBackend()
	backend.seed(1, sampleReport("go"), "2025-01-01T10:00:00Z")
	backend.seed(2, sampleReport("go", "python"), "2025-02-01T10:00:00Z")
	backend.seed(5, sampleReport("go", "python", "rust"), "2025-03-01T10:00:00Z")
	// Server returns newest first.
	backend.history = []devpath.ReportHistoryItem{
		{ID: 5, CreatedAt: "2025-03-01T10:00:00Z"},
		{ID: 2, CreatedAt: "2025-02-01T10:00:00Z"},
		{ID: 1, CreatedAt: "2025-01-01T10:00:00Z"},
	}

	c := newTestController(backend, &fakeSession{credential: "tok"})
	ctx := context.Background()

	require.NoError(t, c.RefreshHistory(ctx))

	snap := c.Snapshot()
	require.NotNil(t, snap.ReportID)
	assert.Equal(t, 5, *snap.ReportID)
	assert.Equal(t, backend.reports[5], snap.Report)
	assert.Equal(t,
		time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		snap.ReportCreatedAt,
	)

	// Deleting the current report and refreshing must not re-trigger
	// the auto-load: it is an initial-mount convenience only.
	c.Confirm = func(string) bool { return true }
	require.NoError(t, c.DeleteReport(ctx, 5))

	snap = c.Snapshot()
	assert.Nil(t, snap.Report)
	assert.Nil(t, snap.ReportID)
	assert.Len(t, snap.History, 2)
}

func TestLoadReport_SetsViewAndTimestamp(t *testing.T) {
	backend := newFakeBackend()
	backend.seed(2, sampleReport("go"), "2025-02-01T10:00:00Z")
	backend.seed(7, sampleReport("rust"), "2025-04-01T10:00:00Z")
	backend.history = []devpath.ReportHistoryItem{
		{ID: 7, CreatedAt: "2025-04-01T10:00:00Z"},
		{ID: 2, CreatedAt: "2025-02-01T10:00:00Z"},
	}

	c := newTestController(backend, &fakeSession{credential: "tok"})
	ctx := context.Background()

	require.NoError(t, c.RefreshHistory(ctx))
	c.SetActiveView(ViewHistory)

	require.NoError(t, c.LoadReport(ctx, 2))

	snap := c.Snapshot()
	assert.Equal(t, ViewAnalysis, snap.ActiveView)
	require.NotNil(t, snap.ReportID)
	assert.Equal(t, 2, *snap.ReportID)
	assert.Equal(t,
		time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
		snap.ReportCreatedAt,
	)
}

func TestLoadReport_UnknownTimestampLeftUnset(t *testing.T) {
	backend := newFakeBackend()
	backend.seed(9, sampleReport("go"), "2025-05-01T10:00:00Z")
	// History never fetched, so no matching entry exists.
	c := newTestController(backend, &fakeSession{credential: "tok"})

	require.NoError(t, c.LoadReport(context.Background(), 9))
	assert.True(t, c.Snapshot().ReportCreatedAt.IsZero())
}

func TestDeleteReport_CurrentVersusOther(t *testing.T) {
	backend := newFakeBackend()
	backend.seed(3, sampleReport("go"), "2025-01-03T10:00:00Z")
	backend.seed(4, sampleReport("rust"), "2025-01-04T10:00:00Z")
	backend.history = []devpath.ReportHistoryItem{
		{ID: 4, CreatedAt: "2025-01-04T10:00:00Z"},
		{ID: 3, CreatedAt: "2025-01-03T10:00:00Z"},
	}

	c := newTestController(backend, &fakeSession{credential: "tok"})
	c.Confirm = func(string) bool { return true }
	ctx := context.Background()

	require.NoError(t, c.LoadReport(ctx, 4))

	// Deleting a different report leaves the current one alone.
	require.NoError(t, c.DeleteReport(ctx, 3))

	snap := c.Snapshot()
	require.NotNil(t, snap.ReportID)
	assert.Equal(t, 4, *snap.ReportID)
	assert.NotNil(t, snap.Report)

	// Deleting the current report clears report, id, and timestamp
	// together.
	require.NoError(t, c.DeleteReport(ctx, 4))

	snap = c.Snapshot()
	assert.Nil(t, snap.Report)
	assert.Nil(t, snap.ReportID)
	assert.True(t, snap.ReportCreatedAt.IsZero())
}

func TestDeleteReport_ConfirmationDeclined(t *testing.T) {
	backend := newFakeBackend()
	backend.seed(3, sampleReport("go"), "2025-01-03T10:00:00Z")

	c := newTestController(backend, &fakeSession{credential: "tok"})
	c.Confirm = func(string) bool { return false }

	err := c.DeleteReport(context.Background(), 3)
	require.ErrorIs(t, err, ErrDeleteCanceled)
	assert.Zero(t, backend.deleteCalls, "declined confirmation must not call the backend")
}

func TestDeriveDisplayIdentity(t *testing.T) {
	tests := []struct {
		name   string
		report *devpath.FullReport
		want   string
	}{
		{
			name:   "nil report",
			report: nil,
			want:   "",
		},
		{
			name: "hubs take precedence over flagships",
			report: &devpath.FullReport{
				ProjectHubs:      []devpath.RepoReport{{Name: "hubowner/x"}},
				FlagshipProjects: []devpath.RepoReport{{Name: "flagowner/y"}},
			},
			want: "hubowner",
		},
		{
			name: "falls back to flagships",
			report: &devpath.FullReport{
				ProjectHubs:      []devpath.RepoReport{{Name: "bare-name"}},
				FlagshipProjects: []devpath.RepoReport{{Name: "flagowner/y"}},
			},
			want: "flagowner",
		},
		{
			name: "skips names without an owner segment",
			report: &devpath.FullReport{
				ProjectHubs: []devpath.RepoReport{
					{Name: "/rooted"},
					{Name: "second/repo"},
				},
			},
			want: "second",
		},
		{
			name: "nothing usable",
			report: &devpath.FullReport{
				ProjectHubs: []devpath.RepoReport{{Name: "plain"}},
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveDisplayIdentity(tt.report))
		})
	}
}

func TestAnalysis_CachesDisplayIdentityOnce(t *testing.T) {
	backend := newFakeBackend()
	backend.analyzeResult = sampleReport("go")
	sess := &fakeSession{credential: "tok"}
	c := newTestController(backend, sess)
	ctx := context.Background()

	require.NoError(t, c.RunFreshAnalysis(ctx))
	assert.Equal(t, "octocat", sess.identity)

	// A later report with a different owner must not overwrite it.
	backend.analyzeResult = &devpath.FullReport{
		SkillConstellation: []string{"go"},
		ProjectHubs:        []devpath.RepoReport{{Name: "other/name"}},
	}
	require.NoError(t, c.RunFreshAnalysis(ctx))
	assert.Equal(t, "octocat", sess.identity)
}

func TestSetActiveView(t *testing.T) {
	c := newTestController(newFakeBackend(), &fakeSession{})

	assert.Equal(t, ViewAnalysis, c.Snapshot().ActiveView)

	for _, view := range []View{ViewCareer, ViewMarket, ViewHistory, ViewAnalysis} {
		c.SetActiveView(view)
		assert.Equal(t, view, c.Snapshot().ActiveView)
	}
}

func TestRefreshHistory_ErrorLeavesHistoryUntouched(t *testing.T) {
	backend := newFakeBackend()
	backend.seed(1, sampleReport("go"), "2025-01-01T10:00:00Z")
	backend.history = []devpath.ReportHistoryItem{
		{ID: 1, CreatedAt: "2025-01-01T10:00:00Z"},
	}

	c := newTestController(backend, &fakeSession{credential: "tok"})
	ctx := context.Background()

	require.NoError(t, c.RefreshHistory(ctx))
	require.Len(t, c.Snapshot().History, 1)

	backend.listErr = fmt.Errorf("boom")
	require.Error(t, c.RefreshHistory(ctx))
	assert.Len(t, c.Snapshot().History, 1)
}
