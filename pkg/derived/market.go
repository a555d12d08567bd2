package derived

import (
	"context"
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ANIMANxd/devpath-cli/pkg/devpath"
)

// MatchClient is the slice of the backend client the market-match
// requester needs.
type MatchClient interface {
	MarketMatch(ctx context.Context, req devpath.MarketMatchRequest) (*devpath.GapAnalysis, error)
}

// MarketMatchRequester compares the current report's skills against a
// job title from the catalog.
type MarketMatchRequester struct {
	log    logrus.FieldLogger
	client MatchClient

	mu      sync.Mutex
	result  *devpath.GapAnalysis
	lastErr string
	loading bool
}

// NewMarketMatchRequester creates a requester with no result.
func NewMarketMatchRequester(log logrus.FieldLogger, client MatchClient) *MarketMatchRequester {
	return &MarketMatchRequester{
		log:    log.WithField("component", "market_match"),
		client: client,
	}
}

// Generate requests a gap analysis for the given skills and job title.
// Empty skills or a title outside the catalog fail validation before
// any network traffic. A successful call overwrites any previous
// result.
func (r *MarketMatchRequester) Generate(ctx context.Context, skills []string, jobTitle string) (*devpath.GapAnalysis, error) {
	if len(skills) == 0 {
		return nil, devpath.Validation("no skills available, run an analysis first")
	}
	if jobTitle == "" {
		return nil, devpath.Validation("job title must not be empty")
	}
	if !KnownJobTitle(jobTitle) {
		return nil, devpath.Validation("unknown job title: " + jobTitle)
	}

	r.setLoading(true)
	defer r.setLoading(false)

	r.log.WithField("job_title", jobTitle).Info("Generating market match")

	analysis, err := r.client.MarketMatch(ctx, devpath.MarketMatchRequest{
		UserSkills: skills,
		JobTitle:   jobTitle,
	})
	if err != nil {
		r.setError(err)

		return nil, err
	}

	r.mu.Lock()
	r.result = analysis
	r.lastErr = ""
	r.mu.Unlock()

	return analysis, nil
}

// Result returns the last successful analysis, if any, and the last
// error message.
func (r *MarketMatchRequester) Result() (*devpath.GapAnalysis, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.result, r.lastErr
}

// Loading reports whether a generation is in flight.
func (r *MarketMatchRequester) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.loading
}

func (r *MarketMatchRequester) setLoading(v bool) {
	r.mu.Lock()
	r.loading = v
	r.mu.Unlock()
}

func (r *MarketMatchRequester) setError(err error) {
	r.mu.Lock()
	r.lastErr = err.Error()
	r.mu.Unlock()
}

// MatchPercent converts matching/missing skill counts into a rounded
// percentage. Both counts zero yields 0 rather than dividing by zero.
func MatchPercent(matching, missing int) int {
	total := matching + missing
	if total == 0 {
		return 0
	}

	return int(math.Round(100 * float64(matching) / float64(total)))
}
