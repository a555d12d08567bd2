// Package derived holds the requesters for the analyses computed on
// top of an existing report: the career track and the market match.
// Each requester keeps its own transient result, error, and loading
// state, independent of the report lifecycle.
package derived

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ANIMANxd/devpath-cli/pkg/devpath"
)

// TrackClient is the slice of the backend client the career-track
// requester needs.
type TrackClient interface {
	GenerateTrack(ctx context.Context, req devpath.CareerTrackRequest) (*devpath.CareerTrack, error)
}

// CareerTrackRequester generates a learning path from the current
// report's skills toward a target domain.
type CareerTrackRequester struct {
	log    logrus.FieldLogger
	client TrackClient

	mu      sync.Mutex
	result  *devpath.CareerTrack
	lastErr string
	loading bool
}

// NewCareerTrackRequester creates a requester with no result.
func NewCareerTrackRequester(log logrus.FieldLogger, client TrackClient) *CareerTrackRequester {
	return &CareerTrackRequester{
		log:    log.WithField("component", "career_track"),
		client: client,
	}
}

// Generate requests a career track for the given skills and target
// domain. Empty inputs fail validation before any network traffic. A
// successful call overwrites any previous result; a failed one keeps
// the previous result but records the error.
func (r *CareerTrackRequester) Generate(ctx context.Context, skills []string, targetDomain string) (*devpath.CareerTrack, error) {
	if len(skills) == 0 {
		return nil, devpath.Validation("no skills available, run an analysis first")
	}
	if targetDomain == "" {
		return nil, devpath.Validation("target domain must not be empty")
	}

	r.setLoading(true)
	defer r.setLoading(false)

	r.log.WithField("target_domain", targetDomain).Info("Generating career track")

	track, err := r.client.GenerateTrack(ctx, devpath.CareerTrackRequest{
		CurrentSkills: skills,
		TargetDomain:  targetDomain,
	})
	if err != nil {
		r.setError(err)

		return nil, err
	}

	r.mu.Lock()
	r.result = track
	r.lastErr = ""
	r.mu.Unlock()

	return track, nil
}

// Result returns the last successful track, if any, and the last
// error message.
func (r *CareerTrackRequester) Result() (*devpath.CareerTrack, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.result, r.lastErr
}

// Loading reports whether a generation is in flight.
func (r *CareerTrackRequester) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.loading
}

func (r *CareerTrackRequester) setLoading(v bool) {
	r.mu.Lock()
	r.loading = v
	r.mu.Unlock()
}

func (r *CareerTrackRequester) setError(err error) {
	r.mu.Lock()
	r.lastErr = err.Error()
	r.mu.Unlock()
}
