// Package retrieval runs an uploaded fleet snapshot through loading, filtering
// and nearest-port matching and returns a single tagged outcome.
package retrieval

import (
	"context"
	"errors"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/yusukeinoue-jpg/lime-tool/internal/fleet"
	"github.com/yusukeinoue-jpg/lime-tool/internal/models"
	"github.com/yusukeinoue-jpg/lime-tool/internal/ports"
)

// Status of a pipeline run
type Status string

const (
	StatusOK    Status = "ok"
	StatusEmpty Status = "empty"
	StatusError Status = "error"
)

// ErrorKind tells the front ends which message to show
type ErrorKind string

const (
	KindParse       ErrorKind = "parse"
	KindSchema      ErrorKind = "schema"
	KindNoReference ErrorKind = "no_reference"
	KindInternal    ErrorKind = "internal"
)

// Result is the outcome of one run. Matches is set only when Status is StatusOK.
type Result struct {
	Status  Status         `json:"status"`
	Kind    ErrorKind      `json:"kind,omitempty"`
	Message string         `json:"message,omitempty"`
	Matches []models.Match `json:"matches,omitempty"`
}

// Failed reports whether the run ended in an error
func (r Result) Failed() bool {
	return r.Status == StatusError
}

// Service holds the per-deployment knobs of the pipeline
type Service struct {
	sentinel string
	location *time.Location
	now      func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a pipeline. An empty sentinel means fleet.DefaultSentinel;
// a nil location means time.Local.
func NewService(sentinel string, loc *time.Location, opts ...Option) *Service {
	if sentinel == "" {
		sentinel = fleet.DefaultSentinel
	}
	if loc == nil {
		loc = time.Local
	}
	s := &Service{sentinel: sentinel, location: loc, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run loads the snapshot in r and matches every candidate against table.
// Errors are reported inside the Result, never returned or panicked.
func (s *Service) Run(ctx context.Context, r io.Reader, table []models.ReferencePort) Result {
	logger := log.WithField("component", "retrieval")

	records, err := fleet.Load(r, s.location)
	if err != nil {
		var le *fleet.LoadError
		if errors.As(err, &le) {
			logger.WithError(err).WithField("kind", le.Kind).Warn("Rejected fleet snapshot")
			return Result{Status: StatusError, Kind: ErrorKind(le.Kind), Message: le.Message}
		}
		logger.WithError(err).Error("Unexpected snapshot load failure")
		return Result{Status: StatusError, Kind: KindInternal, Message: "could not read the uploaded file"}
	}

	if err := ctx.Err(); err != nil {
		return Result{Status: StatusError, Kind: KindInternal, Message: "request cancelled"}
	}

	candidates := fleet.SelectCandidates(records, s.sentinel, s.now())
	logger.WithFields(log.Fields{"rows": len(records), "candidates": len(candidates)}).Info("Selected retrieval candidates")
	if len(candidates) == 0 {
		return Result{Status: StatusEmpty}
	}

	matches, err := MatchAll(candidates, table)
	if err != nil {
		if errors.Is(err, ports.ErrNoReferenceData) {
			logger.Error("Reference port table is empty")
			return Result{Status: StatusError, Kind: KindNoReference, Message: "reference port table is empty"}
		}
		logger.WithError(err).Error("Matching failed")
		return Result{Status: StatusError, Kind: KindInternal, Message: "could not match vehicles to ports"}
	}

	return Result{Status: StatusOK, Matches: matches}
}

// MatchAll pairs each candidate with its nearest port, keeping candidate order.
// Candidates whose distances are all NaN get a nil Port.
func MatchAll(candidates []models.FleetRecord, table []models.ReferencePort) ([]models.Match, error) {
	if len(table) == 0 {
		return nil, ports.ErrNoReferenceData
	}

	matches := make([]models.Match, 0, len(candidates))
	for _, c := range candidates {
		m := models.Match{Candidate: c}
		pm, err := ports.Nearest(c.Latitude, c.Longitude, table)
		switch {
		case err == nil:
			m.Port = &pm
		case errors.Is(err, ports.ErrNoFiniteDistance):
			// no port, the candidate is still listed
		default:
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, nil
}
