package pipeline

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"keyword-research-go/pkg/logger"
	"keyword-research-go/pkg/report"
)

// Step names of an analysis run, in order.
const (
	StepValidate = "validate"
	StepGenerate = "generate"
	StepFetch    = "fetch"
	StepCluster  = "cluster"
	StepReport   = "report"

	totalSteps = 4
)

// Request is the input of one analysis.
type Request struct {
	Topic        string `json:"topic"`
	BusinessType string `json:"business_type"`
}

// Run holds the state of one analysis. Nothing in it is shared between runs.
type Run struct {
	ID         string               `json:"id"`
	Request    Request              `json:"request"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
	Seeds      []string             `json:"seeds"`
	Steps      *logger.StepReporter `json:"-"`
	Report     *report.Report       `json:"report,omitempty"`

	log *logger.Logger
}

// RunError reports the step an analysis failed in.
type RunError struct {
	RunID string
	Step  string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %s: %s failed: %v", e.RunID, e.Step, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// idSource hands out monotonic ULIDs; ulid.MonotonicEntropy is not safe for concurrent use.
type idSource struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newIDSource() *idSource {
	return &idSource{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (s *idSource) next(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}
