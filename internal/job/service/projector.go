package service

import (
	"strings"
	"time"

	"github.com/interiohub/interio/internal/cache"
	jobdomain "github.com/interiohub/interio/internal/job/domain"
)

const (
	unknownError       = "unknown error"
	terminalCacheTTL   = 10 * time.Minute
	terminalCacheLimit = 10000
)

// ProjectState maps a native state to the client vocabulary. Unknown states
// pass through verbatim.
func ProjectState(state jobdomain.State) string {
	switch state {
	case jobdomain.StatePending, jobdomain.StateReceived:
		return jobdomain.StatusPending
	case jobdomain.StateStarted:
		return jobdomain.StatusStarted
	case jobdomain.StateSuccess:
		return jobdomain.StatusSucceeded
	case jobdomain.StateFailure:
		return jobdomain.StatusFailed
	default:
		return string(state)
	}
}

// Project builds the client view of a job.
func Project(job jobdomain.Job) jobdomain.Projection {
	p := jobdomain.Projection{
		JobID:  job.ID.String(),
		Status: ProjectState(job.State),
	}
	switch job.State {
	case jobdomain.StateSuccess:
		result := job.Result.Data()
		p.Result = &result
	case jobdomain.StateFailure:
		p.Error = strings.TrimSpace(job.Error)
		if p.Error == "" {
			p.Error = unknownError
		}
	}
	return p
}

type cachedProjection struct {
	accountID  string
	projection jobdomain.Projection
}

// Projector serves status reads. Terminal projections never change, so
// they are cached.
type Projector struct {
	terminal cache.Cache[string, cachedProjection]
}

func NewProjector() *Projector {
	return &Projector{
		terminal: cache.NewTTLCache[string, cachedProjection](cache.WithMaxEntries(terminalCacheLimit)),
	}
}

func (p *Projector) cached(accountID, jobID string) (jobdomain.Projection, bool) {
	entry, ok := p.terminal.Get(jobID)
	if !ok || entry.accountID != accountID {
		return jobdomain.Projection{}, false
	}
	return entry.projection, true
}

func (p *Projector) project(job jobdomain.Job) jobdomain.Projection {
	projection := Project(job)
	if job.State.Terminal() {
		p.terminal.Set(projection.JobID, cachedProjection{
			accountID:  job.AccountID,
			projection: projection,
		}, terminalCacheTTL)
	}
	return projection
}
