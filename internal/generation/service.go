// Package generation admits generation requests: it validates the style and
// upload, debits one credit and hands the job to the queue.
package generation

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	artifactdomain "github.com/interiohub/interio/internal/artifact/domain"
	jobdomain "github.com/interiohub/interio/internal/job/domain"
	ledgerdomain "github.com/interiohub/interio/internal/ledger/domain"
	styledomain "github.com/interiohub/interio/internal/style/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// StyleChecker reports whether a style id exists.
type StyleChecker interface {
	Has(styleID string) bool
}

// SourceLocator maps a storage key to the reference recorded on uploads.
type SourceLocator interface {
	URL(key string) string
}

type Request struct {
	AccountID string
	SourceRef string
	StyleID   string
	UploadID  *snowflake.ID
	HD        bool
}

type Submission struct {
	JobID     snowflake.ID
	Tier      ledgerdomain.Tier
	Remaining int
}

var (
	ErrInvalidSource   = errors.New("invalid_source")
	ErrSourceForbidden = errors.New("source_forbidden")
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Ledger    ledgerdomain.Service
	Styles    StyleChecker
	Artifacts artifactdomain.Service
	Jobs      jobdomain.Service
	Sources   SourceLocator
}

type Gate struct {
	log       *zap.Logger
	ledger    ledgerdomain.Service
	styles    StyleChecker
	artifacts artifactdomain.Service
	jobs      jobdomain.Service
	sources   SourceLocator
}

func NewGate(p Params) *Gate {
	return &Gate{
		log:       p.Log.Named("generation.gate"),
		ledger:    p.Ledger,
		styles:    p.Styles,
		artifacts: p.Artifacts,
		jobs:      p.Jobs,
		sources:   p.Sources,
	}
}

// Submit debits exactly one credit of the requested tier and enqueues the
// job. Credits are never returned, even if enqueueing or the job fails.
func (g *Gate) Submit(ctx context.Context, req Request) (*Submission, error) {
	accountID := strings.TrimSpace(req.AccountID)
	if accountID == "" {
		return nil, ledgerdomain.ErrInvalidAccount
	}
	source := strings.TrimSpace(req.SourceRef)
	if source == "" {
		return nil, ErrInvalidSource
	}
	styleID := strings.ToLower(strings.TrimSpace(req.StyleID))
	if styleID == "" {
		return nil, styledomain.ErrInvalidStyle
	}
	if !g.styles.Has(styleID) {
		return nil, styledomain.ErrUnknownStyle
	}
	if req.UploadID != nil {
		upload, err := g.artifacts.Get(ctx, accountID, *req.UploadID)
		if err != nil {
			return nil, err
		}
		if upload.AfterURL != nil {
			return nil, artifactdomain.ErrArtifactAlreadyLinked
		}
	}
	if err := g.checkSource(ctx, accountID, source); err != nil {
		return nil, err
	}

	tier := ledgerdomain.TierFor(req.HD)
	balance, err := g.ledger.Consume(ctx, accountID, tier)
	if err != nil {
		return nil, err
	}

	jobID, err := g.jobs.Enqueue(ctx, jobdomain.Spec{
		AccountID: accountID,
		SourceRef: source,
		StyleID:   styleID,
		UploadID:  req.UploadID,
		HD:        req.HD,
	})
	if err != nil {
		g.log.Error("credit debited but job not enqueued",
			zap.String("account_id", accountID),
			zap.String("tier", string(tier)),
			zap.Error(err),
		)
		return nil, err
	}

	return &Submission{
		JobID:     jobID,
		Tier:      tier,
		Remaining: balance.Remaining(tier),
	}, nil
}

// checkSource admits remote URLs as-is. A bare storage key must be the
// before-reference of one of the caller's uploads.
func (g *Gate) checkSource(ctx context.Context, accountID string, source string) error {
	lower := strings.ToLower(source)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return nil
	}
	refs := []string{source}
	if g.sources != nil {
		refs = append(refs, g.sources.URL(source))
	}
	_, err := g.artifacts.FindBySource(ctx, accountID, refs...)
	if errors.Is(err, artifactdomain.ErrArtifactNotFound) {
		g.log.Warn("storage source not owned by caller",
			zap.String("account_id", accountID),
			zap.String("source", source),
		)
		return ErrSourceForbidden
	}
	return err
}
