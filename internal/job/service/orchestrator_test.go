package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	artifactdomain "github.com/interiohub/interio/internal/artifact/domain"
	"github.com/interiohub/interio/internal/clock"
	"github.com/interiohub/interio/internal/config"
	enginedomain "github.com/interiohub/interio/internal/engine/domain"
	jobdomain "github.com/interiohub/interio/internal/job/domain"
	"github.com/interiohub/interio/internal/storage"
	"github.com/interiohub/interio/internal/style"
	styledomain "github.com/interiohub/interio/internal/style/domain"
	"go.uber.org/zap"
)

type fakeFetcher struct {
	calls int
	err   error
}

func (f *fakeFetcher) Fetch(ctx context.Context, ref string) ([]byte, string, error) {
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	return []byte("source:" + ref), "image/jpeg", nil
}

type fakeGenerator struct {
	calls  int
	prompt string
	err    error
}

func (g *fakeGenerator) Generate(ctx context.Context, image []byte, mimeType string, prompt string) ([]byte, string, error) {
	g.calls++
	g.prompt = prompt
	if g.err != nil {
		return nil, "", g.err
	}
	return []byte("generated"), "image/png", nil
}

type fakeUpscaler struct {
	configured bool
	calls      int
	format     string
	err        error
}

func (u *fakeUpscaler) Configured() bool { return u.configured }

func (u *fakeUpscaler) Upscale(ctx context.Context, image []byte, format string) ([]byte, string, error) {
	u.calls++
	u.format = format
	if u.err != nil {
		return nil, "", u.err
	}
	return []byte("upscaled"), "image/" + format, nil
}

type fakeLinker struct {
	calls    int
	afterURL string
	err      error
	// after runs once the link call has been recorded.
	after func()
}

func (l *fakeLinker) LinkResult(ctx context.Context, accountID string, uploadID snowflake.ID, afterURL string, styleID string) error {
	l.calls++
	l.afterURL = afterURL
	if l.after != nil {
		l.after()
	}
	return l.err
}

type fakeUsage struct {
	counts map[string]int
	err    error
}

func (u *fakeUsage) Increment(ctx context.Context, styleID string) error {
	if u.err != nil {
		return u.err
	}
	if u.counts == nil {
		u.counts = map[string]int{}
	}
	u.counts[styleID]++
	return nil
}

type harness struct {
	orch      *Orchestrator
	fetcher   *fakeFetcher
	generator *fakeGenerator
	upscaler  *fakeUpscaler
	store     *storage.Memory
	linker    *fakeLinker
	usage     *fakeUsage
}

func newHarness(t *testing.T, policy string) *harness {
	t.Helper()
	cfg := config.Config{
		Generation: config.GenerationConfig{BasePrompt: "Keep the layout."},
		Styles: []config.Style{{
			ID:        "loft",
			Prompt:    "industrial loft interior",
			Furniture: []string{"leather sofa"},
		}},
	}
	h := &harness{
		fetcher:   &fakeFetcher{},
		generator: &fakeGenerator{},
		upscaler:  &fakeUpscaler{configured: true},
		store:     storage.NewMemory(storage.URLBuilder{Bucket: "results", Endpoint: "http://minio:9000"}),
		linker:    &fakeLinker{},
		usage:     &fakeUsage{},
	}
	h.orch = NewOrchestrator(OrchestratorParams{
		Log:       zap.NewNop(),
		Clock:     clock.Fixed(time.Date(2025, 6, 2, 13, 4, 5, 0, time.UTC)),
		Styles:    style.NewCatalog(cfg),
		Fetcher:   h.fetcher,
		Generator: h.generator,
		Upscaler:  h.upscaler,
		Storage:   h.store,
		Artifacts: h.linker,
		Usage:     h.usage,
		Settings:  OrchestratorSettings{UpscalePolicy: policy, OutputFormat: "webp"},
	})
	return h
}

func TestRunStoresAndLinksResult(t *testing.T) {
	h := newHarness(t, PolicyFail)
	uploadID := snowflake.ID(77)

	res, err := h.orch.Run(context.Background(), jobdomain.Spec{
		AccountID: "acc-1",
		SourceRef: "uploads/before.jpg",
		StyleID:   "loft",
		UploadID:  &uploadID,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(res.Key, "generated/loft/20250602_130405_") || !strings.HasSuffix(res.Key, ".png") {
		t.Fatalf("unexpected key %q", res.Key)
	}
	if res.URL != "http://minio:9000/results/"+res.Key {
		t.Fatalf("unexpected url %q", res.URL)
	}
	if res.HD || res.ContentType != "image/png" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Directive["furniture"] != "leather sofa" || res.Directive["style_id"] != "loft" {
		t.Fatalf("unexpected directive metadata %+v", res.Directive)
	}
	if !strings.HasPrefix(h.generator.prompt, "Keep the layout.") {
		t.Fatalf("expected base prompt first, got %q", h.generator.prompt)
	}
	if h.upscaler.calls != 0 {
		t.Fatalf("standard job must not upscale")
	}
	if h.linker.calls != 1 || h.linker.afterURL != res.URL {
		t.Fatalf("expected upload linked to %q, got %d calls %q", res.URL, h.linker.calls, h.linker.afterURL)
	}
	if h.usage.counts["loft"] != 1 {
		t.Fatalf("expected usage increment")
	}
	data, ct, err := h.store.Get(context.Background(), res.Key)
	if err != nil || string(data) != "generated" || ct != "image/png" {
		t.Fatalf("unexpected stored object %q %q %v", data, ct, err)
	}
}

func TestRunUnknownStyleMakesNoExternalCalls(t *testing.T) {
	h := newHarness(t, PolicyFail)

	_, err := h.orch.Run(context.Background(), jobdomain.Spec{AccountID: "acc-1", SourceRef: "x.jpg", StyleID: "baroque"})
	if !errors.Is(err, styledomain.ErrUnknownStyle) {
		t.Fatalf("expected unknown style, got %v", err)
	}
	if h.fetcher.calls != 0 || h.generator.calls != 0 || h.upscaler.calls != 0 || h.store.Len() != 0 {
		t.Fatalf("expected zero external calls")
	}
}

func TestRunGenerateFailureIsEngineError(t *testing.T) {
	h := newHarness(t, PolicyFail)
	h.generator.err = enginedomain.ErrRateLimited

	_, err := h.orch.Run(context.Background(), jobdomain.Spec{AccountID: "acc-1", SourceRef: "x.jpg", StyleID: "loft"})
	var engineErr *jobdomain.EngineError
	if !errors.As(err, &engineErr) || engineErr.Stage != jobdomain.StageGenerate {
		t.Fatalf("expected generate engine error, got %v", err)
	}
	if !errors.Is(err, enginedomain.ErrRateLimited) {
		t.Fatalf("expected cause preserved, got %v", err)
	}
	if h.store.Len() != 0 {
		t.Fatalf("nothing must be stored")
	}
}

func TestRunHDUpscales(t *testing.T) {
	h := newHarness(t, PolicyFail)

	res, err := h.orch.Run(context.Background(), jobdomain.Spec{AccountID: "acc-1", SourceRef: "x.jpg", StyleID: "loft", HD: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if h.upscaler.calls != 1 || h.upscaler.format != "webp" {
		t.Fatalf("expected one webp upscale, got %d %q", h.upscaler.calls, h.upscaler.format)
	}
	if !res.HD || res.ContentType != "image/webp" || !strings.HasSuffix(res.Key, ".webp") {
		t.Fatalf("unexpected hd result %+v", res)
	}
}

func TestRunHDUpscaleFailureNeverFallsBack(t *testing.T) {
	h := newHarness(t, PolicyPassthrough)
	h.upscaler.err = enginedomain.ErrUnavailable

	_, err := h.orch.Run(context.Background(), jobdomain.Spec{AccountID: "acc-1", SourceRef: "x.jpg", StyleID: "loft", HD: true})
	var engineErr *jobdomain.EngineError
	if !errors.As(err, &engineErr) || engineErr.Stage != jobdomain.StageUpscale {
		t.Fatalf("expected upscale engine error, got %v", err)
	}
	if h.store.Len() != 0 || h.linker.calls != 0 {
		t.Fatalf("failed upscale must not store or link")
	}
}

func TestRunHDUnconfiguredUpscaler(t *testing.T) {
	t.Run("fail", func(t *testing.T) {
		h := newHarness(t, PolicyFail)
		h.upscaler.configured = false

		_, err := h.orch.Run(context.Background(), jobdomain.Spec{AccountID: "acc-1", SourceRef: "x.jpg", StyleID: "loft", HD: true})
		if !errors.Is(err, enginedomain.ErrNotConfigured) {
			t.Fatalf("expected not configured error, got %v", err)
		}
	})

	t.Run("passthrough", func(t *testing.T) {
		h := newHarness(t, PolicyPassthrough)
		h.upscaler.configured = false

		res, err := h.orch.Run(context.Background(), jobdomain.Spec{AccountID: "acc-1", SourceRef: "x.jpg", StyleID: "loft", HD: true})
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if h.upscaler.calls != 0 || !res.HD || res.ContentType != "image/png" {
			t.Fatalf("expected generated bytes delivered as hd, got %+v", res)
		}
	})
}

func TestRunLinkFailureDeletesStoredObject(t *testing.T) {
	h := newHarness(t, PolicyFail)
	h.linker.err = artifactdomain.ErrArtifactForbidden
	uploadID := snowflake.ID(5)

	_, err := h.orch.Run(context.Background(), jobdomain.Spec{AccountID: "acc-2", SourceRef: "x.jpg", StyleID: "loft", UploadID: &uploadID})
	if !errors.Is(err, artifactdomain.ErrArtifactForbidden) {
		t.Fatalf("expected link error, got %v", err)
	}
	if h.store.Len() != 0 {
		t.Fatalf("expected stored object removed, %d left", h.store.Len())
	}
	if h.usage.counts["loft"] != 0 {
		t.Fatalf("usage must not count failed jobs")
	}
}

func TestRunCancelAfterLinkKeepsStoredObject(t *testing.T) {
	h := newHarness(t, PolicyFail)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.linker.after = cancel
	uploadID := snowflake.ID(9)

	result, err := h.orch.Run(ctx, jobdomain.Spec{AccountID: "acc-1", SourceRef: "x.jpg", StyleID: "loft", UploadID: &uploadID})
	if err != nil {
		t.Fatalf("a committed link must complete the job, got %v", err)
	}
	if h.store.Len() != 1 {
		t.Fatalf("expected linked object kept, %d stored", h.store.Len())
	}
	if h.linker.afterURL != result.URL {
		t.Fatalf("after url %q does not match result %q", h.linker.afterURL, result.URL)
	}
	if _, _, err := h.store.Get(context.Background(), result.Key); err != nil {
		t.Fatalf("linked object must still be readable: %v", err)
	}
}

func TestRunLinkDriverErrorKeepsStoredObject(t *testing.T) {
	h := newHarness(t, PolicyFail)
	h.linker.err = context.DeadlineExceeded
	uploadID := snowflake.ID(10)

	_, err := h.orch.Run(context.Background(), jobdomain.Spec{AccountID: "acc-1", SourceRef: "x.jpg", StyleID: "loft", UploadID: &uploadID})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected link error, got %v", err)
	}
	if h.store.Len() != 1 {
		t.Fatalf("the link may have committed, object must be kept; %d stored", h.store.Len())
	}
}

// cancelOnPut cancels the job context right after an object is stored.
type cancelOnPut struct {
	*storage.Memory
	cancel func()
}

func (c cancelOnPut) Put(ctx context.Context, key string, data []byte, contentType string) error {
	err := c.Memory.Put(ctx, key, data, contentType)
	c.cancel()
	return err
}

func TestRunCancelledBeforeLinkDiscards(t *testing.T) {
	h := newHarness(t, PolicyFail)
	ctx, cancel := context.WithCancel(context.Background())
	h.orch.storage = cancelOnPut{Memory: h.store, cancel: cancel}
	uploadID := snowflake.ID(11)

	_, err := h.orch.Run(ctx, jobdomain.Spec{AccountID: "acc-1", SourceRef: "x.jpg", StyleID: "loft", UploadID: &uploadID})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if h.linker.calls != 0 {
		t.Fatalf("expected no link attempt, got %d", h.linker.calls)
	}
	if h.store.Len() != 0 {
		t.Fatalf("expected unreferenced object removed, %d left", h.store.Len())
	}
}

func TestRunUsageFailureIsSwallowed(t *testing.T) {
	h := newHarness(t, PolicyFail)
	h.usage.err = errors.New("db down")

	if _, err := h.orch.Run(context.Background(), jobdomain.Spec{AccountID: "acc-1", SourceRef: "x.jpg", StyleID: "loft"}); err != nil {
		t.Fatalf("usage failure must not fail the job: %v", err)
	}
}
