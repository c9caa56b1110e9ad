package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/interiohub/interio/internal/config"
)

func TestURLBuilder(t *testing.T) {
	regional := NewURLBuilder(config.StorageConfig{Bucket: "renders", Region: "eu-north-1"})
	if got := regional.URL("generated/loft/a.webp"); got != "https://renders.s3.eu-north-1.amazonaws.com/generated/loft/a.webp" {
		t.Fatalf("unexpected regional url %q", got)
	}

	custom := NewURLBuilder(config.StorageConfig{Bucket: "renders", Endpoint: "http://minio:9000/"})
	if got := custom.URL("/generated/loft/a.webp"); got != "http://minio:9000/renders/generated/loft/a.webp" {
		t.Fatalf("unexpected endpoint url %q", got)
	}
}

func TestResultKeyFormat(t *testing.T) {
	now := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	key := ResultKey("loft", "image/webp", now)

	pattern := regexp.MustCompile(`^generated/loft/20250203_040506_[0-9a-f]{8}\.webp$`)
	if !pattern.MatchString(key) {
		t.Fatalf("unexpected key %q", key)
	}
	if ResultKey("loft", "image/webp", now) == key {
		t.Fatalf("expected unique suffixes")
	}
}

func TestExtensionFor(t *testing.T) {
	cases := map[string]string{
		"image/webp":               "webp",
		"image/jpeg":               "jpg",
		"image/png":                "png",
		"image/png; charset=utf-8": "png",
		"":                         "png",
	}
	for ct, want := range cases {
		if got := ExtensionFor(ct); got != want {
			t.Fatalf("ExtensionFor(%q) = %q, want %q", ct, got, want)
		}
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory(URLBuilder{Bucket: "b", Endpoint: "http://local"})
	ctx := context.Background()

	if err := m.Put(ctx, "k/1.png", []byte("img"), "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, ct, err := m.Get(ctx, "k/1.png")
	if err != nil || string(data) != "img" || ct != "image/png" {
		t.Fatalf("unexpected get result %q %q %v", data, ct, err)
	}
	if err := m.Delete(ctx, "k/1.png"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := m.Get(ctx, "k/1.png"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := m.Put(ctx, "../etc", nil, ""); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected invalid key, got %v", err)
	}
}
