package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	jobdomain "github.com/interiohub/interio/internal/job/domain"
	"github.com/interiohub/interio/internal/storage"
)

func TestFetchHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/webp; charset=binary")
		_, _ = w.Write([]byte("webp-bytes"))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), storage.NewMemory(storage.URLBuilder{Bucket: "b"}))

	data, ct, err := f.Fetch(context.Background(), srv.URL+"/room.webp")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(data) != "webp-bytes" || ct != "image/webp" {
		t.Fatalf("unexpected source %q %q", data, ct)
	}

	_, _, err = f.Fetch(context.Background(), srv.URL+"/missing.jpg")
	var engineErr *jobdomain.EngineError
	if !errors.As(err, &engineErr) || engineErr.Stage != jobdomain.StageFetch {
		t.Fatalf("expected fetch engine error, got %v", err)
	}
}

func TestFetchStorageKey(t *testing.T) {
	store := storage.NewMemory(storage.URLBuilder{Bucket: "b"})
	if err := store.Put(context.Background(), "uploads/room.jpg", []byte("jpeg"), "application/octet-stream"); err != nil {
		t.Fatalf("put: %v", err)
	}
	f := NewFetcher(nil, store)

	data, ct, err := f.Fetch(context.Background(), "uploads/room.jpg")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(data) != "jpeg" || ct != "image/jpeg" {
		t.Fatalf("unexpected source %q %q", data, ct)
	}

	_, _, err = f.Fetch(context.Background(), "uploads/none.jpg")
	var storageErr *jobdomain.StorageError
	if !errors.As(err, &storageErr) || storageErr.Op != "get" || !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("expected storage get error, got %v", err)
	}

	if _, _, err := f.Fetch(context.Background(), "  "); !errors.Is(err, jobdomain.ErrInvalidSource) {
		t.Fatalf("expected invalid source, got %v", err)
	}
}
