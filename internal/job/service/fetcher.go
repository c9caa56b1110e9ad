package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	jobdomain "github.com/interiohub/interio/internal/job/domain"
	"github.com/interiohub/interio/internal/storage"
)

// maxSourceBytes caps a downloaded source image.
const maxSourceBytes = 25 << 20

// Fetcher loads source images from http(s) URLs or storage keys.
type Fetcher struct {
	client  *http.Client
	storage storage.Storage
}

func NewFetcher(client *http.Client, store storage.Storage) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client, storage: store}
}

func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, "", jobdomain.ErrInvalidSource
	}
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return f.fetchURL(ctx, ref)
	}

	data, contentType, err := f.storage.Get(ctx, ref)
	if err != nil {
		return nil, "", &jobdomain.StorageError{Op: "get", Err: err}
	}
	return data, sniff(contentType, data), nil
}

func (f *Fetcher) fetchURL(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", jobdomain.ErrInvalidSource, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", &jobdomain.EngineError{Stage: jobdomain.StageFetch, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", &jobdomain.EngineError{
			Stage: jobdomain.StageFetch,
			Err:   fmt.Errorf("source returned status %d", resp.StatusCode),
		}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes+1))
	if err != nil {
		return nil, "", &jobdomain.EngineError{Stage: jobdomain.StageFetch, Err: err}
	}
	if len(data) > maxSourceBytes {
		return nil, "", &jobdomain.EngineError{Stage: jobdomain.StageFetch, Err: errors.New("source image too large")}
	}
	if len(data) == 0 {
		return nil, "", &jobdomain.EngineError{Stage: jobdomain.StageFetch, Err: errors.New("source image is empty")}
	}
	return data, sniff(resp.Header.Get("Content-Type"), data), nil
}

// sniff keeps a declared image type and otherwise detects one from the bytes.
func sniff(declared string, data []byte) string {
	declared = strings.TrimSpace(strings.SplitN(declared, ";", 2)[0])
	if strings.HasPrefix(declared, "image/") {
		return declared
	}
	if detected := http.DetectContentType(data); strings.HasPrefix(detected, "image/") {
		return detected
	}
	return "image/jpeg"
}
