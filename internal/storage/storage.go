package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/interiohub/interio/internal/config"
)

// Storage is a durable object store.
type Storage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Get returns ErrObjectNotFound for missing keys.
	Get(ctx context.Context, key string) ([]byte, string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

var (
	ErrObjectNotFound = errors.New("object_not_found")
	ErrInvalidKey     = errors.New("invalid_key")
)

// URLBuilder renders public object URLs from bucket settings alone.
type URLBuilder struct {
	Bucket   string
	Region   string
	Endpoint string
}

func NewURLBuilder(cfg config.StorageConfig) URLBuilder {
	return URLBuilder{
		Bucket:   strings.TrimSpace(cfg.Bucket),
		Region:   strings.TrimSpace(cfg.Region),
		Endpoint: strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
	}
}

// URL is {endpoint}/{bucket}/{key} for custom endpoints and the regional
// virtual-hosted form otherwise.
func (b URLBuilder) URL(key string) string {
	key = strings.TrimLeft(key, "/")
	if b.Endpoint != "" {
		return b.Endpoint + "/" + b.Bucket + "/" + key
	}
	region := b.Region
	if region == "" {
		region = "us-east-1"
	}
	return "https://" + b.Bucket + ".s3." + region + ".amazonaws.com/" + key
}

func validKey(key string) error {
	if strings.TrimSpace(key) == "" || strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}
