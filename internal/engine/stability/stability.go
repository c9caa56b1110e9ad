package stability

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/interiohub/interio/internal/engine/domain"
)

const (
	defaultBaseURL = "https://api.stability.ai"
	upscalePath    = "/v2beta/stable-image/upscale/fast"
)

var allowedFormats = map[string]struct{}{
	"png":  {},
	"jpeg": {},
	"webp": {},
}

// Client calls the Stability fast upscaler.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ domain.Upscaler = (*Client)(nil)

type Option func(*Client)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url = strings.TrimRight(strings.TrimSpace(url), "/"); url != "" {
			c.baseURL = url
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Upscale posts the image as multipart form data. Unsupported formats fall
// back to png.
func (c *Client) Upscale(ctx context.Context, image []byte, format string) ([]byte, string, error) {
	if !c.Configured() {
		return nil, "", domain.ErrNotConfigured
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if _, ok := allowedFormats[format]; !ok {
		format = "png"
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	fw, err := form.CreateFormFile("image", "image")
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(image); err != nil {
		return nil, "", err
	}
	if err := form.WriteField("output_format", format); err != nil {
		return nil, "", err
	}
	if err := form.Close(); err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+upscalePath, &buf)
	if err != nil {
		return nil, "", fmt.Errorf("stability: create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "image/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		return nil, "", fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	if err := domain.MapHTTPError(resp); err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("stability: read response: %w", err)
	}
	if len(data) == 0 {
		return nil, "", domain.ErrNoImage
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" || !strings.HasPrefix(mime, "image/") {
		mime = "image/" + format
	}
	return data, mime, nil
}
