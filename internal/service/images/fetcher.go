package images

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chynybekuuludastan/article_generator/internal/service/llm"
)

const maxImageBytes = 10 << 20

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	Timeout     time.Duration
	Concurrency int
	MinBytes    int
	HTTPClient  *http.Client
	Logger      llm.Logger
}

// Fetcher downloads product images with bounded concurrency.
type Fetcher struct {
	httpClient  *http.Client
	concurrency int
	minBytes    int
	logger      llm.Logger
}

// NewFetcher creates a fetcher with defaults of 10s timeout, five concurrent
// downloads and a 1 KiB minimum payload.
func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 5
	}
	if opts.MinBytes <= 0 {
		opts.MinBytes = 1024
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = llm.NopLogger{}
	}

	return &Fetcher{
		httpClient:  opts.HTTPClient,
		concurrency: opts.Concurrency,
		minBytes:    opts.MinBytes,
		logger:      opts.Logger,
	}
}

// Fetch downloads every URL and returns the usable images in completion
// order. Failed, non-200 and undersized downloads are skipped.
func (f *Fetcher) Fetch(ctx context.Context, urls []string) []llm.ImagePart {
	var (
		mu     sync.Mutex
		result []llm.ImagePart
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for _, url := range urls {
		url := url
		g.Go(func() error {
			image, err := f.FetchOne(gctx, url)
			if err != nil {
				f.logger.Debug("Skipping product image", "url", url, "error", err)
				return nil
			}

			mu.Lock()
			result = append(result, image)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	f.logger.Info("Fetched product images", "requested", len(urls), "usable", len(result))
	return result
}

// FetchOne downloads a single image and normalises its MIME type.
func (f *Fetcher) FetchOne(ctx context.Context, url string) (llm.ImagePart, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return llm.ImagePart{}, err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return llm.ImagePart{}, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return llm.ImagePart{}, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return llm.ImagePart{}, fmt.Errorf("read failed: %w", err)
	}
	if len(data) < f.minBytes {
		return llm.ImagePart{}, fmt.Errorf("image too small: %d bytes", len(data))
	}

	return llm.ImagePart{
		Data:     data,
		MIMEType: NormalizeMIMEType(resp.Header.Get("Content-Type"), data),
	}, nil
}

// NormalizeMIMEType maps a Content-Type header to one of image/jpeg,
// image/png, image/gif or image/webp, sniffing the payload when the header
// is missing or unhelpful. Unknown types default to image/jpeg.
func NormalizeMIMEType(contentType string, data []byte) string {
	if normalized, ok := knownImageType(contentType); ok {
		return normalized
	}
	if normalized, ok := knownImageType(http.DetectContentType(data)); ok {
		return normalized
	}
	return "image/jpeg"
}

func knownImageType(contentType string) (string, bool) {
	if contentType == "" {
		return "", false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}

	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	switch {
	case strings.Contains(mediaType, "png"):
		return "image/png", true
	case strings.Contains(mediaType, "gif"):
		return "image/gif", true
	case strings.Contains(mediaType, "webp"):
		return "image/webp", true
	case strings.Contains(mediaType, "jpeg"), strings.Contains(mediaType, "jpg"):
		return "image/jpeg", true
	}
	return "", false
}
