package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/pkg/pdf"
)

// Logo lookup outcomes reported on logo_fetch_total.
const (
	logoOutcomeSkipped = "skipped"
	logoOutcomeCached  = "cached"
	logoOutcomeFetched = "fetched"
	logoOutcomeFailed  = "failed"
)

// logoMaxPixels bounds the longest side of the embedded raster.
const logoMaxPixels = 480

// LogoService downloads tenant logos and normalises them to PNG.
type LogoService struct {
	client   *http.Client
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	timeout  time.Duration
	maxBytes int64
	ttl      time.Duration
}

// LogoOptions bounds a logo download.
type LogoOptions struct {
	Timeout  time.Duration
	MaxBytes int64
	CacheTTL time.Duration
}

// NewLogoService constructs the service. A nil client uses a default one.
func NewLogoService(client *http.Client, cache *CacheService, metrics *MetricsService, opts LogoOptions, logger *zap.Logger) *LogoService {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 2 << 20
	}
	return &LogoService{
		client:   client,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		timeout:  opts.Timeout,
		maxBytes: opts.MaxBytes,
		ttl:      opts.CacheTTL,
	}
}

type cachedLogo struct {
	Data   []byte `json:"data"`
	Format string `json:"format"`
}

// Fetch returns the school logo or nil. Failures are logged and never
// returned: a document without a logo is still a valid document.
func (s *LogoService) Fetch(ctx context.Context, schoolID, url string) *pdf.Image {
	url = strings.TrimSpace(url)
	if url == "" {
		s.metrics.RecordLogoFetch(logoOutcomeSkipped)
		return nil
	}

	key := s.cache.Key("logo", schoolID, url)
	var cached cachedLogo
	if s.cache.Get(ctx, key, &cached) && len(cached.Data) > 0 {
		s.metrics.RecordLogoFetch(logoOutcomeCached)
		return &pdf.Image{Data: cached.Data, Format: cached.Format}
	}

	img, err := s.download(ctx, url)
	if err != nil {
		s.metrics.RecordLogoFetch(logoOutcomeFailed)
		s.logger.Sugar().Warnw("logo unavailable", "school_id", schoolID, "url", url, "error", err)
		return nil
	}
	s.metrics.RecordLogoFetch(logoOutcomeFetched)
	s.cache.Set(ctx, key, cachedLogo{Data: img.Data, Format: img.Format}, s.ttl)
	return img
}

func (s *LogoService) download(ctx context.Context, url string) (*pdf.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build logo request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch logo: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch logo: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read logo: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("logo larger than %d bytes", s.maxBytes)
	}
	return normaliseLogo(data)
}

// normaliseLogo decodes PNG, JPEG, GIF or WebP data, shrinks it and
// re-encodes it as PNG.
func normaliseLogo(data []byte) (*pdf.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty logo")
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	contentType := http.DetectContentType(head)

	var (
		img image.Image
		err error
	)
	switch {
	case strings.Contains(contentType, "webp"):
		img, err = webp.Decode(bytes.NewReader(data))
	case strings.HasPrefix(contentType, "image/"):
		img, err = imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	default:
		return nil, fmt.Errorf("unsupported logo content type %q", contentType)
	}
	if err != nil {
		return nil, fmt.Errorf("decode logo: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > logoMaxPixels || bounds.Dy() > logoMaxPixels {
		img = imaging.Fit(img, logoMaxPixels, logoMaxPixels, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode logo: %w", err)
	}
	return &pdf.Image{Data: buf.Bytes(), Format: "PNG"}, nil
}
