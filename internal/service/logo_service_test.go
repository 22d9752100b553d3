package service

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

type memoryCache struct {
	items map[string][]byte
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func encodeTestImage(t *testing.T, w, h int, format string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 31, G: 78, B: 121, A: 255})
	}
	var buf bytes.Buffer
	switch format {
	case "jpeg":
		require.NoError(t, jpeg.Encode(&buf, img, nil))
	case "gif":
		require.NoError(t, gif.Encode(&buf, img, nil))
	default:
		require.NoError(t, png.Encode(&buf, img))
	}
	return buf.Bytes()
}

func newLogoFixture(t *testing.T, handler http.HandlerFunc, opts LogoOptions) (*LogoService, *MetricsService, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	metrics := NewMetricsService()
	cache := NewCacheService(&memoryCache{items: map[string][]byte{}}, metrics, time.Hour, zap.NewNop(), true)
	return NewLogoService(server.Client(), cache, metrics, opts, zap.NewNop()), metrics, server.URL
}

func TestLogoFetchNormalisesAndCaches(t *testing.T) {
	body := encodeTestImage(t, 1200, 600, "jpeg")
	var hits int32
	svc, metrics, url := newLogoFixture(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(body)
	}, LogoOptions{})

	img := svc.Fetch(context.Background(), testSchoolID, url+"/logo.jpg")
	require.NotNil(t, img)
	assert.Equal(t, "PNG", img.Format)

	decoded, err := png.Decode(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, 480, decoded.Bounds().Dx())
	assert.Equal(t, 240, decoded.Bounds().Dy())

	again := svc.Fetch(context.Background(), testSchoolID, url+"/logo.jpg")
	require.NotNil(t, again)
	assert.Equal(t, img.Data, again.Data)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.logoFetches.WithLabelValues(logoOutcomeFetched)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.logoFetches.WithLabelValues(logoOutcomeCached)))
}

func TestLogoFetchDegradesToNoLogo(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		opts    LogoOptions
	}{
		{
			name:    "not found",
			handler: func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) },
		},
		{
			name: "not an image",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html><body>logo</body></html>"))
			},
		},
		{
			name: "too large",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write(bytes.Repeat([]byte{0x89}, 4096))
			},
			opts: LogoOptions{MaxBytes: 1024},
		},
		{
			name: "slow",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			opts: LogoOptions{Timeout: 50 * time.Millisecond},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, metrics, url := newLogoFixture(t, tc.handler, tc.opts)

			assert.Nil(t, svc.Fetch(context.Background(), testSchoolID, url+"/logo.png"))
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.logoFetches.WithLabelValues(logoOutcomeFailed)))
		})
	}
}

func TestLogoFetchSkipsEmptyURL(t *testing.T) {
	var hits int32
	svc, metrics, _ := newLogoFixture(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}, LogoOptions{})

	assert.Nil(t, svc.Fetch(context.Background(), testSchoolID, "  "))
	assert.Zero(t, atomic.LoadInt32(&hits))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.logoFetches.WithLabelValues(logoOutcomeSkipped)))
}

func TestNormaliseLogoKeepsSmallImages(t *testing.T) {
	img, err := normaliseLogo(encodeTestImage(t, 120, 40, "png"))
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 120, 40), decoded.Bounds())

	_, err = normaliseLogo(nil)
	assert.Error(t, err)
}

func TestNormaliseLogoReencodesGIFAsPNG(t *testing.T) {
	img, err := normaliseLogo(encodeTestImage(t, 960, 120, "gif"))
	require.NoError(t, err)
	assert.Equal(t, "PNG", img.Format)

	decoded, err := png.Decode(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 480, 60), decoded.Bounds())
}
