package booth

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"velvetlens/internal/filter"
)

// stubSource はテスト用の映像ソース
type stubSource struct {
	img   image.Image
	ready bool
	err   error
}

func (s *stubSource) Ready() bool { return s.ready }

func (s *stubSource) Frame(_ context.Context) (image.Image, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.img, nil
}

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func solidPNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(32, 24, c)))
	return buf.Bytes()
}

func fixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// stepClock は呼び出すたびに1秒進む時計
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

var testTime = time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)

func testArtifact(t *testing.T, c color.Color, ts string, id filter.ID) Artifact {
	t.Helper()
	return NewArtifact(solidPNG(t, c), testTime, ts, id)
}

// recorder は通知を記録する Observer
type recorder struct {
	mu          sync.Mutex
	captures    []Artifact
	models      []DisplayModel
	unavailable []error
	exports     []*Composite
	unavailCh   chan struct{}
}

func newRecorder() *recorder {
	return &recorder{unavailCh: make(chan struct{}, 4)}
}

func (r *recorder) CaptureAcknowledged(a Artifact) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.captures = append(r.captures, a)
}

func (r *recorder) ReelChanged(m DisplayModel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models = append(r.models, m)
}

func (r *recorder) SourceUnavailable(err error) {
	r.mu.Lock()
	r.unavailable = append(r.unavailable, err)
	r.mu.Unlock()
	r.unavailCh <- struct{}{}
}

func (r *recorder) Exported(c *Composite) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exports = append(r.exports, c)
}

func (r *recorder) counts() (captures, unavailable, exports int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.captures), len(r.unavailable), len(r.exports)
}
