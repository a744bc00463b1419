package booth

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velvetlens/internal/camera"
	"velvetlens/internal/filter"
)

func TestEngine_RefusesWhenNotReady(t *testing.T) {
	engine := NewEngine(DefaultConfig(), fixedClock(testTime))

	tests := []struct {
		name string
		src  FrameSource
	}{
		{name: "ソースなし", src: nil},
		{name: "準備中", src: &stubSource{img: solidImage(4, 4, color.White), ready: false}},
		{name: "フレーム未到着", src: &stubSource{ready: true, err: camera.ErrNotReady}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Capture(context.Background(), tt.src, filter.Sepia)
			assert.ErrorIs(t, err, ErrCaptureRefused)
		})
	}
}

func TestEngine_FrameError(t *testing.T) {
	engine := NewEngine(DefaultConfig(), fixedClock(testTime))
	boom := errors.New("boom")

	_, err := engine.Capture(context.Background(), &stubSource{ready: true, err: boom}, filter.None)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrCaptureRefused)
}

func TestEngine_BakesFilter(t *testing.T) {
	engine := NewEngine(DefaultConfig(), fixedClock(testTime))
	gray := color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	src := &stubSource{img: solidImage(64, 48, gray), ready: true}

	artifact, err := engine.Capture(context.Background(), src, filter.Sepia)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(artifact.PNG()))
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 480, img.Bounds().Dy())

	want := filter.EffectFor(filter.Sepia).Transform(gray)
	got := color.NRGBAModel.Convert(img.At(320, 240)).(color.NRGBA)
	assert.InDelta(t, want.R, got.R, 1)
	assert.InDelta(t, want.G, got.G, 1)
	assert.InDelta(t, want.B, got.B, 1)
	assert.Equal(t, uint8(255), got.A)
}

func TestEngine_IdentityKeepsPixels(t *testing.T) {
	engine := NewEngine(DefaultConfig(), fixedClock(testTime))
	red := color.NRGBA{R: 200, G: 30, B: 40, A: 255}

	artifact, err := engine.Capture(context.Background(), &stubSource{img: solidImage(640, 480, red), ready: true}, filter.None)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(artifact.PNG()))
	require.NoError(t, err)
	got := color.NRGBAModel.Convert(img.At(10, 10)).(color.NRGBA)
	assert.Equal(t, red, got)
}

func TestEngine_StampsTimestamp(t *testing.T) {
	engine := NewEngine(DefaultConfig(), fixedClock(testTime))
	src := &stubSource{img: solidImage(8, 8, color.White), ready: true}

	artifact, err := engine.Capture(context.Background(), src, filter.Vintage)
	require.NoError(t, err)

	assert.Equal(t, "5/6/2024, 10:00:00 AM", artifact.Timestamp())
	assert.Equal(t, testTime, artifact.CapturedAt())
	assert.Equal(t, filter.Vintage, artifact.Filter())
}

func TestArtifact_PixelsAreCopied(t *testing.T) {
	data := []byte{1, 2, 3}
	a := NewArtifact(data, testTime, "t", filter.None)
	data[0] = 9

	got := a.PNG()
	assert.Equal(t, []byte{1, 2, 3}, got)

	got[1] = 9
	assert.Equal(t, []byte{1, 2, 3}, a.PNG())
	assert.Equal(t, 3, a.Size())
}
