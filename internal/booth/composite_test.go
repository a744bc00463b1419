package booth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velvetlens/internal/filter"
)

var reelColors = []color.NRGBA{
	{R: 220, G: 40, B: 40, A: 255},
	{R: 40, G: 200, B: 60, A: 255},
	{R: 30, G: 60, B: 210, A: 255},
}

func threeArtifacts(t *testing.T) []Artifact {
	t.Helper()
	return []Artifact{
		testArtifact(t, reelColors[0], "10:00:03", filter.Grayscale),
		testArtifact(t, reelColors[1], "10:00:02", filter.Vintage),
		testArtifact(t, reelColors[2], "10:00:01", filter.None),
	}
}

// gatedDecoder は解放されるまでデコードを止めるデコーダを返す
// デコードが終わるたびに decoded へ写真の位置を送る
func gatedDecoder(reel []Artifact) (DecodeFunc, []chan struct{}, chan int) {
	index := make(map[string]int, len(reel))
	gates := make([]chan struct{}, len(reel))
	for i, a := range reel {
		index[string(a.pixels)] = i
		gates[i] = make(chan struct{})
	}
	decoded := make(chan int, len(reel))

	decode := func(data []byte) (image.Image, error) {
		i := index[string(data)]
		<-gates[i]
		img, err := decodePNG(data)
		decoded <- i
		return img, err
	}
	return decode, gates, decoded
}

func TestLayout_CanvasSize(t *testing.T) {
	layout := NewExporter(DefaultConfig(), nil).Layout()

	for n := 1; n <= 3; n++ {
		w, h := layout.CanvasSize(n)
		assert.Equal(t, 660, w)
		assert.Equal(t, 500*n, h)
	}
}

func TestLayout_Positions(t *testing.T) {
	layout := NewExporter(DefaultConfig(), nil).Layout()

	assert.Equal(t, image.Rect(10, 10, 650, 490), layout.PhotoRect(0))
	assert.Equal(t, image.Rect(10, 510, 650, 990), layout.PhotoRect(1))
	assert.Equal(t, image.Pt(15, 505), layout.CaptionOrigin(0))
	assert.Equal(t, image.Pt(15, 1005), layout.CaptionOrigin(1))
}

func TestExporter_Filename(t *testing.T) {
	exporter := NewExporter(DefaultConfig(), nil)

	got := exporter.Filename(time.Date(2024, 5, 6, 10, 7, 9, 0, time.UTC))
	assert.Equal(t, "velvetlens-reel-2024-05-06T10-07-09.png", got)

	jst := time.FixedZone("JST", 9*60*60)
	got = exporter.Filename(time.Date(2024, 5, 6, 19, 7, 9, 0, jst))
	assert.Equal(t, "velvetlens-reel-2024-05-06T10-07-09.png", got)
}

func TestExporter_EmptyReel(t *testing.T) {
	exporter := NewExporter(DefaultConfig(), fixedClock(testTime))

	composite, err := exporter.Export(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, composite)
}

func TestExporter_CanvasDimensions(t *testing.T) {
	exporter := NewExporter(DefaultConfig(), fixedClock(testTime))
	reel := threeArtifacts(t)

	for n := 1; n <= 3; n++ {
		t.Run(fmt.Sprintf("%d枚", n), func(t *testing.T) {
			composite, err := exporter.Export(context.Background(), reel[:n])
			require.NoError(t, err)
			require.NotNil(t, composite)

			assert.Equal(t, 660, composite.Width)
			assert.Equal(t, 500*n, composite.Height)
			assert.Equal(t, n, composite.Count)

			img, err := png.Decode(bytes.NewReader(composite.Data))
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 660, 500*n), img.Bounds())
		})
	}
}

func TestExporter_Drawing(t *testing.T) {
	exporter := NewExporter(DefaultConfig(), fixedClock(testTime))

	composite, err := exporter.Export(context.Background(), threeArtifacts(t))
	require.NoError(t, err)
	assert.Equal(t, "velvetlens-reel-2024-05-06T10-00-00.png", composite.Filename)

	img, err := png.Decode(bytes.NewReader(composite.Data))
	require.NoError(t, err)

	at := func(x, y int) color.NRGBA {
		return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	}

	assert.Equal(t, color.NRGBA(canvasBorderColor), at(0, 0))
	assert.Equal(t, color.NRGBA(canvasBorderColor), at(659, 1499))
	assert.Equal(t, color.NRGBA(backgroundColor), at(5, 5))
	assert.Equal(t, color.NRGBA(photoBorderColor), at(10, 10))

	// 新しい順に上から並ぶ
	layout := exporter.Layout()
	for i, want := range reelColors {
		center := layout.PhotoRect(i).Size().Div(2).Add(layout.PhotoRect(i).Min)
		got := at(center.X, center.Y)
		assert.InDelta(t, want.R, got.R, 1, "photo %d", i)
		assert.InDelta(t, want.G, got.G, 1, "photo %d", i)
		assert.InDelta(t, want.B, got.B, 1, "photo %d", i)
	}
}

func TestExporter_CompletionOrderIndependent(t *testing.T) {
	reel := threeArtifacts(t)
	orders := [][]int{
		{0, 1, 2},
		{2, 1, 0},
		{1, 2, 0},
		{2, 0, 1},
	}

	var baseline []byte
	for _, order := range orders {
		t.Run(fmt.Sprint(order), func(t *testing.T) {
			decode, gates, decoded := gatedDecoder(reel)
			exporter := NewExporter(DefaultConfig(), fixedClock(testTime)).WithDecoder(decode)

			type result struct {
				composite *Composite
				err       error
			}
			results := make(chan result, 1)
			go func() {
				c, err := exporter.Export(context.Background(), reel)
				results <- result{c, err}
			}()

			for _, i := range order {
				close(gates[i])
				assert.Equal(t, i, <-decoded)
			}

			res := <-results
			require.NoError(t, res.err)
			require.NotNil(t, res.composite)
			assert.Equal(t, 3, res.composite.Count)

			if baseline == nil {
				baseline = res.composite.Data
				return
			}
			assert.True(t, bytes.Equal(baseline, res.composite.Data), "output differs for order %v", order)
		})
	}
}

func TestExporter_DecodeFailureAborts(t *testing.T) {
	boom := errors.New("corrupt")
	reel := threeArtifacts(t)
	bad := string(reel[1].pixels)

	exporter := NewExporter(DefaultConfig(), fixedClock(testTime)).WithDecoder(func(data []byte) (image.Image, error) {
		if string(data) == bad {
			return nil, boom
		}
		return decodePNG(data)
	})

	composite, err := exporter.Export(context.Background(), reel)
	assert.Nil(t, composite)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecodeFailure)
	assert.Contains(t, err.Error(), "写真 2")
}

func TestExporter_ContextCanceled(t *testing.T) {
	reel := threeArtifacts(t)
	decode, gates, _ := gatedDecoder(reel)
	t.Cleanup(func() {
		for _, g := range gates {
			close(g)
		}
	})

	exporter := NewExporter(DefaultConfig(), fixedClock(testTime)).WithDecoder(decode)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	composite, err := exporter.Export(ctx, reel)
	assert.Nil(t, composite)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStrokeRect(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	strokeRect(img, image.Rect(1, 1, 9, 9), 2, color.Black)

	painted := func(x, y int) bool {
		_, _, _, a := img.At(x, y).RGBA()
		return a != 0
	}

	var got []bool
	for _, p := range []image.Point{{0, 0}, {1, 1}, {2, 2}, {5, 5}, {8, 8}, {9, 9}, {0, 5}} {
		got = append(got, painted(p.X, p.Y))
	}
	want := []bool{true, true, false, false, true, true, true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stroke mismatch (-want +got):\n%s", diff)
	}
}
