package booth

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
)

// 書き出し画像の配色
var (
	backgroundColor   = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	canvasBorderColor = color.RGBA{R: 0xde, G: 0xe2, B: 0xe6, A: 0xff}
	photoBorderColor  = color.RGBA{R: 0x6c, G: 0x75, B: 0x7d, A: 0xff}
	captionColor      = color.RGBA{R: 0x49, G: 0x50, B: 0x57, A: 0xff}
)

// DecodeFunc は撮影画像のデータをデコードする
type DecodeFunc func(data []byte) (image.Image, error)

// decodePNG はPNGデータをデコードする
func decodePNG(data []byte) (image.Image, error) {
	return png.Decode(bytes.NewReader(data))
}

// Layout は書き出し画像のレイアウト
type Layout struct {
	PhotoWidth  int
	PhotoHeight int
	Spacing     int
	Padding     int
}

// CanvasSize は写真n枚を縦に並べたキャンバスのサイズを返す
func (l Layout) CanvasSize(n int) (int, int) {
	width := l.PhotoWidth + 2*l.Padding
	height := (l.PhotoHeight+l.Spacing)*n - l.Spacing + 2*l.Padding
	return width, height
}

// PhotoRect はi番目（0始まり、新しい順）の写真の配置範囲を返す
func (l Layout) PhotoRect(i int) image.Rectangle {
	y := l.Padding + i*(l.PhotoHeight+l.Spacing)
	return image.Rect(l.Padding, y, l.Padding+l.PhotoWidth, y+l.PhotoHeight)
}

// CaptionOrigin はi番目の写真のキャプションのベースライン位置を返す
func (l Layout) CaptionOrigin(i int) image.Point {
	r := l.PhotoRect(i)
	return image.Pt(r.Min.X+5, r.Max.Y+15)
}

// Exporter はリールを1枚の画像に結合する
type Exporter struct {
	layout Layout
	prefix string
	clock  Clock
	decode DecodeFunc
}

// NewExporter は新しいExporterを作成する
func NewExporter(cfg Config, clock Clock) *Exporter {
	cfg = cfg.withDefaults()
	if clock == nil {
		clock = SystemClock
	}
	return &Exporter{
		layout: Layout{
			PhotoWidth:  cfg.PhotoWidth,
			PhotoHeight: cfg.PhotoHeight,
			Spacing:     cfg.Spacing,
			Padding:     cfg.Padding,
		},
		prefix: cfg.FilenamePrefix,
		clock:  clock,
		decode: decodePNG,
	}
}

// WithDecoder はデコード処理を差し替えたExporterを返す
func (e *Exporter) WithDecoder(decode DecodeFunc) *Exporter {
	out := *e
	out.decode = decode
	return &out
}

// Layout はレイアウトを返す
func (e *Exporter) Layout() Layout {
	return e.layout
}

// Filename は書き出し時刻から決まるファイル名を返す
func (e *Exporter) Filename(t time.Time) string {
	return fmt.Sprintf("%s-%s.png", e.prefix, t.UTC().Format("2006-01-02T15-04-05"))
}

// Export はリールの全画像を縦に並べた1枚のPNGを作成する
// リールが空の場合は何もせず (nil, nil) を返す
func (e *Exporter) Export(ctx context.Context, reel []Artifact) (*Composite, error) {
	n := len(reel)
	if n == 0 {
		return nil, nil
	}

	width, height := e.layout.CanvasSize(n)
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))

	// 背景と外枠
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)
	strokeRect(canvas, image.Rect(1, 1, width-1, height-1), 2, canvasBorderColor)

	face := newCaptionFace()

	var canvasMu sync.Mutex
	errs := make([]error, n)
	done := make(chan struct{})
	barrier := newCompletionBarrier(n, func() { close(done) })

	for i, a := range reel {
		go func(i int, a Artifact) {
			defer barrier.Done()

			img, err := e.decode(a.pixels)
			if err != nil {
				errs[i] = err
				return
			}

			canvasMu.Lock()
			defer canvasMu.Unlock()
			e.drawSlot(canvas, face, i, img, Caption(a))
		}(i, a)
	}

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("%w: 写真 %d: %v", ErrDecodeFailure, i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("PNG エンコードに失敗: %w", err)
	}

	now := e.clock.Now()
	return &Composite{
		Filename:  e.Filename(now),
		Data:      buf.Bytes(),
		Width:     width,
		Height:    height,
		Count:     n,
		CreatedAt: now,
	}, nil
}

// drawSlot はi番目の位置に写真・枠・キャプションを描画する
func (e *Exporter) drawSlot(canvas *image.RGBA, face font.Face, i int, img image.Image, caption string) {
	r := e.layout.PhotoRect(i)
	xdraw.ApproxBiLinear.Scale(canvas, r, img, img.Bounds(), xdraw.Src, nil)
	strokeRect(canvas, r, 1, photoBorderColor)

	origin := e.layout.CaptionOrigin(i)
	drawText(canvas, face, origin.X, origin.Y, caption, captionColor)
}

// strokeRect は矩形の輪郭を線幅widthで描画する
// 線幅の半分を輪郭の左上側に、残りを右下側に取る
func strokeRect(dst draw.Image, r image.Rectangle, width int, col color.Color) {
	half := width / 2
	outer := image.Rect(r.Min.X-half, r.Min.Y-half, r.Max.X+(width-half), r.Max.Y+(width-half))
	inner := outer.Inset(width)
	src := image.NewUniform(col)

	bands := []image.Rectangle{
		image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, inner.Min.Y), // 上
		image.Rect(outer.Min.X, inner.Max.Y, outer.Max.X, outer.Max.Y), // 下
		image.Rect(outer.Min.X, inner.Min.Y, inner.Min.X, inner.Max.Y), // 左
		image.Rect(inner.Max.X, inner.Min.Y, outer.Max.X, inner.Max.Y), // 右
	}
	for _, band := range bands {
		draw.Draw(dst, band.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
	}
}
